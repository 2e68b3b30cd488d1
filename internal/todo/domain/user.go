package domain

// User is an entry in the credential directory. Name doubles as the opaque
// identity carried inside access tokens.
type User struct {
	Name         string
	PasswordHash string // argon2id, PHC encoded
	Todos        []string
}
