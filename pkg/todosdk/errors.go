package todosdk

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrSessionExpired means the refresh cookie no longer maps to a session.
// The caller has to log in again.
var ErrSessionExpired = errors.New("todosdk: session expired")

// StatusError is a non-200 HTTP response.
type StatusError struct {
	StatusCode int
	Errors     []GraphQLError
	Body       string
}

func (e *StatusError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("todosdk: http %d: %s", e.StatusCode, e.Errors[0].Message)
	}
	return fmt.Sprintf("todosdk: http %d", e.StatusCode)
}

// GraphQLErrors is a 200 response whose errors array is not empty.
type GraphQLErrors struct {
	Errors []GraphQLError
}

func (e *GraphQLErrors) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msgs = append(msgs, ge.Message)
	}
	return "todosdk: graphql: " + strings.Join(msgs, "; ")
}

// HasCode reports whether any error carries extensions.code == code.
func (e *GraphQLErrors) HasCode(code string) bool {
	for _, ge := range e.Errors {
		if ge.Code() == code {
			return true
		}
	}
	return false
}

// IsUnauthorized reports whether err is an HTTP 401 from the service.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}
