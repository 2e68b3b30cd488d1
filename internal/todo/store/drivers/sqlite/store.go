package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/todoauth/internal/todo/domain"
	"github.com/aussiebroadwan/todoauth/internal/todo/store"
	_ "modernc.org/sqlite"
)

// Store is a SQLite backed credential directory.
type Store struct {
	db  *sql.DB
	dsn string
}

var _ store.Directory = (*Store)(nil)

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite serialises writers anyway, and an in-memory database only
	// exists on the connection that created it.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) GetUser(ctx context.Context, name string) (domain.User, error) {
	u := domain.User{Name: name}

	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE name = ?`, name,
	).Scan(&u.PasswordHash)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT title FROM todos WHERE user_name = ? ORDER BY position`, name,
	)
	if err != nil {
		return domain.User{}, fmt.Errorf("sqlite: list todos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return domain.User{}, fmt.Errorf("sqlite: scan todo: %w", err)
		}
		u.Todos = append(u.Todos, title)
	}
	return u, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, u domain.User) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE name = ?`, u.Name).Scan(&exists)
		switch {
		case err == nil:
			return store.ErrAlreadyExists
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (name, password_hash) VALUES (?, ?)`,
			u.Name, u.PasswordHash,
		); err != nil {
			return fmt.Errorf("sqlite: insert user: %w", err)
		}

		for i, title := range u.Todos {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO todos (user_name, position, title) VALUES (?, ?, ?)`,
				u.Name, i, title,
			); err != nil {
				return fmt.Errorf("sqlite: insert todo: %w", err)
			}
		}
		return nil
	})
}

// withTx executes fn within a transaction, rolling back when fn fails.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
