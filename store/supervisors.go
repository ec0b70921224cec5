package store

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

// EnsureSupervisor seeds the bootstrap supervisor account on first run. An
// existing account with the same username is left alone, so a changed
// -admin-pass flag does not silently rotate credentials.
func (s *Store) EnsureSupervisor(ctx context.Context, username, password string) error {
	var exists bool
	err := s.db.
		QueryRowContext(ctx, "SELECT 1 FROM supervisor WHERE username = ?", username).
		Scan(&exists)
	if err == nil && exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO supervisor (username, password_hash) VALUES (?, ?)
		ON CONFLICT (username) DO NOTHING`,
		username,
		string(hash),
	)
	return err
}
