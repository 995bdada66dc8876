package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/brainvault/brainvault-server/internal/domain"
	"github.com/brainvault/brainvault-server/internal/id"
	"github.com/brainvault/brainvault-server/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, external_auth_id, email, display_name, subscription, created_at, updated_at`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u           domain.User
		email       sql.NullString
		displayName sql.NullString
		tier        string
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(&u.ID, &u.ExternalAuthID, &email, &displayName, &tier, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	u.Email = email.String
	u.DisplayName = displayName.String
	u.SubscriptionTier = domain.SubscriptionTier(tier)

	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+userColumns+` FROM users WHERE id = ?`), userID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) getUserByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+userColumns+` FROM users WHERE external_auth_id = ?`), externalID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by external id: %w", err)
	}
	return u, nil
}

// GetOrCreateUserByExternalID returns the user bound to externalID, creating
// it on first sight. The bool reports whether a row was inserted.
//
// If email already belongs to another account the user is created without
// one; the identity provider subject is the only hard identity.
func (s *Store) GetOrCreateUserByExternalID(ctx context.Context, externalID, email string) (*domain.User, bool, error) {
	u, err := s.getUserByExternalID(ctx, externalID)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, false, err
	}
	now := s.now()
	u = &domain.User{
		ID:               userID,
		ExternalAuthID:   externalID,
		Email:            strings.TrimSpace(email),
		SubscriptionTier: domain.TierFree,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.insertUser(ctx, u)
	if err == nil {
		return u, true, nil
	}
	if !s.dialect.isUniqueViolation(err) {
		return nil, false, fmt.Errorf("insert user: %w", err)
	}

	// Lost a race for the same subject, or the email is taken.
	if existing, getErr := s.getUserByExternalID(ctx, externalID); getErr == nil {
		return existing, false, nil
	}
	if u.Email == "" {
		return nil, false, fmt.Errorf("insert user: %w", err)
	}

	s.logger.Warn("email already bound to another account, creating user without email",
		"external_auth_id", externalID)
	u.Email = ""
	if err := s.insertUser(ctx, u); err != nil {
		return nil, false, fmt.Errorf("insert user: %w", err)
	}
	return u, true, nil
}

func (s *Store) insertUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		u.ID,
		u.ExternalAuthID,
		nullString(u.Email),
		nullString(u.DisplayName),
		string(u.SubscriptionTier),
		formatTime(u.CreatedAt),
		formatTime(u.UpdatedAt),
	)
	return err
}

// UpdateUser applies a profile patch.
// Returns store.ErrAlreadyExists if the new email belongs to another user.
func (s *Store) UpdateUser(ctx context.Context, userID string, patch domain.UserPatch) (*domain.User, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)

	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, nullString(strings.TrimSpace(*patch.Email)))
	}
	if patch.DisplayName != nil {
		sets = append(sets, "display_name = ?")
		args = append(args, nullString(strings.TrimSpace(*patch.DisplayName)))
	}
	if patch.SubscriptionTier != nil {
		sets = append(sets, "subscription = ?")
		args = append(args, string(*patch.SubscriptionTier))
	}
	if len(sets) == 0 {
		return s.GetUser(ctx, userID)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(s.now()), userID)

	result, err := s.db.ExecContext(ctx, s.q(`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		if s.dialect.isUniqueViolation(err) {
			return nil, store.ErrAlreadyExists.WithMessage("email already in use")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetUser(ctx, userID)
}

// DeleteUser removes a user and all of their ideas in one transaction.
// Ideas are deleted explicitly so the cascade does not depend on the
// foreign key action being enforced by the connection.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM ideas WHERE owner_id = ?`), userID); err != nil {
		return fmt.Errorf("delete user ideas: %w", err)
	}

	result, err := tx.ExecContext(ctx, s.q(`DELETE FROM users WHERE id = ?`), userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if err := s.searchIndexer.DeleteOwner(ctx, userID); err != nil {
		s.logger.Warn("failed to purge user from search index", "user_id", userID, "error", err)
	}
	return nil
}
