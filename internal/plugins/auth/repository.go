package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lethanhdatit/bocmenh/internal/apperror"
)

// ResetTokenStore defines the data access contract for reset tokens.
type ResetTokenStore interface {
	Create(ctx context.Context, t *ResetToken) error

	// FindByHash returns apperror.NotFound for unknown hashes.
	FindByHash(ctx context.Context, tokenHash string) (*ResetToken, error)

	// MarkUsed stamps the token as used. It reports false when the token
	// was unknown or already used, so at most one caller ever wins.
	MarkUsed(ctx context.Context, tokenHash string, at time.Time) (bool, error)

	// DeleteExpired removes tokens that expired before cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// --- In-memory store ---

// memoryTokenStore is a process-local ResetTokenStore for development and
// single-instance deployments.
type memoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]ResetToken
}

// NewMemoryTokenStore creates an in-memory reset token store.
func NewMemoryTokenStore() ResetTokenStore {
	return &memoryTokenStore{tokens: make(map[string]ResetToken)}
}

func (s *memoryTokenStore) Create(_ context.Context, t *ResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[t.TokenHash] = *t
	return nil
}

func (s *memoryTokenStore) FindByHash(_ context.Context, tokenHash string) (*ResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[tokenHash]
	if !ok {
		return nil, apperror.NewNotFound(errTokenInvalid)
	}
	return &t, nil
}

func (s *memoryTokenStore) MarkUsed(_ context.Context, tokenHash string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[tokenHash]
	if !ok || t.UsedAt != nil {
		return false, nil
	}
	t.UsedAt = &at
	s.tokens[tokenHash] = t
	return true, nil
}

func (s *memoryTokenStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for hash, t := range s.tokens {
		if t.ExpiresAt.Before(cutoff) {
			delete(s.tokens, hash)
			n++
		}
	}
	return n, nil
}

// --- MariaDB store ---

// resetTokenRepository implements ResetTokenStore with MariaDB queries
// against password_reset_tokens.
type resetTokenRepository struct {
	db *sql.DB
}

// NewResetTokenRepository creates a reset token store backed by db.
func NewResetTokenRepository(db *sql.DB) ResetTokenStore {
	return &resetTokenRepository{db: db}
}

// Create inserts a new token row.
func (r *resetTokenRepository) Create(ctx context.Context, t *ResetToken) error {
	query := `INSERT INTO password_reset_tokens (token_hash, email, created_at, expires_at)
	          VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, t.TokenHash, t.Email, t.CreatedAt, t.ExpiresAt); err != nil {
		return fmt.Errorf("creating reset token: %w", err)
	}
	return nil
}

// FindByHash looks up a token by its hash.
func (r *resetTokenRepository) FindByHash(ctx context.Context, tokenHash string) (*ResetToken, error) {
	query := `SELECT token_hash, email, created_at, expires_at, used_at
	          FROM password_reset_tokens WHERE token_hash = ?`

	t := &ResetToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&t.TokenHash, &t.Email, &t.CreatedAt, &t.ExpiresAt, &t.UsedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound(errTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("finding reset token: %w", err)
	}
	return t, nil
}

// MarkUsed stamps used_at only if it is still NULL.
func (r *resetTokenRepository) MarkUsed(ctx context.Context, tokenHash string, at time.Time) (bool, error) {
	query := `UPDATE password_reset_tokens SET used_at = ?
	          WHERE token_hash = ? AND used_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, at, tokenHash)
	if err != nil {
		return false, fmt.Errorf("marking reset token used: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("marking reset token used: %w", err)
	}
	return n == 1, nil
}

// DeleteExpired removes tokens that expired before cutoff.
func (r *resetTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE expires_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting expired reset tokens: %w", err)
	}
	return result.RowsAffected()
}
