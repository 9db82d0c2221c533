package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// TokenRepo stores SHA-256 digests of refresh tokens. The raw token never
// reaches the database.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, digest string, exp time.Time) error {
	_, err := conn(ctx, r.DB).ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at) VALUES (?,?,?,?)`,
		userID, digest, exp.UTC(), time.Now().UTC())
	return err
}

// ValidateRefresh resolves digest to its owner. Revoked, expired and
// unknown tokens all report ErrNotFound.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, digest string) (uint64, error) {
	var (
		owner   uint64
		exp     time.Time
		revoked sql.NullTime
	)
	err := conn(ctx, r.DB).QueryRowContext(ctx,
		`SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=?`, digest,
	).Scan(&owner, &exp, &revoked)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, ErrNotFound
	case err != nil:
		return 0, err
	case revoked.Valid, !exp.After(time.Now().UTC()):
		return 0, ErrNotFound
	}
	return owner, nil
}

func (r *TokenRepo) RevokeByHash(ctx context.Context, digest string) error {
	return r.revoke(ctx, sq.Eq{"token_hash": digest})
}

// RevokeAllForUser ends every session of userID; logout without a refresh
// token uses it.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	return r.revoke(ctx, sq.Eq{"user_id": userID})
}

func (r *TokenRepo) revoke(ctx context.Context, where sq.Eq) error {
	q, args, err := sq.Update("refresh_tokens").
		Set("revoked_at", time.Now().UTC()).
		Where(where).
		Where(sq.Eq{"revoked_at": nil}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = conn(ctx, r.DB).ExecContext(ctx, q, args...)
	return err
}
