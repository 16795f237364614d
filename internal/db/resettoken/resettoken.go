package resettoken

import (
	"context"
	"errors"
	"time"

	c "resetme/internal/core/domain/common"
	"resetme/internal/core/domain/resettoken"
	"resetme/internal/core/domain/user"
	"resetme/internal/db"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

const PG_UNIQUE_CONSTRAINT_ERR_CODE = "23505"
const TOKEN_HASH_CONSTRAINT_NAME = "password_reset_token_hash_idx"

const tokenColumns = `id, user_id, token_hash, created_at, expires_at,
	used, used_at, attempts, last_attempt_at, request_ip, request_user_agent`

type PgxTokenRepository struct {
	db db.DBTX
}

func NewPgxRepository(db db.DBTX) *PgxTokenRepository {
	if db == nil {
		panic("Argument db must not be nil.")
	}
	return &PgxTokenRepository{db: db}
}

func (r *PgxTokenRepository) Create(
	ctx context.Context,
	input resettoken.CreateInput,
) (t resettoken.ResetToken, err error) {
	row := r.db.QueryRow(
		ctx,
		`INSERT INTO password_reset_token
			(user_id, token_hash, created_at, expires_at, request_ip, request_user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+tokenColumns,
		int64(input.UserID),
		string(input.TokenHash),
		input.CreatedAt,
		input.ExpiresAt,
		encodeOptionalString(input.RequestIP),
		encodeOptionalString(input.RequestUserAgent),
	)
	t, err = scanToken(row)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == PG_UNIQUE_CONSTRAINT_ERR_CODE && pgErr.ConstraintName == TOKEN_HASH_CONSTRAINT_NAME {
			return t, resettoken.ErrTokenHashAlreadyExists
		}
	}
	return t, err
}

func (r *PgxTokenRepository) GetByHash(
	ctx context.Context,
	hash resettoken.TokenHash,
) (t resettoken.ResetToken, err error) {
	row := r.db.QueryRow(
		ctx,
		`SELECT `+tokenColumns+` FROM password_reset_token WHERE token_hash = $1`,
		string(hash),
	)
	t, err = scanToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, resettoken.ErrTokenDoesNotExist
	}
	return t, err
}

func (r *PgxTokenRepository) RegisterAttempt(ctx context.Context, id resettoken.ID, at time.Time) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE password_reset_token
		SET attempts = attempts + 1, last_attempt_at = $2
		WHERE id = $1`,
		int64(id),
		at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return resettoken.ErrTokenDoesNotExist
	}
	return nil
}

func (r *PgxTokenRepository) MarkUsed(ctx context.Context, id resettoken.ID, at time.Time) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE password_reset_token
		SET used = TRUE, used_at = $2
		WHERE id = $1 AND used = FALSE`,
		int64(id),
		at,
	)
	if err != nil {
		return err
	}
	// Zero rows means either the token does not exist or another caller
	// redeemed it first. The row is known to exist on every code path
	// that gets here, so report the conflict.
	if tag.RowsAffected() == 0 {
		return resettoken.ErrTokenAlreadyUsed
	}
	return nil
}

func (r *PgxTokenRepository) InvalidateAllForUser(
	ctx context.Context,
	userID user.ID,
	at time.Time,
) (int64, error) {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE password_reset_token
		SET used = TRUE, used_at = $2
		WHERE user_id = $1 AND used = FALSE AND expires_at > $2`,
		int64(userID),
		at,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func encodeOptionalString(v c.Optional[string]) pgtype.Text {
	if !v.IsPresent {
		return pgtype.Text{Status: pgtype.Null}
	}
	return pgtype.Text{String: v.Value, Status: pgtype.Present}
}

func scanToken(row pgx.Row) (t resettoken.ResetToken, err error) {
	var id, userID int64
	var tokenHash string
	var usedAt, lastAttemptAt pgtype.Timestamptz
	var attempts int32
	var requestIP, requestUserAgent pgtype.Text
	err = row.Scan(
		&id,
		&userID,
		&tokenHash,
		&t.CreatedAt,
		&t.ExpiresAt,
		&t.Used,
		&usedAt,
		&attempts,
		&lastAttemptAt,
		&requestIP,
		&requestUserAgent,
	)
	if err != nil {
		return t, err
	}
	t.ID = resettoken.ID(id)
	t.UserID = user.ID(userID)
	t.TokenHash = resettoken.TokenHash(tokenHash)
	t.UsedAt = c.NewOptional(usedAt.Time, usedAt.Status == pgtype.Present)
	t.Attempts = uint32(attempts)
	t.LastAttemptAt = c.NewOptional(lastAttemptAt.Time, lastAttemptAt.Status == pgtype.Present)
	t.RequestIP = c.NewOptional(requestIP.String, requestIP.Status == pgtype.Present)
	t.RequestUserAgent = c.NewOptional(requestUserAgent.String, requestUserAgent.Status == pgtype.Present)
	return t, nil
}
