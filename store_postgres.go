package smsverify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// postgresVerificationStore is a [VerificationStore] for deployments that
// already carry Postgres. Atomicity of ConsumeIfMatch comes from a single
// conditional DELETE: only one of any number of concurrent matching callers
// can observe RowsAffected == 1.
type postgresVerificationStore struct {
	db    *sql.DB
	table string
}

// NewPostgresVerificationStore returns a store backed by the given database
// handle. The table must exist:
//
//	CREATE TABLE sms_verification_codes (
//	    phone      TEXT PRIMARY KEY,
//	    code       TEXT NOT NULL,
//	    created_at BIGINT NOT NULL,
//	    expires_at BIGINT NOT NULL,
//	    attempts   INT NOT NULL DEFAULT 0
//	);
func NewPostgresVerificationStore(db *sql.DB) VerificationStore {
	return &postgresVerificationStore{
		db:    db,
		table: "sms_verification_codes",
	}
}

func (s *postgresVerificationStore) Put(ctx context.Context, phone, code string, now time.Time, expiry time.Duration) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (phone, code, created_at, expires_at, attempts)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (phone) DO UPDATE
		SET code = EXCLUDED.code,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at,
		    attempts = 0`, s.table)

	if _, err := s.db.ExecContext(ctx, query, phone, code, now.Unix(), now.Add(expiry).Unix()); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

func (s *postgresVerificationStore) Get(ctx context.Context, phone string) (*VerificationRecord, error) {
	query := fmt.Sprintf(
		`SELECT code, created_at, expires_at, attempts FROM %s WHERE phone = $1`, s.table)

	record := &VerificationRecord{Phone: phone}
	err := s.db.QueryRowContext(ctx, query, phone).
		Scan(&record.Code, &record.CreatedAt, &record.ExpiresAt, &record.Attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return record, nil
}

func (s *postgresVerificationStore) ConsumeIfMatch(ctx context.Context, phone, code string, now time.Time) error {
	// Happy path first: the conditional DELETE is the consume point. At most
	// one concurrent caller sees an affected row.
	query := fmt.Sprintf(
		`DELETE FROM %s WHERE phone = $1 AND code = $2 AND expires_at > $3`, s.table)

	res, err := s.db.ExecContext(ctx, query, phone, code, now.Unix())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return nil
	}

	// Not consumed; classify why.
	record, err := s.Get(ctx, phone)
	if err != nil {
		return err
	}

	if now.Unix() >= record.ExpiresAt {
		reap := fmt.Sprintf(`DELETE FROM %s WHERE phone = $1 AND expires_at <= $2`, s.table)
		if _, err := s.db.ExecContext(ctx, reap, phone, now.Unix()); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return ErrCodeExpired
	}

	bump := fmt.Sprintf(`UPDATE %s SET attempts = attempts + 1 WHERE phone = $1`, s.table)
	if _, err := s.db.ExecContext(ctx, bump, phone); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return ErrCodeMismatch
}

// ReapExpired deletes every record past its expiry.
func (s *postgresVerificationStore) ReapExpired(ctx context.Context, now time.Time) (int, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= $1`, s.table)

	res, err := s.db.ExecContext(ctx, query, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}
