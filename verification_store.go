package smsverify

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const verificationRecordVersionV1 = 1

// redisVerificationStore is the primary [VerificationStore]: one versioned
// binary record per phone key. Records carry an explicit expiry checked on
// every access; the Redis TTL is only a reaping aid.
type redisVerificationStore struct {
	redis  redis.UniversalClient
	prefix string
}

func newRedisVerificationStore(redisClient redis.UniversalClient, prefix string) *redisVerificationStore {
	return &redisVerificationStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *redisVerificationStore) key(phone string) string {
	return s.prefix + ":code:" + phone
}

// Put describes the put operation and its observable behavior.
//
// Put may return an error when input validation, dependency calls, or security checks fail.
// Put does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *redisVerificationStore) Put(ctx context.Context, phone, code string, now time.Time, expiry time.Duration) error {
	record := &VerificationRecord{
		Phone:     phone,
		Code:      code,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(expiry).Unix(),
		Attempts:  0,
	}

	encoded, err := encodeVerificationRecord(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// TTL slightly past the logical expiry so Get can still distinguish
	// "expired" from "never issued" near the boundary.
	ttl := expiry + time.Minute
	if err := s.redis.Set(ctx, s.key(phone), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation, dependency calls, or security checks fail.
// Get does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *redisVerificationStore) Get(ctx context.Context, phone string) (*VerificationRecord, error) {
	data, err := s.redis.Get(ctx, s.key(phone)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	record, err := decodeVerificationRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	record.Phone = phone

	return record, nil
}

// ConsumeIfMatch describes the consumeifmatch operation and its observable behavior.
//
// ConsumeIfMatch may return an error when input validation, dependency calls, or security checks fail.
// ConsumeIfMatch does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *redisVerificationStore) ConsumeIfMatch(ctx context.Context, phone, code string, now time.Time) error {
	const maxRetries = 4
	key := s.key(phone)

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeVerificationRecord(data)
			if err != nil {
				return err
			}

			if now.Unix() >= record.ExpiresAt {
				// No longer valid for any caller; reap it now.
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrCodeExpired
			}

			if subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) != 1 {
				record.Attempts++

				ttl := time.Until(time.Unix(record.ExpiresAt, 0)) + time.Minute
				updated, err := encodeVerificationRecord(record)
				if err != nil {
					return err
				}

				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, ttl)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrCodeMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return ErrCodeNotFound
			case errors.Is(err, ErrCodeExpired), errors.Is(err, ErrCodeMismatch), errors.Is(err, ErrCodeNotFound):
				return err
			default:
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
		}

		return nil
	}

	// Key kept changing underneath us; a concurrent caller won the record.
	return ErrCodeNotFound
}

// ReapExpired scans the code keyspace and deletes records whose logical
// expiry has passed. Best effort; Redis TTLs cover anything it misses.
func (s *redisVerificationStore) ReapExpired(ctx context.Context, now time.Time) (int, error) {
	var reaped int
	var cursor uint64

	pattern := s.prefix + ":code:*"
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return reaped, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		for _, key := range keys {
			data, err := s.redis.Get(ctx, key).Bytes()
			if err != nil {
				continue
			}
			record, err := decodeVerificationRecord(data)
			if err != nil {
				continue
			}
			if now.Unix() >= record.ExpiresAt {
				if s.redis.Del(ctx, key).Err() == nil {
					reaped++
				}
			}
		}

		cursor = next
		if cursor == 0 {
			return reaped, nil
		}
	}
}

func encodeVerificationRecord(record *VerificationRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(verificationRecordVersionV1)

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.Code) > 255 {
		return nil, errors.New("verification code too long")
	}
	buf.WriteByte(byte(len(record.Code)))
	buf.WriteString(record.Code)

	return buf.Bytes(), nil
}

func decodeVerificationRecord(data []byte) (*VerificationRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != verificationRecordVersionV1 {
		return nil, errors.New("invalid verification record version")
	}

	record := &VerificationRecord{}

	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	codeLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	code := make([]byte, codeLen)
	if _, err := io.ReadFull(reader, code); err != nil {
		return nil, err
	}
	record.Code = string(code)

	return record, nil
}
