package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

var (
	// ErrSessionNotFound is returned when a staged session is missing or expired.
	ErrSessionNotFound = errors.New("staged session not found")
	// ErrVersionConflict is returned when a session was saved by someone else
	// since it was loaded.
	ErrVersionConflict = errors.New("staged session version conflict")
)

const sessionKeyPrefix = "marking:session:"

// SessionRepository stages marking sessions in Redis between requests.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository constructs a Redis-backed session store.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

// Save stores the session snapshot and resets its TTL. It is a compare-and-set
// on Version: a zero version creates the session, any other version must match
// the stored one. On success session.Version is advanced.
func (r *SessionRepository) Save(ctx context.Context, session *models.StagedSession, ttl time.Duration) error {
	key := sessionKey(session.ID)
	next := *session
	next.Version++
	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", session.ID, err)
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, exists, err := storedVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := checkVersion(session.Version, stored, exists); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		session.Version = next.Version
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return ErrVersionConflict
	case errors.Is(err, ErrVersionConflict), errors.Is(err, ErrSessionNotFound):
		return err
	default:
		return fmt.Errorf("redis save session %s: %w", session.ID, err)
	}
}

func storedVersion(ctx context.Context, tx *redis.Tx, key string) (int64, bool, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	var current struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(raw, &current); err != nil {
		return 0, false, fmt.Errorf("unmarshal stored session: %w", err)
	}
	return current.Version, true, nil
}

// checkVersion decides whether a save carrying version may replace the stored
// session. Version zero creates; otherwise the stored session must exist and match.
func checkVersion(version, stored int64, exists bool) error {
	switch {
	case !exists && version == 0:
		return nil
	case !exists:
		return ErrSessionNotFound
	case stored != version:
		return ErrVersionConflict
	}
	return nil
}

// Get loads a staged session.
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.StagedSession, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get session %s: %w", id, err)
	}
	var session models.StagedSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &session, nil
}

// Delete discards a staged session.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session %s: %w", id, err)
	}
	return nil
}
