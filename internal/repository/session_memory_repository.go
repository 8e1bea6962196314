package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

// MemorySessionRepository keeps staged sessions in process memory. It backs
// single-instance deployments running without Redis.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions *ttlcache.Cache[string, models.StagedSession]
}

// NewMemorySessionRepository constructs an in-process session store. Reads
// do not extend a session's TTL; only saves do.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: ttlcache.New[string, models.StagedSession](
			ttlcache.WithDisableTouchOnHit[string, models.StagedSession](),
		),
	}
}

// Save stores a copy of the session until ttl elapses. It applies the same
// version check as the Redis store and advances session.Version on success.
func (r *MemorySessionRepository) Save(_ context.Context, session *models.StagedSession, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions.DeleteExpired()
	var stored int64
	item := r.sessions.Get(session.ID)
	if item != nil {
		stored = item.Value().Version
	}
	if err := checkVersion(session.Version, stored, item != nil); err != nil {
		return err
	}

	next := cloneStaged(*session)
	next.Version++
	r.sessions.Set(session.ID, next, ttl)
	session.Version = next.Version
	return nil
}

// Get returns a copy of the session when it has not expired.
func (r *MemorySessionRepository) Get(_ context.Context, id string) (*models.StagedSession, error) {
	item := r.sessions.Get(id)
	if item == nil {
		return nil, ErrSessionNotFound
	}
	session := cloneStaged(item.Value())
	return &session, nil
}

// Delete discards a session.
func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions.Delete(id)
	return nil
}

func cloneStaged(s models.StagedSession) models.StagedSession {
	s.Snapshot.Entries = append([]models.RosterEntry(nil), s.Snapshot.Entries...)
	s.Snapshot.AbsentIDs = append([]string(nil), s.Snapshot.AbsentIDs...)
	return s
}
