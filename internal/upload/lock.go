package upload

import (
	"context"
	"time"

	"github.com/dharti-patel/hipster-image-upload/internal/domain"
)

const (
	lockRetryDelay = 100 * time.Millisecond
	lockRetries    = 50
)

// acquireFinalizeLock — lease-лок на finalize поверх SetNX. TTL страхует от
// упавшего держателя. Если лок так и не взят, идём дальше без него:
// CAS статуса и unique(session_id) в БД не дадут создать второй ассет.
func (s *Service) acquireFinalizeLock(ctx context.Context, id domain.SessionID) func() {
	key := domain.LockKeyFinalize(id)
	for i := 0; i < lockRetries; i++ {
		ok, err := s.cache.SetNX(ctx, key, []byte("1"), s.lockTTL)
		if err != nil {
			s.log.Printf("finalize lock session=%s: setnx error: %v", id, err)
			return func() {}
		}
		if ok {
			return func() { _ = s.cache.Del(context.WithoutCancel(ctx), key) }
		}
		select {
		case <-ctx.Done():
			return func() {}
		case <-time.After(lockRetryDelay):
		}
	}
	s.log.Printf("finalize lock session=%s: not acquired, relying on db guards", id)
	return func() {}
}
