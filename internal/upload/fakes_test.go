package upload

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dharti-patel/hipster-image-upload/internal/domain"
)

// In-memory реализации портов для тестов ядра.

type memBlobs struct {
	mu            sync.Mutex
	objects       map[string][]byte
	failPutPrefix string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: make(map[string][]byte)}
}

// failPuts: Put по ключам с данным префиксом падает, не читая тело —
// так ведёт себя оборванная запись в объектное хранилище.
func (m *memBlobs) failPuts(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPutPrefix = prefix
}

func (m *memBlobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	m.mu.Lock()
	prefix := m.failPutPrefix
	m.mu.Unlock()
	if prefix != "" && strings.HasPrefix(key, prefix) {
		return io.ErrUnexpectedEOF
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	return nil
}

func (m *memBlobs) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), b...))), nil
}

func (m *memBlobs) Copy(_ context.Context, srcKey, dstKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[srcKey]
	if !ok {
		return domain.ErrNotFound
	}
	m.objects[dstKey] = append([]byte(nil), b...)
	return nil
}

func (m *memBlobs) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.objects, k)
	}
	return nil
}

func (m *memBlobs) ListPrefix(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *memBlobs) Ping(context.Context) error { return nil }

func (m *memBlobs) object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	return b, ok
}

type memSessions struct {
	mu         sync.Mutex
	sessions   map[domain.SessionID]domain.UploadSession
	transitErr error
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[domain.SessionID]domain.UploadSession)}
}

// failTransitions: TransitSession возвращает err, пока не сбросить nil-ом.
func (m *memSessions) failTransitions(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitErr = err
}

func (m *memSessions) Close()                     {}
func (m *memSessions) Ping(context.Context) error { return nil }

func (m *memSessions) CreateSession(_ context.Context, s domain.UploadSession) (domain.UploadSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Status = domain.SessionPending
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	m.sessions[s.ID] = s
	return s, nil
}

func (m *memSessions) SessionByID(_ context.Context, id domain.SessionID) (domain.UploadSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.UploadSession{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *memSessions) TransitSession(_ context.Context, id domain.SessionID, from, to domain.SessionStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transitErr != nil {
		return false, m.transitErr
	}
	s, ok := m.sessions[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	s.UpdatedAt = time.Now()
	m.sessions[id] = s
	return true, nil
}

type memAssets struct {
	mu        sync.Mutex
	bySession map[domain.SessionID]domain.Asset
}

func newMemAssets() *memAssets {
	return &memAssets{bySession: make(map[domain.SessionID]domain.Asset)}
}

func (m *memAssets) CreateAsset(_ context.Context, a domain.Asset) (domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bySession[a.SessionID]; ok {
		return domain.Asset{}, domain.ErrDuplicateSession
	}
	a.CreatedAt = time.Now()
	m.bySession[a.SessionID] = a
	return a, nil
}

func (m *memAssets) AssetBySession(_ context.Context, id domain.SessionID) (domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.bySession[id]
	if !ok {
		return domain.Asset{}, domain.ErrNotFound
	}
	return a, nil
}

func (m *memAssets) AssetByID(_ context.Context, id domain.AssetID) (domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.bySession {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Asset{}, domain.ErrNotFound
}

func (m *memAssets) AssetByOriginalPath(_ context.Context, path string) (domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.bySession {
		if a.OriginalPath == path {
			return a, nil
		}
	}
	return domain.Asset{}, domain.ErrNotFound
}

func (m *memAssets) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bySession)
}

type memCache struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{values: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *memCache) Set(_ context.Context, key string, val []byte, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = val
	return nil
}

func (m *memCache) SetNX(_ context.Context, key string, val []byte, _ int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = val
	return true, nil
}

func (m *memCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memCache) Ping(context.Context) error { return nil }
func (m *memCache) Close()                     {}
