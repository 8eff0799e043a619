package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/dharti-patel/hipster-image-upload/internal/domain"
)

// TTL кеша меты сессии (сек). Горячий путь — приём чанков.
const sessionMetaTTL = 300

// Service — ядро пайплайна: открытие сессии, приём чанков, finalize
// (сборка -> проверка суммы -> варианты -> ассет -> cleanup).
type Service struct {
	log      *log.Logger
	sessions domain.SessionsRepo
	assets   domain.AssetsRepo
	blobs    domain.BlobStorage
	cache    domain.Cache
	deriver  *Deriver
	lockTTL  int
}

func NewService(
	logger *log.Logger,
	sessions domain.SessionsRepo,
	assets domain.AssetsRepo,
	blobs domain.BlobStorage,
	cache domain.Cache,
	deriver *Deriver,
	lockTTLSeconds int,
) *Service {
	return &Service{
		log:      logger,
		sessions: sessions,
		assets:   assets,
		blobs:    blobs,
		cache:    cache,
		deriver:  deriver,
		lockTTL:  lockTTLSeconds,
	}
}

type OpenParams struct {
	Filename string
	MIME     string
	Size     int64
	Checksum string
}

// Open создаёт pending-сессию. Checksum фиксируется здесь и больше не меняется.
func (s *Service) Open(ctx context.Context, p OpenParams) (domain.UploadSession, error) {
	p.Checksum = strings.ToLower(strings.TrimSpace(p.Checksum))
	if p.Filename == "" || p.Size < 0 || !domain.ValidChecksum(p.Checksum) {
		return domain.UploadSession{}, fmt.Errorf("open upload: %w", domain.ErrBadParams)
	}

	sess, err := s.sessions.CreateSession(ctx, domain.UploadSession{
		ID:        uuid.New(),
		Filename:  p.Filename,
		MIME:      p.MIME,
		SizeBytes: p.Size,
		Checksum:  p.Checksum,
		Status:    domain.SessionPending,
	})
	if err != nil {
		return domain.UploadSession{}, fmt.Errorf("open upload: %w", err)
	}
	s.log.Printf("session opened id=%s filename=%q size=%d", sess.ID, sess.Filename, sess.SizeBytes)
	return sess, nil
}

// Receive принимает один чанк. Повторная отправка того же индекса
// перезаписывает объект — ретрай сети не плодит дубликатов. Никаких
// проверок порядка и полноты здесь нет, это чистый intake.
func (s *Service) Receive(ctx context.Context, id domain.SessionID, index int, r io.Reader, size int64) error {
	if index < 0 {
		return fmt.Errorf("receive chunk session=%s: negative index: %w", id, domain.ErrBadParams)
	}

	sess, err := s.sessionMeta(ctx, id)
	if err != nil {
		return err
	}
	// failed — терминальный, байты больше не принимаем
	if sess.Status == domain.SessionFailed {
		return fmt.Errorf("receive chunk session=%s: session failed: %w", id, domain.ErrNotFound)
	}

	if err := s.blobs.Put(ctx, chunkKey(id, index), r, size, "application/octet-stream"); err != nil {
		return fmt.Errorf("receive chunk session=%s index=%d: %w", id, index, err)
	}
	return nil
}

// Finalize — единственная операция, требующая взаимного исключения по сессии.
// Идемпотентна: повторный вызов после успеха возвращает существующий ассет.
func (s *Service) Finalize(ctx context.Context, id domain.SessionID) (domain.Asset, error) {
	sess, err := s.sessions.SessionByID(ctx, id)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("finalize session=%s: %w", id, err)
	}
	if sess.Status == domain.SessionComplete {
		return s.existingAsset(ctx, id)
	}
	if sess.Status == domain.SessionFailed {
		return domain.Asset{}, fmt.Errorf("finalize session=%s: session failed: %w", id, domain.ErrDerivationFailed)
	}

	release := s.acquireFinalizeLock(ctx, id)
	defer release()

	// под локом перечитываем: параллельный finalize мог уже завершить сессию
	sess, err = s.sessions.SessionByID(ctx, id)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("finalize session=%s: %w", id, err)
	}
	if sess.Status == domain.SessionComplete {
		return s.existingAsset(ctx, id)
	}

	chunks, err := s.listChunks(ctx, id)
	if err != nil {
		return domain.Asset{}, err
	}

	digest, total, err := s.assemble(ctx, sess, chunks)
	if err != nil {
		return domain.Asset{}, err
	}

	if digest != sess.Checksum {
		// сессия остаётся pending: клиент дошлёт чанки и повторит finalize
		_ = s.blobs.Delete(ctx, assembledKey(id))
		s.log.Printf("checksum mismatch session=%s got=%s want=%s bytes=%d chunks=%d",
			id, digest, sess.Checksum, total, len(chunks))
		return domain.Asset{}, fmt.Errorf("finalize session=%s: %w", id, domain.ErrChecksumMismatch)
	}

	origPath, variants, err := s.deriver.Derive(ctx, sess)
	if err != nil {
		return domain.Asset{}, s.failSession(ctx, id, err)
	}

	created, err := s.assets.CreateAsset(ctx, domain.Asset{
		ID:           uuid.New(),
		SessionID:    id,
		OriginalPath: origPath,
		MIME:         sess.MIME,
		Variants:     variants,
	})
	if errors.Is(err, domain.ErrDuplicateSession) {
		// гонку всё же проиграли — желаемое состояние уже достигнуто
		s.log.Printf("finalize session=%s: asset already created by concurrent finalize", id)
		created, err = s.assets.AssetBySession(ctx, id)
	}
	if err != nil {
		return domain.Asset{}, s.failSession(ctx, id, err)
	}

	if _, err := s.sessions.TransitSession(ctx, id, domain.SessionPending, domain.SessionComplete); err != nil {
		// ассет уже записан, сессию не валим: повторный finalize упрётся
		// в duplicate-guard и дозавершит переход
		return domain.Asset{}, fmt.Errorf("finalize session=%s: mark complete: %w", id, err)
	}
	_ = s.cache.Del(ctx, domain.CacheKeySessionMeta(id))

	// успех: временные чанки и сборка больше не нужны
	s.cleanupChunks(ctx, id, chunks)

	s.log.Printf("finalize ok session=%s asset=%s bytes=%d variants=%d", id, created.ID, total, len(variants))
	return created, nil
}

// failSession: pending -> failed (терминально). Чанки намеренно не удаляются —
// их оставляем для диагностики.
func (s *Service) failSession(ctx context.Context, id domain.SessionID, cause error) error {
	if _, err := s.sessions.TransitSession(ctx, id, domain.SessionPending, domain.SessionFailed); err != nil {
		s.log.Printf("mark failed session=%s: %v", id, err)
	}
	_ = s.cache.Del(ctx, domain.CacheKeySessionMeta(id))
	_ = s.blobs.Delete(ctx, assembledKey(id))
	s.log.Printf("finalize failed session=%s: %v", id, cause)
	return fmt.Errorf("finalize session=%s: %v: %w", id, cause, domain.ErrDerivationFailed)
}

func (s *Service) existingAsset(ctx context.Context, id domain.SessionID) (domain.Asset, error) {
	a, err := s.assets.AssetBySession(ctx, id)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("finalize session=%s: load existing asset: %w", id, err)
	}
	return a, nil
}

func (s *Service) cleanupChunks(ctx context.Context, id domain.SessionID, chunks []chunkRef) {
	keys := make([]string, 0, len(chunks)+1)
	for _, c := range chunks {
		keys = append(keys, c.key)
	}
	keys = append(keys, assembledKey(id))
	if err := s.blobs.Delete(ctx, keys...); err != nil {
		// не фатально: ассет уже создан, мусор подберёт retention
		s.log.Printf("cleanup session=%s: %v", id, err)
	}
}

// sessionMeta — мета сессии с кешем (горячий путь приёма чанков).
func (s *Service) sessionMeta(ctx context.Context, id domain.SessionID) (domain.UploadSession, error) {
	key := domain.CacheKeySessionMeta(id)
	if b, err := s.cache.Get(ctx, key); err == nil && len(b) > 0 {
		var sess domain.UploadSession
		if json.Unmarshal(b, &sess) == nil {
			return sess, nil
		}
	}

	sess, err := s.sessions.SessionByID(ctx, id)
	if err != nil {
		return domain.UploadSession{}, fmt.Errorf("session meta id=%s: %w", id, err)
	}
	if b, err := json.Marshal(sess); err == nil {
		_ = s.cache.Set(ctx, key, b, sessionMetaTTL)
	}
	return sess, nil
}
