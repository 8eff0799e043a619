package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dharti-patel/hipster-image-upload/internal/domain"
)

type chunkRef struct {
	index int
	key   string
}

// listChunks собирает чанки сессии и сортирует по числовому индексу:
// "10" идёт после "2". Пропуски индексов здесь не проверяются — полноту
// доказывает только итоговая контрольная сумма.
func (s *Service) listChunks(ctx context.Context, id domain.SessionID) ([]chunkRef, error) {
	keys, err := s.blobs.ListPrefix(ctx, chunkPrefix(id))
	if err != nil {
		return nil, fmt.Errorf("list chunks session=%s: %w", id, err)
	}

	chunks := make([]chunkRef, 0, len(keys))
	for _, key := range keys {
		idx, err := strconv.Atoi(key[strings.LastIndex(key, "/")+1:])
		if err != nil {
			s.log.Printf("skip foreign object %q under chunk prefix: %v", key, err)
			continue
		}
		chunks = append(chunks, chunkRef{index: idx, key: key})
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].index < chunks[j].index })
	return chunks, nil
}

// assemble конкатенирует чанки по порядку в объект tmp/assembled_<id>,
// параллельно считая sha256 — файл целиком в память не поднимается.
func (s *Service) assemble(ctx context.Context, sess domain.UploadSession, chunks []chunkRef) (string, int64, error) {
	h := sha256.New()
	var total int64

	// читающий конец закрываем при любом исходе: если Put упал, не дочитав
	// поток, писатель иначе навсегда виснет в pw.Write
	pr, pw := io.Pipe()
	defer pr.Close()
	go func() {
		var copyErr error
		mw := io.MultiWriter(h, pw)
		for _, c := range chunks {
			rc, err := s.blobs.Get(ctx, c.key)
			if err != nil {
				copyErr = err
				break
			}
			n, err := io.Copy(mw, rc)
			rc.Close()
			total += n
			if err != nil {
				copyErr = err
				break
			}
		}
		pw.CloseWithError(copyErr)
	}()

	if err := s.blobs.Put(ctx, assembledKey(sess.ID), pr, -1, sess.MIME); err != nil {
		return "", 0, fmt.Errorf("assemble session=%s: %w", sess.ID, err)
	}
	return hex.EncodeToString(h.Sum(nil)), total, nil
}
