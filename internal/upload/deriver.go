package upload

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/dharti-patel/hipster-image-upload/internal/domain"
)

// Strategy — способ получения одного варианта из оригинала.
// Реальный ресайзер подключается здесь же, не трогая пайплайн.
type Strategy interface {
	Transform(name string, src io.Reader, dst io.Writer) error
}

// CopyStrategy дублирует оригинал под именем варианта (референсное поведение).
type CopyStrategy struct{}

func (CopyStrategy) Transform(_ string, src io.Reader, dst io.Writer) error {
	_, err := io.Copy(dst, src)
	return err
}

// Deriver сохраняет оригинал и фиксированный набор вариантов.
// Либо записываются все объекты, либо частичные записи убираются и
// возвращается ошибка — ассет в этом случае не создаётся.
type Deriver struct {
	log      *log.Logger
	blobs    domain.BlobStorage
	names    []string
	strategy Strategy
}

func NewDeriver(logger *log.Logger, blobs domain.BlobStorage, names []string, strategy Strategy) *Deriver {
	return &Deriver{log: logger, blobs: blobs, names: names, strategy: strategy}
}

// Derive ожидает собранный и проверенный файл по ключу assembledKey(sess.ID).
func (d *Deriver) Derive(ctx context.Context, sess domain.UploadSession) (string, domain.VariantMap, error) {
	srcKey := assembledKey(sess.ID)
	origKey := originalKey(sess.ID, sess.Filename)

	if err := d.blobs.Copy(ctx, srcKey, origKey); err != nil {
		return "", nil, fmt.Errorf("derive session=%s: persist original: %w", sess.ID, err)
	}

	variants := make(domain.VariantMap, len(d.names))
	written := []string{origKey}
	for _, name := range d.names {
		vKey := variantKey(sess.ID, name, sess.Filename)
		if err := d.writeVariant(ctx, srcKey, vKey, name, sess.MIME); err != nil {
			// убираем частично записанное; чанки остаются для разбора
			_ = d.blobs.Delete(ctx, written...)
			return "", nil, fmt.Errorf("derive session=%s variant=%s: %w", sess.ID, name, err)
		}
		written = append(written, vKey)
		variants[name] = vKey
	}

	d.log.Printf("derive ok session=%s variants=%d", sess.ID, len(variants))
	return origKey, variants, nil
}

func (d *Deriver) writeVariant(ctx context.Context, srcKey, dstKey, name, mime string) error {
	rc, err := d.blobs.Get(ctx, srcKey)
	if err != nil {
		return err
	}
	defer rc.Close()

	// при ошибке Put закрытый pr будит Transform, застрявший в записи
	pr, pw := io.Pipe()
	defer pr.Close()
	go func() {
		pw.CloseWithError(d.strategy.Transform(name, rc, pw))
	}()
	return d.blobs.Put(ctx, dstKey, pr, -1, mime)
}
