package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dharti-patel/hipster-image-upload/internal/domain"
)

// Service — массовый импорт товаров из CSV. Upsert по SKU, каждая строка —
// отдельная атомарная единица: ошибка одной строки не валит остальные.
type Service struct {
	log      *log.Logger
	products domain.ProductsRepo
	assets   domain.AssetsRepo
}

func NewService(logger *log.Logger, products domain.ProductsRepo, assets domain.AssetsRepo) *Service {
	return &Service{log: logger, products: products, assets: assets}
}

// RowRef — пара sku/name для эха в ответе импорта.
type RowRef struct {
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// Import читает CSV с заголовком (sku,name,description,price,image_path).
// Заголовки и значения триммятся; повторный sku внутри файла — дубликат;
// строка без sku или name — invalid.
func (s *Service) Import(ctx context.Context, r io.Reader) (domain.ImportSummary, []RowRef, error) {
	var summary domain.ImportSummary

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return summary, nil, fmt.Errorf("import csv: read header: %w", domain.ErrBadParams)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.ToLower(h))] = i
	}
	if _, ok := cols["sku"]; !ok {
		return summary, nil, fmt.Errorf("import csv: no sku column: %w", domain.ErrBadParams)
	}

	seen := map[string]bool{}
	var rows []RowRef

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// битая строка CSV — считаем invalid и идём дальше
			summary.Total++
			summary.Invalid++
			s.log.Printf("import: malformed row %d: %v", summary.Total, err)
			continue
		}
		summary.Total++

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		sku, name := field("sku"), field("name")
		if sku == "" || name == "" {
			summary.Invalid++
			continue
		}
		if seen[sku] {
			summary.Duplicates++
			continue
		}
		seen[sku] = true

		var price *float64
		if raw := field("price"); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				price = &v
			}
		}

		_, inserted, err := s.products.UpsertProduct(ctx, domain.Product{
			ID:          uuid.New(),
			SKU:         sku,
			Name:        name,
			Description: field("description"),
			Price:       price,
		})
		if err != nil {
			// строка не прошла — импорт не останавливаем
			summary.Invalid++
			s.log.Printf("import: upsert sku=%s: %v", sku, err)
			continue
		}
		if inserted {
			summary.Imported++
		} else {
			summary.Updated++
		}
		rows = append(rows, RowRef{SKU: sku, Name: name})

		if imgPath := field("image_path"); imgPath != "" {
			s.attachPrimaryAsset(ctx, sku, imgPath)
		}
	}

	s.log.Printf("import done total=%d imported=%d updated=%d invalid=%d duplicates=%d",
		summary.Total, summary.Imported, summary.Updated, summary.Invalid, summary.Duplicates)
	return summary, rows, nil
}

// attachPrimaryAsset — идемпотентная привязка по ключу оригинала.
// Ассета с таким путём может не быть (картинки грузятся отдельно) — тогда no-op.
func (s *Service) attachPrimaryAsset(ctx context.Context, sku, imgPath string) {
	asset, err := s.assets.AssetByOriginalPath(ctx, imgPath)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Printf("import: lookup asset path=%q: %v", imgPath, err)
		}
		return
	}
	if err := s.products.LinkPrimaryAsset(ctx, sku, asset.ID); err != nil {
		s.log.Printf("import: link sku=%s asset=%s: %v", sku, asset.ID, err)
	}
}
