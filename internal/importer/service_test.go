package importer

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dharti-patel/hipster-image-upload/internal/domain"
)

type memProducts struct {
	mu    sync.Mutex
	bySKU map[string]domain.Product
	fail  map[string]bool // sku -> имитировать ошибку БД
}

func newMemProducts() *memProducts {
	return &memProducts{bySKU: make(map[string]domain.Product), fail: make(map[string]bool)}
}

func (m *memProducts) UpsertProduct(_ context.Context, p domain.Product) (domain.Product, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[p.SKU] {
		return domain.Product{}, false, io.ErrUnexpectedEOF
	}
	if prev, ok := m.bySKU[p.SKU]; ok {
		p.ID = prev.ID
		p.PrimaryAssetID = prev.PrimaryAssetID
		p.CreatedAt = prev.CreatedAt
		p.UpdatedAt = time.Now()
		m.bySKU[p.SKU] = p
		return p, false, nil
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.bySKU[p.SKU] = p
	return p, true, nil
}

func (m *memProducts) ProductBySKU(_ context.Context, sku string) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.bySKU[sku]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *memProducts) LinkPrimaryAsset(_ context.Context, sku string, assetID domain.AssetID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.bySKU[sku]
	if !ok {
		return domain.ErrNotFound
	}
	p.PrimaryAssetID = &assetID
	m.bySKU[sku] = p
	return nil
}

type memAssets struct {
	byPath map[string]domain.Asset
}

func (m *memAssets) CreateAsset(_ context.Context, a domain.Asset) (domain.Asset, error) {
	return a, nil
}
func (m *memAssets) AssetBySession(context.Context, domain.SessionID) (domain.Asset, error) {
	return domain.Asset{}, domain.ErrNotFound
}
func (m *memAssets) AssetByID(context.Context, domain.AssetID) (domain.Asset, error) {
	return domain.Asset{}, domain.ErrNotFound
}
func (m *memAssets) AssetByOriginalPath(_ context.Context, path string) (domain.Asset, error) {
	a, ok := m.byPath[path]
	if !ok {
		return domain.Asset{}, domain.ErrNotFound
	}
	return a, nil
}

func newService(products *memProducts, assets *memAssets) *Service {
	if assets == nil {
		assets = &memAssets{byPath: map[string]domain.Asset{}}
	}
	return NewService(log.New(io.Discard, "", 0), products, assets)
}

func TestImportSummaryCounts(t *testing.T) {
	products := newMemProducts()
	svc := newService(products, nil)

	// заголовки и значения с пробелами, дубликат SKU, строка без name
	csv := strings.Join([]string{
		" sku , name , description , price ",
		"A-1, Widget , blue widget , 9.99",
		"A-2,Gadget,,12.50",
		"A-1,Widget again,,",
		"A-3,,no name,",
		"A-4,Last,,not-a-price",
	}, "\n")

	summary, rows, err := svc.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	require.Equal(t, 5, summary.Total)
	require.Equal(t, 3, summary.Imported)
	require.Equal(t, 0, summary.Updated)
	require.Equal(t, 1, summary.Invalid)
	require.Equal(t, 1, summary.Duplicates)
	require.Len(t, rows, 3)

	p, err := products.ProductBySKU(context.Background(), "A-1")
	require.NoError(t, err)
	require.Equal(t, "Widget", p.Name)
	require.NotNil(t, p.Price)
	require.InDelta(t, 9.99, *p.Price, 1e-9)

	// не-число в price не валит строку, просто без цены
	p4, err := products.ProductBySKU(context.Background(), "A-4")
	require.NoError(t, err)
	require.Nil(t, p4.Price)
}

func TestImportUpsertUpdatesExisting(t *testing.T) {
	products := newMemProducts()
	svc := newService(products, nil)
	ctx := context.Background()

	_, _, err := svc.Import(ctx, strings.NewReader("sku,name\nA-1,Old name\n"))
	require.NoError(t, err)

	summary, _, err := svc.Import(ctx, strings.NewReader("sku,name\nA-1,New name\n"))
	require.NoError(t, err)
	require.Equal(t, 0, summary.Imported)
	require.Equal(t, 1, summary.Updated)

	p, err := products.ProductBySKU(ctx, "A-1")
	require.NoError(t, err)
	require.Equal(t, "New name", p.Name)
}

func TestImportRowErrorDoesNotStopOthers(t *testing.T) {
	products := newMemProducts()
	products.fail["B-2"] = true
	svc := newService(products, nil)

	csv := "sku,name\nB-1,First\nB-2,Broken\nB-3,Third\n"
	summary, _, err := svc.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	require.Equal(t, 2, summary.Imported)
	require.Equal(t, 1, summary.Invalid)

	_, err = products.ProductBySKU(context.Background(), "B-3")
	require.NoError(t, err)
}

func TestImportLinksAssetByPath(t *testing.T) {
	products := newMemProducts()
	asset := domain.Asset{ID: domain.AssetID{1}, OriginalPath: "images/original/x_cat.jpg"}
	assets := &memAssets{byPath: map[string]domain.Asset{asset.OriginalPath: asset}}
	svc := newService(products, assets)
	ctx := context.Background()

	csv := "sku,name,image_path\n" +
		"C-1,Cat,images/original/x_cat.jpg\n" +
		"C-2,Dog,images/original/missing.jpg\n"
	summary, _, err := svc.Import(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 2, summary.Imported)

	// привязка только там, где ассет существует
	c1, err := products.ProductBySKU(ctx, "C-1")
	require.NoError(t, err)
	require.NotNil(t, c1.PrimaryAssetID)
	require.Equal(t, asset.ID, *c1.PrimaryAssetID)

	c2, err := products.ProductBySKU(ctx, "C-2")
	require.NoError(t, err)
	require.Nil(t, c2.PrimaryAssetID)
}

func TestImportRejectsMissingSKUColumn(t *testing.T) {
	svc := newService(newMemProducts(), nil)
	_, _, err := svc.Import(context.Background(), strings.NewReader("name,price\nX,1\n"))
	require.ErrorIs(t, err, domain.ErrBadParams)
}
