package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/dharti-patel/hipster-image-upload/internal/domain"
)

// UpsertProduct — upsert по SKU, одна строка = одна атомарная единица импорта.
// (xmax = 0) отличает вставку от обновления без второго запроса.
func (r *PGRepo) UpsertProduct(ctx context.Context, p domain.Product) (domain.Product, bool, error) {
	q := r.qb().Insert(fmt.Sprintf("%s.products", schema)).
		Columns("id", "sku", "name", "description", "price").
		Values(p.ID, p.SKU, p.Name, p.Description, p.Price).
		Suffix(`ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			updated_at = now()
		RETURNING id, sku, name, description, price, primary_asset_id, created_at, updated_at, (xmax = 0) AS inserted`)

	sqlStr, args, _ := q.ToSql()
	r.logSQL("UpsertProduct", sqlStr, args)

	start := time.Now()
	row := r.pool.QueryRow(ctx, sqlStr, args...)
	var (
		out      domain.Product
		desc     *string
		inserted bool
	)
	if err := row.Scan(
		&out.ID, &out.SKU, &out.Name, &desc, &out.Price,
		&out.PrimaryAssetID, &out.CreatedAt, &out.UpdatedAt, &inserted,
	); err != nil {
		r.logger.Printf("UpsertProduct scan error after %s: %v", time.Since(start), err)
		return domain.Product{}, false, err
	}
	if desc != nil {
		out.Description = *desc
	}
	r.logger.Printf("UpsertProduct ok in %s sku=%s inserted=%v", time.Since(start), out.SKU, inserted)
	return out, inserted, nil
}

func (r *PGRepo) ProductBySKU(ctx context.Context, sku string) (domain.Product, error) {
	q := r.qb().Select("id", "sku", "name", "description", "price", "primary_asset_id", "created_at", "updated_at").
		From(fmt.Sprintf("%s.products", schema)).
		Where(sq.Eq{"sku": sku})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("ProductBySKU", sqlStr, args)

	start := time.Now()
	row := r.pool.QueryRow(ctx, sqlStr, args...)
	var (
		out  domain.Product
		desc *string
	)
	if err := row.Scan(
		&out.ID, &out.SKU, &out.Name, &desc, &out.Price,
		&out.PrimaryAssetID, &out.CreatedAt, &out.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("ProductBySKU not found in %s sku=%s", time.Since(start), sku)
			return domain.Product{}, domain.ErrNotFound
		}
		r.logger.Printf("ProductBySKU scan error after %s: %v", time.Since(start), err)
		return domain.Product{}, err
	}
	if desc != nil {
		out.Description = *desc
	}
	r.logger.Printf("ProductBySKU ok in %s sku=%s", time.Since(start), out.SKU)
	return out, nil
}

func (r *PGRepo) LinkPrimaryAsset(ctx context.Context, sku string, assetID domain.AssetID) error {
	q := r.qb().Update(fmt.Sprintf("%s.products", schema)).
		SetMap(map[string]any{
			"primary_asset_id": assetID,
			"updated_at":       sq.Expr("now()"),
		}).
		Where(sq.Eq{"sku": sku})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("LinkPrimaryAsset", sqlStr, args)

	start := time.Now()
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("LinkPrimaryAsset exec error after %s: %v", time.Since(start), err)
		return err
	}
	if tag.RowsAffected() == 0 {
		r.logger.Printf("LinkPrimaryAsset no rows in %s sku=%s", time.Since(start), sku)
		return domain.ErrNotFound
	}
	r.logger.Printf("LinkPrimaryAsset ok in %s sku=%s asset=%s", time.Since(start), sku, assetID)
	return nil
}
