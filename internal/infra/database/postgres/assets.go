package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dharti-patel/hipster-image-upload/internal/domain"
)

// unique_violation
const pgUniqueViolation = "23505"

func (r *PGRepo) CreateAsset(ctx context.Context, a domain.Asset) (domain.Asset, error) {
	variants, err := json.Marshal(a.Variants)
	if err != nil {
		r.logger.Printf("CreateAsset marshal variants error: %v", err)
		return domain.Asset{}, err
	}

	q := r.qb().Insert(fmt.Sprintf("%s.assets", schema)).
		Columns("id", "session_id", "original_path", "mime_type", "variants").
		Values(a.ID, a.SessionID, a.OriginalPath, a.MIME, variants).
		Suffix("RETURNING id, session_id, original_path, mime_type, variants, created_at")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CreateAsset", sqlStr, args)

	start := time.Now()
	out, err := scanAsset(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		// unique по session_id: ассет уже создан параллельным finalize
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			r.logger.Printf("CreateAsset duplicate in %s session=%s", time.Since(start), a.SessionID)
			return domain.Asset{}, domain.ErrDuplicateSession
		}
		r.logger.Printf("CreateAsset scan error after %s: %v", time.Since(start), err)
		return domain.Asset{}, err
	}
	r.logger.Printf("CreateAsset ok in %s id=%s session=%s", time.Since(start), out.ID, out.SessionID)
	return out, nil
}

func (r *PGRepo) AssetBySession(ctx context.Context, id domain.SessionID) (domain.Asset, error) {
	return r.assetWhere(ctx, "AssetBySession", sq.Eq{"session_id": id})
}

func (r *PGRepo) AssetByID(ctx context.Context, id domain.AssetID) (domain.Asset, error) {
	return r.assetWhere(ctx, "AssetByID", sq.Eq{"id": id})
}

func (r *PGRepo) AssetByOriginalPath(ctx context.Context, path string) (domain.Asset, error) {
	return r.assetWhere(ctx, "AssetByOriginalPath", sq.Eq{"original_path": path})
}

func (r *PGRepo) assetWhere(ctx context.Context, op string, pred sq.Eq) (domain.Asset, error) {
	q := r.qb().Select("id", "session_id", "original_path", "mime_type", "variants", "created_at").
		From(fmt.Sprintf("%s.assets", schema)).
		Where(pred)

	sqlStr, args, _ := q.ToSql()
	r.logSQL(op, sqlStr, args)

	start := time.Now()
	out, err := scanAsset(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("%s not found in %s", op, time.Since(start))
			return domain.Asset{}, domain.ErrNotFound
		}
		r.logger.Printf("%s scan error after %s: %v", op, time.Since(start), err)
		return domain.Asset{}, err
	}
	r.logger.Printf("%s ok in %s id=%s", op, time.Since(start), out.ID)
	return out, nil
}

func scanAsset(row rowScanner) (domain.Asset, error) {
	var (
		a        domain.Asset
		mime     *string
		variants []byte
	)
	if err := row.Scan(&a.ID, &a.SessionID, &a.OriginalPath, &mime, &variants, &a.CreatedAt); err != nil {
		return domain.Asset{}, err
	}
	if mime != nil {
		a.MIME = *mime
	}
	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &a.Variants); err != nil {
			return domain.Asset{}, err
		}
	}
	return a, nil
}
