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

func (r *PGRepo) CreateSession(ctx context.Context, s domain.UploadSession) (domain.UploadSession, error) {
	q := r.qb().Insert(fmt.Sprintf("%s.upload_sessions", schema)).
		Columns("id", "filename", "mime_type", "size_bytes", "checksum", "status").
		Values(s.ID, s.Filename, s.MIME, s.SizeBytes, s.Checksum, domain.SessionPending).
		Suffix("RETURNING id, filename, mime_type, size_bytes, checksum, status, created_at, updated_at")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CreateSession", sqlStr, args)

	start := time.Now()
	row := r.pool.QueryRow(ctx, sqlStr, args...)
	out, err := scanSession(row)
	if err != nil {
		r.logger.Printf("CreateSession scan error after %s: %v", time.Since(start), err)
		return domain.UploadSession{}, err
	}
	r.logger.Printf("CreateSession ok in %s id=%s filename=%q", time.Since(start), out.ID, out.Filename)
	return out, nil
}

func (r *PGRepo) SessionByID(ctx context.Context, id domain.SessionID) (domain.UploadSession, error) {
	q := r.qb().Select("id", "filename", "mime_type", "size_bytes", "checksum", "status", "created_at", "updated_at").
		From(fmt.Sprintf("%s.upload_sessions", schema)).
		Where(sq.Eq{"id": id})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("SessionByID", sqlStr, args)

	start := time.Now()
	out, err := scanSession(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("SessionByID not found in %s id=%s", time.Since(start), id)
			return domain.UploadSession{}, domain.ErrNotFound
		}
		r.logger.Printf("SessionByID scan error after %s: %v", time.Since(start), err)
		return domain.UploadSession{}, err
	}
	r.logger.Printf("SessionByID ok in %s id=%s status=%s", time.Since(start), out.ID, out.Status)
	return out, nil
}

// TransitSession — CAS по статусу: переход выполняется только из статуса from.
// false без ошибки означает, что строка уже не в from (или её нет).
func (r *PGRepo) TransitSession(ctx context.Context, id domain.SessionID, from, to domain.SessionStatus) (bool, error) {
	q := r.qb().Update(fmt.Sprintf("%s.upload_sessions", schema)).
		SetMap(map[string]any{
			"status":     to,
			"updated_at": sq.Expr("now()"),
		}).
		Where(sq.And{sq.Eq{"id": id}, sq.Eq{"status": from}})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("TransitSession", sqlStr, args)

	start := time.Now()
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("TransitSession exec error after %s: %v", time.Since(start), err)
		return false, err
	}
	ok := tag.RowsAffected() > 0
	r.logger.Printf("TransitSession %s->%s in %s id=%s applied=%v", from, to, time.Since(start), id, ok)
	return ok, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.UploadSession, error) {
	var (
		s    domain.UploadSession
		mime *string
	)
	if err := row.Scan(
		&s.ID, &s.Filename, &mime, &s.SizeBytes, &s.Checksum,
		&s.Status, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return domain.UploadSession{}, err
	}
	if mime != nil {
		s.MIME = *mime
	}
	return s, nil
}
