package domain

import "context"

type SessionsRepo interface {
	Close()
	Ping(context.Context) error
	CreateSession(ctx context.Context, s UploadSession) (UploadSession, error)
	SessionByID(ctx context.Context, id SessionID) (UploadSession, error)
	// CAS-переход статуса: обновляет только если текущий статус == from.
	// Возвращает false без ошибки, если строка не в статусе from.
	TransitSession(ctx context.Context, id SessionID, from, to SessionStatus) (bool, error)
}

type AssetsRepo interface {
	// ErrDuplicateSession, если ассет для сессии уже есть (unique по session_id).
	CreateAsset(ctx context.Context, a Asset) (Asset, error)
	AssetBySession(ctx context.Context, id SessionID) (Asset, error)
	AssetByID(ctx context.Context, id AssetID) (Asset, error)
	// Поиск по ключу оригинала — для линковки из CSV (image_path).
	AssetByOriginalPath(ctx context.Context, path string) (Asset, error)
}

type ProductsRepo interface {
	// Upsert по SKU. inserted=true, если строка создана, false — обновлена.
	UpsertProduct(ctx context.Context, p Product) (out Product, inserted bool, err error)
	ProductBySKU(ctx context.Context, sku string) (Product, error)
	// Привязка основного изображения. ErrNotFound, если SKU не найден.
	LinkPrimaryAsset(ctx context.Context, sku string, assetID AssetID) error
}
