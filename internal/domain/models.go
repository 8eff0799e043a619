package domain

import (
	"time"

	"github.com/google/uuid"
)

// Базовые идентификаторы
type SessionID = uuid.UUID
type AssetID = uuid.UUID
type ProductID = uuid.UUID

// Статус сессии загрузки
type SessionStatus string

const (
	SessionPending  SessionStatus = "pending"
	SessionComplete SessionStatus = "complete"
	SessionFailed   SessionStatus = "failed"
)

// Сессия резюмируемой загрузки. Checksum задаётся при открытии и не меняется.
type UploadSession struct {
	ID        SessionID     `json:"uuid"`
	Filename  string        `json:"filename"`
	MIME      string        `json:"mime,omitempty"`
	SizeBytes int64         `json:"size"`
	Checksum  string        `json:"checksum"` // sha256, hex в нижнем регистре
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Имя варианта -> ключ в хранилище
type VariantMap map[string]string

// Готовый ассет: оригинал + производные варианты. Создаётся ровно один раз
// после успешной проверки контрольной суммы; далее не мутируется.
type Asset struct {
	ID           AssetID    `json:"id"`
	SessionID    SessionID  `json:"session_id"`
	OriginalPath string     `json:"path"`
	MIME         string     `json:"mime,omitempty"`
	Variants     VariantMap `json:"variants"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Товар из CSV-импорта. SKU — бизнес-ключ, не путать с id сессии.
type Product struct {
	ID             ProductID `json:"id"`
	SKU            string    `json:"sku"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Price          *float64  `json:"price,omitempty"`
	PrimaryAssetID *AssetID  `json:"primary_asset_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Сводка импорта CSV
type ImportSummary struct {
	Total      int `json:"total"`
	Imported   int `json:"imported"`
	Updated    int `json:"updated"`
	Invalid    int `json:"invalid"`
	Duplicates int `json:"duplicates"`
}
