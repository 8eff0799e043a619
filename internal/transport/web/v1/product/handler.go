package product

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/dharti-patel/hipster-image-upload/internal/domain"
	"github.com/dharti-patel/hipster-image-upload/internal/importer"
	"github.com/dharti-patel/hipster-image-upload/internal/transport/web/logx"
	"github.com/dharti-patel/hipster-image-upload/internal/transport/web/mw"
	v1 "github.com/dharti-patel/hipster-image-upload/internal/transport/web/v1"
)

type Importer interface {
	Import(ctx context.Context, r io.Reader) (domain.ImportSummary, []importer.RowRef, error)
}

type Handler struct {
	Log      *log.Logger
	Imports  Importer
	Products domain.ProductsRepo
	Assets   domain.AssetsRepo
}

// Import godoc
// @Summary     Bulk import products from CSV
// @Description multipart: csv_file. Upsert по SKU, построчно; сводка по итогам.
// @Tags        products
// @Accept      multipart/form-data
// @Produce     json
// @Param       csv_file formData file true "CSV: sku,name,description,price,image_path"
// @Success     200 {object} domain.APIEnvelope{response=object}
// @Failure     400 {object} domain.APIEnvelope
// @Router      /api/products/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	const op = "products.import"
	reqID := mw.RequestIDFromCtx(r.Context())

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logx.Error(h.Log, reqID, op, "parse form", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	file, _, err := r.FormFile("csv_file")
	if err != nil {
		logx.Error(h.Log, reqID, op, "form file", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	defer file.Close()

	summary, rows, err := h.Imports.Import(r.Context(), file)
	if err != nil {
		logx.Error(h.Log, reqID, op, "import", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "imported")
	v1.WriteOKResponse(w, r, map[string]any{
		"summary":  summary,
		"products": rows,
	})
}

// AttachImage godoc
// @Summary     Link asset to product
// @Description Привязывает готовый ассет как основное изображение товара по SKU.
// @Tags        products
// @Accept      json
// @Produce     json
// @Param       body body object true "{sku, asset_id}"
// @Success     200 {object} domain.APIEnvelope{response=object}
// @Failure     404 {object} domain.APIEnvelope
// @Router      /api/products/attach-image [post]
func (h *Handler) AttachImage(w http.ResponseWriter, r *http.Request) {
	const op = "products.attach"
	reqID := mw.RequestIDFromCtx(r.Context())

	var in struct {
		SKU     string `json:"sku"`
		AssetID string `json:"asset_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.SKU == "" {
		logx.Error(h.Log, reqID, op, "decode body", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	assetID, err := uuid.Parse(in.AssetID)
	if err != nil {
		logx.Error(h.Log, reqID, op, "parse asset_id", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	// ассет должен существовать — битые ссылки не пишем
	if _, err := h.Assets.AssetByID(r.Context(), assetID); err != nil {
		logx.Error(h.Log, reqID, op, "asset lookup", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	if err := h.Products.LinkPrimaryAsset(r.Context(), in.SKU, assetID); err != nil {
		logx.Error(h.Log, reqID, op, "link", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "linked "+in.SKU)
	v1.WriteOKResponse(w, r, map[string]any{"status": "linked"})
}
