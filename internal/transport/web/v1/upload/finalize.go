package upload

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/dharti-patel/hipster-image-upload/internal/domain"
	"github.com/dharti-patel/hipster-image-upload/internal/transport/web/logx"
	"github.com/dharti-patel/hipster-image-upload/internal/transport/web/mw"
	v1 "github.com/dharti-patel/hipster-image-upload/internal/transport/web/v1"
)

// Finalize godoc
// @Summary     Finalize upload
// @Description Собирает чанки по индексу, сверяет sha256, создаёт ассет с вариантами.
// @Description Идемпотентен: повторный вызов возвращает тот же ассет.
// @Tags        uploads
// @Accept      json
// @Produce     json
// @Param       body body object true "{uuid}"
// @Success     200 {object} domain.APIEnvelope{response=object}
// @Failure     404 {object} domain.APIEnvelope
// @Failure     422 {object} domain.APIEnvelope "checksum mismatch (retryable) | failed (terminal)"
// @Router      /api/uploads/finalize [post]
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	const op = "uploads.finalize"
	reqID := mw.RequestIDFromCtx(r.Context())

	var in struct {
		UUID string `json:"uuid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logx.Error(h.Log, reqID, op, "decode body", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	id, err := uuid.Parse(in.UUID)
	if err != nil {
		logx.Error(h.Log, reqID, op, "parse uuid", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	asset, err := h.Uploads.Finalize(r.Context(), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "finalize "+id.String(), err)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "completed "+id.String())
	v1.WriteOKResponse(w, r, map[string]any{
		"status":   "completed",
		"image_id": asset.ID,
		"variants": asset.Variants,
	})
}
