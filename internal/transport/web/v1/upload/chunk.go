package upload

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/dharti-patel/hipster-image-upload/internal/domain"
	"github.com/dharti-patel/hipster-image-upload/internal/transport/web/logx"
	"github.com/dharti-patel/hipster-image-upload/internal/transport/web/mw"
	v1 "github.com/dharti-patel/hipster-image-upload/internal/transport/web/v1"
)

// Chunk godoc
// @Summary     Upload one chunk
// @Description multipart: uuid, index, chunk(file). Повтор индекса перезаписывает чанк.
// @Tags        uploads
// @Accept      multipart/form-data
// @Produce     json
// @Param       uuid  formData string true "session id"
// @Param       index formData int    true "chunk index, с нуля"
// @Param       chunk formData file   true "chunk bytes"
// @Success     200 {object} domain.APIEnvelope{response=object}
// @Failure     400 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /api/uploads/chunk [post]
func (h *Handler) Chunk(w http.ResponseWriter, r *http.Request) {
	const op = "uploads.chunk"
	reqID := mw.RequestIDFromCtx(r.Context())

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logx.Error(h.Log, reqID, op, "parse form", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	id, err := uuid.Parse(r.FormValue("uuid"))
	if err != nil {
		logx.Error(h.Log, reqID, op, "parse uuid", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		logx.Error(h.Log, reqID, op, "parse index", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	file, header, err := r.FormFile("chunk")
	if err != nil {
		logx.Error(h.Log, reqID, op, "form file", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	defer file.Close()

	if err := h.Uploads.Receive(r.Context(), id, index, file, header.Size); err != nil {
		logx.Error(h.Log, reqID, op, "receive", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	v1.WriteOKResponse(w, r, map[string]any{"status": "chunk_received"})
}
