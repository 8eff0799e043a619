package upload

import (
	"encoding/json"
	"net/http"

	"github.com/dharti-patel/hipster-image-upload/internal/domain"
	"github.com/dharti-patel/hipster-image-upload/internal/transport/web/logx"
	"github.com/dharti-patel/hipster-image-upload/internal/transport/web/mw"
	v1 "github.com/dharti-patel/hipster-image-upload/internal/transport/web/v1"
	uploadcore "github.com/dharti-patel/hipster-image-upload/internal/upload"
)

// Start godoc
// @Summary     Start upload session
// @Description Открывает сессию резюмируемой загрузки. Checksum — sha256 файла целиком.
// @Tags        uploads
// @Accept      json
// @Produce     json
// @Param       body body object true "{filename, mime?, size, checksum}"
// @Success     200 {object} domain.APIEnvelope{response=object}
// @Failure     400 {object} domain.APIEnvelope
// @Router      /api/uploads/start [post]
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	const op = "uploads.start"
	reqID := mw.RequestIDFromCtx(r.Context())

	var in struct {
		Filename string `json:"filename"`
		MIME     string `json:"mime"`
		Size     int64  `json:"size"`
		Checksum string `json:"checksum"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logx.Error(h.Log, reqID, op, "decode body", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	sess, err := h.Uploads.Open(r.Context(), uploadcore.OpenParams{
		Filename: in.Filename,
		MIME:     in.MIME,
		Size:     in.Size,
		Checksum: in.Checksum,
	})
	if err != nil {
		logx.Error(h.Log, reqID, op, "open session", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "started "+sess.ID.String())
	v1.WriteOKResponse(w, r, map[string]any{
		"uuid":   sess.ID,
		"status": "started",
	})
}
