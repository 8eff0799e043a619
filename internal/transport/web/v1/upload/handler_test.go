package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dharti-patel/hipster-image-upload/internal/domain"
	uploadcore "github.com/dharti-patel/hipster-image-upload/internal/upload"
)

type stubUploader struct {
	openErr     error
	receiveErr  error
	finalizeErr error

	session  domain.UploadSession
	asset    domain.Asset
	received struct {
		id    domain.SessionID
		index int
		data  []byte
	}
}

func (s *stubUploader) Open(_ context.Context, p uploadcore.OpenParams) (domain.UploadSession, error) {
	if s.openErr != nil {
		return domain.UploadSession{}, s.openErr
	}
	return s.session, nil
}

func (s *stubUploader) Receive(_ context.Context, id domain.SessionID, index int, r io.Reader, _ int64) error {
	if s.receiveErr != nil {
		return s.receiveErr
	}
	b, _ := io.ReadAll(r)
	s.received.id = id
	s.received.index = index
	s.received.data = b
	return nil
}

func (s *stubUploader) Finalize(_ context.Context, id domain.SessionID) (domain.Asset, error) {
	if s.finalizeErr != nil {
		return domain.Asset{}, s.finalizeErr
	}
	return s.asset, nil
}

func newHandler(stub *stubUploader) *Handler {
	return &Handler{Log: log.New(io.Discard, "", 0), Uploads: stub}
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) domain.APIEnvelope {
	t.Helper()
	var env domain.APIEnvelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}

func TestStartReturnsSessionID(t *testing.T) {
	id := uuid.New()
	stub := &stubUploader{session: domain.UploadSession{ID: id, Status: domain.SessionPending}}
	h := newHandler(stub)

	body := `{"filename":"cat.jpg","mime":"image/jpeg","size":12,"checksum":"` + strings.Repeat("ab", 32) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/start", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Start(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec.Body)
	require.Nil(t, env.Error)
	resp := env.Response.(map[string]any)
	require.Equal(t, id.String(), resp["uuid"])
	require.Equal(t, "started", resp["status"])
}

func TestStartBadJSON(t *testing.T) {
	h := newHandler(&stubUploader{})
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/start", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	h.Start(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec.Body)
	require.NotNil(t, env.Error)
	require.Equal(t, domain.ErrCodeBadParams, env.Error.Code)
}

func chunkRequest(t *testing.T, id string, index string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("uuid", id))
	require.NoError(t, w.WriteField("index", index))
	fw, err := w.CreateFormFile("chunk", "part")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads/chunk", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestChunkReceived(t *testing.T) {
	stub := &stubUploader{}
	h := newHandler(stub)
	id := uuid.New()

	rec := httptest.NewRecorder()
	h.Chunk(rec, chunkRequest(t, id.String(), "7", []byte("payload")))

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec.Body)
	require.Nil(t, env.Error)
	require.Equal(t, "chunk_received", env.Response.(map[string]any)["status"])

	require.Equal(t, id, stub.received.id)
	require.Equal(t, 7, stub.received.index)
	require.Equal(t, []byte("payload"), stub.received.data)
}

func TestChunkUnknownSession(t *testing.T) {
	stub := &stubUploader{receiveErr: domain.ErrNotFound}
	h := newHandler(stub)

	rec := httptest.NewRecorder()
	h.Chunk(rec, chunkRequest(t, uuid.NewString(), "0", []byte("x")))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChunkBadIndex(t *testing.T) {
	h := newHandler(&stubUploader{})
	rec := httptest.NewRecorder()
	h.Chunk(rec, chunkRequest(t, uuid.NewString(), "seven", []byte("x")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFinalizeCompleted(t *testing.T) {
	sessID := uuid.New()
	asset := domain.Asset{
		ID:        uuid.New(),
		SessionID: sessID,
		Variants:  domain.VariantMap{"256": "images/variants/a_256.jpg"},
	}
	h := newHandler(&stubUploader{asset: asset})

	body := `{"uuid":"` + sessID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/finalize", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Finalize(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec.Body)
	require.Nil(t, env.Error)
	resp := env.Response.(map[string]any)
	require.Equal(t, "completed", resp["status"])
	require.Equal(t, asset.ID.String(), resp["image_id"])
}

func TestFinalizeChecksumMismatchIsRetryable(t *testing.T) {
	h := newHandler(&stubUploader{finalizeErr: domain.ErrChecksumMismatch})

	body := `{"uuid":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/finalize", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Finalize(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec.Body)
	require.NotNil(t, env.Error)
	require.Equal(t, domain.ErrCodeChecksumMismatch, env.Error.Code)
}

func TestFinalizeDerivationFailed(t *testing.T) {
	h := newHandler(&stubUploader{finalizeErr: domain.ErrDerivationFailed})

	body := `{"uuid":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/finalize", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Finalize(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec.Body)
	require.NotNil(t, env.Error)
	require.Equal(t, "failed", env.Error.Text)
}
