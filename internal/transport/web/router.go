package web

import (
	"log"
	"net/http"

	"github.com/dharti-patel/hipster-image-upload/internal/transport/web/mw"
	"github.com/dharti-patel/hipster-image-upload/internal/transport/web/v1/health"
	producth "github.com/dharti-patel/hipster-image-upload/internal/transport/web/v1/product"
	uploadh "github.com/dharti-patel/hipster-image-upload/internal/transport/web/v1/upload"
)

func newRouter(hh *health.Handler, uh *uploadh.Handler, ph *producth.Handler, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /api/healthz", hh.Liveness)
	mux.HandleFunc("GET /api/readyz", hh.Readiness)

	// резюмируемая загрузка
	mux.HandleFunc("POST /api/uploads/start", uh.Start)
	mux.HandleFunc("POST /api/uploads/chunk", limitBody(64<<20, uh.Chunk)) // 64MB лимит на чанк
	mux.HandleFunc("POST /api/uploads/finalize", uh.Finalize)

	// товары
	mux.HandleFunc("POST /api/products/import", limitBody(64<<20, ph.Import))
	mux.HandleFunc("POST /api/products/attach-image", ph.AttachImage)

	// 🔗 middleware
	return mw.WithRequestID(mw.Logging(logger)(mux))
}

func limitBody(n int64, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		h(w, r)
	}
}
