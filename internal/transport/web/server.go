package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/dharti-patel/hipster-image-upload/internal/config"
	"github.com/dharti-patel/hipster-image-upload/internal/domain"
	"github.com/dharti-patel/hipster-image-upload/internal/transport/web/v1/health"
	producth "github.com/dharti-patel/hipster-image-upload/internal/transport/web/v1/product"
	uploadh "github.com/dharti-patel/hipster-image-upload/internal/transport/web/v1/upload"
)

// Deps — всё, что нужно серверу от внешнего мира.
type Deps struct {
	Uploads  uploadh.Uploader
	Imports  producth.Importer
	Products domain.ProductsRepo
	Assets   domain.AssetsRepo
	DB       health.Pinger
	Cache    health.Pinger
	Storage  health.Pinger
}

type Server struct {
	log    *log.Logger
	server *http.Server
	cfg    *config.Config
}

func New(logger *log.Logger, cfg *config.Config, d Deps) *Server {
	healthLog := log.New(logger.Writer(), logger.Prefix()+"[health] ", logger.Flags())
	uploadLog := log.New(logger.Writer(), logger.Prefix()+"[uploads] ", logger.Flags())
	productLog := log.New(logger.Writer(), logger.Prefix()+"[products] ", logger.Flags())

	healthHandler := &health.Handler{DB: d.DB, Cache: d.Cache, Storage: d.Storage, Log: healthLog}
	uploadHandler := &uploadh.Handler{Log: uploadLog, Uploads: d.Uploads}
	productHandler := &producth.Handler{
		Log:      productLog,
		Imports:  d.Imports,
		Products: d.Products,
		Assets:   d.Assets,
	}

	srv := &http.Server{
		Addr:              cfg.AppPort,
		Handler:           newRouter(healthHandler, uploadHandler, productHandler, logger),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{server: srv, cfg: cfg, log: logger}
}

func (ws *Server) Run() {
	ws.log.Printf("started on %s", ws.server.Addr)
	if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		ws.log.Fatalf("error: %v", err)
	}
}

func (ws *Server) Close(ctx context.Context) {
	if err := ws.server.Shutdown(ctx); err != nil {
		ws.log.Printf("forced to shutdown: %v", err)
	}
	ws.log.Println("exited gracefully")
}
