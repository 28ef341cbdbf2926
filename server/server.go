package server

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/parites/ratesd"
	"github.com/parites/ratesd/importer"
	"github.com/parites/ratesd/storage"
)

// Server exposes the import operations over HTTP. The database connection
// configuration arrives in request bodies; only the rate source credential
// and the base currency are server configuration.
type Server struct {
	Base   string
	Source ratesd.RateSource
	Logger *slog.Logger

	// Connect is swappable for tests; nil means storage.Connect.
	Connect func(ctx context.Context, config storage.ConnConfig) (*storage.Store, error)
}

func (s *Server) connect(ctx context.Context, config storage.ConnConfig) (*storage.Store, error) {
	if s.Connect != nil {
		return s.Connect(ctx, config)
	}

	return storage.Connect(ctx, config)
}

func (s *Server) engine() importer.Engine {
	return importer.Engine{Base: s.Base, Source: s.Source}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}

	return slog.Default()
}

// Router builds the gin engine with all routes under /api.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(s.logger()))

	api := router.Group("/api")
	api.GET("/meta", s.meta)
	api.GET("/symbols", s.symbols)
	api.POST("/schema", s.ensureSchema)
	api.POST("/import/day", s.importDay)
	api.POST("/import/range", s.importRange)

	return router
}
