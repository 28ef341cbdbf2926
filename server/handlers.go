package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parites/ratesd"
	"github.com/parites/ratesd/storage"
)

type (
	schemaRequest struct {
		DB storage.ConnConfig `json:"db"`
	}

	importDayRequest struct {
		DB     storage.ConnConfig `json:"db"`
		Target string             `json:"target"`
		Date   string             `json:"date"`
	}

	importRangeRequest struct {
		DB     storage.ConnConfig `json:"db"`
		Target string             `json:"target"`
		Start  string             `json:"start"`
		End    string             `json:"end"`
	}
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, ratesd.ErrInvalidISO),
		errors.Is(err, ratesd.ErrUnsupported),
		errors.Is(err, ratesd.ErrInvalidDate),
		errors.Is(err, ratesd.ErrInvalidRange),
		errors.Is(err, ratesd.ErrConnConfig):
		return http.StatusBadRequest
	case errors.Is(err, ratesd.ErrUpstream), errors.Is(err, ratesd.ErrZeroRate):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, err error) {
	status := statusFor(err)

	logger := loggerFrom(c)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.String("error", err.Error()))
	} else {
		logger.Warn("request rejected", slog.String("error", err.Error()))
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) meta(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"base":      s.Base,
		"supported": ratesd.Supported(),
	})
}

func (s *Server) symbols(c *gin.Context) {
	symbols, err := s.Source.Symbols(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, ratesd.FilterLabels(symbols))
}

func (s *Server) ensureSchema(c *gin.Context) {
	var req schemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()

	st, err := s.connect(ctx, req.DB)
	if err != nil {
		abort(c, err)
		return
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) importDay(c *gin.Context) {
	var req importDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// cheap input validation first, before dialing anything
	if _, err := ratesd.Resolve(req.Target); err != nil {
		abort(c, err)
		return
	}

	if req.Date != "" {
		if _, err := ratesd.ParseDay(req.Date); err != nil {
			abort(c, err)
			return
		}
	}

	ctx := c.Request.Context()

	st, err := s.connect(ctx, req.DB)
	if err != nil {
		abort(c, err)
		return
	}
	defer st.Close()

	result, err := s.engine().ImportDay(ctx, st, req.Target, req.Date)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) importRange(c *gin.Context) {
	var req importRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	start, err := ratesd.ParseDay(req.Start)
	if err != nil {
		abort(c, err)
		return
	}

	end, err := ratesd.ParseDay(req.End)
	if err != nil {
		abort(c, err)
		return
	}

	if end.Before(start) {
		abort(c, ratesd.ErrInvalidRange)
		return
	}

	if _, err := ratesd.Resolve(req.Target); err != nil {
		abort(c, err)
		return
	}

	ctx := c.Request.Context()

	st, err := s.connect(ctx, req.DB)
	if err != nil {
		abort(c, err)
		return
	}
	defer st.Close()

	result, err := s.engine().ImportRange(ctx, st, req.Target, req.Start, req.End)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
