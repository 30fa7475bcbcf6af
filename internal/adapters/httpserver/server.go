// Package httpserver exposes the aggregator over HTTP using gin.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/core"
)

// Server is the HTTP front end for contract status and health endpoints.
type Server struct {
	service        *core.AggregatorService
	health         *core.HealthAggregator
	logger         *zap.Logger
	listenAddress  string
	requestTimeout time.Duration
	httpServer     *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(
	service *core.AggregatorService,
	health *core.HealthAggregator,
	logger *zap.Logger,
	listenAddress string,
	requestTimeout time.Duration,
) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &Server{
		service:        service,
		health:         health,
		logger:         logger,
		listenAddress:  listenAddress,
		requestTimeout: requestTimeout,
	}
}

// statusRequest is the body of POST /v1/contract/status.
type statusRequest struct {
	ChainID   uint64   `json:"chain_id" binding:"required"`
	Addresses []string `json:"addresses" binding:"required"`
}

// statusResponse is the body of a successful status request.
type statusResponse struct {
	ChainID uint64                      `json:"chain_id"`
	Results []core.ContractStatusResult `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/v1/contract/status", s.handleContractStatus)
	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func (s *Server) handleContractStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout)
	defer cancel()

	results, err := s.service.HandleContractStatus(ctx, core.ChainID(req.ChainID), req.Addresses)
	if err != nil {
		status := http.StatusInternalServerError
		var reqErr *core.RequestError
		switch {
		case errors.As(err, &reqErr):
			status = http.StatusBadRequest
		case errors.Is(err, context.DeadlineExceeded):
			status = http.StatusGatewayTimeout
		}
		if status == http.StatusInternalServerError {
			s.logger.Error("Contract status request failed",
				zap.Uint64("chain_id", req.ChainID),
				zap.Error(err))
		}
		c.JSON(status, errorResponse{Error: err.Error()})
		return
	}

	ordered := make([]core.ContractStatusResult, 0, len(results))
	for _, r := range results {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Address < ordered[j].Address })

	c.JSON(http.StatusOK, statusResponse{ChainID: req.ChainID, Results: ordered})
}

func (s *Server) handleHealth(c *gin.Context) {
	snapshot := s.health.Snapshot(c.Request.Context())
	status := http.StatusOK
	if snapshot.Status != core.StatusUp {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, snapshot)
}

// Start begins serving. It blocks until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.listenAddress,
		Handler: s.Router(),
	}
	s.logger.Info("HTTP server listening", zap.String("address", s.listenAddress))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
