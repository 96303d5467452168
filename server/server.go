// Package server exposes the run ledger, Prometheus metrics and a manual
// harvest trigger over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"listing-harvester/models"
	"listing-harvester/storage"
	"listing-harvester/utils"
)

const (
	defaultTaskLimit = 50
	maxTaskLimit     = 500
	shutdownTimeout  = 10 * time.Second
)

// RunReader reads the ledger.
type RunReader interface {
	Get(ctx context.Context, runID int64) (*models.Run, error)
	Recent(ctx context.Context, limit int) ([]models.Run, error)
}

// Trigger starts a harvest, returning false if one is already running.
type Trigger interface {
	Trigger() bool
	Running() bool
}

// NewRouter builds the HTTP API. metrics and trigger may be nil.
func NewRouter(runs RunReader, metrics http.Handler, trigger Trigger, log *utils.Logger) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if trigger != nil {
			body["harvesting"] = trigger.Running()
		}
		c.JSON(http.StatusOK, body)
	})
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	h := &taskHandler{runs: runs, trigger: trigger, logger: log}
	v1 := router.Group("/api/v1")
	v1.GET("/tasks", h.List)
	v1.GET("/tasks/:id", h.GetByID)
	if trigger != nil {
		v1.POST("/harvest", h.Harvest)
	}
	return router
}

type taskHandler struct {
	runs    RunReader
	trigger Trigger
	logger  *utils.Logger
}

func (h *taskHandler) List(c *gin.Context) {
	limit := defaultTaskLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxTaskLimit)
	}

	runs, err := h.runs.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list tasks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": runs, "count": len(runs)})
}

func (h *taskHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	run, err := h.runs.Get(c.Request.Context(), id)
	if errors.Is(err, storage.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		h.logger.Error("get task", zap.Int64("task_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read task"})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *taskHandler) Harvest(c *gin.Context) {
	if !h.trigger.Trigger() {
		c.JSON(http.StatusConflict, gin.H{"error": "harvest already running"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func ginLogger(log *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status_code", c.Writer.Status()),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("duration", time.Since(start)))
	}
}

// Serve runs handler on addr until ctx is cancelled, then shuts down.
func Serve(ctx context.Context, addr string, handler http.Handler, log *utils.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("status server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
