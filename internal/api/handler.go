// Package api exposes the HTTP surface of the judge: submit, status, list,
// languages and health. Handlers validate purely locally and never touch the
// container runtime; submit returns as soon as the pending record is durable.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mapcrafter2048/judge0-docker-cli/internal/config"
	"github.com/mapcrafter2048/judge0-docker-cli/internal/language"
	"github.com/mapcrafter2048/judge0-docker-cli/internal/store"
)

type Handler struct {
	queries store.Querier
	cfg     *config.Config
	workers int
	logger  *slog.Logger
}

func NewHandler(queries store.Querier, cfg *config.Config, workers int, logger *slog.Logger) *Handler {
	return &Handler{queries: queries, cfg: cfg, workers: workers, logger: logger}
}

type submitRequest struct {
	Language       string `json:"language"`
	SourceCode     string `json:"source_code"`
	Stdin          string `json:"stdin"`
	TimeoutMs      *int64 `json:"timeout_ms"`
	MemoryLimitMiB *int64 `json:"memory_limit_mib"`
}

// Submit validates a submission and inserts it as a pending job.
func (h *Handler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "detail": err.Error()})
		return
	}

	if _, ok := language.Lookup(req.Language); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported language", "detail": req.Language})
		return
	}
	if req.SourceCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_code is required"})
		return
	}
	if len(req.SourceCode) > h.cfg.MaxSourceBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "source_code too large",
			"detail": "limit is " + strconv.Itoa(h.cfg.MaxSourceBytes) + " bytes",
		})
		return
	}
	if len(req.Stdin) > h.cfg.MaxStdinBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "stdin too large",
			"detail": "limit is " + strconv.Itoa(h.cfg.MaxStdinBytes) + " bytes",
		})
		return
	}
	if req.TimeoutMs != nil {
		t := *req.TimeoutMs
		if t < h.cfg.MinTimeout.Milliseconds() || t > h.cfg.MaxTimeout.Milliseconds() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "timeout_ms out of bounds"})
			return
		}
	}
	if req.MemoryLimitMiB != nil {
		m := *req.MemoryLimitMiB
		if m < h.cfg.MinMemoryMiB || m > h.cfg.MaxMemoryMiB {
			c.JSON(http.StatusBadRequest, gin.H{"error": "memory_limit_mib out of bounds"})
			return
		}
	}

	job, err := h.queries.CreateJob(c.Request.Context(), store.CreateJobParams{
		ID:             uuid.NewString(),
		Language:       req.Language,
		Source:         req.SourceCode,
		Stdin:          req.Stdin,
		TimeoutMs:      req.TimeoutMs,
		MemoryLimitMiB: req.MemoryLimitMiB,
	})
	if err != nil {
		h.logger.Error("create job failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue job"})
		return
	}

	observeSubmission(req.Language)
	c.JSON(http.StatusCreated, gin.H{"job_id": job.ID, "status": job.Status})
}

// GetJob returns the full job record; result fields stay null until terminal.
func (h *Handler) GetJob(c *gin.Context) {
	job, err := h.queries.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		h.logger.Error("get job failed", "job_id", c.Param("id"), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListJobs returns a page of jobs, newest first, optionally filtered by status.
func (h *Handler) ListJobs(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 32)
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return
	}
	offset, err := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 32)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be non-negative"})
		return
	}

	status := store.Status(c.Query("status"))
	if status != "" && status != store.StatusPending && status != store.StatusRunning && !status.Terminal() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status", "detail": string(status)})
		return
	}

	jobs, total, err := h.queries.ListJobs(c.Request.Context(), store.ListJobsParams{
		Status: status,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		h.logger.Error("list jobs failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}
	if jobs == nil {
		jobs = []store.Job{}
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "total": total, "limit": limit, "offset": offset})
}

// Languages lists the registry: ids, images and default limits.
func (h *Handler) Languages(c *gin.Context) {
	type languageInfo struct {
		ID             string `json:"id"`
		Image          string `json:"image"`
		SourceFile     string `json:"source_file"`
		Compiled       bool   `json:"compiled"`
		TimeoutMs      int64  `json:"timeout_ms"`
		MemoryLimitMiB int64  `json:"memory_limit_mib"`
	}
	recipes := language.All()
	out := make([]languageInfo, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, languageInfo{
			ID:             r.ID,
			Image:          r.Image,
			SourceFile:     r.SourceFile,
			Compiled:       r.Compiled(),
			TimeoutMs:      r.RunTimeout.Milliseconds(),
			MemoryLimitMiB: r.MemoryMiB,
		})
	}
	c.JSON(http.StatusOK, gin.H{"languages": out})
}

// Health reports queue depth and pool size. ok is false when the store is
// unreachable.
func (h *Handler) Health(c *gin.Context) {
	counts, err := h.queries.CountByStatus(c.Request.Context())
	if err != nil {
		h.logger.Error("health check failed", "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "database unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"workers": h.workers,
		"pending": counts[store.StatusPending],
		"running": counts[store.StatusRunning],
	})
}

// Root is the service banner.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "judge0-docker-cli",
		"status":  "healthy",
	})
}
