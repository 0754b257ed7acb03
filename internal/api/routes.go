package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mapcrafter2048/judge0-docker-cli/internal/config"
	"github.com/mapcrafter2048/judge0-docker-cli/internal/store"
)

// RegisterRoutes wires all judge endpoints onto the router and returns the
// handler for embedding (worker-and-api mode shares one process).
func RegisterRoutes(r *gin.Engine, queries store.Querier, cfg *config.Config, workers int, logger *slog.Logger) *Handler {
	h := NewHandler(queries, cfg, workers, logger)

	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/languages", h.Languages)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/submissions", h.Submit)
	r.GET("/submissions", h.ListJobs)
	r.GET("/submissions/:id", h.GetJob)

	return h
}
