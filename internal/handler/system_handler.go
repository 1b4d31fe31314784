package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/gradebook-backend/internal/config"
	"github.com/stemsi/gradebook-backend/internal/response"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler reports service health and dependency status.
type SystemHandler struct {
	db        Pinger
	rdb       *redis.Client
	storage   string
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a SystemHandler. db and rdb may be nil when the
// memory store or no Redis is configured.
func NewSystemHandler(db Pinger, rdb *redis.Client, storage string, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		rdb:       rdb,
		storage:   storage,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthReport struct {
	Status       string                      `json:"status"`
	Storage      string                      `json:"storage"`
	Uptime       string                      `json:"uptime"`
	GoVersion    string                      `json:"go_version"`
	Goroutines   int                         `json:"goroutines"`
	QueueAudit   *int64                      `json:"queue_audit,omitempty"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Health godoc
// GET /health
// Responds 200 when every configured dependency answers, 503 otherwise.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	report := healthReport{
		Status:       "ok",
		Storage:      h.storage,
		Uptime:       time.Since(h.startTime).Truncate(time.Second).String(),
		GoVersion:    runtime.Version(),
		Goroutines:   runtime.NumGoroutine(),
		Dependencies: map[string]dependencyStatus{},
	}

	check := func(name string, err error) {
		if err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			report.Status = "degraded"
			report.Dependencies[name] = dependencyStatus{Status: "down", Error: err.Error()}
			return
		}
		report.Dependencies[name] = dependencyStatus{Status: "up"}
	}

	if h.db != nil {
		check("postgres", h.db.Ping(ctx))
	}
	if h.rdb != nil {
		err := h.rdb.Ping(ctx).Err()
		check("redis", err)
		if err == nil {
			if n, err := h.rdb.LLen(ctx, config.WorkerKey.AuditEventsQueue).Result(); err == nil {
				report.QueueAudit = &n
			}
		}
	}

	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	response.Success(c, status, report)
}
