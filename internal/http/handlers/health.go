package handlers

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checks    map[string]Check
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler. checks may be empty when
// the engine runs on the in-memory store.
func NewHealthHandler(version string, checks map[string]Check) *HealthHandler {
	return &HealthHandler{
		checks:    checks,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Liveness answers as long as the process serves HTTP.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// run probes every dependency concurrently; a slow one costs at most the
// ctx deadline.
func (h *HealthHandler) run(ctx context.Context) (map[string]string, bool) {
	var (
		mu      sync.Mutex
		healthy = true
		results = make(map[string]string, len(h.checks)+2)
	)
	var g errgroup.Group
	for name, check := range h.checks {
		name, check := name, check
		g.Go(func() error {
			err := check(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[name] = "unhealthy: " + err.Error()
				healthy = false
			} else {
				results[name] = "healthy"
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, healthy
}

// Readiness reports every dependency plus a few runtime figures.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks, healthy := h.run(ctx)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	checks["memory_alloc_mb"] = strconv.FormatFloat(float64(m.Alloc)/1024/1024, 'f', 2, 64)
	checks["goroutines"] = strconv.Itoa(runtime.NumGoroutine())

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, HealthResponse{
		Status:    status,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// Health is the short form of Readiness for load balancers.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if _, ok := h.run(ctx); !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "dependency unavailable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}
