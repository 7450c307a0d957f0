package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/ezienecker/discogs-ctl/pkg/response"
)

// Sweeper runs an immediate sweep of every cache.
type Sweeper interface {
	RunNow(ctx context.Context) (map[string]int64, error)
}

// StatsSource reports cache table statistics.
type StatsSource interface {
	GetStats(ctx context.Context) (map[string]interface{}, error)
}

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	sweeper          Sweeper
	stats            StatsSource
	marketplaceCache string
	startTime        time.Time
}

func NewAdminHandler(sweeper Sweeper, stats StatsSource, marketplaceCache string) *AdminHandler {
	return &AdminHandler{
		sweeper:          sweeper,
		stats:            stats,
		marketplaceCache: marketplaceCache,
		startTime:        time.Now(),
	}
}

// Sweep handles POST /api/v1/admin/sweep
func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.sweeper.RunNow(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	var total int64
	for _, n := range deleted {
		total += n
	}
	response.OK(w, map[string]interface{}{
		"deleted": deleted,
		"total":   total,
	})
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]interface{})

	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["marketplace_cache"] = h.marketplaceCache

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_inuse_mb": float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	if h.stats != nil {
		storeStats, err := h.stats.GetStats(r.Context())
		if err == nil {
			storeStats["status"] = "connected"
			stats["store"] = storeStats
		} else {
			stats["store"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	}

	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}
