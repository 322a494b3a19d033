package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/MeKo-Tech/docstruct/internal/version"
)

// MemStats summarizes memory usage information.
type MemStats struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
	Goroutines      int    `json:"goroutines"`
}

// GetMemStats captures current memory statistics.
func GetMemStats() MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemStats{
		AllocBytes:      m.Alloc,
		TotalAllocBytes: m.TotalAlloc,
		SysBytes:        m.Sys,
		NumGC:           m.NumGC,
		Goroutines:      runtime.NumGoroutine(),
	}
}

// healthHandler returns server health status. A failing store degrades
// the status but still answers 200 so that probes can read the body.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Store:   "disabled",
		Memory:  GetMemStats(),
		Stats:   s.profiler.Snapshot(),
	}
	if s.store != nil {
		n, err := s.store.Count(r.Context())
		if err != nil {
			response.Status = "degraded"
			response.Store = "error: " + err.Error()
		} else {
			response.Store = "ok"
			response.Documents = n
		}
	}
	writeJSON(w, http.StatusOK, response)
}
