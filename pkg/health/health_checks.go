package health

import (
	"fmt"
	"os"
	"runtime"
	"time"
)

// SnapshotState describes the served snapshot.
type SnapshotState struct {
	Genres   int
	Edges    int
	LoadedAt time.Time
	Loaded   bool
}

// SnapshotCheck reports unhealthy until a snapshot with at least one genre
// is loaded.
func SnapshotCheck(state func() SnapshotState) CheckFunc {
	return func() Check {
		s := state()
		check := Check{
			Name: "snapshot",
			Details: map[string]any{
				"genres": s.Genres,
				"edges":  s.Edges,
			},
		}

		switch {
		case !s.Loaded:
			check.Status = StatusUnhealthy
			check.Message = "No snapshot loaded"
		case s.Genres == 0:
			check.Status = StatusUnhealthy
			check.Message = "Snapshot is empty"
		default:
			check.Status = StatusHealthy
			check.Message = fmt.Sprintf("Serving %d genres", s.Genres)
			check.Details["loaded_at"] = s.LoadedAt.UTC().Format(time.RFC3339)
		}
		return check
	}
}

// ArtifactCheck reports whether an artifact file is present. A file newer
// than the loaded snapshot is degraded: a reload is pending.
func ArtifactCheck(name, path string, loadedAt func() time.Time) CheckFunc {
	return func() Check {
		check := Check{
			Name:    name,
			Details: map[string]any{"path": path},
		}

		info, err := os.Stat(path)
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		check.Details["size_bytes"] = info.Size()
		check.Details["modified"] = info.ModTime().UTC().Format(time.RFC3339)

		if loaded := loadedAt(); !loaded.IsZero() && info.ModTime().After(loaded) {
			check.Status = StatusDegraded
			check.Message = "Artifact changed since last load"
			return check
		}
		check.Status = StatusHealthy
		return check
	}
}

// MemoryCheck reports degraded when the Go heap holds more than
// maxHeapBytes.
func MemoryCheck(maxHeapBytes uint64) CheckFunc {
	return func() Check {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		check := Check{
			Name: "memory",
			Details: map[string]any{
				"alloc_bytes": m.Alloc,
				"sys_bytes":   m.Sys,
			},
			Status: StatusHealthy,
		}
		if maxHeapBytes > 0 && m.Alloc > maxHeapBytes {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		}
		return check
	}
}
