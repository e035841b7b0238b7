package rapl

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"powermon/internal/logging"
)

// DefaultRoot is the well-known powercap hierarchy on Linux.
const DefaultRoot = "/sys/class/powercap"

// Registry discovers RAPL domains at startup and owns the accessible set
// for the rest of the run.
type Registry struct {
	root     string
	logger   *logging.Logger
	counters []*Counter
}

// Discover enumerates intel-rapl domains under root. Each domain is named
// from its optional name file, falling back to the directory entry. A
// missing root yields an empty registry, not an error.
func Discover(root string, logger *logging.Logger) *Registry {
	r := &Registry{
		root:   root,
		logger: logger,
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		logger.Debug("rapl.discover.no_root", "Powercap root not readable", map[string]interface{}{
			"root":  root,
			"error": err.Error(),
		})
		return r
	}

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "intel-rapl") {
			continue
		}
		domainPath := filepath.Join(root, entry.Name())
		r.counters = append(r.counters, NewCounter(domainPath, domainName(domainPath, entry.Name()), logger))
	}

	return r
}

// domainName reads the domain's descriptor file, falling back to the raw
// directory entry when absent or unreadable.
func domainName(domainPath, fallback string) string {
	data, err := os.ReadFile(filepath.Join(domainPath, "name"))
	if err != nil {
		return fallback
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return fallback
	}
	return name
}

// FilterAccessible performs one throwaway read per candidate and drops
// counters that fail it for the remainder of the run. Unreadable counters
// almost always mean missing elevated privileges, so this is reported
// once at startup and never retried.
func (r *Registry) FilterAccessible() {
	if len(r.counters) == 0 {
		return
	}

	var accessible []*Counter
	for _, c := range r.counters {
		if _, ok := c.ReadEnergy(); ok {
			accessible = append(accessible, c)
		}
	}

	if len(accessible) == 0 {
		r.logger.Warn("rapl.inaccessible", "RAPL domains detected but none readable (CPU power requires elevated privileges)", map[string]interface{}{
			"candidates": len(r.counters),
		})
		r.counters = nil
		return
	}

	names := make([]string, 0, len(accessible))
	for _, c := range accessible {
		names = append(names, c.Name)
	}
	r.logger.Info("rapl.accessible", "RAPL domains available", map[string]interface{}{
		"domains": strings.Join(names, ", "),
	})

	r.counters = accessible
}

// Prime takes one baseline sample per counter so the first loop tick
// already has a valid delta baseline.
func (r *Registry) Prime(now time.Time) {
	for _, c := range r.counters {
		c.SamplePower(now)
	}
}

// Counters returns the live counter set in discovery order.
func (r *Registry) Counters() []*Counter {
	return r.counters
}
