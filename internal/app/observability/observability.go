package observability

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"cadetquiz/internal/visitor"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const metricPrefix = "cadetquiz_"

type key struct {
	Method string
	Path   string
	Status int
}

type stat struct {
	Count     int64
	LatencyMS float64
}

type dbStater interface {
	Stats() sql.DBStats
}

type Collector struct {
	db dbStater

	mu           sync.RWMutex
	requestStats map[key]stat
	counters     map[string]int64
	gauges       map[string]func() int
	startedAt    time.Time
}

// NewCollector returns a collector. Pass an untyped nil db when results are kept in memory;
// a nil *sqlx.DB wrapped in the interface would be called.
func NewCollector(db dbStater) *Collector {
	return &Collector{
		db:           db,
		requestStats: make(map[key]stat),
		counters:     make(map[string]int64),
		gauges:       make(map[string]func() int),
		startedAt:    time.Now(),
	}
}

// Incr bumps a named domain counter such as sessions_started.
func (c *Collector) Incr(name string) {
	c.mu.Lock()
	c.counters[name]++
	c.mu.Unlock()
}

// Gauge registers a value sampled on every scrape.
func (c *Collector) Gauge(name string, fn func() int) {
	c.mu.Lock()
	c.gauges[name] = fn
	c.mu.Unlock()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		latencyMS := float64(time.Since(start).Microseconds()) / 1000.0
		path := normalizedPath(r.URL.Path)

		c.mu.Lock()
		k := key{Method: r.Method, Path: path, Status: rec.status}
		s := c.requestStats[k]
		s.Count++
		s.LatencyMS += latencyMS
		c.requestStats[k] = s
		c.mu.Unlock()

		visitorID, _ := visitor.FromContext(r.Context())
		entry := map[string]any{
			"request_id": middleware.GetReqID(r.Context()),
			"visitor_id": visitorID,
			"session_id": extractSessionID(r.URL.Path),
			"method":     r.Method,
			"path":       path,
			"status":     rec.status,
			"latency_ms": latencyMS,
			"remote_ip":  strings.TrimSpace(r.RemoteAddr),
		}
		b, _ := json.Marshal(entry)
		log.Printf("%s", string(b))
	})
}

func (c *Collector) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	statsCopy := make(map[key]stat, len(c.requestStats))
	for k, v := range c.requestStats {
		statsCopy[k] = v
	}
	counters := make(map[string]int64, len(c.counters))
	for k, v := range c.counters {
		counters[k] = v
	}
	gauges := make(map[string]func() int, len(c.gauges))
	for k, v := range c.gauges {
		gauges[k] = v
	}
	startedAt := c.startedAt
	c.mu.RUnlock()

	keys := make([]key, 0, len(statsCopy))
	for k := range statsCopy {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Method != keys[j].Method {
			return keys[i].Method < keys[j].Method
		}
		if keys[i].Path != keys[j].Path {
			return keys[i].Path < keys[j].Path
		}
		return keys[i].Status < keys[j].Status
	})

	var sb strings.Builder
	sb.WriteString("# cadetquiz observability metrics\n")
	writeMetric(&sb, "gauge", "uptime_seconds", fmt.Sprintf("%.0f", time.Since(startedAt).Seconds()))

	sb.WriteString("# TYPE " + metricPrefix + "http_requests_total counter\n")
	sb.WriteString("# TYPE " + metricPrefix + "http_request_latency_ms_sum counter\n")
	sb.WriteString("# TYPE " + metricPrefix + "http_request_latency_ms_avg gauge\n")
	for _, k := range keys {
		s := statsCopy[k]
		labels := fmt.Sprintf("method=\"%s\",path=\"%s\",status=\"%d\"", k.Method, k.Path, k.Status)
		sb.WriteString(fmt.Sprintf("%shttp_requests_total{%s} %d\n", metricPrefix, labels, s.Count))
		sb.WriteString(fmt.Sprintf("%shttp_request_latency_ms_sum{%s} %.3f\n", metricPrefix, labels, s.LatencyMS))
		avg := 0.0
		if s.Count > 0 {
			avg = s.LatencyMS / float64(s.Count)
		}
		sb.WriteString(fmt.Sprintf("%shttp_request_latency_ms_avg{%s} %.3f\n", metricPrefix, labels, avg))
	}

	for _, name := range sortedKeys(counters) {
		writeMetric(&sb, "counter", name+"_total", fmt.Sprintf("%d", counters[name]))
	}
	for _, name := range sortedKeys(gauges) {
		writeMetric(&sb, "gauge", name, fmt.Sprintf("%d", gauges[name]()))
	}

	if c.db != nil {
		dbs := c.db.Stats()
		writeMetric(&sb, "gauge", "db_open_connections", fmt.Sprintf("%d", dbs.OpenConnections))
		writeMetric(&sb, "gauge", "db_in_use_connections", fmt.Sprintf("%d", dbs.InUse))
		writeMetric(&sb, "gauge", "db_idle_connections", fmt.Sprintf("%d", dbs.Idle))
		writeMetric(&sb, "counter", "db_wait_count", fmt.Sprintf("%d", dbs.WaitCount))
		writeMetric(&sb, "counter", "db_wait_duration_ms", fmt.Sprintf("%.3f", float64(dbs.WaitDuration.Microseconds())/1000.0))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sb.String()))
}

func writeMetric(sb *strings.Builder, typ, name, value string) {
	sb.WriteString(fmt.Sprintf("# TYPE %s%s %s\n", metricPrefix, name, typ))
	sb.WriteString(fmt.Sprintf("%s%s %s\n", metricPrefix, name, value))
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// normalizedPath folds session ids so per-session URLs share one series.
func normalizedPath(path string) string {
	if path == "" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := uuid.Parse(p); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func extractSessionID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "sessions" {
			if id, err := uuid.Parse(parts[i+1]); err == nil {
				return id.String()
			}
		}
	}
	return ""
}
