// Package api exposes the read-only HTTP surface (C7): health, stats,
// live flows, persisted history, a websocket push stream, and Prometheus
// metrics. The core package guarantees these read contracts; this package
// is a thin HTTP binding over them (spec: "boundary only").
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/DavidHavoc/ayaFlow/internal/state"
	"github.com/DavidHavoc/ayaFlow/internal/storage"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const liveTopN = 50

// Table is the subset of state.Table the API reads.
type Table interface {
	Totals() (totalPackets, totalBytes uint64, activeConnections int64)
	Snapshot() []state.FlowSnapshot
}

// History is the subset of storage.Store the API reads.
type History interface {
	QueryHistory(limit int) ([]storage.Row, error)
}

// Server wires the read contracts onto net/http handlers.
type Server struct {
	table     Table
	history   History
	startedAt time.Time
	allow     *allowlist
	upgrader  websocket.Upgrader
	registry  *prometheus.Registry
	log       *logrus.Entry
}

// NewServer builds a Server. allowedCIDRs may be empty, disabling access
// control entirely (spec §6: "empty list disables the check"). Metrics are
// served from a dedicated registry rather than the global default, so
// multiple servers (as in tests) never collide on collector registration.
func NewServer(table Table, history History, allowedCIDRs []string, log *logrus.Entry) (*Server, error) {
	allow, err := newAllowlist(allowedCIDRs)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	for _, c := range newCollectors(table) {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Server{
		table:     table,
		history:   history,
		startedAt: time.Now(),
		allow:     allow,
		upgrader:  websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		registry:  registry,
		log:       log,
	}, nil
}

// Handler builds the full routed, allowlist-wrapped http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/live", s.handleLive)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/stream", s.handleStream)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return s.allow.middleware(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	totalPackets, _, active := s.table.Totals()
	writeJSON(w, map[string]any{
		"status":             "ok",
		"active_connections": active,
		"total_packets":      totalPackets,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	totalPackets, totalBytes, active := s.table.Totals()
	uptime := time.Since(s.startedAt).Seconds()

	var packetsPerSec, bytesPerSec float64
	if uptime > 0 {
		packetsPerSec = float64(totalPackets) / uptime
		bytesPerSec = float64(totalBytes) / uptime
	}

	writeJSON(w, map[string]any{
		"uptime_seconds":     uptime,
		"total_packets":      totalPackets,
		"total_bytes":        totalBytes,
		"active_connections": active,
		"packets_per_second": packetsPerSec,
		"bytes_per_second":   bytesPerSec,
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	flows := s.table.Snapshot()
	sort.Slice(flows, func(i, j int) bool {
		return flows[i].Stats.PacketsCount > flows[j].Stats.PacketsCount
	})
	if len(flows) > liveTopN {
		flows = flows[:liveTopN]
	}

	totalPackets, totalBytes, active := s.table.Totals()
	writeJSON(w, map[string]any{
		"flows":              flows,
		"total_packets":      totalPackets,
		"total_bytes":        totalBytes,
		"active_connections": active,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), 100)
	rows, err := s.history.QueryHistory(limit)
	if err != nil {
		s.log.WithError(err).Error("api: history query failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

// streamInterval is the push cadence for /api/stream (spec §4.7: "1 Hz").
const streamInterval = time.Second

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Debug("api: websocket upgrade failed")
		return
	}
	defer conn.Close()

	s.pushLoop(r.Context(), conn)
}

func (s *Server) pushLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			totalPackets, totalBytes, active := s.table.Totals()
			frame := map[string]any{
				"totals": map[string]any{
					"packets": totalPackets,
					"bytes":   totalBytes,
				},
				"active": active,
			}
			if err := conn.WriteJSON(frame); err != nil {
				s.log.WithError(err).Debug("api: dropping stream subscriber")
				return
			}
		}
	}
}

func parseLimit(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return clampLimit(n)
}

func clampLimit(n int) int {
	if n < 0 {
		return 0
	}
	if n > 1000 {
		return 1000
	}
	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
