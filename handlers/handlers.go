package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alanniew/hntv-live/internal/auth"
	"github.com/alanniew/hntv-live/internal/cache"
	"github.com/alanniew/hntv-live/internal/config"
	"github.com/alanniew/hntv-live/internal/epg"
	"github.com/alanniew/hntv-live/internal/hntv"
	"github.com/alanniew/hntv-live/internal/metrics"
	"github.com/alanniew/hntv-live/internal/sign"
	"github.com/alanniew/hntv-live/internal/snapshot"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	logger   *slog.Logger
	client   *hntv.Client
	builder  *epg.Builder
	store    *snapshot.Store
	secret   string
	m3uCache *cache.Cache[string]
	m3uTTL   time.Duration
	now      func() time.Time
}

// New creates a new Handlers instance.
func New(logger *slog.Logger, cfg *config.Config, client *hntv.Client, builder *epg.Builder, store *snapshot.Store) *Handlers {
	return &Handlers{
		logger:   logger,
		client:   client,
		builder:  builder,
		store:    store,
		secret:   cfg.SecretKey,
		m3uCache: cache.New[string](),
		m3uTTL:   cfg.M3UCacheTTL,
		now:      time.Now,
	}
}

// Register wires all routes onto mux, applying the token check to every /api
// route. /health and /metrics stay open.
func (h *Handlers) Register(mux *http.ServeMux, authmw *auth.Middleware) {
	mux.HandleFunc("GET /api/proxy", authmw.Require(h.ProxyHandler))
	mux.HandleFunc("GET /api/generate-sign", authmw.Require(h.GenerateSignHandler))
	mux.HandleFunc("GET /api/live.m3u8", authmw.Require(h.M3UHandler))
	mux.HandleFunc("GET /api/live.xml", authmw.Require(h.XMLHandler))
	mux.HandleFunc("GET /api/live.xml.gz", authmw.Require(h.CompressedXMLHandler))
	mux.HandleFunc("GET /health", h.HealthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
}

// ProxyHandler handles GET /api/proxy: a passthrough of the upstream live
// list, wrapped with the upstream status code.
func (h *Handlers) ProxyHandler(w http.ResponseWriter, r *http.Request) {
	body, status, err := h.client.FetchLiveRaw(r.Context())
	if err != nil {
		h.logger.Error("Failed to proxy live list", "error", err)
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, map[string]any{
		"status":      "success",
		"data":        json.RawMessage(body),
		"status_code": status,
	})
}

// GenerateSignHandler handles GET /api/generate-sign: a fresh timestamp and
// signature pair for the shared secret.
func (h *Handlers) GenerateSignHandler(w http.ResponseWriter, r *http.Request) {
	ts := h.now().Unix()
	h.writeJSON(w, map[string]string{
		"timestamp": strconv.FormatInt(ts, 10),
		"sign":      sign.Signature(h.secret, ts),
	})
}

// M3UHandler handles GET /api/live.m3u8. The playlist is rebuilt from the
// upstream at most once per TTL; concurrent recomputes are last-writer-wins.
func (h *Handlers) M3UHandler(w http.ResponseWriter, r *http.Request) {
	playlist, ok := h.m3uCache.Get()
	if !ok {
		playlist = h.builder.BuildM3U(r.Context())
		h.m3uCache.Set(playlist, h.m3uTTL)
	}

	w.Header().Set("Content-Type", "application/x-mpegURL")
	w.Write([]byte(playlist))
}

// XMLHandler handles GET /api/live.xml: the current XMLTV snapshot.
func (h *Handlers) XMLHandler(w http.ResponseWriter, r *http.Request) {
	doc := h.store.Load(r.Context())
	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(doc))
}

// CompressedXMLHandler handles GET /api/live.xml.gz: the compressed snapshot
// as a downloadable attachment, generated first if absent.
func (h *Handlers) CompressedXMLHandler(w http.ResponseWriter, r *http.Request) {
	path, err := h.store.EnsureCompressed(r.Context())
	if err != nil {
		h.logger.Error("Failed to produce compressed snapshot", "error", err)
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="live.xml.gz"`)
	http.ServeFile(w, r, path)
}

// HealthHandler handles GET /health, no auth.
func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "healthy"})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"message": err.Error(),
	})
}
