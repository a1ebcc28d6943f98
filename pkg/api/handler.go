package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/cardinal-itn/pkg/kit"
	"github.com/hazyhaar/cardinal-itn/pkg/metrics"
	"github.com/hazyhaar/cardinal-itn/pkg/registry"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Logger *slog.Logger
	// Metrics, when set, is served on GET /metrics.
	Metrics *metrics.Metrics
}

// NewRouter returns an http.Handler with all normalization API routes.
func NewRouter(reg *registry.Registry, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()
	h := &handler{endpoints: newEndpoints(reg, opts.Logger), reg: reg}

	mux.HandleFunc("GET /v1/normalize/batch", methodNotAllowed) // prevent GET on batch
	mux.HandleFunc("POST /v1/normalize/batch", h.handleNormalizeBatch)
	mux.HandleFunc("GET /v1/normalize/{lang}", h.handleNormalize)
	mux.HandleFunc("GET /v1/languages", h.handleListLanguages)
	mux.HandleFunc("GET /v1/health", h.handleHealth)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	return cors(requestID(mux))
}

type handler struct {
	endpoints
	reg *registry.Registry
}

// --- normalize one phrase ---

func (h *handler) handleNormalize(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		writeError(w, http.StatusBadRequest, "missing text")
		return
	}

	resp, err := h.normalize(r.Context(), &normalizeReq{Lang: r.PathValue("lang"), Text: text})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- normalize batch ---

type httpBatchRequest struct {
	Lang  string   `json:"lang"`
	Texts []string `json:"texts"`
}

func (h *handler) handleNormalizeBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024) // 64 KiB max
	var req httpBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Lang == "" {
		writeError(w, http.StatusBadRequest, "missing lang")
		return
	}

	resp, err := h.normalizeBatch(r.Context(), &normalizeBatchReq{Lang: req.Lang, Texts: req.Texts})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- list languages ---

func (h *handler) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	resp, err := h.listLanguages(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status    string `json:"status"`
	Languages int    `json:"languages"`
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Languages: h.reg.Count()})
}

// --- helpers ---

func statusFor(err error) int {
	if errors.Is(err, registry.ErrUnknownLanguage) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// requestID tags the request context with the transport and an ID, taken
// from X-Request-ID when the client sends one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = kit.NewRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := kit.WithRequestID(kit.WithTransport(r.Context(), "http"), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
