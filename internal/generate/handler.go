package generate

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/copywriting24/genapi/pkg/ratelimit"
)

const (
	maxUserAgentLen  = 500
	maxRefererLen    = 500
	maxAcceptLangLen = 200
)

// User-facing messages; internal error text never leaks past these.
const (
	msgValidation  = "Błąd walidacji"
	msgQuota       = "Wykorzystano dzienny limit generacji"
	msgBurst       = "Zbyt wiele żądań. Spróbuj za chwilę."
	msgFailed      = "Błąd generowania tekstu. Spróbuj ponownie."
	msgStreamError = "Błąd generowania tekstu"
	msgFingerprint = "Brakuje fingerprint"
)

type Handler struct {
	service *Service
	limiter *ratelimit.Limiter // optional
	tracer  trace.Tracer
}

func NewHandler(service *Service, limiter *ratelimit.Limiter, tracer trace.Tracer) *Handler {
	return &Handler{
		service: service,
		limiter: limiter,
		tracer:  tracer,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clientIP prefers the first X-Forwarded-For entry; the service runs
// behind a reverse proxy in production.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}

func metaFromRequest(r *http.Request) RequestMeta {
	referer := r.Header.Get("Referer")
	if referer == "" {
		referer = r.Header.Get("Origin")
	}
	return RequestMeta{
		UserAgent:  truncate(r.Header.Get("User-Agent"), maxUserAgentLen),
		Referer:    truncate(referer, maxRefererLen),
		AcceptLang: truncate(r.Header.Get("Accept-Language"), maxAcceptLangLen),
	}
}

// checkBurst applies the per-IP burst limiter. A limiter backend failure
// fails open: burst control is best-effort, the daily quota still holds.
func (h *Handler) checkBurst(w http.ResponseWriter, r *http.Request, ip string) bool {
	if h.limiter == nil {
		return true
	}
	allowed, err := h.limiter.Allow(r.Context(), ip)
	if err != nil {
		logrus.WithError(err).Warn("burst limiter unavailable")
		return true
	}
	if !allowed {
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": msgBurst})
		return false
	}
	return true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*Request, bool) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   msgValidation,
			"details": []string{"invalid request body"},
		})
		return nil, false
	}
	return &req, true
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	ip := clientIP(r)
	if !h.checkBurst(w, r, ip) {
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "generate.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("fingerprint", req.Fingerprint),
		attribute.Int("target_length", req.Length),
	)

	result, err := h.service.Generate(ctx, req, ip, metaFromRequest(r))
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"result":    result.Text,
		"length":    result.Length,
		"remaining": result.Remaining,
		"resetAt":   result.ResetAt.Format(time.RFC3339),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   msgValidation,
			"details": verr.Details,
		})
		return
	}

	var qerr *QuotaExceededError
	if errors.As(err, &qerr) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":     msgQuota,
			"remaining": 0,
			"resetAt":   qerr.ResetAt.Format(time.RFC3339),
		})
		return
	}

	logrus.WithError(err).Error("generation request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": msgFailed})
}

// sseWriter lazily switches the response into event-stream mode on the
// first event, so admission failures can still answer with plain JSON.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (sw *sseWriter) event(v any) {
	if !sw.started {
		sw.w.Header().Set("Content-Type", "text/event-stream")
		sw.w.Header().Set("Cache-Control", "no-cache")
		sw.w.Header().Set("Connection", "keep-alive")
		sw.w.WriteHeader(http.StatusOK)
		sw.started = true
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	// Writes after a client disconnect are no-ops by design: the
	// generation and record finalization still run to completion.
	fmt.Fprintf(sw.w, "data: %s\n\n", data)
	sw.flusher.Flush()
}

func (h *Handler) HandleGenerateStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	ip := clientIP(r)
	if !h.checkBurst(w, r, ip) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	sw := &sseWriter{w: w, flusher: flusher}

	ctx, span := h.tracer.Start(r.Context(), "generate.stream")
	defer span.End()
	span.SetAttributes(
		attribute.String("fingerprint", req.Fingerprint),
		attribute.Int("target_length", req.Length),
	)

	result, err := h.service.GenerateStream(ctx, req, ip, metaFromRequest(r), func(text string) {
		sw.event(map[string]any{"text": text})
	})
	if err != nil {
		// Rejections before the stream opened stay plain JSON; anything
		// after that must terminate the event stream.
		if !sw.started {
			var verr *ValidationError
			var qerr *QuotaExceededError
			if errors.As(err, &verr) || errors.As(err, &qerr) {
				h.writeError(w, err)
				return
			}
		}
		logrus.WithError(err).Error("stream generation failed")
		sw.event(map[string]any{"error": msgStreamError})
		return
	}

	sw.event(map[string]any{
		"done":      true,
		"remaining": result.Remaining,
		"resetAt":   result.ResetAt.Format(time.RFC3339),
	})
}

func (h *Handler) HandleLimitStatus(w http.ResponseWriter, r *http.Request) {
	fingerprint := r.URL.Query().Get("fingerprint")
	if len(fingerprint) < 8 || len(fingerprint) > 128 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": msgFingerprint})
		return
	}

	status, err := h.service.LimitStatus(r.Context(), fingerprint, clientIP(r))
	if err != nil {
		logrus.WithError(err).Error("limit status check failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": msgFailed})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"remaining": status.Remaining,
		"total":     status.EffectiveLimit,
		"resetAt":   status.ResetAt.Format(time.RFC3339),
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
