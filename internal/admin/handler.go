package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/copywriting24/genapi/internal/quota"
	"github.com/copywriting24/genapi/internal/record"
)

// usdToPLN converts cost summaries for the dashboard.
const usdToPLN = 4.05

type Handler struct {
	store     record.Store
	reports   record.Reporter
	overrides record.OverrideStore
	ledger    *quota.Ledger
}

func NewHandler(store record.Store, reports record.Reporter, overrides record.OverrideStore, ledger *quota.Ledger) *Handler {
	return &Handler{
		store:     store,
		reports:   reports,
		overrides: overrides,
		ledger:    ledger,
	}
}

// Routes mounts every admin endpoint behind the token middleware.
func (h *Handler) Routes(adminToken string) chi.Router {
	r := chi.NewRouter()
	r.Use(TokenMiddleware(adminToken))

	r.Get("/dashboard", h.HandleDashboard)
	r.Get("/generations", h.HandleListGenerations)
	r.Get("/generation/{id}", h.HandleGetGeneration)
	r.Delete("/generation/{id}", h.HandleDeleteGeneration)
	r.Delete("/generations/by-status", h.HandleDeleteByStatus)
	r.Delete("/generations/bulk", h.HandleDeleteBulk)
	r.Get("/users", h.HandleListUsers)
	r.Get("/user/{ip}", h.HandleGetUser)
	r.Post("/user/{ip}/bonus", h.HandleSetBonus)
	r.Get("/limits", h.HandleListOverrides)
	r.Delete("/limit/{ip}", h.HandleDeleteOverride)
	r.Get("/stats/hourly", h.HandleHourlyStats)
	r.Get("/stats/daily", h.HandleDailyStats)

	return r
}

func (h *Handler) internalError(w http.ResponseWriter, err error, what string) {
	logrus.WithError(err).Error(what)
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal Server Error"})
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.Dashboard(r.Context(), time.Now())
	if err != nil {
		h.internalError(w, err, "dashboard query failed")
		return
	}

	errorRate := "0%"
	if stats.TotalGenerations > 0 {
		errorRate = fmt.Sprintf("%.1f%%", float64(stats.TotalErrors)/float64(stats.TotalGenerations)*100)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"overview": map[string]any{
			"totalGenerations": stats.TotalGenerations,
			"todayGenerations": stats.TodayGenerations,
			"weekGenerations":  stats.WeekGenerations,
			"monthGenerations": stats.MonthGenerations,
			"totalErrors":      stats.TotalErrors,
			"todayErrors":      stats.TodayErrors,
			"errorRate":        errorRate,
		},
		"users": map[string]any{
			"todayUniqueIps":          stats.TodayUniqueIPs,
			"todayUniqueFingerprints": stats.TodayUniqueFingerprints,
			"totalUniqueIps":          stats.TotalUniqueIPs,
		},
		"costs": map[string]any{
			"totalUsd": stats.TotalCostUSD,
			"todayUsd": stats.TodayCostUSD,
			"weekUsd":  stats.WeekCostUSD,
			"monthUsd": stats.MonthCostUSD,
			"totalPln": fmt.Sprintf("%.2f", stats.TotalCostUSD*usdToPLN),
			"monthPln": fmt.Sprintf("%.2f", stats.MonthCostUSD*usdToPLN),
		},
		"performance": map[string]any{
			"avgLatencyMs":      stats.AvgLatencyMs,
			"todayAvgLatencyMs": stats.TodayAvgLatencyMs,
		},
		"tokens": map[string]any{
			"totalInput":  stats.TotalInputTokens,
			"totalOutput": stats.TotalOutputTokens,
			"total":       stats.TotalTokens,
		},
		"lengthDistribution": stats.LengthDistribution,
		"recentGenerations":  stats.RecentGenerations,
	})
}

func parseDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func queryInt(r *http.Request, key, fallback string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		v, _ = strconv.Atoi(fallback)
	}
	return v
}

func (h *Handler) HandleListGenerations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := record.ListFilter{
		Status:      record.Status(q.Get("status")),
		IP:          q.Get("ip"),
		Fingerprint: q.Get("fingerprint"),
		Search:      q.Get("search"),
		DateFrom:    parseDate(q.Get("dateFrom")),
		DateTo:      parseDate(q.Get("dateTo")),
		SortBy:      q.Get("sortBy"),
		SortDesc:    q.Get("sortDir") != "asc",
		Page:        queryInt(r, "page", "1"),
		Limit:       queryInt(r, "limit", "25"),
	}

	generations, total, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.internalError(w, err, "generation listing failed")
		return
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 25
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"generations": generations,
		"pagination": map[string]any{
			"page":       filter.Page,
			"limit":      filter.Limit,
			"total":      total,
			"totalPages": (total + filter.Limit - 1) / filter.Limit,
		},
	})
}

func (h *Handler) HandleGetGeneration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	g, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not found"})
			return
		}
		h.internalError(w, err, "generation lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, g)
}

func (h *Handler) HandleDeleteGeneration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, record.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not found"})
			return
		}
		h.internalError(w, err, "generation delete failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) HandleDeleteByStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing ?status= param"})
		return
	}

	deleted, err := h.store.DeleteByStatus(r.Context(), record.Status(status))
	if err != nil {
		h.internalError(w, err, "bulk delete by status failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted, "status": status})
}

func (h *Handler) HandleDeleteBulk(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IDs == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing ids array in body"})
		return
	}

	deleted, err := h.store.DeleteByIDs(r.Context(), body.IDs)
	if err != nil {
		h.internalError(w, err, "bulk delete failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", "1")
	limit := queryInt(r, "limit", "25")
	search := r.URL.Query().Get("search")

	users, total, err := h.reports.UserSummaries(r.Context(), page, limit, search)
	if err != nil {
		h.internalError(w, err, "user summary query failed")
		return
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"pagination": map[string]any{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": (total + limit - 1) / limit,
		},
	})
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")

	generations, stats, err := h.reports.GenerationsByIP(r.Context(), ip, 100)
	if err != nil {
		h.internalError(w, err, "per-ip query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ip":          ip,
		"generations": generations,
		"stats":       stats,
	})
}

func (h *Handler) HandleSetBonus(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")

	var body struct {
		Bonus *int   `json:"bonus"`
		Note  string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Bonus == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing 'bonus' number in body"})
		return
	}

	o := &record.Override{IP: ip, Bonus: *body.Bonus, Note: body.Note}
	if err := h.overrides.Upsert(r.Context(), o); err != nil {
		h.internalError(w, err, "override upsert failed")
		return
	}
	h.ledger.Invalidate(r.Context(), ip)

	writeJSON(w, http.StatusOK, map[string]any{
		"ip":             ip,
		"bonus":          o.Bonus,
		"effectiveLimit": h.ledger.BaseLimit() + o.Bonus,
		"note":           o.Note,
	})
}

func (h *Handler) HandleListOverrides(w http.ResponseWriter, r *http.Request) {
	overrides, err := h.overrides.List(r.Context())
	if err != nil {
		h.internalError(w, err, "override listing failed")
		return
	}

	type overrideView struct {
		*record.Override
		EffectiveLimit int `json:"effectiveLimit"`
	}

	views := make([]overrideView, 0, len(overrides))
	for _, o := range overrides {
		views = append(views, overrideView{Override: o, EffectiveLimit: h.ledger.BaseLimit() + o.Bonus})
	}

	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) HandleDeleteOverride(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")

	if err := h.overrides.Delete(r.Context(), ip); err != nil {
		if errors.Is(err, record.ErrOverrideNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "No override found for this IP"})
			return
		}
		h.internalError(w, err, "override delete failed")
		return
	}
	h.ledger.Invalidate(r.Context(), ip)

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "ip": ip})
}

func (h *Handler) HandleHourlyStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	buckets, err := h.reports.HourlyStats(r.Context(), startOfDay)
	if err != nil {
		h.internalError(w, err, "hourly stats query failed")
		return
	}
	if buckets == nil {
		buckets = []record.HourlyBucket{}
	}

	writeJSON(w, http.StatusOK, buckets)
}

func (h *Handler) HandleDailyStats(w http.ResponseWriter, r *http.Request) {
	since := time.Now().AddDate(0, 0, -30)

	buckets, err := h.reports.DailyStats(r.Context(), since)
	if err != nil {
		h.internalError(w, err, "daily stats query failed")
		return
	}
	if buckets == nil {
		buckets = []record.DailyBucket{}
	}

	writeJSON(w, http.StatusOK, buckets)
}
