// Package handlers provides the HTTP handlers of the CIE10 API.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/cie10-api/cie10"
	"github.com/giygas/cie10-api/interfaces"
	"github.com/giygas/cie10-api/logging"
	"github.com/go-chi/chi/v5"
)

const (
	pageSize     = 50
	cacheControl = "public, max-age=3600"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler interface
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator, healthChecker interfaces.HealthChecker) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		validator:     validator,
		healthChecker: healthChecker,
	}
}

// CodeResponse is the body of GET /v1/codes/{code}
type CodeResponse struct {
	Code        string `json:"code"`
	Normalized  string `json:"normalized"`
	Description string `json:"description"`
}

// NormalizeResponse is the body of GET /v1/normalize/{code}
type NormalizeResponse struct {
	Code       string `json:"code"`
	Normalized string `json:"normalized"`
	Changed    bool   `json:"changed"`
}

// PageResponse is one page of GET /v1/codes
type PageResponse struct {
	Data       []cie10.Entry `json:"data"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalItems int           `json:"totalItems"`
	MaxPage    int           `json:"maxPage"`
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Uptime        string         `json:"uptime"`
	Data          map[string]any `json:"data"`
	System        map[string]any `json:"system"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err, "payload_type", fmt.Sprintf("%T", payload))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write response", "error", err)
	}
}

// RespondWithJSONAndETag writes a cacheable JSON response. The ETag is the
// hash of the body, a matching If-None-Match gets 304 without a body.
func (h *HTTPHandlerImpl) RespondWithJSONAndETag(w http.ResponseWriter, r *http.Request, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err, "payload_type", fmt.Sprintf("%T", payload))
		h.RespondWithError(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}

	sum := sha256.Sum256(data)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", cacheControl)
	if lastUpdated := h.dataStore.GetLastUpdated(); !lastUpdated.IsZero() {
		w.Header().Set("Last-Modified", lastUpdated.UTC().Format(http.TimeFormat))
	}

	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	h.RespondWithJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// ServeCodesV1 serves GET /v1/codes: one page of entries, or the entries
// matching search. page and search are mutually exclusive.
func (h *HTTPHandlerImpl) ServeCodesV1(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pageParam := query.Get("page")
	searchParam := query.Get("search")

	for key := range query {
		if key != "page" && key != "search" {
			h.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown parameter: %s", key))
			return
		}
	}

	if pageParam != "" && searchParam != "" {
		h.RespondWithError(w, http.StatusBadRequest, "Use either page or search, not both")
		return
	}

	if searchParam != "" {
		h.searchCodes(w, r, searchParam)
		return
	}

	page := 1
	if pageParam != "" {
		var err error
		page, err = strconv.Atoi(pageParam)
		if err != nil || page < 1 {
			logging.Warn("Unusual user input", "page", pageParam)
			h.RespondWithError(w, http.StatusBadRequest, "Invalid page number")
			return
		}
	}

	entries := h.dataStore.GetEntries()
	start := (page - 1) * pageSize
	if start >= len(entries) {
		h.RespondWithError(w, http.StatusNotFound, "Page not found")
		return
	}
	end := min(start+pageSize, len(entries))

	h.RespondWithJSONAndETag(w, r, PageResponse{
		Data:       entries[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: len(entries),
		MaxPage:    (len(entries) + pageSize - 1) / pageSize,
	})
}

// searchCodes matches term against descriptions ignoring case and accents,
// and against codes by prefix
func (h *HTTPHandlerImpl) searchCodes(w http.ResponseWriter, r *http.Request, term string) {
	if err := h.validator.ValidateInput(term); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	folded := foldText(strings.TrimSpace(term))
	codePrefix := strings.ToUpper(strings.TrimSpace(term))

	results := make([]cie10.Entry, 0)
	for _, entry := range h.dataStore.GetEntries() {
		if strings.HasPrefix(strings.ToUpper(entry.Code), codePrefix) ||
			strings.Contains(foldText(entry.Description), folded) {
			results = append(results, entry)
		}
	}

	// Always return 200 with results array (empty if no matches)
	h.RespondWithJSONAndETag(w, r, results)
}

// FindCodeV1 serves GET /v1/codes/{code}, normalizing the code before lookup
func (h *HTTPHandlerImpl) FindCodeV1(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := h.validator.ValidateCode(code); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	normalized := cie10.NormalizeCode(code)
	description, ok := h.dataStore.GetMapping()[normalized]
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, "Code not found")
		return
	}

	h.RespondWithJSONAndETag(w, r, CodeResponse{
		Code:        code,
		Normalized:  normalized,
		Description: description,
	})
}

// NormalizeCodeV1 serves GET /v1/normalize/{code}
func (h *HTTPHandlerImpl) NormalizeCodeV1(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := h.validator.ValidateCode(code); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	normalized := cie10.NormalizeCode(code)
	h.RespondWithJSON(w, http.StatusOK, NormalizeResponse{
		Code:       code,
		Normalized: normalized,
		Changed:    normalized != code,
	})
}

// ServeReportV1 serves GET /v1/report, the data quality report of the last load
func (h *HTTPHandlerImpl) ServeReportV1(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSONAndETag(w, r, h.dataStore.GetDataQualityReport())
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.healthChecker.HealthCheck()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var uptime time.Duration
	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		uptime = time.Since(start)
	}

	if data == nil {
		data = make(map[string]any)
	}
	data["api_version"] = "1.0"

	h.RespondWithJSON(w, httpStatus, HealthResponse{
		Status:        status,
		UptimeSeconds: uptime.Seconds(),
		Uptime:        formatUptimeHuman(uptime),
		Data:          data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	})
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
