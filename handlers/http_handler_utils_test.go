package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giygas/cie10-api/cie10"
	"github.com/giygas/cie10-api/interfaces"
	"github.com/go-chi/chi/v5"
)

// ============================================================================
// MOCKS
// ============================================================================

// MockDataStore implements interfaces.DataStore for handler tests
type MockDataStore struct {
	mapping     cie10.Mapping
	report      *interfaces.DataQualityReport
	lastUpdated time.Time
	startTime   time.Time
	updating    bool
}

func (m *MockDataStore) GetMapping() cie10.Mapping { return m.mapping }
func (m *MockDataStore) GetEntries() []cie10.Entry { return m.mapping.Entries() }
func (m *MockDataStore) GetDataQualityReport() *interfaces.DataQualityReport { return m.report }
func (m *MockDataStore) GetLastUpdated() time.Time { return m.lastUpdated }
func (m *MockDataStore) IsUpdating() bool { return m.updating }
func (m *MockDataStore) GetServerStartTime() time.Time { return m.startTime }
func (m *MockDataStore) BeginUpdate() bool { return true }
func (m *MockDataStore) EndUpdate() {}

func (m *MockDataStore) UpdateData(mapping cie10.Mapping, report *interfaces.DataQualityReport) {
	m.mapping = mapping
	m.report = report
	m.lastUpdated = time.Now()
}

// MockDataValidator implements interfaces.DataValidator with fixed answers
type MockDataValidator struct {
	validateInputError error
	validateCodeError  error
}

func (m *MockDataValidator) ValidateInput(input string) error { return m.validateInputError }
func (m *MockDataValidator) ValidateCode(input string) error { return m.validateCodeError }

func (m *MockDataValidator) ReportDataQuality(result *cie10.Result) *interfaces.DataQualityReport {
	return &interfaces.DataQualityReport{}
}

// MockHealthChecker implements interfaces.HealthChecker with fixed answers
type MockHealthChecker struct {
	status     string
	data       map[string]any
	httpStatus int
	nextUpdate time.Time
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, int) {
	// Copied so the handler can add fields without touching the fixture
	return m.status, maps.Clone(m.data), m.httpStatus
}

func (m *MockHealthChecker) CalculateNextUpdate() time.Time { return m.nextUpdate }

// ============================================================================
// MOCK BUILDERS
// ============================================================================

// MockDataStoreBuilder provides fluent interface for building mock data stores
type MockDataStoreBuilder struct {
	mock *MockDataStore
}

func NewMockDataStoreBuilder() *MockDataStoreBuilder {
	return &MockDataStoreBuilder{
		mock: &MockDataStore{
			mapping:     cie10.Mapping{},
			report:      &interfaces.DataQualityReport{},
			lastUpdated: time.Now(),
			startTime:   time.Now().Add(-time.Hour),
		},
	}
}

func (b *MockDataStoreBuilder) WithMapping(mapping cie10.Mapping) *MockDataStoreBuilder {
	b.mock.mapping = mapping
	return b
}

func (b *MockDataStoreBuilder) WithReport(report *interfaces.DataQualityReport) *MockDataStoreBuilder {
	b.mock.report = report
	return b
}

func (b *MockDataStoreBuilder) WithLastUpdated(lastUpdated time.Time) *MockDataStoreBuilder {
	b.mock.lastUpdated = lastUpdated
	return b
}

func (b *MockDataStoreBuilder) WithServerStartTime(startTime time.Time) *MockDataStoreBuilder {
	b.mock.startTime = startTime
	return b
}

func (b *MockDataStoreBuilder) Build() *MockDataStore {
	return b.mock
}

// MockDataValidatorBuilder provides fluent interface for building mock validators
type MockDataValidatorBuilder struct {
	mock *MockDataValidator
}

func NewMockDataValidatorBuilder() *MockDataValidatorBuilder {
	return &MockDataValidatorBuilder{mock: &MockDataValidator{}}
}

func (b *MockDataValidatorBuilder) WithInputError(err error) *MockDataValidatorBuilder {
	b.mock.validateInputError = err
	return b
}

func (b *MockDataValidatorBuilder) WithCodeError(err error) *MockDataValidatorBuilder {
	b.mock.validateCodeError = err
	return b
}

func (b *MockDataValidatorBuilder) Build() *MockDataValidator {
	return b.mock
}

// MockHealthCheckerBuilder provides fluent interface for building mock health checkers
type MockHealthCheckerBuilder struct {
	mock *MockHealthChecker
}

func NewMockHealthCheckerBuilder() *MockHealthCheckerBuilder {
	return &MockHealthCheckerBuilder{
		mock: &MockHealthChecker{
			status:     "healthy",
			data:       map[string]any{"codes": 0},
			httpStatus: http.StatusOK,
		},
	}
}

func (b *MockHealthCheckerBuilder) WithStatus(status string, httpStatus int) *MockHealthCheckerBuilder {
	b.mock.status = status
	b.mock.httpStatus = httpStatus
	return b
}

func (b *MockHealthCheckerBuilder) WithData(data map[string]any) *MockHealthCheckerBuilder {
	b.mock.data = data
	return b
}

func (b *MockHealthCheckerBuilder) Build() *MockHealthChecker {
	return b.mock
}

// ============================================================================
// TEST DATA
// ============================================================================

// sampleMapping returns a small normalized mapping
func sampleMapping() cie10.Mapping {
	return cie10.Mapping{
		"F32.0":    "Episodio depresivo",
		"F33.0":    "Trastorno depresivo mayor, recurrente",
		"F40.0":    "Trastornos de ansiedad fóbica",
		"F50.0":    "Trastornos de la conducta alimentaria",
		"F3.1":     "Episodio maníaco",
		"G40":      "Epilepsia",
		"No_DX":    "No diagnóstico",
		"COGNITIV": "Dimensión cognitiva",
	}
}

// largeMapping returns count synthetic codes
func largeMapping(count int) cie10.Mapping {
	mapping := make(cie10.Mapping, count)
	for i := range count {
		mapping[fmt.Sprintf("X%04d", i)] = fmt.Sprintf("Código sintético %d", i)
	}
	return mapping
}

// ============================================================================
// HTTP TEST UTILITIES
// ============================================================================

// executeRequest runs handler with chi URL params set on the request context
func executeRequest(handler http.HandlerFunc, method, path string, urlParams map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)

	if len(urlParams) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range urlParams {
			rctx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// assertErrorResponse checks the status and the error body fields
func assertErrorResponse(t *testing.T, resp *httptest.ResponseRecorder, expectedStatus int) map[string]any {
	t.Helper()

	if resp.Code != expectedStatus {
		t.Errorf("Expected status %d, got %d", expectedStatus, resp.Code)
	}

	var errorResp map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &errorResp); err != nil {
		t.Fatalf("Error response should be valid JSON, got error: %v", err)
	}

	if errorResp["error"] != http.StatusText(expectedStatus) {
		t.Errorf("Expected error %q, got %v", http.StatusText(expectedStatus), errorResp["error"])
	}
	if _, ok := errorResp["message"]; !ok {
		t.Error("Error response should have message field")
	}
	if errorResp["code"] != float64(expectedStatus) {
		t.Errorf("Expected code %d, got %v", expectedStatus, errorResp["code"])
	}
	return errorResp
}

func hasQuotedETag(etag string) bool {
	return len(etag) >= 2 && etag[0] == '"' && etag[len(etag)-1] == '"'
}
