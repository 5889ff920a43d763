// Package interfaces defines core abstractions for the CIE10 API
// to improve testability and separation of concerns.
package interfaces

import (
	"net/http"
	"time"

	"github.com/giygas/cie10-api/cie10"
)

// DataQualityReport provides a summary of data quality issues found while
// loading the mapping file
type DataQualityReport struct {
	RowsRead                 int               `json:"rows_read"`
	Entries                  int               `json:"entries"`
	Encoding                 string            `json:"encoding"`
	DroppedNoneRows          int               `json:"dropped_none_rows"`
	EmptyCodeRows            int               `json:"empty_code_rows"`
	DuplicateVariables       []string          `json:"duplicate_variables"`
	OverriddenBySupplemental []string          `json:"overridden_by_supplemental"`
	Collisions               []cie10.Collision `json:"collisions"`
	EmptyDescriptions        []string          `json:"empty_descriptions"`
}

// DataStore defines the contract for data storage operations.
// It provides thread-safe access to the mapping with atomic swaps on reload.
type DataStore interface {
	// Data retrieval methods
	GetMapping() cie10.Mapping
	GetEntries() []cie10.Entry
	GetDataQualityReport() *DataQualityReport
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Data update methods
	UpdateData(mapping cie10.Mapping, report *DataQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// Loader reads the mapping from its source
type Loader interface {
	LoadMapping() (*cie10.Result, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
type Scheduler interface {
	Start() error
	Stop()
	Reload() error
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	ServeCodesV1(w http.ResponseWriter, r *http.Request)
	FindCodeV1(w http.ResponseWriter, r *http.Request)
	NormalizeCodeV1(w http.ResponseWriter, r *http.Request)
	ServeReportV1(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current health status, details and the HTTP status to send
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled reload time
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for data validation operations.
type DataValidator interface {
	// ValidateInput validates description search terms
	ValidateInput(input string) error

	// ValidateCode validates a code taken from a request path
	ValidateCode(input string) error

	// ReportDataQuality builds a report from a load result
	ReportDataQuality(result *cie10.Result) *DataQualityReport
}
