package health

import (
	"net/http"
	"testing"
	"time"

	"github.com/giygas/cie10-api/cie10"
	"github.com/giygas/cie10-api/interfaces"
)

// MockHealthDataStore for testing
type MockHealthDataStore struct {
	mapping     cie10.Mapping
	lastUpdated time.Time
	isUpdating  bool
}

func (m *MockHealthDataStore) GetMapping() cie10.Mapping {
	return m.mapping
}

func (m *MockHealthDataStore) GetEntries() []cie10.Entry {
	return m.mapping.Entries()
}

func (m *MockHealthDataStore) GetDataQualityReport() *interfaces.DataQualityReport {
	return &interfaces.DataQualityReport{}
}

func (m *MockHealthDataStore) GetLastUpdated() time.Time {
	return m.lastUpdated
}

func (m *MockHealthDataStore) IsUpdating() bool {
	return m.isUpdating
}

func (m *MockHealthDataStore) GetServerStartTime() time.Time {
	return time.Time{}
}

func (m *MockHealthDataStore) UpdateData(mapping cie10.Mapping, report *interfaces.DataQualityReport) {
	// Not used in health tests
}

func (m *MockHealthDataStore) BeginUpdate() bool {
	return true
}

func (m *MockHealthDataStore) EndUpdate() {
	// Not used in health tests
}

func sampleMapping() cie10.Mapping {
	return cie10.Mapping{"F32.0": "Episodio depresivo", "G40": "Epilepsia"}
}

func TestHealthCheck_Status(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name           string
		mapping        cie10.Mapping
		lastUpdated    time.Time
		isUpdating     bool
		expectedStatus string
		expectedHTTP   int
	}{
		{"fresh data", sampleMapping(), now.Add(-time.Hour), false, "healthy", http.StatusOK},
		{"empty mapping", cie10.Mapping{}, now, false, "unhealthy", http.StatusServiceUnavailable},
		{"nil mapping", nil, now, false, "unhealthy", http.StatusServiceUnavailable},
		{"older than 48h", sampleMapping(), now.Add(-49 * time.Hour), false, "unhealthy", http.StatusServiceUnavailable},
		{"older than 24h", sampleMapping(), now.Add(-25 * time.Hour), false, "degraded", http.StatusServiceUnavailable},
		{"updating with old data", sampleMapping(), now.Add(-7 * time.Hour), true, "degraded", http.StatusServiceUnavailable},
		{"updating with recent data", sampleMapping(), now.Add(-time.Hour), true, "healthy", http.StatusOK},
		{"12h old not updating", sampleMapping(), now.Add(-12 * time.Hour), false, "healthy", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewHealthChecker(&MockHealthDataStore{
				mapping:     tt.mapping,
				lastUpdated: tt.lastUpdated,
				isUpdating:  tt.isUpdating,
			}, []string{"06:00", "18:00"})

			status, _, httpStatus := checker.HealthCheck()
			if status != tt.expectedStatus {
				t.Errorf("Expected status %s, got %s", tt.expectedStatus, status)
			}
			if httpStatus != tt.expectedHTTP {
				t.Errorf("Expected HTTP %d, got %d", tt.expectedHTTP, httpStatus)
			}
		})
	}
}

func TestHealthCheck_Data(t *testing.T) {
	lastUpdated := time.Now().Add(-90 * time.Minute)
	checker := NewHealthChecker(&MockHealthDataStore{
		mapping:     sampleMapping(),
		lastUpdated: lastUpdated,
	}, []string{"06:00", "18:00"})

	_, data, _ := checker.HealthCheck()

	if data["codes"] != 2 {
		t.Errorf("Expected 2 codes, got %v", data["codes"])
	}
	if data["is_updating"] != false {
		t.Errorf("Expected is_updating false, got %v", data["is_updating"])
	}
	if data["last_update"] != lastUpdated.Format(time.RFC3339) {
		t.Errorf("Expected last_update %s, got %v", lastUpdated.Format(time.RFC3339), data["last_update"])
	}
	if age, ok := data["data_age_hours"].(float64); !ok || age != 1.5 {
		t.Errorf("Expected data_age_hours 1.5, got %v", data["data_age_hours"])
	}
	if _, ok := data["next_update"]; !ok {
		t.Error("Expected next_update in health data")
	}
}

func TestHealthCheck_NoReloadTimes(t *testing.T) {
	checker := NewHealthChecker(&MockHealthDataStore{mapping: sampleMapping(), lastUpdated: time.Now()}, nil)

	_, data, _ := checker.HealthCheck()
	if _, ok := data["next_update"]; ok {
		t.Error("Expected no next_update without reload times")
	}
	if !checker.CalculateNextUpdate().IsZero() {
		t.Error("Expected zero next update without reload times")
	}
}

func TestCalculateNextUpdate(t *testing.T) {
	checker := NewHealthChecker(&MockHealthDataStore{}, []string{"06:00", "18:00"})

	now := time.Now()
	next := checker.CalculateNextUpdate()

	if !next.After(now) {
		t.Errorf("Expected next update after now, got %v", next)
	}
	if next.Sub(now) > 24*time.Hour {
		t.Errorf("Expected next update within 24h, got %v", next.Sub(now))
	}
	if next.Minute() != 0 || (next.Hour() != 6 && next.Hour() != 18) {
		t.Errorf("Expected 06:00 or 18:00, got %s", next.Format("15:04"))
	}
}
