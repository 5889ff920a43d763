// Package data provides thread-safe storage for the CIE10 mapping.
// The DataContainer swaps the whole mapping atomically on reload so readers
// never observe a partially built table.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/cie10-api/cie10"
	"github.com/giygas/cie10-api/interfaces"
	"github.com/giygas/cie10-api/logging"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// DataContainer holds the mapping with atomic values for zero-downtime updates
type DataContainer struct {
	mapping         atomic.Value // cie10.Mapping
	entries         atomic.Value // []cie10.Entry, sorted by code
	report          atomic.Value // *interfaces.DataQualityReport
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with empty data
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.mapping.Store(make(cie10.Mapping))
	dc.entries.Store(make([]cie10.Entry, 0))
	dc.report.Store(&interfaces.DataQualityReport{})
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// GetMapping returns the current mapping. Callers must not modify it.
func (dc *DataContainer) GetMapping() cie10.Mapping {
	if v := dc.mapping.Load(); v != nil {
		if mapping, ok := v.(cie10.Mapping); ok {
			return mapping
		}
	}

	logging.Warn("Mapping is empty or invalid")
	return make(cie10.Mapping)
}

// GetEntries returns the mapping entries sorted by code
func (dc *DataContainer) GetEntries() []cie10.Entry {
	if v := dc.entries.Load(); v != nil {
		if entries, ok := v.([]cie10.Entry); ok {
			return entries
		}
	}

	logging.Warn("Entries list is empty or invalid")
	return []cie10.Entry{}
}

// GetDataQualityReport returns the report of the last successful load
func (dc *DataContainer) GetDataQualityReport() *interfaces.DataQualityReport {
	if v := dc.report.Load(); v != nil {
		if report, ok := v.(*interfaces.DataQualityReport); ok && report != nil {
			return report
		}
	}

	logging.Warn("Data quality report is empty or invalid")
	return &interfaces.DataQualityReport{}
}

// GetLastUpdated returns the timestamp of the last data update
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a data update is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically replaces the mapping and its report
func (dc *DataContainer) UpdateData(mapping cie10.Mapping, report *interfaces.DataQualityReport) {
	if mapping == nil {
		mapping = make(cie10.Mapping)
	}
	if report == nil {
		report = &interfaces.DataQualityReport{}
	}

	// Sorted once here so list requests don't sort per call
	entries := mapping.Entries()

	dc.mapping.Store(mapping)
	dc.entries.Store(entries)
	dc.report.Store(report)
	dc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a data update operation
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a data update operation
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
