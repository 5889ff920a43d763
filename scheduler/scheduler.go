// Package scheduler reloads the CIE10 mapping at fixed times of day and
// warns when the served data goes stale.
package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/giygas/cie10-api/interfaces"
	"github.com/giygas/cie10-api/logging"
	"github.com/giygas/cie10-api/metrics"
	"github.com/go-co-op/gocron"
)

// ErrUpdateInProgress is returned by Reload while another reload runs
var ErrUpdateInProgress = errors.New("mapping update already in progress")

const (
	staleAfter      = 25 * time.Hour
	monitorInterval = time.Hour
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler reloads the mapping through the injected loader
type Scheduler struct {
	dataStore   interfaces.DataStore
	loader      interfaces.Loader
	validator   interfaces.DataValidator
	reloadTimes []string
	scheduler   *gocron.Scheduler

	stop     chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a scheduler reloading at reloadTimes (HH:MM, local time)
func NewScheduler(dataStore interfaces.DataStore, loader interfaces.Loader, validator interfaces.DataValidator, reloadTimes []string) *Scheduler {
	return &Scheduler{
		dataStore:   dataStore,
		loader:      loader,
		validator:   validator,
		reloadTimes: reloadTimes,
		scheduler:   gocron.NewScheduler(time.Local),
		stop:        make(chan struct{}),
	}
}

// Start performs the initial load, then schedules reloads and the staleness
// monitor. The service cannot start without a mapping, so a failed initial
// load is returned.
func (s *Scheduler) Start() error {
	if err := s.updateData(); err != nil {
		logging.Error("Failed to perform initial data load", "error", err)
		return fmt.Errorf("initial data load failed: %w", err)
	}

	if len(s.reloadTimes) == 0 {
		return fmt.Errorf("failed to schedule updates: no reload times configured")
	}

	_, err := s.scheduler.Every(1).Days().At(strings.Join(s.reloadTimes, ";")).Do(func() {
		if err := s.updateData(); err != nil && !errors.Is(err, ErrUpdateInProgress) {
			logging.Error("Failed to update data, keeping previous mapping", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule updates", "error", err)
		return fmt.Errorf("failed to schedule updates: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Mapping reloads scheduled",
		"times", s.reloadTimes,
		"next", CalculateNextUpdate(s.reloadTimes, time.Now()).Format(time.RFC3339),
	)

	s.startHealthMonitoring(monitorInterval)

	return nil
}

// Stop stops the scheduled reloads and the staleness monitor
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Reload reloads the mapping now. The previous mapping stays in place when
// the reload fails.
func (s *Scheduler) Reload() error {
	return s.updateData()
}

// updateData loads the file, reports its quality and swaps the mapping in
func (s *Scheduler) updateData() error {
	// Prevent concurrent updates
	if !s.dataStore.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return ErrUpdateInProgress
	}
	defer s.dataStore.EndUpdate()

	logging.Info("Starting mapping update", "at", time.Now().Format(time.RFC3339))
	start := time.Now()

	result, err := s.loader.LoadMapping()
	if err != nil {
		metrics.ObserveReload(false, time.Since(start), 0)
		return fmt.Errorf("failed to load mapping: %w", err)
	}

	report := s.validator.ReportDataQuality(result)
	s.dataStore.UpdateData(result.Mapping, report)

	elapsed := time.Since(start)
	metrics.ObserveReload(true, elapsed, len(result.Mapping))
	logging.Info("Mapping update completed",
		"duration", elapsed.String(),
		"code_count", len(result.Mapping),
		"encoding", result.Encoding,
		"dropped_none", len(result.DroppedNone),
	)

	return nil
}

// startHealthMonitoring checks the data age every interval until Stop
func (s *Scheduler) startHealthMonitoring(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case now := <-ticker.C:
				s.checkStaleness(now)
			}
		}
	}()
}

// checkStaleness logs a warning and reports true when the data is older
// than staleAfter
func (s *Scheduler) checkStaleness(now time.Time) bool {
	lastUpdate := s.dataStore.GetLastUpdated()
	if now.Sub(lastUpdate) <= staleAfter {
		return false
	}

	logging.Warn("Data hasn't been updated in over 25 hours", "last_update", lastUpdate.Format(time.RFC3339))
	return true
}

// CalculateNextUpdate returns the first reload time strictly after now.
// Unparsable times are ignored; with none valid the zero time is returned.
func CalculateNextUpdate(reloadTimes []string, now time.Time) time.Time {
	var next time.Time

	for _, value := range reloadTimes {
		clock, err := time.Parse("15:04", strings.TrimSpace(value))
		if err != nil {
			continue
		}

		candidate := time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}

		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}

	return next
}
