package metrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

type Storage struct {
	baseDir string
}

const dailyMetricsDir = "daily"

func NewStorage(baseDir string) (*Storage, error) {
	dailyDir := filepath.Join(baseDir, dailyMetricsDir)
	if err := os.MkdirAll(dailyDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create metrics directory: %w", err)
	}
	return &Storage{baseDir: baseDir}, nil
}

func (s *Storage) dailyPath(date string) string {
	return filepath.Join(s.baseDir, dailyMetricsDir, date+".json")
}

func (s *Storage) SaveActivation(a *Activation) error {
	date := a.Timestamp.Format(dateLayout)

	daily, err := s.GetDailyMetrics(date)
	if err != nil {
		// A corrupt day file is replaced rather than blocking recording.
		daily = &DailyMetrics{Date: date}
	}

	daily.Activations = append(daily.Activations, *a)
	daily.TotalHeld += a.Held
	daily.ActivationCount = len(daily.Activations)

	return s.saveDailyMetrics(daily)
}

// GetDailyMetrics returns an empty day when nothing was recorded on date.
func (s *Storage) GetDailyMetrics(date string) (*DailyMetrics, error) {
	data, err := os.ReadFile(s.dailyPath(date))
	if errors.Is(err, os.ErrNotExist) {
		return &DailyMetrics{Date: date, Activations: []Activation{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var daily DailyMetrics
	if err := json.Unmarshal(data, &daily); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", date, err)
	}
	return &daily, nil
}

func (s *Storage) saveDailyMetrics(daily *DailyMetrics) error {
	data, err := json.MarshalIndent(daily, "", "  ")
	if err != nil {
		return err
	}

	// Day files are replaced atomically.
	path := s.dailyPath(daily.Date)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Storage) GetTotalMetrics() (*TotalMetrics, error) {
	total := &TotalMetrics{PerShortcut: make(map[string]int)}

	days, err := s.GetAllDailyMetrics()
	if err != nil {
		return total, err
	}

	for _, day := range days {
		if day.ActivationCount > 0 {
			total.ActiveDays++
		}
		total.TotalActivations += day.ActivationCount
		total.TotalHeld += day.TotalHeld
		for _, a := range day.Activations {
			total.PerShortcut[a.Shortcut]++
		}
	}

	if total.TotalActivations > 0 {
		total.AvgHeld = total.TotalHeld / time.Duration(total.TotalActivations)
	}
	return total, nil
}

// GetRecentDays returns the last days days ending with today, oldest first.
func (s *Storage) GetRecentDays(today time.Time, days int) ([]*DailyMetrics, error) {
	var recent []*DailyMetrics

	for i := days - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(dateLayout)
		daily, err := s.GetDailyMetrics(date)
		if err != nil {
			continue
		}
		recent = append(recent, daily)
	}
	return recent, nil
}

func (s *Storage) ClearAllMetrics() error {
	for _, name := range s.dayFiles() {
		if err := os.Remove(filepath.Join(s.baseDir, dailyMetricsDir, name)); err != nil {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}

// GetAllDailyMetrics returns every readable day in chronological order.
// Unreadable files are skipped.
func (s *Storage) GetAllDailyMetrics() ([]*DailyMetrics, error) {
	var all []*DailyMetrics
	for _, name := range s.dayFiles() {
		daily, err := s.GetDailyMetrics(name[:len(name)-len(".json")])
		if err != nil {
			continue
		}
		all = append(all, daily)
	}
	return all, nil
}

func (s *Storage) dayFiles() []string {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, dailyMetricsDir))
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}
