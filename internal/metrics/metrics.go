package metrics

import (
	"sort"
	"sync"
	"time"
)

const dateLayout = "2006-01-02"

// Activation is one press/release cycle of a shortcut.
type Activation struct {
	Timestamp time.Time     `json:"timestamp"`
	Shortcut  string        `json:"shortcut"`
	Held      time.Duration `json:"held"`
}

type DailyMetrics struct {
	Date            string        `json:"date"`
	Activations     []Activation  `json:"activations"`
	TotalHeld       time.Duration `json:"total_held"`
	ActivationCount int           `json:"activation_count"`
}

type ShortcutCount struct {
	Shortcut string
	Count    int
}

type TotalMetrics struct {
	TotalActivations int            `json:"total_activations"`
	TotalHeld        time.Duration  `json:"total_held"`
	AvgHeld          time.Duration  `json:"avg_held"`
	ActiveDays       int            `json:"active_days"`
	PerShortcut      map[string]int `json:"per_shortcut"`
}

// Top returns the most used shortcuts, most used first.
func (t *TotalMetrics) Top(n int) []ShortcutCount {
	out := make([]ShortcutCount, 0, len(t.PerShortcut))
	for s, c := range t.PerShortcut {
		out = append(out, ShortcutCount{Shortcut: s, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Shortcut < out[j].Shortcut
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// MetricsManager records activations. Callbacks run concurrently, so
// recording is serialized.
type MetricsManager struct {
	storage *Storage
	now     func() time.Time
	mu      sync.Mutex
}

func NewMetricsManager(storagePath string) (*MetricsManager, error) {
	storage, err := NewStorage(storagePath)
	if err != nil {
		return nil, err
	}
	return &MetricsManager{storage: storage, now: time.Now}, nil
}

// RecordActivation stores an activation that was held for held and ended
// now.
func (mm *MetricsManager) RecordActivation(shortcut string, held time.Duration) (*Activation, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	a := &Activation{
		Timestamp: mm.now(),
		Shortcut:  shortcut,
		Held:      max(held, 0),
	}
	if err := mm.storage.SaveActivation(a); err != nil {
		return a, err
	}
	return a, nil
}

func (mm *MetricsManager) GetTodayMetrics() (*DailyMetrics, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return mm.storage.GetDailyMetrics(mm.now().Format(dateLayout))
}

func (mm *MetricsManager) GetTotalMetrics() (*TotalMetrics, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return mm.storage.GetTotalMetrics()
}

func (mm *MetricsManager) GetRecentDays(days int) ([]*DailyMetrics, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return mm.storage.GetRecentDays(mm.now(), days)
}

func (mm *MetricsManager) ClearAllMetrics() error {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return mm.storage.ClearAllMetrics()
}
