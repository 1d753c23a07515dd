package metrics

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, now time.Time) (*MetricsManager, *time.Time) {
	t.Helper()
	mm, err := NewMetricsManager(filepath.Join(t.TempDir(), "metrics"))
	require.NoError(t, err)
	clock := now
	mm.now = func() time.Time { return clock }
	return mm, &clock
}

func TestRecordActivationAccumulatesPerDay(t *testing.T) {
	mm, clock := newTestManager(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))

	_, err := mm.RecordActivation("ctrl+alt+d", 1500*time.Millisecond)
	require.NoError(t, err)
	a, err := mm.RecordActivation("f9", 200*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "f9", a.Shortcut)

	today, err := mm.GetTodayMetrics()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", today.Date)
	assert.Equal(t, 2, today.ActivationCount)
	assert.Equal(t, 1700*time.Millisecond, today.TotalHeld)

	*clock = clock.AddDate(0, 0, 1)
	_, err = mm.RecordActivation("f9", -time.Second)
	require.NoError(t, err)

	today, err = mm.GetTodayMetrics()
	require.NoError(t, err)
	assert.Equal(t, 1, today.ActivationCount)
	assert.Zero(t, today.TotalHeld, "negative durations are clamped")

	total, err := mm.GetTotalMetrics()
	require.NoError(t, err)
	assert.Equal(t, 3, total.TotalActivations)
	assert.Equal(t, 2, total.ActiveDays)
	assert.Equal(t, 1700*time.Millisecond/3, total.AvgHeld)
	assert.Equal(t, []ShortcutCount{{"f9", 2}, {"ctrl+alt+d", 1}}, total.Top(0))
	assert.Len(t, total.Top(1), 1)
}

func TestGetRecentDaysOldestFirst(t *testing.T) {
	mm, clock := newTestManager(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))
	_, err := mm.RecordActivation("f9", time.Second)
	require.NoError(t, err)

	*clock = clock.AddDate(0, 0, 2)
	days, err := mm.GetRecentDays(3)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2024-03-01", days[0].Date)
	assert.Equal(t, 1, days[0].ActivationCount)
	assert.Equal(t, "2024-03-03", days[2].Date)
	assert.Zero(t, days[2].ActivationCount)
}

func TestCorruptDayIsSkippedInTotals(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "metrics")
	mm, err := NewMetricsManager(dir)
	require.NoError(t, err)
	mm.now = func() time.Time { return time.Date(2024, 3, 2, 9, 0, 0, 0, time.Local) }

	require.NoError(t, os.WriteFile(filepath.Join(dir, dailyMetricsDir, "2024-03-01.json"), []byte("{"), 0o644))
	_, err = mm.RecordActivation("f9", time.Second)
	require.NoError(t, err)

	total, err := mm.GetTotalMetrics()
	require.NoError(t, err)
	assert.Equal(t, 1, total.TotalActivations)
}

func TestClearAllMetrics(t *testing.T) {
	mm, _ := newTestManager(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))
	_, err := mm.RecordActivation("f9", time.Second)
	require.NoError(t, err)

	require.NoError(t, mm.ClearAllMetrics())
	total, err := mm.GetTotalMetrics()
	require.NoError(t, err)
	assert.Zero(t, total.TotalActivations)
	assert.Zero(t, total.AvgHeld)
}

func TestConcurrentRecordingKeepsEveryActivation(t *testing.T) {
	mm, _ := newTestManager(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mm.RecordActivation("f9", 10*time.Millisecond)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	today, err := mm.GetTodayMetrics()
	require.NoError(t, err)
	assert.Equal(t, 20, today.ActivationCount)
}

func TestFormatDurationShort(t *testing.T) {
	tf := NewTimeFormatter()
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{850 * time.Millisecond, "850ms"},
		{4200 * time.Millisecond, "4.2s"},
		{45 * time.Second, "45s"},
		{3*time.Minute + 5*time.Second, "3m 5s"},
		{2*time.Hour + 10*time.Minute, "2h 10m"},
		{time.Hour, "1h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tf.FormatDurationShort(tt.in), tt.in.String())
	}
	assert.Equal(t, "1 hours 30 minutes", tf.FormatDuration(90*time.Minute))
	assert.Equal(t, "120ms", tf.FormatDuration(120*time.Millisecond))
}

func TestStatsFormatter(t *testing.T) {
	sf := NewStatsFormatter()

	lines := sf.FormatActivationLines(
		&Activation{Shortcut: "ctrl+alt+d", Held: 1200 * time.Millisecond},
		&DailyMetrics{ActivationCount: 3, TotalHeld: 5 * time.Second},
	)
	assert.Equal(t, []string{
		"✅ LEFTCTRL+LEFTALT+D held for 1.2s",
		"📈 Today: 3 activations, 5.0s held",
	}, lines)

	assert.Contains(t, sf.FormatTotalStats(&TotalMetrics{}), "No usage statistics yet")
	total := sf.FormatTotalStats(&TotalMetrics{
		TotalActivations: 4,
		ActiveDays:       2,
		TotalHeld:        2 * time.Minute,
		AvgHeld:          30 * time.Second,
		PerShortcut:      map[string]int{"f9": 3, "not a key": 1},
	})
	assert.Contains(t, total, "Activations: 4")
	assert.Contains(t, total, "F9")
	assert.Contains(t, total, "not a key")

	assert.Equal(t, "📅 No activity this week yet.", sf.FormatWeeklyStats([]*DailyMetrics{{}, {}}))
	assert.Contains(t, sf.FormatWeeklyStats([]*DailyMetrics{{}, {ActivationCount: 2, TotalHeld: time.Second}}), "Active days: 1/2")
}
