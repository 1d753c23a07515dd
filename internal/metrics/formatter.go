package metrics

import (
	"fmt"
	"time"

	"github.com/bezmoradi/keygrab/internal/keys"
)

type TimeFormatter struct{}

func NewTimeFormatter() *TimeFormatter {
	return &TimeFormatter{}
}

func (tf *TimeFormatter) FormatDuration(duration time.Duration) string {
	if duration < time.Second {
		return tf.FormatDurationShort(duration)
	}

	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	seconds := int(duration.Seconds()) % 60

	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%d hours %d minutes", hours, minutes)
		}
		return fmt.Sprintf("%d hours", hours)
	}
	if minutes > 0 {
		if seconds > 0 {
			return fmt.Sprintf("%d minutes %d seconds", minutes, seconds)
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	return fmt.Sprintf("%d seconds", seconds)
}

// FormatDurationShort renders "850ms", "4.2s", "3m 5s" or "2h 10m".
func (tf *TimeFormatter) FormatDurationShort(duration time.Duration) string {
	switch {
	case duration <= 0:
		return "0s"
	case duration < time.Second:
		return fmt.Sprintf("%dms", duration.Milliseconds())
	case duration < 10*time.Second:
		return fmt.Sprintf("%.1fs", duration.Seconds())
	}

	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	seconds := int(duration.Seconds()) % 60

	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
	if minutes > 0 {
		if seconds > 0 {
			return fmt.Sprintf("%dm %ds", minutes, seconds)
		}
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%ds", seconds)
}

type StatsFormatter struct {
	timeFormatter *TimeFormatter
}

func NewStatsFormatter() *StatsFormatter {
	return &StatsFormatter{timeFormatter: NewTimeFormatter()}
}

// shortcutLabel shows a combination the way the key tables name it, falling
// back to what the user typed.
func shortcutLabel(combination string) string {
	set, err := keys.ParseCombination(combination)
	if err != nil {
		return combination
	}
	return keys.FormatSet(set)
}

func (sf *StatsFormatter) FormatActivationLines(a *Activation, today *DailyMetrics) []string {
	lines := []string{
		fmt.Sprintf("✅ %s held for %s", shortcutLabel(a.Shortcut), sf.timeFormatter.FormatDurationShort(a.Held)),
	}
	if today != nil && today.ActivationCount > 0 {
		lines = append(lines, fmt.Sprintf("📈 Today: %d activations, %s held",
			today.ActivationCount, sf.timeFormatter.FormatDurationShort(today.TotalHeld)))
	}
	return lines
}

func (sf *StatsFormatter) FormatTotalStats(total *TotalMetrics) string {
	if total.TotalActivations == 0 {
		return "📊 No usage statistics yet. Press a configured shortcut to start tracking!"
	}

	stats := "📊 Total Statistics:\n"
	stats += fmt.Sprintf("   Activations: %d\n", total.TotalActivations)
	stats += fmt.Sprintf("   Active days: %d\n", total.ActiveDays)
	stats += fmt.Sprintf("   Time held: %s\n", sf.timeFormatter.FormatDuration(total.TotalHeld))
	stats += fmt.Sprintf("   Avg held/activation: %s", sf.timeFormatter.FormatDurationShort(total.AvgHeld))

	top := total.Top(5)
	if len(top) > 0 {
		stats += "\n   Most used:"
		for _, sc := range top {
			stats += fmt.Sprintf("\n     %-24s %d", shortcutLabel(sc.Shortcut), sc.Count)
		}
	}
	return stats
}

func (sf *StatsFormatter) FormatWeeklyStats(days []*DailyMetrics) string {
	if len(days) == 0 {
		return "📅 No weekly data available yet."
	}

	activeDays := 0
	activations := 0
	held := time.Duration(0)
	for _, day := range days {
		if day.ActivationCount > 0 {
			activeDays++
			activations += day.ActivationCount
			held += day.TotalHeld
		}
	}
	if activeDays == 0 {
		return "📅 No activity this week yet."
	}

	stats := "📅 This Week:\n"
	stats += fmt.Sprintf("   Active days: %d/%d\n", activeDays, len(days))
	stats += fmt.Sprintf("   Activations: %d\n", activations)
	stats += fmt.Sprintf("   Time held: %s", sf.timeFormatter.FormatDuration(held))
	return stats
}
