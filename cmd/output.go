package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/kozaktomas/classroom-monitor/internal/attention"
)

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// printWarnings lists the warnings of a run with their frame positions.
func printWarnings(warnings []FrameWarning) {
	if len(warnings) == 0 {
		fmt.Println("No warnings.")
		return
	}
	fmt.Println("Warnings:")
	for _, w := range warnings {
		line := fmt.Sprintf("  frame %5d  %8s  %-10s  %s", w.Frame, formatDuration(w.Offset()), w.Warning.Type, w.Warning.Message)
		if w.Warning.Type == attention.WarningSleepiness {
			line += fmt.Sprintf(" (eyes closed %.1fs)", w.Warning.ClosureDuration)
		}
		fmt.Println(line)
	}
}

// printSummary prints the end-of-session summary in human-readable form.
func printSummary(s attention.Summary) {
	fmt.Println("\nSession summary:")
	fmt.Printf("  Session:         %s\n", s.SessionID)
	fmt.Printf("  Duration:        %s\n", formatDuration(time.Duration(s.SessionDuration*float64(time.Second))))
	fmt.Printf("  Frames w/ face:  %d\n", s.FaceFrameCount)
	fmt.Printf("  Focused frames:  %d\n", s.FocusedFrameCount)
	fmt.Printf("  Total warnings:  %d\n", s.TotalWarnings)

	types := make([]string, 0, len(s.WarningCounts))
	for kind := range s.WarningCounts {
		types = append(types, string(kind))
	}
	sort.Strings(types)
	for _, kind := range types {
		fmt.Printf("    %-12s %d\n", kind+":", s.WarningCounts[attention.WarningType(kind)])
	}
}
