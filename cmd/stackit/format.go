package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rezkam/stackit/internal/application/schedule"
	"github.com/rezkam/stackit/internal/domain"
)

func printView(w io.Writer, v schedule.View, loc *time.Location) {
	fmt.Fprintf(w, "%s | %s | %d/%d done (%.0f%%)\n",
		v.SelectedDate.In(loc).Format("Mon 2006-01-02"),
		v.Mode.DisplayName(),
		v.Progress.CompletedCount, v.Progress.TotalCount,
		v.Progress.CompletionRate()*100)

	if v.CurrentTask != nil {
		fmt.Fprintf(w, "Now: %s\n", v.CurrentTask.Title)
	}
	if len(v.OrderedItems) == 0 {
		fmt.Fprintln(w, "Nothing scheduled.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, item := range v.OrderedItems {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			checkbox(item), timeRange(item, loc), item.Priority, kindLabel(item), item.Title, item.ID)
	}
	tw.Flush()
}

func printModes(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, m := range domain.ScheduleModes {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m, m.DisplayName(), m.Subtitle())
	}
	tw.Flush()
}

func checkbox(item domain.ScheduleItem) string {
	if item.IsCompleted {
		return "[x]"
	}
	return "[ ]"
}

func timeRange(item domain.ScheduleItem, loc *time.Location) string {
	if item.ScheduledStart == nil {
		if minutes, ok := item.EffectiveDurationMinutes(); ok {
			return fmt.Sprintf("~%dm", minutes)
		}
		return "-"
	}

	start := item.ScheduledStart.In(loc).Format("15:04")
	if minutes, ok := item.EffectiveDurationMinutes(); ok && minutes > 0 {
		end := item.ScheduledStart.Add(time.Duration(minutes) * time.Minute)
		return start + "-" + end.In(loc).Format("15:04")
	}
	return start
}

func kindLabel(item domain.ScheduleItem) string {
	label := string(item.ItemType)
	if item.RecurrenceRule.IsRecurring() {
		label += "/" + item.RecurrenceRule.String()
	}
	return label
}
