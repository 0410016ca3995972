package schedule

import (
	"time"

	"github.com/rezkam/stackit/internal/domain"
	"github.com/rezkam/stackit/internal/scheduler"
)

// View is an immutable snapshot of the selected day, published after every
// state change. Version increases with every snapshot.
type View struct {
	Version      uint64
	SelectedDate time.Time
	Mode         domain.ScheduleMode
	IsLoading    bool

	// Items is the day as returned by the repository.
	Items []domain.ScheduleItem
	// OrderedItems is completed items first, in their original order,
	// followed by the incomplete items ordered by Mode.
	OrderedItems []domain.ScheduleItem

	Progress    domain.DailyProgress
	CurrentTask *domain.TaskSummary
}

func buildView(version uint64, date time.Time, mode domain.ScheduleMode, loading bool, items []domain.ScheduleItem) View {
	var completed, incomplete []domain.ScheduleItem
	for _, item := range items {
		if item.IsCompleted {
			completed = append(completed, item)
		} else {
			incomplete = append(incomplete, item)
		}
	}

	ordered := make([]domain.ScheduleItem, 0, len(items))
	ordered = append(ordered, completed...)
	ordered = append(ordered, scheduler.Apply(mode, incomplete)...)

	v := View{
		Version:      version,
		SelectedDate: date,
		Mode:         mode,
		IsLoading:    loading,
		Items:        items,
		OrderedItems: ordered,
		Progress:     domain.ProgressOf(items),
	}
	if current, ok := scheduler.CurrentTask(ordered); ok {
		summary := domain.SummaryOf(current)
		v.CurrentTask = &summary
	}
	return v
}
