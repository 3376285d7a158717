package task

import (
	"time"

	"github.com/tomvanoss/chorewheel/internal/model"
	"github.com/tomvanoss/chorewheel/internal/schedule"
)

type Status string

const (
	StatusDue       Status = "due"
	StatusAlerting  Status = "alerting"
	StatusCompleted Status = "completed"
	StatusInactive  Status = "inactive"
	StatusRecent    Status = "recent"
	StatusEvent     Status = "event"
)

// recentWindow is how long a non-completeable task lingers as "recently
// occurred" after its due instant passes.
const recentWindow = 24 * time.Hour

// IsInactive reports whether now falls outside the task's validity
// window. Inactive tasks are excluded from due/alerting classification.
func IsInactive(t model.Task, now time.Time) bool {
	if t.CreatedAt != nil && now.Before(*t.CreatedAt) {
		return true
	}
	if t.DeletedAt != nil && now.After(*t.DeletedAt) {
		return true
	}
	return false
}

// LastCompletion returns the latest completion timestamp, or nil when
// there are none. The input order is not trusted.
func LastCompletion(completions []model.Completion) *time.Time {
	var last *time.Time
	for i := range completions {
		at := completions[i].CompletedAt
		if last == nil || at.After(*last) {
			last = &at
		}
	}
	return last
}

// IsCompleted reports whether the latest completion is strictly after the
// most recent due instant. Adding an older completion never flips this.
func IsCompleted(t model.Task, completions []model.Completion, now time.Time, loc *time.Location) bool {
	last := LastCompletion(completions)
	if last == nil {
		return false
	}
	return last.After(t.Schedule.MostRecentDue(now, loc))
}

// IsOnceCompleted reports whether the task is a one-time occurrence whose
// instant has passed; such a task has no future occurrence regardless of
// completion tracking.
func IsOnceCompleted(t model.Task, now time.Time) bool {
	return t.Schedule.Kind == schedule.OnceKind && !t.Schedule.Once.At.After(now)
}

// IsDue reports whether the task's most recent occurrence is still
// awaiting completion.
func IsDue(t model.Task, completions []model.Completion, now time.Time, loc *time.Location) bool {
	if IsInactive(t, now) || !t.Completeable {
		return false
	}
	return !IsCompleted(t, completions, now, loc)
}

// IsAlerting reports whether the next occurrence falls within the task's
// alerting window, i.e. now < next <= now + alerting_time. A task whose
// forward search exhausted its horizon never alerts.
func IsAlerting(t model.Task, now time.Time, loc *time.Location) bool {
	if IsInactive(t, now) {
		return false
	}
	if !t.Schedule.NextKnown(now, loc) {
		return false
	}
	next := t.Schedule.NextDue(now, loc)
	return next.After(now) && !next.After(now.Add(t.AlertingTime))
}

// ComputeStatus classifies a task into a single display bucket.
//
// Inactive wins over everything. Non-completeable tasks (events,
// reminders) never enter completion bookkeeping: they are alerting
// inside the alert window, "recent" for a day after the due instant, and
// a background event otherwise. For completeable tasks, completed wins
// over alerting, alerting over due.
func ComputeStatus(t model.Task, completions []model.Completion, now time.Time, loc *time.Location) Status {
	if IsInactive(t, now) {
		return StatusInactive
	}

	if !t.Completeable {
		if IsAlerting(t, now, loc) {
			return StatusAlerting
		}
		recent := t.Schedule.MostRecentDue(now, loc)
		if !recent.After(now) && now.Sub(recent) <= recentWindow {
			return StatusRecent
		}
		return StatusEvent
	}

	if IsCompleted(t, completions, now, loc) || (IsOnceCompleted(t, now) && len(completions) > 0) {
		return StatusCompleted
	}
	if IsOnceCompleted(t, now) {
		// One-time instant has passed with no completion recorded.
		return StatusDue
	}
	if IsAlerting(t, now, loc) {
		return StatusAlerting
	}
	return StatusDue
}
