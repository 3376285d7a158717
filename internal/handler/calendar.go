package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tomvanoss/chorewheel/internal/model"
	"github.com/tomvanoss/chorewheel/internal/store"
)

// CalendarHandler renders a month grid: for every day, which tasks have
// an occurrence and whether it was completed.
type CalendarHandler struct {
	store  *store.TaskStore
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
}

func NewCalendarHandler(ts *store.TaskStore, loc *time.Location, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{store: ts, loc: loc, logger: logger, now: time.Now}
}

type calendarEntry struct {
	TaskID    int64  `json:"task_id"`
	Name      string `json:"name"`
	Time      string `json:"time"`
	Completed bool   `json:"completed"`
}

type calendarDay struct {
	Date    string          `json:"date"`
	Entries []calendarEntry `json:"entries"`
}

type calendarResponse struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Days  []calendarDay `json:"days"`
}

// Month serves the grid for ?year=YYYY&month=M, defaulting to the
// current month.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	now := h.now().In(h.loc)

	year := now.Year()
	month := int(now.Month())
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = n
	}
	if v := r.URL.Query().Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = n
	}

	tasks, err := h.store.List(true)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build calendar")
		return
	}

	completionsByTask := make(map[int64][]model.Completion, len(tasks))
	for _, t := range tasks {
		completions, err := h.store.ListCompletions(t.ID)
		if err != nil {
			h.logger.Error("list completions", "task_id", t.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to build calendar")
			return
		}
		completionsByTask[t.ID] = completions
	}

	resp := calendarResponse{Year: year, Month: month}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, h.loc)
	for date := first; date.Month() == time.Month(month); date = date.AddDate(0, 0, 1) {
		day := calendarDay{Date: date.Format("2006-01-02"), Entries: []calendarEntry{}}
		for _, t := range tasks {
			if !activeOn(t, date) || !t.Schedule.DueOn(date, now) {
				continue
			}
			tod := t.Schedule.DueTime(h.loc)
			day.Entries = append(day.Entries, calendarEntry{
				TaskID:    t.ID,
				Name:      t.Name,
				Time:      tod.String(),
				Completed: completedOn(completionsByTask[t.ID], date),
			})
		}
		resp.Days = append(resp.Days, day)
	}

	writeJSON(w, http.StatusOK, resp)
}

// activeOn reports whether the task's validity window covers the given
// calendar day.
func activeOn(t model.Task, date time.Time) bool {
	dayEnd := date.AddDate(0, 0, 1)
	if t.CreatedAt != nil && !t.CreatedAt.Before(dayEnd) {
		return false
	}
	if t.DeletedAt != nil && t.DeletedAt.Before(date) {
		return false
	}
	return true
}

// completedOn reports whether any completion falls on the given calendar
// day in the grid's zone.
func completedOn(completions []model.Completion, date time.Time) bool {
	dayEnd := date.AddDate(0, 0, 1)
	for _, c := range completions {
		at := c.CompletedAt.In(date.Location())
		if !at.Before(date) && at.Before(dayEnd) {
			return true
		}
	}
	return false
}
