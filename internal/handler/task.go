package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tomvanoss/chorewheel/internal/model"
	"github.com/tomvanoss/chorewheel/internal/schedule"
	"github.com/tomvanoss/chorewheel/internal/store"
	"github.com/tomvanoss/chorewheel/internal/task"
	"github.com/tomvanoss/chorewheel/internal/websocket"
)

type TaskHandler struct {
	store  *store.TaskStore
	hub    *websocket.Hub
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
}

func NewTaskHandler(ts *store.TaskStore, hub *websocket.Hub, loc *time.Location, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{store: ts, hub: hub, loc: loc, logger: logger, now: time.Now}
}

func (h *TaskHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// --- Request payloads ---

type weekdaySetRequest struct {
	Days [7]bool `json:"days"`
	Time string  `json:"time"`
}

// scheduleRequest carries all variants so an editor can submit the full
// form state; only the active kind is validated strictly. Day and month
// sets arrive in the "1, 4-7" notation.
type scheduleRequest struct {
	Kind  string `json:"kind"`
	NDays struct {
		Days int    `json:"days"`
		Time string `json:"time"`
	} `json:"n_days"`
	NWeeks struct {
		Weeks      int               `json:"weeks"`
		DaysOfWeek weekdaySetRequest `json:"days_of_week"`
	} `json:"n_weeks"`
	Monthwise struct {
		Days string `json:"days"`
		Time string `json:"time"`
	} `json:"monthwise"`
	WeeksOfMonth struct {
		Weeks      string            `json:"weeks"`
		DaysOfWeek weekdaySetRequest `json:"days_of_week"`
	} `json:"weeks_of_month"`
	CertainMonths struct {
		Months string `json:"months"`
		Days   string `json:"days"`
		Time   string `json:"time"`
	} `json:"certain_months"`
	Once struct {
		At string `json:"at"`
	} `json:"once"`
}

type taskRequest struct {
	Name            string          `json:"name"`
	Details         string          `json:"details"`
	AlertingSeconds *int64          `json:"alerting_seconds"`
	Completeable    *bool           `json:"completeable"`
	Schedule        scheduleRequest `json:"schedule"`
}

func parseWeekdaySet(req weekdaySetRequest) (schedule.WeekdaySet, error) {
	tod, err := schedule.ParseTimeOfDay(req.Time)
	if err != nil {
		return schedule.WeekdaySet{}, err
	}
	return schedule.WeekdaySet{Days: req.Days, Time: tod}, nil
}

// buildSchedule merges the submitted form state onto base. The active
// variant is parsed strictly and its errors are returned to the caller;
// inert variants are parsed leniently, keeping base's stored values when
// a field is empty or malformed so kind-switching never loses data.
func buildSchedule(req scheduleRequest, base schedule.Schedule) (schedule.Schedule, error) {
	kind, err := schedule.ParseKind(req.Kind)
	if err != nil {
		return schedule.Schedule{}, err
	}

	s := base
	s.Kind = kind

	// EveryNDays
	if v, err := buildNDays(req); err == nil {
		s.NDays = v
	} else if kind == schedule.NDaysKind {
		return schedule.Schedule{}, err
	}

	// EveryNWeeks
	if v, err := buildNWeeks(req); err == nil {
		s.NWeeks = v
	} else if kind == schedule.NWeeksKind {
		return schedule.Schedule{}, err
	}

	// MonthwiseDays
	if v, err := buildMonthwise(req); err == nil {
		s.Monthwise = v
	} else if kind == schedule.MonthwiseKind {
		return schedule.Schedule{}, err
	}

	// WeeksOfMonthDays
	if v, err := buildWeeksOfMonth(req); err == nil {
		s.WeeksOfMonth = v
	} else if kind == schedule.WeeksOfMonthKind {
		return schedule.Schedule{}, err
	}

	// CertainMonths
	if v, err := buildCertainMonths(req); err == nil {
		s.CertainMonths = v
	} else if kind == schedule.CertainMonthsKind {
		return schedule.Schedule{}, err
	}

	// Once
	if v, err := buildOnce(req); err == nil {
		s.Once = v
	} else if kind == schedule.OnceKind {
		return schedule.Schedule{}, err
	}

	return s, nil
}

func buildNDays(req scheduleRequest) (schedule.NDays, error) {
	if req.NDays.Days < 1 {
		return schedule.NDays{}, fmt.Errorf("every-n-days interval must be at least 1")
	}
	tod, err := schedule.ParseTimeOfDay(req.NDays.Time)
	if err != nil {
		return schedule.NDays{}, err
	}
	return schedule.NDays{Days: req.NDays.Days, Time: tod}, nil
}

func buildNWeeks(req scheduleRequest) (schedule.NWeeks, error) {
	if req.NWeeks.Weeks < 1 {
		return schedule.NWeeks{}, fmt.Errorf("week span must be at least 1")
	}
	set, err := parseWeekdaySet(req.NWeeks.DaysOfWeek)
	if err != nil {
		return schedule.NWeeks{}, err
	}
	return schedule.NWeeks{Weeks: req.NWeeks.Weeks, DaysOfWeek: set}, nil
}

func buildMonthwise(req scheduleRequest) (schedule.Monthwise, error) {
	days, err := schedule.ParseDayRange(req.Monthwise.Days)
	if err != nil {
		return schedule.Monthwise{}, err
	}
	tod, err := schedule.ParseTimeOfDay(req.Monthwise.Time)
	if err != nil {
		return schedule.Monthwise{}, err
	}
	return schedule.Monthwise{Days: days, Time: tod}, nil
}

func buildWeeksOfMonth(req scheduleRequest) (schedule.WeeksOfMonth, error) {
	weeks, err := schedule.ParseDayRange(req.WeeksOfMonth.Weeks)
	if err != nil {
		return schedule.WeeksOfMonth{}, err
	}
	for _, w := range weeks {
		if w > 5 {
			return schedule.WeeksOfMonth{}, fmt.Errorf("week %d out of range (must be 1-5)", w)
		}
	}
	set, err := parseWeekdaySet(req.WeeksOfMonth.DaysOfWeek)
	if err != nil {
		return schedule.WeeksOfMonth{}, err
	}
	return schedule.WeeksOfMonth{Weeks: weeks, DaysOfWeek: set}, nil
}

func buildCertainMonths(req scheduleRequest) (schedule.CertainMonths, error) {
	months, err := schedule.ParseDayRange(req.CertainMonths.Months)
	if err != nil {
		return schedule.CertainMonths{}, err
	}
	for _, m := range months {
		if m > 12 {
			return schedule.CertainMonths{}, fmt.Errorf("month %d out of range (must be 1-12)", m)
		}
	}
	days, err := schedule.ParseDayRange(req.CertainMonths.Days)
	if err != nil {
		return schedule.CertainMonths{}, err
	}
	tod, err := schedule.ParseTimeOfDay(req.CertainMonths.Time)
	if err != nil {
		return schedule.CertainMonths{}, err
	}
	return schedule.CertainMonths{Months: months, Days: days, Time: tod}, nil
}

func buildOnce(req scheduleRequest) (schedule.Once, error) {
	at, err := time.Parse(time.RFC3339, req.Once.At)
	if err != nil {
		return schedule.Once{}, fmt.Errorf("invalid instant %q: want RFC 3339", req.Once.At)
	}
	return schedule.Once{At: at}, nil
}

// --- Response payloads ---

type taskResponse struct {
	model.Task
	AlertingSeconds int64       `json:"alerting_seconds"`
	Status          task.Status `json:"status"`
	MostRecentDue   time.Time   `json:"most_recent_due"`
	NextDue         *time.Time  `json:"next_due"`
	DueLabel        string      `json:"due_label"`
	ScheduleText    string      `json:"schedule_text"`
}

func (h *TaskHandler) respond(t model.Task, completions []model.Completion, now time.Time) taskResponse {
	resp := taskResponse{
		Task:            t,
		AlertingSeconds: int64(t.AlertingTime / time.Second),
		Status:          task.ComputeStatus(t, completions, now, h.loc),
		MostRecentDue:   t.Schedule.MostRecentDue(now, h.loc),
		ScheduleText:    t.Schedule.Describe(h.loc),
	}
	if t.Schedule.NextKnown(now, h.loc) {
		next := t.Schedule.NextDue(now, h.loc)
		resp.NextDue = &next
		resp.DueLabel = dueLabel(next, now, h.loc)
	} else {
		resp.DueLabel = "not scheduled"
	}
	return resp
}

// dueLabel renders a short relative name for a due instant near today
// and a plain date otherwise.
func dueLabel(due, now time.Time, loc *time.Location) string {
	nowLocal := now.In(loc)
	dueLocal := due.In(loc)
	// Re-anchor both calendar dates at UTC midnight so the difference is
	// always a whole number of days, even across a 23/25-hour DST day.
	today := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, time.UTC)
	dueDay := time.Date(dueLocal.Year(), dueLocal.Month(), dueLocal.Day(), 0, 0, 0, 0, time.UTC)

	switch days := int(dueDay.Sub(today) / (24 * time.Hour)); days {
	case -1:
		return "Yesterday"
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	case 2:
		return "Overmorrow"
	default:
		return dueLocal.Format("Mon, Jan 2")
	}
}

// --- HTTP handlers ---

// List returns every live task with its derived status; ?status=due
// narrows to one bucket.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.List(false)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	filter := task.Status(r.URL.Query().Get("status"))
	now := h.now()
	responses := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		completions, err := h.store.ListCompletions(t.ID)
		if err != nil {
			h.logger.Error("list completions", "task_id", t.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list tasks")
			return
		}
		resp := h.respond(t, completions, now)
		if filter != "" && resp.Status != filter {
			continue
		}
		responses = append(responses, resp)
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, completions, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.respond(*t, completions, h.now()))
}

// load fetches the task named by the path id plus its completions,
// writing the error response itself when anything is off.
func (h *TaskHandler) load(w http.ResponseWriter, r *http.Request) (*model.Task, []model.Completion, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, nil, false
	}
	t, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get task", "task_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return nil, nil, false
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return nil, nil, false
	}
	completions, err := h.store.ListCompletions(id)
	if err != nil {
		h.logger.Error("list completions", "task_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return nil, nil, false
	}
	return t, completions, true
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	sched, err := buildSchedule(req.Schedule, schedule.Schedule{})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	createdAt := h.now().UTC()
	t := model.Task{
		Name:         req.Name,
		Details:      req.Details,
		Schedule:     sched,
		AlertingTime: 24 * time.Hour,
		Completeable: true,
		CreatedAt:    &createdAt,
	}
	if req.AlertingSeconds != nil {
		t.AlertingTime = time.Duration(*req.AlertingSeconds) * time.Second
	}
	if req.Completeable != nil {
		t.Completeable = *req.Completeable
	}

	created, err := h.store.Create(t)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	h.broadcast(websocket.NewMessage("task", "created", created.ID))
	writeJSON(w, http.StatusCreated, h.respond(*created, nil, h.now()))
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, completions, ok := h.load(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	// The stored schedule is the lenient base, so inert-variant values
	// survive a kind switch.
	sched, err := buildSchedule(req.Schedule, existing.Schedule)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing.Name = req.Name
	existing.Details = req.Details
	existing.Schedule = sched
	if req.AlertingSeconds != nil {
		existing.AlertingTime = time.Duration(*req.AlertingSeconds) * time.Second
	}
	if req.Completeable != nil {
		existing.Completeable = *req.Completeable
	}

	updated, err := h.store.Update(*existing)
	if err != nil {
		h.logger.Error("update task", "task_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	h.broadcast(websocket.NewMessage("task", "updated", updated.ID))
	writeJSON(w, http.StatusOK, h.respond(*updated, completions, h.now()))
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, _, ok := h.load(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(t.ID, h.now().UTC()); err != nil {
		h.logger.Error("delete task", "task_id", t.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	h.broadcast(websocket.NewMessage("task", "deleted", t.ID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	t, _, ok := h.load(w, r)
	if !ok {
		return
	}
	if !t.Completeable {
		writeError(w, http.StatusBadRequest, "task is not completeable")
		return
	}

	if _, err := h.store.AddCompletion(t.ID, h.now().UTC()); err != nil {
		h.logger.Error("complete task", "task_id", t.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to complete task")
		return
	}

	completions, err := h.store.ListCompletions(t.ID)
	if err != nil {
		h.logger.Error("list completions", "task_id", t.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to complete task")
		return
	}

	h.broadcast(websocket.NewMessage("task", "completed", t.ID))
	writeJSON(w, http.StatusOK, h.respond(*t, completions, h.now()))
}

func (h *TaskHandler) UndoComplete(w http.ResponseWriter, r *http.Request) {
	t, _, ok := h.load(w, r)
	if !ok {
		return
	}

	deleted, err := h.store.DeleteLastCompletion(t.ID)
	if err != nil {
		h.logger.Error("undo completion", "task_id", t.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to undo completion")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "no completion to undo")
		return
	}

	completions, err := h.store.ListCompletions(t.ID)
	if err != nil {
		h.logger.Error("list completions", "task_id", t.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to undo completion")
		return
	}

	h.broadcast(websocket.NewMessage("task", "uncompleted", t.ID))
	writeJSON(w, http.StatusOK, h.respond(*t, completions, h.now()))
}

func (h *TaskHandler) ListCompletions(w http.ResponseWriter, r *http.Request) {
	_, completions, ok := h.load(w, r)
	if !ok {
		return
	}
	if completions == nil {
		completions = []model.Completion{}
	}
	writeJSON(w, http.StatusOK, completions)
}
