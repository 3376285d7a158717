package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tomvanoss/chorewheel/internal/model"
	"github.com/tomvanoss/chorewheel/internal/schedule"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

// --- Schedule row codec ---

// scheduleRow is the flat per-variant column layout. Inert variants keep
// their stored parameters so switching kinds preserves earlier values.
type scheduleRow struct {
	id int64

	kind string

	nDays     int
	nDaysTime string

	nWeeks     int
	nWeeksDays string
	nWeeksTime string

	monthwiseDays string
	monthwiseTime string

	weeksOfMonthWeeks string
	weeksOfMonthDays  string
	weeksOfMonthTime  string

	certainMonthsMonths string
	certainMonthsDays   string
	certainMonthsTime   string

	onceAt sql.NullTime
}

const scheduleCols = `s.id, s.kind,
	s.n_days, s.n_days_time,
	s.n_weeks, s.n_weeks_days, s.n_weeks_time,
	s.monthwise_days, s.monthwise_time,
	s.weeks_of_month_weeks, s.weeks_of_month_days, s.weeks_of_month_time,
	s.certain_months_months, s.certain_months_days, s.certain_months_time,
	s.once_at`

// encodeWeekdays renders an active-weekday mask as a 7-character string
// indexed by time.Weekday, Sunday first, e.g. "0010100".
func encodeWeekdays(set schedule.WeekdaySet) string {
	var b [7]byte
	for i, active := range set.Days {
		if active {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b[:])
}

func decodeWeekdays(mask string) [7]bool {
	var days [7]bool
	for i := 0; i < 7 && i < len(mask); i++ {
		days[i] = mask[i] == '1'
	}
	return days
}

// encodeDays renders a day or month set in the same compact notation the
// editor accepts; an empty set stores as "".
func encodeDays(days []int) string {
	return schedule.FormatDayRange(days)
}

func decodeDays(text string) ([]int, error) {
	if text == "" {
		return nil, nil
	}
	return schedule.ParseDayRange(text)
}

func encodeSchedule(s schedule.Schedule) scheduleRow {
	r := scheduleRow{
		kind:                s.Kind.String(),
		nDays:               s.NDays.Days,
		nDaysTime:           s.NDays.Time.String(),
		nWeeks:              s.NWeeks.Weeks,
		nWeeksDays:          encodeWeekdays(s.NWeeks.DaysOfWeek),
		nWeeksTime:          s.NWeeks.DaysOfWeek.Time.String(),
		monthwiseDays:       encodeDays(s.Monthwise.Days),
		monthwiseTime:       s.Monthwise.Time.String(),
		weeksOfMonthWeeks:   encodeDays(s.WeeksOfMonth.Weeks),
		weeksOfMonthDays:    encodeWeekdays(s.WeeksOfMonth.DaysOfWeek),
		weeksOfMonthTime:    s.WeeksOfMonth.DaysOfWeek.Time.String(),
		certainMonthsMonths: encodeDays(s.CertainMonths.Months),
		certainMonthsDays:   encodeDays(s.CertainMonths.Days),
		certainMonthsTime:   s.CertainMonths.Time.String(),
	}
	if !s.Once.At.IsZero() {
		r.onceAt = sql.NullTime{Time: s.Once.At, Valid: true}
	}
	return r
}

func decodeSchedule(r *scheduleRow) (schedule.Schedule, error) {
	var s schedule.Schedule

	kind, err := schedule.ParseKind(r.kind)
	if err != nil {
		return s, err
	}
	s.Kind = kind

	parseTime := func(text, col string) (schedule.TimeOfDay, error) {
		tod, err := schedule.ParseTimeOfDay(text)
		if err != nil {
			return schedule.TimeOfDay{}, fmt.Errorf("column %s: %w", col, err)
		}
		return tod, nil
	}

	if s.NDays.Time, err = parseTime(r.nDaysTime, "n_days_time"); err != nil {
		return s, err
	}
	s.NDays.Days = r.nDays

	if s.NWeeks.DaysOfWeek.Time, err = parseTime(r.nWeeksTime, "n_weeks_time"); err != nil {
		return s, err
	}
	s.NWeeks.Weeks = r.nWeeks
	s.NWeeks.DaysOfWeek.Days = decodeWeekdays(r.nWeeksDays)

	if s.Monthwise.Time, err = parseTime(r.monthwiseTime, "monthwise_time"); err != nil {
		return s, err
	}
	if s.Monthwise.Days, err = decodeDays(r.monthwiseDays); err != nil {
		return s, fmt.Errorf("column monthwise_days: %w", err)
	}

	if s.WeeksOfMonth.DaysOfWeek.Time, err = parseTime(r.weeksOfMonthTime, "weeks_of_month_time"); err != nil {
		return s, err
	}
	if s.WeeksOfMonth.Weeks, err = decodeDays(r.weeksOfMonthWeeks); err != nil {
		return s, fmt.Errorf("column weeks_of_month_weeks: %w", err)
	}
	s.WeeksOfMonth.DaysOfWeek.Days = decodeWeekdays(r.weeksOfMonthDays)

	if s.CertainMonths.Time, err = parseTime(r.certainMonthsTime, "certain_months_time"); err != nil {
		return s, err
	}
	if s.CertainMonths.Months, err = decodeDays(r.certainMonthsMonths); err != nil {
		return s, fmt.Errorf("column certain_months_months: %w", err)
	}
	if s.CertainMonths.Days, err = decodeDays(r.certainMonthsDays); err != nil {
		return s, fmt.Errorf("column certain_months_days: %w", err)
	}

	if r.onceAt.Valid {
		s.Once.At = r.onceAt.Time
	}
	return s, nil
}

// --- Task methods ---

const taskCols = `t.id, t.name, t.details, t.alerting_seconds, t.completeable, t.created_at, t.deleted_at`

func insertScheduleTx(tx *sql.Tx, s schedule.Schedule) (int64, error) {
	r := encodeSchedule(s)
	result, err := tx.Exec(`INSERT INTO schedules (kind,
		n_days, n_days_time,
		n_weeks, n_weeks_days, n_weeks_time,
		monthwise_days, monthwise_time,
		weeks_of_month_weeks, weeks_of_month_days, weeks_of_month_time,
		certain_months_months, certain_months_days, certain_months_time,
		once_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.kind,
		r.nDays, r.nDaysTime,
		r.nWeeks, r.nWeeksDays, r.nWeeksTime,
		r.monthwiseDays, r.monthwiseTime,
		r.weeksOfMonthWeeks, r.weeksOfMonthDays, r.weeksOfMonthTime,
		r.certainMonthsMonths, r.certainMonthsDays, r.certainMonthsTime,
		r.onceAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert schedule: %w", err)
	}
	return result.LastInsertId()
}

func updateScheduleTx(tx *sql.Tx, id int64, s schedule.Schedule) error {
	r := encodeSchedule(s)
	_, err := tx.Exec(`UPDATE schedules SET kind = ?,
		n_days = ?, n_days_time = ?,
		n_weeks = ?, n_weeks_days = ?, n_weeks_time = ?,
		monthwise_days = ?, monthwise_time = ?,
		weeks_of_month_weeks = ?, weeks_of_month_days = ?, weeks_of_month_time = ?,
		certain_months_months = ?, certain_months_days = ?, certain_months_time = ?,
		once_at = ?
		WHERE id = ?`,
		r.kind,
		r.nDays, r.nDaysTime,
		r.nWeeks, r.nWeeksDays, r.nWeeksTime,
		r.monthwiseDays, r.monthwiseTime,
		r.weeksOfMonthWeeks, r.weeksOfMonthDays, r.weeksOfMonthTime,
		r.certainMonthsMonths, r.certainMonthsDays, r.certainMonthsTime,
		r.onceAt,
		id,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// Create inserts the schedule and the task in one transaction. The
// task's validity window opens at creation time.
func (s *TaskStore) Create(t model.Task) (*model.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	scheduleID, err := insertScheduleTx(tx, t.Schedule)
	if err != nil {
		return nil, err
	}

	createdAt := time.Now().UTC()
	if t.CreatedAt != nil {
		createdAt = *t.CreatedAt
	}

	result, err := tx.Exec(
		`INSERT INTO tasks (name, details, schedule_id, alerting_seconds, completeable, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.Name, t.Details, scheduleID, int64(t.AlertingTime/time.Second), t.Completeable, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

const taskSelect = `SELECT t.schedule_id, ` + taskCols + `, ` + scheduleCols + `
	FROM tasks t JOIN schedules s ON s.id = t.schedule_id`

func scanTaskWithSchedule(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var scheduleID int64
	var alertingSeconds int64
	var createdAt, deletedAt sql.NullTime
	var r scheduleRow

	err := scanner.Scan(
		&scheduleID,
		&t.ID, &t.Name, &t.Details, &alertingSeconds, &t.Completeable,
		&createdAt, &deletedAt,
		&r.id, &r.kind,
		&r.nDays, &r.nDaysTime,
		&r.nWeeks, &r.nWeeksDays, &r.nWeeksTime,
		&r.monthwiseDays, &r.monthwiseTime,
		&r.weeksOfMonthWeeks, &r.weeksOfMonthDays, &r.weeksOfMonthTime,
		&r.certainMonthsMonths, &r.certainMonthsDays, &r.certainMonthsTime,
		&r.onceAt,
	)
	if err != nil {
		return nil, err
	}

	t.AlertingTime = time.Duration(alertingSeconds) * time.Second
	if createdAt.Valid {
		t.CreatedAt = &createdAt.Time
	}
	if deletedAt.Valid {
		t.DeletedAt = &deletedAt.Time
	}
	if t.Schedule, err = decodeSchedule(&r); err != nil {
		return nil, fmt.Errorf("decode schedule %d: %w", r.id, err)
	}
	return &t, nil
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(taskSelect+` WHERE t.id = ?`, id)
	t, err := scanTaskWithSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns tasks ordered by name. Soft-deleted tasks are included
// when includeDeleted is set; their validity window keeps them out of
// due/alerting classification either way.
func (s *TaskStore) List(includeDeleted bool) ([]model.Task, error) {
	query := taskSelect
	if !includeDeleted {
		query += ` WHERE t.deleted_at IS NULL`
	}
	query += ` ORDER BY t.name ASC, t.id ASC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTaskWithSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Update rewrites the task fields and its schedule in one transaction.
func (s *TaskStore) Update(t model.Task) (*model.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var scheduleID int64
	err = tx.QueryRow(`SELECT schedule_id FROM tasks WHERE id = ?`, t.ID).Scan(&scheduleID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup schedule id: %w", err)
	}

	if err := updateScheduleTx(tx, scheduleID, t.Schedule); err != nil {
		return nil, err
	}

	_, err = tx.Exec(
		`UPDATE tasks SET name = ?, details = ?, alerting_seconds = ?, completeable = ? WHERE id = ?`,
		t.Name, t.Details, int64(t.AlertingTime/time.Second), t.Completeable, t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(t.ID)
}

// Delete closes the task's validity window rather than removing the row,
// so completion history survives.
func (s *TaskStore) Delete(id int64, at time.Time) error {
	_, err := s.db.Exec(`UPDATE tasks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, at, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// --- Completion methods ---

const completionCols = `id, task_id, completed_at`

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.Completion, error) {
	var c model.Completion
	if err := scanner.Scan(&c.ID, &c.TaskID, &c.CompletedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *TaskStore) AddCompletion(taskID int64, at time.Time) (*model.Completion, error) {
	result, err := s.db.Exec(
		`INSERT INTO completions (task_id, completed_at) VALUES (?, ?)`,
		taskID, at,
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+completionCols+` FROM completions WHERE id = ?`, id)
	c, err := scanCompletion(row)
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

func (s *TaskStore) ListCompletions(taskID int64) ([]model.Completion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM completions WHERE task_id = ? ORDER BY completed_at ASC, id ASC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

// DeleteLastCompletion removes the newest completion for the task, used
// by undo. Reports whether anything was deleted.
func (s *TaskStore) DeleteLastCompletion(taskID int64) (bool, error) {
	result, err := s.db.Exec(
		`DELETE FROM completions WHERE id = (
			SELECT id FROM completions WHERE task_id = ?
			ORDER BY completed_at DESC, id DESC LIMIT 1
		)`,
		taskID,
	)
	if err != nil {
		return false, fmt.Errorf("delete completion: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
