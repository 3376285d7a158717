package store

import (
	"slices"
	"testing"
	"time"

	"github.com/tomvanoss/chorewheel/internal/database"
	"github.com/tomvanoss/chorewheel/internal/model"
	"github.com/tomvanoss/chorewheel/internal/schedule"
)

func setupTaskTestDB(t *testing.T) *TaskStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTaskStore(db)
}

func weeklySchedule() schedule.Schedule {
	s := schedule.Schedule{Kind: schedule.NWeeksKind}
	s.NWeeks.Weeks = 2
	s.NWeeks.DaysOfWeek.Days[time.Wednesday] = true
	s.NWeeks.DaysOfWeek.Time = schedule.TimeOfDay{Hour: 11}
	s.NDays = schedule.NDays{Days: 1, Time: schedule.TimeOfDay{Hour: 12}}
	return s
}

func TestTaskCreateAndGet(t *testing.T) {
	ts := setupTaskTestDB(t)

	created, err := ts.Create(model.Task{
		Name:         "water plants",
		Details:      "back porch too",
		Schedule:     weeklySchedule(),
		AlertingTime: 2 * time.Hour,
		Completeable: true,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if created.CreatedAt == nil {
		t.Fatal("created_at should be set on insert")
	}

	got, err := ts.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Name != "water plants" || got.Details != "back porch too" {
		t.Errorf("got %q/%q", got.Name, got.Details)
	}
	if got.AlertingTime != 2*time.Hour {
		t.Errorf("alerting time = %v, want 2h", got.AlertingTime)
	}
	if got.Schedule.Kind != schedule.NWeeksKind {
		t.Errorf("kind = %v, want n_weeks", got.Schedule.Kind)
	}
	if !got.Schedule.NWeeks.DaysOfWeek.Active(time.Wednesday) {
		t.Error("weekday mask lost in round trip")
	}
	if got.Schedule.NWeeks.DaysOfWeek.Time != (schedule.TimeOfDay{Hour: 11}) {
		t.Errorf("time of day = %v, want 11:00", got.Schedule.NWeeks.DaysOfWeek.Time)
	}
	// Inert variant parameters survive storage.
	if got.Schedule.NDays.Days != 1 {
		t.Errorf("inert n_days = %d, want 1", got.Schedule.NDays.Days)
	}
}

func TestTaskGetMissing(t *testing.T) {
	ts := setupTaskTestDB(t)
	got, err := ts.GetByID(999)
	if err != nil {
		t.Fatalf("get missing task: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing task, got %+v", got)
	}
}

func TestScheduleRoundTripAllKinds(t *testing.T) {
	ts := setupTaskTestDB(t)

	once := time.Date(2026, time.September, 3, 18, 0, 0, 0, time.UTC)
	schedules := map[string]schedule.Schedule{
		"n_days": {Kind: schedule.NDaysKind, NDays: schedule.NDays{Days: 3, Time: schedule.TimeOfDay{Hour: 8, Minute: 30}}},
		"monthwise": {Kind: schedule.MonthwiseKind, Monthwise: schedule.Monthwise{
			Days: []int{1, 15, 31}, Time: schedule.TimeOfDay{Hour: 7},
		}},
		"weeks_of_month": {Kind: schedule.WeeksOfMonthKind, WeeksOfMonth: schedule.WeeksOfMonth{
			Weeks: []int{2, 4},
			DaysOfWeek: schedule.WeekdaySet{
				Days: [7]bool{false, false, false, false, false, true, false},
				Time: schedule.TimeOfDay{Hour: 17, Minute: 45},
			},
		}},
		"certain_months": {Kind: schedule.CertainMonthsKind, CertainMonths: schedule.CertainMonths{
			Months: []int{2, 3}, Days: []int{15, 20}, Time: schedule.TimeOfDay{Hour: 18},
		}},
		"once": {Kind: schedule.OnceKind, Once: schedule.Once{At: once}},
	}

	for name, sched := range schedules {
		t.Run(name, func(t *testing.T) {
			created, err := ts.Create(model.Task{Name: name, Schedule: sched, Completeable: true})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			got := created.Schedule
			if got.Kind != sched.Kind {
				t.Fatalf("kind = %v, want %v", got.Kind, sched.Kind)
			}
			switch sched.Kind {
			case schedule.NDaysKind:
				if got.NDays != sched.NDays {
					t.Errorf("n_days = %+v, want %+v", got.NDays, sched.NDays)
				}
			case schedule.MonthwiseKind:
				if !slices.Equal(got.Monthwise.Days, sched.Monthwise.Days) || got.Monthwise.Time != sched.Monthwise.Time {
					t.Errorf("monthwise = %+v, want %+v", got.Monthwise, sched.Monthwise)
				}
			case schedule.WeeksOfMonthKind:
				if !slices.Equal(got.WeeksOfMonth.Weeks, sched.WeeksOfMonth.Weeks) ||
					got.WeeksOfMonth.DaysOfWeek != sched.WeeksOfMonth.DaysOfWeek {
					t.Errorf("weeks_of_month = %+v, want %+v", got.WeeksOfMonth, sched.WeeksOfMonth)
				}
			case schedule.CertainMonthsKind:
				if !slices.Equal(got.CertainMonths.Months, sched.CertainMonths.Months) ||
					!slices.Equal(got.CertainMonths.Days, sched.CertainMonths.Days) {
					t.Errorf("certain_months = %+v, want %+v", got.CertainMonths, sched.CertainMonths)
				}
			case schedule.OnceKind:
				if !got.Once.At.Equal(once) {
					t.Errorf("once at = %v, want %v", got.Once.At, once)
				}
			}
		})
	}
}

func TestTaskListExcludesDeleted(t *testing.T) {
	ts := setupTaskTestDB(t)

	keep, err := ts.Create(model.Task{Name: "keep", Schedule: weeklySchedule(), Completeable: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gone, err := ts.Create(model.Task{Name: "gone", Schedule: weeklySchedule(), Completeable: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := ts.Delete(gone.ID, time.Now().UTC()); err != nil {
		t.Fatalf("delete: %v", err)
	}

	tasks, err := ts.List(false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != keep.ID {
		t.Fatalf("list = %v, want only %d", tasks, keep.ID)
	}

	all, err := ts.List(true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("list all = %d tasks, want 2", len(all))
	}

	// The deleted task keeps its row and gains a deleted_at stamp.
	deleted, err := ts.GetByID(gone.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if deleted == nil || deleted.DeletedAt == nil {
		t.Error("soft delete should keep the row and set deleted_at")
	}
}

func TestTaskUpdate(t *testing.T) {
	ts := setupTaskTestDB(t)

	created, err := ts.Create(model.Task{Name: "old", Schedule: weeklySchedule(), Completeable: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Name = "new"
	created.AlertingTime = 30 * time.Minute
	created.Schedule.Kind = schedule.MonthwiseKind
	created.Schedule.Monthwise = schedule.Monthwise{Days: []int{5}, Time: schedule.TimeOfDay{Hour: 9}}

	updated, err := ts.Update(*created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "new" || updated.AlertingTime != 30*time.Minute {
		t.Errorf("update lost fields: %+v", updated)
	}
	if updated.Schedule.Kind != schedule.MonthwiseKind {
		t.Errorf("kind = %v, want monthwise", updated.Schedule.Kind)
	}
	// Switching kinds keeps the previous variant's parameters.
	if !updated.Schedule.NWeeks.DaysOfWeek.Active(time.Wednesday) {
		t.Error("switching kinds should preserve inert variant parameters")
	}
}

func TestTaskUpdateMissing(t *testing.T) {
	ts := setupTaskTestDB(t)
	got, err := ts.Update(model.Task{ID: 42, Name: "ghost", Schedule: weeklySchedule()})
	if err != nil {
		t.Fatalf("update missing: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing task, got %+v", got)
	}
}

func TestCompletions(t *testing.T) {
	ts := setupTaskTestDB(t)

	created, err := ts.Create(model.Task{Name: "dishes", Schedule: weeklySchedule(), Completeable: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	t1 := time.Date(2026, time.August, 19, 11, 5, 0, 0, time.UTC)
	t2 := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)
	if _, err := ts.AddCompletion(created.ID, t2); err != nil {
		t.Fatalf("add completion: %v", err)
	}
	if _, err := ts.AddCompletion(created.ID, t1); err != nil {
		t.Fatalf("add completion: %v", err)
	}

	completions, err := ts.ListCompletions(created.ID)
	if err != nil {
		t.Fatalf("list completions: %v", err)
	}
	if len(completions) != 2 {
		t.Fatalf("got %d completions, want 2", len(completions))
	}
	if !completions[0].CompletedAt.Equal(t1) || !completions[1].CompletedAt.Equal(t2) {
		t.Errorf("completions out of order: %v", completions)
	}

	// Undo removes the newest, not the newest-inserted.
	ok, err := ts.DeleteLastCompletion(created.ID)
	if err != nil {
		t.Fatalf("delete last: %v", err)
	}
	if !ok {
		t.Fatal("expected a deletion")
	}
	remaining, err := ts.ListCompletions(created.ID)
	if err != nil {
		t.Fatalf("list completions: %v", err)
	}
	if len(remaining) != 1 || !remaining[0].CompletedAt.Equal(t1) {
		t.Errorf("remaining = %v, want just %v", remaining, t1)
	}

	ok, err = ts.DeleteLastCompletion(created.ID)
	if err != nil || !ok {
		t.Fatalf("second delete: ok=%v err=%v", ok, err)
	}
	ok, err = ts.DeleteLastCompletion(created.ID)
	if err != nil {
		t.Fatalf("empty delete: %v", err)
	}
	if ok {
		t.Error("deleting with no completions should report false")
	}
}

func TestWeekdayMaskCodec(t *testing.T) {
	var set schedule.WeekdaySet
	set.Days[time.Monday] = true
	set.Days[time.Saturday] = true

	mask := encodeWeekdays(set)
	if mask != "0100001" {
		t.Errorf("mask = %q, want 0100001", mask)
	}
	if got := decodeWeekdays(mask); got != set.Days {
		t.Errorf("decode = %v, want %v", got, set.Days)
	}
	if got := decodeWeekdays(""); got != ([7]bool{}) {
		t.Errorf("empty mask should decode to all-inactive, got %v", got)
	}
}
