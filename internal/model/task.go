package model

import (
	"time"

	"github.com/tomvanoss/chorewheel/internal/schedule"
)

type Task struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Details      string            `json:"details"`
	Schedule     schedule.Schedule `json:"schedule"`
	AlertingTime time.Duration     `json:"alerting_time"`
	Completeable bool              `json:"completeable"`
	CreatedAt    *time.Time        `json:"created_at"`
	DeletedAt    *time.Time        `json:"deleted_at"`
}

type Completion struct {
	ID          int64     `json:"id"`
	TaskID      int64     `json:"task_id"`
	CompletedAt time.Time `json:"completed_at"`
}
