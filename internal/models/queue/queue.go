package queue

import (
	"time"

	"tasque/internal/models/task"
)

type Entry struct {
	TaskID   string    `json:"task_id" db:"task_id"`
	Position int       `json:"position" db:"position"`
	AddedAt  time.Time `json:"added_at" db:"added_at"`
}

// EntryWithTask - элемент очереди вместе с полями задачи для отображения
type EntryWithTask struct {
	Entry
	TaskTitle       string      `json:"task_title"`
	TaskStatus      task.Status `json:"task_status"`
	TaskDescription *string     `json:"task_description,omitempty"`
}
