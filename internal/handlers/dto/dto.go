package dto

import (
	"time"

	"tasque/internal/models/queue"
	"tasque/internal/models/tag"
	"tasque/internal/models/task"
)

type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	ParentID    *string  `json:"parent_id,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// UpdateTaskRequest - отсутствующее поле не меняется. Для сброса
// description и parent_id есть отдельные флаги.
type UpdateTaskRequest struct {
	Title            *string   `json:"title,omitempty"`
	Description      *string   `json:"description,omitempty"`
	ClearDescription bool      `json:"clear_description,omitempty"`
	ParentID         *string   `json:"parent_id,omitempty"`
	ClearParent      bool      `json:"clear_parent,omitempty"`
	Tags             *[]string `json:"tags,omitempty"`
}

func (r UpdateTaskRequest) Options() []task.TaskOption {
	opts := make([]task.TaskOption, 0, 4)
	if r.Title != nil {
		opts = append(opts, task.WithTitle(*r.Title))
	}
	switch {
	case r.ClearDescription:
		opts = append(opts, task.WithoutDescription())
	case r.Description != nil:
		opts = append(opts, task.WithDescription(*r.Description))
	}
	switch {
	case r.ClearParent:
		opts = append(opts, task.WithoutParent())
	case r.ParentID != nil:
		opts = append(opts, task.WithParent(*r.ParentID))
	}
	if r.Tags != nil {
		opts = append(opts, task.WithTags(*r.Tags...))
	}
	return opts
}

type DuplicateTaskRequest struct {
	Title *string `json:"title,omitempty"`
}

type TaskResponse struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	Status      task.Status `json:"status"`
	ParentID    *string     `json:"parent_id"`
	ParentTitle *string     `json:"parent_title,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Tags        []string    `json:"tags"`
	ChildrenIDs []string    `json:"children_ids"`
}

func FromTask(t *task.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		ParentID:    t.ParentID,
		ParentTitle: t.ParentTitle,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Tags:        t.Tags,
		ChildrenIDs: t.ChildrenIDs,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if resp.ChildrenIDs == nil {
		resp.ChildrenIDs = []string{}
	}
	return resp
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type PageResponse struct {
	Tasks  []TaskResponse `json:"tasks"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type NodeResponse struct {
	TaskResponse
	Children []TaskResponse `json:"children"`
}

func FromHierarchy(nodes []*task.Node) []NodeResponse {
	result := make([]NodeResponse, len(nodes))
	for i, n := range nodes {
		result[i] = NodeResponse{
			TaskResponse: FromTask(n.Task),
			Children:     FromTaskList(n.Children),
		}
	}
	return result
}

type TagRequest struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

type TagResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Color      *string   `json:"color"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func FromTag(t *tag.Tag) TagResponse {
	return TagResponse{
		ID:         t.ID,
		Name:       t.Name,
		Color:      t.Color,
		UsageCount: t.UsageCount,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func FromTagList(tags []*tag.Tag) []TagResponse {
	result := make([]TagResponse, len(tags))
	for i, t := range tags {
		result[i] = FromTag(t)
	}
	return result
}

type EnqueueRequest struct {
	TaskID string `json:"task_id"`
}

type MoveRequest struct {
	Position *int `json:"position"`
}

type ReorderRequest struct {
	TaskIDs []string `json:"task_ids"`
}

type QueueEntryResponse struct {
	TaskID          string       `json:"task_id"`
	Position        int          `json:"position"`
	AddedAt         time.Time    `json:"added_at"`
	TaskTitle       string       `json:"task_title,omitempty"`
	TaskStatus      *task.Status `json:"task_status,omitempty"`
	TaskDescription *string      `json:"task_description,omitempty"`
}

func FromQueueEntry(e queue.Entry) QueueEntryResponse {
	return QueueEntryResponse{TaskID: e.TaskID, Position: e.Position, AddedAt: e.AddedAt}
}

func FromQueue(entries []queue.EntryWithTask) []QueueEntryResponse {
	result := make([]QueueEntryResponse, len(entries))
	for i, e := range entries {
		status := e.TaskStatus
		result[i] = QueueEntryResponse{
			TaskID:          e.TaskID,
			Position:        e.Position,
			AddedAt:         e.AddedAt,
			TaskTitle:       e.TaskTitle,
			TaskStatus:      &status,
			TaskDescription: e.TaskDescription,
		}
	}
	return result
}
