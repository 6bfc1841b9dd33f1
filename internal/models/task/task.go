package task

import (
	"time"
)

type Task struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	Status      Status    `json:"status" db:"status"`
	ParentID    *string   `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// вычисляемые поля, в таблице tasks их нет
	Tags        []string `json:"tags" db:"-"`
	ChildrenIDs []string `json:"children_ids" db:"-"`
	ParentTitle *string  `json:"parent_title,omitempty" db:"-"`
}

func (t *Task) IsRoot() bool {
	return t.ParentID == nil
}

// Clone возвращает копию без общих указателей и срезов
func (t *Task) Clone() *Task {
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	if t.ParentID != nil {
		p := *t.ParentID
		c.ParentID = &p
	}
	if t.ParentTitle != nil {
		p := *t.ParentTitle
		c.ParentTitle = &p
	}
	c.Tags = append([]string(nil), t.Tags...)
	c.ChildrenIDs = append([]string(nil), t.ChildrenIDs...)
	return &c
}

// Node - корневая задача вместе с дочерними для дерева
type Node struct {
	*Task
	Children []*Task `json:"children"`
}

type Page struct {
	Tasks []*Task `json:"tasks"`
	Total int     `json:"total"`
}
