package repository

import (
	"slices"
	"strings"

	"tasque/internal/models/task"
)

type Scope int

const (
	ScopeAll Scope = iota
	ScopeRoots
	ScopeChildren
)

// HierarchyStatuses задаёт разные допустимые статусы для корней и для детей:
// (parent_id IS NULL AND status IN Roots) OR (parent_id IS NOT NULL AND status IN Children)
type HierarchyStatuses struct {
	Roots    []task.Status
	Children []task.Status
}

// TaskFilter - пустые срезы и нулевые значения означают "без фильтра".
// Результат всегда отсортирован по created_at DESC.
type TaskFilter struct {
	IDs             []string
	ParentIDs       []string
	Statuses        []task.Status
	ExcludeStatuses []task.Status
	Hierarchy       *HierarchyStatuses
	Scope           Scope
	// Keyword ищется без учёта регистра в title и description
	Keyword string
	// TagIDs - задача подходит, если есть хотя бы один из тегов
	TagIDs []string
	Limit  int
	Offset int
}

// Match проверяет задачу на соответствие фильтру без учёта тегов и пагинации.
// Используется хранилищами, которые фильтруют в памяти.
func (f TaskFilter) Match(t *task.Task) bool {
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, t.ID) {
		return false
	}
	if len(f.ParentIDs) > 0 && (t.ParentID == nil || !slices.Contains(f.ParentIDs, *t.ParentID)) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if len(f.ExcludeStatuses) > 0 && slices.Contains(f.ExcludeStatuses, t.Status) {
		return false
	}
	if f.Hierarchy != nil {
		allowed := f.Hierarchy.Children
		if t.ParentID == nil {
			allowed = f.Hierarchy.Roots
		}
		if !slices.Contains(allowed, t.Status) {
			return false
		}
	}
	switch f.Scope {
	case ScopeRoots:
		if t.ParentID != nil {
			return false
		}
	case ScopeChildren:
		if t.ParentID == nil {
			return false
		}
	}
	if f.Keyword != "" {
		kw := strings.ToLower(f.Keyword)
		inTitle := strings.Contains(strings.ToLower(t.Title), kw)
		inDescription := t.Description != nil && strings.Contains(strings.ToLower(*t.Description), kw)
		if !inTitle && !inDescription {
			return false
		}
	}
	return true
}
