package model

import (
	"net/url"
	"strconv"
)

type Item struct {
	ID        int64  `json:"id"`
	Title     string `json:"title" validate:"required,max=200"`
	Completed bool   `json:"completed"`
	Category  string `json:"category" validate:"required"`
	Priority  string `json:"priority" validate:"required"`
}

// ItemPatch carries a partial item. Nil fields are left untouched.
type ItemPatch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	Category  *string `json:"category,omitempty"`
	Priority  *string `json:"priority,omitempty"`
}

// Apply returns a copy of it with the patch fields applied.
func (p ItemPatch) Apply(it Item) Item {
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Completed != nil {
		it.Completed = *p.Completed
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.Priority != nil {
		it.Priority = *p.Priority
	}
	return it
}

func (p ItemPatch) Empty() bool {
	return p.Title == nil && p.Completed == nil && p.Category == nil && p.Priority == nil
}

type ItemFilter struct {
	Category  *string
	Priority  *string
	Completed *bool
}

func (f ItemFilter) Match(it Item) bool {
	if f.Category != nil && it.Category != *f.Category {
		return false
	}
	if f.Priority != nil && it.Priority != *f.Priority {
		return false
	}
	if f.Completed != nil && it.Completed != *f.Completed {
		return false
	}
	return true
}

// Values encodes the filter as query parameters. The encoding is stable and
// doubles as a cache key.
func (f ItemFilter) Values() url.Values {
	v := url.Values{}
	if f.Category != nil {
		v.Set("category", *f.Category)
	}
	if f.Priority != nil {
		v.Set("priority", *f.Priority)
	}
	if f.Completed != nil {
		v.Set("completed", strconv.FormatBool(*f.Completed))
	}
	return v
}

// FilterState is the view-level filter picked by the user.
type FilterState string

const (
	FilterAll       FilterState = "all"
	FilterActive    FilterState = "active"
	FilterCompleted FilterState = "completed"
)

func (s FilterState) Valid() bool {
	switch s {
	case FilterAll, FilterActive, FilterCompleted:
		return true
	}
	return false
}

// ItemFilter narrows base by the completion state implied by s.
func (s FilterState) ItemFilter(base ItemFilter) ItemFilter {
	switch s {
	case FilterActive:
		done := false
		base.Completed = &done
	case FilterCompleted:
		done := true
		base.Completed = &done
	default:
		base.Completed = nil
	}
	return base
}

type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Priority struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

func String(s string) *string { return &s }
func Bool(b bool) *bool       { return &b }
