package calendar

import "time"

// Filter is the composite predicate applied to the merged timeline.
// Zero value matches everything.
type Filter struct {
	Types      []Type
	Categories []string
	Priorities []Priority

	// Tags matches events whose tag set intersects this one.
	Tags []string

	// Start/End bound the event date (inclusive). Zero means unbounded.
	Start time.Time
	End   time.Time

	// ExcludeCompleted hides events whose status is completed.
	ExcludeCompleted bool
}

// WantsType reports whether the filter could match events of type t.
// An empty type set matches every type.
func (f Filter) WantsType(t Type) bool {
	if len(f.Types) == 0 {
		return true
	}
	for _, want := range f.Types {
		if want == t {
			return true
		}
	}
	return false
}

// RequestsType reports whether t was explicitly listed. Expensive sources
// are only consulted on an explicit request.
func (f Filter) RequestsType(t Type) bool {
	for _, want := range f.Types {
		if want == t {
			return true
		}
	}
	return false
}

// WithRange returns a copy of the filter narrowed to [start, end].
func (f Filter) WithRange(start, end time.Time) Filter {
	f.Start = start
	f.End = end
	return f
}

// Matches applies the whole composite predicate to one event.
func (f Filter) Matches(e Event) bool {
	if !f.WantsType(e.Type) {
		return false
	}
	if len(f.Categories) > 0 && !containsStr(f.Categories, e.Category) {
		return false
	}
	if len(f.Priorities) > 0 && !containsPriority(f.Priorities, e.Priority) {
		return false
	}
	if len(f.Tags) > 0 && !intersects(f.Tags, e.Meta.Tags) {
		return false
	}
	if !f.Start.IsZero() && e.Date.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && e.Date.After(f.End) {
		return false
	}
	if f.ExcludeCompleted && e.Status == StatusCompleted {
		return false
	}
	return true
}

func containsStr(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsPriority(set []Priority, v Priority) bool {
	for _, p := range set {
		if p == v {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
