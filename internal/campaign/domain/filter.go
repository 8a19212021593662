package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// FilterKind enumerates the closed set of filter variants. Adding a kind is a
// compile-time-checked change to the evaluator below.
type FilterKind string

const (
	FilterTag       FilterKind = "tag"
	FilterAnd       FilterKind = "and"
	FilterOr        FilterKind = "or"
	FilterDateRange FilterKind = "date-range"
)

// Filter is a pure, stateless predicate over a supporter's attributes.
// Exactly one variant field group is meaningful per Kind: Tags for tag
// filters, Subs for the and/or combinators, Start/End for date ranges (zero
// time means unbounded).
type Filter struct {
	Kind  FilterKind
	Tags  []Tag
	Subs  []Filter
	Start time.Time
	End   time.Time
}

// CatchAll is the designed default filter: a tag filter with no tags, which
// matches every subject.
func CatchAll() Filter {
	return Filter{Kind: FilterTag}
}

// TagsFilter builds a tag filter requiring every given tag.
func TagsFilter(tags ...Tag) Filter {
	return Filter{Kind: FilterTag, Tags: tags}
}

// And combines sub-filters; all must match, evaluated left to right with
// short-circuiting.
func And(subs ...Filter) Filter {
	return Filter{Kind: FilterAnd, Subs: subs}
}

// Or combines sub-filters; any may match, evaluated left to right with
// short-circuiting.
func Or(subs ...Filter) Filter {
	return Filter{Kind: FilterOr, Subs: subs}
}

// DateRange matches subjects created within [start, end]. A zero bound is open.
func DateRange(start, end time.Time) Filter {
	return Filter{Kind: FilterDateRange, Start: start, End: end}
}

// Subject is the slice of attributes filters evaluate against: held tags and
// a creation timestamp. Both Ringers and Rings project onto it.
type Subject struct {
	Tags      []Tag
	CreatedAt time.Time
}

// RingerSubject projects a Ringer for filter evaluation.
func RingerSubject(r *Ringer) Subject {
	return Subject{Tags: r.Tags, CreatedAt: r.CreatedAt}
}

// RingSubject projects a Ring for filter evaluation: the ring's timestamp with
// its ringer's tags.
func RingSubject(ring *Ring, ringer *Ringer) Subject {
	return Subject{Tags: ringer.Tags, CreatedAt: ring.CreatedAt}
}

// Matches evaluates the filter. A tag filter matches when every one of its
// tags is held by the subject (set containment, not equality); an empty tag
// set therefore matches everything.
func (f Filter) Matches(s Subject) bool {
	switch f.Kind {
	case FilterTag:
		for _, required := range f.Tags {
			if !subjectHasTag(s, required) {
				return false
			}
		}
		return true
	case FilterAnd:
		for _, sub := range f.Subs {
			if !sub.Matches(s) {
				return false
			}
		}
		return true
	case FilterOr:
		for _, sub := range f.Subs {
			if sub.Matches(s) {
				return true
			}
		}
		return false
	case FilterDateRange:
		if !f.Start.IsZero() && s.CreatedAt.Before(f.Start) {
			return false
		}
		if !f.End.IsZero() && s.CreatedAt.After(f.End) {
			return false
		}
		return true
	default:
		return false
	}
}

// MatchesRinger evaluates the filter against a ringer.
func (f Filter) MatchesRinger(r *Ringer) bool {
	return f.Matches(RingerSubject(r))
}

func subjectHasTag(s Subject, t Tag) bool {
	for _, held := range s.Tags {
		if held == t {
			return true
		}
	}
	return false
}

// Apply returns the subsequence of items whose subjects match, preserving the
// original relative order.
func Apply[T any](f Filter, items []T, subject func(T) Subject) []T {
	var matched []T
	for _, item := range items {
		if f.Matches(subject(item)) {
			matched = append(matched, item)
		}
	}
	return matched
}

// filterJSON is the wire form accepted by ParseFilter.
type filterJSON struct {
	Kind    string       `json:"kind"`
	Tags    []string     `json:"tags,omitempty"`
	Filters []filterJSON `json:"filters,omitempty"`
	Start   *time.Time   `json:"start,omitempty"`
	End     *time.Time   `json:"end,omitempty"`
}

// ParseFilter parses a filter expression from JSON. Nil or empty input yields
// the catch-all filter. Example expressions:
//
//	{"kind":"tag","tags":["area-code:412"]}
//	{"kind":"and","filters":[...]}
//	{"kind":"date-range","start":"2012-01-01T00:00:00Z"}
func ParseFilter(data []byte) (Filter, error) {
	if len(data) == 0 {
		return CatchAll(), nil
	}
	var wire filterJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return Filter{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return filterFromWire(wire)
}

func filterFromWire(wire filterJSON) (Filter, error) {
	switch FilterKind(wire.Kind) {
	case FilterTag:
		tags := make([]Tag, 0, len(wire.Tags))
		for _, s := range wire.Tags {
			tag, err := ParseTag(s)
			if err != nil {
				return Filter{}, err
			}
			tags = append(tags, tag)
		}
		return Filter{Kind: FilterTag, Tags: tags}, nil
	case FilterAnd, FilterOr:
		subs := make([]Filter, 0, len(wire.Filters))
		for _, w := range wire.Filters {
			sub, err := filterFromWire(w)
			if err != nil {
				return Filter{}, err
			}
			subs = append(subs, sub)
		}
		return Filter{Kind: FilterKind(wire.Kind), Subs: subs}, nil
	case FilterDateRange:
		var start, end time.Time
		if wire.Start != nil {
			start = *wire.Start
		}
		if wire.End != nil {
			end = *wire.End
		}
		return DateRange(start, end), nil
	default:
		return Filter{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidFilter, wire.Kind)
	}
}

// MarshalJSON renders the filter back into the wire form ParseFilter accepts.
func (f Filter) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.toWire())
}

func (f Filter) toWire() filterJSON {
	wire := filterJSON{Kind: string(f.Kind)}
	switch f.Kind {
	case FilterTag:
		for _, t := range f.Tags {
			wire.Tags = append(wire.Tags, t.String())
		}
	case FilterAnd, FilterOr:
		for _, sub := range f.Subs {
			wire.Filters = append(wire.Filters, sub.toWire())
		}
	case FilterDateRange:
		if !f.Start.IsZero() {
			start := f.Start
			wire.Start = &start
		}
		if !f.End.IsZero() {
			end := f.End
			wire.End = &end
		}
	}
	return wire
}
