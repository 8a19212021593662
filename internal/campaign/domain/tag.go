package domain

import (
	"fmt"
	"strings"
)

// Tag is a (category, value) pair, e.g. "area-code:412", globally unique by
// that pair.
type Tag struct {
	Category string
	Value    string
}

// ParseTag parses the canonical "category:value" form. Strings without exactly
// one separator are rejected.
func ParseTag(s string) (Tag, error) {
	if strings.Count(s, ":") != 1 {
		return Tag{}, fmt.Errorf("%w: %q must contain exactly one ':'", ErrInvalidTag, s)
	}
	parts := strings.SplitN(s, ":", 2)
	category, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if category == "" || value == "" {
		return Tag{}, fmt.Errorf("%w: %q has an empty category or value", ErrInvalidTag, s)
	}
	return Tag{Category: category, Value: value}, nil
}

func (t Tag) String() string {
	return t.Category + ":" + t.Value
}
