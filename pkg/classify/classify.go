// Package classify maps bottle height to a size band.
package classify

import (
	"fmt"
	"strings"
)

// Category is a bottle size band.
type Category int

const (
	Small Category = iota
	Medium
	Large
)

// Band upper limits in cm, inclusive.
const (
	SmallMax  float32 = 15.0
	MediumMax float32 = 25.0
)

var names = [...]string{
	Small:  "Small",
	Medium: "Medium",
	Large:  "Large",
}

// Classify returns the size band for a height in cm.
func Classify(height float32) Category {
	switch {
	case height <= SmallMax:
		return Small
	case height <= MediumMax:
		return Medium
	default:
		return Large
	}
}

func (c Category) String() string {
	if c < Small || c > Large {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return names[c]
}

// Parse converts a category name back into a Category. Matching is case
// insensitive.
func Parse(s string) (Category, error) {
	for i, n := range names {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown size category %q", s)
}
