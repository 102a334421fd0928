// Package diag formats and parses the station's diagnostic stream: one text
// line per completed inspection.
package diag

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/itohio/bottlesort/pkg/classify"
)

// Record is one diagnostic line.
type Record struct {
	Height   float32
	Size     classify.Category
	Water    bool
	Accepted bool
}

// Status returns ACCEPTED or REJECTED.
func (r Record) Status() string {
	if r.Accepted {
		return "ACCEPTED"
	}
	return "REJECTED"
}

// String formats the record as a diagnostic line without the newline.
// Example: Height: 10.00cm | Size: Small | Water: No | Status: ACCEPTED
func (r Record) String() string {
	water := "No"
	if r.Water {
		water = "Yes"
	}
	return fmt.Sprintf("Height: %.2fcm | Size: %s | Water: %s | Status: %s", r.Height, r.Size, water, r.Status())
}

// Parse parses a diagnostic line produced by Record.String.
func Parse(line string) (Record, error) {
	parts := strings.Split(strings.TrimSpace(line), "|")
	if len(parts) != 4 {
		return Record{}, fmt.Errorf("invalid line format: expected 4 |-separated fields, got %d", len(parts))
	}

	fields := make(map[string]string, len(parts))
	for _, p := range parts {
		key, value, ok := strings.Cut(p, ":")
		if !ok {
			return Record{}, fmt.Errorf("invalid field %q: missing ':'", strings.TrimSpace(p))
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	var r Record

	height, ok := fields["Height"]
	if !ok {
		return Record{}, fmt.Errorf("missing Height field")
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(height, "cm"), 32)
	if err != nil {
		return Record{}, fmt.Errorf("invalid height: %w", err)
	}
	if h < 0 {
		return Record{}, fmt.Errorf("height out of range: %v", h)
	}
	r.Height = float32(h)

	r.Size, err = classify.Parse(fields["Size"])
	if err != nil {
		return Record{}, fmt.Errorf("invalid size: %w", err)
	}

	switch fields["Water"] {
	case "Yes":
		r.Water = true
	case "No":
	default:
		return Record{}, fmt.Errorf("invalid water value %q", fields["Water"])
	}

	switch fields["Status"] {
	case "ACCEPTED":
		r.Accepted = true
	case "REJECTED":
	default:
		return Record{}, fmt.Errorf("invalid status %q", fields["Status"])
	}

	return r, nil
}

// Tally counts inspections seen on a diagnostic stream.
type Tally struct {
	Total    int
	Accepted int
	Rejected int
	BySize   [3]int // indexed by classify.Category
}

// Add counts one record.
func (t *Tally) Add(r Record) {
	t.Total++
	if r.Accepted {
		t.Accepted++
	} else {
		t.Rejected++
	}
	if r.Size >= classify.Small && r.Size <= classify.Large {
		t.BySize[r.Size]++
	}
}

func (t Tally) String() string {
	return fmt.Sprintf("total=%d accepted=%d rejected=%d small=%d medium=%d large=%d",
		t.Total, t.Accepted, t.Rejected,
		t.BySize[classify.Small], t.BySize[classify.Medium], t.BySize[classify.Large])
}
