// Package subtitle loads per-stream subtitle timing tables and rasterizes
// the active text into paletted frames.
//
// A table is a YAML document keyed by frame index:
//
//	lines:
//	  - start: 120
//	    end: 180
//	    text: "Where is everybody?"
//
// The renderer draws with the fixed 7x13 bitmap face from
// golang.org/x/image, using whichever palette index the player reserved for
// the frame.
package subtitle

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTable indicates a timing table with impossible entries.
var ErrInvalidTable = errors.New("invalid subtitle table")

// Line is one subtitle shown for frames [Start, End].
type Line struct {
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
	Text  string `yaml:"text"`
}

// Table is the subtitle timing table of one stream, sorted by Start.
type Table struct {
	Lines []Line `yaml:"lines"`
}

// ParseTable decodes and validates a YAML timing table.
func ParseTable(r io.Reader) (*Table, error) {
	var t Table
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(t.Lines, func(i, j int) bool { return t.Lines[i].Start < t.Lines[j].Start })
	return &t, nil
}

// Validate rejects negative or inverted frame ranges.
func (t *Table) Validate() error {
	for i, l := range t.Lines {
		if l.Start < 0 || l.End < l.Start {
			return fmt.Errorf("%w: line %d has frame range [%d,%d]", ErrInvalidTable, i, l.Start, l.End)
		}
	}
	return nil
}

// Lookup returns the text of every line active at frameIndex, in table order.
func (t *Table) Lookup(frameIndex int) []string {
	if t == nil {
		return nil
	}
	var active []string
	for _, l := range t.Lines {
		if l.Start > frameIndex {
			break
		}
		if frameIndex <= l.End && l.Text != "" {
			active = append(active, l.Text)
		}
	}
	return active
}
