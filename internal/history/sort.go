// Package history orders and pages analysis history.
//
// Sorting applies to one fetched page only. The service returns history in
// its own order and offers no sorted query, so a sort never reaches records
// on other pages. Changing pages fetches the next slice in service order and
// the active sort is then applied to that slice.
package history

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/user/pcapview/internal/model"
)

// Column is a sortable history column.
type Column string

const (
	ColumnID        Column = "id"
	ColumnFilename  Column = "filename"
	ColumnTimestamp Column = "timestamp"
	ColumnStatus    Column = "status"
)

// Columns lists the sortable columns in display order.
var Columns = []Column{ColumnID, ColumnFilename, ColumnTimestamp, ColumnStatus}

// ParseColumn returns the column named s.
func ParseColumn(s string) (Column, bool) {
	for _, c := range Columns {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Title returns the column header text.
func (c Column) Title() string {
	switch c {
	case ColumnID:
		return "ID"
	case ColumnFilename:
		return "Filename"
	case ColumnTimestamp:
		return "Timestamp"
	case ColumnStatus:
		return "Status"
	default:
		return string(c)
	}
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection returns the direction named s.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case Asc, Desc:
		return Direction(s), true
	}
	return "", false
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// Indicator returns the arrow shown next to the active column.
func (d Direction) Indicator() string {
	if d == Asc {
		return "▲"
	}
	return "▼"
}

// SortState is the active column and direction.
type SortState struct {
	Column    Column
	Direction Direction
}

// DefaultSort shows the newest analyses first.
var DefaultSort = SortState{Column: ColumnTimestamp, Direction: Desc}

// Toggle returns the state after the operator selects col: the active
// column flips direction, any other column starts ascending.
func (s SortState) Toggle(col Column) SortState {
	if s.Column == col {
		return SortState{Column: col, Direction: s.Direction.Flip()}
	}
	return SortState{Column: col, Direction: Asc}
}

// Indicator returns the arrow for col, or "" when col is not active.
func (s SortState) Indicator(col Column) string {
	if s.Column != col {
		return ""
	}
	return s.Direction.Indicator()
}

// Sort returns a new slice ordered by col in dir. Equal keys keep their
// input order in both directions. The input is not modified.
// An unknown column returns the records in input order.
func Sort(records []model.AnalysisRecord, col Column, dir Direction) []model.AnalysisRecord {
	out := make([]model.AnalysisRecord, len(records))
	copy(out, records)

	cmp := comparator(col)
	if cmp == nil {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// Apply sorts records by the state.
func (s SortState) Apply(records []model.AnalysisRecord) []model.AnalysisRecord {
	return Sort(records, s.Column, s.Direction)
}

func comparator(col Column) func(a, b model.AnalysisRecord) int {
	switch col {
	case ColumnID:
		return func(a, b model.AnalysisRecord) int {
			switch {
			case a.ID < b.ID:
				return -1
			case a.ID > b.ID:
				return 1
			}
			return 0
		}
	case ColumnTimestamp:
		return func(a, b model.AnalysisRecord) int {
			return model.CompareTimestamps(a.Timestamp, b.Timestamp)
		}
	case ColumnFilename:
		coll := collate.New(language.English)
		return func(a, b model.AnalysisRecord) int {
			return coll.CompareString(a.Filename, b.Filename)
		}
	case ColumnStatus:
		coll := collate.New(language.English)
		return func(a, b model.AnalysisRecord) int {
			return coll.CompareString(string(a.Status), string(b.Status))
		}
	}
	return nil
}
