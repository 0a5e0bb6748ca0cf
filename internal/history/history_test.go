package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/pcapview/internal/model"
)

func rec(id int64, filename, ts string, status model.Status) model.AnalysisRecord {
	return model.AnalysisRecord{ID: id, Filename: filename, Timestamp: model.ParseTimestamp(ts), Status: status}
}

func ids(records []model.AnalysisRecord) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestSortTimestampComparesInstants(t *testing.T) {
	records := []model.AnalysisRecord{
		rec(1, "a.pcap", "2024-01-02T00:00:00Z", model.StatusSuccess),
		rec(2, "b.pcap", "2024-01-01T23:00:00Z", model.StatusSuccess),
	}
	assert.Equal(t, []int64{2, 1}, ids(Sort(records, ColumnTimestamp, Asc)))
	assert.Equal(t, []int64{1, 2}, ids(Sort(records, ColumnTimestamp, Desc)))
}

func TestSortTimestampAcrossRepresentations(t *testing.T) {
	records := []model.AnalysisRecord{
		rec(1, "", "2024-01-01T12:00:00+02:00", model.StatusSuccess), // 10:00Z
		rec(2, "", "2024-01-01T11:00:00Z", model.StatusSuccess),
		rec(3, "", "2024-01-01 10:30:00", model.StatusSuccess),
		rec(4, "", "not a date", model.StatusSuccess),
	}
	assert.Equal(t, []int64{4, 1, 3, 2}, ids(Sort(records, ColumnTimestamp, Asc)))
}

func TestSortIDIsNumeric(t *testing.T) {
	records := []model.AnalysisRecord{rec(10, "", "", ""), rec(9, "", "", ""), rec(100, "", "", "")}
	assert.Equal(t, []int64{9, 10, 100}, ids(Sort(records, ColumnID, Asc)))
	assert.Equal(t, []int64{100, 10, 9}, ids(Sort(records, ColumnID, Desc)))
}

func TestSortFilenameIsLocaleAware(t *testing.T) {
	records := []model.AnalysisRecord{
		rec(1, "beta.pcap", "", ""),
		rec(2, "Alpha.pcap", "", ""),
		rec(3, "alpha.pcap", "", ""),
		rec(4, "Éclair.pcap", "", ""),
	}
	got := Sort(records, ColumnFilename, Asc)
	// case and accents do not outrank the base letter
	assert.Equal(t, int64(1), got[2].ID)
	assert.Equal(t, int64(4), got[3].ID)
}

func TestSortIsStableForEveryColumnAndDirection(t *testing.T) {
	records := []model.AnalysisRecord{
		rec(7, "same.pcap", "2024-03-01T00:00:00Z", model.StatusPending),
		rec(7, "same.pcap", "2024-03-01T00:00:00Z", model.StatusPending),
		rec(7, "same.pcap", "2024-03-01T00:00:00Z", model.StatusPending),
	}
	// distinguish the otherwise equal records
	records[0].ErrorMessage = "first"
	records[1].ErrorMessage = "second"
	records[2].ErrorMessage = "third"

	for _, col := range Columns {
		for _, dir := range []Direction{Asc, Desc} {
			got := Sort(records, col, dir)
			require.Len(t, got, 3)
			assert.Equal(t, "first", got[0].ErrorMessage, "%s %s", col, dir)
			assert.Equal(t, "second", got[1].ErrorMessage, "%s %s", col, dir)
			assert.Equal(t, "third", got[2].ErrorMessage, "%s %s", col, dir)
		}
	}
}

func TestSortStableAmongMixedKeys(t *testing.T) {
	records := []model.AnalysisRecord{
		rec(1, "", "", model.StatusSuccess),
		rec(2, "", "", model.StatusFailure),
		rec(3, "", "", model.StatusSuccess),
		rec(4, "", "", model.StatusFailure),
	}
	assert.Equal(t, []int64{2, 4, 1, 3}, ids(Sort(records, ColumnStatus, Asc)))
	assert.Equal(t, []int64{1, 3, 2, 4}, ids(Sort(records, ColumnStatus, Desc)))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	records := []model.AnalysisRecord{rec(2, "", "", ""), rec(1, "", "", "")}
	_ = Sort(records, ColumnID, Asc)
	assert.Equal(t, []int64{2, 1}, ids(records))
	assert.Equal(t, []int64{2, 1}, ids(Sort(records, Column("size"), Asc)))
}

func TestToggle(t *testing.T) {
	s := DefaultSort
	assert.Equal(t, SortState{ColumnTimestamp, Desc}, s)

	s = s.Toggle(ColumnTimestamp)
	assert.Equal(t, SortState{ColumnTimestamp, Asc}, s)

	s = s.Toggle(ColumnFilename)
	assert.Equal(t, SortState{ColumnFilename, Asc}, s)

	s = s.Toggle(ColumnFilename)
	assert.Equal(t, SortState{ColumnFilename, Desc}, s)

	s = s.Toggle(ColumnID)
	assert.Equal(t, SortState{ColumnID, Asc}, s)
	assert.Equal(t, "▲", s.Indicator(ColumnID))
	assert.Equal(t, "", s.Indicator(ColumnStatus))
}

func TestParse(t *testing.T) {
	c, ok := ParseColumn("status")
	assert.True(t, ok)
	assert.Equal(t, ColumnStatus, c)
	_, ok = ParseColumn("size")
	assert.False(t, ok)

	d, ok := ParseDirection("desc")
	assert.True(t, ok)
	assert.Equal(t, Desc, d)
	_, ok = ParseDirection("up")
	assert.False(t, ok)
}

func TestComputeWindow(t *testing.T) {
	tests := []struct {
		name                          string
		total, size, current, buttons int
		wantPages                     int
		wantVisible                   []int
	}{
		{"first page", 47, 10, 1, 5, 5, []int{1, 2, 3, 4, 5}},
		{"last page slides left", 47, 10, 5, 5, 5, []int{1, 2, 3, 4, 5}},
		{"centered", 200, 10, 10, 5, 20, []int{8, 9, 10, 11, 12}},
		{"near end", 200, 10, 19, 5, 20, []int{16, 17, 18, 19, 20}},
		{"fewer pages than buttons", 25, 10, 2, 5, 3, []int{1, 2, 3}},
		{"even button count", 100, 10, 5, 4, 10, []int{3, 4, 5, 6}},
		{"exact multiple", 30, 10, 3, 5, 3, []int{1, 2, 3}},
		{"single record", 1, 10, 1, 5, 1, []int{1}},
		{"current beyond range is clamped", 47, 10, 9, 5, 5, []int{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ComputeWindow(tt.total, tt.size, tt.current, tt.buttons)
			assert.Equal(t, tt.wantPages, w.TotalPages)
			assert.Equal(t, tt.wantVisible, w.Pages)
		})
	}
}

func TestComputeWindowEmpty(t *testing.T) {
	w := ComputeWindow(0, 10, 1, 5)
	assert.Equal(t, 0, w.TotalPages)
	assert.Empty(t, w.Pages)
	assert.False(t, w.HasPrev())
	assert.False(t, w.HasNext())

	assert.Empty(t, ComputeWindow(10, 0, 1, 5).Pages)
	assert.Empty(t, ComputeWindow(10, 10, 1, 0).Pages)
}

func TestWindowBounds(t *testing.T) {
	w := ComputeWindow(47, 10, 1, 5)
	assert.False(t, w.HasPrev())
	assert.True(t, w.HasNext())

	w = ComputeWindow(47, 10, 5, 5)
	assert.True(t, w.HasPrev())
	assert.False(t, w.HasNext())
}

func TestPagerGoTo(t *testing.T) {
	p := NewPager(10)
	assert.False(t, p.GoTo(2), "total unknown")

	p.Total = 47
	assert.False(t, p.GoTo(0))
	assert.False(t, p.GoTo(6))
	assert.Equal(t, 1, p.Page)

	assert.True(t, p.GoTo(5))
	assert.Equal(t, 5, p.Page)
	assert.Equal(t, 40, p.Skip())
	assert.False(t, p.GoTo(5))

	assert.True(t, p.SetPageSize(20))
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 3, p.TotalPages())
	assert.False(t, p.SetPageSize(0))
}
