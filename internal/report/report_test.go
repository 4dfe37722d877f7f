package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/tag-tracker/internal/metrics"
	"github.com/ironsheep/tag-tracker/internal/record"
)

func intPtr(v int) *int { return &v }

func TestWrite_AllDeleted(t *testing.T) {
	recs := make([]record.FrameRecord, 3)
	for i := range recs {
		recs[i] = record.FrameRecord{Head: record.Deleted(), Tail: record.Deleted()}
	}
	rep := metrics.Compute(recs, metrics.DefaultParams(10, 60))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rep))

	want := strings.Join([]string{
		Header,
		"1, D, D, D, D, 0, 0, None",
		"2, D, D, D, D, 0, 0, None",
		"3, D, D, D, D, 0, 0, None",
		Separator,
		"Total walking distance, 0",
		"Total head movements without walking, 0",
		Separator,
		"Number of frames when both tags are detected, 0",
		"Number of frames when only head tag is detected, 0",
		"Number of frames when only tail tag is detected, 0",
		"Number of frames when no tags are detected, 3",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestWrite_RowFormats(t *testing.T) {
	rep := metrics.Report{
		Rows: []metrics.Row{
			{Index: 1, Head: record.Resolved(412, 233), Tail: record.Resolved(398, 260), HeadToCenter: intPtr(187)},
			{Index: 2, Head: record.Unknown(), Tail: record.Unresolved(), WalkingDistance: 12.9, HeadMovement: 3.2},
		},
		WalkingDistance: 12.9,
		HeadMovement:    3.99,
		Coverage:        metrics.Coverage{Both: 1, None: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rep))
	lines := strings.Split(buf.String(), "\n")

	assert.Equal(t, "1, 412, 233, 398, 260, 0, 0, 187", lines[1])
	assert.Equal(t, "2, None, None, -1, -1, 12, 3, None", lines[2])
	assert.Equal(t, "Total walking distance, 12", lines[4])
	assert.Equal(t, "Total head movements without walking, 3", lines[5])
	assert.Len(t, Separator, 66)
}

func TestWrite_Idempotent(t *testing.T) {
	recs := make([]record.FrameRecord, 90)
	for i := range recs {
		recs[i] = record.FrameRecord{Head: record.Resolved(100+i, 100), Tail: record.Resolved(80+i, 101)}
	}
	p := metrics.DefaultParams(10, 60)

	var a, b bytes.Buffer
	require.NoError(t, Write(&a, metrics.Compute(recs, p)))
	require.NoError(t, Write(&b, metrics.Compute(recs, p)))
	assert.Equal(t, a.String(), b.String())
}

func TestParse_RoundTrip(t *testing.T) {
	recs := []record.FrameRecord{
		{Head: record.Resolved(10, 20), Tail: record.Resolved(30, 40), HeadToCenter: intPtr(55)},
		{Head: record.Deleted(), Tail: record.Unknown()},
		{Head: record.Unresolved(), Tail: record.Resolved(1, 2)},
		{Head: record.Unknown(), Tail: record.Deleted()},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, metrics.Compute(recs, metrics.DefaultParams(10, 60))))

	got, err := Parse(&buf, len(recs))
	require.NoError(t, err)
	assert.Equal(t, recs, got)
}

func TestParse_Tolerant(t *testing.T) {
	input := strings.Join([]string{
		Header,
		"1, 10, 20, None, None, 0, 0, 33",
		"garbage line",
		"2, D, D, x, y, 0, 0, None",
		"9, 1, 1, 1, 1, 0, 0, 1", // out of range
		"3, 5",                   // short row
		"4, None, None, 7, 8, 0, 0, 99",
		Separator,
		"5, 1, 1, 1, 1, 0, 0, 1", // after the separator
		"Total walking distance, 0",
	}, "\n")

	got, err := Parse(strings.NewReader(input), 5)
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.Equal(t, record.Resolved(10, 20), got[0].Head)
	require.NotNil(t, got[0].HeadToCenter)
	assert.Equal(t, 33, *got[0].HeadToCenter)

	assert.Equal(t, record.Deleted(), got[1].Head)
	assert.Equal(t, record.Unknown(), got[1].Tail, "unparsable pair stays unknown")

	assert.Equal(t, record.Unknown(), got[2].Head, "short row has no head pair")
	assert.Equal(t, record.Unknown(), got[2].Tail)

	assert.Equal(t, record.Resolved(7, 8), got[3].Tail)
	assert.Nil(t, got[3].HeadToCenter, "distance dropped without a resolved head")

	assert.Equal(t, record.FrameRecord{}, got[4], "rows after the separator are ignored")
}

func TestParse_EmptyInput(t *testing.T) {
	got, err := Parse(strings.NewReader(""), 2)
	require.NoError(t, err)
	assert.Equal(t, make([]record.FrameRecord, 2), got)
}

func TestWriteFile_ParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "287_NE_2.csv")
	recs := []record.FrameRecord{{Head: record.Resolved(3, 4), Tail: record.Deleted()}}

	require.NoError(t, WriteFile(path, metrics.Compute(recs, metrics.DefaultParams(10, 60))))

	got, err := ParseFile(path, 1)
	require.NoError(t, err)
	assert.Equal(t, recs[0].Head, got[0].Head)
	assert.Equal(t, recs[0].Tail, got[0].Tail)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be gone")

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.csv"), 1)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
