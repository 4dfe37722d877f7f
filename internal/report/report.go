// Package report reads and writes the resumable per-session CSV report.
//
// The layout is a header line, one row per frame, a dashed separator, the
// two distance totals, another separator and the four coverage counts:
//
//	frame-index, hPosX, hPosY, tbPosX, tbPosY, WD, HM, h2ac_dist
//	1, 412, 233, 398, 260, 0, 0, 187
//	2, None, None, D, D, 0, 0, None
//	------------------------------------------------------------------
//	Total walking distance, 0
//	...
//
// Position fields hold two integers, "None" for a tag never observed, "D" for
// a tag cleared by a user, or -1 for a failed detection.
package report

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ironsheep/tag-tracker/internal/metrics"
	"github.com/ironsheep/tag-tracker/internal/record"
)

// Header is the first line of every report.
const Header = "frame-index, hPosX, hPosY, tbPosX, tbPosY, WD, HM, h2ac_dist"

// Separator divides the rows from the summary block.
var Separator = strings.Repeat("-", 66)

// Field literals.
const (
	FieldUnknown    = "None"
	FieldDeleted    = "D"
	FieldUnresolved = "-1"
)

// Summary line labels.
const (
	LabelWalking      = "Total walking distance"
	LabelHeadMovement = "Total head movements without walking"
	LabelBoth         = "Number of frames when both tags are detected"
	LabelHeadOnly     = "Number of frames when only head tag is detected"
	LabelTailOnly     = "Number of frames when only tail tag is detected"
	LabelNone         = "Number of frames when no tags are detected"
)

// Write emits rep in report format. Distances are truncated to integers.
func Write(w io.Writer, rep metrics.Report) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, Header)
	for _, row := range rep.Rows {
		hx, hy := positionFields(row.Head)
		tx, ty := positionFields(row.Tail)
		h2ac := FieldUnknown
		if row.HeadToCenter != nil {
			h2ac = strconv.Itoa(*row.HeadToCenter)
		}
		fmt.Fprintf(bw, "%d, %s, %s, %s, %s, %d, %d, %s\n",
			row.Index, hx, hy, tx, ty, int(row.WalkingDistance), int(row.HeadMovement), h2ac)
	}

	fmt.Fprintln(bw, Separator)
	fmt.Fprintf(bw, "%s, %d\n", LabelWalking, int(rep.WalkingDistance))
	fmt.Fprintf(bw, "%s, %d\n", LabelHeadMovement, int(rep.HeadMovement))
	fmt.Fprintln(bw, Separator)
	fmt.Fprintf(bw, "%s, %d\n", LabelBoth, rep.Coverage.Both)
	fmt.Fprintf(bw, "%s, %d\n", LabelHeadOnly, rep.Coverage.HeadOnly)
	fmt.Fprintf(bw, "%s, %d\n", LabelTailOnly, rep.Coverage.TailOnly)
	fmt.Fprintf(bw, "%s, %d\n", LabelNone, rep.Coverage.None)

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteFile writes the report to path through a temporary file in the same
// directory, so an interrupted save never truncates an existing report.
func WriteFile(path string, rep metrics.Report) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, rep); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace report: %w", err)
	}
	return nil
}

func positionFields(p record.Position) (string, string) {
	switch p.Kind {
	case record.KindResolved:
		return strconv.Itoa(p.X), strconv.Itoa(p.Y)
	case record.KindDeleted:
		return FieldDeleted, FieldDeleted
	case record.KindUnresolved:
		return FieldUnresolved, FieldUnresolved
	default:
		return FieldUnknown, FieldUnknown
	}
}

// Parse reads the rows of a report into frameCount records (element 0 is
// frame 1).
//
// Parsing is tolerant. Rows whose index is not an integer in
// [1, frameCount] are skipped, each position field pair is parsed on its own
// and anything unrecognized leaves that tag Unknown. Reading stops at the
// first separator line. HeadToCenter is kept only for a resolved head.
func Parse(r io.Reader, frameCount int) ([]record.FrameRecord, error) {
	records := make([]record.FrameRecord, max(frameCount, 0))

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, fmt.Errorf("failed to read report: %w", err)
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if len(fields) > 0 && strings.HasPrefix(fields[0], "---") {
			break
		}

		idx, err := strconv.Atoi(field(fields, 0))
		if err != nil || idx < 1 || idx > frameCount {
			continue
		}

		rec := record.FrameRecord{
			Head: parsePosition(field(fields, 1), field(fields, 2)),
			Tail: parsePosition(field(fields, 3), field(fields, 4)),
		}
		if rec.Head.IsResolved() {
			if d, err := strconv.Atoi(field(fields, 7)); err == nil {
				rec.HeadToCenter = &d
			}
		}
		records[idx-1] = rec
	}

	return records, nil
}

// ParseFile reads the report at path. A missing file is reported with an
// error satisfying errors.Is(err, os.ErrNotExist).
func ParseFile(path string, frameCount int) ([]record.FrameRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()
	return Parse(f, frameCount)
}

func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

func parsePosition(xs, ys string) record.Position {
	switch {
	case xs == FieldUnknown:
		return record.Unknown()
	case xs == FieldDeleted:
		return record.Deleted()
	}
	x, errX := strconv.Atoi(xs)
	y, errY := strconv.Atoi(ys)
	if errX != nil || errY != nil {
		return record.Unknown()
	}
	if x < 0 || y < 0 {
		return record.Unresolved()
	}
	return record.Resolved(x, y)
}
