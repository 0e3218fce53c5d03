package result

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	semesterMarker = "Semester"
	courseCells    = 5
	maxExponent    = 308
)

// Credit cells read like "3(2-1)", so only the leading number counts.
var leadingNumberR = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// DecodeRows reads the collaborator wire shape: a JSON array of arrays of
// strings. A null row or cell is an error rather than an empty value.
func DecodeRows(r io.Reader) ([]RawRow, error) {
	var raw [][]*string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &ExtractionError{Row: -1, Reason: "rows are not a list of string lists", Err: err}
	}
	if raw == nil {
		return nil, &ExtractionError{Row: -1, Reason: "no rows"}
	}

	rows := make([]RawRow, len(raw))
	for i, cells := range raw {
		// "[]" decodes to an empty slice, only null leaves it nil
		if cells == nil {
			return nil, &ExtractionError{Row: i, Reason: "row is null"}
		}
		row := make(RawRow, len(cells))
		for j, cell := range cells {
			if cell == nil {
				return nil, &ExtractionError{Row: i, Reason: fmt.Sprintf("cell %d is null", j)}
			}
			row[j] = *cell
		}
		rows[i] = row
	}
	return rows, nil
}

// Extract partitions rows into semesters. Each course belongs to the semester
// marker most recently seen before it; courses that precede every marker are
// collected in an unmarked semester. Semesters keep first-encounter order.
func Extract(rows []RawRow) (*Transcript, error) {
	if rows == nil {
		return nil, &ExtractionError{Row: -1, Reason: "no rows"}
	}

	t := &Transcript{}
	labels := make(map[string]int)
	current := -1 // no marker seen yet

	open := func(label string) int {
		if i, ok := labels[label]; ok {
			return i
		}
		t.Semesters = append(t.Semesters, Semester{Label: label, Marked: true})
		labels[label] = len(t.Semesters) - 1
		return labels[label]
	}

	for i, row := range rows {
		for _, cell := range row {
			if !utf8.ValidString(cell) {
				return nil, &ExtractionError{Row: i, Reason: "cell is not valid text"}
			}
		}

		switch {
		case len(row) == 1 && strings.Contains(row[0], semesterMarker):
			current = open(strings.TrimSpace(row[0]))
		case len(row) >= courseCells:
			record, ok := parseCourse(row)
			if !ok {
				t.Rejected++
				continue
			}
			if current < 0 {
				// Courses ahead of every marker get their own unmarked bucket
				t.Semesters = append(t.Semesters, Semester{})
				current = len(t.Semesters) - 1
			}
			record.Semester = t.Semesters[current].Label
			t.Semesters[current].Courses = append(t.Semesters[current].Courses, record)
		default:
			t.Skipped++
		}
	}

	return t, nil
}

func parseCourse(row RawRow) (CourseRecord, bool) {
	credit, ok := leadingNumber(row[2])
	if !ok || credit.IsNegative() {
		return CourseRecord{}, false
	}
	percent, ok := leadingNumber(row[4])
	if !ok {
		return CourseRecord{}, false
	}
	return CourseRecord{
		Code:    strings.TrimSpace(row[0]),
		Title:   strings.TrimSpace(row[1]),
		Credit:  credit,
		Marks:   strings.TrimSpace(row[3]),
		Percent: percent,
	}, true
}

func leadingNumber(cell string) (decimal.Decimal, bool) {
	match := leadingNumberR.FindString(strings.TrimSpace(cell))
	if match == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero, false
	}
	// Outside the float64 range the cell is not a finite number
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero, false
	}
	return d, true
}
