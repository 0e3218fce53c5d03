package result

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// RawRow is one table row as the cell texts the page fetch produced.
type RawRow []string

type CourseRecord struct {
	Semester string
	Code     string
	Title    string
	Credit   decimal.Decimal
	Marks    string
	Percent  decimal.Decimal
}

// Semester is one bucket of course records. Marked is false for courses that
// appeared before any semester marker row.
type Semester struct {
	Label   string
	Marked  bool
	Courses []CourseRecord
}

// Transcript is the ordered output of Extract.
type Transcript struct {
	Semesters []Semester

	// Skipped counts rows whose shape is neither a marker nor a course.
	Skipped int
	// Rejected counts course rows with an unusable credit or percent.
	Rejected int
}

// Courses returns the number of course records across all semesters.
func (t *Transcript) Courses() int {
	n := 0
	for _, s := range t.Semesters {
		n += len(s.Courses)
	}
	return n
}

type Subject struct {
	CourseRecord
	QualityPoint decimal.Decimal
	QualityUnits decimal.Decimal
}

func (s Subject) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Semester *string `json:"semester"`
		Code     string  `json:"code"`
		Title    string  `json:"title"`
		Credit   float64 `json:"credit"`
		Marks    string  `json:"marks"`
		Percent  float64 `json:"percent"`
		GP       string  `json:"gp"`
		QP       string  `json:"qp"`
	}{
		Semester: s.semesterLabel(),
		Code:     s.Code,
		Title:    s.Title,
		Credit:   s.Credit.InexactFloat64(),
		Marks:    s.Marks,
		Percent:  s.Percent.InexactFloat64(),
		GP:       Render(s.QualityPoint),
		QP:       Render(s.QualityUnits),
	})
}

func (s Subject) semesterLabel() *string {
	if s.Semester == "" {
		return nil
	}
	label := s.Semester
	return &label
}

type SemesterSummary struct {
	Semester string
	Marked   bool
	GPA      Score
	Credit   decimal.Decimal
	Units    decimal.Decimal
	Subjects []Subject
}

func (s SemesterSummary) MarshalJSON() ([]byte, error) {
	var label *string
	if s.Marked {
		label = &s.Semester
	}
	subjects := s.Subjects
	if subjects == nil {
		subjects = []Subject{}
	}
	return json.Marshal(struct {
		Semester *string   `json:"semester"`
		GPA      Score     `json:"gpa"`
		Subjects []Subject `json:"subjects"`
	}{label, s.GPA, subjects})
}

type ResultSummary struct {
	Semesters   []SemesterSummary `json:"semesters"`
	CGPA        Score             `json:"cgpa"`
	TotalCredit decimal.Decimal   `json:"-"`
	TotalUnits  decimal.Decimal   `json:"-"`
}
