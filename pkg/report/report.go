package report

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/openswoop/uafresult/pkg/result"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// SubjectRow is one course of a result, with its semester's GPA and the
// overall CGPA repeated on every row.
type SubjectRow struct {
	RegNumber    string `db:"reg_number" csv:"reg_number" yaml:"-"`
	Semester     string `db:"semester" csv:"semester" yaml:"-"`
	Code         string `db:"code" csv:"code" yaml:"code"`
	Title        string `db:"title" csv:"title" yaml:"title"`
	Credit       string `db:"credit" csv:"credit" yaml:"credit"`
	Marks        string `db:"marks" csv:"marks" yaml:"marks"`
	Percent      string `db:"percent" csv:"percent" yaml:"percent"`
	QualityPoint string `db:"quality_point" csv:"gp" yaml:"gp"`
	QualityUnits string `db:"quality_units" csv:"qp" yaml:"qp"`
	GPA          string `db:"gpa" csv:"gpa" yaml:"-"`
	CGPA         string `db:"cgpa" csv:"cgpa" yaml:"-"`
}

func Flatten(regNumber string, s *result.ResultSummary) []SubjectRow {
	rows := make([]SubjectRow, 0)
	for _, sem := range s.Semesters {
		for _, sub := range sem.Subjects {
			rows = append(rows, SubjectRow{
				RegNumber:    regNumber,
				Semester:     sem.Semester,
				Code:         sub.Code,
				Title:        sub.Title,
				Credit:       sub.Credit.String(),
				Marks:        sub.Marks,
				Percent:      sub.Percent.String(),
				QualityPoint: result.Render(sub.QualityPoint),
				QualityUnits: result.Render(sub.QualityUnits),
				GPA:          sem.GPA.String(),
				CGPA:         s.CGPA.String(),
			})
		}
	}
	return rows
}

// Write renders a result in one of the supported formats.
func Write(w io.Writer, format, regNumber string, s *result.ResultSummary) error {
	switch format {
	case FormatJSON, "":
		return WriteJSON(w, s)
	case FormatYAML:
		return WriteYAML(w, regNumber, s)
	case FormatCSV:
		return gocsv.Marshal(Flatten(regNumber, s), w)
	case FormatXLSX:
		return WriteWorkbook(w, regNumber, s)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// WriteFile writes the result to name with the format's extension appended.
func WriteFile(name, format, regNumber string, s *result.ResultSummary) (string, error) {
	if format == "" {
		format = FormatJSON
	}
	fileName := name + "." + format
	file, err := os.Create(fileName)
	if err != nil {
		return "", err
	}
	if err := Write(file, format, regNumber, s); err != nil {
		_ = file.Close()
		return "", err
	}
	return fileName, file.Close()
}
