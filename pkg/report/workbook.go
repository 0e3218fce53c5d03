package report

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/openswoop/uafresult/pkg/result"
)

const sheetName = "Result"

var workbookHeader = []interface{}{
	"Semester", "Code", "Title", "Credit", "Marks", "Percent", "GP", "QP", "GPA",
}

// WriteWorkbook lays the result out as a single spreadsheet: one row per
// subject, then the CGPA.
func WriteWorkbook(w io.Writer, regNumber string, s *result.ResultSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	line := 1
	put := func(values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		line++
		return f.SetSheetRow(sheetName, cell, &values)
	}

	if regNumber != "" {
		if err := put([]interface{}{"Registration", regNumber}); err != nil {
			return err
		}
	}
	if err := put(workbookHeader); err != nil {
		return err
	}
	for _, row := range Flatten(regNumber, s) {
		err := put([]interface{}{
			row.Semester, row.Code, row.Title, row.Credit, row.Marks,
			row.Percent, row.QualityPoint, row.QualityUnits, row.GPA,
		})
		if err != nil {
			return err
		}
	}
	if err := put([]interface{}{"CGPA", s.CGPA.String()}); err != nil {
		return err
	}

	return f.Write(w)
}
