package app

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/openswoop/uafresult/pkg/report"
)

// Render writes each outcome to w, separating multiple results with a blank
// line. Spreadsheets cannot share a stream, so xlsx needs WriteFiles.
func Render(w io.Writer, outcomes []Outcome, format string) error {
	if format == report.FormatXLSX {
		return fmt.Errorf("%s output needs an output directory", format)
	}
	for i, o := range outcomes {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := report.Write(w, format, o.RegNumber, o.Summary); err != nil {
			return err
		}
	}
	return nil
}

// WriteFiles writes one file per outcome into dir, named after the
// registration number.
func WriteFiles(dir string, outcomes []Outcome, format string) ([]string, error) {
	var files []string
	for _, o := range outcomes {
		name := filepath.Join(dir, fileStem(o.RegNumber))
		file, err := report.WriteFile(name, format, o.RegNumber, o.Summary)
		if err != nil {
			return files, err
		}
		files = append(files, file)
	}
	return files, nil
}

func fileStem(regNumber string) string {
	if regNumber == "" {
		return "result"
	}
	return strings.ToLower(regNumber)
}
