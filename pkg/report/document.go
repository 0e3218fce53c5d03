package report

import (
	"encoding/json"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/openswoop/uafresult/pkg/result"
)

func WriteJSON(w io.Writer, s *result.ResultSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

type semesterDoc struct {
	Semester *string      `yaml:"semester"`
	GPA      *string      `yaml:"gpa"`
	Subjects []SubjectRow `yaml:"subjects"`
}

type resultDoc struct {
	RegNumber string        `yaml:"reg_number,omitempty"`
	Semesters []semesterDoc `yaml:"semesters"`
	CGPA      *string       `yaml:"cgpa"`
}

func WriteYAML(w io.Writer, regNumber string, s *result.ResultSummary) error {
	doc := resultDoc{RegNumber: regNumber, CGPA: scoreText(s.CGPA)}
	rows := Flatten(regNumber, s)
	next := 0
	for _, sem := range s.Semesters {
		sd := semesterDoc{GPA: scoreText(sem.GPA), Subjects: rows[next : next+len(sem.Subjects)]}
		if sem.Marked {
			label := sem.Semester
			sd.Semester = &label
		}
		next += len(sem.Subjects)
		doc.Semesters = append(doc.Semesters, sd)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func scoreText(s result.Score) *string {
	if !s.Computable() {
		return nil
	}
	text := s.String()
	return &text
}
