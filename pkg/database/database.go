package database

import (
	"database/sql"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/openswoop/uafresult/pkg/persist"
	"github.com/openswoop/uafresult/pkg/report"
	"github.com/openswoop/uafresult/pkg/result"
)

type Database interface {
	io.Closer
	SaveRun(Run) error
}

// Run is one computed result for one registration number.
type Run struct {
	ID        string
	RegNumber string
	FetchedAt time.Time
	Summary   *result.ResultSummary
}

func NewRun(regNumber string, s *result.ResultSummary) Run {
	return Run{
		ID:        uuid.NewString(),
		RegNumber: regNumber,
		FetchedAt: time.Now().UTC(),
		Summary:   s,
	}
}

type RunRecord struct {
	ID          uint64         `db:"id" csv:"-"`
	RunID       string         `db:"run_id" csv:"run_id"`
	RegNumber   string         `db:"reg_number" csv:"reg_number"`
	FetchedAt   time.Time      `db:"fetched_at" csv:"fetched_at"`
	Semesters   int            `db:"semesters" csv:"semesters"`
	TotalCredit string         `db:"total_credit" csv:"total_credit"`
	CGPA        sql.NullString `db:"cgpa" csv:"-"`
}

// CGPAText is the CGPA as shown to users, N/A when it was not computable.
func (r RunRecord) CGPAText() string {
	if !r.CGPA.Valid {
		return result.NotComputable.String()
	}
	return r.CGPA.String
}

type SemesterRecord struct {
	ID       uint64         `db:"id"`
	RunID    string         `db:"run_id"`
	Position int            `db:"position"`
	Semester sql.NullString `db:"semester"`
	Credit   string         `db:"credit"`
	GPA      sql.NullString `db:"gpa"`
}

// SubjectRecord stores a SubjectRow. Its Semester column replaces the
// embedded one so that courses outside any semester are NULL.
type SubjectRecord struct {
	ID               uint64         `db:"id" csv:"-"`
	RunID            string         `db:"run_id" csv:"-"`
	SemesterPosition int            `db:"semester_position" csv:"-"`
	Position         int            `db:"position" csv:"-"`
	Semester         sql.NullString `db:"semester" csv:"-"`
	report.SubjectRow
}

func nullScore(s result.Score) sql.NullString {
	if !s.Computable() {
		return sql.NullString{}
	}
	return sql.NullString{String: s.String(), Valid: true}
}

func (r Run) Persist(tx persist.Transaction) error {
	s := r.Summary
	semesterCount := len(s.Semesters)
	if err := tx.Insert(&RunRecord{
		RunID:       r.ID,
		RegNumber:   r.RegNumber,
		FetchedAt:   r.FetchedAt,
		Semesters:   semesterCount,
		TotalCredit: s.TotalCredit.String(),
		CGPA:        nullScore(s.CGPA),
	}); err != nil {
		return err
	}

	rows := report.Flatten(r.RegNumber, s)
	next := 0
	for i, sem := range s.Semesters {
		semester := &SemesterRecord{
			RunID:    r.ID,
			Position: i,
			Semester: sql.NullString{String: sem.Semester, Valid: sem.Marked},
			Credit:   sem.Credit.String(),
			GPA:      nullScore(sem.GPA),
		}
		if err := tx.Insert(semester); err != nil {
			return err
		}
		for j := range sem.Subjects {
			subject := &SubjectRecord{
				RunID:            r.ID,
				SemesterPosition: i,
				Position:         j,
				Semester:         sql.NullString{String: sem.Semester, Valid: sem.Marked},
				SubjectRow:       rows[next],
			}
			next++
			if err := tx.Insert(subject); err != nil {
				return err
			}
		}
	}
	return nil
}
