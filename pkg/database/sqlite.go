package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gorp/gorp/v3"
	_ "github.com/mattn/go-sqlite3"

	"github.com/openswoop/uafresult/pkg/persist"
	"github.com/openswoop/uafresult/pkg/report"
)

type Sqlite struct {
	db    *sql.DB
	dbmap *gorp.DbMap
}

func NewSqlite(file string) (Sqlite, error) {
	sqlite := Sqlite{}

	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return sqlite, fmt.Errorf("unable to create database directory: %w", err)
		}
	}

	// Initialize the database connection
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return sqlite, fmt.Errorf("unable to connect to database: %w", err)
	}
	sqlite.db = db

	// Initialize the database mapping, creating the tables if it's our first run
	dbmap := &gorp.DbMap{Db: db, Dialect: gorp.SqliteDialect{}}
	runs := dbmap.AddTableWithName(RunRecord{}, "runs").SetKeys(true, "ID")
	runs.ColMap("RunID").SetUnique(true)
	dbmap.AddTableWithName(SemesterRecord{}, "semesters").SetKeys(true, "ID").
		SetUniqueTogether("run_id", "position")
	dbmap.AddTableWithName(SubjectRecord{}, "subjects").SetKeys(true, "ID").
		SetUniqueTogether("run_id", "semester_position", "position")
	if err := dbmap.CreateTablesIfNotExists(); err != nil {
		_ = db.Close()
		return sqlite, fmt.Errorf("unable to create tables: %w", err)
	}
	sqlite.dbmap = dbmap

	return sqlite, nil
}

func (s Sqlite) SaveRun(run Run) error {
	return s.Save(run)
}

func (s Sqlite) Save(v persist.Persistable) error {
	tx, err := s.dbmap.Begin()
	if err != nil {
		return err
	}
	if err := v.Persist(persist.InsertIgnoringDupes(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// History lists the stored runs for a registration number, newest first.
func (s Sqlite) History(regNumber string) ([]RunRecord, error) {
	var runs []RunRecord
	_, err := s.dbmap.Select(&runs,
		"select * from runs where reg_number = ? order by fetched_at desc, id desc", regNumber)
	return runs, err
}

// Subjects returns the stored subject rows of a run in their original order.
func (s Sqlite) Subjects(runID string) ([]report.SubjectRow, error) {
	var records []SubjectRecord
	_, err := s.dbmap.Select(&records,
		"select * from subjects where run_id = ? order by semester_position, position", runID)
	if err != nil {
		return nil, err
	}
	rows := make([]report.SubjectRow, 0, len(records))
	for _, r := range records {
		row := r.SubjectRow
		row.Semester = r.Semester.String
		rows = append(rows, row)
	}
	return rows, nil
}

func (s Sqlite) Close() error {
	return s.db.Close()
}
