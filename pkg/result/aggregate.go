package result

import "github.com/shopspring/decimal"

// Aggregate computes semester GPAs and the CGPA using GradeScale.
func Aggregate(t *Transcript) *ResultSummary {
	return GradeScale.Aggregate(t)
}

// Aggregate weights each course's quality point by its credit. A semester or
// the whole result with zero credit gets NotComputable instead of a value.
func (s Scale) Aggregate(t *Transcript) *ResultSummary {
	summary := &ResultSummary{
		Semesters:   make([]SemesterSummary, 0, len(t.Semesters)),
		TotalCredit: decimal.Zero,
		TotalUnits:  decimal.Zero,
	}

	for _, sem := range t.Semesters {
		units, credit := decimal.Zero, decimal.Zero
		subjects := make([]Subject, 0, len(sem.Courses))
		for _, course := range sem.Courses {
			point := s.Lookup(course.Percent)
			courseUnits := point.Mul(course.Credit)
			units = units.Add(courseUnits)
			credit = credit.Add(course.Credit)
			subjects = append(subjects, Subject{
				CourseRecord: course,
				QualityPoint: point,
				QualityUnits: courseUnits,
			})
		}

		summary.Semesters = append(summary.Semesters, SemesterSummary{
			Semester: sem.Label,
			Marked:   sem.Marked,
			GPA:      Ratio(units, credit),
			Credit:   credit,
			Units:    units,
			Subjects: subjects,
		})
		summary.TotalUnits = summary.TotalUnits.Add(units)
		summary.TotalCredit = summary.TotalCredit.Add(credit)
	}

	summary.CGPA = Ratio(summary.TotalUnits, summary.TotalCredit)
	return summary
}

// Compute runs extraction and aggregation over one set of rows.
func Compute(rows []RawRow) (*ResultSummary, *Transcript, error) {
	t, err := Extract(rows)
	if err != nil {
		return nil, nil, err
	}
	return Aggregate(t), t, nil
}
