package result

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAggregate(t *testing.T, rows []RawRow) *ResultSummary {
	t.Helper()
	summary, _, err := Compute(rows)
	require.NoError(t, err)
	return summary
}

func TestAggregateWeightedSemesterGPA(t *testing.T) {
	summary := mustAggregate(t, []RawRow{
		marker("Semester 1"),
		course("A", "3", "80"),
		course("B", "1", "50"),
	})

	require.Len(t, summary.Semesters, 1)
	sem := summary.Semesters[0]
	// (3*4.00 + 1*1.67) / 4 = 3.4175
	assert.Equal(t, "3.42", sem.GPA.String())
	assert.Equal(t, "13.67", sem.Units.String())
	assert.Equal(t, "4", sem.Credit.String())

	require.Len(t, sem.Subjects, 2)
	assert.Equal(t, "4.00", Render(sem.Subjects[0].QualityPoint))
	assert.Equal(t, "12.00", Render(sem.Subjects[0].QualityUnits))
	assert.Equal(t, "1.67", Render(sem.Subjects[1].QualityPoint))
	assert.Equal(t, "1.67", Render(sem.Subjects[1].QualityUnits))
}

func TestAggregateCGPAIsCreditWeighted(t *testing.T) {
	summary := mustAggregate(t, []RawRow{
		marker("Semester 1"),
		course("A", "4", "65"), // 4 * 3.00 = 12
		marker("Semester 2"),
		course("B", "3", "55"), // 3 * 2.00 = 6
	})

	assert.Equal(t, "3.00", summary.Semesters[0].GPA.String())
	assert.Equal(t, "2.00", summary.Semesters[1].GPA.String())
	// 18 / 7, not the mean of the two GPAs (2.50)
	assert.Equal(t, "2.57", summary.CGPA.String())
	assert.Equal(t, "18", summary.TotalUnits.String())
	assert.Equal(t, "7", summary.TotalCredit.String())
}

func TestAggregateZeroCreditSemester(t *testing.T) {
	summary := mustAggregate(t, []RawRow{
		marker("Semester 1"),
		marker("Semester 2"),
		course("A", "0", "90"),
		course("B", "0", "30"),
		marker("Semester 3"),
		course("C", "3", "80"),
	})

	require.Len(t, summary.Semesters, 3)
	assert.False(t, summary.Semesters[0].GPA.Computable())
	assert.False(t, summary.Semesters[1].GPA.Computable())
	assert.Equal(t, "N/A", summary.Semesters[1].GPA.String())
	assert.Equal(t, "4.00", summary.Semesters[2].GPA.String())
	assert.Equal(t, "4.00", summary.CGPA.String())
	assert.Equal(t, "3", summary.TotalCredit.String())
}

func TestAggregateNoCreditAtAll(t *testing.T) {
	summary := mustAggregate(t, []RawRow{marker("Semester 1")})
	assert.Equal(t, NotComputable, summary.CGPA)

	summary = mustAggregate(t, []RawRow{})
	assert.Empty(t, summary.Semesters)
	assert.False(t, summary.CGPA.Computable())
}

func TestAggregateHalfUpRounding(t *testing.T) {
	cases := []struct {
		units, credit, want string
	}{
		{"13.67", "4", "3.42"},
		{"3.005", "1", "3.01"},
		{"3.004", "1", "3.00"},
		{"7.49", "2", "3.75"},
		{"18", "7", "2.57"},
		{"20", "6", "3.33"},
	}
	for _, tc := range cases {
		got := Ratio(decimal.RequireFromString(tc.units), decimal.RequireFromString(tc.credit))
		assert.Equal(t, tc.want, got.String(), "%s/%s", tc.units, tc.credit)
	}
}

func TestAggregateIsPure(t *testing.T) {
	rows := []RawRow{
		course("X", "2", "61"),
		marker("Semester 1"),
		course("A", "3", "80"),
		course("B", "1", "50"),
		marker("Semester 2"),
		course("C", "3", "74.5"),
	}

	first, err := json.Marshal(mustAggregate(t, rows))
	require.NoError(t, err)

	var wg sync.WaitGroup
	outputs := make([][]byte, 8)
	for i := range outputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			summary, _, err := Compute(rows)
			if err != nil {
				return
			}
			outputs[i], _ = json.Marshal(summary)
		}(i)
	}
	wg.Wait()

	for _, out := range outputs {
		assert.Equal(t, string(first), string(out))
	}
}

func TestAggregateDoesNotMutateTranscript(t *testing.T) {
	tr, err := Extract([]RawRow{marker("Semester 1"), course("A", "3", "80")})
	require.NoError(t, err)
	before := tr.Semesters[0].Courses[0]

	Aggregate(tr)
	Aggregate(tr)

	assert.Equal(t, before.Code, tr.Semesters[0].Courses[0].Code)
	assert.Len(t, tr.Semesters[0].Courses, 1)
}

func TestResultSummaryJSON(t *testing.T) {
	summary := mustAggregate(t, []RawRow{
		course("X", "1", "40"),
		marker("Semester 1"),
		course("A", "3", "80"),
		marker("Semester 2"),
	})

	out, err := json.Marshal(summary)
	require.NoError(t, err)

	var decoded struct {
		Semesters []struct {
			Semester *string `json:"semester"`
			GPA      *string `json:"gpa"`
			Subjects []struct {
				Semester *string `json:"semester"`
				Code     string  `json:"code"`
				Credit   float64 `json:"credit"`
				Marks    string  `json:"marks"`
				Percent  float64 `json:"percent"`
				GP       string  `json:"gp"`
				QP       string  `json:"qp"`
			} `json:"subjects"`
		} `json:"semesters"`
		CGPA *string `json:"cgpa"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded.Semesters, 3)

	unmarked := decoded.Semesters[0]
	assert.Nil(t, unmarked.Semester)
	require.Len(t, unmarked.Subjects, 1)
	assert.Nil(t, unmarked.Subjects[0].Semester)
	assert.Equal(t, "1.00", *unmarked.GPA)

	first := decoded.Semesters[1]
	require.NotNil(t, first.Semester)
	assert.Equal(t, "Semester 1", *first.Semester)
	assert.Equal(t, "4.00", *first.GPA)
	assert.Equal(t, "A", first.Subjects[0].Code)
	assert.Equal(t, 3.0, first.Subjects[0].Credit)
	assert.Equal(t, "42", first.Subjects[0].Marks)
	assert.Equal(t, 80.0, first.Subjects[0].Percent)
	assert.Equal(t, "4.00", first.Subjects[0].GP)
	assert.Equal(t, "12.00", first.Subjects[0].QP)

	empty := decoded.Semesters[2]
	assert.Nil(t, empty.GPA)
	assert.NotNil(t, empty.Subjects)
	assert.Empty(t, empty.Subjects)

	require.NotNil(t, decoded.CGPA)
	// (1*1.00 + 3*4.00) / 4 = 3.25
	assert.Equal(t, "3.25", *decoded.CGPA)
}

func TestScoreJSONRoundTrip(t *testing.T) {
	var s Score
	require.NoError(t, json.Unmarshal([]byte(`"3.42"`), &s))
	assert.Equal(t, "3.42", s.String())

	require.NoError(t, json.Unmarshal([]byte(`null`), &s))
	assert.False(t, s.Computable())
}
