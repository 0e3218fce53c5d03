package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
	"google.golang.org/api/googleapi"

	"github.com/openswoop/uafresult/pkg/report"
)

const subjectsTable = "subjects"

type BigQuery struct {
	ctx       context.Context
	client    *bigquery.Client
	dataset   *bigquery.Dataset
	datasetID string
}

func NewBigQuery(ctx context.Context, projectID, datasetID string) (BigQuery, error) {
	var bq BigQuery

	// Set up BigQuery
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return bq, fmt.Errorf("failed to create client: %w", err)
	}

	dataset := client.Dataset(datasetID)
	if err := dataset.Create(ctx, nil); err != nil {
		if !isDuplicateError(err) {
			_ = client.Close()
			return bq, fmt.Errorf("failed to create dataset: %w", err)
		}
	}

	bq = BigQuery{ctx, client, dataset, datasetID}
	return bq, nil
}

// bigQuerySubject is a SubjectRow as stored in the warehouse; semesters and
// averages that do not exist are NULL instead of placeholder text.
type bigQuerySubject struct {
	RunID        string              `bigquery:"run_id"`
	RegNumber    string              `bigquery:"reg_number"`
	FetchedAt    time.Time           `bigquery:"fetched_at"`
	Semester     bigquery.NullString `bigquery:"semester"`
	Code         string              `bigquery:"code"`
	Title        string              `bigquery:"title"`
	Credit       float64             `bigquery:"credit"`
	Marks        string              `bigquery:"marks"`
	Percent      float64             `bigquery:"percent"`
	QualityPoint float64             `bigquery:"quality_point"`
	QualityUnits float64             `bigquery:"quality_units"`
	GPA          bigquery.NullFloat64 `bigquery:"gpa"`
	CGPA         bigquery.NullFloat64 `bigquery:"cgpa"`
}

func toBigQuery(run Run) []bigQuerySubject {
	var rows []bigQuerySubject
	flat := report.Flatten(run.RegNumber, run.Summary)
	for _, r := range flat {
		rows = append(rows, bigQuerySubject{
			RunID:        run.ID,
			RegNumber:    run.RegNumber,
			FetchedAt:    run.FetchedAt,
			Semester:     bigquery.NullString{StringVal: r.Semester, Valid: r.Semester != ""},
			Code:         r.Code,
			Title:        r.Title,
			Credit:       parseFloat(r.Credit),
			Marks:        r.Marks,
			Percent:      parseFloat(r.Percent),
			QualityPoint: parseFloat(r.QualityPoint),
			QualityUnits: parseFloat(r.QualityUnits),
			GPA:          nullFloat(r.GPA),
			CGPA:         nullFloat(r.CGPA),
		})
	}
	return rows
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func nullFloat(s string) bigquery.NullFloat64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return bigquery.NullFloat64{}
	}
	return bigquery.NullFloat64{Float64: d.InexactFloat64(), Valid: true}
}

func (bq BigQuery) SaveRun(run Run) error {
	rows := toBigQuery(run)
	if len(rows) == 0 {
		return nil
	}
	return bq.insert(bigQuerySubject{}, subjectsTable, rows, `
		ON t.run_id = s.run_id
		  AND t.code = s.code
		  AND (t.semester = s.semester
		    OR (t.semester IS NULL AND s.semester IS NULL))`)
}

func (bq BigQuery) insert(st interface{}, tableName string, data interface{}, onClause string) error {
	// Infer the table schema
	schema, err := bigquery.InferSchema(st)
	if err != nil {
		return fmt.Errorf("failed to infer schema: %w", err)
	}

	// Get a reference to the table
	table := bq.dataset.Table(tableName)
	if err := table.Create(bq.ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
		if !isDuplicateError(err) {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// Uses a different arrivals table each time so streaming buffers never collide
	tempName := tableName + "_" + strconv.Itoa(int(time.Now().Unix()))
	newArrivals := bq.dataset.Table(tempName)
	if err := newArrivals.Create(bq.ctx, &bigquery.TableMetadata{
		Schema:         schema,
		ExpirationTime: time.Now().Add(24 * time.Hour),
	}); err != nil {
		if !isDuplicateError(err) {
			return fmt.Errorf("failed to create arrivals table: %w", err)
		}
	}

	// Upload data
	u := newArrivals.Inserter()
	if err := u.Put(bq.ctx, data); err != nil {
		return fmt.Errorf("failed to insert rows: %w", err)
	}

	// Merge data
	q := bq.client.Query(mergeQuery(bq.datasetID, tableName, tempName, onClause))
	job, err := q.Run(bq.ctx)
	if err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	status, err := job.Wait(bq.ctx)
	if err != nil {
		return fmt.Errorf("failed to wait for merge: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}
	return nil
}

func mergeQuery(datasetID, tableName, tempName, onClause string) string {
	return fmt.Sprintf(`
		MERGE %s.%s t
		USING %s.%s s
		%s
		WHEN NOT MATCHED THEN
		  INSERT ROW`, datasetID, tableName, datasetID, tempName, onClause)
}

func (bq BigQuery) Close() error {
	return bq.client.Close()
}

func isDuplicateError(err error) bool {
	var e *googleapi.Error
	if errors.As(err, &e) {
		return e.Code == 409
	}
	return false
}
