package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openswoop/uafresult/pkg/result"
)

const resultPageHTML = `<html><body>
<table class="table">
  <thead><tr><th>Code</th><th>Title</th><th>Credit</th><th>Marks</th><th>Percent</th></tr></thead>
  <tbody>
    <tr><td colspan="5"> Semester 1 </td></tr>
    <tr><td>CS-101</td><td> Intro to Computing </td><td>3(2-1)</td><td>64</td><td>80</td></tr>
    <tr><td>MTH-101</td><td>Calculus</td><td>1</td><td>25</td><td>50</td></tr>
    <tr><td>Total</td><td></td><td>4</td></tr>
    <tr><td>Semester 2</td></tr>
    <tr><td>CS-201</td><td>Data Structures</td><td>3</td><td>70</td><td>70</td><td>A</td></tr>
  </tbody>
</table>
</body></html>`

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestUnmarshalRows(t *testing.T) {
	rows, err := UnmarshalRows(docFrom(t, resultPageHTML))
	require.NoError(t, err)

	want := []result.RawRow{
		{"Semester 1"},
		{"CS-101", "Intro to Computing", "3(2-1)", "64", "80"},
		{"MTH-101", "Calculus", "1", "25", "50"},
		{"Total", "", "4"},
		{"Semester 2"},
		{"CS-201", "Data Structures", "3", "70", "70", "A"},
	}
	assert.Equal(t, want, rows)
}

func TestUnmarshalRowsWithoutTable(t *testing.T) {
	_, err := UnmarshalRows(docFrom(t, `<html><body><p>No record found</p></body></html>`))
	assert.ErrorIs(t, err, ErrNoResultTable)
}

func TestUnmarshalRowsEmptyTable(t *testing.T) {
	rows, err := UnmarshalRows(docFrom(t, `<table class="table"><tbody></tbody></table>`))
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestUnmarshalRowsFeedsPipeline(t *testing.T) {
	rows, err := UnmarshalRows(docFrom(t, resultPageHTML))
	require.NoError(t, err)

	summary, transcript, err := result.Compute(rows)
	require.NoError(t, err)
	assert.Equal(t, 1, transcript.Skipped)
	require.Len(t, summary.Semesters, 2)
	assert.Equal(t, "3.42", summary.Semesters[0].GPA.String())
	assert.Equal(t, "3.33", summary.Semesters[1].GPA.String())
	// (13.67 + 9.99) / 7
	assert.Equal(t, "3.38", summary.CGPA.String())
}

func newResultServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newCollector() *colly.Collector {
	c := colly.NewCollector()
	c.AllowURLRevisit = true
	return c
}

func TestFormFetcherPostsRegNumber(t *testing.T) {
	var got []string
	srv := newResultServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		got = append(got, r.PostForm.Get(FormField))
		fmt.Fprint(w, resultPageHTML)
	})

	f := NewFormFetcher(newCollector(), srv.URL, "")
	rows, err := f.FetchRows(context.Background(), "2019-ag-1234")
	require.NoError(t, err)
	assert.Len(t, rows, 6)

	// A second lookup must not be swallowed by colly's visited check
	_, err = f.FetchRows(context.Background(), "2019-ag-1234")
	require.NoError(t, err)
	assert.Equal(t, []string{"2019-ag-1234", "2019-ag-1234"}, got)
}

func TestFormFetcherCustomField(t *testing.T) {
	srv := newResultServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "2020-AG-42", r.PostForm.Get("ag"))
		fmt.Fprint(w, resultPageHTML)
	})

	_, err := NewFormFetcher(newCollector(), srv.URL, "ag").FetchRows(context.Background(), "2020-AG-42")
	require.NoError(t, err)
}

func TestFormFetcherErrors(t *testing.T) {
	t.Run("no table", func(t *testing.T) {
		srv := newResultServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html><body>Result not found</body></html>")
		})
		_, err := NewFormFetcher(newCollector(), srv.URL, "").FetchRows(context.Background(), "2019-ag-1")
		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, "2019-ag-1", fetchErr.RegNumber)
		assert.ErrorIs(t, err, ErrNoResultTable)
	})

	t.Run("server error", func(t *testing.T) {
		srv := newResultServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		_, err := NewFormFetcher(newCollector(), srv.URL, "").FetchRows(context.Background(), "2019-ag-1")
		var fetchErr *FetchError
		assert.ErrorAs(t, err, &fetchErr)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewFormFetcher(newCollector(), "http://127.0.0.1:1", "").FetchRows(ctx, "2019-ag-1")
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("cancelled while in flight", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		srv := newResultServer(t, func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-release
			fmt.Fprint(w, resultPageHTML)
		})
		t.Cleanup(func() { close(release) })

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-started
			cancel()
		}()

		begin := time.Now()
		rows, err := NewFormFetcher(newCollector(), srv.URL, "").FetchRows(ctx, "2019-ag-1")
		assert.Nil(t, rows)
		assert.ErrorIs(t, err, context.Canceled)
		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, "2019-ag-1", fetchErr.RegNumber)
		assert.Less(t, time.Since(begin), 5*time.Second)
	})

	t.Run("bad registration number", func(t *testing.T) {
		_, err := NewFormFetcher(newCollector(), "http://127.0.0.1:1", "").FetchRows(context.Background(), "N00474503")
		assert.ErrorIs(t, err, ErrInvalidRegNumber)
		var fetchErr *FetchError
		assert.False(t, errors.As(err, &fetchErr))
	})
}

func TestValidateRegNumber(t *testing.T) {
	for _, ok := range []string{"2019-ag-1234", "2021-AG-7", "2005-Ag-123456"} {
		assert.NoError(t, ValidateRegNumber(ok), ok)
	}
	for _, bad := range []string{"", "2019ag1234", "19-ag-1234", "2019-ag-", "2019-bs-1234", " 2019-ag-1234"} {
		assert.ErrorIs(t, ValidateRegNumber(bad), ErrInvalidRegNumber, bad)
	}
}
