package scrape

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/openswoop/uafresult/pkg/result"
)

const (
	ResultUrl = "http://lms.uaf.edu.pk/course/uaf_student_result.php"
	FormField = "regnum"
)

// Fetcher retrieves the raw result table rows for one registration number.
// FetchRows returns as soon as ctx is done, with a FetchError wrapping
// ctx.Err().
type Fetcher interface {
	FetchRows(ctx context.Context, regNumber string) ([]result.RawRow, error)
}

type Unmarshaler interface {
	UnmarshalDoc(doc *goquery.Document) error
}

type Scrapable interface {
	Visit(c *colly.Collector) error
	Unmarshaler
}

func Scrape(c *colly.Collector, s Scrapable) error {
	var e error
	c = c.Clone() // same collector but without old callbacks
	c.OnResponse(func(res *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body))
		if err != nil {
			e = err
			return
		}
		e = s.UnmarshalDoc(doc)
	})

	if err := s.Visit(c); err != nil {
		return err
	}
	return e
}

// UnmarshalRows reads every ".table tbody tr" in document order as the
// trimmed text of its cells.
func UnmarshalRows(doc *goquery.Document) ([]result.RawRow, error) {
	if doc.Find(".table").Length() == 0 {
		return nil, ErrNoResultTable
	}

	rows := make([]result.RawRow, 0)
	doc.Find(".table tbody tr").Each(func(_ int, s *goquery.Selection) {
		cells := s.Find("td")
		row := make(result.RawRow, 0, cells.Length())
		cells.Each(func(_ int, td *goquery.Selection) {
			row = append(row, strings.TrimSpace(td.Text()))
		})
		rows = append(rows, row)
	})
	return rows, nil
}

// resultPage submits the search form and keeps the rows of the page that
// comes back.
type resultPage struct {
	url       string
	field     string
	regNumber string
	rows      []result.RawRow
}

func (p *resultPage) Visit(c *colly.Collector) error {
	return c.Post(p.url, map[string]string{p.field: p.regNumber})
}

func (p *resultPage) UnmarshalDoc(doc *goquery.Document) error {
	rows, err := UnmarshalRows(doc)
	if err != nil {
		return err
	}
	p.rows = rows
	return nil
}

// FormFetcher posts the registration number straight to the result page.
type FormFetcher struct {
	c     *colly.Collector
	url   string
	field string
}

func NewFormFetcher(c *colly.Collector, url, field string) *FormFetcher {
	if url == "" {
		url = ResultUrl
	}
	if field == "" {
		field = FormField
	}
	return &FormFetcher{c: c, url: url, field: field}
}

func (f *FormFetcher) FetchRows(ctx context.Context, regNumber string) ([]result.RawRow, error) {
	if err := ValidateRegNumber(regNumber); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{RegNumber: regNumber, Err: err}
	}

	// colly requests cannot be cancelled, so a cancelled fetch returns at
	// once and leaves the request to finish within the collector's timeout.
	page := &resultPage{url: f.url, field: f.field, regNumber: regNumber}
	done := make(chan error, 1)
	go func() {
		done <- Scrape(f.c, page)
	}()
	select {
	case err := <-done:
		if err != nil {
			return nil, &FetchError{RegNumber: regNumber, Err: err}
		}
	case <-ctx.Done():
		return nil, &FetchError{RegNumber: regNumber, Err: ctx.Err()}
	}
	if page.rows == nil {
		return nil, &FetchError{RegNumber: regNumber, Err: ErrNoResultTable}
	}
	return page.rows, nil
}
