package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/openswoop/uafresult/pkg/result"
)

// BrowserFetcher drives a headless Chrome through the result form, for when
// the page only renders the table after client-side scripts run.
type BrowserFetcher struct {
	URL      string
	Field    string
	Headless bool
	Timeout  time.Duration
}

func (b *BrowserFetcher) FetchRows(ctx context.Context, regNumber string) ([]result.RawRow, error) {
	if err := ValidateRegNumber(regNumber); err != nil {
		return nil, err
	}

	url, field := b.URL, b.Field
	if url == "" {
		url = ResultUrl
	}
	if field == "" {
		field = FormField
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", b.Headless))
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if b.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		browserCtx, cancelTimeout = context.WithTimeout(browserCtx, b.Timeout)
		defer cancelTimeout()
	}

	input := fmt.Sprintf("input[name='%s']", field)
	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(input, chromedp.ByQuery),
		chromedp.SendKeys(input, regNumber, chromedp.ByQuery),
		chromedp.Click(`button[type='submit']`, chromedp.ByQuery),
		chromedp.WaitVisible(`.table`, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, &FetchError{RegNumber: regNumber, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &FetchError{RegNumber: regNumber, Err: err}
	}
	rows, err := UnmarshalRows(doc)
	if err != nil {
		return nil, &FetchError{RegNumber: regNumber, Err: err}
	}
	return rows, nil
}
