package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/luheng/fupan/internal/contracts"
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

// fetchQuoteCenterNames scrapes the quote center grid as a fallback.
// The page serves the first grid page server-side, which is enough to
// leave the name table usable until the JSON API recovers.
func (c *Client) fetchQuoteCenterNames(ctx context.Context) ([]contracts.Identity, error) {
	headers := map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		"Referer":    "https://www.eastmoney.com/",
	}
	resp, err := c.httpClient.GetWithHeaders(ctx, quoteCenterURL, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch quote center: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	ids, err := parseQuoteCenterHTML(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errors.New("quote center page held no instruments")
	}

	c.logger.WithField("count", len(ids)).Info("Fetched names from quote center fallback")
	return ids, nil
}

// parseQuoteCenterHTML pulls code and name cells out of the grid table.
// The grid row layout is rank, code, name, then the quote columns; rows
// whose second cell is not a six-digit code are decoration and skipped.
func parseQuoteCenterHTML(r io.Reader) ([]contracts.Identity, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse quote center page: %w", err)
	}

	var ids []contracts.Identity
	seen := make(map[string]bool)
	doc.Find("table tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		code := strings.TrimSpace(cells.Eq(1).Text())
		name := strings.TrimSpace(cells.Eq(2).Text())
		if !codePattern.MatchString(code) || name == "" || seen[code] {
			return
		}
		seen[code] = true
		ids = append(ids, contracts.Identity{Code: code, Name: name})
	})
	return ids, nil
}
