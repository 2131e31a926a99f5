package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/luheng/fupan/internal/contracts"
)

const (
	clistPageSize = 500
	clistMaxPages = 30
	// clistMarkets selects every Shanghai and Shenzhen A-share board.
	clistMarkets = "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23"
)

// clistResponse mirrors the push2 quote list payload. data is null past
// the last page; f12 carries the code, f14 the display name.
type clistResponse struct {
	Data *struct {
		Total int         `json:"total"`
		Diff  []clistItem `json:"diff"`
	} `json:"data"`
}

type clistItem struct {
	Code string `json:"f12"`
	Name string `json:"f14"`
}

// FetchAllNames pages through the quote list API and returns every
// listed instrument once, codes zero-padded. Pages that fail are logged
// and skipped; if the whole API yields nothing the quote center HTML is
// scraped instead.
func (c *Client) FetchAllNames(ctx context.Context) ([]contracts.Identity, error) {
	ids := make([]contracts.Identity, 0, 4*clistPageSize)
	seen := make(map[string]bool)

	for page := 1; page <= clistMaxPages; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		items, err := c.fetchNamePage(ctx, page)
		if err != nil {
			c.logger.WithError(err).WithField("page", page).Warn("Failed to fetch name page")
			continue
		}
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			code := contracts.NormalizeCode(item.Code)
			name := strings.TrimSpace(item.Name)
			if name == "" || seen[code] {
				continue
			}
			seen[code] = true
			ids = append(ids, contracts.Identity{Code: code, Name: name})
		}

		c.logger.WithFields(map[string]interface{}{
			"page":  page,
			"count": len(items),
		}).Debug("Fetched name page")
	}

	if len(ids) == 0 {
		c.logger.Warn("Quote list API yielded nothing; scraping quote center")
		return c.fetchQuoteCenterNames(ctx)
	}

	c.logger.WithField("count", len(ids)).Info("Fetched instrument names")
	return ids, nil
}

func (c *Client) fetchNamePage(ctx context.Context, page int) ([]clistItem, error) {
	u := fmt.Sprintf("%s/api/qt/clist/get?pn=%d&pz=%d&po=0&np=1&fltt=2&invt=2&fid=f12&fs=%s&fields=f12,f14",
		c.baseURL, page, clistPageSize, clistMarkets)

	resp, err := c.httpClient.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch name page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payload clistResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode name page: %w", err)
	}
	if payload.Data == nil {
		return nil, nil
	}
	return payload.Data.Diff, nil
}
