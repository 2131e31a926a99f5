// Package eastmoney fetches the A-share code and name list from
// Eastmoney's public quote endpoints. It backs the name table refresh;
// scans themselves never touch the network.
package eastmoney

import (
	"github.com/luheng/fupan/pkg/httputil"
	"github.com/luheng/fupan/pkg/logger"
)

// DefaultBaseURL is the quote list API host.
const DefaultBaseURL = "https://push2.eastmoney.com"

// quoteCenterURL is the HTML fallback scraped when the JSON API yields
// nothing.
const quoteCenterURL = "https://quote.eastmoney.com/center/gridlist.html"

// Client calls the Eastmoney quote endpoints through the shared
// retrying HTTP client.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient builds a Client. An empty baseURL selects the public API
// host.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "eastmoney"),
		baseURL:    baseURL,
	}
}
