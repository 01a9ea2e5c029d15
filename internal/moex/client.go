package moex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ndolgov/moex-analyzer/pkg/metrics"
)

const DefaultBaseURL = "https://iss.moex.com/iss"

// bondColumns is the fixed set of static attributes requested from the
// securities block of the bonds feed.
var bondColumns = []string{
	"SECID",
	"SHORTNAME",
	"MATDATE",
	"COUPONFREQUENCY",
	"COUPONPERIOD",
	"COUPONPERCENT",
	"COUPONVALUE",
	"FACEUNIT",
	"FACEVALUE",
	"ISSUERTYPE",
	"BONDTYPE",
	"COUPONTYPE",
	"AMORTIZATION",
	"OFFERDATE",
	"SECTYPE",
	"TYPE",
	"TYPENAME",
	"GROUP",
	"GROUPNAME",
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	pageSize   int
}

func NewClient(baseURL string, timeout time.Duration, pageSize int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if pageSize <= 0 {
		pageSize = 5000
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		pageSize: pageSize,
	}
}

// BondsPayload is the two-table bonds dump: static attributes plus live
// quotes, joined by SECID downstream.
type BondsPayload struct {
	Securities Table `json:"securities"`
	MarketData Table `json:"marketdata"`
}

func (c *Client) Bonds(ctx context.Context) (*BondsPayload, error) {
	params := url.Values{}
	params.Set("iss.meta", "off")
	params.Set("iss.only", "securities,marketdata")
	params.Set("securities.columns", strings.Join(bondColumns, ","))

	var payload BondsPayload
	if err := c.getJSON(ctx, "engines/stock/markets/bonds/securities.json", params, "bonds", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

type bondizationPayload struct {
	Amortizations Table `json:"amortizations"`
}

// AmortizationSchedule fetches the partial-repayment schedule of one
// instrument. Columns include amortdate, valueprc and value.
func (c *Client) AmortizationSchedule(ctx context.Context, secID string) (*Table, error) {
	params := url.Values{}
	params.Set("iss.meta", "off")
	params.Set("iss.only", "amortizations")

	path := fmt.Sprintf("securities/%s/bondization.json", url.PathEscape(secID))

	var payload bondizationPayload
	if err := c.getJSON(ctx, path, params, "bondization", &payload); err != nil {
		return nil, err
	}
	return &payload.Amortizations, nil
}

type candlesPayload struct {
	Candles Table `json:"candles"`
}

// Candles fetches a futures candle series page by page. Some ISS endpoints
// cap page size below the requested limit, so paging advances by the actual
// page length and stops when a page repeats.
func (c *Client) Candles(ctx context.Context, ticker string, from, to time.Time, interval int) (*Table, error) {
	params := url.Values{}
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))
	params.Set("till", to.Format("2006-01-02"))
	params.Set("interval", strconv.Itoa(interval))
	params.Set("iss.meta", "off")
	params.Set("iss.only", "candles")

	path := fmt.Sprintf("engines/futures/markets/forts/securities/%s/candles.json", url.PathEscape(ticker))

	merged := &Table{}
	start := 0
	var prevSignature string

	for {
		pageParams := url.Values{}
		for k, v := range params {
			pageParams[k] = v
		}
		pageParams.Set("start", strconv.Itoa(start))
		pageParams.Set("limit", strconv.Itoa(c.pageSize))

		var payload candlesPayload
		if err := c.getJSON(ctx, path, pageParams, "candles", &payload); err != nil {
			return nil, err
		}

		rows := payload.Candles.Data
		if len(rows) == 0 {
			break
		}

		signature := fmt.Sprintf("%d|%v|%v", len(rows), rows[0], rows[len(rows)-1])
		if signature == prevSignature {
			break
		}
		prevSignature = signature

		if len(merged.Columns) == 0 {
			merged.Columns = payload.Candles.Columns
		}
		merged.Data = append(merged.Data, rows...)
		start += len(rows)
	}

	return merged, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, endpoint string, out any) error {
	timer := metrics.NewTimer()

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, strings.TrimLeft(path, "/"), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordISSRequest(endpoint, "error", timer.Elapsed().Seconds())
		return fmt.Errorf("requesting %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordISSRequest(endpoint, "error", timer.Elapsed().Seconds())
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RecordISSRequest(endpoint, "error", timer.Elapsed().Seconds())
		return fmt.Errorf("decoding %s payload: %w", endpoint, err)
	}

	metrics.RecordISSRequest(endpoint, "success", timer.Elapsed().Seconds())
	return nil
}
