// Package hntv is a client for the HNTV public listing API. Every request is
// authenticated with a timestamp header and a SHA-256 signature over the
// shared secret and that timestamp.
package hntv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alanniew/hntv-live/internal/config"
	"github.com/alanniew/hntv-live/internal/metrics"
	"github.com/alanniew/hntv-live/internal/sign"
)

// DefaultBaseURL is the production HNTV API host.
const DefaultBaseURL = "https://pubmod.hntv.tv"

const (
	liveListPath = "/program/getAuth/live/class/program/11/"
	epgPathFmt   = "/program/getAuth/vod/originStream/program/%s/%d"
)

// Channel is one entry of the upstream live list. CID doubles as the XMLTV
// channel id and the EPG lookup key.
type Channel struct {
	Name         string      `json:"name"`
	CID          json.Number `json:"cid"` // as json.Number for flexibility
	VideoStreams []string    `json:"video_streams"`
	Streams      []string    `json:"streams"`
}

// StreamURLs returns the channel's stream URL list, whichever field the
// upstream populated.
func (c Channel) StreamURLs() []string {
	if len(c.VideoStreams) > 0 {
		return c.VideoStreams
	}
	return c.Streams
}

// Program is one EPG entry for a channel. Begin/end times are Unix seconds,
// but the upstream is loose about types so they stay json.Number.
type Program struct {
	Title     string      `json:"title"`
	BeginTime json.Number `json:"beginTime"`
	EndTime   json.Number `json:"endTime"`
}

// EPGResponse is the body of the per-channel program endpoint.
type EPGResponse struct {
	Programs []Program `json:"programs"`
}

// Client represents a signed HNTV API client
type Client struct {
	BaseURL    string
	secret     string
	logger     *slog.Logger
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a new HNTV API client from the configuration
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		secret:     cfg.SecretKey,
		logger:     logger,
		httpClient: &http.Client{},
		now:        time.Now,
	}
}

// signedGet issues a GET with the timestamp and sign headers set.
func (c *Client) signedGet(ctx context.Context, endpoint, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	ts := c.now().Unix()
	signature := sign.Signature(c.secret, ts)
	req.Header.Set("timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("sign", signature)
	c.logger.Debug("Signed upstream request", "endpoint", endpoint, "timestamp", ts, "sign", signature)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(endpoint, 0)
		return nil, fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	metrics.ObserveUpstream(endpoint, resp.StatusCode)
	return resp, nil
}

// FetchLiveRaw fetches the live list and returns the raw JSON body and the
// upstream status code. Used by the proxy passthrough endpoint.
func (c *Client) FetchLiveRaw(ctx context.Context) ([]byte, int, error) {
	resp, err := c.signedGet(ctx, "live_list", c.BaseURL+liveListPath)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading live list body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// FetchLiveList fetches and decodes the live channel list. A non-200 status is
// reported through the status return, not as an error.
func (c *Client) FetchLiveList(ctx context.Context) ([]Channel, int, error) {
	body, status, err := c.FetchLiveRaw(ctx)
	if err != nil {
		return nil, status, err
	}
	if status != http.StatusOK {
		return nil, status, nil
	}

	var channels []Channel
	if err := json.Unmarshal(body, &channels); err != nil {
		return nil, status, fmt.Errorf("decoding live list: %w", err)
	}
	return channels, status, nil
}

// FetchEPG fetches the program schedule for one channel. dayStart is the Unix
// timestamp of local midnight in UTC+8 for the wanted day.
func (c *Client) FetchEPG(ctx context.Context, cid string, dayStart int64) (*EPGResponse, int, error) {
	url := c.BaseURL + fmt.Sprintf(epgPathFmt, cid, dayStart)
	resp, err := c.signedGet(ctx, "epg", url)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	var epg EPGResponse
	if err := json.NewDecoder(resp.Body).Decode(&epg); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decoding epg for channel %s: %w", cid, err)
	}
	return &epg, resp.StatusCode, nil
}
