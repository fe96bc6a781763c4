// Package playerclient talks to a signage player's HTTP API v2.
package playerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	defaultTimeout    = 10 * time.Second
	screenshotTimeout = 15 * time.Second

	maxAttempts  = 3
	retryBackoff = 500 * time.Millisecond
)

// retryStatus lists the status codes that trigger a retry: the player is
// up but momentarily unable to serve.
var retryStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client 播放器API客户端
type Client struct {
	httpClient *http.Client
	playerName string
	baseURL    string
	username   string
	password   string
}

// Option configures a Client.
type Option func(*Client)

// WithBasicAuth sets credentials sent with every request.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for one player. baseURL must carry the scheme and
// no trailing slash.
func New(playerName, baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		playerName: playerName,
		baseURL:    baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request performs one HTTP call with retry on 5xx/429 and transient
// network failures. The returned body is fully read.
func (c *Client) request(ctx context.Context, method, endpoint string, body []byte, contentType string) ([]byte, error) {
	return c.requestWith(ctx, c.httpClient, method, endpoint, body, contentType)
}

func (c *Client) requestWith(ctx context.Context, hc *http.Client, method, endpoint string, body []byte, contentType string) ([]byte, error) {
	reqURL := c.baseURL + endpoint

	var lastStatus int
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBackoff << (attempt - 1)):
			case <-ctx.Done():
				return nil, c.transportError(ctx, reqURL, ctx.Err())
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if c.username != "" {
			req.SetBasicAuth(c.username, c.password)
		}

		resp, err := hc.Do(req)
		if err != nil {
			// Connection and timeout errors are not retried here; the
			// player is unreachable and repeats would only stack delays.
			return nil, c.transportError(ctx, reqURL, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if retryStatus[resp.StatusCode] {
			lastStatus = resp.StatusCode
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, &DeviceError{
				PlayerName:   c.playerName,
				URL:          reqURL,
				StatusCode:   resp.StatusCode,
				Kind:         ErrKindHTTPStatus,
				ResponseData: json.RawMessage(respBody),
			}
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response: %w", readErr)
		}
		return respBody, nil
	}

	return nil, &DeviceError{
		PlayerName: c.playerName,
		URL:        reqURL,
		StatusCode: lastStatus,
		Kind:       ErrKindRetriesExhausted,
	}
}

func (c *Client) transportError(ctx context.Context, reqURL string, err error) error {
	kind := ErrKindConnect
	var ne interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = ErrKindTimeout
	}
	return &DeviceError{PlayerName: c.playerName, URL: reqURL, Kind: kind}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	body, err := c.request(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *Client) sendJSON(ctx context.Context, method, endpoint string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}
	respBody, err := c.request(ctx, method, endpoint, body, "application/json")
	if err != nil {
		return err
	}
	if out != nil && len(respBody) > 0 {
		return json.Unmarshal(respBody, out)
	}
	return nil
}

// GetInfo retrieves general player information.
func (c *Client) GetInfo(ctx context.Context) (*Info, error) {
	var info Info
	if err := c.getJSON(ctx, "/api/v2/info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetAssets lists assets on the player.
func (c *Client) GetAssets(ctx context.Context) ([]Asset, error) {
	var assets []Asset
	if err := c.getJSON(ctx, "/api/v2/assets", &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// CreateAsset creates an asset on the player.
func (c *Client) CreateAsset(ctx context.Context, data map[string]any) (*Asset, error) {
	var asset Asset
	if err := c.sendJSON(ctx, http.MethodPost, "/api/v2/assets", data, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// UpdateAsset patches an existing asset.
func (c *Client) UpdateAsset(ctx context.Context, assetID string, data map[string]any) (*Asset, error) {
	var asset Asset
	if err := c.sendJSON(ctx, http.MethodPatch, "/api/v2/assets/"+url.PathEscape(assetID), data, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// DeleteAsset removes an asset from the player.
func (c *Client) DeleteAsset(ctx context.Context, assetID string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/api/v2/assets/"+url.PathEscape(assetID), nil, nil)
}

// SetPlaylistOrder sets the playlist order from a comma-joined id list.
func (c *Client) SetPlaylistOrder(ctx context.Context, ids string) error {
	form := url.Values{"ids": {ids}}
	_, err := c.request(ctx, http.MethodPost, "/api/v2/assets/order",
		[]byte(form.Encode()), "application/x-www-form-urlencoded")
	return err
}

// UploadFile uploads a local file as a multipart file asset and returns
// the player-side URI.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file_upload", f.Name())
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("failed to buffer upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	body, err := c.request(ctx, http.MethodPost, "/api/v2/file_asset", buf.Bytes(), mw.FormDataContentType())
	if err != nil {
		return "", err
	}
	var resp struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}
	return resp.URI, nil
}

// GetViewlog retrieves playback history. since is an RFC 3339 instant or
// empty for the full log.
func (c *Client) GetViewlog(ctx context.Context, since string) ([]ViewlogEntry, error) {
	endpoint := "/api/v2/viewlog"
	if since != "" {
		endpoint += "?since=" + url.QueryEscape(since)
	}
	var entries []ViewlogEntry
	if err := c.getJSON(ctx, endpoint, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetScreenshot captures and returns a screenshot (PNG bytes). Capture is
// slow on the device, so this call gets a longer timeout.
func (c *Client) GetScreenshot(ctx context.Context) ([]byte, error) {
	hc := &http.Client{
		Timeout:   screenshotTimeout,
		Transport: c.httpClient.Transport,
	}
	return c.requestWith(ctx, hc, http.MethodGet, "/api/v2/screenshot", nil, "")
}

// CreateBackup triggers a backup on the player and returns the backup
// file name.
func (c *Client) CreateBackup(ctx context.Context) (string, error) {
	body, err := c.request(ctx, http.MethodPost, "/api/v2/backup", nil, "")
	if err != nil {
		return "", err
	}
	return string(bytes.Trim(body, `" `)), nil
}

// Reboot reboots the player.
func (c *Client) Reboot(ctx context.Context) error {
	_, err := c.request(ctx, http.MethodPost, "/api/v2/reboot", nil, "")
	return err
}

// Shutdown shuts the player down.
func (c *Client) Shutdown(ctx context.Context) error {
	_, err := c.request(ctx, http.MethodPost, "/api/v2/shutdown", nil, "")
	return err
}

// GetScheduleSlots lists scheduling slots on the player.
func (c *Client) GetScheduleSlots(ctx context.Context) ([]ScheduleSlot, error) {
	var slots []ScheduleSlot
	if err := c.getJSON(ctx, "/api/v2/schedule/slots", &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// CreateScheduleSlot creates a schedule slot.
func (c *Client) CreateScheduleSlot(ctx context.Context, data map[string]any) (*ScheduleSlot, error) {
	var slot ScheduleSlot
	if err := c.sendJSON(ctx, http.MethodPost, "/api/v2/schedule/slots", data, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

// UpdateScheduleSlot replaces a schedule slot.
func (c *Client) UpdateScheduleSlot(ctx context.Context, slotID int, data map[string]any) (*ScheduleSlot, error) {
	var slot ScheduleSlot
	endpoint := fmt.Sprintf("/api/v2/schedule/slots/%d", slotID)
	if err := c.sendJSON(ctx, http.MethodPut, endpoint, data, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

// DeleteScheduleSlot removes a schedule slot.
func (c *Client) DeleteScheduleSlot(ctx context.Context, slotID int) error {
	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/v2/schedule/slots/%d", slotID), nil, nil)
}

// GetSlotItems lists the assets inside one slot.
func (c *Client) GetSlotItems(ctx context.Context, slotID int) ([]SlotItem, error) {
	var items []SlotItem
	if err := c.getJSON(ctx, fmt.Sprintf("/api/v2/schedule/slots/%d/items", slotID), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddSlotItem places an asset into a slot.
func (c *Client) AddSlotItem(ctx context.Context, slotID int, data map[string]any) (*SlotItem, error) {
	var item SlotItem
	if err := c.sendJSON(ctx, http.MethodPost, fmt.Sprintf("/api/v2/schedule/slots/%d/items", slotID), data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveSlotItem removes an asset from a slot.
func (c *Client) RemoveSlotItem(ctx context.Context, slotID, itemID int) error {
	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/v2/schedule/slots/%d/items/%d", slotID, itemID), nil, nil)
}
