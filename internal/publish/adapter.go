package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"postflow/internal/config"
	"postflow/internal/dbmysql"
)

// Class is the exhaustive classification of one external publish call.
// The raw platform response never leaks past this package.
type Class int

const (
	// Success: the platform accepted the content and assigned it an id.
	Success Class = iota
	// Transient: timeout, rate limiting or a 5xx — retryable under the
	// engine's budget.
	Transient
	// Permanent: rejected credential, missing destination or content the
	// platform will never accept — no retry.
	Permanent
)

func (c Class) String() string {
	switch c {
	case Success:
		return "success"
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	default:
		return "unknown"
	}
}

type Result struct {
	Class  Class
	Ref    string
	URL    string
	Reason string
}

// Publisher performs exactly one external call per invocation. Retries
// belong to the engine, never here, and no deduplication key is sent:
// a retried call after a lost response can double-publish upstream.
type Publisher interface {
	Publish(ctx context.Context, rec *dbmysql.PublishRecord, acct *dbmysql.DestinationAccount) Result
}

// Client is the explicit platform API client. Constructed once at
// process start and passed to everything that needs it.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Platform.CallTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.Platform.BaseURL,
	}
}

type publishRequest struct {
	AccountID string   `json:"account_id"`
	Text      string   `json:"text"`
	MediaRefs []string `json:"media_refs,omitempty"`
}

type publishResponse struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Error string `json:"error"`
}

func (c *Client) Publish(ctx context.Context, rec *dbmysql.PublishRecord, acct *dbmysql.DestinationAccount) Result {
	payload := publishRequest{
		AccountID: acct.ExternalAccountID,
		Text:      rec.Body,
		MediaRefs: rec.MediaRefs,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Class: Permanent, Reason: fmt.Sprintf("cannot encode publish payload: %v", err)}
	}

	url := fmt.Sprintf("%s/v1/%s/posts", c.baseURL, rec.PlatformID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{Class: Permanent, Reason: fmt.Sprintf("cannot build publish request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+acct.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network failures and the bounded call timeout both land here.
		return Result{Class: Transient, Reason: fmt.Sprintf("publish call failed: %v", err)}
	}
	defer resp.Body.Close()

	return classify(resp)
}

func classify(resp *http.Response) Result {
	var decoded publishResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = json.Unmarshal(raw, &decoded)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if decoded.ID == "" {
			// Accepted but no id: nothing to persist as the external ref.
			return Result{Class: Transient, Reason: "platform response missing post id"}
		}
		return Result{Class: Success, Ref: decoded.ID, URL: decoded.URL}

	case resp.StatusCode == http.StatusTooManyRequests:
		return Result{Class: Transient, Reason: "platform rate limited the call"}

	case resp.StatusCode >= 500:
		return Result{Class: Transient, Reason: fmt.Sprintf("platform error: %s", reasonFrom(resp.StatusCode, decoded))}

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Result{Class: Permanent, Reason: fmt.Sprintf("credential rejected: %s", reasonFrom(resp.StatusCode, decoded))}

	case resp.StatusCode == http.StatusNotFound:
		return Result{Class: Permanent, Reason: "destination not found on platform"}

	default:
		// 400, 422 and the rest of the 4xx family: the platform will not
		// accept this content, ever.
		return Result{Class: Permanent, Reason: fmt.Sprintf("content rejected: %s", reasonFrom(resp.StatusCode, decoded))}
	}
}

func reasonFrom(status int, decoded publishResponse) string {
	if decoded.Error != "" {
		return decoded.Error
	}
	return fmt.Sprintf("HTTP %d", status)
}
