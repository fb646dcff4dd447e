package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/julianbeese/estates/internal/domain"
)

// Remote reads the listing collection from a JSON endpoint. Both a bare array
// and a JSONBin style {"record": {"listings": [...]}} envelope are accepted.
type Remote struct {
	url       string
	accessKey string
	client    *http.Client
}

// NewRemote creates a new remote catalog
func NewRemote(url, accessKey string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Remote{
		url:       url,
		accessKey: accessKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// All fetches the whole collection
func (r *Remote) All(ctx context.Context) ([]domain.Listing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if r.accessKey != "" {
		req.Header.Set("X-Access-Key", r.accessKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: HTTP %d - %s", domain.ErrFetchFailed, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrFetchFailed, err)
	}

	listings, err := decodeCollection(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	return listings, nil
}

// ByID has no dedicated endpoint, so it scans the full collection
func (r *Remote) ByID(ctx context.Context, id string) (*domain.Listing, error) {
	listings, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range listings {
		if listings[i].ID == id {
			return &listings[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

type envelope struct {
	Record *struct {
		Listings []domain.Listing `json:"listings"`
	} `json:"record"`
}

func decodeCollection(body []byte) ([]domain.Listing, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var listings []domain.Listing
		if err := json.Unmarshal(trimmed, &listings); err != nil {
			return nil, fmt.Errorf("decode listings: %w", err)
		}
		return listings, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Record == nil || env.Record.Listings == nil {
		return nil, errors.New("unexpected response format")
	}
	return env.Record.Listings, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
