package tax

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-checkout/internal/obs"
)

// errHTMLPayload marks a source that answered with an HTML page (typically a
// not-found or error page) instead of the jurisdiction document.
var errHTMLPayload = errors.New("tax: source returned HTML payload")

// load walks the configured source chain: Redis cache, then each remote
// source in order, then the embedded defaults. It always returns a usable
// table.
func (r *Resolver) load(ctx context.Context) Table {
	var cached Table
	if ok, err := r.Cache.Get(ctx, r.cacheKey(), &cached); err == nil && ok && len(cached) > 0 {
		r.countLoad("cache", "hit")
		return cached
	} else if err != nil {
		r.Logger.Warn().Err(err).Msg("tax table cache read failed")
	}

	if table, err := r.fetchRemote(ctx); err == nil {
		if cacheErr := r.Cache.Set(ctx, r.cacheKey(), table); cacheErr != nil {
			r.Logger.Warn().Err(cacheErr).Msg("tax table cache write failed")
		}
		return table
	}

	r.countLoad("embedded", "ok")
	return EmbeddedTable()
}

// fetchRemote tries each source URL in order and accepts the first that
// returns a well-formed table.
func (r *Resolver) fetchRemote(ctx context.Context) (Table, error) {
	var lastErr error = errors.New("tax: no sources configured")
	for _, source := range r.Sources {
		table, err := r.fetchSource(ctx, source)
		if err != nil {
			r.countLoad("remote", "error")
			r.Logger.Warn().Err(err).Str("source", source).Msg("tax table source failed")
			lastErr = err
			continue
		}
		r.countLoad("remote", "ok")
		return table, nil
	}
	return nil, lastErr
}

func (r *Resolver) fetchSource(ctx context.Context, url string) (Table, error) {
	if r.HTTP == nil {
		return nil, errors.New("tax: http client not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.HTTP.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tax: source returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if looksLikeHTML(resp.Header.Get("Content-Type"), body) {
		return nil, errHTMLPayload
	}

	var table Table
	if err := json.Unmarshal(body, &table); err != nil {
		return nil, fmt.Errorf("tax: decode table: %w", err)
	}
	if len(table) == 0 {
		return nil, errors.New("tax: empty table payload")
	}
	return table, nil
}

// looksLikeHTML detects HTML responses, which some hosts serve for missing
// documents with a 200 status. They signal "source unavailable", not a parse
// error.
func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '<'
}

func (r *Resolver) countLoad(source, result string) {
	if obs.TaxTableLoadTotal != nil {
		obs.TaxTableLoadTotal.WithLabelValues(source, result).Inc()
	}
}
