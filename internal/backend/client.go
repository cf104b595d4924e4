package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"quotedeck/internal/config"
	"quotedeck/internal/logger"
)

const (
	restPrefix = "/rest/v1"
	userAgent  = "quotedeck/0.1"

	// Wire contract with the hosted service; parameter names are fixed.
	procAddFavorite    = "add_favorite"
	procRemoveFavorite = "remove_favorite"
	procIsFavorited    = "is_favorited"
	procListFavorites  = "list_favorites"
)

// Client talks to the hosted data service over HTTP. Every response is a
// {data, error} envelope; service-side failures never escape as anything
// but a RemoteError.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	anonKey   string
	authToken string
}

var _ Backend = (*Client)(nil)

func NewClient(cfg config.BackendConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend base_url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend base_url %q: scheme must be http(s)", cfg.BaseURL)
	}

	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: cfg.GetTimeout()},
		anonKey:   cfg.AnonKey,
		authToken: cfg.AuthToken,
	}, nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// rpcParams matches the remote procedure signature for the favorite
// procedures: {p_user_id: string, p_quote_id: integer}.
type rpcParams struct {
	UserID  string `json:"p_user_id"`
	QuoteID int64  `json:"p_quote_id,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return remoteErr(path, KindMalformed, fmt.Errorf("encode request: %w", err))
		}
		reqBody = bytes.NewBuffer(raw)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return remoteErr(path, KindNetwork, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return remoteErr(path, KindNetwork, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return remoteErr(path, KindMalformed, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err))
	}

	if env.Error != nil {
		kind := KindRejected
		// PGRST2xx codes mean the procedure or relation itself is missing,
		// not that a row was rejected.
		if strings.HasPrefix(env.Error.Code, "PGRST2") {
			kind = KindProcedure
		}
		return remoteErr(path, kind, env.Error)
	}
	if resp.StatusCode >= 400 {
		return remoteErr(path, KindMalformed, fmt.Errorf("status %d with empty error", resp.StatusCode))
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return remoteErr(path, KindMalformed, fmt.Errorf("decode data: %w", err))
		}
	}
	return nil
}

func (c *Client) rpc(ctx context.Context, proc string, params rpcParams, out any) error {
	return c.do(ctx, http.MethodPost, restPrefix+"/rpc/"+proc, nil, params, out)
}

func (c *Client) ListQuotes(ctx context.Context, filter QuoteFilter) ([]Quote, error) {
	query := url.Values{}
	query.Set("approved", "eq.true")
	query.Set("order", "created_at.desc")
	if filter.Category != "" {
		query.Set("category", "eq."+filter.Category)
	}
	if filter.Search != "" {
		// Text search is the backend's job; the term goes through as-is.
		query.Set("q", filter.Search)
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var quotes []Quote
	if err := c.do(ctx, http.MethodGet, restPrefix+"/quotes", query, nil, &quotes); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (c *Client) GetQuote(ctx context.Context, id int64) (*Quote, error) {
	query := url.Values{}
	query.Set("id", "eq."+strconv.FormatInt(id, 10))

	var quotes []Quote
	if err := c.do(ctx, http.MethodGet, restPrefix+"/quotes", query, nil, &quotes); err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, ErrNotFound
	}
	return &quotes[0], nil
}

func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.do(ctx, http.MethodGet, restPrefix+"/categories", nil, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) SubmitQuote(ctx context.Context, q NewQuote) (*Quote, error) {
	var created Quote
	if err := c.do(ctx, http.MethodPost, restPrefix+"/quotes", nil, q, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) ListPending(ctx context.Context) ([]Quote, error) {
	query := url.Values{}
	query.Set("approved", "eq.false")
	query.Set("order", "created_at.asc")

	var quotes []Quote
	if err := c.do(ctx, http.MethodGet, restPrefix+"/quotes", query, nil, &quotes); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (c *Client) ApproveQuote(ctx context.Context, id int64) error {
	query := url.Values{}
	query.Set("id", "eq."+strconv.FormatInt(id, 10))
	return c.do(ctx, http.MethodPatch, restPrefix+"/quotes", query, map[string]bool{"approved": true}, nil)
}

func (c *Client) DeleteQuote(ctx context.Context, id int64) error {
	query := url.Values{}
	query.Set("id", "eq."+strconv.FormatInt(id, 10))
	return c.do(ctx, http.MethodDelete, restPrefix+"/quotes", query, nil, nil)
}

func (c *Client) AddFavorite(ctx context.Context, userID string, quoteID int64) error {
	err := c.rpc(ctx, procAddFavorite, rpcParams{UserID: userID, QuoteID: quoteID}, nil)
	if isDuplicate(err) {
		// Idempotent upsert semantics: already favorited is success.
		return nil
	}
	return err
}

func (c *Client) RemoveFavorite(ctx context.Context, userID string, quoteID int64) error {
	err := c.rpc(ctx, procRemoveFavorite, rpcParams{UserID: userID, QuoteID: quoteID}, nil)
	if isMissing(err) {
		// Removing an absent favorite is success.
		return nil
	}
	return err
}

func (c *Client) IsFavorited(ctx context.Context, userID string, quoteID int64) (bool, error) {
	var favorited bool
	if err := c.rpc(ctx, procIsFavorited, rpcParams{UserID: userID, QuoteID: quoteID}, &favorited); err != nil {
		return false, err
	}
	return favorited, nil
}

func (c *Client) ListFavorites(ctx context.Context, userID string) ([]Quote, error) {
	var quotes []Quote
	if err := c.rpc(ctx, procListFavorites, rpcParams{UserID: userID}, &quotes); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (c *Client) Probe(ctx context.Context) error {
	query := url.Values{}
	query.Set("limit", "1")
	query.Set("select", "id")
	if err := c.do(ctx, http.MethodGet, restPrefix+"/quotes", query, nil, nil); err != nil {
		logger.Log.Debug("Probe failed", zap.Error(err))
		return err
	}
	return nil
}

// isDuplicate matches the service's unique-violation responses.
func isDuplicate(err error) bool {
	re, ok := IsRemote(err)
	if !ok || re.Kind != KindRejected {
		return false
	}
	var ae *apiError
	if !asAPIError(re.Err, &ae) {
		return false
	}
	return ae.Code == "23505" || strings.Contains(strings.ToLower(ae.Message), "already")
}

// isMissing matches the service's row-not-found responses.
func isMissing(err error) bool {
	re, ok := IsRemote(err)
	if !ok || re.Kind != KindRejected {
		return false
	}
	var ae *apiError
	if !asAPIError(re.Err, &ae) {
		return false
	}
	return ae.Code == "P0002" || strings.Contains(strings.ToLower(ae.Message), "not found")
}

func asAPIError(err error, out **apiError) bool {
	ae, ok := err.(*apiError)
	if !ok {
		return false
	}
	*out = ae
	return true
}
