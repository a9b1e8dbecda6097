// Package schoolbox is the HTTP adapter for the Schoolbox user directory API.
package schoolbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	domainauth "github.com/sbx-training/portal/internal/domain/auth"
	"github.com/sbx-training/portal/internal/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultItemsPath  = "data"
	defaultCursorPath = "metadata.cursor.next"
	maxResponseBytes  = 4 << 20
)

var _ ports.DirectoryClient = (*Client)(nil)

// Config captures how to reach the directory.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	// ItemsPath and CursorPath are JMESPath expressions evaluated against the decoded response.
	ItemsPath  string
	CursorPath string

	// Transport is the base round tripper; defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// Client calls the Schoolbox user API with a bearer token.
type Client struct {
	baseURL    *url.URL
	itemsPath  string
	cursorPath string
	client     *http.Client
}

// NewClient builds a directory client. The bearer token is attached by an oauth2 transport
// and requests are traced with otelhttp.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid directory base url %q", cfg.BaseURL)
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("directory token is required")
	}

	itemsPath := fallbackString(strings.TrimSpace(cfg.ItemsPath), defaultItemsPath)
	cursorPath := fallbackString(strings.TrimSpace(cfg.CursorPath), defaultCursorPath)
	for _, expr := range []string{itemsPath, cursorPath} {
		if _, compileErr := jmespath.Compile(expr); compileErr != nil {
			return nil, fmt.Errorf("invalid jmespath %q: %w", expr, compileErr)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		baseURL:    base,
		itemsPath:  itemsPath,
		cursorPath: cursorPath,
		client: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
				Base:   otelhttp.NewTransport(transport),
			},
		},
	}, nil
}

// GetUser fetches GET {base}/api/user/{id}.
func (c *Client) GetUser(ctx context.Context, internalID int64) (domainauth.RemoteUserProfile, error) {
	endpoint := c.endpoint("api", "user", strconv.FormatInt(internalID, 10))

	doc, status, err := c.get(ctx, endpoint)
	if err != nil {
		return domainauth.RemoteUserProfile{}, err
	}
	if status == http.StatusNotFound {
		return domainauth.RemoteUserProfile{}, ports.ErrRemoteUserNotFound
	}

	users, err := c.extractUsers(doc)
	if err != nil {
		return domainauth.RemoteUserProfile{}, &UpstreamError{Op: "get user", Err: err}
	}
	if len(users) == 0 {
		return domainauth.RemoteUserProfile{}, ports.ErrRemoteUserNotFound
	}
	return users[0], nil
}

// ListUsers fetches GET {base}/api/user?filter={json}&limit=&cursor=. A 404 is an empty page.
func (c *Client) ListUsers(ctx context.Context, in ports.ListUsersInput) (ports.UserPage, error) {
	endpoint := c.endpoint("api", "user")
	q := url.Values{}
	if len(in.Filter) > 0 {
		filter, err := json.Marshal(in.Filter)
		if err != nil {
			return ports.UserPage{}, fmt.Errorf("encode filter: %w", err)
		}
		q.Set("filter", string(filter))
	}
	if in.Limit > 0 {
		q.Set("limit", strconv.Itoa(in.Limit))
	}
	if in.Cursor != "" {
		q.Set("cursor", in.Cursor)
	}
	endpoint.RawQuery = q.Encode()

	doc, status, err := c.get(ctx, endpoint)
	if err != nil {
		return ports.UserPage{}, err
	}
	if status == http.StatusNotFound {
		return ports.UserPage{}, nil
	}

	users, err := c.extractUsers(doc)
	if err != nil {
		return ports.UserPage{}, &UpstreamError{Op: "list users", Err: err}
	}
	cursor, err := c.extractCursor(doc)
	if err != nil {
		return ports.UserPage{}, &UpstreamError{Op: "list users", Err: err}
	}
	return ports.UserPage{Items: users, NextCursor: cursor}, nil
}

func (c *Client) endpoint(segments ...string) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(segments, "/")
	return &u
}

// get performs the request and decodes a 2xx body. 404 is returned as a status with a nil document;
// every other failure is an *UpstreamError.
func (c *Client) get(ctx context.Context, endpoint *url.URL) (any, int, error) {
	op := "GET " + endpoint.Path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create directory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, &UpstreamError{Op: op, Err: err}
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil, resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, resp.StatusCode, &UpstreamError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(snippet))),
		}
	}

	var doc any
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	dec.UseNumber()
	if decodeErr := dec.Decode(&doc); decodeErr != nil {
		return nil, resp.StatusCode, &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", decodeErr)}
	}
	return doc, resp.StatusCode, nil
}

func (c *Client) extractUsers(doc any) ([]domainauth.RemoteUserProfile, error) {
	raw, err := jmespath.Search(c.itemsPath, doc)
	if err != nil {
		return nil, fmt.Errorf("evaluate items path: %w", err)
	}

	var items []any
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	default:
		return nil, fmt.Errorf("items path %q yielded %T", c.itemsPath, raw)
	}

	out := make([]domainauth.RemoteUserProfile, 0, len(items))
	for i, item := range items {
		b, marshalErr := json.Marshal(item)
		if marshalErr != nil {
			return nil, fmt.Errorf("re-encode item %d: %w", i, marshalErr)
		}
		var u remoteUser
		if unmarshalErr := json.Unmarshal(b, &u); unmarshalErr != nil {
			return nil, fmt.Errorf("decode item %d: %w", i, unmarshalErr)
		}
		profile, profileErr := u.profile()
		if profileErr != nil {
			return nil, fmt.Errorf("decode item %d: %w", i, profileErr)
		}
		out = append(out, profile)
	}
	return out, nil
}

func (c *Client) extractCursor(doc any) (string, error) {
	raw, err := jmespath.Search(c.cursorPath, doc)
	if err != nil {
		return "", fmt.Errorf("evaluate cursor path: %w", err)
	}
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("cursor path %q yielded %T", c.cursorPath, raw)
	}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxResponseBytes))
	_ = body.Close()
}

func fallbackString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
