package solr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SelectParams are the query parameters of a /select request.
type SelectParams struct {
	Query         string
	FilterQueries []string
	Sort          string
	Start         int
	Rows          int
	Fields        []string // fl; empty means all stored fields
	FacetFields   []string
}

// UpdateOptions control commit behavior for update requests.
type UpdateOptions struct {
	Commit       bool
	CommitWithin int // milliseconds; ignored when Commit is true or <= 0
}

// Client implements ClientInterface over the Solr HTTP API.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// NewClient creates a Solr client for the given base URL, e.g.
// "http://localhost:8983". Credentials may be empty.
func NewClient(baseURL, username, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) collectionURL(collection, path string) string {
	return fmt.Sprintf("%s/solr/%s%s", c.baseURL, url.PathEscape(collection), path)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, rawURL string, reqBody, respBody interface{}) error {
	var body io.Reader
	headers := map[string]string{"Content-Type": "application/json"}

	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.do(ctx, method, rawURL, body, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// Ping checks that the collection answers on its ping handler.
func (c *Client) Ping(ctx context.Context, collection string) error {
	var pr pingResponse
	u := c.collectionURL(collection, "/admin/ping") + "?wt=json"
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &pr); err != nil {
		return fmt.Errorf("ping %s: %w", collection, err)
	}
	if pr.Status != "" && pr.Status != "OK" {
		return &EngineError{Status: pr.ResponseHeader.Status, Message: "ping status " + pr.Status}
	}
	return nil
}

// Select executes a query against the collection.
func (c *Client) Select(ctx context.Context, collection string, params SelectParams) (*SelectResponse, error) {
	v := url.Values{}
	q := params.Query
	if q == "" {
		q = "*:*"
	}
	v.Set("q", q)
	v.Set("wt", "json")
	for _, fq := range params.FilterQueries {
		v.Add("fq", fq)
	}
	if params.Sort != "" {
		v.Set("sort", params.Sort)
	}
	v.Set("start", strconv.Itoa(params.Start))
	if params.Rows > 0 {
		v.Set("rows", strconv.Itoa(params.Rows))
	}
	if len(params.Fields) > 0 {
		v.Set("fl", strings.Join(params.Fields, ","))
	}
	if len(params.FacetFields) > 0 {
		v.Set("facet", "true")
		v.Set("facet.mincount", "1")
		for _, f := range params.FacetFields {
			v.Add("facet.field", f)
		}
	}

	// POST the form body; large fq lists overflow URL limits on GET.
	u := c.collectionURL(collection, "/select")
	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	resp, err := c.do(ctx, http.MethodPost, u, strings.NewReader(v.Encode()), headers)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", collection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeError(resp)
	}

	var sr SelectResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode select response: %w", err)
	}
	return &sr, nil
}

func (c *Client) updateURL(collection string, opts UpdateOptions) string {
	v := url.Values{}
	v.Set("wt", "json")
	if opts.Commit {
		v.Set("commit", "true")
	} else if opts.CommitWithin > 0 {
		v.Set("commitWithin", strconv.Itoa(opts.CommitWithin))
	}
	return c.collectionURL(collection, "/update") + "?" + v.Encode()
}

// Add indexes documents into the collection.
func (c *Client) Add(ctx context.Context, collection string, docs []Document, opts UpdateOptions) error {
	if err := c.doJSON(ctx, http.MethodPost, c.updateURL(collection, opts), docs, nil); err != nil {
		return fmt.Errorf("add %d docs to %s: %w", len(docs), collection, err)
	}
	return nil
}

// DeleteByID removes documents by id.
func (c *Client) DeleteByID(ctx context.Context, collection string, ids []string, opts UpdateOptions) error {
	body := map[string]interface{}{"delete": ids}
	if err := c.doJSON(ctx, http.MethodPost, c.updateURL(collection, opts), body, nil); err != nil {
		return fmt.Errorf("delete by id from %s: %w", collection, err)
	}
	return nil
}

// DeleteByQuery removes every document matching the query.
func (c *Client) DeleteByQuery(ctx context.Context, collection, query string, opts UpdateOptions) error {
	body := map[string]interface{}{"delete": map[string]string{"query": query}}
	if err := c.doJSON(ctx, http.MethodPost, c.updateURL(collection, opts), body, nil); err != nil {
		return fmt.Errorf("delete by query from %s: %w", collection, err)
	}
	return nil
}

// Commit issues an explicit commit.
func (c *Client) Commit(ctx context.Context, collection string) error {
	body := map[string]interface{}{"commit": map[string]interface{}{}}
	u := c.collectionURL(collection, "/update") + "?wt=json"
	if err := c.doJSON(ctx, http.MethodPost, u, body, nil); err != nil {
		return fmt.Errorf("commit %s: %w", collection, err)
	}
	return nil
}

// Optimize merges index segments. Expensive; callers gate it explicitly.
func (c *Client) Optimize(ctx context.Context, collection string) error {
	body := map[string]interface{}{"optimize": map[string]interface{}{}}
	u := c.collectionURL(collection, "/update") + "?wt=json"
	if err := c.doJSON(ctx, http.MethodPost, u, body, nil); err != nil {
		return fmt.Errorf("optimize %s: %w", collection, err)
	}
	return nil
}

// ListCollections returns all collection names known to the engine.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	u := c.baseURL + "/solr/admin/collections?action=LIST&wt=json"
	var lr collectionsListResponse
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &lr); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return lr.Collections, nil
}

// CreateCollection creates a collection from a config set template.
func (c *Client) CreateCollection(ctx context.Context, name, configSet string) error {
	v := url.Values{}
	v.Set("action", "CREATE")
	v.Set("name", name)
	v.Set("numShards", "1")
	v.Set("replicationFactor", "1")
	if configSet != "" {
		v.Set("collection.configName", configSet)
	}
	v.Set("wt", "json")

	u := c.baseURL + "/solr/admin/collections?" + v.Encode()
	if err := c.doJSON(ctx, http.MethodGet, u, nil, nil); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	return nil
}
