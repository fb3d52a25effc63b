// Package remote runs SELECT queries against a SPARQL 1.1 protocol endpoint
// and turns the JSON results into the same solutions the local evaluator
// produces, so both go through one result codec.
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/roach88/typox/internal/sparql"
	"github.com/roach88/typox/internal/term"
)

// DefaultTimeout bounds a request when Client.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Client queries one endpoint.
type Client struct {
	Endpoint string

	// HTTP defaults to http.DefaultClient.
	HTTP *http.Client

	Timeout time.Duration
}

// New creates a Client for endpoint.
func New(endpoint string) *Client {
	return &Client{Endpoint: endpoint, Timeout: DefaultTimeout}
}

// EndpointError reports a non-2xx response.
type EndpointError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("endpoint %s returned %d: %s", e.Endpoint, e.Status, e.Body)
}

// Select posts query and decodes an application/sparql-results+json
// response.
func (c *Client) Select(ctx context.Context, query string) (*sparql.Result, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/sparql-query")
	req.Header.Set("Accept", "application/sparql-results+json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.Endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &EndpointError{Endpoint: c.Endpoint, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return DecodeResults(body)
}

// DecodeResults parses a SPARQL JSON results document.
func DecodeResults(body []byte) (*sparql.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("malformed results: invalid JSON")
	}
	doc := gjson.ParseBytes(body)

	vars := doc.Get("head.vars")
	if !vars.IsArray() {
		return nil, fmt.Errorf("malformed results: missing head.vars")
	}
	res := &sparql.Result{Vars: []string{}, Solutions: []sparql.Solution{}}
	vars.ForEach(func(_, v gjson.Result) bool {
		res.Vars = append(res.Vars, v.String())
		return true
	})

	var decodeErr error
	doc.Get("results.bindings").ForEach(func(_, row gjson.Result) bool {
		sol := sparql.Solution{}
		row.ForEach(func(name, cell gjson.Result) bool {
			t, err := decodeTerm(cell)
			if err != nil {
				decodeErr = fmt.Errorf("binding %s: %w", name.String(), err)
				return false
			}
			sol[name.String()] = t
			return true
		})
		if decodeErr != nil {
			return false
		}
		res.Solutions = append(res.Solutions, sol)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return res, nil
}

func decodeTerm(cell gjson.Result) (term.Term, error) {
	value := cell.Get("value").String()
	switch kind := cell.Get("type").String(); kind {
	case "uri":
		return term.IRI(value), nil
	case "bnode":
		return term.BlankNode(value), nil
	case "literal", "typed-literal":
		if lang := cell.Get("xml:lang"); lang.Exists() {
			return term.NewLangLiteral(value, lang.String()), nil
		}
		return term.NewLiteral(value, term.IRI(cell.Get("datatype").String())), nil
	default:
		return nil, fmt.Errorf("unknown term type %q", kind)
	}
}
