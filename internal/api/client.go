// Package api is the GraphQL-over-HTTP client for the deployment backend.
// Every operation posts a JSON query body to the single endpoint and, when
// credentials are present, annotates the request with signed auth headers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skiff/internal/auth"
)

// Client talks to one backend endpoint. The zero value is not usable;
// construct with New.
type Client struct {
	endpoint string
	http     *http.Client
	creds    *auth.Credentials
	now      func() time.Time
}

// New validates the endpoint URL. Credentials may be nil for anonymous
// operations; signed operations then fail server-side, not here.
func New(endpoint string, creds *auth.Credentials) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint url: unsupported scheme %q", u.Scheme)
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 60 * time.Second},
		creds:    creds,
		now:      time.Now,
	}, nil
}

type queryBody struct {
	Query     string `json:"query"`
	Variables any    `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// call posts one operation and decodes response.data into out. GraphQL
// errors surface as a single joined error.
func (c *Client) call(ctx context.Context, query string, variables, out any) error {
	body, err := json.Marshal(queryBody{Query: query, Variables: variables})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")
	if c.creds != nil {
		c.creds.Annotate(req, c.now())
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api call failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("api call returned error status: %s", res.Status)
	}

	var rsp response
	if err := json.NewDecoder(res.Body).Decode(&rsp); err != nil {
		return fmt.Errorf("api call failed: %w", err)
	}
	if len(rsp.Errors) > 0 {
		msgs := make([]string, 0, len(rsp.Errors))
		for _, e := range rsp.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("service error: %s", strings.Join(msgs, "; "))
	}
	if out != nil {
		if rsp.Data == nil {
			return fmt.Errorf("service returned no data")
		}
		if err := json.Unmarshal(rsp.Data, out); err != nil {
			return fmt.Errorf("api call failed: %w", err)
		}
	}
	return nil
}

// upload PUTs a package archive to the URL the backend prepared.
func (c *Client) upload(ctx context.Context, uploadURL string, pkg []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(pkg))
	if err != nil {
		return err
	}
	req.Header.Set("content-type", "application/x-tar")
	req.ContentLength = int64(len(pkg))

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("package upload failed: %w", err)
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body) //nolint:errcheck
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("package upload returned error status: %s", res.Status)
	}
	return nil
}
