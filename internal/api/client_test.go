package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"skiff/internal/auth"
	"skiff/internal/manifest"
)

func TestNewRejectsBadEndpoints(t *testing.T) {
	for _, endpoint := range []string{"://nope", "ftp://example.test", "not a url at all\x7f"} {
		if _, err := New(endpoint, nil); err == nil {
			t.Errorf("New(%q) accepted an invalid endpoint", endpoint)
		}
	}
}

func TestCallSignsAndDecodes(t *testing.T) {
	creds, accessKey, _, err := auth.Generate()
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("content-type") != "application/json" {
			t.Errorf("content-type = %s", r.Header.Get("content-type"))
		}
		if got := r.Header.Get(auth.HeaderAccessKey); got != accessKey {
			t.Errorf("%s = %s", auth.HeaderAccessKey, got)
		}
		ts := r.Header.Get(auth.HeaderTime)
		sig := r.Header.Get(auth.HeaderSignature)
		if !creds.Verify(ts, sig) {
			t.Errorf("request signature does not verify")
		}

		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("body decode: %v", err)
		}
		if !strings.Contains(body.Query, "RunDeploymentList") {
			t.Errorf("query = %s", body.Query)
		}
		if body.Variables["appId"] != "my-app" {
			t.Errorf("variables = %v", body.Variables)
		}

		io.WriteString(w, `{"data": {"listDeployment": [
			{"id": "d1", "createdAt": "2026-08-01T10:00:00Z", "live": true},
			{"id": "d2", "createdAt": "2026-07-30T09:00:00Z", "live": false}
		]}}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, creds)
	if err != nil {
		t.Fatal(err)
	}
	deployments, err := c.ListDeployments(context.Background(), "my-app", 100, 0)
	if err != nil {
		t.Fatalf("ListDeployments() error: %v", err)
	}
	if len(deployments) != 2 || deployments[0].ID != "d1" || !deployments[0].Live {
		t.Errorf("deployments = %+v", deployments)
	}
}

func TestCallSurfacesServiceErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"errors": [{"message": "permission denied"}]}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.ListDeployments(context.Background(), "my-app", 10, 0)
	if err == nil || !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("error = %v, want service error surfaced", err)
	}
}

func TestCallRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ListDeployments(context.Background(), "my-app", 10, 0); err == nil {
		t.Errorf("error status was not surfaced")
	}
}

func TestDeployFlow(t *testing.T) {
	var uploaded []byte
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch {
		case strings.Contains(string(body), "RunDeploymentPreparation"):
			io.WriteString(w, `{"data": {"prepareDeployment": {"uploadUrl": "`+srv.URL+`/upload/pkg-1", "packageKey": "pkg-1"}}}`)
		case strings.Contains(string(body), "RunDeploymentCreation"):
			var req struct {
				Variables struct {
					PackageKey string `json:"packageKey"`
					Metadata   string `json:"metadata"`
				} `json:"variables"`
			}
			if err := json.Unmarshal(body, &req); err != nil {
				t.Errorf("creation body: %v", err)
			}
			if req.Variables.PackageKey != "pkg-1" {
				t.Errorf("packageKey = %s", req.Variables.PackageKey)
			}
			var md manifest.AppMetadata
			if err := json.Unmarshal([]byte(req.Variables.Metadata), &md); err != nil {
				t.Errorf("metadata is not JSON: %v", err)
			} else if md.ID != "my-app" || md.Env["A"] != "1" {
				t.Errorf("metadata = %+v", md)
			}
			io.WriteString(w, `{"data": {"createDeployment": {"id": "d9", "createdAt": "now", "live": false}}}`)
		default:
			t.Errorf("unexpected operation: %s", body)
		}
	})
	mux.HandleFunc("/upload/pkg-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("upload method = %s", r.Method)
		}
		uploaded, _ = io.ReadAll(r.Body)
	})

	srv = httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL+"/graphql", nil)
	if err != nil {
		t.Fatal(err)
	}
	md := &manifest.AppMetadata{
		ID:      "my-app",
		Env:     map[string]string{"A": "1"},
		Secrets: map[string]string{},
	}
	dep, err := c.Deploy(context.Background(), md, []byte("tar-bytes"))
	if err != nil {
		t.Fatalf("Deploy() error: %v", err)
	}
	if dep.ID != "d9" {
		t.Errorf("deployment = %+v", dep)
	}
	if string(uploaded) != "tar-bytes" {
		t.Errorf("uploaded = %q", uploaded)
	}
}

func TestLogPaging(t *testing.T) {
	page := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "GetDeploymentLogs") {
			t.Errorf("unexpected operation: %s", body)
		}
		page++
		if page == 1 {
			io.WriteString(w, `{"data": {"deployment": {"logs": {
				"data": [{"ts": 1, "request_id": "r1", "seq": 0, "message": "started"}],
				"cursor": "c1"
			}}}}`)
			return
		}
		var req struct {
			Variables struct {
				Before string `json:"before"`
			} `json:"variables"`
		}
		json.Unmarshal(body, &req) //nolint:errcheck
		if req.Variables.Before != "c1" {
			t.Errorf("before = %q, want c1", req.Variables.Before)
		}
		io.WriteString(w, `{"data": {"deployment": {"logs": {"data": [], "cursor": null}}}}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	first, err := c.DeploymentLogs(context.Background(), "d1", 100, nil)
	if err != nil {
		t.Fatalf("DeploymentLogs() error: %v", err)
	}
	if len(first.Data) != 1 || first.Data[0].Message != "started" || first.Cursor == nil {
		t.Fatalf("first page = %+v", first)
	}
	second, err := c.DeploymentLogs(context.Background(), "d1", 100, first.Cursor)
	if err != nil {
		t.Fatalf("DeploymentLogs() error: %v", err)
	}
	if len(second.Data) != 0 || second.Cursor != nil {
		t.Errorf("second page = %+v", second)
	}
}
