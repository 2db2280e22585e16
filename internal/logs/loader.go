package logs

import (
	"context"

	"skiff/internal/api"
)

// PageFunc fetches one log page. before is nil for the first page.
type PageFunc func(ctx context.Context, first int, before *string) (*api.LogPage, error)

// Loader pulls a log stream page by page, threading the cursor through.
// Once the backend reports the end, further loads return nothing without
// touching the network.
type Loader struct {
	cursor Cursor[string]
	fetch  PageFunc
}

// NewLoader wraps an arbitrary page source.
func NewLoader(fetch PageFunc) *Loader {
	return &Loader{fetch: fetch}
}

// ForApp follows the current deployment of an app.
func ForApp(c *api.Client, appID string) *Loader {
	return NewLoader(func(ctx context.Context, first int, before *string) (*api.LogPage, error) {
		return c.AppLogs(ctx, appID, first, before)
	})
}

// ForDeployment follows one specific deployment.
func ForDeployment(c *api.Client, deploymentID string) *Loader {
	return NewLoader(func(ctx context.Context, first int, before *string) (*api.LogPage, error) {
		return c.DeploymentLogs(ctx, deploymentID, first, before)
	})
}

// Load fetches the next page, up to pageSize records.
func (l *Loader) Load(ctx context.Context, pageSize int) ([]api.Log, error) {
	if l.cursor.Done() {
		return nil, nil
	}

	var before *string
	if tok, ok := l.cursor.Ref(); ok {
		before = &tok
	}
	page, err := l.fetch(ctx, pageSize, before)
	if err != nil {
		return nil, err
	}
	l.cursor.Advance(page.Cursor)
	return page.Data, nil
}

// Done reports whether the stream is exhausted.
func (l *Loader) Done() bool {
	return l.cursor.Done()
}
