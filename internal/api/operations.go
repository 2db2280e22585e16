package api

import (
	"context"
	"fmt"

	"skiff/internal/manifest"
)

// Deployment is one row of the backend's deployment list.
type Deployment struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	Live      bool   `json:"live"`
}

const listDeploymentsQuery = `
query RunDeploymentList($appId: String!, $first: Int, $offset: Int) {
  listDeployment(appId: $appId, first: $first, offset: $offset) {
    id
    createdAt
    live
  }
}`

// ListDeployments returns up to first deployments of an app, newest first.
func (c *Client) ListDeployments(ctx context.Context, appID string, first, offset int) ([]Deployment, error) {
	var data struct {
		ListDeployment []Deployment `json:"listDeployment"`
	}
	vars := map[string]any{"appId": appID, "first": first}
	if offset > 0 {
		vars["offset"] = offset
	}
	if err := c.call(ctx, listDeploymentsQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.ListDeployment, nil
}

// PreparedDeployment is the backend's answer to a preparation request:
// where to PUT the archive and how to refer to it afterwards.
type PreparedDeployment struct {
	UploadURL  string `json:"uploadUrl"`
	PackageKey string `json:"packageKey"`
}

const prepareDeploymentQuery = `
mutation RunDeploymentPreparation($appId: String!, $packageSize: Int!) {
  prepareDeployment(appId: $appId, packageSize: $packageSize) {
    uploadUrl
    packageKey
  }
}`

const createDeploymentQuery = `
mutation RunDeploymentCreation($appId: String!, $packageKey: String!, $metadata: String!) {
  createDeployment(appId: $appId, packageKey: $packageKey, metadata: $metadata) {
    id
    createdAt
    live
  }
}`

// Deploy runs the three-step flow: prepare, upload the archive, create
// the deployment with the serialized metadata.
func (c *Client) Deploy(ctx context.Context, md *manifest.AppMetadata, pkg []byte) (*Deployment, error) {
	var prep struct {
		PrepareDeployment PreparedDeployment `json:"prepareDeployment"`
	}
	err := c.call(ctx, prepareDeploymentQuery, map[string]any{
		"appId":       md.ID,
		"packageSize": len(pkg),
	}, &prep)
	if err != nil {
		return nil, fmt.Errorf("prepare deployment: %w", err)
	}

	if err := c.upload(ctx, prep.PrepareDeployment.UploadURL, pkg); err != nil {
		return nil, err
	}

	mdJSON, err := md.JSON()
	if err != nil {
		return nil, fmt.Errorf("serialize metadata: %w", err)
	}
	var created struct {
		CreateDeployment Deployment `json:"createDeployment"`
	}
	err = c.call(ctx, createDeploymentQuery, map[string]any{
		"appId":      md.ID,
		"packageKey": prep.PrepareDeployment.PackageKey,
		"metadata":   string(mdJSON),
	}, &created)
	if err != nil {
		return nil, fmt.Errorf("create deployment: %w", err)
	}
	return &created.CreateDeployment, nil
}

// Log is one backend log record.
type Log struct {
	TS        int64  `json:"ts"`
	RequestID string `json:"request_id"`
	Seq       int64  `json:"seq"`
	Message   string `json:"message"`
}

// LogPage is one page of log records plus the continuation cursor; a nil
// cursor means the stream is exhausted.
type LogPage struct {
	Data   []Log   `json:"data"`
	Cursor *string `json:"cursor"`
}

const appLogsQuery = `
query GetAppLogs($id: String!, $first: Int, $before: String) {
  app(id: $id) {
    currentDeployment {
      logs(first: $first, before: $before) {
        data { ts request_id seq message }
        cursor
      }
    }
  }
}`

const deploymentLogsQuery = `
query GetDeploymentLogs($id: String!, $first: Int, $before: String) {
  deployment(id: $id) {
    logs(first: $first, before: $before) {
      data { ts request_id seq message }
      cursor
    }
  }
}`

// AppLogs fetches one page of the app's current deployment logs.
func (c *Client) AppLogs(ctx context.Context, appID string, first int, before *string) (*LogPage, error) {
	var data struct {
		App *struct {
			CurrentDeployment *struct {
				Logs LogPage `json:"logs"`
			} `json:"currentDeployment"`
		} `json:"app"`
	}
	vars := map[string]any{"id": appID, "first": first}
	if before != nil {
		vars["before"] = *before
	}
	if err := c.call(ctx, appLogsQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.App == nil || data.App.CurrentDeployment == nil {
		return nil, fmt.Errorf("app %q has no live deployment", appID)
	}
	return &data.App.CurrentDeployment.Logs, nil
}

// DeploymentLogs fetches one page of a specific deployment's logs.
func (c *Client) DeploymentLogs(ctx context.Context, deploymentID string, first int, before *string) (*LogPage, error) {
	var data struct {
		Deployment *struct {
			Logs LogPage `json:"logs"`
		} `json:"deployment"`
	}
	vars := map[string]any{"id": deploymentID, "first": first}
	if before != nil {
		vars["before"] = *before
	}
	if err := c.call(ctx, deploymentLogsQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Deployment == nil {
		return nil, fmt.Errorf("deployment %q not found", deploymentID)
	}
	return &data.Deployment.Logs, nil
}
