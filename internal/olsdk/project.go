package olsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Project is one entry of the user's project dashboard.
type Project struct {
	ID          string    `json:"id"`
	LegacyID    string    `json:"_id"`
	Name        string    `json:"name"`
	LastUpdated time.Time `json:"lastUpdated"`
	Archived    bool      `json:"archived"`
	Trashed     bool      `json:"trashed"`
}

// ProjectID returns the project identifier regardless of which field the
// server populated.
func (p *Project) ProjectID() string {
	if p.ID != "" {
		return p.ID
	}
	return p.LegacyID
}

type projectListing struct {
	Projects []*Project `json:"projects"`
}

// ListProjects returns the user's active (non-archived, non-trashed)
// projects from the dashboard page.
func (c *Client) ListProjects(ctx context.Context) ([]*Project, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(projectPath)
	if err := handleAPIError(resp, err, "project listing"); err != nil {
		return nil, err
	}

	body, err := resp.ToString()
	if err != nil {
		return nil, fmt.Errorf("project listing body: %w", err)
	}

	raw := extractProjectsJSON(body)
	if raw == "" {
		// The dashboard without embedded data means we got the login page.
		return nil, fmt.Errorf("project listing: %w", ErrAuthRequired)
	}

	var listing projectListing
	if err := json.Unmarshal([]byte(raw), &listing); err != nil {
		return nil, fmt.Errorf("parse project listing: %w", err)
	}

	active := make([]*Project, 0, len(listing.Projects))
	for _, p := range listing.Projects {
		if p.Archived || p.Trashed {
			continue
		}
		active = append(active, p)
	}
	return active, nil
}

// GetProject finds an active project by name.
func (c *Client) GetProject(ctx context.Context, name string) (*Project, error) {
	projects, err := c.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range projects {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("project %q: %w", name, ErrProjectNotFound)
}

// DownloadZip downloads the whole project as a zip archive.
func (c *Client) DownloadZip(ctx context.Context, projectID string) ([]byte, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf(downloadPath, projectID))
	if err := handleAPIError(resp, err, "project download"); err != nil {
		return nil, err
	}

	return resp.ToBytes()
}
