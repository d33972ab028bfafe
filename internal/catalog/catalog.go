// Package catalog fetches selectable option lists from the hh.ru dictionaries API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://api.hh.ru"
	userAgent      = "hh-job-bot/1.0 (telegram)"
	apiTimeout     = 15 * time.Second
)

var (
	// ErrUpstreamUnavailable is returned when the catalog cannot be reached or answers with a non-200 status.
	ErrUpstreamUnavailable = errors.New("catalog service unavailable")
	// ErrNotFound is returned when a region id is not present in the tree.
	ErrNotFound = errors.New("catalog entry not found")
)

// Kind selects which dictionary to fetch.
type Kind string

const (
	KindRegion           Kind = "region"
	KindSchedule         Kind = "schedule"
	KindEmployment       Kind = "employment"
	KindProfessionalArea Kind = "professional_area"
)

// Option is a selectable entry. Children is only populated for regions.
type Option struct {
	ID       string
	Label    string
	Children []Option
}

// Client talks to the catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for baseURL (DefaultBaseURL when empty).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: apiTimeout},
	}
}

// area mirrors one node of GET /areas.
type area struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parent_id"`
	Name     string  `json:"name"`
	Areas    []area  `json:"areas"`
}

type dictEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type profGroup struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Categories []dictEntry `json:"categories"`
}

// FetchOptions returns the options for kind. For regions, an empty parentID
// yields the top-level countries and a non-empty one yields that node's direct children.
func (c *Client) FetchOptions(ctx context.Context, kind Kind, parentID string) ([]Option, error) {
	switch kind {
	case KindRegion:
		if parentID == "" {
			return c.topRegions(ctx)
		}
		region, err := c.FindRegion(ctx, parentID)
		if err != nil {
			return nil, err
		}
		return region.Children, nil
	case KindSchedule:
		return c.flat(ctx, "/schedules")
	case KindEmployment:
		return c.flat(ctx, "/employments")
	case KindProfessionalArea:
		return c.professionalAreas(ctx)
	default:
		return nil, fmt.Errorf("unknown catalog kind %q", kind)
	}
}

// FindRegion returns the region with the given id and its direct children.
func (c *Client) FindRegion(ctx context.Context, id string) (Option, error) {
	var tree []area
	if err := c.get(ctx, "/areas", &tree); err != nil {
		return Option{}, err
	}

	node := findArea(tree, id)
	if node == nil {
		return Option{}, fmt.Errorf("region %s: %w", id, ErrNotFound)
	}

	region := Option{ID: node.ID, Label: label(node.ID, node.Name)}
	for _, child := range node.Areas {
		region.Children = append(region.Children, Option{ID: child.ID, Label: label(child.ID, child.Name)})
	}
	return region, nil
}

func (c *Client) topRegions(ctx context.Context) ([]Option, error) {
	var tree []area
	if err := c.get(ctx, "/areas", &tree); err != nil {
		return nil, err
	}

	var out []Option
	for _, a := range tree {
		if a.ParentID != nil && *a.ParentID != "" {
			continue
		}
		out = append(out, Option{ID: a.ID, Label: label(a.ID, a.Name)})
	}
	return out, nil
}

func (c *Client) flat(ctx context.Context, endpoint string) ([]Option, error) {
	var entries []dictEntry
	if err := c.get(ctx, endpoint, &entries); err != nil {
		return nil, err
	}

	out := make([]Option, 0, len(entries))
	for _, e := range entries {
		out = append(out, Option{ID: e.ID, Label: label(e.ID, e.Name)})
	}
	return out, nil
}

// professionalAreas flattens groups into their leaf categories; groups themselves are not selectable.
func (c *Client) professionalAreas(ctx context.Context) ([]Option, error) {
	var groups []profGroup
	if err := c.get(ctx, "/professional_areas", &groups); err != nil {
		return nil, err
	}

	var out []Option
	for _, g := range groups {
		for _, cat := range g.Categories {
			out = append(out, Option{ID: cat.ID, Label: label(cat.ID, cat.Name)})
		}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, dst any) error {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: fetch %s: %v", ErrUpstreamUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", ErrUpstreamUnavailable, endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUpstreamUnavailable, endpoint, err)
	}
	return nil
}

func findArea(items []area, id string) *area {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
		if found := findArea(items[i].Areas, id); found != nil {
			return found
		}
	}
	return nil
}

// label guarantees a non-empty button caption.
func label(id, name string) string {
	if name != "" {
		return name
	}
	return "ID: " + id
}
