// Package backend is the client for the bot backend: resume listing, vacancy search and OAuth links.
// The backend owns hh.ru credentials; the bot only ever passes the Telegram user id.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const apiTimeout = 30 * time.Second

// ErrUnavailable is returned on transport failures and non-success statuses.
var ErrUnavailable = errors.New("backend unavailable")

// Resume is one of the user's hh.ru resumes.
type Resume struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Criteria is the search request. Absent answers are omitted from the JSON body.
type Criteria struct {
	TelegramID       int64  `json:"telegramId"`
	ResumeID         string `json:"resumeId,omitempty"`
	Region           string `json:"region,omitempty"`
	WorkSchedule     string `json:"workSchedule,omitempty"`
	EmploymentType   string `json:"employmentType,omitempty"`
	ProfessionalArea string `json:"professionalArea,omitempty"`
	Keywords         string `json:"keywords,omitempty"`
	CoverLetter      string `json:"coverLetter,omitempty"`
}

// Salary is the vacancy salary range. Nil bounds are unknown.
type Salary struct {
	From     *float64 `json:"from"`
	To       *float64 `json:"to"`
	Currency string   `json:"currency"`
	Gross    bool     `json:"gross"`
}

// Vacancy is one search result.
type Vacancy struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Employer *struct {
		Name string `json:"name"`
	} `json:"employer"`
	Salary *Salary `json:"salary"`
	Area   *struct {
		Name string `json:"name"`
	} `json:"area"`
	PublishedAt  string `json:"published_at"`
	AlternateURL string `json:"alternate_url"`
	URL          string `json:"url"`
}

// EmployerName returns the employer name or "".
func (v Vacancy) EmployerName() string {
	if v.Employer == nil {
		return ""
	}
	return v.Employer.Name
}

// AreaName returns the area name or "".
func (v Vacancy) AreaName() string {
	if v.Area == nil {
		return ""
	}
	return v.Area.Name
}

// Link returns the public vacancy page, falling back to the API url.
func (v Vacancy) Link() string {
	if v.AlternateURL != "" {
		return v.AlternateURL
	}
	return v.URL
}

// Client calls the backend HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the backend at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: apiTimeout},
	}
}

// AuthURL returns the OAuth entry point for the given Telegram user.
func (c *Client) AuthURL(userID int64) string {
	q := url.Values{"telegramId": {strconv.FormatInt(userID, 10)}}
	return c.baseURL + "/auth/hh?" + q.Encode()
}

// ListResumes returns the user's resumes. A user the backend does not know
// (no stored token) yields an empty list rather than an error.
func (c *Client) ListResumes(ctx context.Context, userID int64) ([]Resume, error) {
	endpoint := fmt.Sprintf("%s/user/%d/resumes", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch resumes: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: resumes returned status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read resumes: %v", ErrUnavailable, err)
	}
	return decodeResumes(body)
}

// decodeResumes accepts both {"items": [...]} and a bare array.
func decodeResumes(body []byte) ([]Resume, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []Resume
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode resumes: %w", err)
		}
		return list, nil
	}

	var wrapped struct {
		Items []Resume `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode resumes: %w", err)
	}
	return wrapped.Items, nil
}

// Search posts the criteria and returns the vacancies in backend order.
func (c *Client) Search(ctx context.Context, criteria Criteria) ([]Vacancy, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	payload, err := json.Marshal(criteria)
	if err != nil {
		return nil, fmt.Errorf("encode criteria: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: search returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var vacancies []Vacancy
	if err := json.NewDecoder(resp.Body).Decode(&vacancies); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", ErrUnavailable, err)
	}
	return vacancies, nil
}
