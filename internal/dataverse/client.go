// client.go - OData client for msdyn_solutioncomponentsummaries.
package dataverse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnauthorized is returned on HTTP 401; the captured token has expired.
var ErrUnauthorized = errors.New("dataverse: token invalid or expired")

// apiVersion is the Web API version the summaries endpoint is queried on.
const apiVersion = "v9.0"

// maxPages bounds @odata.nextLink chains.
const maxPages = 1000

// Component is one solution component summary.
type Component struct {
	ObjectID    string `json:"msdyn_objectid"`
	DisplayName string `json:"msdyn_displayname"`
	Name        string `json:"msdyn_name,omitempty"`
	Type        string `json:"msdyn_componenttypename,omitempty"`
	IsManaged   bool   `json:"msdyn_ismanaged"`
}

type page struct {
	Value    []Component `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

// Client queries one Dataverse instance.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	Logger  *slog.Logger
}

// NewClient returns a client for instanceURL authenticating with token.
// token may be given with or without the "Bearer " prefix.
func NewClient(instanceURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL: strings.TrimRight(instanceURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Logger:  logger,
	}
}

// SolutionComponents returns every component of solutionID, following
// @odata.nextLink until exhausted.
func (c *Client) SolutionComponents(ctx context.Context, solutionID string) ([]Component, error) {
	solutionID = strings.Trim(solutionID, "{}")
	if solutionID == "" {
		return nil, errors.New("dataverse: empty solution id")
	}
	next := c.BaseURL + "/api/data/" + apiVersion + "/msdyn_solutioncomponentsummaries?" +
		"$filter=" + url.PathEscape("(msdyn_solutionid eq "+solutionID+")") +
		"&$orderby=" + url.PathEscape("msdyn_displayname asc")

	var all []Component
	for pages := 0; next != ""; pages++ {
		if pages >= maxPages {
			return all, fmt.Errorf("dataverse: more than %d pages", maxPages)
		}
		p, err := c.fetch(ctx, next)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Value...)
		next = p.NextLink
	}
	c.logger().Debug("fetched solution components", "solution", solutionID, "count", len(all))
	return all, nil
}

func (c *Client) fetch(ctx context.Context, link string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.authorization())
	req.Header.Set("OData-MaxVersion", "4.0")
	req.Header.Set("OData-Version", "4.0")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataverse request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("dataverse: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	return &p, nil
}

func (c *Client) authorization() string {
	if strings.HasPrefix(strings.ToLower(c.Token), "bearer ") {
		return c.Token
	}
	return "Bearer " + c.Token
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
