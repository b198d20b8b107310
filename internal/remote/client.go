package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/hveda/gallerysync/internal/errors"
	"github.com/hveda/gallerysync/internal/models"
)

// Client is the HTTP implementation of Service, speaking JSON against the
// asset service API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithToken sets the bearer token attached to every request.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type containersResponse struct {
	Containers []models.Container `json:"containers"`
}

type generationsResponse struct {
	Generations []models.Generation `json:"generations"`
}

type favoritesResponse struct {
	Favorites []models.FavoriteMark `json:"favorites"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ListContainers implements Service.
func (c *Client) ListContainers(ctx context.Context) ([]models.Container, error) {
	var resp containersResponse
	if err := c.get(ctx, "/v1/containers", &resp); err != nil {
		return nil, err
	}
	return resp.Containers, nil
}

// ListContainerItems implements Service.
func (c *Client) ListContainerItems(ctx context.Context, containerID string) ([]models.Generation, error) {
	var resp generationsResponse
	path := fmt.Sprintf("/v1/containers/%s/generations", url.PathEscape(containerID))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Generations, nil
}

// DeleteMedia implements Service.
func (c *Client) DeleteMedia(ctx context.Context, target models.Target) error {
	return c.do(ctx, http.MethodDelete, mediaPath(target), nil)
}

// ToggleFavorite implements Service.
func (c *Client) ToggleFavorite(ctx context.Context, target models.Target) error {
	return c.do(ctx, http.MethodPost, mediaPath(target)+"/favorite", nil)
}

// ListFavorites implements Service.
func (c *Client) ListFavorites(ctx context.Context) ([]models.FavoriteMark, error) {
	var resp favoritesResponse
	if err := c.get(ctx, "/v1/favorites", &resp); err != nil {
		return nil, err
	}
	return resp.Favorites, nil
}

func mediaPath(target models.Target) string {
	return fmt.Sprintf("/v1/generations/%s/media/%s/%d",
		url.PathEscape(target.GenerationID), target.MediaType, target.MediaIndex)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, out)
}

func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Connection refusals, DNS failures and timeouts all retry on
		// the next trigger.
		return apperrors.Wrap(apperrors.CodeTransient, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return classifyStatus(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, "failed to decode response", err)
	}
	return nil
}

// classifyStatus maps an error response to the structured taxonomy. The
// body code wins over the transport status when present, so a service
// reporting NOT_FOUND over a 200-family proxy mishap still converges.
func classifyStatus(resp *http.Response) error {
	var body errorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(data, &body)

	message := body.Message
	if message == "" {
		message = fmt.Sprintf("remote returned status %d", resp.StatusCode)
	}

	if body.Code == string(apperrors.CodeNotFound) || resp.StatusCode == http.StatusNotFound {
		return apperrors.New(apperrors.CodeNotFound, message)
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.New(apperrors.CodeTransient, message)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.New(apperrors.CodeAuth, message)
	default:
		return apperrors.New(apperrors.CodeValidation, message)
	}
}
