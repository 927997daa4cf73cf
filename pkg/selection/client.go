package selection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const userIdHeader = "X-User-Id"

// StatusError is returned when the API answers with an unexpected status code.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client talks to the selection and friend REST API on behalf of a user.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchSelections returns every selection of userId.
func (c *Client) FetchSelections(ctx context.Context, userId string) ([]SelectedSection, error) {
	return c.getSelections(ctx, userId, "/api/selection")
}

// FetchFriendSelections returns the selections of friendId as seen by userId.
// The API rejects the request when the two are not friends.
func (c *Client) FetchFriendSelections(ctx context.Context, userId string, friendId string) ([]SelectedSection, error) {
	return c.getSelections(ctx, userId, "/api/friend/"+url.PathEscape(friendId)+"/selection")
}

func (c *Client) CreateSelection(ctx context.Context, selection SelectedSection) error {
	dto, err := SelectionToDTO(selection)
	if err != nil {
		return err
	}
	body, err := json.Marshal(dto)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, selection.UserId, http.MethodPost, "/api/selection", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		return nil
	case http.StatusConflict:
		return ErrDuplicateSelection
	}
	return statusError(resp)
}

func (c *Client) DeleteSelection(ctx context.Context, userId string, courseId string, sectionIndex *int) error {
	path := "/api/selection/" + url.PathEscape(courseId)
	if sectionIndex != nil {
		path += "?sectionIndex=" + strconv.Itoa(*sectionIndex)
	}

	resp, err := c.do(ctx, userId, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return statusError(resp)
}

func (c *Client) getSelections(ctx context.Context, userId string, path string) ([]SelectedSection, error) {
	resp, err := c.do(ctx, userId, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var dtos []SelectionDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		log.Errorf("Failed to decode response of %s: %v", path, err)
		return nil, fmt.Errorf("could not decode selections: %w", err)
	}
	selections := make([]SelectedSection, 0, len(dtos))
	for _, dto := range dtos {
		selections = append(selections, DTOToSelection(dto))
	}
	return selections, nil
}

func (c *Client) do(ctx context.Context, userId string, method string, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set(userIdHeader, userId)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debugf("%s %s failed: %v", method, path, err)
		return nil, err
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &StatusError{
		Method:     resp.Request.Method,
		Path:       resp.Request.URL.Path,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
