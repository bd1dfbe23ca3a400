package lesson

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

	"driveon/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// API is the lesson service surface the session controller consumes. The
// reference service in this repository implements the same contract over
// HTTP; tests substitute fakes.
type API interface {
	// ListLessons fetches the bookable lesson list, optionally filtered by
	// lesson type and status.
	ListLessons(ctx context.Context, lessonType, status string) ([]models.Lesson, error)
	// InstructorLessons fetches the authenticated instructor's own schedule.
	InstructorLessons(ctx context.Context) ([]models.Lesson, error)
	// StudentLessons fetches the authenticated student's own schedule.
	StudentLessons(ctx context.Context) ([]models.Lesson, error)
	// Book transitions an available lesson to booked for the caller.
	Book(ctx context.Context, lessonID string) (*models.Lesson, error)
	// Cancel cancels a lesson and returns the server's refund decision.
	Cancel(ctx context.Context, lessonID string) (*models.CancelResult, error)
	// Offer asks for the next free slot of the caller's instructor. A nil
	// lesson with a nil error means no alternative exists, which is
	// distinct from a transport failure.
	Offer(ctx context.Context) (*models.Lesson, error)
	// Change atomically cancels oldLessonID and books a new lesson at
	// newDate, returning both records.
	Change(ctx context.Context, oldLessonID string, newDate time.Time) (*models.ChangeResult, error)
}

// Client is the HTTP implementation of API, speaking JSON with bearer
// auth. The token comes from the out-of-scope auth layer and is treated as
// opaque.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a lesson service client for the given base URL and
// bearer token.
func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *Client) ListLessons(ctx context.Context, lessonType, status string) ([]models.Lesson, error) {
	query := url.Values{}
	if lessonType != "" {
		query.Set("type", lessonType)
	}
	if status != "" {
		query.Set("status", status)
	}
	path := "/lessons"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var lessons []models.Lesson
	if err := c.do(ctx, http.MethodGet, path, nil, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (c *Client) InstructorLessons(ctx context.Context) ([]models.Lesson, error) {
	var lessons []models.Lesson
	if err := c.do(ctx, http.MethodGet, "/lessons/instructors", nil, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (c *Client) StudentLessons(ctx context.Context) ([]models.Lesson, error) {
	var lessons []models.Lesson
	if err := c.do(ctx, http.MethodGet, "/lessons/student", nil, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (c *Client) Book(ctx context.Context, lessonID string) (*models.Lesson, error) {
	var booked models.Lesson
	err := c.do(ctx, http.MethodPost, "/lessons/book", models.BookRequest{LessonID: lessonID}, &booked)
	if err != nil {
		return nil, err
	}
	return &booked, nil
}

func (c *Client) Cancel(ctx context.Context, lessonID string) (*models.CancelResult, error) {
	var result models.CancelResult
	err := c.do(ctx, http.MethodPost, "/lessons/cancel", models.CancelRequest{LessonID: lessonID}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Offer(ctx context.Context) (*models.Lesson, error) {
	// The service answers JSON null when the instructor has no free slot;
	// the pointer then stays nil.
	var offered *models.Lesson
	if err := c.do(ctx, http.MethodGet, "/lessons/offer", nil, &offered); err != nil {
		return nil, err
	}
	return offered, nil
}

func (c *Client) Change(ctx context.Context, oldLessonID string, newDate time.Time) (*models.ChangeResult, error) {
	body := models.ChangeRequest{
		OldLessonID: oldLessonID,
		NewDate:     newDate.Format(time.RFC3339),
	}
	var result models.ChangeResult
	if err := c.do(ctx, http.MethodPost, "/lessons/change", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do executes one JSON request and maps the response status onto the error
// taxonomy. Server-provided messages are surfaced verbatim.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return NewValidationError(fmt.Sprintf("encode request: %v", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return NewTransportError(fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("lesson service request failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return NewTransportError(err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to decoding.
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return NewValidationError(readErrorMessage(resp.Body))
	case resp.StatusCode == http.StatusNotFound:
		return NewNotFoundError(readErrorMessage(resp.Body))
	case resp.StatusCode == http.StatusConflict:
		return NewConflictError(readErrorMessage(resp.Body))
	default:
		message := readErrorMessage(resp.Body)
		c.logger.Warn("lesson service returned unexpected status",
			zap.Int("status", resp.StatusCode), zap.String("path", path), zap.String("message", message))
		return NewTransportError(fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, message))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewTransportError(fmt.Sprintf("decode response: %v", err))
	}
	return nil
}

// readErrorMessage pulls the service's message out of an error body,
// falling back to the raw text.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(body)
	if err != nil || len(raw) == 0 {
		return "lesson service error"
	}

	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
