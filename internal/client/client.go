package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"carrito-cli/pkg/models"
)

// maxExcerpt bounds how much of an error body ends up in an error message.
const maxExcerpt = 300

var (
	// ErrInvalidJSON is returned when a successful response carries a body that is not JSON.
	ErrInvalidJSON = errors.New("invalid JSON from API")
	// ErrInvalidPayload is returned when the JSON does not match the canonical schema.
	ErrInvalidPayload = errors.New("invalid payload from API")
)

// APIError is a non-2xx response. Body holds a truncated excerpt of the response text.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

type CarritoClient struct {
	HTTP   *resty.Client
	Config ClientConfig
	logger *zap.Logger
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

func New(cfg ClientConfig, logger *zap.Logger) *CarritoClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	r := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		// Retries are the caller's business.
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &CarritoClient{
		HTTP:   r,
		Config: cfg,
		logger: logger.With(zap.String("component", "client")),
	}
}

// do issues one request and returns the decoded envelope.
// A successful response with an empty body yields a nil envelope and no error.
func (c *CarritoClient) do(ctx context.Context, method, path string, query map[string]string, body any) (*models.Envelope, error) {
	req := c.HTTP.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return c.handle(method, path, resp)
}

func (c *CarritoClient) handle(method, path string, resp *resty.Response) (*models.Envelope, error) {
	text := resp.Body()

	if !resp.IsSuccess() {
		c.logger.Error("API error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
			zap.ByteString("body", text),
		)
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: excerpt(string(text))}
	}

	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 {
		return nil, nil
	}

	// Some endpoints answer with a bare array instead of an envelope.
	if trimmed[0] == '[' {
		if !json.Valid(trimmed) {
			return nil, c.parseError(path, text, errors.New("malformed array"))
		}
		return &models.Envelope{Data: json.RawMessage(trimmed)}, nil
	}

	var env models.Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, c.parseError(path, text, err)
	}
	return &env, nil
}

func (c *CarritoClient) parseError(path string, body []byte, err error) error {
	c.logger.Error("JSON parse error",
		zap.String("path", path),
		zap.Error(err),
		zap.ByteString("body", body),
	)
	return fmt.Errorf("%w: %s", ErrInvalidJSON, path)
}

func excerpt(s string) string {
	if utf8.RuneCountInString(s) <= maxExcerpt {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxExcerpt])
}

type validator interface {
	Validate() error
}

// decodeList unpacks env.Data into a slice. A single object is treated as a
// one-element list; a missing payload is an empty list. With strict set,
// every item must pass its Validate method.
func decodeList[T any](env *models.Envelope, strict bool) ([]T, error) {
	if env == nil || env.Empty() {
		return nil, nil
	}
	data := bytes.TrimSpace(env.Data)

	var items []T
	if data[0] == '{' {
		var one T
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		items = []T{one}
	} else if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if strict {
		for _, item := range items {
			if v, ok := any(item).(validator); ok {
				if err := v.Validate(); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
				}
			}
		}
	}
	return items, nil
}

// decodeFirst returns the first element of env.Data, or nil when there is none.
func decodeFirst[T any](env *models.Envelope, strict bool) (*T, error) {
	items, err := decodeList[T](env, strict)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}
