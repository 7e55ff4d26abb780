package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"github.com/ironsheep/card-regions-mcp/internal/detection"
	"github.com/ironsheep/card-regions-mcp/internal/layout"
)

// ClientOptions configures a Client.
type ClientOptions struct {
	// URL is the base URL of the inference service.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Attempts is the number of tries for each request. Client errors (4xx)
	// are never retried.
	Attempts uint `json:"attempts" yaml:"attempts" mapstructure:"attempts"`

	// Delay is the pause between attempts.
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`

	Logger zerolog.Logger `json:"-" yaml:"-" mapstructure:"-"`
}

// DefaultClientOptions returns the client defaults.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		URL:      "http://localhost:8000",
		Timeout:  30 * time.Second,
		Attempts: 3,
		Delay:    500 * time.Millisecond,
		Logger:   zerolog.Nop(),
	}
}

// Client talks to an external inference service.
//
// The service exposes:
//
//	GET  /health           200 when ready
//	GET  /model?id=<id>    {"id": ..., "id2label": {"0": "card"}}, 404 if unknown
//	POST /predict          multipart "file", "model", "conf" -> {"detections": [...]}
type Client struct {
	baseURL string
	http    *http.Client
	opts    ClientOptions
	log     zerolog.Logger
}

// NewClient creates a client for the service at opts.URL.
func NewClient(opts ClientOptions) *Client {
	if opts.Attempts == 0 {
		opts.Attempts = 1
	}
	return &Client{
		baseURL: strings.TrimRight(opts.URL, "/"),
		http:    &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		log:     opts.Logger.With().Str("component", "model").Logger(),
	}
}

// URL returns the service base URL.
func (c *Client) URL() string {
	return c.baseURL
}

// CheckHealth reports whether the service answers its health endpoint.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

// WaitHealthy polls the health endpoint once per interval until it succeeds,
// timeout elapses or ctx is done.
func (c *Client) WaitHealthy(ctx context.Context, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	attempts := uint(timeout / interval)
	if attempts == 0 {
		attempts = 1
	}
	return retry.Do(
		func() error { return c.CheckHealth(ctx) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

type modelResponse struct {
	ID       string            `json:"id"`
	ID2Label map[string]string `json:"id2label"`
}

// FetchModel loads the metadata of model id. It satisfies Loader.
func (c *Client) FetchModel(ctx context.Context, id string) (*Model, error) {
	u := c.baseURL + "/model?" + url.Values{"id": {id}}.Encode()

	resp, err := c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, id)
		}
		return nil, fmt.Errorf("failed to load model %s: %w", id, err)
	}

	var mr modelResponse
	if err := json.Unmarshal(resp, &mr); err != nil {
		return nil, fmt.Errorf("failed to decode model %s: %w", id, err)
	}
	if mr.ID == "" {
		mr.ID = id
	}

	c.log.Info().Str("model", mr.ID).Int("classes", len(mr.ID2Label)).Msg("model loaded")
	return &Model{ID: mr.ID, ClassMap: layout.BuildClassMap(mr.ID2Label)}, nil
}

type predictResponse struct {
	Detections []detection.RawDetection `json:"detections"`
}

// Predict sends encoded image bytes to the service and returns its
// detections with their raw class labels.
func (c *Client) Predict(ctx context.Context, modelID string, imageData []byte, conf float64) ([]detection.RawDetection, error) {
	resp, err := c.do(ctx, func() (*http.Request, error) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)

		part, err := writer.CreateFormFile("file", "image.jpg")
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(imageData)); err != nil {
			return nil, fmt.Errorf("copy image data: %w", err)
		}
		_ = writer.WriteField("model", modelID)
		_ = writer.WriteField("conf", strconv.FormatFloat(conf, 'f', -1, 64))
		if err := writer.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	var pr predictResponse
	if err := json.Unmarshal(resp, &pr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return pr.Detections, nil
}

// statusError is a non-200 reply.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.code)
}

func isStatus(err error, code int) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == code
}

// do sends the request built by newReq, retrying transport errors and 5xx
// replies, and returns the body of a 200 reply.
func (c *Client) do(ctx context.Context, newReq func() (*http.Request, error)) ([]byte, error) {
	return retry.DoWithData(
		func() ([]byte, error) {
			req, err := newReq()
			if err != nil {
				return nil, retry.Unrecoverable(err)
			}
			resp, err := c.http.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode != http.StatusOK {
				serr := &statusError{code: resp.StatusCode}
				if resp.StatusCode < http.StatusInternalServerError {
					return nil, retry.Unrecoverable(serr)
				}
				return nil, serr
			}
			return data, nil
		},
		retry.Context(ctx),
		retry.Attempts(c.opts.Attempts),
		retry.Delay(c.opts.Delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Debug().Uint("attempt", n+1).Err(err).Msg("retrying inference request")
		}),
	)
}
