// Package bridge reaches a structural-analysis application through an
// HTTP/JSON automation bridge running next to it.
//
// The bridge exposes running instances and attached sessions as resources:
//
//	GET  /instances               list running instances
//	GET  /instances/{id}          instance metadata
//	POST /instances/{id}/attach   attach to an instance, returns a session id
//	POST /sessions                start a new instance, returns a session id
//	POST /sessions/{id}/calls     issue one native call
//	POST /sessions/{id}/close     release a session
//
// [Client] implements native.Locator and native.Launcher; the sessions it
// returns implement native.Session.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-openapi/runtime"
	httptransport "github.com/go-openapi/runtime/client"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/tomblancdev/sapmodel-go/native"
)

const defaultTimeout = 30 * time.Second

// Config locates the bridge.
type Config struct {
	Host     string        `yaml:"host" validate:"required,hostname_port"`
	BasePath string        `yaml:"base_path"`
	Scheme   string        `yaml:"scheme" validate:"omitempty,oneof=http https"`
	Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`
}

// Client talks to one automation bridge.
type Client struct {
	transport  runtime.ClientTransport
	scheme     string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a bridge client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("bridge: host is required")
	}
	c := &Client{
		scheme:     cfg.Scheme,
		timeout:    cfg.Timeout,
		httpClient: http.DefaultClient,
	}
	if c.scheme == "" {
		c.scheme = "http"
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	for _, opt := range opts {
		opt(c)
	}

	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/"
	}
	c.transport = httptransport.NewWithClient(cfg.Host, basePath, []string{c.scheme}, c.httpClient)
	return c, nil
}

// StatusError is a non-2xx bridge response.
type StatusError struct {
	Op      string
	Code    int
	Message string

	cause error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("bridge: %s: HTTP %d: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("bridge: %s: HTTP %d", e.Op, e.Code)
}

func (e *StatusError) Unwrap() error {
	return e.cause
}

type errorBody struct {
	Error string `json:"error"`
}

type instanceBody struct {
	ID           string          `json:"id"`
	PID          int             `json:"pid"`
	Version      string          `json:"version"`
	ActiveWindow bool            `json:"active_window"`
	ModelPath    string          `json:"model_path,omitempty"`
	StartedAt    strfmt.DateTime `json:"started_at,omitempty"`
}

type sessionBody struct {
	SessionID string `json:"session_id"`
}

type closeBody struct {
	Save bool `json:"save"`
}

// submit issues one bridge operation and decodes a 2xx JSON response into
// out (when non-nil).
func (c *Client) submit(ctx context.Context, id, method, path string, params map[string]string, body, out any) error {
	op := &runtime.ClientOperation{
		ID:                 id,
		Method:             method,
		PathPattern:        path,
		ProducesMediaTypes: []string{runtime.JSONMime},
		ConsumesMediaTypes: []string{runtime.JSONMime},
		Schemes:            []string{c.scheme},
		Context:            ctx,
		Client:             c.httpClient,
		Params: runtime.ClientRequestWriterFunc(func(req runtime.ClientRequest, _ strfmt.Registry) error {
			if err := req.SetTimeout(c.timeout); err != nil {
				return err
			}
			if err := req.SetHeaderParam("X-Request-Id", uuid.NewString()); err != nil {
				return err
			}
			for k, v := range params {
				if err := req.SetPathParam(k, v); err != nil {
					return err
				}
			}
			if body != nil {
				return req.SetBodyParam(body)
			}
			return nil
		}),
		Reader: runtime.ClientResponseReaderFunc(func(resp runtime.ClientResponse, consumer runtime.Consumer) (interface{}, error) {
			if resp.Code() < 200 || resp.Code() > 299 {
				var eb errorBody
				_ = consumer.Consume(resp.Body(), &eb)
				return nil, &StatusError{Op: id, Code: resp.Code(), Message: strings.TrimSpace(eb.Error)}
			}
			if out == nil || resp.Code() == http.StatusNoContent {
				return nil, nil
			}
			if err := consumer.Consume(resp.Body(), out); err != nil {
				return nil, fmt.Errorf("bridge: %s: decoding response: %w", id, err)
			}
			return out, nil
		}),
	}

	_, err := c.transport.Submit(op)
	return err
}

// Instances lists running application instances.
func (c *Client) Instances(ctx context.Context) ([]native.Instance, error) {
	var body []instanceBody
	if err := c.submit(ctx, "listInstances", http.MethodGet, "/instances", nil, nil, &body); err != nil {
		return nil, err
	}
	out := make([]native.Instance, 0, len(body))
	for _, b := range body {
		out = append(out, &instance{c: c, id: b.ID})
	}
	return out, nil
}

// Launch starts a new application instance and returns its session.
func (c *Client) Launch(ctx context.Context, req native.LaunchRequest) (native.Session, error) {
	var body sessionBody
	if err := c.submit(ctx, "launch", http.MethodPost, "/sessions", nil, req, &body); err != nil {
		return nil, err
	}
	if body.SessionID == "" {
		return nil, errors.New("bridge: launch: empty session id")
	}
	return &session{c: c, id: body.SessionID}, nil
}

type instance struct {
	c  *Client
	id string
}

func (i *instance) ID() string { return i.id }

func (i *instance) Metadata(ctx context.Context) (native.Metadata, error) {
	var body instanceBody
	err := i.c.submit(ctx, "getInstance", http.MethodGet, "/instances/{id}",
		map[string]string{"id": i.id}, nil, &body)
	if err != nil {
		return native.Metadata{}, err
	}
	return native.Metadata{
		PID:          body.PID,
		Version:      body.Version,
		ActiveWindow: body.ActiveWindow,
		ModelPath:    body.ModelPath,
		StartedAt:    time.Time(body.StartedAt),
	}, nil
}

func (i *instance) Attach(ctx context.Context) (native.Session, error) {
	var body sessionBody
	err := i.c.submit(ctx, "attach", http.MethodPost, "/instances/{id}/attach",
		map[string]string{"id": i.id}, struct{}{}, &body)
	if err != nil {
		return nil, err
	}
	if body.SessionID == "" {
		return nil, fmt.Errorf("bridge: attach %s: empty session id", i.id)
	}
	return &session{c: i.c, id: body.SessionID}, nil
}

type session struct {
	c      *Client
	id     string
	closed atomic.Bool
}

func (s *session) Call(ctx context.Context, req native.Request) (*native.Result, error) {
	if s.closed.Load() {
		return nil, native.ErrSessionClosed
	}
	var res native.Result
	err := s.c.submit(ctx, "call", http.MethodPost, "/sessions/{id}/calls",
		map[string]string{"id": s.id}, req, &res)
	if err != nil {
		return nil, sessionError(err)
	}
	return &res, nil
}

func (s *session) Close(ctx context.Context, save bool) error {
	if s.closed.Swap(true) {
		return nil
	}
	err := s.c.submit(ctx, "close", http.MethodPost, "/sessions/{id}/close",
		map[string]string{"id": s.id}, closeBody{Save: save}, nil)
	if err != nil {
		return sessionError(err)
	}
	return nil
}

// sessionError marks failures that mean the session is gone: the bridge no
// longer knows the session, or the bridge itself cannot be reached.
func sessionError(err error) error {
	var se *StatusError
	if errors.As(err, &se) {
		if se.Code == http.StatusNotFound || se.Code == http.StatusGone {
			se.cause = native.ErrSessionLost
		}
		return se
	}
	return fmt.Errorf("%w: %v", native.ErrSessionLost, err)
}
