// Package gatewaysvc is the single HTTP pipeline every remote call goes through.
// It resolves paths against the configured base endpoint, runs outbound interceptors
// (bearer credential, request id) and normalizes failures into *core.APIError.
package gatewaysvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/credential"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	HeaderContentType   = "Content-Type"

	MIMEApplicationJSON = "application/json"
	MIMEApplicationForm = "application/x-www-form-urlencoded"
)

// Interceptor mutates an outbound request before it is sent.
type Interceptor func(ctx context.Context, req *http.Request) error

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // optional; Timeout is ignored when set
	Store      credential.Store
	Logger     core.Logger
	Registerer prometheus.Registerer // optional
}

type Gateway struct {
	baseURL      string
	client       *http.Client
	interceptors []Interceptor
	logger       core.Logger
	metrics      *metrics
}

// Request describes one outbound call. Route is the metrics label; it defaults to Path.
type Request struct {
	Method      string
	Path        string
	Route       string
	Query       url.Values
	Body        io.Reader
	ContentType string
	Accept      string
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func New(conf Config, extra ...Interceptor) (*Gateway, error) {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.BaseURL, "conf.BaseURL"),
		vala.IsNotNil(conf.Store, "conf.Store"),
		vala.IsNotNil(conf.Logger, "conf.Logger"),
	).Check()
	if err != nil {
		return nil, errors.Wrap(err, "gateway config")
	}

	m, err := newMetrics(conf.Registerer)
	if err != nil {
		return nil, errors.Wrap(err, "registering gateway metrics")
	}

	client := conf.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: conf.Timeout}
	}

	interceptors := []Interceptor{RequestID(), Bearer(conf.Store)}
	interceptors = append(interceptors, extra...)

	return &Gateway{
		baseURL:      core.ResolveBaseURL(conf.BaseURL),
		client:       client,
		interceptors: interceptors,
		logger:       conf.Logger,
		metrics:      m,
	}, nil
}

func (g *Gateway) BaseURL() string { return g.baseURL }

// Bearer attaches the stored token, read fresh on every call, as a bearer authorization header.
func Bearer(store credential.Store) Interceptor {
	return func(ctx context.Context, req *http.Request) error {
		if token := credential.Token(ctx, store); token != "" {
			req.Header.Set(HeaderAuthorization, "Bearer "+token)
		}
		return nil
	}
}

// RequestID tags every call with a fresh X-Request-ID unless one is already set.
func RequestID() Interceptor {
	return func(_ context.Context, req *http.Request) error {
		if req.Header.Get(HeaderRequestID) == "" {
			req.Header.Set(HeaderRequestID, uuid.NewString())
		}
		return nil
	}
}

// Do sends req. Any transport failure or non-2xx response is returned as a *core.APIError.
// No call is ever retried.
func (g *Gateway) Do(ctx context.Context, req Request) (*Response, error) {
	endpoint := g.baseURL + "/" + strings.TrimPrefix(req.Path, "/")
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}
	route := req.Route
	if route == "" {
		route = req.Path
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, req.Body)
	if err != nil {
		return nil, &core.APIError{Kind: core.KindTransport, Err: errors.Wrap(err, "building request")}
	}
	if req.ContentType != "" {
		httpReq.Header.Set(HeaderContentType, req.ContentType)
	}
	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}
	for _, intercept := range g.interceptors {
		if err := intercept(ctx, httpReq); err != nil {
			return nil, &core.APIError{Kind: core.KindTransport, Err: errors.Wrap(err, "intercepting request")}
		}
	}

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		g.metrics.observe(req.Method, route, 0, start)
		g.logger.Debug("gateway: "+req.Method+" "+req.Path+" failed", err)
		return nil, &core.APIError{Kind: core.KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	g.metrics.observe(req.Method, route, resp.StatusCode, start)
	g.logger.Debug("gateway: "+req.Method+" "+req.Path, map[string]interface{}{
		"status":     resp.StatusCode,
		"request_id": httpReq.Header.Get(HeaderRequestID),
	})
	if err != nil {
		return nil, &core.APIError{Kind: core.KindTransport, StatusCode: resp.StatusCode, Err: errors.Wrap(err, "reading response body")}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, normalize(resp.StatusCode, body)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// JSON sends in (if not nil) as a JSON body and decodes the response into out (if not nil).
func (g *Gateway) JSON(ctx context.Context, method, path string, in, out interface{}) error {
	req := Request{Method: method, Path: path, Accept: MIMEApplicationJSON}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		req.Body = bytes.NewReader(data)
		req.ContentType = MIMEApplicationJSON
	}
	return g.decode(ctx, req, out)
}

// Form sends values form-encoded and decodes the JSON response into out (if not nil).
func (g *Gateway) Form(ctx context.Context, path string, values url.Values, out interface{}) error {
	req := Request{
		Method:      http.MethodPost,
		Path:        path,
		Body:        strings.NewReader(values.Encode()),
		ContentType: MIMEApplicationForm,
		Accept:      MIMEApplicationJSON,
	}
	return g.decode(ctx, req, out)
}

func (g *Gateway) Get(ctx context.Context, path string, out interface{}) error {
	return g.JSON(ctx, http.MethodGet, path, nil, out)
}

func (g *Gateway) Post(ctx context.Context, path string, in, out interface{}) error {
	return g.JSON(ctx, http.MethodPost, path, in, out)
}

func (g *Gateway) Put(ctx context.Context, path string, in, out interface{}) error {
	return g.JSON(ctx, http.MethodPut, path, in, out)
}

func (g *Gateway) Delete(ctx context.Context, path string) error {
	return g.JSON(ctx, http.MethodDelete, path, nil, nil)
}

func (g *Gateway) decode(ctx context.Context, req Request, out interface{}) error {
	resp, err := g.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(resp.Body, out), "decoding response body")
}
