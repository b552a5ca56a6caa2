// Package httpexec sends a stored request after variable resolution. The
// executor owns the transport concerns (timeout, redirects, auth injection)
// and reports what happened through the response value, the telemetry span
// and, when wired, the history store.
package httpexec

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/vortexhq/vortex/internal/entity"
	"github.com/vortexhq/vortex/internal/errdef"
	"github.com/vortexhq/vortex/internal/fsio"
	"github.com/vortexhq/vortex/internal/history"
	"github.com/vortexhq/vortex/internal/telemetry"
	"github.com/vortexhq/vortex/internal/util"
	"github.com/vortexhq/vortex/internal/vars"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultBodySnippet = 512
	maxResponseBody    = 10 << 20
)

// Meta carries execution context that is not part of the request itself. It
// feeds span attributes and the history entry.
type Meta struct {
	Collection  string
	Environment string
}

// Response is the outcome of one executed request. Unresolved lists variable
// references left verbatim in the sent request; a non-empty list is not an
// error.
type Response struct {
	Assertions []AssertionResult
	Body       []byte
	Duration   time.Duration
	Headers    http.Header
	Status     string
	StatusCode int
	Unresolved []string
}

type Executor struct {
	client  *http.Client
	logger  hclog.Logger
	instr   telemetry.Instrumenter
	history *history.Store
	timeout time.Duration
	clock   fsio.Clock
}

type Option func(*Executor)

func WithHTTPClient(client *http.Client) Option {
	return func(e *Executor) {
		if client != nil {
			e.client = client
		}
	}
}

func WithLogger(logger hclog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithInstrumenter(instr telemetry.Instrumenter) Option {
	return func(e *Executor) {
		if instr != nil {
			e.instr = instr
		}
	}
}

func WithHistory(store *history.Store) Option {
	return func(e *Executor) {
		e.history = store
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(e *Executor) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

func WithClock(clock fsio.Clock) Option {
	return func(e *Executor) {
		if clock != nil {
			e.clock = clock
		}
	}
}

func New(opts ...Option) *Executor {
	exec := &Executor{
		client:  &http.Client{},
		logger:  hclog.NewNullLogger(),
		instr:   telemetry.Noop(),
		timeout: defaultTimeout,
		clock:   fsio.SystemClock{},
	}
	for _, opt := range opts {
		opt(exec)
	}
	return exec
}

// Execute resolves the request against rc, sends it and evaluates its stored
// assertions. The request's timeout override, when set, bounds the whole
// round trip through the context.
func (e *Executor) Execute(ctx context.Context, req entity.Request, rc *vars.Context, meta Meta) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, errdef.Wrap(errdef.CodeInvalid, err, "request %q", req.Name)
	}

	prepared, err := e.prepare(req, rc)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, req.Timeout(e.timeout))
	defer cancel()

	ctx, span := e.instr.Start(ctx, telemetry.RequestStart{
		RequestName: req.Name,
		Collection:  meta.Collection,
		Environment: meta.Environment,
		Method:      req.Method,
		URL:         prepared.url,
		Unresolved:  prepared.unresolved,
	})

	started := e.clock.Now()
	resp, err := e.send(ctx, req, prepared)
	duration := e.clock.Now().Sub(started)

	if err != nil {
		span.End(telemetry.RequestResult{Err: err})
		e.record(req, meta, prepared, nil, duration, err)
		return nil, err
	}

	resp.Duration = duration
	resp.Unresolved = prepared.unresolved
	resp.Assertions = evaluateAssertions(req.Tests, resp)

	span.End(telemetry.RequestResult{StatusCode: resp.StatusCode})
	e.record(req, meta, prepared, resp, duration, nil)

	e.logger.Debug("request executed",
		"request", req.Name,
		"method", req.Method,
		"status", resp.StatusCode,
		"duration", duration,
		"unresolved", len(prepared.unresolved),
	)
	return resp, nil
}

// preparedRequest is the fully resolved wire form: final URL, flat headers
// and an encoded body.
type preparedRequest struct {
	url         string
	headers     map[string]string
	body        string
	contentType string
	unresolved  []string
}

func (e *Executor) prepare(req entity.Request, rc *vars.Context) (*preparedRequest, error) {
	var unresolved []string
	resolve := func(template string) string {
		result := rc.Resolve(template)
		unresolved = append(unresolved, result.Unresolved...)
		return result.Resolved
	}

	rawURL := resolve(req.URL)
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "parse url %q", rawURL)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, errdef.New(errdef.CodeHTTP, "url %q has no scheme or host", rawURL)
	}

	if len(req.QueryParams) > 0 {
		query := parsed.Query()
		for _, key := range util.SortedKeys(req.QueryParams) {
			query.Set(key, resolve(req.QueryParams[key]))
		}
		parsed.RawQuery = query.Encode()
	}

	headers := make(map[string]string, len(req.Headers)+2)
	for _, key := range util.SortedKeys(req.Headers) {
		headers[key] = resolve(req.Headers[key])
	}

	body, contentType, err := encodeBody(req.Body, resolve)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		if _, set := headers["Content-Type"]; !set {
			headers["Content-Type"] = contentType
		}
	}

	if err := applyAuth(req.Auth, headers, resolve); err != nil {
		return nil, err
	}

	return &preparedRequest{
		url:         parsed.String(),
		headers:     headers,
		body:        body,
		contentType: contentType,
		unresolved:  util.DedupeNonEmptyStrings(unresolved),
	}, nil
}

func encodeBody(body *entity.Body, resolve func(string) string) (string, string, error) {
	if body == nil {
		return "", "", nil
	}

	switch body.Type {
	case entity.BodyText:
		if body.Text == nil {
			return "", "", errdef.New(errdef.CodeInvalid, "text body has no payload")
		}
		mediaType := body.Text.MediaType
		if mediaType == "" {
			mediaType = "text/plain"
		}
		return resolve(body.Text.Content), mediaType, nil
	case entity.BodyJSON:
		if body.JSON == nil {
			return "", "", errdef.New(errdef.CodeInvalid, "json body has no payload")
		}
		return resolve(body.JSON.Content), "application/json", nil
	case entity.BodyForm:
		if body.Form == nil {
			return "", "", errdef.New(errdef.CodeInvalid, "form body has no payload")
		}
		values := url.Values{}
		for _, key := range util.SortedKeys(body.Form.Fields) {
			values.Set(key, resolve(body.Form.Fields[key]))
		}
		return values.Encode(), "application/x-www-form-urlencoded", nil
	default:
		return "", "", errdef.New(errdef.CodeInvalid, "unknown body type %q", body.Type)
	}
}

// applyAuth injects the scheme's headers. Stored credentials go through the
// resolver first so auth blocks can reference secrets.
func applyAuth(auth *entity.Auth, headers map[string]string, resolve func(string) string) error {
	if auth == nil {
		return nil
	}

	switch auth.Type {
	case entity.AuthBasic:
		if auth.Basic == nil {
			return errdef.New(errdef.CodeInvalid, "basic auth has no payload")
		}
		credentials := resolve(auth.Basic.Username) + ":" + resolve(auth.Basic.Password)
		headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
	case entity.AuthBearer:
		if auth.Bearer == nil {
			return errdef.New(errdef.CodeInvalid, "bearer auth has no payload")
		}
		headers["Authorization"] = "Bearer " + resolve(auth.Bearer.Token)
	case entity.AuthAPIKey:
		if auth.APIKey == nil {
			return errdef.New(errdef.CodeInvalid, "api key auth has no payload")
		}
		header := strings.TrimSpace(auth.APIKey.Header)
		if header == "" {
			return errdef.New(errdef.CodeInvalid, "api key auth has an empty header name")
		}
		headers[header] = resolve(auth.APIKey.Value)
	default:
		return errdef.New(errdef.CodeInvalid, "unknown auth type %q", auth.Type)
	}
	return nil
}

func (e *Executor) send(ctx context.Context, req entity.Request, prepared *preparedRequest) (*Response, error) {
	var bodyReader io.Reader
	if prepared.body != "" {
		bodyReader = strings.NewReader(prepared.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, prepared.url, bodyReader)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "build request %q", req.Name)
	}
	for _, key := range util.SortedKeys(prepared.headers) {
		httpReq.Header.Set(key, prepared.headers[key])
	}

	client := e.clientFor(req)
	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "send request %q", req.Name)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "read response for %q", req.Name)
	}

	return &Response{
		Body:       body,
		Headers:    httpResp.Header,
		Status:     httpResp.Status,
		StatusCode: httpResp.StatusCode,
	}, nil
}

// clientFor honors a per-request follow_redirects override without mutating
// the shared client.
func (e *Executor) clientFor(req entity.Request) *http.Client {
	if req.Settings == nil || req.Settings.FollowRedirects == nil || *req.Settings.FollowRedirects {
		return e.client
	}
	clone := *e.client
	clone.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &clone
}

func (e *Executor) record(req entity.Request, meta Meta, prepared *preparedRequest, resp *Response, duration time.Duration, execErr error) {
	if e.history == nil {
		return
	}

	entry := history.Entry{
		ID:          uuid.NewString(),
		ExecutedAt:  e.clock.Now().UTC(),
		Environment: meta.Environment,
		Collection:  meta.Collection,
		RequestID:   req.ID,
		RequestName: req.Name,
		Method:      req.Method,
		URL:         prepared.url,
		Duration:    duration,
		Unresolved:  prepared.unresolved,
	}
	if resp != nil {
		entry.Status = resp.Status
		entry.StatusCode = resp.StatusCode
		entry.BodySnippet = snippet(resp.Body, defaultBodySnippet)
	}
	if execErr != nil {
		entry.Error = execErr.Error()
	}

	if err := e.history.Append(entry); err != nil {
		e.logger.Warn("history append failed", "request", req.Name, "error", err)
	}
}

func snippet(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit])
}
