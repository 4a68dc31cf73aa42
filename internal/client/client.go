// Package client talks to the path suggestion and document upload
// services.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/BrandonIrizarry/docpicker"
)

// maxErrorBody caps how much of an error reply is read.
const maxErrorBody = 4 << 10

// retryLogger implements the retryablehttp.LeveledLogger interface on
// top of zerolog.
type retryLogger struct {
	log zerolog.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Trace().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}

var _ docpicker.Services = (*Client)(nil)

// Client implements [docpicker.Services] over HTTP.
type Client struct {
	http     *retryablehttp.Client
	baseURL  string
	log      zerolog.Logger
	progress func(name string, total int64) io.Writer
}

type Option func(*Client)

// WithRetryMax sets how many times a failed request is retried.
func WithRetryMax(n int) Option {
	return func(c *Client) { c.http.RetryMax = n }
}

// WithRetryWait bounds the backoff between retries.
func WithRetryWait(minWait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.http.RetryWaitMin = minWait
		c.http.RetryWaitMax = maxWait
	}
}

// WithTimeout sets the overall timeout of a single attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.HTTPClient.Timeout = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.log = l
		c.http.Logger = retryLogger{log: l}
	}
}

// WithProgress reports upload bodies as they are sent. newWriter is
// called once per attempt, on its first read, with the size of the
// request body.
func WithProgress(newWriter func(name string, total int64) io.Writer) Option {
	return func(c *Client) { c.progress = newWriter }
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = retryLogger{log: zerolog.Nop()}

	// Hand the last reply back instead of a generic "giving up"
	// error, so callers see the real status.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		http:    rc,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SuggestURL builds the suggestion query URL. The extensions parameter
// is present only when a filter is given.
func (c *Client) SuggestURL(path, extensions string) string {
	params := url.Values{"path": {path}}
	if extensions != "" {
		params.Set("extensions", extensions)
	}
	return c.baseURL + "/getpath?" + params.Encode()
}

// Suggest asks the server for entries completing path.
func (c *Client) Suggest(ctx context.Context, path, extensions string) ([]string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.SuggestURL(path, extensions), nil)
	if err != nil {
		return nil, fmt.Errorf("build suggest request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("suggest %q: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var entries []string
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	return entries, nil
}

// Upload posts body as the "document" field of a multipart form.
func (c *Client) Upload(ctx context.Context, name string, body io.Reader) (docpicker.UploadResult, error) {
	return c.UploadTo(ctx, name, "", body)
}

// UploadTo is Upload with a subfolder of the server's input directory.
func (c *Client) UploadTo(ctx context.Context, name, subfolder string, body io.Reader) (docpicker.UploadResult, error) {
	// The form is buffered so that retries can replay it.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if subfolder != "" {
		if err := mw.WriteField("subfolder", subfolder); err != nil {
			return docpicker.UploadResult{}, err
		}
	}
	part, err := mw.CreateFormFile("document", name)
	if err != nil {
		return docpicker.UploadResult{}, err
	}
	if _, err := io.Copy(part, body); err != nil {
		return docpicker.UploadResult{}, fmt.Errorf("read %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return docpicker.UploadResult{}, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/document", c.uploadBody(name, buf.Bytes()))
	if err != nil {
		return docpicker.UploadResult{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.log.Debug().Str("name", name).Int("bytes", buf.Len()).Msg("uploading document")

	resp, err := c.http.Do(req)
	if err != nil {
		return docpicker.UploadResult{}, fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return docpicker.UploadResult{}, statusError(resp)
	}

	var res docpicker.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return docpicker.UploadResult{}, fmt.Errorf("decode upload reply: %w", err)
	}
	return res, nil
}

// uploadBody is the request body of an upload: the buffered form, or a
// reader func replaying it through the progress writer on each attempt.
func (c *Client) uploadBody(name string, form []byte) interface{} {
	if c.progress == nil {
		return form
	}
	total := int64(len(form))
	return retryablehttp.ReaderFunc(func() (io.Reader, error) {
		return &progressReader{
			r:    bytes.NewReader(form),
			open: func() io.Writer { return c.progress(name, total) },
		}, nil
	})
}

// progressReader copies what the transport reads into a writer made on
// the first Read. retryablehttp opens the body once just to size it;
// that reader is never read and so reports nothing.
type progressReader struct {
	r    *bytes.Reader
	open func() io.Writer
	w    io.Writer
}

// Len lets retryablehttp set the Content-Length.
func (p *progressReader) Len() int {
	return p.r.Len()
}

func (p *progressReader) Read(b []byte) (int, error) {
	if p.w == nil {
		p.w = p.open()
	}
	n, err := p.r.Read(b)
	if n > 0 {
		_, _ = p.w.Write(b[:n])
	}
	return n, err
}

// statusError turns a non-200 reply into a *docpicker.StatusError
// carrying the status text, e.g. "Internal Server Error".
func statusError(resp *http.Response) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return &docpicker.StatusError{
		Code:   resp.StatusCode,
		Status: http.StatusText(resp.StatusCode),
	}
}
