package httpx

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	DefaultTimeout             = 60 * time.Second
	DefaultMaxConnsPerHost     = 64
	DefaultMaxIdleConnDuration = 10 * time.Second
	DefaultMaxResponseBodySize = 64 * 1024 * 1024 // 64MB, large enough for raw photos
	DefaultMaxRedirects        = 10
)

// FastHTTPClientOptions contains configuration for the FastHTTP client
type FastHTTPClientOptions struct {
	// Timeout bounds both reading the response and writing the request
	Timeout time.Duration

	MaxConnsPerHost     int
	MaxIdleConnDuration time.Duration
	MaxResponseBodySize int

	// UserAgent is sent when the request does not carry its own
	UserAgent string

	// Decompress decodes Content-Encoding'd bodies before returning them
	Decompress bool
}

type FastHTTPClientOption func(*FastHTTPClientOptions)

func WithTimeout(timeout time.Duration) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.Timeout = timeout
	}
}

func WithMaxConnsPerHost(max int) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.MaxConnsPerHost = max
	}
}

func WithMaxResponseBodySize(size int) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.MaxResponseBodySize = size
	}
}

func WithUserAgent(userAgent string) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.UserAgent = userAgent
	}
}

func WithDecompression(enabled bool) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.Decompress = enabled
	}
}

// FastHTTPClient adapts fasthttp to the net/http shaped Client interface.
type FastHTTPClient struct {
	client     *fasthttp.Client
	userAgent  string
	decompress bool
}

// NewFastHTTPClient creates a new FastHTTPClient with the given options.
func NewFastHTTPClient(opts ...FastHTTPClientOption) *FastHTTPClient {
	options := &FastHTTPClientOptions{
		Timeout:             DefaultTimeout,
		MaxConnsPerHost:     DefaultMaxConnsPerHost,
		MaxIdleConnDuration: DefaultMaxIdleConnDuration,
		MaxResponseBodySize: DefaultMaxResponseBodySize,
		Decompress:          true,
	}
	for _, opt := range opts {
		opt(options)
	}

	client := &fasthttp.Client{
		MaxConnsPerHost:     options.MaxConnsPerHost,
		MaxIdleConnDuration: options.MaxIdleConnDuration,
		MaxResponseBodySize: options.MaxResponseBodySize,
		ReadTimeout:         options.Timeout,
		WriteTimeout:        options.Timeout,
	}

	return &FastHTTPClient{
		client:     client,
		userAgent:  options.UserAgent,
		decompress: options.Decompress,
	}
}

func (c *FastHTTPClient) Do(req *http.Request) (*http.Response, error) {
	fastReq := fasthttp.AcquireRequest()
	fastResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(fastReq)
	defer fasthttp.ReleaseResponse(fastResp)

	if req.URL == nil {
		return nil, fmt.Errorf("request has no URL")
	}
	fastReq.SetRequestURI(req.URL.String())
	fastReq.Header.SetMethod(req.Method)
	if req.Host != "" {
		fastReq.Header.SetHost(req.Host)
	}

	for key, values := range req.Header {
		for i, value := range values {
			if i == 0 {
				fastReq.Header.Set(key, value)
				continue
			}
			fastReq.Header.Add(key, value)
		}
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		fastReq.Header.SetUserAgent(c.userAgent)
	}

	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		fastReq.SetBodyRaw(body)
	}

	ctx := req.Context()
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.doDeadlineRedirects(fastReq, fastResp, deadline); err != nil {
			return nil, err
		}
	} else if err := c.client.DoRedirects(fastReq, fastResp, DefaultMaxRedirects); err != nil {
		return nil, err
	}

	// fastResp owns its buffer; copy before it goes back to the pool
	body := append([]byte(nil), fastResp.Body()...)

	headers := make(http.Header)
	fastResp.Header.VisitAll(func(key, value []byte) {
		headers.Add(string(key), string(value))
	})

	if c.decompress {
		decoded, changed, err := DecodeChain(headers.Get("Content-Encoding"), body)
		if err != nil {
			return nil, err
		}
		if changed {
			body = decoded
			headers.Del("Content-Encoding")
			headers.Set("Content-Length", strconv.Itoa(len(body)))
		}
	}

	statusCode := fastResp.StatusCode()
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		StatusCode:    statusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        headers,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}

// doDeadlineRedirects follows redirects the way DoRedirects does, with every
// hop bounded by the same deadline.
func (c *FastHTTPClient) doDeadlineRedirects(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error {
	for redirects := 0; ; redirects++ {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return err
		}
		if !fasthttp.StatusCodeIsRedirect(resp.StatusCode()) {
			return nil
		}
		if redirects >= DefaultMaxRedirects {
			return fasthttp.ErrTooManyRedirects
		}
		location := resp.Header.Peek(fasthttp.HeaderLocation)
		if len(location) == 0 {
			return fasthttp.ErrMissingLocation
		}

		uri := fasthttp.AcquireURI()
		req.URI().CopyTo(uri)
		uri.UpdateBytes(location)
		req.SetRequestURI(uri.String())
		req.Header.SetHostBytes(uri.Host())
		fasthttp.ReleaseURI(uri)
		resp.Reset()
	}
}
