package httpx_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NeuralTrust/checkimage/pkg/infra/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestFastHTTPClient_Do_PostJSON(t *testing.T) {
	var gotBody, gotContentType, gotUserAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotContentType = r.Header.Get("Content-Type")
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := httpx.NewFastHTTPClient(httpx.WithUserAgent("checkimage-test"))
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1beta/models/m:generateContent", strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(body))
	assert.Equal(t, `{"a":1}`, gotBody)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "checkimage-test", gotUserAgent)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestFastHTTPClient_Do_DecodesGzip(t *testing.T) {
	plain := []byte("GIF89a....")
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write(plain)
	_ = gz.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/gif")
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	client := httpx.NewFastHTTPClient()
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/cat.gif", nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, plain, body)
	assert.Empty(t, resp.Header.Get("Content-Encoding"))
	assert.Equal(t, "image/gif", resp.Header.Get("Content-Type"))
}

func TestFastHTTPClient_Do_NonOKStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := httpx.NewFastHTTPClient()
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFastHTTPClient_Do_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	client := httpx.NewFastHTTPClient(httpx.WithTimeout(time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	assert.Error(t, err)
}

func redirectServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/old.png", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new.png", http.StatusFound)
	})
	mux.HandleFunc("/new.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("PNG"))
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	mux.HandleFunc("/nowhere", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFastHTTPClient_Do_FollowsRedirects(t *testing.T) {
	srv := redirectServer(t)
	client := httpx.NewFastHTTPClient()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for name, ctx := range map[string]context.Context{
		"without deadline": context.Background(),
		"with deadline":    ctx,
	} {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/old.png", nil)
			require.NoError(t, err)

			resp, err := client.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
			assert.Equal(t, "PNG", string(body))
		})
	}
}

func TestFastHTTPClient_Do_RedirectFailures(t *testing.T) {
	srv := redirectServer(t)
	client := httpx.NewFastHTTPClient()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for name, ctx := range map[string]context.Context{
		"without deadline": context.Background(),
		"with deadline":    ctx,
	} {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/loop", nil)
			require.NoError(t, err)
			_, err = client.Do(req)
			assert.ErrorIs(t, err, fasthttp.ErrTooManyRedirects)

			req, err = http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/nowhere", nil)
			require.NoError(t, err)
			_, err = client.Do(req)
			assert.ErrorIs(t, err, fasthttp.ErrMissingLocation)
		})
	}
}
