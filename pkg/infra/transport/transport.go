package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/NeuralTrust/checkimage/pkg/domain/classification"
	"github.com/NeuralTrust/checkimage/pkg/infra/httpx"
	"github.com/valyala/fastjson"
)

//go:generate mockery --name=Transport --dir=. --output=../../../mocks --filename=transport_mock.go --case=underscore --with-expecter

// Transport posts one JSON document and hands back the parsed reply.
// Implementations never retry.
type Transport interface {
	Send(ctx context.Context, endpoint string, body any) (*fastjson.Value, error)
}

type httpTransport struct {
	client httpx.Client
}

func NewHTTPTransport(client httpx.Client) Transport {
	if client == nil {
		client = &http.Client{}
	}
	return &httpTransport{client: client}
}

func (t *httpTransport) Send(ctx context.Context, endpoint string, body any) (*fastjson.Value, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, classification.NewTransportError("failed to marshal request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, classification.NewTransportError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, classification.NewTransportError("request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classification.NewTransportError("failed to read response body", err)
	}

	// Error replies from the API are JSON too; the interpreter decides what
	// they mean. Only an unparseable body is a transport failure here.
	return ParseJSON(raw, resp.StatusCode)
}

// ParseJSON parses a response body, reporting non-JSON as a transport error.
func ParseJSON(raw []byte, status int) (*fastjson.Value, error) {
	v, err := fastjson.ParseBytes(raw)
	if err != nil {
		return nil, classification.NewTransportError(fmt.Sprintf("response is not JSON (status %d)", status), err)
	}
	return v, nil
}
