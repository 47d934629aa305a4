package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/NeuralTrust/checkimage/pkg/domain/classification"
	"github.com/NeuralTrust/checkimage/pkg/domain/image"
	"github.com/NeuralTrust/checkimage/pkg/infra/acquirer"
	"github.com/NeuralTrust/checkimage/pkg/infra/httpx"
)

const fallbackMimeType = "application/octet-stream"

type fetchAcquirer struct {
	client httpx.Client
}

func NewAcquirer(client httpx.Client) image.Acquirer {
	if client == nil {
		client = &http.Client{}
	}
	return &fetchAcquirer{client: client}
}

// Acquire downloads the image. Its MIME type is whatever the server declares
// for the body; the URL is never inspected.
func (a *fetchAcquirer) Acquire(ctx context.Context, ref image.Reference) (*image.Payload, error) {
	if err := acquirer.CheckKind(ref, image.KindURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.Value, nil)
	if err != nil {
		return nil, classification.NewAcquisitionError(fmt.Sprintf("invalid image url %q", ref.Value), err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, classification.NewAcquisitionError(fmt.Sprintf("failed to fetch %q", ref.Value), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, acquirer.NotFound(fmt.Sprintf("image %q not found (status %d)", ref.Value, resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classification.NewAcquisitionError(fmt.Sprintf("fetching %q returned status %d", ref.Value, resp.StatusCode), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classification.NewAcquisitionError(fmt.Sprintf("failed to read %q", ref.Value), err)
	}
	return image.NewPayload(data, declaredMimeType(resp.Header.Get("Content-Type"))), nil
}

func declaredMimeType(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return fallbackMimeType
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fallbackMimeType
	}
	return mediaType
}
