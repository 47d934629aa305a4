package gemini

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1beta"
	DefaultModel      = "gemini-1.5-flash"

	generateContentMethod = "generateContent"
)

// Endpoint builds the generateContent URL for a model. The API key travels
// as a query parameter.
func Endpoint(baseURL, apiVersion, model, apiKey string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	if model == "" {
		model = DefaultModel
	}
	return fmt.Sprintf("%s/%s/models/%s:%s?key=%s",
		strings.TrimRight(baseURL, "/"),
		apiVersion,
		url.PathEscape(model),
		generateContentMethod,
		url.QueryEscape(apiKey),
	)
}

type endpointParts struct {
	BaseURL    string
	APIVersion string
	Model      string
	APIKey     string
}

func parseEndpoint(endpoint string) (*endpointParts, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	// /{version}/models/{model}:generateContent
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) != 3 || segments[1] != "models" {
		return nil, fmt.Errorf("unexpected endpoint path %q", u.Path)
	}
	model, method, ok := strings.Cut(segments[2], ":")
	if !ok || method != generateContentMethod || model == "" {
		return nil, fmt.Errorf("unexpected endpoint method in %q", u.Path)
	}
	return &endpointParts{
		BaseURL:    u.Scheme + "://" + u.Host,
		APIVersion: segments[0],
		Model:      model,
		APIKey:     u.Query().Get("key"),
	}, nil
}
