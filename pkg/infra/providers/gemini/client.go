package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/NeuralTrust/checkimage/pkg/domain/classification"
	"github.com/NeuralTrust/checkimage/pkg/infra/transport"
	"github.com/valyala/fastjson"
	"google.golang.org/genai"
)

type sdkTransport struct {
	newClient func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error)
}

// NewSDKTransport dispatches through the genai SDK instead of a raw POST.
// The endpoint URL still carries the model, API version and key; a client is
// built per call so a key set after start-up is honoured.
func NewSDKTransport() transport.Transport {
	return &sdkTransport{newClient: genai.NewClient}
}

func (t *sdkTransport) Send(ctx context.Context, endpoint string, body any) (*fastjson.Value, error) {
	req, ok := body.(*Request)
	if !ok {
		return nil, classification.NewTransportError(fmt.Sprintf("sdk transport cannot send %T", body), nil)
	}
	parts, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, classification.NewTransportError("bad endpoint", err)
	}
	if parts.APIKey == "" {
		return nil, classification.NewTransportError("API key is required", nil)
	}

	contents, err := toGenaiContents(req.Contents)
	if err != nil {
		return nil, classification.NewTransportError("failed to convert request", err)
	}

	client, err := t.newClient(ctx, &genai.ClientConfig{
		APIKey:  parts.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    parts.BaseURL,
			APIVersion: parts.APIVersion,
		},
	})
	if err != nil {
		return nil, classification.NewTransportError("failed to create genai client", err)
	}

	result, err := client.Models.GenerateContent(ctx, parts.Model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: req.GenerationConfig.ResponseMimeType,
		ResponseSchema:   toGenaiSchema(req.GenerationConfig.ResponseSchema),
	})
	if err != nil {
		return nil, classification.NewTransportError("failed to generate content", err)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, classification.NewTransportError("failed to re-encode response", err)
	}
	return transport.ParseJSON(raw, 200)
}

func toGenaiContents(contents []Content) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		content := &genai.Content{Role: "user"}
		for _, p := range c.Parts {
			switch {
			case p.InlineData != nil:
				data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("inline data is not base64: %w", err)
				}
				content.Parts = append(content.Parts, &genai.Part{
					InlineData: &genai.Blob{MIMEType: p.InlineData.MimeType, Data: data},
				})
			case p.Text != "":
				content.Parts = append(content.Parts, &genai.Part{Text: p.Text})
			}
		}
		out = append(out, content)
	}
	return out, nil
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(s.Type),
		Description: s.Description,
		Nullable:    s.Nullable,
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
		if len(s.Required) == len(s.Properties) {
			out.PropertyOrdering = s.Required
		}
	}
	return out
}
