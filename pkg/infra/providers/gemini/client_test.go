package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NeuralTrust/checkimage/pkg/domain/classification"
	"github.com/NeuralTrust/checkimage/pkg/domain/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestNewSDKTransport(t *testing.T) {
	assert.NotNil(t, NewSDKTransport())
}

func TestSDKTransport_Send_RejectsForeignBody(t *testing.T) {
	v, err := NewSDKTransport().Send(context.Background(), Endpoint("", "", "", "k"), map[string]string{})

	assert.Nil(t, v)
	assert.ErrorIs(t, err, classification.ErrTransport)
}

func TestSDKTransport_Send_RequiresAPIKey(t *testing.T) {
	req := BuildRequest(&image.Payload{Base64: "AAAA", MimeType: "image/png"}, "")

	v, err := NewSDKTransport().Send(context.Background(), Endpoint("", "", "", ""), req)

	assert.Nil(t, v)
	assert.ErrorIs(t, err, classification.ErrTransport)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestSDKTransport_Send_BadInlineData(t *testing.T) {
	req := BuildRequest(&image.Payload{Base64: "%%%not-base64", MimeType: "image/png"}, "")

	_, err := NewSDKTransport().Send(context.Background(), Endpoint("", "", "", "k"), req)

	assert.ErrorIs(t, err, classification.ErrTransport)
	assert.Contains(t, err.Error(), "not base64")
}

func TestToGenaiContents(t *testing.T) {
	req := BuildRequest(&image.Payload{Base64: "AAEC", MimeType: "image/png"}, "title")

	contents, err := toGenaiContents(req.Contents)

	require.NoError(t, err)
	require.Len(t, contents, 1)
	require.Len(t, contents[0].Parts, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "image/png", contents[0].Parts[0].InlineData.MIMEType)
	assert.Equal(t, []byte{0, 1, 2}, contents[0].Parts[0].InlineData.Data)
	assert.Equal(t, ComposePrompt("title"), contents[0].Parts[1].Text)
}

func TestToGenaiSchema(t *testing.T) {
	s := toGenaiSchema(ResultSchema())

	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{FieldTitle, FieldNSFW}, s.Required)
	assert.Equal(t, []string{FieldTitle, FieldNSFW}, s.PropertyOrdering)
	assert.Equal(t, genai.TypeString, s.Properties[FieldTitle].Type)
	assert.Equal(t, genai.TypeNumber, s.Properties[FieldNSFW].Type)
	require.NotNil(t, s.Properties[FieldNSFW].Nullable)
	assert.False(t, *s.Properties[FieldNSFW].Nullable)
	assert.Nil(t, toGenaiSchema(nil))
}

func TestSDKTransport_Send_RoundTrip(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"title\":\"花\",\"nsfw\":0.9}"}]}}]}`))
	}))
	defer srv.Close()

	req := BuildRequest(&image.Payload{Base64: "AAEC", MimeType: "image/png"}, "name it")
	v, err := NewSDKTransport().Send(context.Background(), Endpoint(srv.URL, "v1beta", "gemini-1.5-flash", "k"), req)
	require.NoError(t, err)

	result, err := ParseResponse(v)
	require.NoError(t, err)
	assert.Equal(t, &classification.Result{Title: "花", NSFW: 0.9}, result)

	contents := body["contents"].([]any)
	require.Len(t, contents, 1)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	inline := parts[0].(map[string]any)["inlineData"].(map[string]any)
	assert.Equal(t, "image/png", inline["mimeType"])
	assert.Equal(t, "AAEC", inline["data"])
	assert.Equal(t, ComposePrompt("name it"), parts[1].(map[string]any)["text"])

	generation := body["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", generation["responseMimeType"])
	schema := generation["responseSchema"].(map[string]any)
	assert.Equal(t, "OBJECT", schema["type"])
	assert.ElementsMatch(t, []any{FieldTitle, FieldNSFW}, schema["required"])
	assert.Contains(t, schema["properties"], FieldTitle)
	assert.Contains(t, schema["properties"], FieldNSFW)
}

func TestSDKTransport_Send_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	req := BuildRequest(&image.Payload{Base64: "AAEC", MimeType: "image/png"}, "")
	v, err := NewSDKTransport().Send(context.Background(), Endpoint(srv.URL, "v1beta", "gemini-1.5-flash", "bad"), req)

	assert.Nil(t, v)
	assert.ErrorIs(t, err, classification.ErrTransport)
	assert.Contains(t, err.Error(), "API key not valid")
}
