package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/NeuralTrust/checkimage/pkg/domain/classification"
	"github.com/mitchellh/mapstructure"
	"github.com/valyala/fastjson"
)

// AnswerText pulls candidates[0].content.parts[0].text out of a
// generateContent envelope. No other position is consulted.
func AnswerText(envelope *fastjson.Value) (string, error) {
	if envelope == nil {
		return "", classification.NewMalformedResponseError("empty response")
	}
	var text *fastjson.Value
	if candidate := firstItem(envelope, "candidates"); candidate != nil {
		if part := firstItem(candidate.Get("content"), "parts"); part != nil {
			text = part.Get("text")
		}
	}
	if text == nil || text.Type() != fastjson.TypeString {
		msg := "response has no candidates[0].content.parts[0].text"
		if apiMsg := envelope.GetStringBytes("error", "message"); len(apiMsg) > 0 {
			msg = fmt.Sprintf("%s (api error: %s)", msg, apiMsg)
		} else if reason := envelope.GetStringBytes("promptFeedback", "blockReason"); len(reason) > 0 {
			msg = fmt.Sprintf("%s (prompt blocked: %s)", msg, reason)
		}
		return "", classification.NewMalformedResponseError(msg)
	}
	return string(text.GetStringBytes()), nil
}

// firstItem returns v[key][0] when v[key] is a non-empty array. fastjson's
// Get would also accept an object keyed "0".
func firstItem(v *fastjson.Value, key string) *fastjson.Value {
	if v == nil {
		return nil
	}
	items := v.Get(key)
	if items == nil || items.Type() != fastjson.TypeArray {
		return nil
	}
	return items.Get("0")
}

// ParseAnswer decodes the model's JSON answer into a Result.
func ParseAnswer(text string) (*classification.Result, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, classification.NewSchemaParseError("answer is not a JSON object", err)
	}
	for _, field := range []string{FieldTitle, FieldNSFW} {
		if v, ok := raw[field]; !ok || v == nil {
			return nil, classification.NewSchemaParseError(fmt.Sprintf("answer is missing %q", field), nil)
		}
	}

	var result classification.Result
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &result,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, classification.NewSchemaParseError("failed to build decoder", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, classification.NewSchemaParseError("answer fields have the wrong type", err)
	}

	if result.NSFW < 0 || result.NSFW > 1 {
		return nil, classification.NewSchemaParseError(fmt.Sprintf("nsfw score %v is outside [0, 1]", result.NSFW), nil)
	}
	return &result, nil
}

// ParseResponse runs both extraction steps over a raw envelope.
func ParseResponse(envelope *fastjson.Value) (*classification.Result, error) {
	text, err := AnswerText(envelope)
	if err != nil {
		return nil, err
	}
	return ParseAnswer(text)
}
