package gemini

import (
	"fmt"
	"strings"

	"github.com/NeuralTrust/checkimage/pkg/domain/image"
)

// MaxTitleLength is the title length, in characters, the default prompt asks for.
const MaxTitleLength = 15

const (
	FieldTitle = "title"
	FieldNSFW  = "nsfw"

	nsfwInstruction = "NSFWスコア(nsfw)を0.0-1.0の範囲で出力してください."
)

// DefaultTitlePrompt asks for a short Japanese title for the image.
var DefaultTitlePrompt = fmt.Sprintf("この画像に%d文字以内で日本語のタイトルをつけてください. 例: お花畑.", MaxTitleLength)

type SchemaType string

const (
	TypeObject SchemaType = "OBJECT"
	TypeString SchemaType = "STRING"
	TypeNumber SchemaType = "NUMBER"
)

// Request is the generateContent body.
type Request struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type Part struct {
	InlineData *InlineData `json:"inline_data,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type GenerationConfig struct {
	ResponseMimeType string  `json:"response_mime_type"`
	ResponseSchema   *Schema `json:"response_schema"`
}

type Schema struct {
	Type        SchemaType         `json:"type"`
	Description string             `json:"description,omitempty"`
	Nullable    *bool              `json:"nullable,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// ResultSchema constrains the model to an object carrying both a title and
// an NSFW score. Both fields are required and non-null.
func ResultSchema() *Schema {
	notNull := false
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			FieldTitle: {Type: TypeString, Description: "TITLE of image", Nullable: &notNull},
			FieldNSFW:  {Type: TypeNumber, Description: "NSFW score", Nullable: &notNull},
		},
		Required: []string{FieldTitle, FieldNSFW},
	}
}

// ComposePrompt keeps a caller's prompt in place of the title instruction but
// always appends the NSFW instruction, so the schema stays satisfiable.
func ComposePrompt(prompt string) string {
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultTitlePrompt
	}
	return prompt + ". " + nsfwInstruction
}

func BuildRequest(payload *image.Payload, prompt string) *Request {
	return &Request{
		Contents: []Content{{
			Parts: []Part{
				{InlineData: &InlineData{MimeType: payload.MimeType, Data: payload.Base64}},
				{Text: ComposePrompt(prompt)},
			},
		}},
		GenerationConfig: GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   ResultSchema(),
		},
	}
}
