package image

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

type Kind string

const (
	KindPath    Kind = "path"
	KindStorage Kind = "storage"
	KindURL     Kind = "url"
)

// DefaultMimeType is used for any file extension outside the known table.
const DefaultMimeType = "image/jpeg"

var ErrNotFound = errors.New("not found")

// Reference names an image without saying how to read it. Which acquirer
// resolves it is decided by the host the process runs on.
type Reference struct {
	Kind  Kind
	Value string
}

func Path(p string) Reference {
	return Reference{Kind: KindPath, Value: p}
}

func Storage(id string) Reference {
	return Reference{Kind: KindStorage, Value: id}
}

func URL(u string) Reference {
	return Reference{Kind: KindURL, Value: u}
}

func (r Reference) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.Value)
}

// Payload is an image ready to be inlined into a request.
type Payload struct {
	Base64   string
	MimeType string
}

//go:generate mockery --name=Acquirer --dir=. --output=../../../mocks --filename=acquirer_mock.go --case=underscore --with-expecter

type Acquirer interface {
	Acquire(ctx context.Context, ref Reference) (*Payload, error)
}

var mimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// MimeTypeFromExtension guesses the MIME type of a file from its name.
// Unknown or missing extensions fall back to DefaultMimeType.
func MimeTypeFromExtension(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}
	return DefaultMimeType
}

func NewPayload(data []byte, mimeType string) *Payload {
	return &Payload{
		Base64:   base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	}
}
