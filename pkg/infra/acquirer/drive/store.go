package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/NeuralTrust/checkimage/pkg/domain/image"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	FolderMimeType = "application/vnd.google-apps.folder"
	RootFolderID   = "root"
)

type File struct {
	ID       string
	Name     string
	MimeType string
}

//go:generate mockery --name=Store --dir=. --output=../../../../mocks --filename=drive_store_mock.go --case=underscore --with-expecter

// Store is the slice of the Drive API the acquirer needs. Lookups that match
// nothing return an error wrapping image.ErrNotFound.
type Store interface {
	GetFile(ctx context.Context, id string) (*File, error)
	// FindFile returns the first non-folder named name; parentID "" searches everywhere.
	FindFile(ctx context.Context, name, parentID string) (*File, error)
	FindFolder(ctx context.Context, name, parentID string) (*File, error)
	Download(ctx context.Context, id string) ([]byte, error)
}

type apiStore struct {
	svc *drive.Service
}

// NewStore connects to Drive read-only. Credentials come from opts, e.g.
// option.WithCredentialsFile or option.WithAPIKey.
func NewStore(ctx context.Context, opts ...option.ClientOption) (Store, error) {
	opts = append([]option.ClientOption{option.WithScopes(drive.DriveReadonlyScope)}, opts...)
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &apiStore{svc: svc}, nil
}

func (s *apiStore) GetFile(ctx context.Context, id string) (*File, error) {
	f, err := s.svc.Files.Get(id).
		Fields("id", "name", "mimeType").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, translate(err, id)
	}
	return &File{ID: f.Id, Name: f.Name, MimeType: f.MimeType}, nil
}

func (s *apiStore) FindFile(ctx context.Context, name, parentID string) (*File, error) {
	q := fmt.Sprintf("name = '%s' and mimeType != '%s' and trashed = false", escapeQuery(name), FolderMimeType)
	return s.findFirst(ctx, q, name, parentID)
}

func (s *apiStore) FindFolder(ctx context.Context, name, parentID string) (*File, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), FolderMimeType)
	return s.findFirst(ctx, q, name, parentID)
}

func (s *apiStore) findFirst(ctx context.Context, q, name, parentID string) (*File, error) {
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}
	list, err := s.svc.Files.List().
		Q(q).
		PageSize(1).
		Fields("files(id, name, mimeType)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, translate(err, name)
	}
	if len(list.Files) == 0 {
		return nil, fmt.Errorf("%q: %w", name, image.ErrNotFound)
	}
	f := list.Files[0]
	return &File{ID: f.Id, Name: f.Name, MimeType: f.MimeType}, nil
}

func (s *apiStore) Download(ctx context.Context, id string) ([]byte, error) {
	resp, err := s.svc.Files.Get(id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, translate(err, id)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func translate(err error, what string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%q: %w", what, image.ErrNotFound)
	}
	return err
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
