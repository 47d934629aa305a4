package drive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NeuralTrust/checkimage/pkg/domain/image"
)

// ResolvePath walks a slash separated path from the Drive root, folder by
// folder, and returns the file at its end.
func ResolvePath(ctx context.Context, store Store, path string) (*File, error) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" || strings.HasSuffix(trimmed, "/") {
		return nil, fmt.Errorf("drive path %q does not name a file", path)
	}
	segments := strings.Split(trimmed, "/")
	fileName := segments[len(segments)-1]

	parentID := RootFolderID
	for _, part := range segments[:len(segments)-1] {
		if part == "" {
			continue
		}
		folder, err := store.FindFolder(ctx, part, parentID)
		if err != nil {
			if errors.Is(err, image.ErrNotFound) {
				return nil, fmt.Errorf("folder not found: %s: %w", part, image.ErrNotFound)
			}
			return nil, err
		}
		parentID = folder.ID
	}

	file, err := store.FindFile(ctx, fileName, parentID)
	if err != nil {
		if errors.Is(err, image.ErrNotFound) {
			return nil, fmt.Errorf("file not found: %s: %w", fileName, image.ErrNotFound)
		}
		return nil, err
	}
	return file, nil
}

// ReadFile resolves path and downloads the file's content.
func ReadFile(ctx context.Context, store Store, path string) ([]byte, error) {
	file, err := ResolvePath(ctx, store, path)
	if err != nil {
		return nil, err
	}
	return store.Download(ctx, file.ID)
}
