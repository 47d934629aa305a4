package drive

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/NeuralTrust/checkimage/pkg/domain/classification"
	"github.com/NeuralTrust/checkimage/pkg/domain/image"
	"github.com/NeuralTrust/checkimage/pkg/infra/acquirer"
)

// Drive file IDs are long runs of word characters and hyphens.
var fileIDPattern = regexp.MustCompile(`^[\w-]{25,}$`)

func LooksLikeFileID(ref string) bool {
	return fileIDPattern.MatchString(ref)
}

type driveAcquirer struct {
	store Store
}

func NewAcquirer(store Store) image.Acquirer {
	return &driveAcquirer{store: store}
}

// Acquire treats a reference shaped like a file ID as one and anything else
// as a file name, taking the first file with that name.
func (a *driveAcquirer) Acquire(ctx context.Context, ref image.Reference) (*image.Payload, error) {
	if err := acquirer.CheckKind(ref, image.KindStorage); err != nil {
		return nil, err
	}

	var (
		file *File
		err  error
	)
	if LooksLikeFileID(ref.Value) {
		file, err = a.store.GetFile(ctx, ref.Value)
	} else {
		file, err = a.store.FindFile(ctx, ref.Value, "")
	}
	if err != nil {
		return nil, lookupError(ref.Value, err)
	}

	data, err := a.store.Download(ctx, file.ID)
	if err != nil {
		return nil, lookupError(ref.Value, err)
	}
	return image.NewPayload(data, file.MimeType), nil
}

func lookupError(ref string, err error) error {
	if errors.Is(err, image.ErrNotFound) {
		return acquirer.NotFound(fmt.Sprintf("drive file %q not found", ref))
	}
	return classification.NewAcquisitionError(fmt.Sprintf("failed to read drive file %q", ref), err)
}
