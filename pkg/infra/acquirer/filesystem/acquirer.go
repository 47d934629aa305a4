package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/NeuralTrust/checkimage/pkg/domain/classification"
	"github.com/NeuralTrust/checkimage/pkg/domain/image"
	"github.com/NeuralTrust/checkimage/pkg/infra/acquirer"
	"github.com/spf13/afero"
)

type fsAcquirer struct {
	fs afero.Fs
}

// NewAcquirer reads images from a filesystem; pass afero.NewOsFs() for the
// local disk.
func NewAcquirer(fsys afero.Fs) image.Acquirer {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &fsAcquirer{fs: fsys}
}

func (a *fsAcquirer) Acquire(_ context.Context, ref image.Reference) (*image.Payload, error) {
	if err := acquirer.CheckKind(ref, image.KindPath); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(a.fs, ref.Value)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, acquirer.NotFound(fmt.Sprintf("file %q not found", ref.Value))
		}
		return nil, classification.NewAcquisitionError(fmt.Sprintf("failed to read %q", ref.Value), err)
	}
	return image.NewPayload(data, image.MimeTypeFromExtension(ref.Value)), nil
}
