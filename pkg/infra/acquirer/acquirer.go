// Package acquirer holds the host-specific ways of turning an image
// reference into bytes. Exactly one of them is wired per process.
package acquirer

import (
	"fmt"

	"github.com/NeuralTrust/checkimage/pkg/domain/classification"
	"github.com/NeuralTrust/checkimage/pkg/domain/image"
)

// CheckKind rejects references an acquirer does not understand.
func CheckKind(ref image.Reference, want image.Kind) error {
	if ref.Kind != want {
		return classification.NewAcquisitionError(
			fmt.Sprintf("%s acquirer cannot resolve %s reference %q", want, ref.Kind, ref.Value), nil,
		)
	}
	if ref.Value == "" {
		return classification.NewAcquisitionError("empty image reference", nil)
	}
	return nil
}

// NotFound wraps image.ErrNotFound as a terminal acquisition error.
func NotFound(what string) error {
	return classification.NewAcquisitionError(what, image.ErrNotFound)
}
