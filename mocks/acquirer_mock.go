package mocks

import (
	"context"

	"github.com/NeuralTrust/checkimage/pkg/domain/image"
	"github.com/stretchr/testify/mock"
)

type Acquirer struct {
	mock.Mock
}

func (m *Acquirer) Acquire(ctx context.Context, ref image.Reference) (*image.Payload, error) {
	args := m.Called(ctx, ref)
	p, _ := args.Get(0).(*image.Payload)
	return p, args.Error(1)
}
