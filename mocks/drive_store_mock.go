package mocks

import (
	"context"

	"github.com/NeuralTrust/checkimage/pkg/infra/acquirer/drive"
	"github.com/stretchr/testify/mock"
)

type DriveStore struct {
	mock.Mock
}

func (m *DriveStore) GetFile(ctx context.Context, id string) (*drive.File, error) {
	args := m.Called(ctx, id)
	f, _ := args.Get(0).(*drive.File)
	return f, args.Error(1)
}

func (m *DriveStore) FindFile(ctx context.Context, name, parentID string) (*drive.File, error) {
	args := m.Called(ctx, name, parentID)
	f, _ := args.Get(0).(*drive.File)
	return f, args.Error(1)
}

func (m *DriveStore) FindFolder(ctx context.Context, name, parentID string) (*drive.File, error) {
	args := m.Called(ctx, name, parentID)
	f, _ := args.Get(0).(*drive.File)
	return f, args.Error(1)
}

func (m *DriveStore) Download(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}
