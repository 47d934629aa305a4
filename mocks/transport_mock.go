package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/valyala/fastjson"
)

type Transport struct {
	mock.Mock
}

func (m *Transport) Send(ctx context.Context, endpoint string, body any) (*fastjson.Value, error) {
	args := m.Called(ctx, endpoint, body)
	v, _ := args.Get(0).(*fastjson.Value)
	return v, args.Error(1)
}
