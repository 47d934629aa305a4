package mocks

import (
	"time"

	"github.com/NeuralTrust/checkimage/pkg/domain/classification"
	"github.com/stretchr/testify/mock"
)

type Recorder struct {
	mock.Mock
}

func (m *Recorder) Classified(verdict classification.Verdict, elapsed time.Duration) {
	m.Called(verdict, elapsed)
}

func (m *Recorder) Failed(kind classification.ErrorKind, elapsed time.Duration) {
	m.Called(kind, elapsed)
}
