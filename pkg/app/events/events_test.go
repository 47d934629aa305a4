package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NeuralTrust/checkimage/mocks"
	"github.com/NeuralTrust/checkimage/pkg/app/events"
	"github.com/NeuralTrust/checkimage/pkg/domain/image"
	"github.com/NeuralTrust/checkimage/pkg/infra/acquirer/drive"
	"github.com/NeuralTrust/checkimage/pkg/infra/providers/gemini"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sample = "0101,お正月\n0214,バレンタインデー\r\n1225,クリスマス,extra\nnot a row\n\n0214,聖バレンタイン\n"

func fixedDay(month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, month, day, 9, 0, 0, 0, time.Local)
	}
}

func TestParse(t *testing.T) {
	notes, err := events.Parse([]byte(sample))

	require.NoError(t, err)
	assert.Equal(t, "お正月", notes["0101"])
	assert.Equal(t, "聖バレンタイン", notes["0214"])
	assert.Equal(t, "クリスマス", notes["1225"])
	assert.NotContains(t, notes, "not a row")
	assert.Len(t, notes, 3)
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, "0105", events.DayKey(time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1231", events.DayKey(time.Date(2026, time.December, 31, 23, 0, 0, 0, time.UTC)))
}

func TestLookup_FileSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "events.csv", []byte(sample), 0o644))
	logger, _ := test.NewNullLogger()

	lookup := events.NewLookup(logger, events.NewFileSource(fs, "events.csv"))

	assert.Equal(t, "クリスマス", lookup.WithClock(fixedDay(time.December, 25)).Today(context.Background()))
	assert.Equal(t, "", lookup.WithClock(fixedDay(time.March, 3)).Today(context.Background()))
}

func TestLookup_MissingFile(t *testing.T) {
	logger, hook := test.NewNullLogger()

	note := events.NewLookup(logger, events.NewFileSource(afero.NewMemMapFs(), "events.csv")).
		WithClock(fixedDay(time.January, 1)).
		Today(context.Background())

	assert.Equal(t, "", note)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestLookup_NilSource(t *testing.T) {
	logger, _ := test.NewNullLogger()
	assert.Equal(t, "", events.NewLookup(logger, nil).Today(context.Background()))
}

func TestLookup_DriveSource(t *testing.T) {
	store := new(mocks.DriveStore)
	store.On("FindFolder", mock.Anything, "config", drive.RootFolderID).
		Return(&drive.File{ID: "folder-1", Name: "config", MimeType: drive.FolderMimeType}, nil)
	store.On("FindFile", mock.Anything, "events.csv", "folder-1").
		Return(&drive.File{ID: "file-1", Name: "events.csv", MimeType: "text/csv"}, nil)
	store.On("Download", mock.Anything, "file-1").Return([]byte(sample), nil)
	logger, _ := test.NewNullLogger()

	note := events.NewLookup(logger, events.NewDriveSource(store, "config/events.csv")).
		WithClock(fixedDay(time.January, 1)).
		Today(context.Background())

	assert.Equal(t, "お正月", note)
	store.AssertExpectations(t)
}

func TestLookup_DriveFolderMissing(t *testing.T) {
	store := new(mocks.DriveStore)
	store.On("FindFolder", mock.Anything, "config", drive.RootFolderID).Return(nil, image.ErrNotFound)
	logger, hook := test.NewNullLogger()

	note := events.NewLookup(logger, events.NewDriveSource(store, "config/events.csv")).Today(context.Background())

	assert.Equal(t, "", note)
	err, _ := hook.LastEntry().Data[logrus.ErrorKey].(error)
	require.Error(t, err)
	assert.True(t, errors.Is(err, image.ErrNotFound))
	assert.Contains(t, err.Error(), "folder not found: config")
}

func TestComposePrompt(t *testing.T) {
	assert.Equal(t, "", events.ComposePrompt("", ""))
	assert.Equal(t, "猫の写真", events.ComposePrompt("猫の写真", ""))
	assert.Equal(t, "猫の写真 クリスマス.", events.ComposePrompt("猫の写真 ", "クリスマス"))
	assert.Equal(t, gemini.DefaultTitlePrompt+"お正月.", events.ComposePrompt("  ", "お正月"))
}
