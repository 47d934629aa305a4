package events

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/NeuralTrust/checkimage/pkg/infra/acquirer/drive"
	"github.com/NeuralTrust/checkimage/pkg/infra/providers/gemini"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const DefaultFile = "events.csv"

// dayLayout renders a date as MMDD, the key column of the events file.
const dayLayout = "0102"

//go:generate mockery --name=Source --dir=. --output=../../../mocks --filename=events_source_mock.go --case=underscore --with-expecter
type Source interface {
	Read(ctx context.Context) ([]byte, error)
}

type fileSource struct {
	fs   afero.Fs
	path string
}

func NewFileSource(fsys afero.Fs, path string) Source {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &fileSource{fs: fsys, path: path}
}

func (s *fileSource) Read(_ context.Context) ([]byte, error) {
	return afero.ReadFile(s.fs, s.path)
}

type driveSource struct {
	store drive.Store
	path  string
}

// NewDriveSource reads the events file from a slash separated folder path
// under the Drive root.
func NewDriveSource(store drive.Store, path string) Source {
	return &driveSource{store: store, path: path}
}

func (s *driveSource) Read(ctx context.Context) ([]byte, error) {
	return drive.ReadFile(ctx, s.store, s.path)
}

// Parse reads MMDD,note rows. Rows with fewer than two columns are skipped
// and a later row for the same day wins.
func Parse(data []byte) (map[string]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	notes := make(map[string]string)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read events: %w", err)
		}
		if len(record) < 2 {
			continue
		}
		notes[strings.TrimSpace(record[0])] = strings.TrimSpace(record[1])
	}
	return notes, nil
}

func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

type Lookup struct {
	logger *logrus.Logger
	source Source
	now    func() time.Time
}

func NewLookup(logger *logrus.Logger, source Source) *Lookup {
	return &Lookup{logger: logger, source: source, now: time.Now}
}

// WithClock replaces the wall clock used to pick the day.
func (l *Lookup) WithClock(now func() time.Time) *Lookup {
	l.now = now
	return l
}

// Today returns the note for the current day, or "" when there is none. An
// unreadable events file only costs the note.
func (l *Lookup) Today(ctx context.Context) string {
	if l == nil || l.source == nil {
		return ""
	}
	data, err := l.source.Read(ctx)
	if err != nil {
		l.logger.WithError(err).Warn("events file not available")
		return ""
	}
	notes, err := Parse(data)
	if err != nil {
		l.logger.WithError(err).Warn("events file is not valid CSV")
		return ""
	}
	return notes[DayKey(l.now())]
}

// ComposePrompt appends a day note to the title prompt, falling back to the
// default title prompt when none was given.
func ComposePrompt(prompt, note string) string {
	if note == "" {
		return prompt
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = gemini.DefaultTitlePrompt
	}
	return prompt + note + "."
}
