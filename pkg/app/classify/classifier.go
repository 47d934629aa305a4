package classify

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/NeuralTrust/checkimage/pkg/domain/classification"
	"github.com/NeuralTrust/checkimage/pkg/domain/image"
	"github.com/NeuralTrust/checkimage/pkg/infra/metrics"
	"github.com/NeuralTrust/checkimage/pkg/infra/providers/gemini"
	"github.com/NeuralTrust/checkimage/pkg/infra/transport"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchConcurrency = 4

	failureMessage   = "image classification failed"
	malformedMessage = "unexpected response from model, check the prompt or try again"
	flaggedMessage   = "image flagged as NSFW"
	clearMessage     = "image is not NSFW"
)

type state string

const (
	stateIdle             state = "idle"
	stateAcquiring        state = "acquiring"
	stateRequestBuilt     state = "request_built"
	stateAwaitingResponse state = "awaiting_response"
	stateInterpreted      state = "interpreted"
	stateDone             state = "done"
	stateFailed           state = "failed"
)

// Settings locate the model endpoint. APIKey may be empty at construction
// and supplied later through SetAPIKey.
type Settings struct {
	BaseURL    string
	APIVersion string
	Model      string
	APIKey     string
}

type Outcome struct {
	ID        uuid.UUID
	Reference image.Reference
	Result    classification.Result
	Verdict   classification.Verdict
}

// BatchItem is the result of one reference in a ClassifyAll call. Exactly
// one of Outcome and Err is set.
type BatchItem struct {
	Reference image.Reference
	Outcome   *Outcome
	Err       error
}

//go:generate mockery --name=Classifier --dir=. --output=../../../mocks --filename=classifier_mock.go --case=underscore --with-expecter
type Classifier interface {
	Classify(ctx context.Context, ref image.Reference, prompt string) (*Outcome, error)
	ClassifyAll(ctx context.Context, refs []image.Reference, prompt string, limit int) []BatchItem
	SetAPIKey(key string)
}

type classifier struct {
	logger    *logrus.Logger
	acquirer  image.Acquirer
	transport transport.Transport
	recorder  metrics.Recorder
	settings  Settings
	apiKey    atomic.Value
}

func NewClassifier(
	logger *logrus.Logger,
	acquirer image.Acquirer,
	transport transport.Transport,
	recorder metrics.Recorder,
	settings Settings,
) Classifier {
	if recorder == nil {
		recorder = metrics.Noop()
	}
	c := &classifier{
		logger:    logger,
		acquirer:  acquirer,
		transport: transport,
		recorder:  recorder,
		settings:  settings,
	}
	c.apiKey.Store(settings.APIKey)
	return c
}

func (c *classifier) SetAPIKey(key string) {
	c.apiKey.Store(key)
}

func (c *classifier) endpoint() string {
	key, _ := c.apiKey.Load().(string)
	return gemini.Endpoint(c.settings.BaseURL, c.settings.APIVersion, c.settings.Model, key)
}

func (c *classifier) Classify(ctx context.Context, ref image.Reference, prompt string) (*Outcome, error) {
	started := time.Now()
	id := uuid.New()
	log := c.logger.WithFields(logrus.Fields{
		"run_id":    id.String(),
		"reference": ref.String(),
	})

	result, err := c.run(ctx, log, ref, prompt)
	if err != nil {
		c.enter(log, stateFailed)
		c.recorder.Failed(classification.KindOf(err), time.Since(started))
		if errors.Is(err, classification.ErrMalformedResponse) {
			log.WithError(err).Error(malformedMessage)
		} else {
			log.WithError(err).Error(failureMessage)
		}
		return nil, err
	}

	verdict := classification.Classify(*result)
	c.recorder.Classified(verdict, time.Since(started))

	entry := log.WithFields(logrus.Fields{
		"title":   result.Title,
		"nsfw":    result.NSFW,
		"verdict": verdict,
	})
	if verdict.Flagged() {
		entry.Info(flaggedMessage)
	} else {
		entry.Info(clearMessage)
	}
	c.enter(log, stateDone)

	return &Outcome{
		ID:        id,
		Reference: ref,
		Result:    *result,
		Verdict:   verdict,
	}, nil
}

func (c *classifier) run(
	ctx context.Context,
	log *logrus.Entry,
	ref image.Reference,
	prompt string,
) (*classification.Result, error) {
	c.enter(log, stateIdle)

	c.enter(log, stateAcquiring)
	payload, err := c.acquirer.Acquire(ctx, ref)
	if err != nil {
		return nil, err
	}

	req := gemini.BuildRequest(payload, prompt)
	c.enter(log, stateRequestBuilt)

	c.enter(log, stateAwaitingResponse)
	envelope, err := c.transport.Send(ctx, c.endpoint(), req)
	if err != nil {
		return nil, err
	}

	result, err := gemini.ParseResponse(envelope)
	if err != nil {
		return nil, err
	}
	c.enter(log, stateInterpreted)
	return result, nil
}

func (c *classifier) enter(log *logrus.Entry, s state) {
	log.WithField("state", string(s)).Debug("classification state")
}

// ClassifyAll runs one independent Classify per reference, at most limit at
// a time. Items come back in the order of refs; a failure never cancels the
// others.
func (c *classifier) ClassifyAll(
	ctx context.Context,
	refs []image.Reference,
	prompt string,
	limit int,
) []BatchItem {
	if limit <= 0 {
		limit = DefaultBatchConcurrency
	}
	items := make([]BatchItem, len(refs))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, ref := range refs {
		g.Go(func() error {
			outcome, err := c.Classify(ctx, ref, prompt)
			items[i] = BatchItem{Reference: ref, Outcome: outcome, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return items
}
