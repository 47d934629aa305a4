package dependency_container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/NeuralTrust/checkimage/pkg/app/classify"
	"github.com/NeuralTrust/checkimage/pkg/app/events"
	"github.com/NeuralTrust/checkimage/pkg/config"
	"github.com/NeuralTrust/checkimage/pkg/domain/image"
	"github.com/NeuralTrust/checkimage/pkg/infra/acquirer/drive"
	"github.com/NeuralTrust/checkimage/pkg/infra/acquirer/fetch"
	"github.com/NeuralTrust/checkimage/pkg/infra/acquirer/filesystem"
	s3acquirer "github.com/NeuralTrust/checkimage/pkg/infra/acquirer/s3"
	"github.com/NeuralTrust/checkimage/pkg/infra/httpx"
	"github.com/NeuralTrust/checkimage/pkg/infra/metrics"
	"github.com/NeuralTrust/checkimage/pkg/infra/providers/gemini"
	"github.com/NeuralTrust/checkimage/pkg/infra/transport"
	"github.com/NeuralTrust/checkimage/pkg/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"google.golang.org/api/option"
)

type Container struct {
	Host       string
	HTTPClient httpx.Client
	Acquirer   image.Acquirer
	Transport  transport.Transport
	Events     *events.Lookup
	Metrics    *metrics.PromRecorder
	Classifier classify.Classifier
}

// ContainerDI carries what the container needs from main. The optional
// clients replace the ones built from config, mostly for tests.
type ContainerDI struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	Fs     afero.Fs

	HTTPClient httpx.Client
	DriveStore drive.Store
	S3Client   s3acquirer.ObjectGetter
}

// NewContainer selects the acquisition strategy for the configured host once
// and wires the classifier around it.
func NewContainer(ctx context.Context, di ContainerDI) (*Container, error) {
	if di.Cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := di.Cfg
	if di.Fs == nil {
		di.Fs = afero.NewOsFs()
	}

	httpClient := di.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(cfg.Transport)
	}

	var tr transport.Transport
	switch cfg.Transport.Mode {
	case config.TransportModeSDK:
		tr = gemini.NewSDKTransport()
	default:
		tr = transport.NewHTTPTransport(httpClient)
	}

	acquirer, eventsSource, err := newAcquirer(ctx, di, httpClient)
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder()

	classifier := classify.NewClassifier(di.Logger, acquirer, tr, recorder, classify.Settings{
		BaseURL:    cfg.Endpoint.BaseURL,
		APIVersion: cfg.Endpoint.APIVersion,
		Model:      cfg.Model,
		APIKey:     cfg.APIKey,
	})

	return &Container{
		Host:       cfg.Host,
		HTTPClient: httpClient,
		Acquirer:   acquirer,
		Transport:  tr,
		Events:     events.NewLookup(di.Logger, eventsSource),
		Metrics:    recorder,
		Classifier: classifier,
	}, nil
}

func newHTTPClient(cfg config.TransportConfig) httpx.Client {
	if cfg.Client == config.ClientFastHTTP {
		opts := []httpx.FastHTTPClientOption{httpx.WithUserAgent(version.UserAgent())}
		if cfg.Timeout > 0 {
			opts = append(opts, httpx.WithTimeout(cfg.Timeout))
		}
		return httpx.NewFastHTTPClient(opts...)
	}
	return &http.Client{Timeout: cfg.Timeout}
}

func newAcquirer(
	ctx context.Context,
	di ContainerDI,
	httpClient httpx.Client,
) (image.Acquirer, events.Source, error) {
	cfg := di.Cfg
	switch cfg.Host {
	case config.HostFilesystem:
		return filesystem.NewAcquirer(di.Fs), events.NewFileSource(di.Fs, cfg.Events.File), nil

	case config.HostStorage:
		if cfg.Storage.Backend == config.StorageS3 {
			client := di.S3Client
			if client == nil {
				s3Client, err := s3acquirer.NewClient(ctx, cfg.Storage.S3.Region)
				if err != nil {
					return nil, nil, err
				}
				client = s3Client
			}
			return s3acquirer.NewAcquirer(client, cfg.Storage.S3.Bucket), events.NewFileSource(di.Fs, cfg.Events.File), nil
		}
		store := di.DriveStore
		if store == nil {
			s, err := drive.NewStore(ctx, driveOptions(cfg.Storage.Drive)...)
			if err != nil {
				return nil, nil, err
			}
			store = s
		}
		return drive.NewAcquirer(store), events.NewDriveSource(store, cfg.Events.File), nil

	case config.HostFetch:
		// no readable events file from a fetch host
		return fetch.NewAcquirer(httpClient), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown host %q", cfg.Host)
}

func driveOptions(cfg config.DriveConfig) []option.ClientOption {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	return opts
}

// Reference turns a command line argument into a reference of the kind the
// host's acquirer reads.
func (c *Container) Reference(value string) image.Reference {
	switch c.Host {
	case config.HostStorage:
		return image.Storage(value)
	case config.HostFetch:
		return image.URL(value)
	default:
		return image.Path(value)
	}
}
