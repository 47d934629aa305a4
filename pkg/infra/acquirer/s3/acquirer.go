package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/NeuralTrust/checkimage/pkg/domain/classification"
	"github.com/NeuralTrust/checkimage/pkg/domain/image"
	"github.com/NeuralTrust/checkimage/pkg/infra/acquirer"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const fallbackMimeType = "application/octet-stream"

//go:generate mockery --name=ObjectGetter --dir=. --output=../../../../mocks --filename=s3_object_getter_mock.go --case=underscore --with-expecter

// ObjectGetter is satisfied by *s3.Client.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3Acquirer struct {
	client ObjectGetter
	bucket string
}

func NewAcquirer(client ObjectGetter, bucket string) image.Acquirer {
	return &s3Acquirer{client: client, bucket: bucket}
}

// NewClient builds an S3 client from the default AWS credential chain.
func NewClient(ctx context.Context, region string) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Acquire reads the object whose key is the reference value.
func (a *s3Acquirer) Acquire(ctx context.Context, ref image.Reference) (*image.Payload, error) {
	if err := acquirer.CheckKind(ref, image.KindStorage); err != nil {
		return nil, err
	}

	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(ref.Value),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			return nil, acquirer.NotFound(fmt.Sprintf("object %q not found in bucket %q", ref.Value, a.bucket))
		}
		return nil, classification.NewAcquisitionError(fmt.Sprintf("failed to get object %q", ref.Value), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, classification.NewAcquisitionError(fmt.Sprintf("failed to read object %q", ref.Value), err)
	}

	mimeType := aws.ToString(out.ContentType)
	if mimeType == "" {
		mimeType = fallbackMimeType
	}
	return image.NewPayload(data, mimeType), nil
}
