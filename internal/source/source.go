// Package source opens flow log and lookup table inputs from the local
// filesystem or from S3, decompressing gzip objects on the fly.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/klauspost/compress/gzip"

	"github.com/itsjashshah/flowtag/internal/models"
)

const s3Scheme = "s3://"

// ObjectGetter is the subset of the S3 client used to stream objects.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Opener resolves input URIs. NewS3 is only called the first time an s3://
// URI is opened, so local runs never touch AWS configuration.
type Opener struct {
	NewS3 func(ctx context.Context) (ObjectGetter, error)

	s3 ObjectGetter
}

func NewOpener(newS3 func(ctx context.Context) (ObjectGetter, error)) *Opener {
	return &Opener{NewS3: newS3}
}

// Open returns a reader for uri. Missing inputs fail with
// models.ErrFileNotFound, every other failure with models.ErrFileRead.
func (o *Opener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	var (
		body io.ReadCloser
		err  error
	)
	if IsS3(uri) {
		body, err = o.openS3(ctx, uri)
	} else {
		body, err = openLocal(uri)
	}
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(strings.ToLower(uri), ".gz") {
		return body, nil
	}

	zr, err := gzip.NewReader(body)
	if err != nil {
		_ = body.Close()
		return nil, models.NewPathError("open", uri, models.ErrFileRead, err)
	}
	return &gzipReadCloser{Reader: zr, body: body}, nil
}

func IsS3(uri string) bool {
	return strings.HasPrefix(uri, s3Scheme)
}

// ParseS3URI splits s3://bucket/key into its parts.
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 URI %q: expected s3://bucket/key", uri)
	}
	return bucket, key, nil
}

func openLocal(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, models.NewPathError("open", path, models.ErrFileNotFound, nil)
		}
		return nil, models.NewPathError("open", path, models.ErrFileRead, err)
	}
	return f, nil
}

func (o *Opener) openS3(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, models.NewPathError("open", uri, models.ErrFileRead, err)
	}

	if o.s3 == nil {
		if o.NewS3 == nil {
			return nil, models.NewPathError("open", uri, models.ErrFileRead, errors.New("no S3 client configured"))
		}
		client, err := o.NewS3(ctx)
		if err != nil {
			return nil, models.NewPathError("open", uri, models.ErrFileRead, err)
		}
		o.s3 = client
	}

	out, err := o.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return nil, models.NewPathError("open", uri, models.ErrFileNotFound, nil)
		}
		return nil, models.NewPathError("open", uri, models.ErrFileRead, err)
	}
	return out.Body, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	body io.ReadCloser
}

func (g *gzipReadCloser) Close() error {
	zerr := g.Reader.Close()
	if err := g.body.Close(); err != nil {
		return err
	}
	return zerr
}
