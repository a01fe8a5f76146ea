package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/defaults"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// maxDeleteKeys is the most keys one DeleteObjects request accepts.
const maxDeleteKeys = 1000

// S3Storage implements the Storage interface for interacting with AWS S3.
type S3Storage struct {
	Config Config
	client s3iface.S3API
}

// NewS3Storage creates a new S3Storage with a new aws.Session.
func NewS3Storage(config Config) *S3Storage {
	return NewS3StorageWithClient(config, s3.New(newAWSSession(config)))
}

// NewS3StorageWithClient returns a new S3Storage using client for every request.
func NewS3StorageWithClient(config Config, client s3iface.S3API) *S3Storage {
	return &S3Storage{
		Config: config,
		client: client,
	}
}

// Write writes the data to the key in the S3 Bucket, with Options applied.
func (s *S3Storage) Write(ctx context.Context, key string, body []byte, options *Options) error {
	poi := &s3.PutObjectInput{
		Bucket: aws.String(s.Config.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}

	if options != nil && options.TTL > 0 {
		poi.Expires = aws.Time(time.Now().Add(time.Duration(options.TTL) * time.Second))
	}

	if _, err := s.client.PutObjectWithContext(ctx, poi); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}

	return nil
}

// Read will read the data from the S3 Bucket.
func (s *S3Storage) Read(ctx context.Context, key string) ([]byte, error) {
	document, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "read %s", key)
	}
	defer document.Body.Close()

	b, err := io.ReadAll(document.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read body %s", key)
	}

	return b, nil
}

// Remove removes the object stored at key, in the S3 Bucket.
func (s *S3Storage) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNoSuchKey(err) {
		return errors.Wrapf(err, "delete %s", key)
	}

	return nil
}

// List returns the keys directly under path.
func (s *S3Storage) List(ctx context.Context, path string) ([]string, error) {
	keys, err := s.findKeys(ctx, path, false)
	if err != nil {
		return nil, err
	}

	return childKeys(keys, path), nil
}

// Search reads the objects directly under query["path"], in key order.
func (s *S3Storage) Search(ctx context.Context, query map[string]string) ([][]byte, error) {
	keys, err := s.List(ctx, query["path"])
	if err != nil {
		return nil, err
	}

	result := make([][]byte, 0, len(keys))
	for _, key := range keys {
		b, err := s.Read(ctx, key)
		if err == ErrNotFound {
			continue // removed since listing
		}
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}

	return result, nil
}

// Clear removes every object under query["path"], at any depth.
func (s *S3Storage) Clear(ctx context.Context, query map[string]string) error {
	keys, err := s.findKeys(ctx, query["path"], true)
	if err != nil {
		return err
	}

	for _, batch := range deleteBatches(keys, maxDeleteKeys) {
		objects := make([]*s3.ObjectIdentifier, len(batch))
		for i, k := range batch {
			objects[i] = &s3.ObjectIdentifier{Key: aws.String(k)}
		}

		out, err := s.client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.Config.Bucket),
			Delete: &s3.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return errors.Wrap(err, "delete objects")
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("Failed to delete %d objects, first %s : %s", len(out.Errors),
				aws.StringValue(first.Key), aws.StringValue(first.Message))
		}
	}

	return nil
}

// findKeys lists the keys under path, only direct children unless recursive.
func (s *S3Storage) findKeys(ctx context.Context, path string, recursive bool) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Config.Bucket),
		Prefix: aws.String(dirPrefix(path)),
	}
	if !recursive {
		input.Delimiter = aws.String("/")
	}

	var keys []string
	err := s.client.ListObjectsV2PagesWithContext(ctx, input,
		func(out *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, o := range out.Contents {
				keys = append(keys, aws.StringValue(o.Key))
			}
			return true
		})
	if err != nil {
		return nil, errors.Wrap(err, "list objects")
	}

	sort.Strings(keys)
	return keys, nil
}

// deleteBatches splits keys into slices of at most size keys.
func deleteBatches(keys []string, size int) [][]string {
	var result [][]string
	for len(keys) > size {
		result = append(result, keys[:size])
		keys = keys[size:]
	}
	if len(keys) > 0 {
		result = append(result, keys)
	}
	return result
}

func isNoSuchKey(err error) bool {
	aerr, ok := err.(awserr.Error)
	if !ok {
		return false
	}
	return aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound"
}

// newAwsSession creates a new AWS Session from the credentials in the
// Config.
func newAWSSession(config Config) *session.Session {
	// Get the default cred chain
	awsDefaults := defaults.Get()
	defaultCredProviders := defaults.CredProviders(awsDefaults.Config, awsDefaults.Handlers)

	// Static creds first, then the defaults
	staticCreds := &credentials.StaticProvider{Value: credentials.Value{
		AccessKeyID:     config.AccessKey,
		SecretAccessKey: config.Secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
	}}
	creds := credentials.NewChainCredentials(
		append([]credentials.Provider{staticCreds}, defaultCredProviders...))

	awsConfig := aws.NewConfig().
		WithCredentials(creds).
		WithMaxRetries(config.MaxRetries)

	if len(config.Region) > 0 {
		awsConfig = awsConfig.WithRegion(config.Region)
	}

	return session.New(awsConfig)
}
