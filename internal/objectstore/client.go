// Package objectstore reads the candidate index and per-candidate detail
// documents from an S3-compatible bucket (MinIO in the reference deployment).
package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"go.uber.org/zap"

	"github.com/gcbaptista/candidate-search/config"
	"github.com/gcbaptista/candidate-search/internal/errors"
	"github.com/gcbaptista/candidate-search/model"
)

// Client fetches candidate data from one bucket.
type Client struct {
	s3        *s3.Client
	bucket    string
	indexFile string
	logger    *zap.Logger
}

// NewClient builds a path-style S3 client for the configured endpoint.
// Requests are anonymous unless both access keys are set.
func NewClient(settings config.StorageSettings, logger *zap.Logger) (*Client, error) {
	settings.ApplyDefaults()
	if problems := settings.Validate(); len(problems) > 0 {
		return nil, errors.NewValidationError("storage", strings.Join(problems, "; "))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var creds aws.CredentialsProvider = aws.AnonymousCredentials{}
	if settings.HasCredentials() {
		creds = credentials.NewStaticCredentialsProvider(settings.AccessKeyID, settings.SecretAccessKey, "")
	}

	client := s3.New(s3.Options{
		Region:           settings.Region,
		BaseEndpoint:     aws.String(strings.TrimRight(settings.Endpoint, "/")),
		UsePathStyle:     true,
		Credentials:      creds,
		HTTPClient:       awshttp.NewBuildableClient().WithTimeout(settings.Timeout),
		RetryMaxAttempts: 1,
	})

	return &Client{
		s3:        client,
		bucket:    settings.Bucket,
		indexFile: settings.IndexFile,
		logger:    logger.Named("objectstore"),
	}, nil
}

// Describe names the corpus object as bucket/key.
func (c *Client) Describe() string {
	return c.bucket + "/" + c.indexFile
}

// FetchCandidates downloads and decodes the candidate index. The document
// must be a JSON array of candidate records.
func (c *Client) FetchCandidates(ctx context.Context) ([]model.Candidate, error) {
	source := c.Describe()

	body, err := c.getObject(ctx, c.indexFile)
	if err != nil {
		return nil, errors.NewCorpusUnavailableError(source, statusCode(err), err)
	}

	candidates, err := decodeCorpus(body)
	if err != nil {
		return nil, errors.NewInvalidCorpusError(source, err.Error())
	}

	c.logger.Debug("fetched candidate index",
		zap.String("source", source),
		zap.Int("candidates", len(candidates)),
		zap.Int("bytes", len(body)))
	return candidates, nil
}

// FetchCandidateDetails returns the raw detail document stored under fileName,
// for example "CANDIDATES/ANTI KALJUMÄE.json".
func (c *Client) FetchCandidateDetails(ctx context.Context, fileName string) (json.RawMessage, error) {
	key := strings.TrimPrefix(strings.TrimSpace(fileName), "/")
	if key == "" {
		return nil, errors.NewValidationError("file", "file name cannot be empty")
	}

	body, err := c.getObject(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NewCandidateFileNotFoundError(key)
		}
		return nil, errors.NewCorpusUnavailableError(c.bucket+"/"+key, statusCode(err), err)
	}
	if !json.Valid(body) {
		return nil, errors.NewInvalidCorpusError(c.bucket+"/"+key, "response data is not valid JSON")
	}
	return json.RawMessage(body), nil
}

func (c *Client) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, func(o *s3.Options) {
		o.APIOptions = append(o.APIOptions, smithyhttp.AddHeaderValue("Accept", "application/json"))
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := out.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close object body", zap.String("key", key), zap.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return body, nil
}

func decodeCorpus(body []byte) ([]model.Candidate, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("response data is not a valid array")
	}

	var candidates []model.Candidate
	if err := json.Unmarshal(trimmed, &candidates); err != nil {
		return nil, fmt.Errorf("response data is not a valid array: %w", err)
	}
	if candidates == nil {
		candidates = make([]model.Candidate, 0)
	}
	return candidates, nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if stderrors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
		return true
	}
	return statusCode(err) == http.StatusNotFound
}

// statusCode returns the HTTP status of a failed response, or 0 when the
// request never got one.
func statusCode(err error) int {
	var respErr *awshttp.ResponseError
	if stderrors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}
