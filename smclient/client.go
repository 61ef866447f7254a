// Package smclient maps high-level ML platform workflows (training, tuning,
// transform, model/endpoint management, feature groups, S3 data movement)
// onto the SageMaker control plane through the AWS SDK.
package smclient

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/google/uuid"
)

// Client issues control-plane calls for one account/region. All network
// calls are blocking; long-running waits are explicit loops bounded only by
// the caller's context.
type Client struct {
	api    ControlPlaneAPI
	logs   LogsAPI
	blob   BlobAPI
	logger *log.Logger
	logOut io.Writer
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger routes progress and warning lines to the given logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithLogOutput sets the sink for remote job log lines streamed by StreamLogs.
func WithLogOutput(w io.Writer) Option {
	return func(c *Client) { c.logOut = w }
}

// New builds a Client from a resolved AWS config.
func New(cfg aws.Config, opts ...Option) *Client {
	return NewFromAPI(
		sagemaker.NewFromConfig(cfg),
		cloudwatchlogs.NewFromConfig(cfg),
		s3.NewFromConfig(cfg),
		opts...,
	)
}

// NewFromAPI builds a Client over explicit API implementations. Tests use it
// to substitute recording fakes.
func NewFromAPI(api ControlPlaneAPI, logs LogsAPI, blob BlobAPI, opts ...Option) *Client {
	c := &Client{
		api:    api,
		logs:   logs,
		blob:   blob,
		logger: log.Default(),
		logOut: os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// uniqueName derives a job name from a base, keeping within the 63-character
// limit the service enforces on job names.
func uniqueName(base string) string {
	if base == "" {
		base = "job"
	}
	suffix := fmt.Sprintf("%s-%s", time.Now().UTC().Format("2006-01-02-15-04-05"), uuid.NewString()[:8])
	if max := 63 - len(suffix) - 1; len(base) > max {
		base = base[:max]
	}
	return base + "-" + suffix
}

func resolveJobName(explicit, base, fallback string) string {
	if explicit != "" {
		return explicit
	}
	if base == "" {
		base = fallback
	}
	return uniqueName(base)
}

// sleepContext waits for d or until ctx is done. A zero duration returns
// immediately so tests can poll without real waiting.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidConfig)
	}
	return nil
}
