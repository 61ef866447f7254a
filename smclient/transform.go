package smclient

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
)

// TransformConfig describes a batch transform job over an existing model.
type TransformConfig struct {
	JobName     string
	BaseJobName string
	ModelName   string

	InputS3URI      string
	ContentType     string
	CompressionType string
	SplitType       string

	OutputS3URI  string
	Accept       string
	AssembleWith string

	InstanceType  string
	InstanceCount int32

	MaxConcurrentTransforms int32
	MaxPayloadMB            int32
	BatchStrategy           string

	Environment map[string]string
	Tags        map[string]string
}

func (cfg *TransformConfig) validate() error {
	if cfg.ModelName == "" {
		return fmt.Errorf("%w: model name is required", ErrInvalidConfig)
	}
	if cfg.InputS3URI == "" {
		return fmt.Errorf("%w: input S3 URI is required", ErrInvalidConfig)
	}
	if cfg.OutputS3URI == "" {
		return fmt.Errorf("%w: output S3 URI is required", ErrInvalidConfig)
	}
	return nil
}

func (cfg *TransformConfig) request(name string) *sagemaker.CreateTransformJobInput {
	count := cfg.InstanceCount
	if count == 0 {
		count = 1
	}
	in := &sagemaker.CreateTransformJobInput{
		TransformJobName: aws.String(name),
		ModelName:        aws.String(cfg.ModelName),
		TransformInput: &types.TransformInput{
			DataSource: &types.TransformDataSource{
				S3DataSource: &types.TransformS3DataSource{
					S3DataType: types.S3DataTypeS3Prefix,
					S3Uri:      aws.String(cfg.InputS3URI),
				},
			},
		},
		TransformOutput: &types.TransformOutput{
			S3OutputPath: aws.String(cfg.OutputS3URI),
		},
		TransformResources: &types.TransformResources{
			InstanceType:  types.TransformInstanceType(cfg.InstanceType),
			InstanceCount: aws.Int32(count),
		},
		Environment: cfg.Environment,
		Tags:        tagFragments(cfg.Tags),
	}
	if cfg.ContentType != "" {
		in.TransformInput.ContentType = aws.String(cfg.ContentType)
	}
	if cfg.CompressionType != "" {
		in.TransformInput.CompressionType = types.CompressionType(cfg.CompressionType)
	}
	if cfg.SplitType != "" {
		in.TransformInput.SplitType = types.SplitType(cfg.SplitType)
	}
	if cfg.Accept != "" {
		in.TransformOutput.Accept = aws.String(cfg.Accept)
	}
	if cfg.AssembleWith != "" {
		in.TransformOutput.AssembleWith = types.AssemblyType(cfg.AssembleWith)
	}
	if cfg.BatchStrategy != "" {
		in.BatchStrategy = types.BatchStrategy(cfg.BatchStrategy)
	}
	if cfg.MaxConcurrentTransforms > 0 {
		in.MaxConcurrentTransforms = aws.Int32(cfg.MaxConcurrentTransforms)
	}
	if cfg.MaxPayloadMB > 0 {
		in.MaxPayloadInMB = aws.Int32(cfg.MaxPayloadMB)
	}
	return in
}

// CreateTransformJob submits a batch transform job and returns its name.
func (c *Client) CreateTransformJob(ctx context.Context, cfg TransformConfig) (string, error) {
	if err := cfg.validate(); err != nil {
		return "", err
	}
	name := resolveJobName(cfg.JobName, cfg.BaseJobName, cfg.ModelName)
	if _, err := c.api.CreateTransformJob(ctx, cfg.request(name)); err != nil {
		return "", fmt.Errorf("create transform job %q: %w", name, err)
	}
	return name, nil
}

// Transform submits a transform job, optionally streaming logs to completion.
func (c *Client) Transform(ctx context.Context, cfg TransformConfig, wait bool, pollInterval time.Duration) (*JobDescription, error) {
	name, err := c.CreateTransformJob(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !wait {
		return &JobDescription{Name: name, Kind: KindTransform}, nil
	}
	return c.StreamLogs(ctx, name, KindTransform, true, pollInterval)
}

// StopTransformJob requests a stop of a running transform job.
func (c *Client) StopTransformJob(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	_, err := c.api.StopTransformJob(ctx, &sagemaker.StopTransformJobInput{
		TransformJobName: aws.String(name),
	})
	if err != nil {
		if isAlreadyStopped(err) {
			c.logger.Printf("transform job %q is already stopped", name)
			return nil
		}
		return fmt.Errorf("stop transform job %q: %w", name, err)
	}
	return nil
}
