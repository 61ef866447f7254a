package smclient

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
)

// ProcessingInputConfig maps an S3 prefix into the processing container.
type ProcessingInputConfig struct {
	Name      string
	S3URI     string
	LocalPath string
}

// ProcessingOutputConfig maps a container path back out to S3.
type ProcessingOutputConfig struct {
	Name      string
	S3URI     string
	LocalPath string
}

// ProcessingConfig describes a processing job.
type ProcessingConfig struct {
	JobName     string
	BaseJobName string
	RoleARN     string

	Image      string
	Entrypoint []string
	Arguments  []string

	Inputs  []ProcessingInputConfig
	Outputs []ProcessingOutputConfig

	InstanceType  string
	InstanceCount int32
	VolumeSizeGB  int32
	MaxRuntime    time.Duration

	Environment map[string]string
	Tags        map[string]string
}

func (cfg *ProcessingConfig) validate() error {
	if cfg.RoleARN == "" {
		return fmt.Errorf("%w: role ARN is required", ErrInvalidConfig)
	}
	if cfg.Image == "" {
		return fmt.Errorf("%w: processing image is required", ErrInvalidConfig)
	}
	return nil
}

func (cfg *ProcessingConfig) request(name string) *sagemaker.CreateProcessingJobInput {
	count := cfg.InstanceCount
	if count == 0 {
		count = 1
	}
	volume := cfg.VolumeSizeGB
	if volume == 0 {
		volume = 30
	}
	in := &sagemaker.CreateProcessingJobInput{
		ProcessingJobName: aws.String(name),
		RoleArn:           aws.String(cfg.RoleARN),
		AppSpecification: &types.AppSpecification{
			ImageUri:            aws.String(cfg.Image),
			ContainerEntrypoint: cfg.Entrypoint,
			ContainerArguments:  cfg.Arguments,
		},
		ProcessingResources: &types.ProcessingResources{
			ClusterConfig: &types.ProcessingClusterConfig{
				InstanceType:   types.ProcessingInstanceType(cfg.InstanceType),
				InstanceCount:  aws.Int32(count),
				VolumeSizeInGB: aws.Int32(volume),
			},
		},
		Environment: cfg.Environment,
		Tags:        tagFragments(cfg.Tags),
	}
	if cfg.MaxRuntime > 0 {
		in.StoppingCondition = &types.ProcessingStoppingCondition{
			MaxRuntimeInSeconds: aws.Int32(int32(cfg.MaxRuntime / time.Second)),
		}
	}
	for _, pi := range cfg.Inputs {
		localPath := pi.LocalPath
		if localPath == "" {
			localPath = "/opt/ml/processing/input"
		}
		in.ProcessingInputs = append(in.ProcessingInputs, types.ProcessingInput{
			InputName: aws.String(pi.Name),
			S3Input: &types.ProcessingS3Input{
				S3Uri:       aws.String(pi.S3URI),
				LocalPath:   aws.String(localPath),
				S3DataType:  types.ProcessingS3DataTypeS3Prefix,
				S3InputMode: types.ProcessingS3InputModeFile,
			},
		})
	}
	if len(cfg.Outputs) > 0 {
		outCfg := &types.ProcessingOutputConfig{}
		for _, po := range cfg.Outputs {
			localPath := po.LocalPath
			if localPath == "" {
				localPath = "/opt/ml/processing/output"
			}
			outCfg.Outputs = append(outCfg.Outputs, types.ProcessingOutput{
				OutputName: aws.String(po.Name),
				S3Output: &types.ProcessingS3Output{
					S3Uri:        aws.String(po.S3URI),
					LocalPath:    aws.String(localPath),
					S3UploadMode: types.ProcessingS3UploadModeEndOfJob,
				},
			})
		}
		in.ProcessingOutputConfig = outCfg
	}
	return in
}

// CreateProcessingJob submits a processing job and returns its name.
func (c *Client) CreateProcessingJob(ctx context.Context, cfg ProcessingConfig) (string, error) {
	if err := cfg.validate(); err != nil {
		return "", err
	}
	name := resolveJobName(cfg.JobName, cfg.BaseJobName, "processing-job")
	if _, err := c.api.CreateProcessingJob(ctx, cfg.request(name)); err != nil {
		return "", fmt.Errorf("create processing job %q: %w", name, err)
	}
	return name, nil
}

// Process submits a processing job, optionally streaming logs to completion.
func (c *Client) Process(ctx context.Context, cfg ProcessingConfig, wait bool, pollInterval time.Duration) (*JobDescription, error) {
	name, err := c.CreateProcessingJob(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !wait {
		return &JobDescription{Name: name, Kind: KindProcessing}, nil
	}
	return c.StreamLogs(ctx, name, KindProcessing, true, pollInterval)
}

// StopProcessingJob requests a stop of a running processing job.
func (c *Client) StopProcessingJob(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	_, err := c.api.StopProcessingJob(ctx, &sagemaker.StopProcessingJobInput{
		ProcessingJobName: aws.String(name),
	})
	if err != nil {
		if isAlreadyStopped(err) {
			c.logger.Printf("processing job %q is already stopped", name)
			return nil
		}
		return fmt.Errorf("stop processing job %q: %w", name, err)
	}
	return nil
}
