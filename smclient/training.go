package smclient

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
)

// TrainingConfig collects everything needed to submit a training job. JobName
// wins over BaseJobName; with neither set a name is generated.
type TrainingConfig struct {
	JobName     string
	BaseJobName string
	RoleARN     string

	Image     string
	InputMode string

	Hyperparameters map[string]string
	Channels        []DataChannel
	OutputPath      string

	InstanceType  string
	InstanceCount int32
	VolumeSizeGB  int32
	MaxRuntime    time.Duration

	VPC                    *VPCConfig
	Environment            map[string]string
	Tags                   map[string]string
	EnableNetworkIsolation bool
}

func (cfg *TrainingConfig) validate() error {
	if cfg.RoleARN == "" {
		return fmt.Errorf("%w: role ARN is required", ErrInvalidConfig)
	}
	if cfg.Image == "" {
		return fmt.Errorf("%w: training image is required", ErrInvalidConfig)
	}
	if cfg.OutputPath == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalidConfig)
	}
	return nil
}

func (cfg *TrainingConfig) request(name string) *sagemaker.CreateTrainingJobInput {
	inputMode := cfg.InputMode
	if inputMode == "" {
		inputMode = "File"
	}
	count := cfg.InstanceCount
	if count == 0 {
		count = 1
	}
	volume := cfg.VolumeSizeGB
	if volume == 0 {
		volume = 30
	}
	in := &sagemaker.CreateTrainingJobInput{
		TrainingJobName: aws.String(name),
		RoleArn:         aws.String(cfg.RoleARN),
		AlgorithmSpecification: &types.AlgorithmSpecification{
			TrainingImage:     aws.String(cfg.Image),
			TrainingInputMode: types.TrainingInputMode(inputMode),
		},
		OutputDataConfig: &types.OutputDataConfig{
			S3OutputPath: aws.String(cfg.OutputPath),
		},
		ResourceConfig: &types.ResourceConfig{
			InstanceType:   types.TrainingInstanceType(cfg.InstanceType),
			InstanceCount:  aws.Int32(count),
			VolumeSizeInGB: aws.Int32(volume),
		},
		StoppingCondition: stoppingFragment(cfg.MaxRuntime),
		HyperParameters:   cfg.Hyperparameters,
		Environment:       cfg.Environment,
		InputDataConfig:   channelFragments(cfg.Channels),
		VpcConfig:         vpcFragment(cfg.VPC),
		Tags:              tagFragments(cfg.Tags),
	}
	if cfg.EnableNetworkIsolation {
		in.EnableNetworkIsolation = aws.Bool(true)
	}
	return in
}

// CreateTrainingJob submits a training job and returns its name.
func (c *Client) CreateTrainingJob(ctx context.Context, cfg TrainingConfig) (string, error) {
	if err := cfg.validate(); err != nil {
		return "", err
	}
	name := resolveJobName(cfg.JobName, cfg.BaseJobName, "training-job")
	if _, err := c.api.CreateTrainingJob(ctx, cfg.request(name)); err != nil {
		return "", fmt.Errorf("create training job %q: %w", name, err)
	}
	return name, nil
}

// Train submits a training job and, when wait is set, streams its logs until
// it reaches a terminal state. It returns the final description when waiting,
// or a name-only description otherwise.
func (c *Client) Train(ctx context.Context, cfg TrainingConfig, wait bool, pollInterval time.Duration) (*JobDescription, error) {
	name, err := c.CreateTrainingJob(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !wait {
		return &JobDescription{Name: name, Kind: KindTraining}, nil
	}
	return c.StreamLogs(ctx, name, KindTraining, true, pollInterval)
}

// StopTrainingJob requests a stop. Stopping an already finished job degrades
// to a warning rather than an error.
func (c *Client) StopTrainingJob(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	_, err := c.api.StopTrainingJob(ctx, &sagemaker.StopTrainingJobInput{
		TrainingJobName: aws.String(name),
	})
	if err != nil {
		if isAlreadyStopped(err) {
			c.logger.Printf("training job %q is already stopped", name)
			return nil
		}
		return fmt.Errorf("stop training job %q: %w", name, err)
	}
	return nil
}
