package smclient

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
)

// AutoMLConfig describes an auto-ML job over a tabular S3 dataset.
type AutoMLConfig struct {
	JobName     string
	BaseJobName string
	RoleARN     string

	InputS3URI      string
	TargetAttribute string
	OutputS3URI     string

	ProblemType     string
	ObjectiveMetric string

	Tags map[string]string
}

func (cfg *AutoMLConfig) validate() error {
	if cfg.RoleARN == "" {
		return fmt.Errorf("%w: role ARN is required", ErrInvalidConfig)
	}
	if cfg.InputS3URI == "" {
		return fmt.Errorf("%w: input S3 URI is required", ErrInvalidConfig)
	}
	if cfg.TargetAttribute == "" {
		return fmt.Errorf("%w: target attribute name is required", ErrInvalidConfig)
	}
	if cfg.OutputS3URI == "" {
		return fmt.Errorf("%w: output S3 URI is required", ErrInvalidConfig)
	}
	return nil
}

// CreateAutoMLJob submits an auto-ML job and returns its name.
func (c *Client) CreateAutoMLJob(ctx context.Context, cfg AutoMLConfig) (string, error) {
	if err := cfg.validate(); err != nil {
		return "", err
	}
	name := resolveJobName(cfg.JobName, cfg.BaseJobName, "automl-job")
	in := &sagemaker.CreateAutoMLJobInput{
		AutoMLJobName: aws.String(name),
		RoleArn:       aws.String(cfg.RoleARN),
		InputDataConfig: []types.AutoMLChannel{{
			DataSource: &types.AutoMLDataSource{
				S3DataSource: &types.AutoMLS3DataSource{
					S3DataType: types.AutoMLS3DataTypeS3Prefix,
					S3Uri:      aws.String(cfg.InputS3URI),
				},
			},
			TargetAttributeName: aws.String(cfg.TargetAttribute),
		}},
		OutputDataConfig: &types.AutoMLOutputDataConfig{
			S3OutputPath: aws.String(cfg.OutputS3URI),
		},
		Tags: tagFragments(cfg.Tags),
	}
	if cfg.ProblemType != "" {
		in.ProblemType = types.ProblemType(cfg.ProblemType)
	}
	if cfg.ObjectiveMetric != "" {
		in.AutoMLJobObjective = &types.AutoMLJobObjective{
			MetricName: types.AutoMLMetricEnum(cfg.ObjectiveMetric),
		}
	}
	if _, err := c.api.CreateAutoMLJob(ctx, in); err != nil {
		return "", fmt.Errorf("create auto-ml job %q: %w", name, err)
	}
	return name, nil
}

// RunAutoML submits an auto-ML job, optionally waiting for a terminal status.
func (c *Client) RunAutoML(ctx context.Context, cfg AutoMLConfig, wait bool, pollInterval time.Duration) (*JobDescription, error) {
	name, err := c.CreateAutoMLJob(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !wait {
		return &JobDescription{Name: name, Kind: KindAutoML}, nil
	}
	return c.WaitForJob(ctx, name, KindAutoML, pollInterval)
}

// StopAutoMLJob requests a stop of a running auto-ML job.
func (c *Client) StopAutoMLJob(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	_, err := c.api.StopAutoMLJob(ctx, &sagemaker.StopAutoMLJobInput{
		AutoMLJobName: aws.String(name),
	})
	if err != nil {
		if isAlreadyStopped(err) {
			c.logger.Printf("auto-ml job %q is already stopped", name)
			return nil
		}
		return fmt.Errorf("stop auto-ml job %q: %w", name, err)
	}
	return nil
}
