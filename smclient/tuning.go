package smclient

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
)

// ParameterRange declares one tunable hyperparameter.
type ParameterRange struct {
	Name string
	// Kind is "continuous", "integer", or "categorical".
	Kind     string
	MinValue string
	MaxValue string
	Values   []string
}

// TuningObjective names the metric the tuner optimizes.
type TuningObjective struct {
	// Type is "Maximize" or "Minimize".
	Type       string
	MetricName string
}

// TuningConfig describes a hyperparameter tuning job. Exactly one of
// TrainingDefinition and TrainingDefinitions must be supplied.
type TuningConfig struct {
	JobName     string
	BaseJobName string

	Strategy  string
	Objective TuningObjective

	MaxJobs         int32
	MaxParallelJobs int32

	Ranges []ParameterRange

	TrainingDefinition  *TrainingConfig
	TrainingDefinitions []TrainingConfig

	Tags map[string]string
}

func (cfg *TuningConfig) validate() error {
	single := cfg.TrainingDefinition != nil
	multi := len(cfg.TrainingDefinitions) > 0
	if single == multi {
		return fmt.Errorf("%w: exactly one of a single training definition or a training definition list must be supplied", ErrInvalidConfig)
	}
	if cfg.Objective.MetricName == "" {
		return fmt.Errorf("%w: objective metric name is required", ErrInvalidConfig)
	}
	if single {
		if err := cfg.TrainingDefinition.validate(); err != nil {
			return err
		}
	}
	for i := range cfg.TrainingDefinitions {
		if err := cfg.TrainingDefinitions[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

func rangeFragments(ranges []ParameterRange) *types.ParameterRanges {
	if len(ranges) == 0 {
		return nil
	}
	out := &types.ParameterRanges{}
	for _, r := range ranges {
		switch r.Kind {
		case "integer":
			out.IntegerParameterRanges = append(out.IntegerParameterRanges, types.IntegerParameterRange{
				Name:     aws.String(r.Name),
				MinValue: aws.String(r.MinValue),
				MaxValue: aws.String(r.MaxValue),
			})
		case "categorical":
			out.CategoricalParameterRanges = append(out.CategoricalParameterRanges, types.CategoricalParameterRange{
				Name:   aws.String(r.Name),
				Values: r.Values,
			})
		default:
			out.ContinuousParameterRanges = append(out.ContinuousParameterRanges, types.ContinuousParameterRange{
				Name:     aws.String(r.Name),
				MinValue: aws.String(r.MinValue),
				MaxValue: aws.String(r.MaxValue),
			})
		}
	}
	return out
}

func trainingDefinitionFragment(tc *TrainingConfig, ranges []ParameterRange, defName string) types.HyperParameterTrainingJobDefinition {
	inputMode := tc.InputMode
	if inputMode == "" {
		inputMode = "File"
	}
	count := tc.InstanceCount
	if count == 0 {
		count = 1
	}
	volume := tc.VolumeSizeGB
	if volume == 0 {
		volume = 30
	}
	def := types.HyperParameterTrainingJobDefinition{
		RoleArn: aws.String(tc.RoleARN),
		AlgorithmSpecification: &types.HyperParameterAlgorithmSpecification{
			TrainingImage:     aws.String(tc.Image),
			TrainingInputMode: types.TrainingInputMode(inputMode),
		},
		InputDataConfig: channelFragments(tc.Channels),
		OutputDataConfig: &types.OutputDataConfig{
			S3OutputPath: aws.String(tc.OutputPath),
		},
		ResourceConfig: &types.ResourceConfig{
			InstanceType:   types.TrainingInstanceType(tc.InstanceType),
			InstanceCount:  aws.Int32(count),
			VolumeSizeInGB: aws.Int32(volume),
		},
		StoppingCondition:     stoppingFragment(tc.MaxRuntime),
		StaticHyperParameters: tc.Hyperparameters,
		VpcConfig:             vpcFragment(tc.VPC),
		HyperParameterRanges:  rangeFragments(ranges),
	}
	if defName != "" {
		def.DefinitionName = aws.String(defName)
	}
	return def
}

func (cfg *TuningConfig) request(name string) *sagemaker.CreateHyperParameterTuningJobInput {
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = "Bayesian"
	}
	maxJobs := cfg.MaxJobs
	if maxJobs == 0 {
		maxJobs = 1
	}
	maxParallel := cfg.MaxParallelJobs
	if maxParallel == 0 {
		maxParallel = 1
	}
	in := &sagemaker.CreateHyperParameterTuningJobInput{
		HyperParameterTuningJobName: aws.String(name),
		HyperParameterTuningJobConfig: &types.HyperParameterTuningJobConfig{
			Strategy: types.HyperParameterTuningJobStrategyType(strategy),
			HyperParameterTuningJobObjective: &types.HyperParameterTuningJobObjective{
				Type:       types.HyperParameterTuningJobObjectiveType(cfg.Objective.Type),
				MetricName: aws.String(cfg.Objective.MetricName),
			},
			ResourceLimits: &types.ResourceLimits{
				MaxNumberOfTrainingJobs: aws.Int32(maxJobs),
				MaxParallelTrainingJobs: aws.Int32(maxParallel),
			},
			ParameterRanges: rangeFragments(cfg.Ranges),
		},
		Tags: tagFragments(cfg.Tags),
	}
	if cfg.TrainingDefinition != nil {
		def := trainingDefinitionFragment(cfg.TrainingDefinition, nil, "")
		// Ranges live on the tuning config when there is a single
		// definition, mirroring the service's request shape.
		def.HyperParameterRanges = nil
		in.TrainingJobDefinition = &def
	}
	for i := range cfg.TrainingDefinitions {
		tc := &cfg.TrainingDefinitions[i]
		defName := fmt.Sprintf("definition-%d", i)
		in.TrainingJobDefinitions = append(in.TrainingJobDefinitions,
			trainingDefinitionFragment(tc, cfg.Ranges, defName))
	}
	return in
}

// CreateTuningJob submits a hyperparameter tuning job and returns its name.
// Both a single training definition and a definition list is a local
// validation error; no network call is made.
func (c *Client) CreateTuningJob(ctx context.Context, cfg TuningConfig) (string, error) {
	if err := cfg.validate(); err != nil {
		return "", err
	}
	name := resolveJobName(cfg.JobName, cfg.BaseJobName, "tuning-job")
	if _, err := c.api.CreateHyperParameterTuningJob(ctx, cfg.request(name)); err != nil {
		return "", fmt.Errorf("create tuning job %q: %w", name, err)
	}
	return name, nil
}

// Tune submits a tuning job, optionally waiting for a terminal status.
func (c *Client) Tune(ctx context.Context, cfg TuningConfig, wait bool, pollInterval time.Duration) (*JobDescription, error) {
	name, err := c.CreateTuningJob(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !wait {
		return &JobDescription{Name: name, Kind: KindTuning}, nil
	}
	return c.WaitForJob(ctx, name, KindTuning, pollInterval)
}

// StopTuningJob requests a stop. A job that already stopped degrades to a
// warning rather than an error.
func (c *Client) StopTuningJob(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	_, err := c.api.StopHyperParameterTuningJob(ctx, &sagemaker.StopHyperParameterTuningJobInput{
		HyperParameterTuningJobName: aws.String(name),
	})
	if err != nil {
		if isAlreadyStopped(err) {
			c.logger.Printf("tuning job %q is already stopped", name)
			return nil
		}
		return fmt.Errorf("stop tuning job %q: %w", name, err)
	}
	return nil
}
