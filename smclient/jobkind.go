package smclient

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
)

// JobKind tags the category of an asynchronous remote workload.
type JobKind string

const (
	KindTraining   JobKind = "training"
	KindTransform  JobKind = "transform"
	KindTuning     JobKind = "tuning"
	KindAutoML     JobKind = "auto-ml"
	KindProcessing JobKind = "processing"
)

// ParseJobKind validates a kind string coming from config or an API request.
func ParseJobKind(s string) (JobKind, error) {
	k := JobKind(s)
	if _, ok := kindTable[k]; !ok {
		return "", fmt.Errorf("%w: unknown job kind %q", ErrInvalidConfig, s)
	}
	return k, nil
}

// StatusTransition is one entry of the service's append-only sub-status log.
type StatusTransition struct {
	Status  string
	Message string
	Start   *time.Time
	End     *time.Time
}

// JobDescription is the kind-independent view of a describe call. Name is the
// immutable identity; Status is refetched on every poll.
type JobDescription struct {
	Name          string
	Kind          JobKind
	Status        string
	FailureReason string
	LastModified  time.Time
	Transitions   []StatusTransition
}

// Terminal reports whether the description's status admits no further
// transitions for its kind.
func (d *JobDescription) Terminal() bool {
	spec, ok := kindTable[d.Kind]
	if !ok {
		return false
	}
	return spec.terminal[d.Status]
}

// kindSpec is the per-kind dispatch row: how to describe the job, which
// statuses are terminal, and where its log streams live.
type kindSpec struct {
	describe func(ctx context.Context, c *Client, name string) (*JobDescription, error)
	terminal map[string]bool
	logGroup string
}

const (
	StatusInProgress = "InProgress"
	StatusCompleted  = "Completed"
	StatusFailed     = "Failed"
	StatusStopping   = "Stopping"
	StatusStopped    = "Stopped"
)

func terminalSet() map[string]bool {
	return map[string]bool{
		StatusCompleted: true,
		StatusFailed:    true,
		StatusStopped:   true,
	}
}

// Tuning and auto-ML jobs fan out child training jobs named with the parent
// job's prefix, so their log streams live in the training job log group.
var kindTable = map[JobKind]kindSpec{
	KindTraining: {
		describe: describeTraining,
		terminal: terminalSet(),
		logGroup: "/aws/sagemaker/TrainingJobs",
	},
	KindTransform: {
		describe: describeTransform,
		terminal: terminalSet(),
		logGroup: "/aws/sagemaker/TransformJobs",
	},
	KindTuning: {
		describe: describeTuning,
		terminal: terminalSet(),
		logGroup: "/aws/sagemaker/TrainingJobs",
	},
	KindAutoML: {
		describe: describeAutoML,
		terminal: terminalSet(),
		logGroup: "/aws/sagemaker/TrainingJobs",
	},
	KindProcessing: {
		describe: describeProcessing,
		terminal: terminalSet(),
		logGroup: "/aws/sagemaker/ProcessingJobs",
	},
}

func specFor(kind JobKind) (kindSpec, error) {
	spec, ok := kindTable[kind]
	if !ok {
		return kindSpec{}, fmt.Errorf("%w: unknown job kind %q", ErrInvalidConfig, kind)
	}
	return spec, nil
}

// DescribeJob fetches the current description of a job of any supported kind.
func (c *Client) DescribeJob(ctx context.Context, name string, kind JobKind) (*JobDescription, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}
	return spec.describe(ctx, c, name)
}

func describeTraining(ctx context.Context, c *Client, name string) (*JobDescription, error) {
	out, err := c.api.DescribeTrainingJob(ctx, &sagemaker.DescribeTrainingJobInput{
		TrainingJobName: aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("describe training job %q: %w", name, err)
	}
	desc := &JobDescription{
		Name:          name,
		Kind:          KindTraining,
		Status:        string(out.TrainingJobStatus),
		FailureReason: aws.ToString(out.FailureReason),
		LastModified:  aws.ToTime(out.LastModifiedTime),
	}
	for _, tr := range out.SecondaryStatusTransitions {
		desc.Transitions = append(desc.Transitions, StatusTransition{
			Status:  string(tr.Status),
			Message: aws.ToString(tr.StatusMessage),
			Start:   tr.StartTime,
			End:     tr.EndTime,
		})
	}
	return desc, nil
}

func describeTransform(ctx context.Context, c *Client, name string) (*JobDescription, error) {
	out, err := c.api.DescribeTransformJob(ctx, &sagemaker.DescribeTransformJobInput{
		TransformJobName: aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("describe transform job %q: %w", name, err)
	}
	return &JobDescription{
		Name:          name,
		Kind:          KindTransform,
		Status:        string(out.TransformJobStatus),
		FailureReason: aws.ToString(out.FailureReason),
		LastModified:  lastOf(out.TransformStartTime, out.CreationTime),
	}, nil
}

func describeTuning(ctx context.Context, c *Client, name string) (*JobDescription, error) {
	out, err := c.api.DescribeHyperParameterTuningJob(ctx, &sagemaker.DescribeHyperParameterTuningJobInput{
		HyperParameterTuningJobName: aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("describe tuning job %q: %w", name, err)
	}
	return &JobDescription{
		Name:         name,
		Kind:         KindTuning,
		Status:       string(out.HyperParameterTuningJobStatus),
		LastModified: aws.ToTime(out.LastModifiedTime),
	}, nil
}

func describeAutoML(ctx context.Context, c *Client, name string) (*JobDescription, error) {
	out, err := c.api.DescribeAutoMLJob(ctx, &sagemaker.DescribeAutoMLJobInput{
		AutoMLJobName: aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("describe auto-ml job %q: %w", name, err)
	}
	desc := &JobDescription{
		Name:          name,
		Kind:          KindAutoML,
		Status:        string(out.AutoMLJobStatus),
		FailureReason: aws.ToString(out.FailureReason),
		LastModified:  aws.ToTime(out.LastModifiedTime),
	}
	if out.AutoMLJobSecondaryStatus != "" {
		desc.Transitions = append(desc.Transitions, StatusTransition{
			Status: string(out.AutoMLJobSecondaryStatus),
		})
	}
	return desc, nil
}

func describeProcessing(ctx context.Context, c *Client, name string) (*JobDescription, error) {
	out, err := c.api.DescribeProcessingJob(ctx, &sagemaker.DescribeProcessingJobInput{
		ProcessingJobName: aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("describe processing job %q: %w", name, err)
	}
	return &JobDescription{
		Name:          name,
		Kind:          KindProcessing,
		Status:        string(out.ProcessingJobStatus),
		FailureReason: aws.ToString(out.FailureReason),
		LastModified:  aws.ToTime(out.LastModifiedTime),
	}, nil
}

func lastOf(candidates ...*time.Time) time.Time {
	var last time.Time
	for _, t := range candidates {
		if t != nil && t.After(last) {
			last = *t
		}
	}
	return last
}
