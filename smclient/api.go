package smclient

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
)

// ControlPlaneAPI is the subset of the SageMaker control-plane surface the
// client depends on. *sagemaker.Client satisfies it; tests substitute fakes
// that record each invocation.
type ControlPlaneAPI interface {
	CreateTrainingJob(ctx context.Context, in *sagemaker.CreateTrainingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateTrainingJobOutput, error)
	DescribeTrainingJob(ctx context.Context, in *sagemaker.DescribeTrainingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeTrainingJobOutput, error)
	StopTrainingJob(ctx context.Context, in *sagemaker.StopTrainingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.StopTrainingJobOutput, error)

	CreateTransformJob(ctx context.Context, in *sagemaker.CreateTransformJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateTransformJobOutput, error)
	DescribeTransformJob(ctx context.Context, in *sagemaker.DescribeTransformJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeTransformJobOutput, error)
	StopTransformJob(ctx context.Context, in *sagemaker.StopTransformJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.StopTransformJobOutput, error)

	CreateHyperParameterTuningJob(ctx context.Context, in *sagemaker.CreateHyperParameterTuningJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateHyperParameterTuningJobOutput, error)
	DescribeHyperParameterTuningJob(ctx context.Context, in *sagemaker.DescribeHyperParameterTuningJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeHyperParameterTuningJobOutput, error)
	StopHyperParameterTuningJob(ctx context.Context, in *sagemaker.StopHyperParameterTuningJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.StopHyperParameterTuningJobOutput, error)

	CreateAutoMLJob(ctx context.Context, in *sagemaker.CreateAutoMLJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateAutoMLJobOutput, error)
	DescribeAutoMLJob(ctx context.Context, in *sagemaker.DescribeAutoMLJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeAutoMLJobOutput, error)
	StopAutoMLJob(ctx context.Context, in *sagemaker.StopAutoMLJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.StopAutoMLJobOutput, error)

	CreateProcessingJob(ctx context.Context, in *sagemaker.CreateProcessingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateProcessingJobOutput, error)
	DescribeProcessingJob(ctx context.Context, in *sagemaker.DescribeProcessingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeProcessingJobOutput, error)
	StopProcessingJob(ctx context.Context, in *sagemaker.StopProcessingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.StopProcessingJobOutput, error)

	CreateModel(ctx context.Context, in *sagemaker.CreateModelInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateModelOutput, error)
	DeleteModel(ctx context.Context, in *sagemaker.DeleteModelInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteModelOutput, error)

	CreateEndpointConfig(ctx context.Context, in *sagemaker.CreateEndpointConfigInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointConfigOutput, error)
	DeleteEndpointConfig(ctx context.Context, in *sagemaker.DeleteEndpointConfigInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteEndpointConfigOutput, error)
	CreateEndpoint(ctx context.Context, in *sagemaker.CreateEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointOutput, error)
	UpdateEndpoint(ctx context.Context, in *sagemaker.UpdateEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.UpdateEndpointOutput, error)
	DescribeEndpoint(ctx context.Context, in *sagemaker.DescribeEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeEndpointOutput, error)
	DeleteEndpoint(ctx context.Context, in *sagemaker.DeleteEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteEndpointOutput, error)

	CreateFeatureGroup(ctx context.Context, in *sagemaker.CreateFeatureGroupInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateFeatureGroupOutput, error)
	DescribeFeatureGroup(ctx context.Context, in *sagemaker.DescribeFeatureGroupInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeFeatureGroupOutput, error)
	DeleteFeatureGroup(ctx context.Context, in *sagemaker.DeleteFeatureGroupInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteFeatureGroupOutput, error)
	ListFeatureGroups(ctx context.Context, in *sagemaker.ListFeatureGroupsInput, optFns ...func(*sagemaker.Options)) (*sagemaker.ListFeatureGroupsOutput, error)
}

// LogsAPI is the slice of CloudWatch Logs used by the log tailing engine.
type LogsAPI interface {
	DescribeLogStreams(ctx context.Context, in *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
	GetLogEvents(ctx context.Context, in *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error)
}

// BlobAPI is the slice of S3 used for data movement.
type BlobAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}
