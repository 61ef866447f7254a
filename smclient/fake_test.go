package smclient

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/smithy-go"
)

// fakeControlPlane records every operation name and delegates to the
// per-operation function when one is set, otherwise returning an empty
// response. Tests assert on calls to verify that validation failures make no
// network calls.
type fakeControlPlane struct {
	calls []string

	createTrainingJob   func(*sagemaker.CreateTrainingJobInput) (*sagemaker.CreateTrainingJobOutput, error)
	describeTrainingJob func(*sagemaker.DescribeTrainingJobInput) (*sagemaker.DescribeTrainingJobOutput, error)
	stopTrainingJob     func(*sagemaker.StopTrainingJobInput) (*sagemaker.StopTrainingJobOutput, error)

	createTransformJob   func(*sagemaker.CreateTransformJobInput) (*sagemaker.CreateTransformJobOutput, error)
	describeTransformJob func(*sagemaker.DescribeTransformJobInput) (*sagemaker.DescribeTransformJobOutput, error)

	createTuningJob   func(*sagemaker.CreateHyperParameterTuningJobInput) (*sagemaker.CreateHyperParameterTuningJobOutput, error)
	describeTuningJob func(*sagemaker.DescribeHyperParameterTuningJobInput) (*sagemaker.DescribeHyperParameterTuningJobOutput, error)
	stopTuningJob     func(*sagemaker.StopHyperParameterTuningJobInput) (*sagemaker.StopHyperParameterTuningJobOutput, error)

	createAutoMLJob   func(*sagemaker.CreateAutoMLJobInput) (*sagemaker.CreateAutoMLJobOutput, error)
	describeAutoMLJob func(*sagemaker.DescribeAutoMLJobInput) (*sagemaker.DescribeAutoMLJobOutput, error)

	createProcessingJob   func(*sagemaker.CreateProcessingJobInput) (*sagemaker.CreateProcessingJobOutput, error)
	describeProcessingJob func(*sagemaker.DescribeProcessingJobInput) (*sagemaker.DescribeProcessingJobOutput, error)

	createModel func(*sagemaker.CreateModelInput) (*sagemaker.CreateModelOutput, error)

	createEndpoint   func(*sagemaker.CreateEndpointInput) (*sagemaker.CreateEndpointOutput, error)
	updateEndpoint   func(*sagemaker.UpdateEndpointInput) (*sagemaker.UpdateEndpointOutput, error)
	describeEndpoint func(*sagemaker.DescribeEndpointInput) (*sagemaker.DescribeEndpointOutput, error)

	createFeatureGroup   func(*sagemaker.CreateFeatureGroupInput) (*sagemaker.CreateFeatureGroupOutput, error)
	describeFeatureGroup func(*sagemaker.DescribeFeatureGroupInput) (*sagemaker.DescribeFeatureGroupOutput, error)
	listFeatureGroups    func(*sagemaker.ListFeatureGroupsInput) (*sagemaker.ListFeatureGroupsOutput, error)
}

func (f *fakeControlPlane) record(op string) { f.calls = append(f.calls, op) }

func (f *fakeControlPlane) count(op string) int {
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeControlPlane) CreateTrainingJob(_ context.Context, in *sagemaker.CreateTrainingJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.CreateTrainingJobOutput, error) {
	f.record("CreateTrainingJob")
	if f.createTrainingJob != nil {
		return f.createTrainingJob(in)
	}
	return &sagemaker.CreateTrainingJobOutput{}, nil
}

func (f *fakeControlPlane) DescribeTrainingJob(_ context.Context, in *sagemaker.DescribeTrainingJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.DescribeTrainingJobOutput, error) {
	f.record("DescribeTrainingJob")
	if f.describeTrainingJob != nil {
		return f.describeTrainingJob(in)
	}
	return &sagemaker.DescribeTrainingJobOutput{}, nil
}

func (f *fakeControlPlane) StopTrainingJob(_ context.Context, in *sagemaker.StopTrainingJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.StopTrainingJobOutput, error) {
	f.record("StopTrainingJob")
	if f.stopTrainingJob != nil {
		return f.stopTrainingJob(in)
	}
	return &sagemaker.StopTrainingJobOutput{}, nil
}

func (f *fakeControlPlane) CreateTransformJob(_ context.Context, in *sagemaker.CreateTransformJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.CreateTransformJobOutput, error) {
	f.record("CreateTransformJob")
	if f.createTransformJob != nil {
		return f.createTransformJob(in)
	}
	return &sagemaker.CreateTransformJobOutput{}, nil
}

func (f *fakeControlPlane) DescribeTransformJob(_ context.Context, in *sagemaker.DescribeTransformJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.DescribeTransformJobOutput, error) {
	f.record("DescribeTransformJob")
	if f.describeTransformJob != nil {
		return f.describeTransformJob(in)
	}
	return &sagemaker.DescribeTransformJobOutput{}, nil
}

func (f *fakeControlPlane) StopTransformJob(_ context.Context, in *sagemaker.StopTransformJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.StopTransformJobOutput, error) {
	f.record("StopTransformJob")
	return &sagemaker.StopTransformJobOutput{}, nil
}

func (f *fakeControlPlane) CreateHyperParameterTuningJob(_ context.Context, in *sagemaker.CreateHyperParameterTuningJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.CreateHyperParameterTuningJobOutput, error) {
	f.record("CreateHyperParameterTuningJob")
	if f.createTuningJob != nil {
		return f.createTuningJob(in)
	}
	return &sagemaker.CreateHyperParameterTuningJobOutput{}, nil
}

func (f *fakeControlPlane) DescribeHyperParameterTuningJob(_ context.Context, in *sagemaker.DescribeHyperParameterTuningJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.DescribeHyperParameterTuningJobOutput, error) {
	f.record("DescribeHyperParameterTuningJob")
	if f.describeTuningJob != nil {
		return f.describeTuningJob(in)
	}
	return &sagemaker.DescribeHyperParameterTuningJobOutput{}, nil
}

func (f *fakeControlPlane) StopHyperParameterTuningJob(_ context.Context, in *sagemaker.StopHyperParameterTuningJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.StopHyperParameterTuningJobOutput, error) {
	f.record("StopHyperParameterTuningJob")
	if f.stopTuningJob != nil {
		return f.stopTuningJob(in)
	}
	return &sagemaker.StopHyperParameterTuningJobOutput{}, nil
}

func (f *fakeControlPlane) CreateAutoMLJob(_ context.Context, in *sagemaker.CreateAutoMLJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.CreateAutoMLJobOutput, error) {
	f.record("CreateAutoMLJob")
	if f.createAutoMLJob != nil {
		return f.createAutoMLJob(in)
	}
	return &sagemaker.CreateAutoMLJobOutput{}, nil
}

func (f *fakeControlPlane) DescribeAutoMLJob(_ context.Context, in *sagemaker.DescribeAutoMLJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.DescribeAutoMLJobOutput, error) {
	f.record("DescribeAutoMLJob")
	if f.describeAutoMLJob != nil {
		return f.describeAutoMLJob(in)
	}
	return &sagemaker.DescribeAutoMLJobOutput{}, nil
}

func (f *fakeControlPlane) StopAutoMLJob(_ context.Context, in *sagemaker.StopAutoMLJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.StopAutoMLJobOutput, error) {
	f.record("StopAutoMLJob")
	return &sagemaker.StopAutoMLJobOutput{}, nil
}

func (f *fakeControlPlane) CreateProcessingJob(_ context.Context, in *sagemaker.CreateProcessingJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.CreateProcessingJobOutput, error) {
	f.record("CreateProcessingJob")
	if f.createProcessingJob != nil {
		return f.createProcessingJob(in)
	}
	return &sagemaker.CreateProcessingJobOutput{}, nil
}

func (f *fakeControlPlane) DescribeProcessingJob(_ context.Context, in *sagemaker.DescribeProcessingJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.DescribeProcessingJobOutput, error) {
	f.record("DescribeProcessingJob")
	if f.describeProcessingJob != nil {
		return f.describeProcessingJob(in)
	}
	return &sagemaker.DescribeProcessingJobOutput{}, nil
}

func (f *fakeControlPlane) StopProcessingJob(_ context.Context, in *sagemaker.StopProcessingJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.StopProcessingJobOutput, error) {
	f.record("StopProcessingJob")
	return &sagemaker.StopProcessingJobOutput{}, nil
}

func (f *fakeControlPlane) CreateModel(_ context.Context, in *sagemaker.CreateModelInput, _ ...func(*sagemaker.Options)) (*sagemaker.CreateModelOutput, error) {
	f.record("CreateModel")
	if f.createModel != nil {
		return f.createModel(in)
	}
	return &sagemaker.CreateModelOutput{}, nil
}

func (f *fakeControlPlane) DeleteModel(_ context.Context, in *sagemaker.DeleteModelInput, _ ...func(*sagemaker.Options)) (*sagemaker.DeleteModelOutput, error) {
	f.record("DeleteModel")
	return &sagemaker.DeleteModelOutput{}, nil
}

func (f *fakeControlPlane) CreateEndpointConfig(_ context.Context, in *sagemaker.CreateEndpointConfigInput, _ ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointConfigOutput, error) {
	f.record("CreateEndpointConfig")
	return &sagemaker.CreateEndpointConfigOutput{}, nil
}

func (f *fakeControlPlane) DeleteEndpointConfig(_ context.Context, in *sagemaker.DeleteEndpointConfigInput, _ ...func(*sagemaker.Options)) (*sagemaker.DeleteEndpointConfigOutput, error) {
	f.record("DeleteEndpointConfig")
	return &sagemaker.DeleteEndpointConfigOutput{}, nil
}

func (f *fakeControlPlane) CreateEndpoint(_ context.Context, in *sagemaker.CreateEndpointInput, _ ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointOutput, error) {
	f.record("CreateEndpoint")
	if f.createEndpoint != nil {
		return f.createEndpoint(in)
	}
	return &sagemaker.CreateEndpointOutput{}, nil
}

func (f *fakeControlPlane) UpdateEndpoint(_ context.Context, in *sagemaker.UpdateEndpointInput, _ ...func(*sagemaker.Options)) (*sagemaker.UpdateEndpointOutput, error) {
	f.record("UpdateEndpoint")
	if f.updateEndpoint != nil {
		return f.updateEndpoint(in)
	}
	return &sagemaker.UpdateEndpointOutput{}, nil
}

func (f *fakeControlPlane) DescribeEndpoint(_ context.Context, in *sagemaker.DescribeEndpointInput, _ ...func(*sagemaker.Options)) (*sagemaker.DescribeEndpointOutput, error) {
	f.record("DescribeEndpoint")
	if f.describeEndpoint != nil {
		return f.describeEndpoint(in)
	}
	return &sagemaker.DescribeEndpointOutput{}, nil
}

func (f *fakeControlPlane) DeleteEndpoint(_ context.Context, in *sagemaker.DeleteEndpointInput, _ ...func(*sagemaker.Options)) (*sagemaker.DeleteEndpointOutput, error) {
	f.record("DeleteEndpoint")
	return &sagemaker.DeleteEndpointOutput{}, nil
}

func (f *fakeControlPlane) CreateFeatureGroup(_ context.Context, in *sagemaker.CreateFeatureGroupInput, _ ...func(*sagemaker.Options)) (*sagemaker.CreateFeatureGroupOutput, error) {
	f.record("CreateFeatureGroup")
	if f.createFeatureGroup != nil {
		return f.createFeatureGroup(in)
	}
	return &sagemaker.CreateFeatureGroupOutput{}, nil
}

func (f *fakeControlPlane) DescribeFeatureGroup(_ context.Context, in *sagemaker.DescribeFeatureGroupInput, _ ...func(*sagemaker.Options)) (*sagemaker.DescribeFeatureGroupOutput, error) {
	f.record("DescribeFeatureGroup")
	if f.describeFeatureGroup != nil {
		return f.describeFeatureGroup(in)
	}
	return &sagemaker.DescribeFeatureGroupOutput{}, nil
}

func (f *fakeControlPlane) DeleteFeatureGroup(_ context.Context, in *sagemaker.DeleteFeatureGroupInput, _ ...func(*sagemaker.Options)) (*sagemaker.DeleteFeatureGroupOutput, error) {
	f.record("DeleteFeatureGroup")
	return &sagemaker.DeleteFeatureGroupOutput{}, nil
}

func (f *fakeControlPlane) ListFeatureGroups(_ context.Context, in *sagemaker.ListFeatureGroupsInput, _ ...func(*sagemaker.Options)) (*sagemaker.ListFeatureGroupsOutput, error) {
	f.record("ListFeatureGroups")
	if f.listFeatureGroups != nil {
		return f.listFeatureGroups(in)
	}
	return &sagemaker.ListFeatureGroupsOutput{}, nil
}

// fakeLogs implements LogsAPI through function fields.
type fakeLogs struct {
	describeCalls int
	getCalls      int

	describeLogStreams func(*cloudwatchlogs.DescribeLogStreamsInput) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
	getLogEvents       func(*cloudwatchlogs.GetLogEventsInput) (*cloudwatchlogs.GetLogEventsOutput, error)
}

func (f *fakeLogs) DescribeLogStreams(_ context.Context, in *cloudwatchlogs.DescribeLogStreamsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error) {
	f.describeCalls++
	if f.describeLogStreams != nil {
		return f.describeLogStreams(in)
	}
	return &cloudwatchlogs.DescribeLogStreamsOutput{}, nil
}

func (f *fakeLogs) GetLogEvents(_ context.Context, in *cloudwatchlogs.GetLogEventsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error) {
	f.getCalls++
	if f.getLogEvents != nil {
		return f.getLogEvents(in)
	}
	return &cloudwatchlogs.GetLogEventsOutput{}, nil
}

// fakeBlob implements BlobAPI over an in-memory object map.
type fakeBlob struct {
	objects map[string][]byte
	pages   [][]string // when set, ListObjectsV2 serves these pages in order

	listCalls int
}

func (f *fakeBlob) key(bucket, key string) string { return bucket + "/" + key }

func (f *fakeBlob) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[f.key(*in.Bucket, *in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "object not found"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeBlob) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[f.key(*in.Bucket, *in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBlob) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	page := f.listCalls
	f.listCalls++
	if page >= len(f.pages) {
		return &s3.ListObjectsV2Output{}, nil
	}
	out := &s3.ListObjectsV2Output{}
	for _, k := range f.pages[page] {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	if page < len(f.pages)-1 {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(fmt.Sprintf("page-%d", page+1))
	}
	return out, nil
}
