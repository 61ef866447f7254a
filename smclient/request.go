package smclient

import (
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
)

// VPCConfig is the caller-facing shape for attaching a job to a VPC.
type VPCConfig struct {
	Subnets        []string
	SecurityGroups []string
}

// DataChannel names one training input channel backed by an S3 prefix.
type DataChannel struct {
	Name            string
	S3URI           string
	ContentType     string
	CompressionType string
	Distribution    string
}

// ContainerConfig describes one model container. ModelPackageName and
// ModelPackageGroupName are mutually exclusive with each other and with
// Image/ModelDataURL-based definitions.
type ContainerConfig struct {
	Image                 string
	ModelDataURL          string
	Environment           map[string]string
	ModelPackageName      string
	ModelPackageGroupName string
}

func vpcFragment(v *VPCConfig) *types.VpcConfig {
	if v == nil {
		return nil
	}
	return &types.VpcConfig{
		Subnets:          v.Subnets,
		SecurityGroupIds: v.SecurityGroups,
	}
}

func containerFragment(c ContainerConfig) types.ContainerDefinition {
	def := types.ContainerDefinition{
		Environment: c.Environment,
	}
	if c.Image != "" {
		def.Image = aws.String(c.Image)
	}
	if c.ModelDataURL != "" {
		def.ModelDataUrl = aws.String(c.ModelDataURL)
	}
	if c.ModelPackageName != "" {
		def.ModelPackageName = aws.String(c.ModelPackageName)
	}
	return def
}

func channelFragments(channels []DataChannel) []types.Channel {
	out := make([]types.Channel, 0, len(channels))
	for _, ch := range channels {
		name := ch.Name
		if name == "" {
			name = "training"
		}
		frag := types.Channel{
			ChannelName: aws.String(name),
			DataSource: &types.DataSource{
				S3DataSource: &types.S3DataSource{
					S3DataType: types.S3DataTypeS3Prefix,
					S3Uri:      aws.String(ch.S3URI),
				},
			},
		}
		if ch.Distribution != "" {
			frag.DataSource.S3DataSource.S3DataDistributionType = types.S3DataDistribution(ch.Distribution)
		}
		if ch.ContentType != "" {
			frag.ContentType = aws.String(ch.ContentType)
		}
		if ch.CompressionType != "" {
			frag.CompressionType = types.CompressionType(ch.CompressionType)
		}
		out = append(out, frag)
	}
	return out
}

// tagFragments renders a tag map in deterministic key order so request
// payloads are stable across calls.
func tagFragments(tags map[string]string) []types.Tag {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}

func stoppingFragment(maxRuntime time.Duration) *types.StoppingCondition {
	if maxRuntime <= 0 {
		maxRuntime = 24 * time.Hour
	}
	return &types.StoppingCondition{
		MaxRuntimeInSeconds: aws.Int32(int32(maxRuntime / time.Second)),
	}
}
