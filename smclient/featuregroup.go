package smclient

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
)

// Feature group statuses the wait loop treats as terminal.
const (
	FeatureGroupStatusCreated      = "Created"
	FeatureGroupStatusCreateFailed = "CreateFailed"
)

// FeatureDefinitionConfig declares one feature's name and type
// ("String", "Integral", or "Fractional").
type FeatureDefinitionConfig struct {
	Name string
	Type string
}

// FeatureGroupConfig describes a feature group.
type FeatureGroupConfig struct {
	Name              string
	RoleARN           string
	RecordIdentifier  string
	EventTimeFeature  string
	Features          []FeatureDefinitionConfig
	Description       string
	EnableOnlineStore bool
	OfflineStoreS3URI string
	Tags              map[string]string
}

// FeatureGroupDescription is the caller-facing view of a feature group.
type FeatureGroupDescription struct {
	Name          string
	Status        string
	FailureReason string
	CreatedAt     time.Time
}

func (cfg *FeatureGroupConfig) validate() error {
	if cfg.Name == "" {
		return fmt.Errorf("%w: feature group name is required", ErrInvalidConfig)
	}
	if cfg.RecordIdentifier == "" {
		return fmt.Errorf("%w: record identifier feature name is required", ErrInvalidConfig)
	}
	if cfg.EventTimeFeature == "" {
		return fmt.Errorf("%w: event time feature name is required", ErrInvalidConfig)
	}
	if len(cfg.Features) == 0 {
		return fmt.Errorf("%w: at least one feature definition is required", ErrInvalidConfig)
	}
	return nil
}

// CreateFeatureGroup registers a feature group and returns its name.
func (c *Client) CreateFeatureGroup(ctx context.Context, cfg FeatureGroupConfig) (string, error) {
	if err := cfg.validate(); err != nil {
		return "", err
	}
	in := &sagemaker.CreateFeatureGroupInput{
		FeatureGroupName:            aws.String(cfg.Name),
		RecordIdentifierFeatureName: aws.String(cfg.RecordIdentifier),
		EventTimeFeatureName:        aws.String(cfg.EventTimeFeature),
		Tags:                        tagFragments(cfg.Tags),
	}
	if cfg.RoleARN != "" {
		in.RoleArn = aws.String(cfg.RoleARN)
	}
	if cfg.Description != "" {
		in.Description = aws.String(cfg.Description)
	}
	for _, f := range cfg.Features {
		in.FeatureDefinitions = append(in.FeatureDefinitions, types.FeatureDefinition{
			FeatureName: aws.String(f.Name),
			FeatureType: types.FeatureType(f.Type),
		})
	}
	if cfg.EnableOnlineStore {
		in.OnlineStoreConfig = &types.OnlineStoreConfig{EnableOnlineStore: aws.Bool(true)}
	}
	if cfg.OfflineStoreS3URI != "" {
		in.OfflineStoreConfig = &types.OfflineStoreConfig{
			S3StorageConfig: &types.S3StorageConfig{
				S3Uri: aws.String(cfg.OfflineStoreS3URI),
			},
		}
	}
	if _, err := c.api.CreateFeatureGroup(ctx, in); err != nil {
		return "", fmt.Errorf("create feature group %q: %w", cfg.Name, err)
	}
	return cfg.Name, nil
}

// DescribeFeatureGroup fetches the group's current status. A not-found
// rejection is translated into ErrDoesNotExist.
func (c *Client) DescribeFeatureGroup(ctx context.Context, name string) (*FeatureGroupDescription, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	out, err := c.api.DescribeFeatureGroup(ctx, &sagemaker.DescribeFeatureGroupInput{
		FeatureGroupName: aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, notFoundError("feature group", name, err)
		}
		return nil, fmt.Errorf("describe feature group %q: %w", name, err)
	}
	return &FeatureGroupDescription{
		Name:          name,
		Status:        string(out.FeatureGroupStatus),
		FailureReason: aws.ToString(out.FailureReason),
		CreatedAt:     aws.ToTime(out.CreationTime),
	}, nil
}

// DeleteFeatureGroup removes a feature group.
func (c *Client) DeleteFeatureGroup(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if _, err := c.api.DeleteFeatureGroup(ctx, &sagemaker.DeleteFeatureGroupInput{
		FeatureGroupName: aws.String(name),
	}); err != nil {
		return fmt.Errorf("delete feature group %q: %w", name, err)
	}
	return nil
}

// ListFeatureGroups returns the names of all feature groups matching the
// optional substring, following continuation tokens to exhaustion.
func (c *Client) ListFeatureGroups(ctx context.Context, nameContains string) ([]string, error) {
	var names []string
	var next *string
	for {
		in := &sagemaker.ListFeatureGroupsInput{NextToken: next}
		if nameContains != "" {
			in.NameContains = aws.String(nameContains)
		}
		out, err := c.api.ListFeatureGroups(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("list feature groups: %w", err)
		}
		for _, fg := range out.FeatureGroupSummaries {
			names = append(names, aws.ToString(fg.FeatureGroupName))
		}
		if out.NextToken == nil {
			return names, nil
		}
		next = out.NextToken
	}
}

// WaitForFeatureGroup polls until creation settles. A CreateFailed group
// returns an error carrying the failure reason.
func (c *Client) WaitForFeatureGroup(ctx context.Context, name string, pollInterval time.Duration) (*FeatureGroupDescription, error) {
	for {
		desc, err := c.DescribeFeatureGroup(ctx, name)
		if err != nil {
			return nil, err
		}
		switch desc.Status {
		case FeatureGroupStatusCreated:
			return desc, nil
		case FeatureGroupStatusCreateFailed:
			return desc, fmt.Errorf("feature group %q failed to create: %s", name, desc.FailureReason)
		}
		if err := sleepContext(ctx, pollInterval); err != nil {
			return nil, err
		}
	}
}
