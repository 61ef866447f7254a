package smclient

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
)

// Endpoint statuses the wait loop treats as terminal.
const (
	EndpointStatusInService = "InService"
	EndpointStatusFailed    = "Failed"
)

// ProductionVariantConfig describes one variant of an endpoint config.
type ProductionVariantConfig struct {
	VariantName   string
	ModelName     string
	InstanceType  string
	InstanceCount int32
	InitialWeight float32
}

// EndpointConfigConfig describes an endpoint configuration.
type EndpointConfigConfig struct {
	Name     string
	Variants []ProductionVariantConfig
	KMSKeyID string
	Tags     map[string]string
}

// EndpointDescription is the caller-facing view of a describe-endpoint call.
type EndpointDescription struct {
	Name          string
	ConfigName    string
	Status        string
	FailureReason string
	LastModified  time.Time
}

// CreateEndpointConfig registers an endpoint configuration and returns its name.
func (c *Client) CreateEndpointConfig(ctx context.Context, cfg EndpointConfigConfig) (string, error) {
	if cfg.Name == "" {
		return "", fmt.Errorf("%w: endpoint config name is required", ErrInvalidConfig)
	}
	if len(cfg.Variants) == 0 {
		return "", fmt.Errorf("%w: at least one production variant is required", ErrInvalidConfig)
	}
	in := &sagemaker.CreateEndpointConfigInput{
		EndpointConfigName: aws.String(cfg.Name),
		Tags:               tagFragments(cfg.Tags),
	}
	if cfg.KMSKeyID != "" {
		in.KmsKeyId = aws.String(cfg.KMSKeyID)
	}
	for _, v := range cfg.Variants {
		name := v.VariantName
		if name == "" {
			name = "AllTraffic"
		}
		count := v.InstanceCount
		if count == 0 {
			count = 1
		}
		weight := v.InitialWeight
		if weight == 0 {
			weight = 1
		}
		in.ProductionVariants = append(in.ProductionVariants, types.ProductionVariant{
			VariantName:          aws.String(name),
			ModelName:            aws.String(v.ModelName),
			InstanceType:         types.ProductionVariantInstanceType(v.InstanceType),
			InitialInstanceCount: aws.Int32(count),
			InitialVariantWeight: aws.Float32(weight),
		})
	}
	if _, err := c.api.CreateEndpointConfig(ctx, in); err != nil {
		return "", fmt.Errorf("create endpoint config %q: %w", cfg.Name, err)
	}
	return cfg.Name, nil
}

// DeleteEndpointConfig removes an endpoint configuration.
func (c *Client) DeleteEndpointConfig(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if _, err := c.api.DeleteEndpointConfig(ctx, &sagemaker.DeleteEndpointConfigInput{
		EndpointConfigName: aws.String(name),
	}); err != nil {
		return fmt.Errorf("delete endpoint config %q: %w", name, err)
	}
	return nil
}

// CreateEndpoint creates an endpoint from a registered config. With wait set
// it polls until the endpoint leaves the Creating state and errors if the
// final status is not InService.
func (c *Client) CreateEndpoint(ctx context.Context, endpointName, configName string, wait bool, pollInterval time.Duration) (*EndpointDescription, error) {
	if err := validName(endpointName); err != nil {
		return nil, err
	}
	if _, err := c.api.CreateEndpoint(ctx, &sagemaker.CreateEndpointInput{
		EndpointName:       aws.String(endpointName),
		EndpointConfigName: aws.String(configName),
	}); err != nil {
		return nil, fmt.Errorf("create endpoint %q: %w", endpointName, err)
	}
	if !wait {
		return &EndpointDescription{Name: endpointName, ConfigName: configName}, nil
	}
	return c.WaitForEndpoint(ctx, endpointName, pollInterval)
}

// DescribeEndpoint fetches the endpoint's current description. A not-found
// rejection is translated into ErrDoesNotExist.
func (c *Client) DescribeEndpoint(ctx context.Context, name string) (*EndpointDescription, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	out, err := c.api.DescribeEndpoint(ctx, &sagemaker.DescribeEndpointInput{
		EndpointName: aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, notFoundError("endpoint", name, err)
		}
		return nil, fmt.Errorf("describe endpoint %q: %w", name, err)
	}
	return &EndpointDescription{
		Name:          name,
		ConfigName:    aws.ToString(out.EndpointConfigName),
		Status:        string(out.EndpointStatus),
		FailureReason: aws.ToString(out.FailureReason),
		LastModified:  aws.ToTime(out.LastModifiedTime),
	}, nil
}

// UpdateEndpoint points an existing endpoint at a new config. The endpoint
// must already exist; updating a missing one returns ErrDoesNotExist instead
// of the raw remote error.
func (c *Client) UpdateEndpoint(ctx context.Context, endpointName, configName string, wait bool, pollInterval time.Duration) (*EndpointDescription, error) {
	desc, err := c.DescribeEndpoint(ctx, endpointName)
	if err != nil {
		return nil, err
	}
	if _, err := c.api.UpdateEndpoint(ctx, &sagemaker.UpdateEndpointInput{
		EndpointName:       aws.String(endpointName),
		EndpointConfigName: aws.String(configName),
	}); err != nil {
		return nil, fmt.Errorf("update endpoint %q: %w", endpointName, err)
	}
	if !wait {
		desc.ConfigName = configName
		return desc, nil
	}
	return c.WaitForEndpoint(ctx, endpointName, pollInterval)
}

// DeleteEndpoint removes an endpoint.
func (c *Client) DeleteEndpoint(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if _, err := c.api.DeleteEndpoint(ctx, &sagemaker.DeleteEndpointInput{
		EndpointName: aws.String(name),
	}); err != nil {
		return fmt.Errorf("delete endpoint %q: %w", name, err)
	}
	return nil
}

// WaitForEndpoint polls until the endpoint reaches InService or Failed.
// A Failed endpoint returns an error carrying the failure reason.
func (c *Client) WaitForEndpoint(ctx context.Context, name string, pollInterval time.Duration) (*EndpointDescription, error) {
	for {
		desc, err := c.DescribeEndpoint(ctx, name)
		if err != nil {
			return nil, err
		}
		switch desc.Status {
		case EndpointStatusInService:
			return desc, nil
		case EndpointStatusFailed:
			return desc, fmt.Errorf("endpoint %q failed: %s", name, desc.FailureReason)
		}
		if err := sleepContext(ctx, pollInterval); err != nil {
			return nil, err
		}
	}
}
