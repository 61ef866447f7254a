package smclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
)

// ModelConfig describes a deployable model. Exactly one of PrimaryContainer
// and Containers may be supplied.
type ModelConfig struct {
	Name    string
	RoleARN string

	PrimaryContainer *ContainerConfig
	Containers       []ContainerConfig

	VPC                    *VPCConfig
	EnableNetworkIsolation bool
	Tags                   map[string]string
}

func (cfg *ModelConfig) validate() error {
	if cfg.Name == "" {
		return fmt.Errorf("%w: model name is required", ErrInvalidConfig)
	}
	if cfg.RoleARN == "" {
		return fmt.Errorf("%w: role ARN is required", ErrInvalidConfig)
	}
	if cfg.PrimaryContainer != nil && len(cfg.Containers) > 0 {
		return fmt.Errorf("%w: a primary container and a container list are mutually exclusive", ErrInvalidConfig)
	}
	if cfg.PrimaryContainer == nil && len(cfg.Containers) == 0 {
		return fmt.Errorf("%w: a primary container or a container list is required", ErrInvalidConfig)
	}
	containers := cfg.Containers
	if cfg.PrimaryContainer != nil {
		containers = []ContainerConfig{*cfg.PrimaryContainer}
	}
	for _, ct := range containers {
		if ct.ModelPackageName != "" && ct.ModelPackageGroupName != "" {
			return fmt.Errorf("%w: model package name and model package group name are mutually exclusive", ErrInvalidConfig)
		}
	}
	return nil
}

// CreateModel registers a model definition. Model definitions are addressed
// by name in the service, so a rejection because the name already exists is
// treated as success: a warning is logged and the requested name returned.
// Any other remote error propagates unchanged.
func (c *Client) CreateModel(ctx context.Context, cfg ModelConfig) (string, error) {
	if err := cfg.validate(); err != nil {
		return "", err
	}
	in := &sagemaker.CreateModelInput{
		ModelName:        aws.String(cfg.Name),
		ExecutionRoleArn: aws.String(cfg.RoleARN),
		VpcConfig:        vpcFragment(cfg.VPC),
		Tags:             tagFragments(cfg.Tags),
	}
	if cfg.PrimaryContainer != nil {
		def := containerFragment(*cfg.PrimaryContainer)
		in.PrimaryContainer = &def
	}
	for _, ct := range cfg.Containers {
		in.Containers = append(in.Containers, containerFragment(ct))
	}
	if cfg.EnableNetworkIsolation {
		in.EnableNetworkIsolation = aws.Bool(true)
	}

	if _, err := c.api.CreateModel(ctx, in); err != nil {
		if isAlreadyExists(err) {
			c.logger.Printf("model %q already exists, reusing it", cfg.Name)
			return cfg.Name, nil
		}
		return "", fmt.Errorf("create model %q: %w", cfg.Name, err)
	}
	return cfg.Name, nil
}

// DeleteModel removes a model definition.
func (c *Client) DeleteModel(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if _, err := c.api.DeleteModel(ctx, &sagemaker.DeleteModelInput{
		ModelName: aws.String(name),
	}); err != nil {
		return fmt.Errorf("delete model %q: %w", name, err)
	}
	return nil
}
