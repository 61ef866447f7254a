package smclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/smithy-go"
)

func TestCreateFeatureGroupValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  FeatureGroupConfig
	}{
		{"missing name", FeatureGroupConfig{RecordIdentifier: "id", EventTimeFeature: "ts", Features: []FeatureDefinitionConfig{{Name: "id", Type: "String"}}}},
		{"missing record id", FeatureGroupConfig{Name: "fg", EventTimeFeature: "ts", Features: []FeatureDefinitionConfig{{Name: "id", Type: "String"}}}},
		{"missing event time", FeatureGroupConfig{Name: "fg", RecordIdentifier: "id", Features: []FeatureDefinitionConfig{{Name: "id", Type: "String"}}}},
		{"no features", FeatureGroupConfig{Name: "fg", RecordIdentifier: "id", EventTimeFeature: "ts"}},
	}
	for _, tc := range cases {
		cp := &fakeControlPlane{}
		c := newTestClient(cp, nil, nil, nil)
		_, err := c.CreateFeatureGroup(context.Background(), tc.cfg)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", tc.name, err)
		}
		if len(cp.calls) != 0 {
			t.Fatalf("%s: validation failure made %d network calls", tc.name, len(cp.calls))
		}
	}
}

func TestDescribeFeatureGroupNotFound(t *testing.T) {
	cp := &fakeControlPlane{
		describeFeatureGroup: func(*sagemaker.DescribeFeatureGroupInput) (*sagemaker.DescribeFeatureGroupOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "ResourceNotFound", Message: "Resource Not Found"}
		},
	}
	c := newTestClient(cp, nil, nil, nil)

	_, err := c.DescribeFeatureGroup(context.Background(), "ghost")
	if !errors.Is(err, ErrDoesNotExist) {
		t.Fatalf("expected ErrDoesNotExist, got %v", err)
	}
}

func TestListFeatureGroupsFollowsPagination(t *testing.T) {
	pages := [][]string{{"fg-a", "fg-b"}, {"fg-c"}}
	call := 0
	cp := &fakeControlPlane{
		listFeatureGroups: func(in *sagemaker.ListFeatureGroupsInput) (*sagemaker.ListFeatureGroupsOutput, error) {
			if call > 0 && aws.ToString(in.NextToken) == "" {
				t.Fatalf("page %d requested without continuation token", call)
			}
			out := &sagemaker.ListFeatureGroupsOutput{}
			for _, n := range pages[call] {
				out.FeatureGroupSummaries = append(out.FeatureGroupSummaries, types.FeatureGroupSummary{
					FeatureGroupName: aws.String(n),
				})
			}
			call++
			if call < len(pages) {
				out.NextToken = aws.String("next")
			}
			return out, nil
		},
	}
	c := newTestClient(cp, nil, nil, nil)

	names, err := c.ListFeatureGroups(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"fg-a", "fg-b", "fg-c"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %v", len(want), names)
	}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("expected %q at %d, got %q", n, i, names[i])
		}
	}
}

func TestWaitForFeatureGroupPollsUntilCreated(t *testing.T) {
	statuses := []types.FeatureGroupStatus{
		types.FeatureGroupStatusCreating,
		types.FeatureGroupStatusCreating,
		types.FeatureGroupStatusCreated,
	}
	call := 0
	cp := &fakeControlPlane{
		describeFeatureGroup: func(*sagemaker.DescribeFeatureGroupInput) (*sagemaker.DescribeFeatureGroupOutput, error) {
			out := &sagemaker.DescribeFeatureGroupOutput{
				FeatureGroupStatus: statuses[call],
				CreationTime:       aws.Time(time.Now()),
			}
			call++
			return out, nil
		},
	}
	c := newTestClient(cp, nil, nil, nil)

	desc, err := c.WaitForFeatureGroup(context.Background(), "fg", 0)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if desc.Status != FeatureGroupStatusCreated {
		t.Fatalf("expected Created, got %q", desc.Status)
	}
	if call != 3 {
		t.Fatalf("expected 3 describe calls, got %d", call)
	}
}

func TestWaitForFeatureGroupCreateFailed(t *testing.T) {
	cp := &fakeControlPlane{
		describeFeatureGroup: func(*sagemaker.DescribeFeatureGroupInput) (*sagemaker.DescribeFeatureGroupOutput, error) {
			return &sagemaker.DescribeFeatureGroupOutput{
				FeatureGroupStatus: types.FeatureGroupStatusCreateFailed,
				FailureReason:      aws.String("offline store bucket denied"),
			}, nil
		},
	}
	c := newTestClient(cp, nil, nil, nil)

	desc, err := c.WaitForFeatureGroup(context.Background(), "fg", 0)
	if err == nil {
		t.Fatalf("expected error for CreateFailed group")
	}
	if desc == nil || desc.FailureReason != "offline store bucket denied" {
		t.Fatalf("expected failure reason in description, got %+v", desc)
	}
}
