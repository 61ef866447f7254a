package smclient

import (
	"errors"
	"testing"

	"github.com/aws/smithy-go"
)

func TestClassifyRemote(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want remoteAction
	}{
		{
			"model already exists",
			&smithy.GenericAPIError{Code: "ValidationException", Message: "Cannot create already existing model \"m\""},
			actAlreadyExists,
		},
		{
			"resource in use already exists",
			&smithy.GenericAPIError{Code: "ResourceInUse", Message: "Model m already exists"},
			actAlreadyExists,
		},
		{
			"endpoint not found",
			&smithy.GenericAPIError{Code: "ValidationException", Message: "Could not find endpoint \"e\""},
			actNotFound,
		},
		{
			"entity not found lowercase",
			&smithy.GenericAPIError{Code: "ValidationException", Message: "could not find entity"},
			actNotFound,
		},
		{
			"resource not found code",
			&smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "The specified log group does not exist."},
			actNotFound,
		},
		{
			"tuning job already stopped",
			&smithy.GenericAPIError{Code: "ValidationException", Message: "The tuning job is already stopped."},
			actAlreadyStopped,
		},
		{
			"unrelated validation error",
			&smithy.GenericAPIError{Code: "ValidationException", Message: "1 validation error detected"},
			actPassThrough,
		},
		{
			"throttling passes through",
			&smithy.GenericAPIError{Code: "ThrottlingException", Message: "Rate exceeded"},
			actPassThrough,
		},
		{
			"plain error passes through",
			errors.New("network unreachable"),
			actPassThrough,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyRemote(tc.err); got != tc.want {
				t.Fatalf("classifyRemote(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestNotFoundErrorWrapsSentinelAndCause(t *testing.T) {
	cause := &smithy.GenericAPIError{Code: "ValidationException", Message: "Could not find endpoint"}
	err := notFoundError("endpoint", "churn", cause)
	if !errors.Is(err, ErrDoesNotExist) {
		t.Fatalf("expected ErrDoesNotExist in the chain, got %v", err)
	}
}
