package smclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// ErrInvalidConfig marks parameter-shape violations detected before any
// network call. Wrapped errors carry the specific violation.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrDoesNotExist marks operations against a named entity the service does
// not know about. It replaces the raw remote error so callers can branch with
// errors.Is instead of matching provider codes.
var ErrDoesNotExist = errors.New("does not exist")

// remoteAction is the disposition the classifier assigns to a remote error.
type remoteAction int

const (
	// actPassThrough surfaces the remote error unchanged.
	actPassThrough remoteAction = iota
	// actAlreadyExists degrades a duplicate-create rejection to a warning.
	actAlreadyExists
	// actNotFound translates to ErrDoesNotExist.
	actNotFound
	// actAlreadyStopped degrades a stop of a finished job to a warning.
	actAlreadyStopped
)

// classifyRemote maps a provider error (code + message) onto the small
// allow-list of conditions that get special handling. Everything it does not
// recognize passes through unchanged. Keeping the matching here means each
// allow-listed behavior is declared once and tested independently of its
// call sites.
func classifyRemote(err error) remoteAction {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return actPassThrough
	}
	code := ae.ErrorCode()
	// The service has emitted both capitalizations of these phrases, so
	// message matching is case-insensitive.
	msg := strings.ToLower(ae.ErrorMessage())

	switch code {
	case "ResourceNotFound", "ResourceNotFoundException":
		return actNotFound
	case "ResourceInUse":
		if strings.Contains(msg, "already exist") {
			return actAlreadyExists
		}
	case "ValidationException":
		switch {
		case strings.Contains(msg, "already existing"):
			return actAlreadyExists
		case strings.Contains(msg, "could not find"), strings.Contains(msg, "does not exist"):
			return actNotFound
		case strings.Contains(msg, "already stopped"), strings.Contains(msg, "in stopped status"):
			return actAlreadyStopped
		}
	}
	return actPassThrough
}

func isAlreadyExists(err error) bool { return classifyRemote(err) == actAlreadyExists }

func isAlreadyStopped(err error) bool { return classifyRemote(err) == actAlreadyStopped }

func isNotFound(err error) bool { return classifyRemote(err) == actNotFound }

// notFoundError wraps ErrDoesNotExist with the entity identity while keeping
// the remote error in the chain.
func notFoundError(kind, name string, err error) error {
	return fmt.Errorf("%s %q %w: %v", kind, name, ErrDoesNotExist, err)
}
