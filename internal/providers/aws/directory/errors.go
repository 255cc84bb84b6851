package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// Sentinel errors for the gateway failure taxonomy. Callers distinguish
// conditions with errors.Is; the wrapped message names the failing operation.
var (
	// ErrUnauthorized covers authentication and authorization failures.
	// Fatal for the whole audit: the caller must fix credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRemoteUnavailable covers transient remote failures that survived
	// the SDK's retries. Fatal for the run; the caller may retry later.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrNotFound means the referenced id does not exist. Non-fatal for
	// member and permission-set detail lookups (partial-data condition).
	ErrNotFound = errors.New("not found")

	// ErrNoInstance means the credentials can reach SSO Admin but no
	// Identity Center instance exists for the organization.
	ErrNoInstance = errors.New("no Identity Center instance found")
)

// classify maps an SDK error to one of the gateway sentinels, wrapping both
// the sentinel and the original error so callers can inspect either.
// op names the remote operation for the surfaced message.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, ErrRemoteUnavailable, err)
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "AccessDeniedException",
			"UnauthorizedException",
			"UnrecognizedClientException",
			"InvalidClientTokenId",
			"ExpiredTokenException":
			return fmt.Errorf("%s: %w: %w", op, ErrUnauthorized, err)
		case "ResourceNotFoundException",
			"ResourceNotFound",
			"NotFoundException":
			return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
		}
		// Server faults and throttling that exhausted the SDK retryer are
		// both "try again later" from the audit's point of view.
		return fmt.Errorf("%s: %w: %w", op, ErrRemoteUnavailable, err)
	}

	// Non-API errors (DNS, TLS, connection resets) are transport failures.
	return fmt.Errorf("%s: %w: %w", op, ErrRemoteUnavailable, err)
}
