package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/smithy-go"
)

func apiErr(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: "test"}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"access denied", apiErr("AccessDeniedException"), ErrUnauthorized},
		{"unauthorized", apiErr("UnauthorizedException"), ErrUnauthorized},
		{"bad token", apiErr("UnrecognizedClientException"), ErrUnauthorized},
		{"expired token", apiErr("ExpiredTokenException"), ErrUnauthorized},
		{"resource not found", apiErr("ResourceNotFoundException"), ErrNotFound},
		{"not found", apiErr("NotFoundException"), ErrNotFound},
		{"throttling", apiErr("ThrottlingException"), ErrRemoteUnavailable},
		{"server fault", apiErr("InternalServerException"), ErrRemoteUnavailable},
		{"context canceled", context.Canceled, ErrRemoteUnavailable},
		{"deadline exceeded", context.DeadlineExceeded, ErrRemoteUnavailable},
		{"transport failure", errors.New("dial tcp: connection refused"), ErrRemoteUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify("sso-admin TestOp", tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("classify(%v) = %v; want sentinel %v", tt.err, got, tt.want)
			}
			// The original error stays inspectable through the wrap.
			if !errors.Is(got, tt.err) {
				t.Errorf("classify(%v) lost the original error: %v", tt.err, got)
			}
			if !strings.Contains(got.Error(), "sso-admin TestOp") {
				t.Errorf("classify message missing operation name: %v", got)
			}
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	if got := classify("op", nil); got != nil {
		t.Errorf("classify(nil) = %v; want nil", got)
	}
}

func TestClassify_WrappedAPIError(t *testing.T) {
	wrapped := fmt.Errorf("operation error SSO Admin: %w", apiErr("AccessDeniedException"))
	if got := classify("op", wrapped); !errors.Is(got, ErrUnauthorized) {
		t.Errorf("classify(wrapped) = %v; want ErrUnauthorized", got)
	}
}
