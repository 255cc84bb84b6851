package directory

import (
	"context"

	"github.com/cpk-labs/sso-access-auditor/internal/models"
)

// DirectoryGateway abstracts the remote read operations the aggregation
// engine needs from Identity Center. Each listing returns a finite,
// possibly-empty slice with pagination handled internally.
//
// Failures are classified into the package sentinels (ErrUnauthorized,
// ErrRemoteUnavailable, ErrNotFound) wrapped with the operation name.
// Retry and backoff live entirely inside the SDK's standard retryer;
// callers never retry.
//
// Implementations must never apply business logic: no edge derivation, no
// stub substitution, no filtering by principal type. That is the engine's job.
type DirectoryGateway interface {
	// DescribeInstance discovers the Identity Center instance (ARN and
	// identity store id). The result is cached for the gateway's lifetime.
	// Returns ErrNoInstance when the organization has no instance.
	DescribeInstance(ctx context.Context) (models.InstanceContext, error)

	// ListGroups returns every group in the identity store.
	ListGroups(ctx context.Context) ([]models.GroupRecord, error)

	// ListGroupMembers returns the resolved users of a group. A user whose
	// DescribeUser lookup fails with NotFound degrades to an id-only stub;
	// other user lookup failures propagate.
	ListGroupMembers(ctx context.Context, groupID string) ([]models.User, error)

	// ListPermissionSets returns the ARNs of all permission sets
	// provisioned to the given account.
	ListPermissionSets(ctx context.Context, accountID string) ([]string, error)

	// DescribePermissionSet returns the detail record for one permission
	// set, including its full policy bundle.
	DescribePermissionSet(ctx context.Context, permissionSetArn string) (models.PermissionSetRecord, error)

	// ListAccountAssignments returns the raw assignment tuples linking
	// principals to one permission set for one account.
	ListAccountAssignments(ctx context.Context, accountID, permissionSetArn string) ([]models.AssignmentRecord, error)

	// AccountName resolves the display name of an account via Organizations.
	// Enrichment only; callers treat any error as "name unknown".
	AccountName(ctx context.Context, accountID string) (string, error)
}
