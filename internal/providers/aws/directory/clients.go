package directory

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/identitystore"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin"
)

// ---------------------------------------------------------------------------
// Per-service client interfaces
//
// Narrow interfaces covering only the operations the gateway uses. Tests
// satisfy these with canned fakes instead of real SDK clients. The method
// sets also satisfy the SDK's generated *APIClient paginator interfaces.
// ---------------------------------------------------------------------------

// SSOAdminAPI is the subset of SSO Admin operations used by the gateway.
type SSOAdminAPI interface {
	ListInstances(
		ctx context.Context,
		params *ssoadmin.ListInstancesInput,
		optFns ...func(*ssoadmin.Options),
	) (*ssoadmin.ListInstancesOutput, error)

	ListPermissionSetsProvisionedToAccount(
		ctx context.Context,
		params *ssoadmin.ListPermissionSetsProvisionedToAccountInput,
		optFns ...func(*ssoadmin.Options),
	) (*ssoadmin.ListPermissionSetsProvisionedToAccountOutput, error)

	DescribePermissionSet(
		ctx context.Context,
		params *ssoadmin.DescribePermissionSetInput,
		optFns ...func(*ssoadmin.Options),
	) (*ssoadmin.DescribePermissionSetOutput, error)

	ListAccountAssignments(
		ctx context.Context,
		params *ssoadmin.ListAccountAssignmentsInput,
		optFns ...func(*ssoadmin.Options),
	) (*ssoadmin.ListAccountAssignmentsOutput, error)

	ListManagedPoliciesInPermissionSet(
		ctx context.Context,
		params *ssoadmin.ListManagedPoliciesInPermissionSetInput,
		optFns ...func(*ssoadmin.Options),
	) (*ssoadmin.ListManagedPoliciesInPermissionSetOutput, error)

	ListCustomerManagedPolicyReferencesInPermissionSet(
		ctx context.Context,
		params *ssoadmin.ListCustomerManagedPolicyReferencesInPermissionSetInput,
		optFns ...func(*ssoadmin.Options),
	) (*ssoadmin.ListCustomerManagedPolicyReferencesInPermissionSetOutput, error)

	GetInlinePolicyForPermissionSet(
		ctx context.Context,
		params *ssoadmin.GetInlinePolicyForPermissionSetInput,
		optFns ...func(*ssoadmin.Options),
	) (*ssoadmin.GetInlinePolicyForPermissionSetOutput, error)
}

// IdentityStoreAPI is the subset of Identity Store operations used by the gateway.
type IdentityStoreAPI interface {
	ListGroups(
		ctx context.Context,
		params *identitystore.ListGroupsInput,
		optFns ...func(*identitystore.Options),
	) (*identitystore.ListGroupsOutput, error)

	DescribeGroup(
		ctx context.Context,
		params *identitystore.DescribeGroupInput,
		optFns ...func(*identitystore.Options),
	) (*identitystore.DescribeGroupOutput, error)

	ListGroupMemberships(
		ctx context.Context,
		params *identitystore.ListGroupMembershipsInput,
		optFns ...func(*identitystore.Options),
	) (*identitystore.ListGroupMembershipsOutput, error)

	DescribeUser(
		ctx context.Context,
		params *identitystore.DescribeUserInput,
		optFns ...func(*identitystore.Options),
	) (*identitystore.DescribeUserOutput, error)
}

// OrganizationsAPI covers the single Organizations operation used for
// account-name enrichment.
type OrganizationsAPI interface {
	DescribeAccount(
		ctx context.Context,
		params *organizations.DescribeAccountInput,
		optFns ...func(*organizations.Options),
	) (*organizations.DescribeAccountOutput, error)
}

// ---------------------------------------------------------------------------
// Clients and ClientFactory
// ---------------------------------------------------------------------------

// Clients holds the initialised Identity Center service clients the gateway
// drives. All fields are interfaces so tests can inject fakes.
type Clients struct {
	SSOAdmin      SSOAdminAPI
	IdentityStore IdentityStoreAPI
	Organizations OrganizationsAPI
}

// ClientFactory creates a Clients set from an aws.Config.
// Swap this in tests to inject mock clients.
type ClientFactory func(cfg aws.Config) *Clients

// NewClients is the production ClientFactory.
func NewClients(cfg aws.Config) *Clients {
	return &Clients{
		SSOAdmin:      ssoadmin.NewFromConfig(cfg),
		IdentityStore: identitystore.NewFromConfig(cfg),
		Organizations: organizations.NewFromConfig(cfg),
	}
}
