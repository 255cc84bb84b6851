package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/identitystore"
	identitytypes "github.com/aws/aws-sdk-go-v2/service/identitystore/types"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin"

	"github.com/cpk-labs/sso-access-auditor/internal/models"
)

// DefaultDirectoryGateway is the production DirectoryGateway. It drives the
// SSO Admin and Identity Store APIs through narrow client interfaces and
// caches the discovered instance context for its lifetime.
//
// Safe for concurrent use: the engine fans out per-permission-set and
// per-group calls against a single gateway instance.
type DefaultDirectoryGateway struct {
	clients *Clients

	mu   sync.Mutex
	inst *models.InstanceContext
}

// NewDefaultDirectoryGateway returns a gateway backed by real AWS SDK clients
// constructed from cfg.
func NewDefaultDirectoryGateway(cfg aws.Config) *DefaultDirectoryGateway {
	return NewDefaultDirectoryGatewayWithClients(NewClients(cfg))
}

// NewDefaultDirectoryGatewayWithClients returns a gateway that uses the
// supplied clients. Pass fakes in tests.
func NewDefaultDirectoryGatewayWithClients(clients *Clients) *DefaultDirectoryGateway {
	return &DefaultDirectoryGateway{clients: clients}
}

// DescribeInstance implements DirectoryGateway. The first Identity Center
// instance is used; AWS supports exactly one per organization.
func (g *DefaultDirectoryGateway) DescribeInstance(ctx context.Context) (models.InstanceContext, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inst != nil {
		return *g.inst, nil
	}

	out, err := g.clients.SSOAdmin.ListInstances(ctx, &ssoadmin.ListInstancesInput{})
	if err != nil {
		return models.InstanceContext{}, classify("sso-admin ListInstances", err)
	}
	if len(out.Instances) == 0 {
		return models.InstanceContext{}, ErrNoInstance
	}

	g.inst = &models.InstanceContext{
		InstanceArn:     aws.ToString(out.Instances[0].InstanceArn),
		IdentityStoreID: aws.ToString(out.Instances[0].IdentityStoreId),
	}
	return *g.inst, nil
}

// ListGroups implements DirectoryGateway.
func (g *DefaultDirectoryGateway) ListGroups(ctx context.Context) ([]models.GroupRecord, error) {
	inst, err := g.DescribeInstance(ctx)
	if err != nil {
		return nil, err
	}

	paginator := identitystore.NewListGroupsPaginator(g.clients.IdentityStore, &identitystore.ListGroupsInput{
		IdentityStoreId: aws.String(inst.IdentityStoreID),
	})

	var groups []models.GroupRecord
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify("identitystore ListGroups", err)
		}
		for _, grp := range page.Groups {
			groups = append(groups, models.GroupRecord{
				GroupID:     aws.ToString(grp.GroupId),
				DisplayName: aws.ToString(grp.DisplayName),
				Description: aws.ToString(grp.Description),
			})
		}
	}
	return groups, nil
}

// ListGroupMembers implements DirectoryGateway. Memberships are paginated;
// each member is resolved via DescribeUser. A NotFound on the user lookup
// produces an id-only stub user rather than failing the group.
func (g *DefaultDirectoryGateway) ListGroupMembers(ctx context.Context, groupID string) ([]models.User, error) {
	inst, err := g.DescribeInstance(ctx)
	if err != nil {
		return nil, err
	}

	paginator := identitystore.NewListGroupMembershipsPaginator(g.clients.IdentityStore, &identitystore.ListGroupMembershipsInput{
		IdentityStoreId: aws.String(inst.IdentityStoreID),
		GroupId:         aws.String(groupID),
	})

	var members []models.User
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(fmt.Sprintf("identitystore ListGroupMemberships %s", groupID), err)
		}
		for _, m := range page.GroupMemberships {
			userID, ok := memberUserID(m.MemberId)
			if !ok {
				continue // non-user member shapes are not part of the audit
			}
			user, err := g.describeUser(ctx, inst.IdentityStoreID, userID)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					// Dangling user reference: keep the id, drop the metadata.
					members = append(members, models.User{UserID: userID})
					continue
				}
				return nil, err
			}
			members = append(members, user)
		}
	}
	return members, nil
}

// ListPermissionSets implements DirectoryGateway.
func (g *DefaultDirectoryGateway) ListPermissionSets(ctx context.Context, accountID string) ([]string, error) {
	inst, err := g.DescribeInstance(ctx)
	if err != nil {
		return nil, err
	}

	paginator := ssoadmin.NewListPermissionSetsProvisionedToAccountPaginator(g.clients.SSOAdmin,
		&ssoadmin.ListPermissionSetsProvisionedToAccountInput{
			InstanceArn: aws.String(inst.InstanceArn),
			AccountId:   aws.String(accountID),
		})

	var arns []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify("sso-admin ListPermissionSetsProvisionedToAccount", err)
		}
		arns = append(arns, page.PermissionSets...)
	}
	return arns, nil
}

// DescribePermissionSet implements DirectoryGateway. The detail record and
// the three policy listings are fetched together so the caller receives one
// complete PermissionSetRecord per ARN.
func (g *DefaultDirectoryGateway) DescribePermissionSet(ctx context.Context, permissionSetArn string) (models.PermissionSetRecord, error) {
	inst, err := g.DescribeInstance(ctx)
	if err != nil {
		return models.PermissionSetRecord{}, err
	}

	out, err := g.clients.SSOAdmin.DescribePermissionSet(ctx, &ssoadmin.DescribePermissionSetInput{
		InstanceArn:      aws.String(inst.InstanceArn),
		PermissionSetArn: aws.String(permissionSetArn),
	})
	if err != nil {
		return models.PermissionSetRecord{}, classify(fmt.Sprintf("sso-admin DescribePermissionSet %s", permissionSetArn), err)
	}

	rec := models.PermissionSetRecord{Arn: permissionSetArn}
	if ps := out.PermissionSet; ps != nil {
		rec.Name = aws.ToString(ps.Name)
		rec.Description = aws.ToString(ps.Description)
		rec.CreatedDate = ps.CreatedDate
		rec.SessionDuration = aws.ToString(ps.SessionDuration)
	}

	bundle, err := g.collectPolicyBundle(ctx, inst.InstanceArn, permissionSetArn)
	if err != nil {
		return models.PermissionSetRecord{}, err
	}
	rec.Policies = bundle
	return rec, nil
}

// ListAccountAssignments implements DirectoryGateway.
func (g *DefaultDirectoryGateway) ListAccountAssignments(ctx context.Context, accountID, permissionSetArn string) ([]models.AssignmentRecord, error) {
	inst, err := g.DescribeInstance(ctx)
	if err != nil {
		return nil, err
	}

	paginator := ssoadmin.NewListAccountAssignmentsPaginator(g.clients.SSOAdmin, &ssoadmin.ListAccountAssignmentsInput{
		InstanceArn:      aws.String(inst.InstanceArn),
		AccountId:        aws.String(accountID),
		PermissionSetArn: aws.String(permissionSetArn),
	})

	var assignments []models.AssignmentRecord
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(fmt.Sprintf("sso-admin ListAccountAssignments %s", permissionSetArn), err)
		}
		for _, a := range page.AccountAssignments {
			assignments = append(assignments, models.AssignmentRecord{
				PrincipalID:      aws.ToString(a.PrincipalId),
				PrincipalType:    string(a.PrincipalType),
				PermissionSetArn: aws.ToString(a.PermissionSetArn),
				AccountID:        aws.ToString(a.AccountId),
			})
		}
	}
	return assignments, nil
}

// AccountName implements DirectoryGateway.
func (g *DefaultDirectoryGateway) AccountName(ctx context.Context, accountID string) (string, error) {
	out, err := g.clients.Organizations.DescribeAccount(ctx, &organizations.DescribeAccountInput{
		AccountId: aws.String(accountID),
	})
	if err != nil {
		return "", classify(fmt.Sprintf("organizations DescribeAccount %s", accountID), err)
	}
	if out.Account == nil {
		return "", nil
	}
	return aws.ToString(out.Account.Name), nil
}

// ---------------------------------------------------------------------------
// Package-private helpers
// ---------------------------------------------------------------------------

// describeUser resolves one user's metadata. The first listed email is used;
// Identity Store returns the primary address first when one is marked.
func (g *DefaultDirectoryGateway) describeUser(ctx context.Context, identityStoreID, userID string) (models.User, error) {
	out, err := g.clients.IdentityStore.DescribeUser(ctx, &identitystore.DescribeUserInput{
		IdentityStoreId: aws.String(identityStoreID),
		UserId:          aws.String(userID),
	})
	if err != nil {
		return models.User{}, classify(fmt.Sprintf("identitystore DescribeUser %s", userID), err)
	}

	user := models.User{
		UserID:      aws.ToString(out.UserId),
		UserName:    aws.ToString(out.UserName),
		DisplayName: aws.ToString(out.DisplayName),
	}
	if user.UserID == "" {
		user.UserID = userID
	}
	if user.DisplayName == "" {
		user.DisplayName = user.UserName
	}
	if len(out.Emails) > 0 {
		user.Email = aws.ToString(out.Emails[0].Value)
	}
	return user, nil
}

// collectPolicyBundle gathers the managed policies, customer-managed policy
// references, and optional inline policy of one permission set.
func (g *DefaultDirectoryGateway) collectPolicyBundle(ctx context.Context, instanceArn, permissionSetArn string) (models.PolicyBundle, error) {
	bundle := models.PolicyBundle{
		ManagedPolicies:         []models.ManagedPolicy{},
		CustomerManagedPolicies: []models.CustomerManagedPolicy{},
	}

	managed := ssoadmin.NewListManagedPoliciesInPermissionSetPaginator(g.clients.SSOAdmin,
		&ssoadmin.ListManagedPoliciesInPermissionSetInput{
			InstanceArn:      aws.String(instanceArn),
			PermissionSetArn: aws.String(permissionSetArn),
		})
	for managed.HasMorePages() {
		page, err := managed.NextPage(ctx)
		if err != nil {
			return models.PolicyBundle{}, classify(fmt.Sprintf("sso-admin ListManagedPoliciesInPermissionSet %s", permissionSetArn), err)
		}
		for _, p := range page.AttachedManagedPolicies {
			bundle.ManagedPolicies = append(bundle.ManagedPolicies, models.ManagedPolicy{
				Name: aws.ToString(p.Name),
				Arn:  aws.ToString(p.Arn),
			})
		}
	}

	customer := ssoadmin.NewListCustomerManagedPolicyReferencesInPermissionSetPaginator(g.clients.SSOAdmin,
		&ssoadmin.ListCustomerManagedPolicyReferencesInPermissionSetInput{
			InstanceArn:      aws.String(instanceArn),
			PermissionSetArn: aws.String(permissionSetArn),
		})
	for customer.HasMorePages() {
		page, err := customer.NextPage(ctx)
		if err != nil {
			return models.PolicyBundle{}, classify(fmt.Sprintf("sso-admin ListCustomerManagedPolicyReferencesInPermissionSet %s", permissionSetArn), err)
		}
		for _, ref := range page.CustomerManagedPolicyReferences {
			path := aws.ToString(ref.Path)
			if path == "" {
				path = "/"
			}
			bundle.CustomerManagedPolicies = append(bundle.CustomerManagedPolicies, models.CustomerManagedPolicy{
				Name: aws.ToString(ref.Name),
				Path: path,
			})
		}
	}

	inline, err := g.clients.SSOAdmin.GetInlinePolicyForPermissionSet(ctx, &ssoadmin.GetInlinePolicyForPermissionSetInput{
		InstanceArn:      aws.String(instanceArn),
		PermissionSetArn: aws.String(permissionSetArn),
	})
	if err != nil {
		// No inline policy attached surfaces as NotFound; that is the
		// common case, not a failure.
		classified := classify(fmt.Sprintf("sso-admin GetInlinePolicyForPermissionSet %s", permissionSetArn), err)
		if errors.Is(classified, ErrNotFound) {
			return bundle, nil
		}
		return models.PolicyBundle{}, classified
	}
	bundle.InlinePolicy = aws.ToString(inline.InlinePolicy)
	return bundle, nil
}

// memberUserID extracts the user id from the MemberId union. Identity Store
// currently only defines user members; other shapes return ok=false.
func memberUserID(member identitytypes.MemberId) (string, bool) {
	switch v := member.(type) {
	case *identitytypes.MemberIdMemberUserId:
		return v.Value, v.Value != ""
	default:
		return "", false
	}
}
