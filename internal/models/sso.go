package models

import "time"

// ---------------------------------------------------------------------------
// Directory Gateway record types
//
// Raw records returned by the gateway, one fixed-field struct per remote
// collection. Unknown or missing optional fields from the API become empty
// values here; validation happens at the gateway boundary, never downstream.
// ---------------------------------------------------------------------------

// InstanceContext identifies the Identity Center instance an audit runs
// against. Discovered once per run via ListInstances.
type InstanceContext struct {
	InstanceArn     string `json:"instance_arn" yaml:"instance_arn"`
	IdentityStoreID string `json:"identity_store_id" yaml:"identity_store_id"`
}

// GroupRecord is a raw identity-store group from the primary listing.
type GroupRecord struct {
	GroupID     string `json:"group_id" yaml:"group_id"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// PermissionSetRecord is a raw permission set with its resolved policy bundle.
type PermissionSetRecord struct {
	Arn             string       `json:"arn" yaml:"arn"`
	Name            string       `json:"name" yaml:"name"`
	Description     string       `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedDate     *time.Time   `json:"created_date,omitempty" yaml:"created_date,omitempty"`
	SessionDuration string       `json:"session_duration,omitempty" yaml:"session_duration,omitempty"`
	Policies        PolicyBundle `json:"policies" yaml:"policies"`
}

// AssignmentRecord is one raw account-assignment tuple: a fact linking a
// principal, a permission set, and an account. Consumed entirely during
// resolution; never retained in the final report.
type AssignmentRecord struct {
	PrincipalID      string `json:"principal_id" yaml:"principal_id"`
	PrincipalType    string `json:"principal_type" yaml:"principal_type"`
	PermissionSetArn string `json:"permission_set_arn" yaml:"permission_set_arn"`
	AccountID        string `json:"account_id" yaml:"account_id"`
}

// PrincipalTypeGroup is the only principal type that produces access edges;
// assignments with any other type are ignored during resolution.
const PrincipalTypeGroup = "GROUP"

// ---------------------------------------------------------------------------
// Policy bundle
// ---------------------------------------------------------------------------

// ManagedPolicy is an AWS-managed policy attached to a permission set.
type ManagedPolicy struct {
	Name string `json:"name" yaml:"name"`
	Arn  string `json:"arn" yaml:"arn"`
}

// CustomerManagedPolicy references a customer-managed policy by name and path.
// The policy document itself lives in the target account and is not retrieved.
type CustomerManagedPolicy struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// PolicyBundle groups every policy attachment of a permission set.
// InlinePolicy holds the raw JSON document, empty when none exists.
type PolicyBundle struct {
	ManagedPolicies         []ManagedPolicy         `json:"managed_policies" yaml:"managed_policies"`
	CustomerManagedPolicies []CustomerManagedPolicy `json:"customer_managed_policies" yaml:"customer_managed_policies"`
	InlinePolicy            string                  `json:"inline_policy,omitempty" yaml:"inline_policy,omitempty"`
}

// ---------------------------------------------------------------------------
// Resolved report entities
// ---------------------------------------------------------------------------

// User is a resolved identity-store user. A user whose lookup failed is
// represented by its identifier alone (dangling reference, not an error).
type User struct {
	UserID      string `json:"user_id" yaml:"user_id"`
	UserName    string `json:"user_name,omitempty" yaml:"user_name,omitempty"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
}

// PermissionSetRef is a resolved reference from a group to a permission set.
// Name is empty when the permission set's detail lookup failed.
type PermissionSetRef struct {
	Arn  string `json:"arn" yaml:"arn"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Group is a resolved group with its members and assigned permission sets.
// Immutable after resolution. A group known only from assignment edges is a
// stub: identifier set, metadata empty.
type Group struct {
	GroupID        string             `json:"group_id" yaml:"group_id"`
	DisplayName    string             `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Description    string             `json:"description,omitempty" yaml:"description,omitempty"`
	Members        []User             `json:"members" yaml:"members"`
	PermissionSets []PermissionSetRef `json:"permission_sets" yaml:"permission_sets"`

	// MembersIncomplete marks a group whose member fetch failed; the run
	// continues with an empty member list rather than aborting.
	MembersIncomplete bool `json:"members_incomplete,omitempty" yaml:"members_incomplete,omitempty"`
}

// PermissionSet is a resolved permission set with its policy bundle and the
// derived set of assigned group ids.
type PermissionSet struct {
	Arn             string       `json:"arn" yaml:"arn"`
	Name            string       `json:"name,omitempty" yaml:"name,omitempty"`
	Description     string       `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedDate     *time.Time   `json:"created_date,omitempty" yaml:"created_date,omitempty"`
	SessionDuration string       `json:"session_duration,omitempty" yaml:"session_duration,omitempty"`
	Policies        PolicyBundle `json:"policies" yaml:"policies"`

	// AssignedGroups is derived from the assignment edge set, never from
	// source data. It mirrors each listed group's PermissionSets entry.
	AssignedGroups []string `json:"assigned_groups" yaml:"assigned_groups"`

	// DetailIncomplete marks a permission set whose detail lookup failed;
	// only the ARN and derived edges are populated.
	DetailIncomplete bool `json:"detail_incomplete,omitempty" yaml:"detail_incomplete,omitempty"`
}

// AuditSummary holds the top-level counts of the report. TotalAssignments is
// the cardinality of the deduplicated group↔permission-set edge set.
type AuditSummary struct {
	TotalGroups         int `json:"total_groups" yaml:"total_groups"`
	TotalPermissionSets int `json:"total_permission_sets" yaml:"total_permission_sets"`
	TotalAssignments    int `json:"total_assignments" yaml:"total_assignments"`
}

// AuditMetadata describes the run that produced a report.
type AuditMetadata struct {
	GeneratedAt     time.Time `json:"generated_at" yaml:"generated_at"`
	AccountID       string    `json:"account_id" yaml:"account_id"`
	AccountName     string    `json:"account_name,omitempty" yaml:"account_name,omitempty"`
	InstanceArn     string    `json:"sso_instance_arn" yaml:"sso_instance_arn"`
	IdentityStoreID string    `json:"identity_store_id" yaml:"identity_store_id"`
	Region          string    `json:"region,omitempty" yaml:"region,omitempty"`
	AuditorVersion  string    `json:"auditor_version" yaml:"auditor_version"`
}

// AuditReport is the aggregate root returned by one audit run. It is built
// once, never mutated after being returned, and owned by the caller.
type AuditReport struct {
	Metadata AuditMetadata `json:"metadata" yaml:"metadata"`

	// Name-only views for quick scanning; same order as the full lists.
	GroupNames         []string `json:"sso_groups_summary" yaml:"sso_groups_summary"`
	PermissionSetNames []string `json:"sso_permission_sets_summary" yaml:"sso_permission_sets_summary"`

	Groups         []Group         `json:"sso_groups" yaml:"sso_groups"`
	PermissionSets []PermissionSet `json:"permission_sets" yaml:"permission_sets"`
	Summary        AuditSummary    `json:"summary" yaml:"summary"`

	// EmptyResult is set when the account has no provisioned permission sets
	// (or resolves to zero groups). Not an error: the caller decides whether
	// an empty account is expected.
	EmptyResult bool `json:"empty_result,omitempty" yaml:"empty_result,omitempty"`

	// PartiallyFailed is set when any member or permission-set detail fetch
	// degraded to a stub. IncompleteGroups lists the affected group ids.
	PartiallyFailed  bool     `json:"partially_failed,omitempty" yaml:"partially_failed,omitempty"`
	IncompleteGroups []string `json:"incomplete_groups,omitempty" yaml:"incomplete_groups,omitempty"`
}
