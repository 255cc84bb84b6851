package engine

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/cpk-labs/sso-access-auditor/internal/models"
)

const testAccount = "111122223333"

// ── helpers ───────────────────────────────────────────────────────────────────

func grec(id, name string) models.GroupRecord {
	return models.GroupRecord{GroupID: id, DisplayName: name}
}

func psfetch(arn, name string) permissionSetFetch {
	return permissionSetFetch{record: models.PermissionSetRecord{Arn: arn, Name: name}}
}

func groupAssign(gid, arn string) models.AssignmentRecord {
	return models.AssignmentRecord{
		PrincipalID:      gid,
		PrincipalType:    models.PrincipalTypeGroup,
		PermissionSetArn: arn,
		AccountID:        testAccount,
	}
}

// groupByID returns the group with the given id, failing the test when absent.
func groupByID(t *testing.T, groups []models.Group, id string) models.Group {
	t.Helper()
	for _, g := range groups {
		if g.GroupID == id {
			return g
		}
	}
	t.Fatalf("group %q not found in resolved output", id)
	return models.Group{}
}

// psByArn returns the permission set with the given ARN, failing when absent.
func psByArn(t *testing.T, sets []models.PermissionSet, arn string) models.PermissionSet {
	t.Helper()
	for _, ps := range sets {
		if ps.Arn == arn {
			return ps
		}
	}
	t.Fatalf("permission set %q not found in resolved output", arn)
	return models.PermissionSet{}
}

func groupHasRef(g models.Group, arn string) bool {
	for _, ref := range g.PermissionSets {
		if ref.Arn == arn {
			return true
		}
	}
	return false
}

func psHasGroup(ps models.PermissionSet, gid string) bool {
	for _, id := range ps.AssignedGroups {
		if id == gid {
			return true
		}
	}
	return false
}

// ── symmetry invariant ────────────────────────────────────────────────────────

// TestResolve_EdgeSymmetry verifies that a group lists a permission set iff
// that permission set lists the group, for every pair.
func TestResolve_EdgeSymmetry(t *testing.T) {
	in := resolverInput{
		accountID: testAccount,
		groups:    []models.GroupRecord{grec("g-1", "Admins"), grec("g-2", "Devs")},
		permissionSets: []permissionSetFetch{
			psfetch("ps-a", "AdminAccess"),
			psfetch("ps-b", "ReadOnly"),
		},
		assignments: []models.AssignmentRecord{
			groupAssign("g-1", "ps-a"),
			groupAssign("g-1", "ps-b"),
			groupAssign("g-2", "ps-b"),
		},
	}

	res := resolve(in)

	for _, g := range res.groups {
		for _, ref := range g.PermissionSets {
			ps := psByArn(t, res.permissionSets, ref.Arn)
			if !psHasGroup(ps, g.GroupID) {
				t.Errorf("group %s lists %s but %s does not list the group", g.GroupID, ref.Arn, ref.Arn)
			}
		}
	}
	for _, ps := range res.permissionSets {
		for _, gid := range ps.AssignedGroups {
			g := groupByID(t, res.groups, gid)
			if !groupHasRef(g, ps.Arn) {
				t.Errorf("permission set %s lists %s but the group does not list it back", ps.Arn, gid)
			}
		}
	}
}

// ── determinism ───────────────────────────────────────────────────────────────

// TestResolve_Deterministic verifies that identical inputs produce identical
// output, including list ordering, across repeated invocations.
func TestResolve_Deterministic(t *testing.T) {
	in := resolverInput{
		accountID: testAccount,
		groups: []models.GroupRecord{
			grec("g-3", "Ops"), grec("g-1", "Admins"), grec("g-2", "Devs"),
		},
		permissionSets: []permissionSetFetch{
			psfetch("ps-b", "ReadOnly"), psfetch("ps-a", "AdminAccess"),
		},
		assignments: []models.AssignmentRecord{
			groupAssign("g-2", "ps-a"),
			groupAssign("g-9", "ps-b"), // dangling group
			groupAssign("g-1", "ps-a"),
		},
		members: map[string]memberOutcome{
			"g-1": {members: []models.User{{UserID: "u-1", UserName: "alice"}}},
		},
	}

	first := resolve(in)
	for i := 0; i < 5; i++ {
		again := resolve(in)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("resolve output differs between runs:\nfirst: %+v\nagain: %+v", first, again)
		}
	}

	// Primary listing order first, then dangling stubs in discovery order.
	wantGroups := []string{"g-3", "g-1", "g-2", "g-9"}
	for i, want := range wantGroups {
		if first.groups[i].GroupID != want {
			t.Errorf("groups[%d] = %s; want %s", i, first.groups[i].GroupID, want)
		}
	}
	wantSets := []string{"ps-b", "ps-a"}
	for i, want := range wantSets {
		if first.permissionSets[i].Arn != want {
			t.Errorf("permissionSets[%d] = %s; want %s", i, first.permissionSets[i].Arn, want)
		}
	}
}

// ── principal type filtering ──────────────────────────────────────────────────

// TestResolve_NonGroupPrincipalsIgnored verifies USER assignments never
// produce edges or stub groups.
func TestResolve_NonGroupPrincipalsIgnored(t *testing.T) {
	in := resolverInput{
		accountID:      testAccount,
		groups:         []models.GroupRecord{grec("g-1", "Admins")},
		permissionSets: []permissionSetFetch{psfetch("ps-a", "AdminAccess")},
		assignments: []models.AssignmentRecord{
			{PrincipalID: "u-77", PrincipalType: "USER", PermissionSetArn: "ps-a", AccountID: testAccount},
			groupAssign("g-1", "ps-a"),
		},
	}

	res := resolve(in)

	if res.edgeCount != 1 {
		t.Errorf("edgeCount = %d; want 1 (USER assignment must not create an edge)", res.edgeCount)
	}
	if len(res.groups) != 1 {
		t.Errorf("len(groups) = %d; want 1 (no stub for USER principal)", len(res.groups))
	}
	ps := psByArn(t, res.permissionSets, "ps-a")
	if !reflect.DeepEqual(ps.AssignedGroups, []string{"g-1"}) {
		t.Errorf("AssignedGroups = %v; want [g-1]", ps.AssignedGroups)
	}
}

// TestResolve_OtherAccountAssignmentsIgnored verifies tuples for a different
// account never produce edges.
func TestResolve_OtherAccountAssignmentsIgnored(t *testing.T) {
	other := groupAssign("g-1", "ps-a")
	other.AccountID = "999988887777"

	in := resolverInput{
		accountID:      testAccount,
		groups:         []models.GroupRecord{grec("g-1", "Admins")},
		permissionSets: []permissionSetFetch{psfetch("ps-a", "AdminAccess")},
		assignments:    []models.AssignmentRecord{other},
	}

	res := resolve(in)
	if res.edgeCount != 0 {
		t.Errorf("edgeCount = %d; want 0 for foreign-account tuple", res.edgeCount)
	}
}

// ── dangling references ───────────────────────────────────────────────────────

// TestResolve_DanglingGroupStub verifies a group id appearing only as an
// assignment endpoint materializes as an id-only stub with correct edges.
func TestResolve_DanglingGroupStub(t *testing.T) {
	in := resolverInput{
		accountID:      testAccount,
		groups:         []models.GroupRecord{grec("g-1", "Admins")},
		permissionSets: []permissionSetFetch{psfetch("ps-a", "AdminAccess")},
		assignments: []models.AssignmentRecord{
			groupAssign("g-1", "ps-a"),
			groupAssign("g-ghost", "ps-a"),
		},
	}

	res := resolve(in)

	stub := groupByID(t, res.groups, "g-ghost")
	if stub.DisplayName != "" || stub.Description != "" {
		t.Errorf("stub group has metadata: %+v", stub)
	}
	if !groupHasRef(stub, "ps-a") {
		t.Error("stub group missing its edge to ps-a")
	}
	ps := psByArn(t, res.permissionSets, "ps-a")
	if !psHasGroup(ps, "g-ghost") {
		t.Error("ps-a does not list the stub group")
	}
	// Dangling references recover in place; they are not partial failures.
	if res.partiallyFailed {
		t.Error("partiallyFailed = true; dangling group stub must not set it")
	}
}

// ── member outcomes ───────────────────────────────────────────────────────────

// TestResolve_MemberFailureIsolated verifies one group's failed member fetch
// flags only that group and leaves the rest untouched.
func TestResolve_MemberFailureIsolated(t *testing.T) {
	in := resolverInput{
		accountID:      testAccount,
		groups:         []models.GroupRecord{grec("g-1", "Admins"), grec("g-2", "Devs")},
		permissionSets: []permissionSetFetch{psfetch("ps-a", "AdminAccess")},
		assignments:    []models.AssignmentRecord{groupAssign("g-1", "ps-a")},
		members: map[string]memberOutcome{
			"g-1": {members: []models.User{{UserID: "u-1", UserName: "alice"}}},
			"g-2": {failed: true},
		},
	}

	res := resolve(in)

	ok := groupByID(t, res.groups, "g-1")
	if ok.MembersIncomplete || len(ok.Members) != 1 {
		t.Errorf("healthy group affected: %+v", ok)
	}
	bad := groupByID(t, res.groups, "g-2")
	if !bad.MembersIncomplete {
		t.Error("failed group not flagged MembersIncomplete")
	}
	if len(bad.Members) != 0 {
		t.Errorf("failed group has %d members; want 0", len(bad.Members))
	}
	if !res.partiallyFailed {
		t.Error("partiallyFailed = false; want true")
	}
	if !reflect.DeepEqual(res.incompleteGroups, []string{"g-2"}) {
		t.Errorf("incompleteGroups = %v; want [g-2]", res.incompleteGroups)
	}
}

// ── duplicates ────────────────────────────────────────────────────────────────

// TestResolve_DuplicateListingsLastSeenWins verifies duplicate records
// overwrite rather than append, keeping the first-seen position.
func TestResolve_DuplicateListingsLastSeenWins(t *testing.T) {
	in := resolverInput{
		accountID: testAccount,
		groups: []models.GroupRecord{
			grec("g-1", "Old Name"),
			grec("g-2", "Devs"),
			grec("g-1", "New Name"), // renamed between pages
		},
		permissionSets: []permissionSetFetch{
			psfetch("ps-a", "OldPS"),
			psfetch("ps-a", "NewPS"),
		},
	}

	res := resolve(in)

	if len(res.groups) != 2 {
		t.Fatalf("len(groups) = %d; want 2", len(res.groups))
	}
	if res.groups[0].GroupID != "g-1" || res.groups[0].DisplayName != "New Name" {
		t.Errorf("groups[0] = %+v; want g-1 with last-seen name", res.groups[0])
	}
	if len(res.permissionSets) != 1 || res.permissionSets[0].Name != "NewPS" {
		t.Errorf("permissionSets = %+v; want single ps-a with last-seen name", res.permissionSets)
	}
}

// TestResolve_DuplicateAssignmentsDeduplicated verifies repeated tuples for
// the same (group, permission set) pair count as one edge.
func TestResolve_DuplicateAssignmentsDeduplicated(t *testing.T) {
	in := resolverInput{
		accountID:      testAccount,
		groups:         []models.GroupRecord{grec("g-1", "Admins")},
		permissionSets: []permissionSetFetch{psfetch("ps-a", "AdminAccess")},
		assignments: []models.AssignmentRecord{
			groupAssign("g-1", "ps-a"),
			groupAssign("g-1", "ps-a"),
		},
	}

	res := resolve(in)

	if res.edgeCount != 1 {
		t.Errorf("edgeCount = %d; want 1", res.edgeCount)
	}
	g := groupByID(t, res.groups, "g-1")
	if len(g.PermissionSets) != 1 {
		t.Errorf("group has %d refs; want 1", len(g.PermissionSets))
	}
}

// ── summary drift ─────────────────────────────────────────────────────────────

// TestResolve_ThirteenAssignmentScenario runs the 3-group / 5-set / 13-edge
// scenario and checks the counts and full symmetry of the result.
func TestResolve_ThirteenAssignmentScenario(t *testing.T) {
	groups := []models.GroupRecord{
		grec("g-1", "Admins"), grec("g-2", "Devs"), grec("g-3", "Ops"),
	}
	var sets []permissionSetFetch
	for i := 1; i <= 5; i++ {
		arn := fmt.Sprintf("ps-%d", i)
		sets = append(sets, psfetch(arn, fmt.Sprintf("Set%d", i)))
	}

	// 13 distinct (group, set) pairs out of the 15 possible.
	var assignments []models.AssignmentRecord
	skip := map[[2]string]bool{
		{"g-2", "ps-5"}: true,
		{"g-3", "ps-1"}: true,
	}
	for _, g := range []string{"g-1", "g-2", "g-3"} {
		for i := 1; i <= 5; i++ {
			arn := fmt.Sprintf("ps-%d", i)
			if skip[[2]string{g, arn}] {
				continue
			}
			assignments = append(assignments, groupAssign(g, arn))
		}
	}
	if len(assignments) != 13 {
		t.Fatalf("test setup produced %d assignments; want 13", len(assignments))
	}

	res := resolve(resolverInput{
		accountID:      testAccount,
		groups:         groups,
		permissionSets: sets,
		assignments:    assignments,
	})

	if len(res.groups) != 3 {
		t.Errorf("len(groups) = %d; want 3", len(res.groups))
	}
	if len(res.permissionSets) != 5 {
		t.Errorf("len(permissionSets) = %d; want 5", len(res.permissionSets))
	}
	if res.edgeCount != 13 {
		t.Errorf("edgeCount = %d; want 13", res.edgeCount)
	}

	// Every implied pair must appear symmetrically.
	for _, a := range assignments {
		g := groupByID(t, res.groups, a.PrincipalID)
		if !groupHasRef(g, a.PermissionSetArn) {
			t.Errorf("group %s missing ref %s", a.PrincipalID, a.PermissionSetArn)
		}
		ps := psByArn(t, res.permissionSets, a.PermissionSetArn)
		if !psHasGroup(ps, a.PrincipalID) {
			t.Errorf("permission set %s missing group %s", a.PermissionSetArn, a.PrincipalID)
		}
	}

	// No drift: the counts equal the cardinalities of the final lists.
	totalRefs := 0
	for _, g := range res.groups {
		totalRefs += len(g.PermissionSets)
	}
	totalAssigned := 0
	for _, ps := range res.permissionSets {
		totalAssigned += len(ps.AssignedGroups)
	}
	if totalRefs != res.edgeCount || totalAssigned != res.edgeCount {
		t.Errorf("edge drift: refs=%d assigned=%d count=%d", totalRefs, totalAssigned, res.edgeCount)
	}
}

// ── group fetch order ─────────────────────────────────────────────────────────

// TestGroupFetchOrder verifies the member-fetch universe is the primary
// listing plus dangling endpoints, deduplicated, in stable order.
func TestGroupFetchOrder(t *testing.T) {
	groups := []models.GroupRecord{grec("g-1", "Admins"), grec("g-2", "Devs")}
	assignments := []models.AssignmentRecord{
		groupAssign("g-2", "ps-a"),
		groupAssign("g-9", "ps-a"),
		{PrincipalID: "u-1", PrincipalType: "USER", PermissionSetArn: "ps-a", AccountID: testAccount},
		groupAssign("g-9", "ps-b"),
	}

	got := groupFetchOrder(groups, assignments, testAccount)
	want := []string{"g-1", "g-2", "g-9"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("groupFetchOrder = %v; want %v", got, want)
	}
}
