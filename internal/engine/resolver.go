package engine

import "github.com/cpk-labs/sso-access-auditor/internal/models"

// ---------------------------------------------------------------------------
// Reference resolution
//
// resolve turns the raw, independently-keyed collections gathered by the
// fetch phases into the cross-referenced access graph. It runs strictly
// after all fan-out phases have settled and touches no remote state, so it
// needs no locking. Output ordering is first-seen order from the primary
// listings, with stub entities appended in edge-discovery order, making
// repeated runs over identical backing data byte-identical.
// ---------------------------------------------------------------------------

// permissionSetFetch is one permission set detail outcome. incomplete marks
// a detail lookup that failed (NotFound); only the ARN is trustworthy then.
type permissionSetFetch struct {
	record     models.PermissionSetRecord
	incomplete bool
}

// memberOutcome is one group's member fetch outcome. failed marks a
// partial-data condition: the group keeps an empty member list and the
// report carries the incompleteness flag instead of an error.
type memberOutcome struct {
	members []models.User
	failed  bool
}

// resolverInput carries everything resolution needs. assignments are
// concatenated in permission-set listing order so edge discovery is stable.
type resolverInput struct {
	accountID      string
	groups         []models.GroupRecord
	permissionSets []permissionSetFetch
	assignments    []models.AssignmentRecord
	members        map[string]memberOutcome
}

// resolved is the normalized graph handed back to the engine.
type resolved struct {
	groups           []models.Group
	permissionSets   []models.PermissionSet
	edgeCount        int
	incompleteGroups []string
	partiallyFailed  bool
}

// resolve builds the bidirectional group↔permission-set indices and
// materializes the final entities. Both directions of every edge come from
// the same deduplicated edge set, which guarantees the symmetry invariant
// by construction.
func resolve(in resolverInput) resolved {
	// Index the primary listings. Later duplicates overwrite the record
	// (last-seen wins, for freshness) but keep the first-seen position.
	groupOrder := make([]string, 0, len(in.groups))
	groupByID := make(map[string]models.GroupRecord, len(in.groups))
	for _, g := range in.groups {
		if _, seen := groupByID[g.GroupID]; !seen {
			groupOrder = append(groupOrder, g.GroupID)
		}
		groupByID[g.GroupID] = g
	}

	psOrder := make([]string, 0, len(in.permissionSets))
	psByArn := make(map[string]permissionSetFetch, len(in.permissionSets))
	for _, ps := range in.permissionSets {
		if _, seen := psByArn[ps.record.Arn]; !seen {
			psOrder = append(psOrder, ps.record.Arn)
		}
		psByArn[ps.record.Arn] = ps
	}

	// Derive the edge set from the assignment tuples. Only GROUP principals
	// linked to the audited account produce edges; everything else is
	// ignored. Ids appearing only here become stubs, appended in discovery
	// order.
	seenEdges := make(map[[2]string]struct{})
	groupEdges := make(map[string][]string) // group id → permission set arns
	psEdges := make(map[string][]string)    // permission set arn → group ids
	edgeCount := 0

	for _, a := range in.assignments {
		if a.PrincipalType != models.PrincipalTypeGroup {
			continue
		}
		if a.AccountID != "" && a.AccountID != in.accountID {
			continue
		}
		gid, arn := a.PrincipalID, a.PermissionSetArn
		if gid == "" || arn == "" {
			continue
		}

		if _, known := groupByID[gid]; !known {
			groupByID[gid] = models.GroupRecord{GroupID: gid}
			groupOrder = append(groupOrder, gid)
		}
		if _, known := psByArn[arn]; !known {
			psByArn[arn] = permissionSetFetch{
				record:     models.PermissionSetRecord{Arn: arn},
				incomplete: true,
			}
			psOrder = append(psOrder, arn)
		}

		edge := [2]string{gid, arn}
		if _, dup := seenEdges[edge]; dup {
			continue
		}
		seenEdges[edge] = struct{}{}
		groupEdges[gid] = append(groupEdges[gid], arn)
		psEdges[arn] = append(psEdges[arn], gid)
		edgeCount++
	}

	out := resolved{
		groups:         make([]models.Group, 0, len(groupOrder)),
		permissionSets: make([]models.PermissionSet, 0, len(psOrder)),
		edgeCount:      edgeCount,
	}

	for _, gid := range groupOrder {
		rec := groupByID[gid]
		outcome := in.members[gid]

		refs := make([]models.PermissionSetRef, 0, len(groupEdges[gid]))
		for _, arn := range groupEdges[gid] {
			refs = append(refs, models.PermissionSetRef{
				Arn:  arn,
				Name: psByArn[arn].record.Name,
			})
		}

		members := outcome.members
		if members == nil {
			members = []models.User{}
		}

		out.groups = append(out.groups, models.Group{
			GroupID:           rec.GroupID,
			DisplayName:       rec.DisplayName,
			Description:       rec.Description,
			Members:           members,
			PermissionSets:    refs,
			MembersIncomplete: outcome.failed,
		})

		if outcome.failed {
			out.incompleteGroups = append(out.incompleteGroups, gid)
			out.partiallyFailed = true
		}
	}

	for _, arn := range psOrder {
		fetch := psByArn[arn]
		rec := fetch.record

		assigned := psEdges[arn]
		if assigned == nil {
			assigned = []string{}
		}

		out.permissionSets = append(out.permissionSets, models.PermissionSet{
			Arn:              rec.Arn,
			Name:             rec.Name,
			Description:      rec.Description,
			CreatedDate:      rec.CreatedDate,
			SessionDuration:  rec.SessionDuration,
			Policies:         rec.Policies,
			AssignedGroups:   assigned,
			DetailIncomplete: fetch.incomplete,
		})

		if fetch.incomplete {
			out.partiallyFailed = true
		}
	}

	return out
}

// groupFetchOrder returns every group id that needs a member fetch: the
// primary listing ids first, then ids that appear only as assignment edge
// endpoints, each in stable first-seen order. The member fan-out phase and
// resolve both derive their group universe from the same rule.
func groupFetchOrder(groups []models.GroupRecord, assignments []models.AssignmentRecord, accountID string) []string {
	order := make([]string, 0, len(groups))
	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if _, dup := seen[g.GroupID]; dup {
			continue
		}
		seen[g.GroupID] = struct{}{}
		order = append(order, g.GroupID)
	}
	for _, a := range assignments {
		if a.PrincipalType != models.PrincipalTypeGroup {
			continue
		}
		if a.AccountID != "" && a.AccountID != accountID {
			continue
		}
		if a.PrincipalID == "" {
			continue
		}
		if _, dup := seen[a.PrincipalID]; dup {
			continue
		}
		seen[a.PrincipalID] = struct{}{}
		order = append(order, a.PrincipalID)
	}
	return order
}
