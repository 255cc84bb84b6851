package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/cpk-labs/sso-access-auditor/internal/models"
)

// PrintSummary renders a compact summary view of an audit report to w:
//   - Account / instance header
//   - Group, permission-set, and assignment totals
//   - Partial-data and empty-result markers
//   - Per-group access table
//
// It reuses the already-computed AuditReport; no engine logic is duplicated.
func PrintSummary(w io.Writer, report *models.AuditReport) {
	m := report.Metadata
	s := report.Summary

	account := m.AccountID
	if m.AccountName != "" {
		account = fmt.Sprintf("%s (%s)", m.AccountID, m.AccountName)
	}

	fmt.Fprintf(w, "Account:         %s\n", account)
	fmt.Fprintf(w, "SSO Instance:    %s\n", m.InstanceArn)
	fmt.Fprintf(w, "Identity Store:  %s\n", m.IdentityStoreID)
	fmt.Fprintf(w, "Generated:       %s\n", m.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Groups:           %d\n", s.TotalGroups)
	fmt.Fprintf(w, "Permission Sets:  %d\n", s.TotalPermissionSets)
	fmt.Fprintf(w, "Assignments:      %d\n", s.TotalAssignments)

	if report.EmptyResult {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "No group-based SSO access is assigned to account %s.\n", m.AccountID)
		return
	}

	if report.PartiallyFailed {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Partial data: member or detail lookups failed for %d entit(ies).\n",
			len(report.IncompleteGroups)+countIncompleteSets(report.PermissionSets))
		for _, gid := range report.IncompleteGroups {
			fmt.Fprintf(w, "  incomplete members: %s\n", gid)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-36s  %-8s  %s\n", "GROUP", "MEMBERS", "PERMISSION SETS")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 80))
	for _, g := range report.Groups {
		name := g.DisplayName
		if name == "" {
			name = g.GroupID
		}
		fmt.Fprintf(w, "%-36s  %-8d  %s\n", name, len(g.Members), joinRefNames(g.PermissionSets))
	}
}

// joinRefNames renders the permission sets of one group, falling back to the
// ARN tail for unresolved references.
func joinRefNames(refs []models.PermissionSetRef) string {
	if len(refs) == 0 {
		return "-"
	}
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.Name != "" {
			names = append(names, r.Name)
			continue
		}
		// Unresolved reference: show the last ARN segment.
		if i := strings.LastIndex(r.Arn, "/"); i >= 0 && i+1 < len(r.Arn) {
			names = append(names, r.Arn[i+1:])
		} else {
			names = append(names, r.Arn)
		}
	}
	return strings.Join(names, ", ")
}

// countIncompleteSets counts permission sets whose detail lookup failed.
func countIncompleteSets(sets []models.PermissionSet) int {
	n := 0
	for _, ps := range sets {
		if ps.DetailIncomplete {
			n++
		}
	}
	return n
}
