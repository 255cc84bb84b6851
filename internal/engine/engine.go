package engine

import (
	"context"
	"errors"
	"regexp"

	"github.com/cpk-labs/sso-access-auditor/internal/models"
)

// ErrInvalidAccountID is returned for account ids that are not 12-digit
// numeric strings. Validation happens before any remote call.
var ErrInvalidAccountID = errors.New("invalid account id")

// AWS account ids are 12-digit numbers.
var accountIDPattern = regexp.MustCompile(`^\d{12}$`)

// ValidAccountID reports whether accountID is a well-formed AWS account id.
func ValidAccountID(accountID string) bool {
	return accountIDPattern.MatchString(accountID)
}

// AuditOptions configures a single audit run.
// It is the sole input to Engine.RunAudit.
type AuditOptions struct {
	// AccountID is the 12-digit AWS account to audit.
	AccountID string

	// Region is recorded in the report metadata for traceability.
	// It does not affect collection; the gateway is already region-scoped.
	Region string

	// Concurrency bounds the fan-out of per-permission-set and per-group
	// fetches. Defaults to 4 when zero to respect remote rate limits.
	Concurrency int
}

// Engine is the central orchestration interface. It drives the Directory
// Gateway through the fetch phases, resolves the raw collections into the
// cross-referenced access graph, and returns one immutable AuditReport.
//
// Engine must not call AWS SDK clients directly; all remote reads go
// through the DirectoryGateway collaborator.
type Engine interface {
	RunAudit(ctx context.Context, opts AuditOptions) (*models.AuditReport, error)
}
