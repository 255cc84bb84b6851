package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cpk-labs/sso-access-auditor/internal/models"
	"github.com/cpk-labs/sso-access-auditor/internal/output"
	"github.com/cpk-labs/sso-access-auditor/internal/providers/aws/directory"
	"github.com/cpk-labs/sso-access-auditor/internal/version"
)

// defaultConcurrency bounds the fan-out phases when AuditOptions.Concurrency
// is zero. Identity Center throttles aggressively; keep this small.
const defaultConcurrency = 4

// DefaultEngine is the production implementation of Engine.
// It coordinates retrieval, reference resolution, and report assembly.
// All remote reads go through the DirectoryGateway; the engine itself never
// retries and holds no state across runs.
type DefaultEngine struct {
	gateway directory.DirectoryGateway
	sink    output.Sink
	logger  *zap.Logger
}

// NewDefaultEngine constructs a DefaultEngine wired to the supplied gateway.
// A nil sink suppresses progress output; a nil logger disables logging.
func NewDefaultEngine(gateway directory.DirectoryGateway, sink output.Sink, logger *zap.Logger) *DefaultEngine {
	if sink == nil {
		sink = output.NullSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultEngine{gateway: gateway, sink: sink, logger: logger}
}

// RunAudit implements Engine. The run proceeds through fixed phases with a
// barrier between each: instance context, permission-set listing, detail
// fan-out, assignment fan-out, member fan-out, then resolution. A fatal
// gateway error in any phase aborts the run; in-flight siblings finish but
// their results are discarded with the rest of the phase.
func (e *DefaultEngine) RunAudit(ctx context.Context, opts AuditOptions) (*models.AuditReport, error) {
	if !ValidAccountID(opts.AccountID) {
		return nil, fmt.Errorf("%w: %q is not a 12-digit AWS account id", ErrInvalidAccountID, opts.AccountID)
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	e.sink.Progress("Discovering Identity Center instance...")
	inst, err := e.gateway.DescribeInstance(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch instance context: %w", err)
	}
	e.logger.Debug("instance context resolved",
		zap.String("instance_arn", inst.InstanceArn),
		zap.String("identity_store_id", inst.IdentityStoreID),
	)

	e.sink.Progress(fmt.Sprintf("Listing permission sets provisioned to account %s...", opts.AccountID))
	arns, err := e.gateway.ListPermissionSets(ctx, opts.AccountID)
	if err != nil {
		return nil, fmt.Errorf("list permission sets: %w", err)
	}
	if len(arns) == 0 {
		// Empty-result condition, not a failure: the directory API cannot
		// distinguish "no access assigned" from "no such account" here.
		e.sink.Warn(fmt.Sprintf("no permission sets found for account %s", opts.AccountID))
		return e.buildReport(ctx, opts, inst, resolved{
			groups:         []models.Group{},
			permissionSets: []models.PermissionSet{},
		}), nil
	}
	e.logger.Info("permission sets listed", zap.Int("count", len(arns)))

	e.sink.Progress("Listing identity store groups...")
	groups, err := e.gateway.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	e.logger.Info("groups listed", zap.Int("count", len(groups)))

	details, err := e.fetchPermissionSetDetails(ctx, arns, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch permission set details: %w", err)
	}

	assignments, err := e.fetchAssignments(ctx, opts.AccountID, arns, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch account assignments: %w", err)
	}
	e.logger.Info("assignments fetched", zap.Int("count", len(assignments)))

	memberOrder := groupFetchOrder(groups, assignments, opts.AccountID)
	members, err := e.fetchMembers(ctx, memberOrder, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch group members: %w", err)
	}

	e.sink.Progress("Resolving access graph...")
	res := resolve(resolverInput{
		accountID:      opts.AccountID,
		groups:         groups,
		permissionSets: details,
		assignments:    assignments,
		members:        members,
	})

	report := e.buildReport(ctx, opts, inst, res)
	e.logger.Info("audit complete",
		zap.String("account_id", opts.AccountID),
		zap.Int("groups", report.Summary.TotalGroups),
		zap.Int("permission_sets", report.Summary.TotalPermissionSets),
		zap.Int("assignments", report.Summary.TotalAssignments),
		zap.Bool("partially_failed", report.PartiallyFailed),
	)
	return report, nil
}

// ---------------------------------------------------------------------------
// Fan-out phases
//
// Each phase writes results only into its own pre-sized slot slice, so no
// mutex is needed: the errgroup Wait is the barrier before any read.
// ---------------------------------------------------------------------------

// fetchPermissionSetDetails fetches the detail record for every ARN with
// bounded concurrency. A NotFound detail degrades to an ARN-only stub
// (partial-data condition); other errors are fatal for the run.
func (e *DefaultEngine) fetchPermissionSetDetails(ctx context.Context, arns []string, limit int) ([]permissionSetFetch, error) {
	e.sink.Progress(fmt.Sprintf("Fetching detail for %d permission sets...", len(arns)))

	fetches := make([]permissionSetFetch, len(arns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, arn := range arns {
		i, arn := i, arn
		g.Go(func() error {
			rec, err := e.gateway.DescribePermissionSet(gctx, arn)
			if err != nil {
				if errors.Is(err, directory.ErrNotFound) {
					e.logger.Warn("permission set detail missing; keeping stub",
						zap.String("permission_set_arn", arn))
					fetches[i] = permissionSetFetch{
						record:     models.PermissionSetRecord{Arn: arn},
						incomplete: true,
					}
					return nil
				}
				return err
			}
			fetches[i] = permissionSetFetch{record: rec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fetches, nil
}

// fetchAssignments fetches assignment tuples per permission set with bounded
// concurrency and flattens them in permission-set listing order, keeping
// edge discovery deterministic. A NotFound (permission set deleted between
// listing and fetch) yields an empty tuple list for that slot.
func (e *DefaultEngine) fetchAssignments(ctx context.Context, accountID string, arns []string, limit int) ([]models.AssignmentRecord, error) {
	e.sink.Progress(fmt.Sprintf("Fetching assignments for %d permission sets...", len(arns)))

	perSet := make([][]models.AssignmentRecord, len(arns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, arn := range arns {
		i, arn := i, arn
		g.Go(func() error {
			recs, err := e.gateway.ListAccountAssignments(gctx, accountID, arn)
			if err != nil {
				if errors.Is(err, directory.ErrNotFound) {
					return nil
				}
				return err
			}
			perSet[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var flat []models.AssignmentRecord
	for _, recs := range perSet {
		flat = append(flat, recs...)
	}
	return flat, nil
}

// fetchMembers fetches members for every group id (listed groups plus
// dangling edge endpoints) with bounded concurrency. A NotFound member fetch
// is a partial-data condition isolated to that group; other errors abort.
func (e *DefaultEngine) fetchMembers(ctx context.Context, groupIDs []string, limit int) (map[string]memberOutcome, error) {
	e.sink.Progress(fmt.Sprintf("Fetching members for %d groups...", len(groupIDs)))

	outcomes := make([]memberOutcome, len(groupIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, gid := range groupIDs {
		i, gid := i, gid
		g.Go(func() error {
			users, err := e.gateway.ListGroupMembers(gctx, gid)
			if err != nil {
				if errors.Is(err, directory.ErrNotFound) {
					e.logger.Warn("member fetch failed; marking group incomplete",
						zap.String("group_id", gid))
					outcomes[i] = memberOutcome{failed: true}
					return nil
				}
				return err
			}
			outcomes[i] = memberOutcome{members: users}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]memberOutcome, len(groupIDs))
	for i, gid := range groupIDs {
		byID[gid] = outcomes[i]
	}
	return byID, nil
}

// ---------------------------------------------------------------------------
// Report assembly
// ---------------------------------------------------------------------------

// buildReport assembles the immutable AuditReport from the resolved graph.
// The account name is enrichment only; any Organizations failure leaves it
// empty without affecting the run.
func (e *DefaultEngine) buildReport(ctx context.Context, opts AuditOptions, inst models.InstanceContext, res resolved) *models.AuditReport {
	accountName, err := e.gateway.AccountName(ctx, opts.AccountID)
	if err != nil {
		e.logger.Debug("account name lookup failed", zap.Error(err))
		accountName = ""
	}

	groupNames := make([]string, 0, len(res.groups))
	for _, g := range res.groups {
		groupNames = append(groupNames, g.DisplayName)
	}
	psNames := make([]string, 0, len(res.permissionSets))
	for _, ps := range res.permissionSets {
		psNames = append(psNames, ps.Name)
	}

	return &models.AuditReport{
		Metadata: models.AuditMetadata{
			GeneratedAt:     time.Now().UTC(),
			AccountID:       opts.AccountID,
			AccountName:     accountName,
			InstanceArn:     inst.InstanceArn,
			IdentityStoreID: inst.IdentityStoreID,
			Region:          opts.Region,
			AuditorVersion:  version.Version,
		},
		GroupNames:         groupNames,
		PermissionSetNames: psNames,
		Groups:             res.groups,
		PermissionSets:     res.permissionSets,
		Summary: models.AuditSummary{
			TotalGroups:         len(res.groups),
			TotalPermissionSets: len(res.permissionSets),
			TotalAssignments:    res.edgeCount,
		},
		EmptyResult:      len(res.permissionSets) == 0 || len(res.groups) == 0,
		PartiallyFailed:  res.partiallyFailed,
		IncompleteGroups: res.incompleteGroups,
	}
}
