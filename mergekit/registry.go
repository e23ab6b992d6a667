package mergekit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	kiterrors "github.com/c0deZ3R0/go-merge-kit/errors"
	"github.com/c0deZ3R0/go-merge-kit/logging"
)

const componentRegistry = "registry"

// PolicyStatus tags the outcome of a policy registration.
type PolicyStatus string

const (
	PolicyRegistered PolicyStatus = "registered"
	PolicyDuplicate  PolicyStatus = "duplicate"
)

// RegisterPolicyOutcome is the closed result set of RegisterPolicy.
type RegisterPolicyOutcome struct {
	Status  PolicyStatus
	Policy  *Policy
	Message string
}

// DetectStatus tags the outcome of conflict detection.
type DetectStatus string

const (
	DetectNoConflict DetectStatus = "no_conflict"
	DetectConflict   DetectStatus = "detected"
)

// DetectInput carries two content versions, an optional common base, and
// caller context for conflict detection.
type DetectInput struct {
	Base     *string
	Version1 string
	Version2 string
	Context  string
}

// DetectOutcome is the closed result set of Detect. ConflictID and Detail are
// set only when Status is DetectConflict.
type DetectOutcome struct {
	Status     DetectStatus
	ConflictID string
	Detail     *ConflictDetail
}

// ResolveStatus tags the outcome of automatic resolution.
type ResolveStatus string

const (
	ResolveApplied       ResolveStatus = "resolved"
	ResolveRequiresHuman ResolveStatus = "requires_human"
	ResolveNoPolicy      ResolveStatus = "no_policy"
	ResolveNotPending    ResolveStatus = "not_pending"
)

// ResolveOutcome is the closed result set of Resolve. Result and Policy are
// set on ResolveApplied; Options carries both candidate values on
// ResolveRequiresHuman.
type ResolveOutcome struct {
	Status  ResolveStatus
	Result  string
	Policy  string
	Options []string
	Message string
}

// ManualStatus tags the outcome of manual resolution.
type ManualStatus string

const (
	ManualApplied    ManualStatus = "resolved"
	ManualNotPending ManualStatus = "not_pending"
)

// ManualResolveOutcome is the closed result set of ManualResolve.
type ManualResolveOutcome struct {
	Status  ManualStatus
	Result  string
	Message string
}

// Registry coordinates the conflict lifecycle: it registers resolution
// policies, detects conflicts between content versions, and resolves tracked
// conflicts either automatically via policy or through a human-supplied
// choice. Policies and conflict records live in the configured RecordStore;
// storage failures propagate on the error return, never as an outcome status.
type Registry struct {
	store      RecordStore
	logger     *logging.Logger
	strategies map[string]Strategy
	newID      func() string
}

// RegistryOption configures a Registry.
type RegistryOption interface{ applyRegistry(*Registry) }

type registryOptionFn func(*Registry)

func (f registryOptionFn) applyRegistry(r *Registry) { f(r) }

// WithLogger attaches a logger for registry operations.
func WithLogger(l *logging.Logger) RegistryOption {
	return registryOptionFn(func(r *Registry) { r.logger = l })
}

// WithStrategy registers an additional resolution strategy by its name.
func WithStrategy(s Strategy) RegistryOption {
	return registryOptionFn(func(r *Registry) { r.strategies[s.Name()] = s })
}

// WithIDGenerator overrides conflict id generation. The default draws random
// UUIDs, which keeps ids unique under concurrent detection without a shared
// counter.
func WithIDGenerator(fn func() string) RegistryOption {
	return registryOptionFn(func(r *Registry) { r.newID = fn })
}

// NewRegistry constructs a Registry backed by the given store. The
// last-writer-wins strategy is always available.
func NewRegistry(store RecordStore, opts ...RegistryOption) (*Registry, error) {
	if store == nil {
		return nil, errors.New("registry requires a non-nil record store")
	}

	r := &Registry{
		store:      store,
		strategies: map[string]Strategy{StrategyLastWriterWins: LastWriterWins{}},
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt.applyRegistry(r)
	}
	if r.logger == nil {
		r.logger = logging.WithComponent(logging.Component(componentRegistry))
	}

	return r, nil
}

// RegisterPolicy persists a new resolution policy. Re-registration under an
// existing name is rejected with PolicyDuplicate; the caller should use the
// existing registration.
func (r *Registry) RegisterPolicy(ctx context.Context, name string, priority int) (RegisterPolicyOutcome, error) {
	if name == "" {
		return RegisterPolicyOutcome{}, kiterrors.NewValidationError(kiterrors.OpRegisterPolicy,
			fmt.Errorf("policy name is required"))
	}

	_, exists, err := r.store.Get(ctx, CollectionPolicy, name)
	if err != nil {
		return RegisterPolicyOutcome{}, kiterrors.WrapStorage(err, kiterrors.OpRegisterPolicy, componentRegistry)
	}
	if exists {
		return RegisterPolicyOutcome{
			Status:  PolicyDuplicate,
			Message: fmt.Sprintf("policy %q already registered", name),
		}, nil
	}

	policy := &Policy{Name: name, Priority: priority, Strategy: StrategyLastWriterWins}
	record, err := recordOf(policy)
	if err != nil {
		return RegisterPolicyOutcome{}, kiterrors.NewWithComponent(kiterrors.OpRegisterPolicy, componentRegistry, err)
	}
	if err := r.store.Put(ctx, CollectionPolicy, name, record); err != nil {
		return RegisterPolicyOutcome{}, kiterrors.WrapStorage(err, kiterrors.OpRegisterPolicy, componentRegistry)
	}

	r.logger.InfoContext(ctx, "policy registered",
		slog.String("policy", name),
		slog.Int("priority", priority),
	)

	return RegisterPolicyOutcome{Status: PolicyRegistered, Policy: policy}, nil
}

// Detect compares two content versions, optionally against their common base.
// Identical versions never conflict; when a base is supplied and either side
// still equals it, only one side changed and there is no conflict. A true
// conflict is persisted as a tracked record in detected state.
func (r *Registry) Detect(ctx context.Context, input DetectInput) (DetectOutcome, error) {
	if input.Version1 == input.Version2 {
		return DetectOutcome{Status: DetectNoConflict}, nil
	}
	if input.Base != nil && (input.Version1 == *input.Base || input.Version2 == *input.Base) {
		// Only one side changed.
		return DetectOutcome{Status: DetectNoConflict}, nil
	}

	conflictID := "conflict-" + r.newID()
	detail := ConflictDetail{
		Base:     input.Base,
		Version1: input.Version1,
		Version2: input.Version2,
		Context:  input.Context,
	}
	record, err := recordOf(ConflictRecord{
		ConflictID: conflictID,
		Status:     ConflictDetected,
		Detail:     detail,
	})
	if err != nil {
		return DetectOutcome{}, kiterrors.NewWithComponent(kiterrors.OpDetect, componentRegistry, err)
	}
	if err := r.store.Put(ctx, CollectionConflict, conflictID, record); err != nil {
		return DetectOutcome{}, kiterrors.WrapStorage(err, kiterrors.OpDetect, componentRegistry)
	}

	r.logger.InfoContext(ctx, "conflict detected",
		slog.String("conflict_id", conflictID),
		slog.String("context", input.Context),
	)

	return DetectOutcome{Status: DetectConflict, ConflictID: conflictID, Detail: &detail}, nil
}

// Resolve applies a resolution policy to a tracked conflict. The named
// override is used when given, else the highest-priority registered policy;
// ties between equal priorities are broken arbitrarily. With no applicable
// policy the conflict stays detected and both candidate values are returned
// for human review.
func (r *Registry) Resolve(ctx context.Context, conflictID string, policyOverride string) (ResolveOutcome, error) {
	record, found, err := r.getConflict(ctx, kiterrors.OpResolve, conflictID)
	if err != nil {
		return ResolveOutcome{}, err
	}
	if !found {
		return ResolveOutcome{Status: ResolveNoPolicy, Message: "conflict not found"}, nil
	}
	if record.Status == ConflictResolved {
		return ResolveOutcome{Status: ResolveNotPending, Message: "conflict already resolved"}, nil
	}

	policy, err := r.selectPolicy(ctx, policyOverride)
	if err != nil {
		return ResolveOutcome{}, err
	}
	if policy == nil {
		return ResolveOutcome{
			Status:  ResolveRequiresHuman,
			Options: []string{record.Detail.Version1, record.Detail.Version2},
		}, nil
	}

	strategy, ok := r.strategies[policy.Strategy]
	if !ok {
		return ResolveOutcome{}, kiterrors.NewConflictError(kiterrors.OpResolve,
			fmt.Errorf("policy %q names unknown strategy %q", policy.Name, policy.Strategy))
	}
	result, err := strategy.Apply(record.Detail)
	if err != nil {
		return ResolveOutcome{}, kiterrors.NewConflictError(kiterrors.OpResolve, err)
	}

	record.Status = ConflictResolved
	record.ResolvedBy = policy.Name
	record.ChosenValue = result
	if err := r.putConflict(ctx, kiterrors.OpResolve, record); err != nil {
		return ResolveOutcome{}, err
	}

	r.logger.InfoContext(ctx, "conflict resolved",
		slog.String("conflict_id", conflictID),
		slog.String("policy", policy.Name),
		slog.String("strategy", policy.Strategy),
	)

	return ResolveOutcome{Status: ResolveApplied, Result: result, Policy: policy.Name}, nil
}

// ManualResolve closes a tracked conflict with a human-supplied choice. It
// fails with ManualNotPending when the conflict is unknown or already
// resolved; resolution is terminal and never re-applied.
func (r *Registry) ManualResolve(ctx context.Context, conflictID string, chosen string) (ManualResolveOutcome, error) {
	record, found, err := r.getConflict(ctx, kiterrors.OpManualResolve, conflictID)
	if err != nil {
		return ManualResolveOutcome{}, err
	}
	if !found {
		return ManualResolveOutcome{Status: ManualNotPending, Message: "conflict not found"}, nil
	}
	if record.Status == ConflictResolved {
		return ManualResolveOutcome{Status: ManualNotPending, Message: "conflict already resolved"}, nil
	}

	record.Status = ConflictResolved
	record.ResolvedBy = ResolvedByManual
	record.ChosenValue = chosen
	if err := r.putConflict(ctx, kiterrors.OpManualResolve, record); err != nil {
		return ManualResolveOutcome{}, err
	}

	r.logger.InfoContext(ctx, "conflict resolved manually",
		slog.String("conflict_id", conflictID),
	)

	return ManualResolveOutcome{Status: ManualApplied, Result: chosen}, nil
}

// selectPolicy picks the named override when given, else scans for the
// highest-priority policy. A nil policy with nil error means none applies.
func (r *Registry) selectPolicy(ctx context.Context, override string) (*Policy, error) {
	if override != "" {
		record, found, err := r.store.Get(ctx, CollectionPolicy, override)
		if err != nil {
			return nil, kiterrors.WrapStorage(err, kiterrors.OpResolve, componentRegistry)
		}
		if !found {
			return nil, nil
		}
		var policy Policy
		if err := decodeRecord(record, &policy); err != nil {
			return nil, kiterrors.NewWithComponent(kiterrors.OpResolve, componentRegistry, err)
		}
		return &policy, nil
	}

	records, err := r.store.Find(ctx, CollectionPolicy, nil)
	if err != nil {
		return nil, kiterrors.WrapStorage(err, kiterrors.OpResolve, componentRegistry)
	}

	var best *Policy
	for _, record := range records {
		var policy Policy
		if err := decodeRecord(record, &policy); err != nil {
			return nil, kiterrors.NewWithComponent(kiterrors.OpResolve, componentRegistry, err)
		}
		if best == nil || policy.Priority > best.Priority {
			p := policy
			best = &p
		}
	}
	return best, nil
}

func (r *Registry) getConflict(ctx context.Context, op kiterrors.Operation, conflictID string) (ConflictRecord, bool, error) {
	record, found, err := r.store.Get(ctx, CollectionConflict, conflictID)
	if err != nil {
		return ConflictRecord{}, false, kiterrors.WrapStorage(err, op, componentRegistry)
	}
	if !found {
		return ConflictRecord{}, false, nil
	}
	var conflict ConflictRecord
	if err := decodeRecord(record, &conflict); err != nil {
		return ConflictRecord{}, false, kiterrors.NewWithComponent(op, componentRegistry, err)
	}
	return conflict, true, nil
}

func (r *Registry) putConflict(ctx context.Context, op kiterrors.Operation, conflict ConflictRecord) error {
	record, err := recordOf(conflict)
	if err != nil {
		return kiterrors.NewWithComponent(op, componentRegistry, err)
	}
	if err := r.store.Put(ctx, CollectionConflict, conflict.ConflictID, record); err != nil {
		return kiterrors.WrapStorage(err, op, componentRegistry)
	}
	return nil
}
