package execution

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vortex-market/vortex-dao/src/gov/engine"
	"github.com/vortex-market/vortex-dao/src/gov/types"
)

// AllowedParameters is the set of configuration keys a parameter_change
// proposal may touch. Anything else is logged and ignored.
var AllowedParameters = map[string]bool{
	"dao_voting_period_days":         true,
	"dao_quorum_threshold":           true,
	"marketplace_fee_percent":        true,
	"artist_royalty_default_percent": true,
	"history_retention_days":         true,
}

// AllowedRoles is the set of roles a membership proposal may grant or
// revoke.
var AllowedRoles = map[string]bool{
	"dao_member": true,
	"dao_admin":  true,
}

// Sink is where executed side effects land: the mutable settings store, the
// requested-features registry, the fund-allocation ledger, the member
// directory and the notification stream.
type Sink interface {
	SetSetting(ctx context.Context, key, value string) error
	AppendFeature(ctx context.Context, f types.FeatureRequest) error
	AppendAllocation(ctx context.Context, a types.FundAllocation) error
	AddMemberRole(ctx context.Context, addr, role string) error
	RemoveMemberRole(ctx context.Context, addr, role string) error
	Notify(ctx context.Context, event map[string]interface{}) error
}

// Dispatcher applies the side effect of an approved proposal. Execution is
// best effort: every failure is logged and contained, because the approval
// is already durable when Execute runs and must never be reverted.
type Dispatcher struct {
	sink     Sink
	registry *Registry

	// Now is the clock; tests overwrite it.
	Now func() time.Time
}

func NewDispatcher(sink Sink, registry *Registry) *Dispatcher {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Dispatcher{sink: sink, registry: registry, Now: time.Now}
}

// Registry exposes the custom-handler registry for service wiring.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Execute switches on the proposal's decoded payload. The returned error is
// informational; callers log it and move on.
func (d *Dispatcher) Execute(ctx context.Context, p *types.Proposal) error {
	params, err := engine.DecodeParameters(p.Type, p.Parameters)
	if err != nil {
		// Malformed payload on an approved proposal: skip execution, keep
		// the approval, let the rest of the batch proceed.
		log.Printf("execution: proposal %d has malformed parameters, skipping: %v", p.ID, err)
		return nil
	}

	switch tp := params.(type) {
	case *engine.ParameterChange:
		return d.applyParameterChange(ctx, p, tp)
	case *engine.FeatureRequestParams:
		return d.recordFeature(ctx, p, tp)
	case *engine.FundAllocationParams:
		return d.recordAllocation(ctx, p, tp)
	case *engine.MembershipParams:
		return d.applyMembership(ctx, p, tp)
	case *engine.CustomParams:
		return d.runCustom(ctx, p, tp)
	default:
		log.Printf("execution: proposal %d has unhandled parameter type %T", p.ID, params)
		return nil
	}
}

func (d *Dispatcher) applyParameterChange(ctx context.Context, p *types.Proposal, params *engine.ParameterChange) error {
	if !AllowedParameters[params.Key] {
		log.Printf("execution: proposal %d: parameter %q is not in the allow-list, ignoring", p.ID, params.Key)
		return nil
	}
	if err := d.sink.SetSetting(ctx, params.Key, params.Value); err != nil {
		log.Printf("execution: proposal %d: set %s: %v", p.ID, params.Key, err)
		return err
	}
	log.Printf("execution: proposal %d: parameter %s set to %q", p.ID, params.Key, params.Value)
	return nil
}

func (d *Dispatcher) recordFeature(ctx context.Context, p *types.Proposal, params *engine.FeatureRequestParams) error {
	f := types.FeatureRequest{
		FeatureName: params.FeatureName,
		Description: params.Description,
		ProposalID:  p.ID,
		ApprovedAt:  d.Now(),
	}
	if err := d.sink.AppendFeature(ctx, f); err != nil {
		log.Printf("execution: proposal %d: record feature: %v", p.ID, err)
		return err
	}
	return nil
}

func (d *Dispatcher) recordAllocation(ctx context.Context, p *types.Proposal, params *engine.FundAllocationParams) error {
	a := types.FundAllocation{
		Recipient:   params.Recipient,
		Amount:      params.Amount,
		Purpose:     params.Purpose,
		Status:      "pending",
		ProposalID:  p.ID,
		AllocatedAt: d.Now(),
	}
	if err := d.sink.AppendAllocation(ctx, a); err != nil {
		log.Printf("execution: proposal %d: record allocation: %v", p.ID, err)
		return err
	}
	// Recording moved no funds; the event tells the treasury surface to act.
	event := map[string]interface{}{
		"event":       "fund_allocation_approved",
		"proposal_id": p.ID,
		"recipient":   params.Recipient,
		"amount":      params.Amount,
		"purpose":     params.Purpose,
	}
	if err := d.sink.Notify(ctx, event); err != nil {
		log.Printf("execution: proposal %d: notify allocation: %v", p.ID, err)
	}
	return nil
}

func (d *Dispatcher) applyMembership(ctx context.Context, p *types.Proposal, params *engine.MembershipParams) error {
	if !AllowedRoles[params.Role] {
		log.Printf("execution: proposal %d: role %q is not grantable, ignoring", p.ID, params.Role)
		return nil
	}

	var err error
	switch params.Action {
	case engine.MembershipAddRole:
		err = d.sink.AddMemberRole(ctx, params.MemberID, params.Role)
	case engine.MembershipRemoveRole:
		err = d.sink.RemoveMemberRole(ctx, params.MemberID, params.Role)
	}
	if err != nil {
		log.Printf("execution: proposal %d: membership %s %s for %s: %v",
			p.ID, params.Action, params.Role, params.MemberID, err)
		return err
	}
	return nil
}

func (d *Dispatcher) runCustom(ctx context.Context, p *types.Proposal, params *engine.CustomParams) (err error) {
	fn, ok := d.registry.lookup(params.Handler)
	if !ok {
		log.Printf("execution: proposal %d: no handler registered for %q, skipping", p.ID, params.Handler)
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %q panicked: %v", params.Handler, r)
			log.Printf("execution: proposal %d: %v", p.ID, err)
		}
	}()
	if err := fn(ctx, p.ID, params.Payload); err != nil {
		log.Printf("execution: proposal %d: handler %q: %v", p.ID, params.Handler, err)
		return err
	}
	return nil
}
