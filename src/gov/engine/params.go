package engine

import (
	"encoding/json"
	"fmt"

	"github.com/vortex-market/vortex-dao/src/gov/types"
)

// Parameters is the decoded, type-specific payload of a proposal. The
// concrete types below form a closed set for the built-in proposal types;
// custom proposals carry an opaque payload routed by handler name.
type Parameters interface {
	validate() error
}

type ParameterChange struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (p ParameterChange) validate() error {
	if p.Key == "" {
		return fmt.Errorf("parameter_change requires key")
	}
	return nil
}

type FeatureRequestParams struct {
	FeatureName string `json:"feature_name"`
	Description string `json:"description"`
}

func (p FeatureRequestParams) validate() error {
	if p.FeatureName == "" {
		return fmt.Errorf("feature_request requires feature_name")
	}
	return nil
}

type FundAllocationParams struct {
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
	Purpose   string  `json:"purpose"`
}

func (p FundAllocationParams) validate() error {
	if p.Recipient == "" || p.Purpose == "" {
		return fmt.Errorf("fund_allocation requires recipient and purpose")
	}
	if p.Amount <= 0 {
		return fmt.Errorf("fund_allocation amount must be positive")
	}
	return nil
}

// Membership actions.
const (
	MembershipAddRole    = "add_role"
	MembershipRemoveRole = "remove_role"
)

type MembershipParams struct {
	Action   string `json:"action"`
	MemberID string `json:"member_id"`
	Role     string `json:"role"`
}

func (p MembershipParams) validate() error {
	if p.Action != MembershipAddRole && p.Action != MembershipRemoveRole {
		return fmt.Errorf("membership action must be add_role or remove_role")
	}
	if p.MemberID == "" || p.Role == "" {
		return fmt.Errorf("membership requires member_id and role")
	}
	return nil
}

type CustomParams struct {
	Handler string          `json:"handler"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (p CustomParams) validate() error {
	if p.Handler == "" {
		return fmt.Errorf("custom proposal requires handler")
	}
	return nil
}

// DecodeParameters parses a raw payload against the schema for the given
// proposal type.
func DecodeParameters(ptype string, raw []byte) (Parameters, error) {
	var params Parameters
	switch ptype {
	case types.TypeParameterChange:
		params = &ParameterChange{}
	case types.TypeFeatureRequest:
		params = &FeatureRequestParams{}
	case types.TypeFundAllocation:
		params = &FundAllocationParams{}
	case types.TypeMembership:
		params = &MembershipParams{}
	case types.TypeCustom:
		params = &CustomParams{}
	default:
		return nil, fmt.Errorf("unknown proposal type %q", ptype)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing parameters for %s", ptype)
	}
	if err := json.Unmarshal(raw, params); err != nil {
		return nil, fmt.Errorf("parse %s parameters: %w", ptype, err)
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return params, nil
}
