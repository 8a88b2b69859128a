package inventory

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaxtrack/backend/internal/domain/shared"
)

// LotSelectionPolicyType identifies a lot selection policy
type LotSelectionPolicyType string

const (
	PolicyFEFO   LotSelectionPolicyType = "FEFO" // First-Expired-First-Out
	PolicyFIFO   LotSelectionPolicyType = "FIFO" // First-In-First-Out
	PolicyPinned LotSelectionPolicyType = "PINNED"
)

// LotAllocation is one lot's share of an allocation plan
type LotAllocation struct {
	LotID    uuid.UUID
	LotCode  string
	Quantity decimal.Decimal
}

// LotAllocationPlan is the outcome of selecting lots for a requested quantity
type LotAllocationPlan struct {
	Allocations   []LotAllocation
	TotalSelected decimal.Decimal
	Shortfall     decimal.Decimal
}

// IsSatisfied returns true when the plan covers the full requested quantity
func (p *LotAllocationPlan) IsSatisfied() bool {
	return p.Shortfall.IsZero()
}

// LotSelectionPolicy decides which lots serve a requested quantity.
// SelectLots is pure: it inspects lots but never mutates them.
type LotSelectionPolicy interface {
	PolicyType() LotSelectionPolicyType
	SelectLots(requested decimal.Decimal, lots []*Lot) (*LotAllocationPlan, error)
}

// FEFOPolicy drains lots in expiry order, earliest first.
// Lots without an expiry date sort last.
type FEFOPolicy struct{}

// PolicyType returns the policy identifier
func (p *FEFOPolicy) PolicyType() LotSelectionPolicyType {
	return PolicyFEFO
}

// SelectLots builds a plan draining lots by ascending expiry
func (p *FEFOPolicy) SelectLots(requested decimal.Decimal, lots []*Lot) (*LotAllocationPlan, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	candidates := filterAllocatable(lots)
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		switch {
		case a.Expiry == nil && b.Expiry == nil:
			// fall through to tiebreak
		case a.Expiry == nil:
			return false
		case b.Expiry == nil:
			return true
		case !a.Expiry.Equal(*b.Expiry):
			return a.Expiry.Before(*b.Expiry)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})

	return buildPlan(requested, candidates), nil
}

// FIFOPolicy drains lots in receipt order, oldest first
type FIFOPolicy struct{}

// PolicyType returns the policy identifier
func (p *FIFOPolicy) PolicyType() LotSelectionPolicyType {
	return PolicyFIFO
}

// SelectLots builds a plan draining lots by ascending receipt time
func (p *FIFOPolicy) SelectLots(requested decimal.Decimal, lots []*Lot) (*LotAllocationPlan, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	candidates := filterAllocatable(lots)
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
		}
		return candidates[i].ID.String() < candidates[j].ID.String()
	})

	return buildPlan(requested, candidates), nil
}

// PinnedPolicy allocates exactly the quantities the caller pinned per lot
type PinnedPolicy struct {
	Pins map[uuid.UUID]decimal.Decimal
}

// PolicyType returns the policy identifier
func (p *PinnedPolicy) PolicyType() LotSelectionPolicyType {
	return PolicyPinned
}

// SelectLots validates the pinned quantities against lot availability
func (p *PinnedPolicy) SelectLots(requested decimal.Decimal, lots []*Lot) (*LotAllocationPlan, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}
	if len(p.Pins) == 0 {
		return nil, shared.NewDomainError("MISSING_PINS", "Pinned policy requires per-lot quantities")
	}

	byID := make(map[uuid.UUID]*Lot, len(lots))
	for _, lot := range lots {
		byID[lot.ID] = lot
	}

	plan := &LotAllocationPlan{TotalSelected: decimal.Zero}
	pinned := decimal.Zero
	for lotID, qty := range p.Pins {
		if qty.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Pinned quantity must be positive")
		}
		lot, ok := byID[lotID]
		if !ok {
			return nil, shared.ErrNotFound
		}
		if !lot.IsAllocatable() || lot.Available().LessThan(qty) {
			return nil, shared.ErrInsufficientStock
		}
		plan.Allocations = append(plan.Allocations, LotAllocation{
			LotID:    lot.ID,
			LotCode:  lot.LotCode,
			Quantity: qty,
		})
		pinned = pinned.Add(qty)
	}
	sort.Slice(plan.Allocations, func(i, j int) bool {
		return plan.Allocations[i].LotID.String() < plan.Allocations[j].LotID.String()
	})

	if !pinned.Equal(requested) {
		return nil, shared.NewDomainError("PIN_MISMATCH", "Pinned quantities must sum to the requested quantity")
	}

	plan.TotalSelected = pinned
	plan.Shortfall = decimal.Zero
	return plan, nil
}

// NewLotSelectionPolicy returns a policy instance by type
func NewLotSelectionPolicy(policyType LotSelectionPolicyType) (LotSelectionPolicy, error) {
	switch policyType {
	case PolicyFEFO:
		return &FEFOPolicy{}, nil
	case PolicyFIFO:
		return &FIFOPolicy{}, nil
	case PolicyPinned:
		return nil, shared.NewDomainError("MISSING_PINS", "Pinned policy must be constructed with pins")
	default:
		return nil, shared.NewDomainError("UNKNOWN_POLICY", fmt.Sprintf("Unknown lot selection policy: %s", policyType))
	}
}

// DefaultLotSelectionPolicy is FEFO: vaccine stock drains shortest expiry first
func DefaultLotSelectionPolicy() LotSelectionPolicy {
	return &FEFOPolicy{}
}

func filterAllocatable(lots []*Lot) []*Lot {
	out := make([]*Lot, 0, len(lots))
	for _, lot := range lots {
		if lot.IsAllocatable() {
			out = append(out, lot)
		}
	}
	return out
}

func buildPlan(requested decimal.Decimal, ordered []*Lot) *LotAllocationPlan {
	plan := &LotAllocationPlan{TotalSelected: decimal.Zero}
	remaining := requested

	for _, lot := range ordered {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(lot.Available(), remaining)
		plan.Allocations = append(plan.Allocations, LotAllocation{
			LotID:    lot.ID,
			LotCode:  lot.LotCode,
			Quantity: take,
		})
		plan.TotalSelected = plan.TotalSelected.Add(take)
		remaining = remaining.Sub(take)
	}

	plan.Shortfall = remaining
	return plan
}
