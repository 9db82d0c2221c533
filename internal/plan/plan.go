// Package plan decides which features a tenant's subscription unlocks.
package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/association-platform/internal/model"
)

// ErrInsufficientTier is wrapped by the error Require returns when a
// tenant's plan is below the required one.
var ErrInsufficientTier = errors.New("plan tier insufficient")

var rank = map[model.PlanTier]int{
	model.PlanStarter:      1,
	model.PlanProfessional: 2,
	model.PlanBusiness:     3,
}

// Rank returns the position of t in the tier order, or 0 for unknown tiers.
func Rank(t model.PlanTier) int { return rank[t] }

// Valid reports whether t is a known tier.
func Valid(t model.PlanTier) bool { return rank[t] > 0 }

// Allows reports whether a tenant on have may use a feature that needs need.
// Unknown tiers never satisfy a requirement.
func Allows(have, need model.PlanTier) bool {
	h := Rank(have)
	return h > 0 && h >= Rank(need)
}

// Require returns nil when tenant's plan satisfies min, otherwise an error
// wrapping ErrInsufficientTier naming the required plan.
func Require(tenant model.Tenant, min model.PlanTier) error {
	if Allows(tenant.PlanTier, min) {
		return nil
	}
	return fmt.Errorf("%w: this feature requires a %s plan", ErrInsufficientTier, Title(min))
}

// Title formats a tier for messages ("professional" -> "Professional").
func Title(t model.PlanTier) string {
	s := string(t)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
