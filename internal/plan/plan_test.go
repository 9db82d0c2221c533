package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/association-platform/internal/model"
)

func TestAllows(t *testing.T) {
	tests := []struct {
		have, need model.PlanTier
		want       bool
	}{
		{model.PlanStarter, model.PlanStarter, true},
		{model.PlanStarter, model.PlanProfessional, false},
		{model.PlanStarter, model.PlanBusiness, false},
		{model.PlanProfessional, model.PlanStarter, true},
		{model.PlanProfessional, model.PlanProfessional, true},
		{model.PlanProfessional, model.PlanBusiness, false},
		{model.PlanBusiness, model.PlanProfessional, true},
		{model.PlanBusiness, model.PlanBusiness, true},
		{model.PlanTier("enterprise"), model.PlanStarter, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.have)+"/"+string(tc.need), func(t *testing.T) {
			assert.Equal(t, tc.want, Allows(tc.have, tc.need))
		})
	}
}

func TestRequireAfterUpgrade(t *testing.T) {
	tenant := model.Tenant{ID: 1, PlanTier: model.PlanStarter}

	err := Require(tenant, model.PlanProfessional)
	require.ErrorIs(t, err, ErrInsufficientTier)
	assert.Contains(t, err.Error(), "requires a Professional plan")

	tenant.PlanTier = model.PlanProfessional
	assert.NoError(t, Require(tenant, model.PlanProfessional))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(model.PlanBusiness))
	assert.False(t, Valid(""))
}
