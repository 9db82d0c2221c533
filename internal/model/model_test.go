package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTicketTypeOnSale(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	tests := []struct {
		name string
		tt   TicketType
		want bool
	}{
		{"no window", TicketType{IsActive: true}, true},
		{"inactive", TicketType{IsActive: false}, false},
		{"inside window", TicketType{IsActive: true, SaleStart: &before, SaleEnd: &after}, true},
		{"not started", TicketType{IsActive: true, SaleStart: &after}, false},
		{"ended", TicketType{IsActive: true, SaleEnd: &before}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.tt.OnSale(now))
		})
	}
}

func TestTicketTypeSoldOut(t *testing.T) {
	assert.False(t, TicketType{QuantityAvailable: 2, QuantitySold: 1}.SoldOut())
	assert.True(t, TicketType{QuantityAvailable: 2, QuantitySold: 2}.SoldOut())
	assert.True(t, TicketType{QuantityAvailable: 0}.SoldOut())
}

func TestElectionOpen(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	e := Election{IsActive: true, StartDate: start, EndDate: start.Add(48 * time.Hour)}

	assert.True(t, e.Open(start))
	assert.True(t, e.Open(start.Add(24*time.Hour)))
	assert.False(t, e.Open(start.Add(-time.Second)))
	assert.False(t, e.Open(start.Add(49*time.Hour)))

	e.IsActive = false
	assert.False(t, e.Open(start.Add(time.Hour)))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleVolunteer.Valid())
	assert.False(t, Role("owner").Valid())
}
