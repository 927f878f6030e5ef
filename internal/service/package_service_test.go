package service_test

import (
	"context"
	"testing"

	"investx/config"
	"investx/internal/apperr"
	"investx/internal/service"
	"investx/pkg/money"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageCRUD(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	meta := service.RequestMeta{}

	p := h.pkg(t, "Silver", 10000, 10000, 14, "15", 0)
	assert.True(t, p.IsActive)
	assert.True(t, p.InRange(10000))
	assert.False(t, p.InRange(10001))

	_, err := h.packages.Create(ctx, service.PackageInput{
		Name: " Silver ", MinAmount: 1, MaxAmount: 2, DurationDays: 1, ProfitPercentage: decimal.NewFromInt(1),
	}, 1, meta)
	assert.ErrorIs(t, err, apperr.ErrPackageNameExists)

	updated, err := h.packages.Update(ctx, p.ID, service.PackageInput{
		Name: "Silver Plus", MinAmount: 10000, MaxAmount: 30000, DurationDays: 21, ProfitPercentage: decimal.RequireFromString("17.5"),
	}, 1, meta)
	require.NoError(t, err)
	assert.Equal(t, "Silver Plus", updated.Name)
	assert.Equal(t, 21, updated.DurationDays)

	toggled, err := h.packages.Toggle(ctx, p.ID, 1, meta)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	active, err := h.packages.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := h.packages.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = h.packages.Get(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrPackageNotFound)
	assert.Contains(t, h.audit.actions(), "package.toggle")
}

func TestPackageValidation(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	valid := service.PackageInput{Name: "P", MinAmount: 100, MaxAmount: 200, DurationDays: 7, ProfitPercentage: decimal.NewFromInt(10)}
	tests := []struct {
		name string
		edit func(in *service.PackageInput)
	}{
		{name: "blank name", edit: func(in *service.PackageInput) { in.Name = "  " }},
		{name: "zero min", edit: func(in *service.PackageInput) { in.MinAmount = 0 }},
		{name: "max below min", edit: func(in *service.PackageInput) { in.MaxAmount = 99 }},
		{name: "zero duration", edit: func(in *service.PackageInput) { in.DurationDays = 0 }},
		{name: "negative uses", edit: func(in *service.PackageInput) { in.MaxUses = -1 }},
		{name: "negative profit", edit: func(in *service.PackageInput) { in.ProfitPercentage = decimal.NewFromInt(-1) }},
		{name: "max above ledger maximum", edit: func(in *service.PackageInput) { in.MaxAmount = money.MaxAmount + 1 }},
		{name: "expected return above ledger maximum", edit: func(in *service.PackageInput) {
			in.MaxAmount = money.MaxAmount
			in.ProfitPercentage = decimal.NewFromInt(20)
		}},
	}
	for _, tt := range tests {
		in := valid
		tt.edit(&in)
		_, err := h.packages.Create(context.Background(), in, 1, service.RequestMeta{})
		assert.ErrorIs(t, err, apperr.ErrValidation, tt.name)
	}
}

func TestPackageDeleteDeactivatesWhenUsed(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	unused := h.pkg(t, "Unused", 1000, 5000, 7, "10", 0)
	used := h.pkg(t, "Used", 1000, 5000, 7, "10", 0)

	a := h.register(t, "nia", "")
	h.fund(t, a.ID, 5000)
	_, err := h.ledger.Invest(ctx, a.ID, used.ID, 1000)
	require.NoError(t, err)

	deleted, _, err := h.packages.Delete(ctx, unused.ID, 1, service.RequestMeta{})
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = h.packages.Get(ctx, unused.ID)
	assert.ErrorIs(t, err, apperr.ErrPackageNotFound)

	deleted, pkg, err := h.packages.Delete(ctx, used.ID, 1, service.RequestMeta{})
	require.NoError(t, err)
	assert.False(t, deleted)
	require.NotNil(t, pkg)
	assert.False(t, pkg.IsActive)

	_, _, err = h.packages.Delete(ctx, 999, 1, service.RequestMeta{})
	assert.ErrorIs(t, err, apperr.ErrPackageNotFound)
	assert.Contains(t, h.audit.actions(), "package.deactivate")
}

func TestPackageSeedOnlyWhenEmpty(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	inactive := false
	seeds := []config.PackageSeed{
		{Name: "Starter", MinAmount: 5000, MaxAmount: 5000, DurationDays: 7, ProfitPercentage: "20"},
		{Name: "Legacy", MinAmount: 1000, MaxAmount: 2000, DurationDays: 3, ProfitPercentage: "5", Active: &inactive},
	}

	n, err := h.packages.Seed(ctx, seeds)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = h.packages.Seed(ctx, seeds)
	require.NoError(t, err)
	assert.Zero(t, n)

	active, err := h.packages.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Starter", active[0].Name)
}
