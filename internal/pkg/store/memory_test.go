package store

import (
	"context"
	"testing"

	"github.com/dayoung-ko/finsync/internal/pkg/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(name string) model.Product {
	return model.Product{
		InstitutionCode: "0010001",
		ProductCode:     "WR0001",
		InstitutionName: name,
		DisclosureMonth: "202306",
	}
}

func testOption(rateType model.RateType) model.Option {
	d := decimal.RequireFromString("3.5")
	return model.Option{
		InstitutionCode: "0010001",
		ProductCode:     "WR0001",
		RateType:        rateType,
		Grade1:          decimal.NullDecimal{Decimal: d, Valid: true},
	}
}

func TestMemory_UpsertProduct(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.UpsertProduct(ctx, testProduct("Old Name")))
	require.NoError(t, m.UpsertProduct(ctx, testProduct("New Name")))

	products, _ := m.Counts()
	assert.Equal(t, 1, products, "same natural key must not duplicate")

	p, err := m.GetProduct(ctx, model.ProductKey{Institution: "0010001", Product: "WR0001"})
	require.NoError(t, err)
	assert.Equal(t, "New Name", p.InstitutionName, "descriptive fields overwritten in place")
}

func TestMemory_InsertOptionIfAbsent(t *testing.T) {
	ctx := context.Background()

	t.Run("first insert writes, second skips", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.UpsertProduct(ctx, testProduct("Bank")))

		inserted, err := m.InsertOptionIfAbsent(ctx, testOption(model.RateTypeLoan))
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = m.InsertOptionIfAbsent(ctx, testOption(model.RateTypeLoan))
		require.NoError(t, err)
		assert.False(t, inserted, "resync of the same natural key is a no-op")

		_, options := m.Counts()
		assert.Equal(t, 1, options)
	})

	t.Run("distinct rate types attach to the same product", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.UpsertProduct(ctx, testProduct("Bank")))

		for _, rt := range []model.RateType{model.RateTypeLoan, model.RateTypeBase, model.RateTypeSpread} {
			inserted, err := m.InsertOptionIfAbsent(ctx, testOption(rt))
			require.NoError(t, err)
			assert.True(t, inserted)
		}
		_, options := m.Counts()
		assert.Equal(t, 3, options)
	})

	t.Run("missing parent product is rejected", func(t *testing.T) {
		m := NewMemory()
		_, err := m.InsertOptionIfAbsent(ctx, testOption(model.RateTypeLoan))
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("existing values are not updated on resync", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.UpsertProduct(ctx, testProduct("Bank")))

		first := testOption(model.RateTypeLoan)
		_, err := m.InsertOptionIfAbsent(ctx, first)
		require.NoError(t, err)

		revised := testOption(model.RateTypeLoan)
		revised.Grade1 = decimal.NullDecimal{Decimal: decimal.RequireFromString("9.9"), Valid: true}
		_, err = m.InsertOptionIfAbsent(ctx, revised)
		require.NoError(t, err)

		stored, err := m.ListOptions(ctx, model.ProductKey{Institution: "0010001", Product: "WR0001"})
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, "3.5", stored[0].Grade1.Decimal.String())
	})
}

func TestMemory_OptionExists(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.UpsertProduct(ctx, testProduct("Bank")))

	key := model.OptionKey{Institution: "0010001", Product: "WR0001", RateType: model.RateTypeLoan}
	exists, err := m.OptionExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = m.InsertOptionIfAbsent(ctx, testOption(model.RateTypeLoan))
	require.NoError(t, err)

	exists, err = m.OptionExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemory_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := model.ProductKey{Institution: "0010001", Product: "WR0001"}

	require.NoError(t, m.UpsertProduct(ctx, testProduct("Bank")))
	_, err := m.InsertOptionIfAbsent(ctx, testOption(model.RateTypeLoan))
	require.NoError(t, err)
	_, err = m.InsertOptionIfAbsent(ctx, testOption(model.RateTypeBase))
	require.NoError(t, err)

	require.NoError(t, m.DeleteProduct(ctx, key))

	products, options := m.Counts()
	assert.Equal(t, 0, products)
	assert.Equal(t, 0, options, "deleting a product deletes its options")

	assert.ErrorIs(t, m.DeleteProduct(ctx, key), ErrProductNotFound)
	_, err = m.GetProduct(ctx, key)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
