package model

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRateType(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want RateType
	}{
		{"A", RateTypeLoan},
		{"a", RateTypeLoan},
		{" b ", RateTypeBase},
		{"C", RateTypeSpread},
		{"d", RateTypeAdjustment},
	} {
		got, ok := ParseRateType(tc.in)
		require.True(t, ok, "expected %q to parse", tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, ok := ParseRateType("E")
	assert.False(t, ok)
	_, ok = ParseRateType("")
	assert.False(t, ok)
}

func TestParseRate(t *testing.T) {
	t.Run("plain decimal", func(t *testing.T) {
		v := ParseRate("5.38")
		require.True(t, v.Valid)
		assert.Equal(t, "5.38", v.Decimal.String())
	})

	t.Run("thousands separator tolerated", func(t *testing.T) {
		v := ParseRate("1,234.5")
		require.True(t, v.Valid)
		assert.Equal(t, "1234.5", v.Decimal.String())
	})

	t.Run("empty and dash mean undisclosed", func(t *testing.T) {
		assert.False(t, ParseRate("").Valid)
		assert.False(t, ParseRate("  ").Valid)
		assert.False(t, ParseRate("-").Valid)
	})

	t.Run("malformed means undisclosed, never an error", func(t *testing.T) {
		assert.False(t, ParseRate("abc").Valid)
		assert.False(t, ParseRate("5.3.8").Valid)
	})
}

func TestParseDisclosureDate(t *testing.T) {
	want := civil.Date{Year: 2023, Month: 6, Day: 1}

	for _, in := range []string{"20230601", "2023-06-01", "20230601 1530", "2023.06.01"} {
		got := ParseDisclosureDate(in)
		require.NotNil(t, got, "expected %q to parse", in)
		assert.Equal(t, want, *got)
	}

	for _, in := range []string{"", "2023", "202306", "not a date", "20231301"} {
		assert.Nil(t, ParseDisclosureDate(in), "expected %q to yield nil", in)
	}
}

func TestOptionRateAccessors(t *testing.T) {
	var o Option
	for _, bucket := range GradeBuckets {
		assert.False(t, o.Rate(bucket).Valid)
	}

	o.SetRate(Grade11, nd("4.2"))
	assert.True(t, o.Rate(Grade11).Valid)
	assert.Equal(t, "4.2", o.Rate(Grade11).Decimal.String())
	assert.False(t, o.Rate(Grade12).Valid)
}

func TestNaturalKeys(t *testing.T) {
	p := Product{InstitutionCode: "0010001", ProductCode: "WR0001"}
	assert.Equal(t, ProductKey{Institution: "0010001", Product: "WR0001"}, p.Key())

	o := Option{InstitutionCode: "0010001", ProductCode: "WR0001", RateType: RateTypeLoan}
	assert.Equal(t, OptionKey{Institution: "0010001", Product: "WR0001", RateType: RateTypeLoan}, o.Key())
}
