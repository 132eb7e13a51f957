package model

import "github.com/shopspring/decimal"

var half = decimal.New(5, -1)

// FinalRates composes the per-grade final rate table for one product from its
// rate-option rows. Per bucket: a disclosed final loan rate (type A) wins
// outright; otherwise base + spread + adjustment (types B, C, D) with absent
// values counted as zero; buckets no row quotes are omitted, not zeroed.
// Storage guarantees at most one row per rate type; should duplicates slip
// through anyway, the first row of a type wins.
//
// Pure function of the option set, safe to recompute on every read.
func FinalRates(options []Option) map[GradeBucket]decimal.Decimal {
	byType := make(map[RateType]Option, 4)
	for _, o := range options {
		if _, seen := byType[o.RateType]; !seen {
			byType[o.RateType] = o
		}
	}

	out := make(map[GradeBucket]decimal.Decimal, len(GradeBuckets))
	for _, bucket := range GradeBuckets {
		if loan, ok := byType[RateTypeLoan]; ok {
			if v := loan.Rate(bucket); v.Valid {
				out[bucket] = RoundTenth(v.Decimal)
				continue
			}
		}

		sum := decimal.Zero
		quoted := false
		for _, t := range []RateType{RateTypeBase, RateTypeSpread, RateTypeAdjustment} {
			o, ok := byType[t]
			if !ok {
				continue
			}
			if v := o.Rate(bucket); v.Valid {
				sum = sum.Add(v.Decimal)
				quoted = true
			}
		}
		if quoted {
			out[bucket] = RoundTenth(sum)
		}
	}
	return out
}

// RoundTenth rounds half-up at the tenths digit: floor(x*10 + 0.5) / 10.
func RoundTenth(d decimal.Decimal) decimal.Decimal {
	return d.Shift(1).Add(half).Floor().Shift(-1)
}
