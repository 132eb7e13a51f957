package model

import (
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

const (
	// RateTypeLoan is the final loan rate as disclosed, directly usable.
	RateTypeLoan RateType = "A"
	// RateTypeBase is the base/reference rate.
	RateTypeBase RateType = "B"
	// RateTypeSpread is the add-on rate applied on top of the base rate.
	RateTypeSpread RateType = "C"
	// RateTypeAdjustment is the bank's adjustment rate, may be negative.
	RateTypeAdjustment RateType = "D"

	Grade1   GradeBucket = "1"
	Grade4   GradeBucket = "4"
	Grade5   GradeBucket = "5"
	Grade6   GradeBucket = "6"
	Grade10  GradeBucket = "10"
	Grade11  GradeBucket = "11"
	Grade12  GradeBucket = "12"
	Grade13  GradeBucket = "13"
	GradeAvg GradeBucket = "Avg"
)

type RateType string
type GradeBucket string
type InstitutionCode string
type ProductCode string

// GradeBuckets lists every credit-grade bucket a rate may be quoted against,
// in disclosure order.
var GradeBuckets = []GradeBucket{Grade1, Grade4, Grade5, Grade6, Grade10, Grade11, Grade12, Grade13, GradeAvg}

// ParseRateType maps a disclosed rate-type code onto one of the four known
// kinds. Matching is case-insensitive; unknown codes are rejected.
func ParseRateType(code string) (RateType, bool) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "A":
		return RateTypeLoan, true
	case "B":
		return RateTypeBase, true
	case "C":
		return RateTypeSpread, true
	case "D":
		return RateTypeAdjustment, true
	default:
		return "", false
	}
}

// ProductKey is the natural key of a disclosed product: the institution/product
// code pair is unique per disclosure cycle.
type ProductKey struct {
	Institution InstitutionCode
	Product     ProductCode
}

// OptionKey is the natural key of a rate-option row, unique within a product.
type OptionKey struct {
	Institution InstitutionCode
	Product     ProductCode
	RateType    RateType
}

// Product is one externally disclosed credit-loan product. Descriptive fields
// are overwritten on every sync; the key fields never change for a given row.
type Product struct {
	DisclosureMonth string
	InstitutionCode InstitutionCode
	ProductCode     ProductCode
	ProductTypeCode string
	InstitutionName string
	ProductName     string
	JoinWay         string
	CBName          string
	ProductTypeName string
	DisclosureStart *civil.Date
	DisclosureEnd   *civil.Date
	SubmittedOn     *civil.Date
}

func (p Product) Key() ProductKey {
	return ProductKey{Institution: p.InstitutionCode, Product: p.ProductCode}
}

// Option is one rate-type row for a product: up to nine disclosed rates keyed
// by credit-grade bucket. An invalid NullDecimal means the bucket was not
// disclosed for this row.
type Option struct {
	InstitutionCode InstitutionCode
	ProductCode     ProductCode
	RateType        RateType
	RateTypeName    string
	Grade1          decimal.NullDecimal
	Grade4          decimal.NullDecimal
	Grade5          decimal.NullDecimal
	Grade6          decimal.NullDecimal
	Grade10         decimal.NullDecimal
	Grade11         decimal.NullDecimal
	Grade12         decimal.NullDecimal
	Grade13         decimal.NullDecimal
	GradeAvg        decimal.NullDecimal
}

func (o Option) Key() OptionKey {
	return OptionKey{Institution: o.InstitutionCode, Product: o.ProductCode, RateType: o.RateType}
}

// Rate returns the disclosed value for one grade bucket.
func (o Option) Rate(bucket GradeBucket) decimal.NullDecimal {
	switch bucket {
	case Grade1:
		return o.Grade1
	case Grade4:
		return o.Grade4
	case Grade5:
		return o.Grade5
	case Grade6:
		return o.Grade6
	case Grade10:
		return o.Grade10
	case Grade11:
		return o.Grade11
	case Grade12:
		return o.Grade12
	case Grade13:
		return o.Grade13
	case GradeAvg:
		return o.GradeAvg
	default:
		return decimal.NullDecimal{}
	}
}

// SetRate stores a value for one grade bucket. Unknown buckets are ignored.
func (o *Option) SetRate(bucket GradeBucket, value decimal.NullDecimal) {
	switch bucket {
	case Grade1:
		o.Grade1 = value
	case Grade4:
		o.Grade4 = value
	case Grade5:
		o.Grade5 = value
	case Grade6:
		o.Grade6 = value
	case Grade10:
		o.Grade10 = value
	case Grade11:
		o.Grade11 = value
	case Grade12:
		o.Grade12 = value
	case Grade13:
		o.Grade13 = value
	case GradeAvg:
		o.GradeAvg = value
	}
}

// ParseRate turns a disclosed rate string into a nullable decimal. Empty or
// malformed values mean "not disclosed for this bucket", never an error.
func ParseRate(raw string) decimal.NullDecimal {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// ParseDisclosureDate parses the YYYYMMDD day strings the disclosure source
// uses, tolerating separator noise (e.g. "2023-06-01", "20230601 1530").
// Anything that does not contain a full calendar day yields nil.
func ParseDisclosureDate(raw string) *civil.Date {
	digits := make([]rune, 0, len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 8 {
		return nil
	}
	s := string(digits[:8])
	d, err := civil.ParseDate(s[:4] + "-" + s[4:6] + "-" + s[6:8])
	if err != nil {
		return nil
	}
	return &d
}
