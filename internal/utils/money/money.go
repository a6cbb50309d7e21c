package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// minorUnitExponents lists ISO 4217 currencies whose minor unit is not the
// usual two decimal places.
var minorUnitExponents = map[string]int32{
	"BHD": 3,
	"IQD": 3,
	"JOD": 3,
	"KWD": 3,
	"LYD": 3,
	"OMR": 3,
	"TND": 3,
	"BIF": 0,
	"CLP": 0,
	"DJF": 0,
	"GNF": 0,
	"ISK": 0,
	"JPY": 0,
	"KMF": 0,
	"KRW": 0,
	"PYG": 0,
	"RWF": 0,
	"UGX": 0,
	"VND": 0,
	"VUV": 0,
	"XAF": 0,
	"XOF": 0,
	"XPF": 0,
}

// Exponent returns the number of minor-unit decimal places for a currency.
func Exponent(currencyCode string) int32 {
	if exp, ok := minorUnitExponents[strings.ToUpper(currencyCode)]; ok {
		return exp
	}
	return 2
}

// ToDecimal converts an amount in minor units to its major-unit decimal value,
// e.g. 10000 USD minor units -> 100.00.
func ToDecimal(minorUnits int64, currencyCode string) decimal.Decimal {
	return decimal.New(minorUnits, -Exponent(currencyCode))
}

// Format renders a minor-unit amount as a fixed-point major-unit string.
func Format(minorUnits int64, currencyCode string) string {
	return ToDecimal(minorUnits, currencyCode).StringFixed(Exponent(currencyCode))
}
