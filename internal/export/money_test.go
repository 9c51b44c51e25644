package export

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		value, code, want string
	}{
		{"1234.5", "NPR", "NPR 1,234.50"},
		{"99.99", "USD", "USD 99.99"},
		{"0", "NPR", "NPR 0.00"},
		{"1000000", "NPR", "NPR 1,000,000.00"},
		{"-250.75", "NPR", "-NPR 250.75"},
		{"10.005", "NPR", "NPR 10.01"}, // rounds half away from zero
	}
	for _, tc := range cases {
		if got := FormatAmount(d(tc.value), tc.code); got != tc.want {
			t.Errorf("FormatAmount(%s, %s) = %q, want %q", tc.value, tc.code, got, tc.want)
		}
	}
}
