package numfmt

import (
	"testing"

	"mythic_prison/internal/domain"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{5, "5.00"},
		{999, "999.00"},
		{999.999, "1000.00"},
		{1000, "1.00K"},
		{1500, "1.50K"},
		{12_345, "12.3K"},
		{123_456, "123K"},
		{2_500_000, "2.50M"},
		{7.5e9, "7.50B"},
		{1e12, "1.00T"},
		{1e15, "1.00Q"},
		{3.3e18, "3.30QQ"},
		{1e21, "1.00S"},
		{1e24, "1.00SS"},
		{1e27, "1.00O"},
		{1e30, "1.00N"},
		{1e33, "1.00D"},
		{1e36, "1.00UN"},
		{1e39, "1.00DD"},
		{1e42, "1.00TR"},
		{1e45, "1.00QT"},
		{1e48, "1.00QN"},
		{1e51, "1.00SD"},
		{1e54, "1.00SP"},
		{1e57, "1.00OC"},
		{5e59, "500OC"},
		{-1500, "-1.50K"},
		{-3, "-3.00"},
	}
	for _, tt := range tests {
		if got := Format(tt.in, true); got != tt.want {
			t.Errorf("Format(%v, true) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{42, "42"},
		{42.5, "42.5"},
		{1500, "1.5K"},
		{15_000, "15K"},
		{15_300, "15.3K"},
		{250_000, "250K"},
		{1e6, "1M"},
		{-2_000_000, "-2M"},
		{123_456_789, "123.5M"},
	}
	for _, tt := range tests {
		if got := Format(tt.in, false); got != tt.want {
			t.Errorf("Format(%v, false) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatIsPure(t *testing.T) {
	first := Money(1500)
	for i := 0; i < 100; i++ {
		if got := Money(1500); got != first {
			t.Fatalf("call %d returned %q, first call %q", i, got, first)
		}
	}
}

func TestCurrency(t *testing.T) {
	if got := Currency(domain.Money, 1500); got != "$1.50K" {
		t.Errorf("money = %q", got)
	}
	if got := Currency(domain.Souls, 2e6); got != "👻 2M" {
		t.Errorf("souls = %q", got)
	}
}
