package num

import "testing"

func TestFromUintEqualsExplicitPair(t *testing.T) {
	if !FromUint(5).Eq(New(5, 1)) {
		t.Fatalf("expected 5 and 5/1 to be equal")
	}
}

func TestEqUnreduced(t *testing.T) {
	if !New(10, 2).Eq(New(5, 1)) {
		t.Fatalf("expected 10/2 to equal 5/1")
	}
	if New(10, 3).Eq(New(5, 1)) {
		t.Fatalf("expected 10/3 to differ from 5/1")
	}
}

func TestFloat64(t *testing.T) {
	if got := New(3, 4).Float64(); got != 0.75 {
		t.Fatalf("expected 0.75, got %v", got)
	}
}

func TestBaseUnits(t *testing.T) {
	cases := []struct {
		name     string
		f        Fraction
		decimals int
		want     string
	}{
		{"whole wbtc", FromUint(1), 8, "100000000"},
		{"half eth", New(1, 2), 18, "500000000000000000"},
		{"third truncates", New(1, 3), 2, "33"},
		{"zero decimals", New(7, 2), 0, "3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.BaseUnits(tc.decimals).String(); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestString(t *testing.T) {
	if got := FromUint(5).String(); got != "5" {
		t.Fatalf("expected 5, got %s", got)
	}
	if got := New(5, 2).String(); got != "5/2" {
		t.Fatalf("expected 5/2, got %s", got)
	}
}

func TestDecimal(t *testing.T) {
	if got := New(1, 4).Decimal().String(); got != "0.25" {
		t.Fatalf("expected 0.25, got %s", got)
	}
}
