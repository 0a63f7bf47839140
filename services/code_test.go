package services

import "testing"

func TestNewBasketCode_Shape(t *testing.T) {
	code := newBasketCode()
	if len(code) != 8 {
		t.Fatalf("len(code) = %d, want 8", len(code))
	}
	for _, r := range code {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Errorf("code %q contains non-hex character %q", code, r)
		}
	}
}

func TestNewBasketCode_Unique(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		code := newBasketCode()
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code %q after %d draws", code, i)
		}
		seen[code] = struct{}{}
	}
}
