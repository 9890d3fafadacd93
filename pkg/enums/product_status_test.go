package enums

import "testing"

func TestProductStatusLattice(t *testing.T) {
	cases := []struct {
		name string
		from ProductStatus
		to   ProductStatus
		want bool
	}{
		{"for_sale to locked", ProductStatusForSale, ProductStatusLocked, true},
		{"for_sale to stolen", ProductStatusForSale, ProductStatusStolen, true},
		{"locked to stolen", ProductStatusLocked, ProductStatusStolen, true},
		{"locked back to for_sale", ProductStatusLocked, ProductStatusForSale, false},
		{"stolen to for_sale", ProductStatusStolen, ProductStatusForSale, false},
		{"stolen to locked", ProductStatusStolen, ProductStatusLocked, false},
		{"for_sale to for_sale", ProductStatusForSale, ProductStatusForSale, false},
		{"locked to locked", ProductStatusLocked, ProductStatusLocked, false},
		{"stolen to stolen", ProductStatusStolen, ProductStatusStolen, false},
		{"unknown target", ProductStatusForSale, ProductStatus("broken"), false},
		{"unknown source", ProductStatus("broken"), ProductStatusStolen, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
				t.Fatalf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestParseProductStatus(t *testing.T) {
	for _, valid := range []string{"for_sale", "locked", "stolen"} {
		status, err := ParseProductStatus(valid)
		if err != nil {
			t.Fatalf("ParseProductStatus(%q) returned error: %v", valid, err)
		}
		if status.String() != valid {
			t.Fatalf("ParseProductStatus(%q) = %q", valid, status)
		}
	}

	if _, err := ParseProductStatus("FOR_SALE"); err == nil {
		t.Fatal("expected error for uppercase input")
	}
	if _, err := ParseProductStatus(""); err == nil {
		t.Fatal("expected error for empty input")
	}
}
