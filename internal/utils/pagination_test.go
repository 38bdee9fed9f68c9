package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		name string
		s    string
		def  int
		want int
	}{
		{"empty", "", 10, 10},
		{"positive", "42", 0, 42},
		{"negative", "-13", 1, -13},
		{"leading zeros", "0012", 99, 12},
		{"garbage", "x", 5, 5},
		{"untrimmed", " 42", 7, 7},
		{"overflow", "999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AtoiDefault(tc.s, tc.def); got != tc.want {
				t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
			}
		})
	}
}
