package api

import "testing"

func TestParseKeepalive(t *testing.T) {
	cases := []struct {
		in   string
		want *int
		ok   bool
	}{
		{"", nil, true},
		{"  ", nil, true},
		{"0", nil, true},
		{"25", intPtr(25), true},
		{" 25 ", intPtr(25), true},
		{"abc", nil, false},
		{"25s", nil, false},
		{"-5", nil, false},
		{"2.5", nil, false},
	}

	for _, tc := range cases {
		got, ok := parseKeepalive(tc.in)
		if ok != tc.ok {
			t.Errorf("parseKeepalive(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("parseKeepalive(%q) = %d, want nil", tc.in, *got)
		case tc.want != nil && (got == nil || *got != *tc.want):
			t.Errorf("parseKeepalive(%q) = %v, want %d", tc.in, got, *tc.want)
		}
	}
}

func intPtr(n int) *int {
	return &n
}
