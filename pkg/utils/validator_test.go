package utils

import "testing"

func TestIsValidCIDR(t *testing.T) {
	valid := []string{"10.88.0.1/24", "10.88.0.2/32", "192.168.0.0/16"}
	for _, cidr := range valid {
		if !IsValidCIDR(cidr) {
			t.Errorf("IsValidCIDR(%q) = false, want true", cidr)
		}
	}

	invalid := []string{"", "10.88.0.1", "10.88.0.1/33", "not-a-cidr"}
	for _, cidr := range invalid {
		if IsValidCIDR(cidr) {
			t.Errorf("IsValidCIDR(%q) = true, want false", cidr)
		}
	}
}
