package identity

import "testing"

func TestRoleOf(t *testing.T) {
	tests := []struct {
		address string
		want    Role
	}{
		{"admin123@ram.ma", RoleAdmin},
		{"ADMIN@ram.ma", RoleAdmin},
		{"ram001@ram.ma", RoleStaff},
		{" Ram42@ram.ma", RoleStaff},
		{"passenger@example.com", RoleUser},
		{"", RoleUser},
	}
	for _, tt := range tests {
		if got := RoleOf(tt.address); got != tt.want {
			t.Fatalf("RoleOf(%q) = %s, want %s", tt.address, got, tt.want)
		}
	}
	if !IsStaffAddress("admin1@ram.ma") || IsStaffAddress("john@example.com") {
		t.Fatal("IsStaffAddress misclassified")
	}
}

func TestBadgeAddress(t *testing.T) {
	if got := BadgeAddress(" RAM001 ", "ram.ma"); got != "ram001@ram.ma" {
		t.Fatalf("unexpected address %q", got)
	}
	if got := BadgeAddress("ram001", "@ram.ma"); got != "ram001@ram.ma" {
		t.Fatalf("leading @ not trimmed: %q", got)
	}
	if got := BadgeAddress("Someone@Example.com", "ram.ma"); got != "someone@example.com" {
		t.Fatalf("full address should pass through: %q", got)
	}
	if got := BadgeAddress("ram001", ""); got != "ram001" {
		t.Fatalf("empty domain should leave badge: %q", got)
	}
}
