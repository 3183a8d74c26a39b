package domain

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"client", RoleClient, false},
		{"waiter", RoleWaiter, false},
		{"kitchen", RoleKitchen, false},
		{"manager", RoleManager, false},
		{"admin", "", true},
		{"", "", true},
		{"Manager", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	valid := []string{"new", "in_progress", "ready", "delivered", "cancelled"}
	for _, s := range valid {
		if _, err := ParseOrderStatus(s); err != nil {
			t.Errorf("ParseOrderStatus(%q) unexpected error: %v", s, err)
		}
	}
	for _, s := range []string{"", "done", "NEW", "canceled"} {
		if _, err := ParseOrderStatus(s); err == nil {
			t.Errorf("ParseOrderStatus(%q) expected error", s)
		}
	}
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError().Add("b", "bad").Add("a", "missing")
	want := "validation failed: a: missing; b: bad"
	if verr.Error() != want {
		t.Errorf("Error() = %q, want %q", verr.Error(), want)
	}
	if verr.Empty() {
		t.Error("expected non-empty validation error")
	}
	if !NewValidationError().Empty() {
		t.Error("expected fresh validation error to be empty")
	}
}
