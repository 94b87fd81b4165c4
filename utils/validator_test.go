package utils

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{"user@example.com", "first.last+tag@sub.example.co"}
	for _, email := range valid {
		if !ValidateEmail(email) {
			t.Errorf("expected %q to be valid", email)
		}
	}

	invalid := []string{"", "user", "user@", "@example.com", "user@example", "user @example.com"}
	for _, email := range invalid {
		if ValidateEmail(email) {
			t.Errorf("expected %q to be invalid", email)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if ok, msg := ValidatePassword("short"); ok || msg == "" {
		t.Fatal("expected short password to be rejected with a message")
	}
	if ok, _ := ValidatePassword("12345678"); !ok {
		t.Fatalf("expected a %d-character password to pass", MinPasswordLength)
	}
	if ok, msg := ValidatePassword("longenough"); !ok || msg != "" {
		t.Fatalf("expected password to pass, got %q", msg)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := SanitizeInput("  hello\x00world  "); got != "helloworld" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
}
