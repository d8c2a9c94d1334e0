package applicant

import (
	"strings"
	"testing"
)

func TestGenerateStrongPassword(t *testing.T) {
	for i := 0; i < 20; i++ {
		pwd, err := GenerateStrongPassword(8)
		if err != nil {
			t.Fatalf("GenerateStrongPassword() error = %v", err)
		}
		if len(pwd) != 8 {
			t.Fatalf("len = %d, want 8", len(pwd))
		}
		for _, charset := range passwordCharsets {
			if !strings.ContainsAny(pwd, charset) {
				t.Errorf("password %q missing a character from %q", pwd, charset)
			}
		}
		// ambiguous characters are never used
		if strings.ContainsAny(pwd, "IlO0") {
			t.Errorf("password %q contains an ambiguous character", pwd)
		}
	}
}

func TestGenerateStrongPassword_minLength(t *testing.T) {
	pwd, err := GenerateStrongPassword(1)
	if err != nil {
		t.Fatalf("GenerateStrongPassword() error = %v", err)
	}
	if len(pwd) != len(passwordCharsets) {
		t.Errorf("len = %d, want %d", len(pwd), len(passwordCharsets))
	}
}
