package password

import "testing"

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct horse battery")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatalf("hash must not equal the plaintext")
	}

	if !Verify("correct horse battery", hash) {
		t.Errorf("Verify should accept the original password")
	}
	if Verify("wrong password", hash) {
		t.Errorf("Verify should reject a wrong password")
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	a := HashToken("some-refresh-token")
	b := HashToken("some-refresh-token")
	if a != b {
		t.Errorf("same token must hash identically")
	}
	if a == HashToken("another-token") {
		t.Errorf("different tokens must hash differently")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}

func TestValidatePassword(t *testing.T) {
	if ValidatePassword("short") {
		t.Errorf("passwords under %d chars must be rejected", MinLength)
	}
	if !ValidatePassword("long enough password") {
		t.Errorf("valid password rejected")
	}
}
