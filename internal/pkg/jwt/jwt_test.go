package jwt

import (
	"errors"
	"testing"
)

const testSecret = "unit-test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "M042", "somchai", "MEMBER", testSecret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := ValidateAccessToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != 42 || claims.MembNo != "M042" || claims.Username != "somchai" || claims.Role != "MEMBER" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestAccessToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(1, "M001", "user", "MEMBER", testSecret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := ValidateAccessToken(token, "a-different-secret"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestAccessToken_Expired(t *testing.T) {
	token, err := GenerateAccessToken(1, "M001", "user", "MEMBER", testSecret, -1)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := ValidateAccessToken(token, testSecret); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(7, "token-id-abc", testSecret, 30)
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	claims, err := ValidateRefreshToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateRefreshToken: %v", err)
	}
	if claims.UserID != 7 || claims.TokenID != "token-id-abc" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestRefreshTokenRejectedAsAccessToken(t *testing.T) {
	refresh, err := GenerateRefreshToken(7, "token-id", testSecret, 30)
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	// Parsing succeeds structurally but the access claims come back empty
	claims, err := ValidateAccessToken(refresh, testSecret)
	if err == nil && claims.MembNo != "" {
		t.Errorf("refresh token should not yield access claims: %+v", claims)
	}
}
