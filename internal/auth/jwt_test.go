package auth

import (
	"testing"
	"time"

	"feedra/config"
)

func jwtConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		ResetSecret:   "reset-secret",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
		ResetExpiry:   time.Minute,
		Issuer:        "feedra",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := jwtConfig()
	token, err := GenerateAccessToken(cfg, 7, "dana@example.com", "Dana", "donor")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 7 || claims.Email != "dana@example.com" || claims.Role != "donor" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	cfg := jwtConfig()
	token, err := GenerateAccessToken(cfg, 7, "dana@example.com", "Dana", "donor")
	if err != nil {
		t.Fatal(err)
	}
	other := jwtConfig()
	other.AccessSecret = "different"
	if _, err := ParseAccessToken(other, token); err != ErrInvalidToken {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenSecretsAreNotInterchangeable(t *testing.T) {
	cfg := jwtConfig()
	refresh, err := GenerateRefreshToken(cfg, 7)
	if err != nil {
		t.Fatal(err)
	}
	id, err := ParseRefreshToken(cfg, refresh)
	if err != nil || id != 7 {
		t.Fatalf("refresh round trip: id=%d err=%v", id, err)
	}
	// A refresh token must not pass as a reset token and vice versa.
	if _, err := ParseResetToken(cfg, refresh); err != ErrInvalidToken {
		t.Errorf("refresh token accepted as reset token")
	}
	reset, err := GenerateResetToken(cfg, 7, "dana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseRefreshToken(cfg, reset); err != ErrInvalidToken {
		t.Errorf("reset token accepted as refresh token")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := jwtConfig()
	cfg.AccessExpiry = -time.Minute
	token, err := GenerateAccessToken(cfg, 7, "dana@example.com", "Dana", "donor")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseAccessToken(cfg, token); err != ErrInvalidToken {
		t.Fatalf("expired token accepted: %v", err)
	}
}
