package turntoken

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/carcassonne/internal/platform/errors"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestSigner(t *testing.T, secret string, ttl time.Duration) *Signer {
	t.Helper()
	signer, err := NewSigner(Config{
		Secret: []byte(secret),
		TTL:    ttl,
		Now:    func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return signer
}

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t, "secret-a", 0)
	for _, payload := range [][]string{{"turn-1"}, {"turn-1", "turn-2", "turn-3"}} {
		token, err := signer.Sign(payload)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		got, err := signer.Verify(token)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if !reflect.DeepEqual(got, payload) {
			t.Fatalf("payload = %v, want %v", got, payload)
		}
	}
}

func TestSignRejectsEmptyPayload(t *testing.T) {
	t.Parallel()

	if _, err := newTestSigner(t, "secret", 0).Sign(nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewSigner(Config{}); err == nil {
		t.Fatal("expected missing secret error")
	}
	if _, err := NewSigner(Config{Secret: []byte("x"), TTL: -time.Second}); err == nil {
		t.Fatal("expected negative ttl error")
	}
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t, "secret-a", 0)
	foreign, err := newTestSigner(t, "secret-b", 0).Sign([]string{"turn-1"})
	if err != nil {
		t.Fatalf("sign foreign: %v", err)
	}

	wrongIssuer, err := NewSigner(Config{Secret: []byte("secret-a"), Issuer: "elsewhere"})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	otherIssuerToken, err := wrongIssuer.Sign([]string{"turn-1"})
	if err != nil {
		t.Fatalf("sign other issuer: %v", err)
	}

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims{Turns: []string{"turn-1"}}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	emptyPayload, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: DefaultIssuer},
	}).SignedString([]byte("secret-a"))
	if err != nil {
		t.Fatalf("sign empty payload: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-token"},
		{name: "foreign secret", token: foreign},
		{name: "other issuer", token: otherIssuerToken},
		{name: "alg none", token: noneToken},
		{name: "empty payload", token: emptyPayload},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := signer.Verify(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("error = %v, want ErrInvalidToken", err)
			}
			if apperrors.KindOf(err) != apperrors.KindInvalidArgument {
				t.Fatalf("kind = %s", apperrors.KindOf(err))
			}
		})
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	now := fixedNow
	signer, err := NewSigner(Config{
		Secret: []byte("secret"),
		TTL:    time.Hour,
		Now:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	token, err := signer.Sign([]string{"turn-1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := signer.Verify(token); err != nil {
		t.Fatalf("verify fresh token: %v", err)
	}

	now = fixedNow.Add(2 * time.Hour)
	if _, err := signer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token error = %v", err)
	}
}
