package security

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
)

const testKey = "test-signing-key-0123456789"

func TestIssueAndParse(t *testing.T) {
	m := NewJWTManager(testKey, "muhasebe", 15*time.Minute, 24*time.Hour)
	id := uuid.New()

	tokens, refresh, err := m.Issue(domain.RoleManager, id)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tokens.ExpiresIn != 900 {
		t.Errorf("ExpiresIn = %d, want 900", tokens.ExpiresIn)
	}

	p, err := m.ParseAccess(tokens.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if p.UserID != id || p.Role != domain.RoleManager {
		t.Errorf("principal = %+v", p)
	}

	rc, err := m.ParseRefresh(tokens.RefreshToken)
	if err != nil {
		t.Fatalf("ParseRefresh: %v", err)
	}
	if rc.JTI != refresh.JTI || rc.UserID != id.String() {
		t.Errorf("refresh claims = %+v, want jti %s", rc, refresh.JTI)
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	m := NewJWTManager(testKey, "muhasebe", time.Minute, time.Hour)
	tokens, _, err := m.Issue(domain.RoleAdmin, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ParseAccess(tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh token accepted as access token: %v", err)
	}
	if _, err := m.ParseRefresh(tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token accepted as refresh token: %v", err)
	}
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	m := NewJWTManager(testKey, "muhasebe", time.Minute, time.Hour)
	tokens, _, err := m.Issue(domain.RoleAcademician, uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	later := NewJWTManager(testKey, "muhasebe", time.Minute, time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := later.ParseAccess(tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token accepted: %v", err)
	}

	other := NewJWTManager("another-signing-key-987654", "muhasebe", time.Minute, time.Hour)
	if _, err := other.ParseAccess(tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token signed with another key accepted: %v", err)
	}

	otherIssuer := NewJWTManager(testKey, "someone-else", time.Minute, time.Hour)
	if _, err := otherIssuer.ParseAccess(tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token from another issuer accepted: %v", err)
	}

	if _, err := m.ParseAccess("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage accepted: %v", err)
	}
}
