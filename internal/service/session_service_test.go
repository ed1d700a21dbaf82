package service

import (
	"context"
	"testing"
	"time"
)

func TestResolveUserCreatesShadowUserOnce(t *testing.T) {
	e := newTestEnv(t)
	sessions := NewSessionService(e.users, nil, time.Hour)

	token := sessions.NewToken()
	first, err := sessions.ResolveUser(context.Background(), token)
	if err != nil {
		t.Fatalf("ResolveUser: %v", err)
	}
	if !first.IsAnonymous {
		t.Error("shadow user not marked anonymous")
	}
	if first.Username != "anon-"+token {
		t.Errorf("username = %q", first.Username)
	}

	second, err := sessions.ResolveUser(context.Background(), token)
	if err != nil {
		t.Fatalf("second ResolveUser: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("token resolved to different users: %d vs %d", first.ID, second.ID)
	}
}

func TestResolveUserRejectsMalformedTokens(t *testing.T) {
	e := newTestEnv(t)
	sessions := NewSessionService(e.users, nil, time.Hour)

	for _, token := range []string{"", "abc", "../../etc/passwd"} {
		if _, err := sessions.ResolveUser(context.Background(), token); err == nil {
			t.Errorf("token %q accepted", token)
		}
	}
}
