package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"chii/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.EnsureSQLiteSchema(db); err != nil {
		t.Fatalf("EnsureSQLiteSchema: %v", err)
	}
	st := store.New(db)
	st.SetDialect(store.DialectSQLite)
	return st
}

func TestEnsureSQLiteSchema_Idempotent(t *testing.T) {
	db, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()
	for i := 0; i < 2; i++ {
		if err := store.EnsureSQLiteSchema(db); err != nil {
			t.Fatalf("EnsureSQLiteSchema #%d: %v", i+1, err)
		}
	}
}

func TestMembers_SQLiteRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	id, err := st.CreateMember(ctx, store.Member{
		ID:       42,
		Username: "sai",
		Nickname: "Sai",
		Avatar:   "000/00/00/42.jpg",
		GroupID:  10,
		RegDate:  1_600_000_000,
		Email:    "Sai@Example.com",
	})
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected uid 42, got %d", id)
	}

	m, err := st.GetMemberByID(ctx, 42)
	if err != nil {
		t.Fatalf("GetMemberByID: %v", err)
	}
	if m.Username != "sai" || m.Nickname != "Sai" || m.GroupID != 10 || m.RegDate != 1_600_000_000 {
		t.Fatalf("unexpected member: %+v", m)
	}
	if len(m.PasswordCrypt) != 0 {
		t.Fatalf("expected empty password hash")
	}

	byEmail, err := st.GetMemberByEmail(ctx, "SAI@example.com")
	if err != nil {
		t.Fatalf("GetMemberByEmail: %v", err)
	}
	if byEmail.ID != 42 {
		t.Fatalf("expected uid 42 by email, got %d", byEmail.ID)
	}

	if _, err := st.GetMemberByID(ctx, 404); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
	if _, err := st.GetMemberByEmail(ctx, "  "); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows for empty email, got %v", err)
	}
}

func TestAccessTokens_ExactMatchAndExpiry(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	if _, err := st.CreateAccessToken(ctx, "abc123", "app_1", 42, now.Add(time.Hour)); err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	if _, err := st.CreateAccessToken(ctx, "expired", "app_1", 42, now.Add(-time.Second)); err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	if _, err := st.CreateAccessToken(ctx, "orphan", "app_2", 0, now.Add(time.Hour)); err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}

	tok, err := st.FindAccessToken(ctx, "abc123", now)
	if err != nil {
		t.Fatalf("FindAccessToken: %v", err)
	}
	if tok.UserID != 42 || tok.ClientID != "app_1" {
		t.Fatalf("unexpected token: %+v", tok)
	}
	if !tok.ExpiredAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry: %v", tok.ExpiredAt)
	}

	if _, err := st.FindAccessToken(ctx, "ABC123", now); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("token lookup must be case sensitive, got %v", err)
	}
	if _, err := st.FindAccessToken(ctx, "expired", now); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
	// 到期时刻本身视为已过期。
	if _, err := st.FindAccessToken(ctx, "abc123", now.Add(time.Hour)); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected token rejected at expiry, got %v", err)
	}

	orphan, err := st.FindAccessToken(ctx, "orphan", now)
	if err != nil {
		t.Fatalf("FindAccessToken(orphan): %v", err)
	}
	if orphan.UserID != 0 {
		t.Fatalf("expected orphan token without user, got %d", orphan.UserID)
	}
}

func TestUserGroups_PermissionBlob(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := st.GetUserGroupPermission(ctx, 10); err != nil || ok {
		t.Fatalf("expected missing group, ok=%v err=%v", ok, err)
	}

	if err := st.UpsertUserGroup(ctx, 10, "用户", map[string]string{"user_ban": "0", "ban_post": "1"}); err != nil {
		t.Fatalf("UpsertUserGroup: %v", err)
	}
	blob, ok, err := st.GetUserGroupPermission(ctx, 10)
	if err != nil || !ok {
		t.Fatalf("GetUserGroupPermission: ok=%v err=%v", ok, err)
	}
	if blob != `{"ban_post":"1","user_ban":"0"}` {
		t.Fatalf("unexpected blob: %s", blob)
	}

	if err := st.UpsertUserGroup(ctx, 10, "用户", nil); err != nil {
		t.Fatalf("UpsertUserGroup overwrite: %v", err)
	}
	blob, _, _ = st.GetUserGroupPermission(ctx, 10)
	if blob != `{}` {
		t.Fatalf("expected overwritten blob, got %s", blob)
	}
}

func TestWebSessions_CreateResolveRevoke(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	key, err := st.CreateWebSession(ctx, 42, store.WebSessionMeta{Reason: "login", UserAgent: "test"}, now, time.Hour)
	if err != nil {
		t.Fatalf("CreateWebSession: %v", err)
	}
	if key == "" {
		t.Fatalf("expected session key")
	}

	uid, err := st.ResolveWebSession(ctx, key, now.Add(time.Minute))
	if err != nil || uid != 42 {
		t.Fatalf("ResolveWebSession: uid=%d err=%v", uid, err)
	}
	sess, err := st.GetWebSession(ctx, key)
	if err != nil {
		t.Fatalf("GetWebSession: %v", err)
	}
	if string(sess.Value) != `{"user_id":42,"reason":"login","user_agent":"test","created_at":1700000000,"expired_at":1700003600}` {
		t.Fatalf("unexpected session value: %s", sess.Value)
	}

	if _, err := st.ResolveWebSession(ctx, key, now.Add(time.Hour)); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected expired session, got %v", err)
	}
	if _, err := st.ResolveWebSession(ctx, "unknown", now); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected unknown session, got %v", err)
	}

	if err := st.RevokeWebSession(ctx, key, now.Add(2*time.Minute)); err != nil {
		t.Fatalf("RevokeWebSession: %v", err)
	}
	if _, err := st.ResolveWebSession(ctx, key, now.Add(3*time.Minute)); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected revoked session, got %v", err)
	}
	if err := st.RevokeWebSession(ctx, "", now); !errors.Is(err, store.ErrSessionKeyEmpty) {
		t.Fatalf("expected ErrSessionKeyEmpty, got %v", err)
	}
}
