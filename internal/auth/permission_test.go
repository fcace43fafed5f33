package auth

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
)

func TestDecodePermission_JSONOnlyStringOneIsTrue(t *testing.T) {
	p, ok, err := DecodePermission(`{"subject_edit":"1","ban_post":"0","user_ban":1,"ban_visit":true,"unknown_flag":"1","manage_app":""}`)
	if err != nil || !ok {
		t.Fatalf("DecodePermission: ok=%v err=%v", ok, err)
	}
	if !p.Has(PermSubjectEdit) {
		t.Fatalf("expected subject_edit")
	}
	for _, f := range []PermissionFlag{PermBanPost, PermUserBan, PermBanVisit, PermManageApp} {
		if p.Has(f) {
			t.Fatalf("expected %s false", f)
		}
	}
	if got := p.String(); got != "{subject_edit}" {
		t.Fatalf("unexpected permission: %s", got)
	}
}

func TestDecodePermission_PHPSerialized(t *testing.T) {
	blob := `a:5:{s:8:"ban_post";s:1:"1";s:9:"ban_visit";s:1:"0";s:8:"user_ban";i:1;s:12:"subject_edit";s:1:"1";s:7:"mystery";N;}`
	p, ok, err := DecodePermission(blob)
	if err != nil || !ok {
		t.Fatalf("DecodePermission: ok=%v err=%v", ok, err)
	}
	if !p.Has(PermBanPost) || !p.Has(PermSubjectEdit) {
		t.Fatalf("expected ban_post and subject_edit, got %s", p)
	}
	if p.Has(PermBanVisit) || p.Has(PermUserBan) {
		t.Fatalf("expected ban_visit and user_ban false, got %s", p)
	}
}

func TestDecodePermission_EmptyAndMalformed(t *testing.T) {
	if _, ok, err := DecodePermission("  "); ok || err != nil {
		t.Fatalf("expected empty blob to report absent, ok=%v err=%v", ok, err)
	}
	for _, blob := range []string{
		`{"ban_post":`,
		`a:2:{s:8:"ban_post";s:1:"1";}`,
		`a:1:{s:99:"ban_post";s:1:"1";}`,
		`O:8:"stdClass":0:{}`,
	} {
		if _, _, err := DecodePermission(blob); !errors.Is(err, errPermissionBlobMalformed) {
			t.Fatalf("blob %q: expected malformed error, got %v", blob, err)
		}
	}
}

func TestPermission_DefaultAndAbsentFlags(t *testing.T) {
	p := DefaultPermission()
	if !p.Has(PermBanPost) || !p.Has(PermBanVisit) {
		t.Fatalf("default permission must ban posting and visiting")
	}
	if p.Has(PermSubjectEdit) || p.Has(PermissionFlag(200)) {
		t.Fatalf("absent flags must be false")
	}

	m := p.Map()
	m["subject_edit"] = true
	if p.Has(PermSubjectEdit) {
		t.Fatalf("mutating Map() must not affect the permission")
	}
}

func TestPermission_JSON(t *testing.T) {
	b, err := json.Marshal(NewPermission(PermEpEdit, PermBanPost))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"ban_post":true,"ep_edit":true}` {
		t.Fatalf("unexpected json: %s", b)
	}
	var p Permission
	if err := json.Unmarshal(b, &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p != NewPermission(PermBanPost, PermEpEdit) {
		t.Fatalf("unexpected permission: %s", p)
	}
}

func TestParsePermissionFlag(t *testing.T) {
	f, ok := ParsePermissionFlag("manage_topic_state")
	if !ok || f != PermManageTopicState {
		t.Fatalf("unexpected flag: %v %v", f, ok)
	}
	if _, ok := ParsePermissionFlag("nope"); ok {
		t.Fatalf("expected unknown flag")
	}
}
