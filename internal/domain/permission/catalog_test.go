package permission

import "testing"

func TestCatalogKeysUnique(t *testing.T) {
	seen := make(map[Key]struct{})
	for _, capability := range All() {
		if _, ok := seen[capability.Key]; ok {
			t.Fatalf("duplicate capability key %q", capability.Key)
		}
		seen[capability.Key] = struct{}{}
		if capability.Label == "" || capability.Category == "" {
			t.Fatalf("capability %q missing label or category", capability.Key)
		}
	}
}

func TestDefaultGrantsAllFalse(t *testing.T) {
	grants := DefaultGrants()
	if len(grants) != len(All()) {
		t.Fatalf("expected %d grants, got %d", len(All()), len(grants))
	}
	if grants.CountTrue() != 0 {
		t.Fatalf("expected no true grants, got %d", grants.CountTrue())
	}
}

func TestCriticalCapabilitiesExist(t *testing.T) {
	for _, key := range Critical() {
		if !Exists(key) {
			t.Fatalf("critical capability %q not in catalog", key)
		}
	}
}

func TestHasFailsClosed(t *testing.T) {
	grants := Grants{UsersView: true, Key("made.up"): true}
	if !grants.Has(UsersView) {
		t.Fatalf("expected granted key to be true")
	}
	if grants.Has(Key("made.up")) {
		t.Fatalf("expected unknown key to be false")
	}
	if grants.Has(RolesManage) {
		t.Fatalf("expected key missing from map to be false")
	}
	var empty Grants
	if empty.Has(UsersView) {
		t.Fatalf("expected nil grants to be false")
	}
}

func TestSanitizeDropsUnknownAndNonBoolean(t *testing.T) {
	grants := Sanitize(map[string]any{
		string(UsersView):   true,
		string(UsersEdit):   "true",
		string(RolesManage): false,
		"nonexistent.power": true,
		string(FamilyView):  1,
		string(AuditView):   true,
	})
	if len(grants) != 3 {
		t.Fatalf("expected 3 sanitized grants, got %d (%v)", len(grants), grants)
	}
	if grants.CountTrue() != 2 {
		t.Fatalf("expected 2 true grants, got %d", grants.CountTrue())
	}
	if _, ok := grants[UsersEdit]; ok {
		t.Fatalf("expected string value to be dropped")
	}
}

func TestMergeDoesNotMutateReceiver(t *testing.T) {
	base := Grants{UsersView: true}
	merged := base.Merge(Grants{UsersView: false, AuditView: true})
	if !base[UsersView] {
		t.Fatalf("expected base to be untouched")
	}
	if merged[UsersView] || !merged[AuditView] {
		t.Fatalf("unexpected merge result %v", merged)
	}
}
