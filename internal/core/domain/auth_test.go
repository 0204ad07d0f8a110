package domain

import "testing"

func TestAuthContext_HasScope(t *testing.T) {
	tests := []struct {
		scope string
		want  map[string]bool
	}{
		{"read", map[string]bool{ScopeRead: true, ScopeWrite: false, ScopeAdmin: false}},
		{"read write", map[string]bool{ScopeRead: true, ScopeWrite: true, ScopeAdmin: false}},
		{"admin", map[string]bool{ScopeRead: true, ScopeWrite: true, ScopeAdmin: true}},
		{"", map[string]bool{ScopeRead: false}},
	}
	for _, tt := range tests {
		ac := &AuthContext{ClientID: "c", Scope: tt.scope}
		for scope, want := range tt.want {
			if got := ac.HasScope(scope); got != want {
				t.Errorf("scope %q HasScope(%q) = %v, want %v", tt.scope, scope, got, want)
			}
		}
	}

	var nilCtx *AuthContext
	if nilCtx.HasScope(ScopeRead) {
		t.Error("nil context grants nothing")
	}
}
