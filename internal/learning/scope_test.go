package learning

import "testing"

func TestNewScopeKey(t *testing.T) {
	tests := []struct {
		country, source string
		want            string
	}{
		{"ES", "jira-1", "ES::jira-1"},
		{" MX ", " helix ", "MX::helix"},
		{"", "jira-1", "global::jira-1"},
		{"ES", "", "ES::all-sources"},
		{"", "", "global::all-sources"},
	}
	for _, tt := range tests {
		if got := NewScopeKey(tt.country, tt.source).String(); got != tt.want {
			t.Errorf("NewScopeKey(%q, %q) = %q, want %q", tt.country, tt.source, got, tt.want)
		}
	}
}

func TestParseScopeKey(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "ES::jira-1", want: "ES::jira-1"},
		{raw: "ES/jira-1", want: "ES::jira-1"},
		{raw: " global::all-sources ", want: "global::all-sources"},
		{raw: "", wantErr: true},
		{raw: "   ", wantErr: true},
		{raw: "ES", wantErr: true},
		{raw: "::jira-1", wantErr: true},
		{raw: "ES::", wantErr: true},
		{raw: "ES::a::b", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseScopeKey(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseScopeKey(%q) = %v, want error", tt.raw, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseScopeKey(%q) error: %v", tt.raw, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseScopeKey(%q) = %q, want %q", tt.raw, got.String(), tt.want)
		}
	}
}
