package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Config
		wantErr bool
	}{
		{
			name: "defaults kept",
			body: `{"demangle": true}`,
			want: Config{Workers: 1, OnEdgeError: PolicySkip, Demangle: true},
		},
		{
			name: "all fields",
			body: `{"workers": 4, "onEdgeError": "abort", "maxInstructions": 100, "includeThunks": true, "indent": true}`,
			want: Config{Workers: 4, OnEdgeError: PolicyAbort, MaxInstructions: 100, IncludeThunks: true, Indent: true},
		},
		{name: "bad policy", body: `{"onEdgeError": "retry"}`, wantErr: true},
		{name: "zero workers", body: `{"workers": 0}`, wantErr: true},
		{name: "negative limit", body: `{"maxInstructions": -1}`, wantErr: true},
		{name: "not json", body: `workers = 4`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := LoadConfig(path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("LoadConfig() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			if got != tt.want {
				t.Errorf("LoadConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadConfigMissing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
