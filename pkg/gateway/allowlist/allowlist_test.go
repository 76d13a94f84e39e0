package allowlist

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestDefault(t *testing.T) {
	l := Default()

	for _, key := range []string{"player_backend", "supported_codecs", "cdm", "player_version", "fast_bread", "allow_source", "warp"} {
		if !l.Contains(key) {
			t.Errorf("default list should contain %q", key)
		}
	}
	for _, key := range []string{"token", "sig", "p", "play_session_id", "evil_tracker", ""} {
		if l.Contains(key) {
			t.Errorf("default list must not contain %q", key)
		}
	}
}

func TestNew_DropsBlankAndDuplicates(t *testing.T) {
	l := New("v1", []string{"a", " ", "b", "a", " c "})

	got := l.Keys()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key %d = %q, want %q", i, got[i], want[i])
		}
	}

	// Keys returns a copy.
	got[0] = "mutated"
	if l.Keys()[0] != "a" {
		t.Error("Keys must not expose internal state")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name        string
		content     string
		wantErr     bool
		wantKeys    int
		wantVersion string
	}{
		{
			name:        "valid",
			content:     "version: \"1.18\"\nkeys:\n  - cdm\n  - warp\n",
			wantKeys:    2,
			wantVersion: "1.18",
		},
		{
			name:     "no version falls back to path",
			content:  "keys: [cdm]\n",
			wantKeys: 1,
		},
		{
			name:    "empty keys",
			content: "version: x\nkeys: []\n",
			wantErr: true,
		},
		{
			name:    "malformed",
			content: "keys: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			l, err := Load(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				return
			}
			if l.Len() != tt.wantKeys {
				t.Errorf("expected %d keys, got %d", tt.wantKeys, l.Len())
			}
			want := tt.wantVersion
			if want == "" {
				want = path
			}
			if l.Version() != want {
				t.Errorf("version = %q, want %q", l.Version(), want)
			}
		})
	}
}

func TestHolder_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allow.yaml")
	h := NewHolder(Default())

	if err := h.Reload(path); err == nil {
		t.Fatal("expected error for missing file")
	}
	if !h.Contains("cdm") {
		t.Fatal("failed reload must keep the current list")
	}

	if err := os.WriteFile(path, []byte("keys: [only_this]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := h.Reload(path); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if h.Contains("cdm") || !h.Contains("only_this") {
		t.Errorf("reload not applied, keys = %v", h.Get().Keys())
	}
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	h := NewHolder(Default())
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.Contains("cdm")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.Set(New("swap", []string{"cdm"}))
			}
		}()
	}
	wg.Wait()

	if !h.Contains("cdm") {
		t.Error("expected cdm to remain allowed")
	}
}
