package allowlist

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// defaultKeys are the non-identifying player capability parameters.
var defaultKeys = []string{
	"player_backend",             // mediaplayer
	"playlist_include_framerate", // true
	"reassignments_supported",    // true
	"supported_codecs",           // avc1, sometimes vp09,avc1
	"cdm",                        // wv
	"player_version",             // 1.18.0
	"fast_bread",                 // true; low latency mode
	"allow_source",               // true
	"warp",                       // true
	"transcode_mode",             // cbr_v1
}

// List is an immutable set of allowed parameter names.
type List struct {
	version string
	keys    []string
	set     map[string]struct{}
}

// New builds a list from keys. Blank and duplicate keys are dropped.
func New(version string, keys []string) *List {
	l := &List{version: version, set: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := l.set[k]; dup {
			continue
		}
		l.set[k] = struct{}{}
		l.keys = append(l.keys, k)
	}
	return l
}

// Default returns the built-in list.
func Default() *List {
	return New("builtin", defaultKeys)
}

// Contains reports whether key may be forwarded.
func (l *List) Contains(key string) bool {
	_, ok := l.set[key]
	return ok
}

// Keys returns the allowed keys in file order.
func (l *List) Keys() []string {
	return slices.Clone(l.keys)
}

// Version returns the label the list was loaded with.
func (l *List) Version() string {
	return l.version
}

// Len returns the number of allowed keys.
func (l *List) Len() int {
	return len(l.keys)
}

type file struct {
	Version string   `yaml:"version"`
	Keys    []string `yaml:"keys"`
}

// Load reads a list from a YAML file. An empty key list is rejected so a
// truncated file cannot silently strip every player parameter.
func Load(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read allow-list %q: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse allow-list %q: %w", path, err)
	}

	l := New(f.Version, f.Keys)
	if l.Len() == 0 {
		return nil, errors.New("allow-list " + path + " contains no keys")
	}
	if l.version == "" {
		l.version = path
	}
	return l, nil
}

// Holder publishes the current list to concurrent readers.
type Holder struct {
	current atomic.Pointer[List]
}

// NewHolder returns a holder serving l.
func NewHolder(l *List) *Holder {
	h := &Holder{}
	h.Set(l)
	return h
}

// Get returns the current list.
func (h *Holder) Get() *List {
	return h.current.Load()
}

// Set replaces the current list. Readers holding the previous list keep
// using it until they finish.
func (h *Holder) Set(l *List) {
	h.current.Store(l)
}

// Contains reports whether key is allowed by the current list.
func (h *Holder) Contains(key string) bool {
	return h.Get().Contains(key)
}

// Reload loads path and swaps it in. On error the current list is kept.
func (h *Holder) Reload(path string) error {
	l, err := Load(path)
	if err != nil {
		return err
	}
	h.Set(l)
	return nil
}
