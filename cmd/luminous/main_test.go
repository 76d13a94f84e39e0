package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"mercator-hq/luminous/pkg/config"
	"mercator-hq/luminous/pkg/health"
)

func TestCommandTree(t *testing.T) {
	want := map[string]bool{
		"run":       false,
		"version":   false,
		"countries": false,
		"identity":  false,
		"probes":    false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}

	cmd, _, err := rootCmd.Find([]string{"identity", "show"})
	if err != nil || cmd != identityShowCmd {
		t.Errorf("Find(identity show) = %v, %v", cmd, err)
	}
}

func TestRunFlags(t *testing.T) {
	for _, name := range []string{"listen", "proxy", "region", "discard-creds", "regen-creds", "dry-run"} {
		if runCmd.Flags().Lookup(name) == nil {
			t.Errorf("run flag --%s not defined", name)
		}
	}
	for _, name := range []string{"config", "debug", "log-level"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("persistent flag --%s not defined", name)
		}
	}
}

func TestApplyRunFlags(t *testing.T) {
	saved := runFlags
	t.Cleanup(func() { runFlags = saved })

	runFlags.listenAddress = "0.0.0.0:8080"
	runFlags.proxy = "socks5://127.0.0.1:1080"
	runFlags.region = "de"
	runFlags.discardCreds = true
	runFlags.regenCreds = true

	cfg := config.NewDefault()
	if err := applyRunFlags(cfg); err != nil {
		t.Fatalf("applyRunFlags() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8080" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Upstream.Proxy != "socks5://127.0.0.1:1080" {
		t.Errorf("Proxy = %q", cfg.Upstream.Proxy)
	}
	if cfg.Broker.Region != "de" {
		t.Errorf("Region = %q", cfg.Broker.Region)
	}
	if !cfg.Broker.DiscardCreds || !cfg.Broker.RegenCreds {
		t.Error("credential flags not applied")
	}
}

func TestCountriesTable(t *testing.T) {
	table := countriesTable([]string{"uk", "de"})

	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	if table.Rows[0][0] != "de" || table.Rows[0][1] != "Germany" {
		t.Errorf("row 0 = %v", table.Rows[0])
	}
	if table.Rows[1][0] != "uk" || table.Rows[1][1] != "United Kingdom" {
		t.Errorf("row 1 = %v", table.Rows[1])
	}
}

func TestProbesTable(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	table := probesTable([]health.Result{
		{Time: at, Stream: "somechannel", OK: true, Duration: 1234 * time.Millisecond},
		{Time: at.Add(time.Minute), OK: false, Error: "no eligible streams"},
	})

	if got := table.Rows[0]; got[0] != "2026-03-01T12:00:00Z" || got[2] != "true" || got[3] != "1.234s" {
		t.Errorf("row 0 = %v", got)
	}
	if got := table.Rows[1]; got[2] != "false" || got[4] != "no eligible streams" {
		t.Errorf("row 1 = %v", got)
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	versionCmd.Run(versionCmd, nil)

	if !strings.HasPrefix(buf.String(), "Luminous "+Version) {
		t.Errorf("version output = %q", buf.String())
	}
	if !strings.Contains(buf.String(), "Go Version:") {
		t.Errorf("version output missing Go version: %q", buf.String())
	}
}
