package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/colinaird/pomblock/internal/constants"
	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func TestEnsureDefaults(t *testing.T) {
	s := newTestStore(t)
	if err := s.EnsureDefaults(); err != nil {
		t.Fatalf("EnsureDefaults failed: %v", err)
	}

	names := []constants.ConfigName{
		constants.ConfigApp, constants.ConfigCalendars, constants.ConfigPolicies,
		constants.ConfigTemplates, constants.ConfigRoutines, constants.ConfigOverrides,
	}
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(s.Dir(), string(name))); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}

	policies, err := s.LoadPolicies()
	if err != nil {
		t.Fatalf("LoadPolicies failed: %v", err)
	}
	if policies.Policy.WorkHours.Start != constants.DefaultWorkStart {
		t.Errorf("expected default work start, got %s", policies.Policy.WorkHours.Start)
	}
	if policies.Policy.MaxAutoBlocksPerDay != constants.DefaultMaxAutoBlocksPerDay {
		t.Errorf("expected default auto block cap, got %d", policies.Policy.MaxAutoBlocksPerDay)
	}

	app, err := s.LoadApp()
	if err != nil {
		t.Fatalf("LoadApp failed: %v", err)
	}
	if app.BlocksCalendarName != constants.DefaultBlocksCalendarName {
		t.Errorf("expected default blocks calendar name, got %q", app.BlocksCalendarName)
	}
}

func TestEnsureDefaultsPreservesExisting(t *testing.T) {
	s := newTestStore(t)
	if err := s.EnsureDefaults(); err != nil {
		t.Fatalf("EnsureDefaults failed: %v", err)
	}

	policies, _ := s.LoadPolicies()
	policies.Policy.BlockDurationMinutes = 25
	if err := s.SavePolicies(policies); err != nil {
		t.Fatalf("SavePolicies failed: %v", err)
	}

	if err := s.EnsureDefaults(); err != nil {
		t.Fatalf("second EnsureDefaults failed: %v", err)
	}
	got, _ := s.LoadPolicies()
	if got.Policy.BlockDurationMinutes != 25 {
		t.Errorf("expected existing policy untouched, got %d", got.Policy.BlockDurationMinutes)
	}
}

func TestLoadRejectsUnsupportedSchema(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.Dir(), string(constants.ConfigApp))
	if err := os.WriteFile(path, []byte(`{"schema":2,"default_account":"default"}`), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := s.LoadApp()
	if err == nil {
		t.Fatal("expected schema mismatch error")
	}
	if apperrors.KindOf(err) != apperrors.KindInvalidConfig {
		t.Errorf("expected KindInvalidConfig, got %v", apperrors.KindOf(err))
	}
}

func TestBlocksCalendarIDLegacyFallback(t *testing.T) {
	cfg := CalendarsConfig{LegacyBlocksCalendarID: "legacy-cal"}
	if got := cfg.BlocksCalendarID(constants.DefaultAccount); got != "legacy-cal" {
		t.Errorf("expected legacy fallback for default account, got %q", got)
	}
	if got := cfg.BlocksCalendarID("work"); got != "" {
		t.Errorf("expected no calendar for unknown account, got %q", got)
	}

	cfg.SetBlocksCalendarID("work", "cal-work")
	if got := cfg.BlocksCalendarID("work"); got != "cal-work" {
		t.Errorf("expected mapped calendar, got %q", got)
	}
	if cfg.LegacyBlocksCalendarID != "" {
		t.Error("expected legacy field cleared after migration")
	}
}

func TestPolicyFor(t *testing.T) {
	s := newTestStore(t)
	if err := s.EnsureDefaults(); err != nil {
		t.Fatal(err)
	}

	dur := 30
	overrides, _ := s.LoadOverrides()
	overrides.Overrides = map[string]models.PolicyOverride{
		"2026-03-09": {BlockDurationMinutes: &dur},
	}
	if err := s.SaveOverrides(overrides); err != nil {
		t.Fatal(err)
	}

	withOverride, err := s.PolicyFor("2026-03-09")
	if err != nil {
		t.Fatalf("PolicyFor failed: %v", err)
	}
	if withOverride.BlockDurationMinutes != 30 {
		t.Errorf("expected override duration 30, got %d", withOverride.BlockDurationMinutes)
	}

	plain, err := s.PolicyFor("2026-03-10")
	if err != nil {
		t.Fatalf("PolicyFor failed: %v", err)
	}
	if plain.BlockDurationMinutes != constants.DefaultBlockDurationMin {
		t.Errorf("expected base duration, got %d", plain.BlockDurationMinutes)
	}
}
