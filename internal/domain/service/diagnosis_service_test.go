package service

import (
	"errors"
	"testing"

	"support-triage-agent/internal/domain/entity"
)

// testCatalog mirrors the shape of the production catalog: one critical
// hardware-failure cause followed by normal causes in declaration order.
func testCatalog() []entity.Cause {
	return []entity.Cause{
		{
			ID:       "psu-failure",
			Label:    "Power supply failure",
			Priority: entity.CausePriorityCritical,
			Keywords: []string{"no power", "won't turn on", "dead"},
			Actions:  []string{"Check the power cable", "Try a different outlet"},
		},
		{
			ID:       "driver-communication",
			Label:    "Driver communication problem",
			Priority: entity.CausePriorityNormal,
			Keywords: []string{"not recognized", "driver", "offline"},
			Actions:  []string{"Reinstall the device driver", "Restart the spooler service"},
		},
		{
			ID:       "clogged-head",
			Label:    "Clogged print head",
			Priority: entity.CausePriorityNormal,
			Keywords: []string{"streaks", "faded", "blank pages"},
			Actions:  []string{"Run the cleaning cycle"},
		},
		{
			ID:       "wifi-connection",
			Label:    "Wi-Fi connection problem",
			Priority: entity.CausePriorityNormal,
			Keywords: []string{"wifi", "wireless", "offline"},
			Actions:  []string{"Restart the router", "Re-join the wireless network"},
		},
	}
}

func newDiagnosis(t *testing.T) *DiagnosisService {
	t.Helper()
	svc, err := NewDiagnosisService(testCatalog())
	if err != nil {
		t.Fatalf("NewDiagnosisService() error = %v", err)
	}
	return svc
}

func TestNewDiagnosisService_EmptyCatalog(t *testing.T) {
	if _, err := NewDiagnosisService(nil); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("NewDiagnosisService(nil) error = %v, want ErrEmptyCatalog", err)
	}
}

// TestDiagnosisService_CriticalPreemptsScoring verifies the short-circuit: a
// critical keyword hit wins outright even when normal causes would score
// higher on keyword count.
func TestDiagnosisService_CriticalPreemptsScoring(t *testing.T) {
	svc := newDiagnosis(t)

	// "offline" and "wifi" would give wifi-connection a score of 2, but the
	// critical "dead" keyword must preempt scoring entirely.
	result := svc.Diagnose("my laptop is dead, wifi offline, no power at all")

	if result.IsUnknown() {
		t.Fatal("Diagnose() = unknown, want critical hit")
	}
	if result.Primary.ID != "psu-failure" {
		t.Errorf("Primary = %s, want psu-failure", result.Primary.ID)
	}
	if len(result.Candidates) != 0 {
		t.Errorf("Candidates = %+v, want empty for critical hit", result.Candidates)
	}
}

func TestDiagnosisService_ScorePassOrdering(t *testing.T) {
	svc := newDiagnosis(t)

	// wifi-connection scores 2 (wifi, offline), driver-communication scores 1
	// (offline). Higher score must come first.
	result := svc.Diagnose("printer went offline after I moved it to another wifi network")

	if result.IsUnknown() {
		t.Fatal("Diagnose() = unknown, want scored candidates")
	}
	if result.Primary.ID != "wifi-connection" {
		t.Errorf("Primary = %s, want wifi-connection", result.Primary.ID)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("len(Candidates) = %d, want 2", len(result.Candidates))
	}
	if result.Candidates[0].ID != "wifi-connection" || result.Candidates[1].ID != "driver-communication" {
		t.Errorf("candidate order = [%s, %s], want [wifi-connection, driver-communication]",
			result.Candidates[0].ID, result.Candidates[1].ID)
	}
}

// TestDiagnosisService_TieKeepsCatalogOrder pins the deterministic tiebreak:
// equal scores are returned in catalog declaration order.
func TestDiagnosisService_TieKeepsCatalogOrder(t *testing.T) {
	svc := newDiagnosis(t)

	// Both driver-communication and wifi-connection score exactly 1 via
	// "offline"; declaration order puts driver-communication first.
	result := svc.Diagnose("the device shows as offline")

	if result.IsUnknown() {
		t.Fatal("Diagnose() = unknown, want tie between two causes")
	}
	if result.Primary.ID != "driver-communication" {
		t.Errorf("Primary = %s, want driver-communication (catalog order tiebreak)", result.Primary.ID)
	}
}

func TestDiagnosisService_UnknownResult(t *testing.T) {
	svc := newDiagnosis(t)

	result := svc.Diagnose("the coffee machine makes a strange noise")

	if !result.IsUnknown() {
		t.Errorf("Diagnose() Primary = %+v, want unknown result", result.Primary)
	}
	if result.Candidates == nil || len(result.Candidates) != 0 {
		t.Errorf("Candidates = %+v, want empty non-nil slice", result.Candidates)
	}
}

func TestDiagnosisService_NormalizesStatement(t *testing.T) {
	svc := newDiagnosis(t)

	// Uppercase input must still match lowercased keywords
	result := svc.Diagnose("  MY PRINTER WON'T TURN ON  ")

	if result.IsUnknown() || result.Primary.ID != "psu-failure" {
		t.Errorf("Diagnose() on uppercase input = %+v, want psu-failure", result.Primary)
	}
}

func TestDiagnosisService_EmptyStatement(t *testing.T) {
	svc := newDiagnosis(t)

	result := svc.Diagnose("   ")

	if !result.IsUnknown() {
		t.Errorf("Diagnose(blank) = %+v, want unknown", result.Primary)
	}
}

func TestDiagnosisService_Deterministic(t *testing.T) {
	svc := newDiagnosis(t)

	first := svc.Diagnose("printer offline on wifi")
	second := svc.Diagnose("printer offline on wifi")

	if first.Primary.ID != second.Primary.ID || len(first.Candidates) != len(second.Candidates) {
		t.Error("Diagnose() is not deterministic for identical input")
	}
	for i := range first.Candidates {
		if first.Candidates[i].ID != second.Candidates[i].ID {
			t.Errorf("candidate %d differs between runs", i)
		}
	}
}

func TestDiagnosisService_CatalogIsCopied(t *testing.T) {
	catalog := testCatalog()
	svc, err := NewDiagnosisService(catalog)
	if err != nil {
		t.Fatalf("NewDiagnosisService() error = %v", err)
	}

	// Mutating the caller's slice must not affect the engine
	catalog[0].Keywords = []string{"unrelated"}

	result := svc.Diagnose("the laptop is dead")
	if result.IsUnknown() || result.Primary.ID != "psu-failure" {
		t.Error("engine catalog was not copied at construction")
	}
}
