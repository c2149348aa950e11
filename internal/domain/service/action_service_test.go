package service

import (
	"errors"
	"reflect"
	"testing"

	"support-triage-agent/internal/domain/entity"
)

// actionCatalog includes an action shared between two causes to exercise
// deduplication.
func actionCatalog() []entity.Cause {
	return []entity.Cause{
		{
			ID:       "driver-communication",
			Label:    "Driver communication problem",
			Priority: entity.CausePriorityNormal,
			Keywords: []string{"driver"},
			Actions:  []string{"Reinstall the device driver", "Restart the computer"},
		},
		{
			ID:       "os-update",
			Label:    "Operating system update conflict",
			Priority: entity.CausePriorityNormal,
			Keywords: []string{"update"},
			Actions:  []string{"Roll back the latest update", "Restart the computer"},
		},
		{
			ID:       "usb-malfunction",
			Label:    "USB port malfunction",
			Priority: entity.CausePriorityNormal,
			Keywords: []string{"usb"},
			Actions:  []string{"Try a different USB port"},
		},
	}
}

func newActions(t *testing.T) *ActionService {
	t.Helper()
	svc, err := NewActionService(actionCatalog())
	if err != nil {
		t.Fatalf("NewActionService() error = %v", err)
	}
	return svc
}

func causeByID(t *testing.T, id string) entity.Cause {
	t.Helper()
	for _, c := range actionCatalog() {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("cause %s not in test catalog", id)
	return entity.Cause{}
}

func TestNewActionService_EmptyCatalog(t *testing.T) {
	if _, err := NewActionService(nil); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("NewActionService(nil) error = %v, want ErrEmptyCatalog", err)
	}
}

// TestActionService_Aggregate_DeduplicatesSharedActions verifies that an
// action shared by two confirmed causes appears once, at its first catalog
// position.
func TestActionService_Aggregate_DeduplicatesSharedActions(t *testing.T) {
	svc := newActions(t)

	plan := svc.Aggregate([]entity.Cause{
		causeByID(t, "driver-communication"),
		causeByID(t, "os-update"),
	})

	want := []string{
		"Reinstall the device driver",
		"Restart the computer",
		"Roll back the latest update",
	}
	if !reflect.DeepEqual(plan, want) {
		t.Errorf("Aggregate() = %v, want %v", plan, want)
	}
}

// TestActionService_Aggregate_InputOrderIndependent pins the determinism
// guarantee: the plan depends only on the catalog, not on selection order.
func TestActionService_Aggregate_InputOrderIndependent(t *testing.T) {
	svc := newActions(t)

	forward := svc.Aggregate([]entity.Cause{
		causeByID(t, "driver-communication"),
		causeByID(t, "usb-malfunction"),
	})
	reversed := svc.Aggregate([]entity.Cause{
		causeByID(t, "usb-malfunction"),
		causeByID(t, "driver-communication"),
	})

	if !reflect.DeepEqual(forward, reversed) {
		t.Errorf("Aggregate() order-dependent: %v vs %v", forward, reversed)
	}
}

func TestActionService_Aggregate_EmptySelection(t *testing.T) {
	svc := newActions(t)

	plan := svc.Aggregate(nil)

	if plan == nil {
		t.Fatal("Aggregate(nil) = nil, want empty non-nil plan")
	}
	if len(plan) != 0 {
		t.Errorf("Aggregate(nil) = %v, want empty plan", plan)
	}
}

func TestActionService_Resolve(t *testing.T) {
	svc := newActions(t)

	causes, unknown := svc.Resolve([]string{"usb-malfunction", "bogus-id", "driver-communication"})

	// Catalog order, not input order
	if len(causes) != 2 || causes[0].ID != "driver-communication" || causes[1].ID != "usb-malfunction" {
		t.Errorf("Resolve() causes = %+v, want catalog-ordered pair", causes)
	}
	if len(unknown) != 1 || unknown[0] != "bogus-id" {
		t.Errorf("Resolve() unknown = %v, want [bogus-id]", unknown)
	}
}

func TestActionService_Resolve_DuplicateIDs(t *testing.T) {
	svc := newActions(t)

	causes, unknown := svc.Resolve([]string{"os-update", "os-update"})

	if len(causes) != 1 {
		t.Errorf("Resolve() with duplicate IDs = %d causes, want 1", len(causes))
	}
	if len(unknown) != 0 {
		t.Errorf("Resolve() unknown = %v, want none", unknown)
	}
}
