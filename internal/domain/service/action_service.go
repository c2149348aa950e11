package service

import (
	"support-triage-agent/internal/domain/entity"
)

// ActionService derives a single remediation plan from the set of causes the
// user confirmed. The output is the union of the causes' action lists,
// deduplicated by exact action text, ordered by catalog declaration order.
// Because ordering depends only on the catalog, identical selections always
// produce identical plans regardless of input iteration order.
type ActionService struct {
	catalog []entity.Cause
}

// NewActionService creates an aggregator over the given catalog.
func NewActionService(catalog []entity.Cause) (*ActionService, error) {
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}
	owned := make([]entity.Cause, len(catalog))
	copy(owned, catalog)
	return &ActionService{catalog: owned}, nil
}

// Aggregate returns the deduplicated ordered action plan for the confirmed
// causes. An empty selection yields an empty plan, which callers treat as the
// signal that immediate human escalation is warranted.
func (s *ActionService) Aggregate(confirmed []entity.Cause) []string {
	selected := make(map[string]bool, len(confirmed))
	for _, c := range confirmed {
		selected[c.ID] = true
	}

	plan := []string{}
	seen := make(map[string]bool)
	for _, cause := range s.catalog {
		if !selected[cause.ID] {
			continue
		}
		for _, action := range cause.Actions {
			if seen[action] {
				continue
			}
			seen[action] = true
			plan = append(plan, action)
		}
	}
	return plan
}

// Resolve maps cause IDs back to catalog entries, preserving catalog order
// and dropping IDs the catalog does not know. The second return lists the
// unknown IDs so callers can surface them to the user.
func (s *ActionService) Resolve(ids []string) ([]entity.Cause, []string) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var causes []entity.Cause
	for _, cause := range s.catalog {
		if wanted[cause.ID] {
			causes = append(causes, cause)
			delete(wanted, cause.ID)
		}
	}

	var unknown []string
	for _, id := range ids {
		if wanted[id] {
			unknown = append(unknown, id)
			delete(wanted, id)
		}
	}
	return causes, unknown
}
