// Package plan decides which compliance surfaces a scan covers.
package plan

import (
	"fmt"
	"strings"

	"compliance-autopilot/internal/catalog"
	"compliance-autopilot/internal/model"
)

// Plan returns the surfaces to scan for a project, in catalog order, plus
// a human-readable summary for the agent log. The minimal plan is every
// surface the catalog defines; the contract permits narrowing here without
// changing downstream stages.
func Plan(project string, cat *catalog.Catalog) ([]model.Surface, string) {
	surfaces := cat.Surfaces()

	names := make([]string, 0, len(surfaces))
	total := 0
	for _, s := range surfaces {
		names = append(names, string(s))
		total += len(cat.ControlsFor(s))
	}

	summary := fmt.Sprintf("selected %d surface(s) for %s covering %d control(s): %s",
		len(surfaces), project, total, strings.Join(names, ", "))
	return surfaces, summary
}
