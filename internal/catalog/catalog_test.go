package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-autopilot/internal/model"
)

func TestLoadEmbedded(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cat.Len())

	ctrl, ok := cat.Lookup(model.FrameworkSOC2, "CC6.1")
	require.True(t, ok)
	assert.Equal(t, model.SeverityCritical, ctrl.Severity)
	assert.Equal(t, model.SurfaceMergeApprovals, ctrl.Surface)

	_, ok = cat.Lookup(model.FrameworkSOC2, "CC9.9")
	assert.False(t, ok)
}

func TestSurfacesDeclarationOrder(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []model.Surface{
		model.SurfaceMergeApprovals,
		model.SurfaceBranchProtection,
		model.SurfacePipelineSecurity,
		model.SurfaceAuditTrail,
		model.SurfaceDataDocumentation,
	}, cat.Surfaces())
}

func TestControlsForOrdering(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	controls := cat.ControlsFor(model.SurfaceDataDocumentation)
	require.Len(t, controls, 3)
	// Framework order, then control ID within a framework.
	assert.Equal(t, "Art.13", controls[0].ControlID)
	assert.Equal(t, "Art.30", controls[1].ControlID)
	assert.Equal(t, "164.308(a)(1)", controls[2].ControlID)

	assert.Empty(t, cat.ControlsFor(model.Surface("unknown")))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`controls:
  - framework: GDPR
    control_id: Art.5
    title: Data minimisation
    surface: data_documentation
    severity: low
`), 0o644))

	cat, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	cases := map[string]string{
		"empty":             `controls: []`,
		"unknown framework": "controls:\n  - framework: PCI\n    control_id: X\n    title: t\n    surface: audit_trail\n    severity: low\n",
		"unknown surface":   "controls:\n  - framework: SOC2\n    control_id: X\n    title: t\n    surface: nope\n    severity: low\n",
		"unknown severity":  "controls:\n  - framework: SOC2\n    control_id: X\n    title: t\n    surface: audit_trail\n    severity: extreme\n",
		"missing id":        "controls:\n  - framework: SOC2\n    title: t\n    surface: audit_trail\n    severity: low\n",
		"duplicate": "controls:\n" +
			"  - framework: SOC2\n    control_id: X\n    title: t\n    surface: audit_trail\n    severity: low\n" +
			"  - framework: SOC2\n    control_id: X\n    title: t2\n    surface: audit_trail\n    severity: high\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}
