package model

// ControlDefinition is one named compliance requirement from the catalog.
// Definitions are immutable after catalog load and keyed uniquely by
// (framework, control ID).
type ControlDefinition struct {
	Framework Framework `json:"framework" yaml:"framework"`
	ControlID string    `json:"controlId" yaml:"control_id"`
	Title     string    `json:"title" yaml:"title"`
	Surface   Surface   `json:"surface" yaml:"surface"`
	// Severity is the severity a Finding carries when this control is
	// violated.
	Severity Severity `json:"severity" yaml:"severity"`
}

// Surface is a named category of checkable project state. The set is fixed
// at compile time.
type Surface string

const (
	SurfaceMergeApprovals    Surface = "merge_approvals"
	SurfaceBranchProtection  Surface = "branch_protection"
	SurfacePipelineSecurity  Surface = "pipeline_security"
	SurfaceAuditTrail        Surface = "audit_trail"
	SurfaceDataDocumentation Surface = "data_documentation"
)

// AllSurfaces returns the fixed surface set in canonical order.
func AllSurfaces() []Surface {
	return []Surface{
		SurfaceMergeApprovals,
		SurfaceBranchProtection,
		SurfacePipelineSecurity,
		SurfaceAuditTrail,
		SurfaceDataDocumentation,
	}
}

// Valid reports whether s is one of the known surfaces.
func (s Surface) Valid() bool {
	for _, known := range AllSurfaces() {
		if s == known {
			return true
		}
	}
	return false
}
