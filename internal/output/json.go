package output

import (
	"encoding/json"
	"os"

	"compliance-autopilot/internal/model"
)

// WriteJSON writes the full scan report as indented JSON.
func WriteJSON(path string, r *model.ScanReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
