package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Finding is a single detected violation of one control against one
// concrete artifact. Identity is (framework, control, artifact); duplicate
// detections of the same pair collapse to one Finding.
type Finding struct {
	ID          string    `json:"id"`
	Severity    Severity  `json:"severity"`
	Framework   Framework `json:"framework"`
	ControlID   string    `json:"controlId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Remediation string    `json:"remediation"`
	Artifact    string    `json:"artifact"`
}

// Key returns the identity of the finding used for deduplication.
func (f Finding) Key() string {
	return string(f.Framework) + "|" + f.ControlID + "|" + f.Artifact
}

// FindingID derives the stable finding ID from the control and the
// discriminating artifact. The same inputs always produce the same ID.
func FindingID(fw Framework, controlID, artifact string) string {
	sum := sha256.Sum256([]byte(artifact))
	return fmt.Sprintf("%s-%s-%s",
		strings.ToLower(string(fw)),
		strings.ToLower(controlID),
		hex.EncodeToString(sum[:])[:8])
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank orders severities for sorting, highest first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

type Framework string

const (
	FrameworkSOC2  Framework = "SOC2"
	FrameworkGDPR  Framework = "GDPR"
	FrameworkHIPAA Framework = "HIPAA"
)

// Valid reports whether fw is a supported framework.
func (fw Framework) Valid() bool {
	switch fw {
	case FrameworkSOC2, FrameworkGDPR, FrameworkHIPAA:
		return true
	}
	return false
}
