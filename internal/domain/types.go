// Package domain contains core business entities and types for pharmacogenomic
// (PGx) drug risk assessment based on CPIC dosing guidelines.
//
// Reference: Relling MV, Klein TE (2011) CPIC: Clinical Pharmacogenetics
// Implementation Consortium of the Pharmacogenomics Research Network.
// Clin Pharmacol Ther. 89(3):464-7. doi: 10.1038/clpt.2010.279
package domain

import (
	"errors"
)

// RiskLabel represents the clinical risk classification for a drug given a
// patient's pharmacogenomic phenotype. These labels drive the advisory output
// of the decision-support pipeline and form a closed set.
type RiskLabel string

const (
	RiskSafe         RiskLabel = "Safe"
	RiskAdjustDosage RiskLabel = "Adjust Dosage"
	RiskToxic        RiskLabel = "Toxic"
	RiskIneffective  RiskLabel = "Ineffective"
	RiskUnknown      RiskLabel = "Unknown"
)

// Severity represents how urgent the clinical follow-up for a risk finding is.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Validation errors for medical data integrity
var (
	ErrNotFound         = errors.New("not found")
	ErrNoSampleData     = errors.New("VCF file has no sample data")
	ErrVCFValidation    = errors.New("VCF validation failed")
	ErrInvalidRiskLabel = errors.New("invalid risk label")
	ErrInvalidSeverity  = errors.New("invalid severity")
	ErrUnknownDrug      = errors.New("drug not in pharmacogenomic panel")
)

// IsValid validates that the RiskLabel belongs to the closed label set.
// Only valid labels may enter downstream clinical reporting.
func (r RiskLabel) IsValid() bool {
	switch r {
	case RiskSafe, RiskAdjustDosage, RiskToxic, RiskIneffective, RiskUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk label.
// Required for proper logging and audit trails in medical software.
func (r RiskLabel) String() string {
	return string(r)
}

// RequiresClinicalAction determines if the risk label requires clinical
// follow-up before the drug is prescribed. An Unknown finding is treated
// conservatively: it must not be confused with Safe downstream.
func (r RiskLabel) RequiresClinicalAction() bool {
	switch r {
	case RiskToxic, RiskIneffective, RiskAdjustDosage:
		return true
	case RiskSafe:
		return false
	default:
		return true
	}
}

// LogFields returns structured logging fields for audit trails.
func (r RiskLabel) LogFields() map[string]any {
	return map[string]any{
		"risk_label":      string(r),
		"is_valid":        r.IsValid(),
		"requires_action": r.RequiresClinicalAction(),
	}
}

// IsValid validates the severity level.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityNone, SeverityLow, SeverityMedium, SeverityHigh:
		return true
	default:
		return false
	}
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}
