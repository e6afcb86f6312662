package model

import (
	"encoding/json"
	"fmt"
)

// DataType identifies the semantic type of a payload submitted for
// verification. The simulated verifier biases its confidence baseline by
// type.
type DataType string

const (
	// DataTypeCompliance covers regulatory requirement records.
	DataTypeCompliance DataType = "compliance"
	// DataTypeMarket covers market insight records.
	DataTypeMarket DataType = "market"
	// DataTypeProduct covers product classification records.
	DataTypeProduct DataType = "product"
)

// Validate rejects unknown data types before any provider call is attempted.
func (d DataType) Validate() error {
	switch d {
	case DataTypeCompliance, DataTypeMarket, DataTypeProduct:
		return nil
	default:
		return fmt.Errorf("unknown verification data type %q", d)
	}
}

// VerificationResult is the transient outcome of one verification call. The
// caller merges it into the data it wraps by attaching the confidence and
// optionally substituting CorrectedData.
type VerificationResult struct {
	Explanation   string
	CorrectedData json.RawMessage
	Confidence    float64
	Verified      bool
}

// ComplianceRequirement is one regulatory requirement for a target market,
// annotated with a verification confidence before reaching the report.
type ComplianceRequirement struct {
	ID              string
	Name            string
	Description     string
	Agency          string
	Market          string
	EstimatedDays   int
	EstimatedCost   float64
	ConfidenceScore float64
}

// WithConfidence returns a copy of the requirement annotated with a
// confidence score.
func (r ComplianceRequirement) WithConfidence(score float64) ComplianceRequirement {
	r.ConfidenceScore = score
	return r
}
