// Package types provides domain models shared across the fiscal validator.
//
// Zero-dependency design: types.go and errors.go use only the standard
// library so the core engine can be embedded without pulling in storage or
// CLI dependencies. Revision ID utilities in ids.go import uuid but are
// isolated for selective inclusion.
package types

import "encoding/json"

// Row is one spreadsheet line as a field-name to value mapping.
// Values are the raw cell strings; numeric interpretation happens inside the
// rule engine. A Row is treated as immutable for the duration of one
// validation. Unknown fields pass through untouched.
type Row map[string]string

// Get returns the value for a field and whether the field is present.
// An empty string counts as present-but-empty, matching spreadsheet cells.
func (r Row) Get(field string) (string, bool) {
	v, ok := r[field]
	return v, ok
}

// Dimension is one of the four classification axes a row is checked against.
type Dimension int

const (
	DimensionCFOP Dimension = iota
	DimensionCSTICMS
	DimensionCSTPIS
	DimensionCSTCOFINS
)

// Dimensions lists all axes in validation order. The order only affects the
// sequence of findings, never the outcome.
var Dimensions = []Dimension{DimensionCFOP, DimensionCSTICMS, DimensionCSTPIS, DimensionCSTCOFINS}

// Field returns the canonical row field holding the dimension's code.
func (d Dimension) Field() string {
	switch d {
	case DimensionCFOP:
		return "CFOP"
	case DimensionCSTICMS:
		return "CST ICMS"
	case DimensionCSTPIS:
		return "CST PIS"
	case DimensionCSTCOFINS:
		return "CST COFINS"
	default:
		return ""
	}
}

// Partition returns the catalogue partition the dimension resolves against.
// CST PIS and CST COFINS share one partition, discriminated by tax type.
func (d Dimension) Partition() string {
	switch d {
	case DimensionCFOP:
		return PartitionCFOP
	case DimensionCSTICMS:
		return PartitionCSTICMS
	case DimensionCSTPIS, DimensionCSTCOFINS:
		return PartitionCSTPISCOFINS
	default:
		return ""
	}
}

// TaxType returns the PIS/COFINS discriminator for the shared partition.
// Empty for dimensions with a dedicated partition.
func (d Dimension) TaxType() string {
	switch d {
	case DimensionCSTPIS:
		return TaxTypePIS
	case DimensionCSTCOFINS:
		return TaxTypeCOFINS
	default:
		return ""
	}
}

// Catalogue partition names. These are also the three required top-level
// keys of the wire document.
const (
	PartitionCFOP         = "cfop"
	PartitionCSTICMS      = "cst_icms"
	PartitionCSTPISCOFINS = "cst_pis_cofins"
)

// Tax type discriminators for the shared cst_pis_cofins partition.
// An empty tax type on a rule means it applies to both.
const (
	TaxTypePIS    = "PIS"
	TaxTypeCOFINS = "COFINS"
)

// Severity classifies a finding. Only errors affect Result.Valid.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// String returns the lowercase severity name used in reports.
func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// MarshalJSON emits the severity name, not the enum value, so reports stay
// readable and stable across reorderings of the constants.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the severity names emitted by MarshalJSON.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if name == "warning" {
		*s = SeverityWarning
	} else {
		*s = SeverityError
	}
	return nil
}

// Finding is one diagnostic produced for a row. Severity matches the Result
// list carrying the finding; the zero value is SeverityError.
type Finding struct {
	Field    string   `json:"field"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Result is the outcome of validating one row.
// Valid is true iff Errors is empty; warnings never affect it.
type Result struct {
	Valid    bool      `json:"valid"`
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

// FingerprintFields are the identity-bearing fields, in fixed order, from
// which the engine derives a row's cache key. Rows identical on these fields
// are cache-equivalent even if other fields differ.
var FingerprintFields = []string{
	"Empresa",
	"Nº da Nota Fiscal",
	"CFOP",
	"CST ICMS",
	"CST PIS",
	"CST COFINS",
}

// Fields checked by the built-in structural validations.
const (
	// AccessKeyLength is the exact length of an NFe access key.
	AccessKeyLength = 44

	// AccessKeyField is the row field carrying the NFe access key.
	AccessKeyField = "Chave de acesso NFe"

	// IssueDateField and PostingDateField are compared by the built-in
	// chronology check.
	IssueDateField   = "Data Emissão"
	PostingDateField = "Data Lançamento"
)

// Resource limits enforced at rule compilation time. Compile-time
// enforcement moves error detection to rule authoring rather than row
// evaluation.
const (
	// MaxConditionDepth bounds composite condition nesting. 16 levels is
	// far beyond any authored rule and keeps imported documents from
	// recursing without bound.
	MaxConditionDepth = 16

	// MaxInValues limits in/nin membership lists. 128 covers the largest
	// CFOP alias sets in the default catalogue.
	MaxInValues = 128

	// MaxExpressionLength bounds expression source strings before parsing.
	MaxExpressionLength = 512
)
