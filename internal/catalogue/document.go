// internal/catalogue/document.go
package catalogue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/walisonlf/fiscal/internal/types"
)

/*
 * Catalogue wire document.
 *
 * The import/export format is a JSON object with exactly three top-level
 * keys - cfop, cst_icms, cst_pis_cofins - each mapping a classification
 * code to one rule or, in the shared cst_pis_cofins partition, a list of
 * tax-typed rules.
 *
 * Two authoring formats are accepted per rule, matching the two formats the
 * original system shipped:
 *
 *   simple:  {description, validations: [{field, values|condition, message}]}
 *   rich:    {description, taxType, conditions: [...], exceptions: [...]}
 *
 * Both compile through internal/rules at import time. Simple-format
 * "condition" strings reference the validated column as "value"
 * ("value > 0"); the placeholder is bound to the concrete field during
 * compilation, so the string is parsed exactly once and never interpolated.
 *
 * Import is atomic and fail-closed: a document missing any of the three
 * keys, or containing a rule that does not compile, is rejected with
 * ErrInvalidFormat/ErrInvalidRule and the existing catalogue is untouched.
 */

// DocumentValidation is one entry of the simple authoring format.
type DocumentValidation struct {
	Field     string   `json:"field"`
	Values    []string `json:"values,omitempty"`
	Condition string   `json:"condition,omitempty"`
	Tolerance float64  `json:"tolerance,omitempty"`
	Message   string   `json:"message,omitempty"`
	Code      string   `json:"code,omitempty"`
}

// DocumentRule is one rule in either authoring format. Codes lists
// additional classification codes sharing this rule (code aliasing); the
// entry's own key is always included.
type DocumentRule struct {
	Codes       []string             `json:"codes,omitempty"`
	Description string               `json:"description,omitempty"`
	TaxType     string               `json:"taxType,omitempty"`
	Validations []DocumentValidation `json:"validations,omitempty"`
	Conditions  []types.ConditionDef `json:"conditions,omitempty"`
	Exceptions  []types.ExceptionDef `json:"exceptions,omitempty"`
}

// documentRules accepts a single rule object or a list of them, so the
// shared cst_pis_cofins partition can carry separate PIS and COFINS rules
// under one code.
type documentRules []DocumentRule

func (d *documentRules) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(data, (*[]DocumentRule)(d))
	}
	var single DocumentRule
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*d = documentRules{single}
	return nil
}

func (d documentRules) MarshalJSON() ([]byte, error) {
	if len(d) == 1 {
		return json.Marshal(d[0])
	}
	return json.Marshal([]DocumentRule(d))
}

// Document is the full catalogue wire format.
type Document struct {
	CFOP         map[string]documentRules `json:"cfop"`
	CSTICMS      map[string]documentRules `json:"cst_icms"`
	CSTPISCOFINS map[string]documentRules `json:"cst_pis_cofins"`
}

// ParseDocument decodes and structurally validates a catalogue document.
// All three partition keys must be present and be mappings.
func ParseDocument(data []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidFormat, err)
	}

	doc := &Document{}
	for _, p := range []struct {
		key  string
		dest *map[string]documentRules
	}{
		{types.PartitionCFOP, &doc.CFOP},
		{types.PartitionCSTICMS, &doc.CSTICMS},
		{types.PartitionCSTPISCOFINS, &doc.CSTPISCOFINS},
	} {
		raw, ok := top[p.key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, fmt.Errorf("%w: missing %q", types.ErrInvalidFormat, p.key)
		}
		if err := json.Unmarshal(raw, p.dest); err != nil {
			return nil, fmt.Errorf("%w: %q is not a mapping: %v", types.ErrInvalidFormat, p.key, err)
		}
	}

	return doc, nil
}

// Import replaces the whole catalogue with the document's rules, atomically.
// On any error the receiver is left untouched.
func (c *Catalogue) Import(data []byte) error {
	doc, err := ParseDocument(data)
	if err != nil {
		return err
	}

	fresh := New()
	for partition, m := range map[string]map[string]documentRules{
		types.PartitionCFOP:         doc.CFOP,
		types.PartitionCSTICMS:      doc.CSTICMS,
		types.PartitionCSTPISCOFINS: doc.CSTPISCOFINS,
	} {
		for code, docRules := range m {
			for _, dr := range docRules {
				defs, err := ruleDefs(partition, code, dr)
				if err != nil {
					return err
				}
				for _, def := range defs {
					if err := fresh.Upsert(partition, code, def); err != nil {
						return fmt.Errorf("%s %q: %w", partition, code, err)
					}
				}
			}
		}
	}

	c.parts = fresh.parts
	c.revision = fresh.revision
	return nil
}

// Export serializes the catalogue back to the wire document.
func (c *Catalogue) Export() ([]byte, error) {
	doc := Document{
		CFOP:         exportPartition(c.parts[types.PartitionCFOP]),
		CSTICMS:      exportPartition(c.parts[types.PartitionCSTICMS]),
		CSTPISCOFINS: exportPartition(c.parts[types.PartitionCSTPISCOFINS]),
	}
	return json.MarshalIndent(doc, "", "  ")
}

func exportPartition(part map[string][]*entry) map[string]documentRules {
	out := make(map[string]documentRules, len(part))
	for code, entries := range part {
		drs := make(documentRules, 0, len(entries))
		for _, e := range entries {
			var aliases []string
			for _, c := range e.def.Codes {
				if c != code {
					aliases = append(aliases, c)
				}
			}
			drs = append(drs, DocumentRule{
				Codes:       aliases,
				Description: e.def.Description,
				TaxType:     e.def.TaxType,
				Conditions:  e.def.Conditions,
				Exceptions:  e.def.Exceptions,
			})
		}
		out[code] = drs
	}
	return out
}

// ExportedRule is one catalogue code in storable form: the partition, the
// code, and the code's rules as a wire-format JSON fragment.
type ExportedRule struct {
	Partition string
	Code      string
	Document  json.RawMessage
}

// ExportEntries serializes the catalogue as one entry per code, ordered by
// partition and code, for row-oriented persistence.
func (c *Catalogue) ExportEntries() ([]ExportedRule, error) {
	var out []ExportedRule
	for _, partition := range []string{types.PartitionCFOP, types.PartitionCSTICMS, types.PartitionCSTPISCOFINS} {
		exported := exportPartition(c.parts[partition])
		for _, code := range c.Codes(partition) {
			raw, err := json.Marshal(exported[code])
			if err != nil {
				return nil, fmt.Errorf("%s %q: %w", partition, code, err)
			}
			out = append(out, ExportedRule{Partition: partition, Code: code, Document: raw})
		}
	}
	return out, nil
}

// ImportEntries replaces the whole catalogue with stored entries,
// atomically, mirroring Import for the row-oriented form.
func (c *Catalogue) ImportEntries(entries []ExportedRule) error {
	fresh := New()
	for _, e := range entries {
		var drs documentRules
		if err := json.Unmarshal(e.Document, &drs); err != nil {
			return fmt.Errorf("%w: %s %q: %v", types.ErrInvalidFormat, e.Partition, e.Code, err)
		}
		for _, dr := range drs {
			defs, err := ruleDefs(e.Partition, e.Code, dr)
			if err != nil {
				return err
			}
			for _, def := range defs {
				if err := fresh.Upsert(e.Partition, e.Code, def); err != nil {
					return fmt.Errorf("%s %q: %w", e.Partition, e.Code, err)
				}
			}
		}
	}

	c.parts = fresh.parts
	c.revision = fresh.revision
	return nil
}

// ruleDefs converts one document rule into rule definitions. Rich-format
// rules map one-to-one. Simple-format validations become in/expression
// conditions; in the shared partition they are split by tax so a PIS
// validation never fires on the COFINS dimension.
func ruleDefs(partition, code string, dr DocumentRule) ([]types.RuleDef, error) {
	if len(dr.Validations) > 0 && (len(dr.Conditions) > 0 || len(dr.Exceptions) > 0) {
		return nil, fmt.Errorf("%w: %s %q mixes validations with conditions", types.ErrInvalidRule, partition, code)
	}

	codes := aliasCodes(code, dr.Codes)

	if len(dr.Validations) == 0 {
		return []types.RuleDef{{
			Codes:       codes,
			Description: dr.Description,
			TaxType:     dr.TaxType,
			Conditions:  dr.Conditions,
			Exceptions:  dr.Exceptions,
		}}, nil
	}

	if partition != types.PartitionCSTPISCOFINS {
		return []types.RuleDef{{
			Codes:       codes,
			Description: dr.Description,
			Conditions:  validationConditions(partition, code, "", dr.Validations),
		}}, nil
	}

	var defs []types.RuleDef
	for _, taxType := range []string{types.TaxTypePIS, types.TaxTypeCOFINS} {
		conds := validationConditions(partition, code, taxType, dr.Validations)
		if len(conds) == 0 {
			continue
		}
		defs = append(defs, types.RuleDef{
			Codes:       codes,
			Description: dr.Description,
			TaxType:     taxType,
			Conditions:  conds,
		})
	}
	return defs, nil
}

// aliasCodes merges the entry's own key with its declared aliases.
func aliasCodes(code string, aliases []string) []string {
	codes := []string{code}
	for _, a := range aliases {
		if a != code {
			codes = append(codes, a)
		}
	}
	return codes
}

// validationConditions converts simple-format validations to condition
// definitions, deriving stable error codes when none are authored.
func validationConditions(partition, code, taxType string, vals []DocumentValidation) []types.ConditionDef {
	var conds []types.ConditionDef
	for _, v := range vals {
		if taxType != "" && !fieldBelongsToTax(v.Field, taxType) {
			continue
		}

		cond := types.ConditionDef{
			Field:        v.Field,
			ErrorCode:    v.Code,
			ErrorMessage: v.Message,
		}
		if cond.ErrorCode == "" {
			cond.ErrorCode = derivedCode(partition, taxType, code, v.Field)
		}

		if v.Condition != "" {
			cond.Expression = v.Condition
			cond.Tolerance = v.Tolerance
		} else {
			cond.Operator = "in"
			cond.Values = v.Values
		}
		conds = append(conds, cond)
	}
	return conds
}

// fieldBelongsToTax routes a simple-format validation to the PIS or COFINS
// rule by field name; fields naming neither tax apply to both.
func fieldBelongsToTax(field, taxType string) bool {
	isPIS := strings.Contains(field, types.TaxTypePIS)
	isCOFINS := strings.Contains(field, types.TaxTypeCOFINS)
	if !isPIS && !isCOFINS {
		return true
	}
	switch taxType {
	case types.TaxTypePIS:
		return isPIS
	case types.TaxTypeCOFINS:
		return isCOFINS
	default:
		return true
	}
}

// derivedCode builds the finding code used by the original when a
// validation carries none: CFOP_1101_CST ICMS, CST_PIS_49_Base PIS, ...
func derivedCode(partition, taxType, code, field string) string {
	prefix := strings.ToUpper(partition)
	if partition == types.PartitionCSTPISCOFINS {
		prefix = "CST_" + taxType
	}
	return fmt.Sprintf("%s_%s_%s", prefix, code, field)
}
