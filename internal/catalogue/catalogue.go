// Package catalogue owns the rule catalogue: all validation rules
// partitioned by classification dimension and indexed by code.
//
// The catalogue is an explicit instance handed to the validation engine by
// injection; all mutation goes through Upsert/Remove/Import so that every
// change bumps the revision ID the engine uses to invalidate its result
// cache. There is no global rule state.
//
// The catalogue holds no synchronization primitives: hosts that mutate it
// while validating concurrently must serialize writes against reads.
package catalogue

import (
	"fmt"
	"sort"

	"github.com/walisonlf/fiscal/internal/rules"
	"github.com/walisonlf/fiscal/internal/types"
)

// entry pairs a rule's authoring form (kept for export) with its compiled
// form (used for evaluation).
type entry struct {
	def  types.RuleDef
	rule *rules.CompiledRule
}

// Catalogue holds all rules, partitioned by dimension and indexed by code.
// The cst_pis_cofins partition may hold up to one PIS-typed, one
// COFINS-typed, and one untyped rule per code.
type Catalogue struct {
	parts    map[string]map[string][]*entry
	revision types.RevisionID
}

// New returns an empty catalogue with a fresh revision.
func New() *Catalogue {
	return &Catalogue{
		parts: map[string]map[string][]*entry{
			types.PartitionCFOP:         {},
			types.PartitionCSTICMS:      {},
			types.PartitionCSTPISCOFINS: {},
		},
		revision: types.NewRevisionID(),
	}
}

// Revision identifies the current catalogue state. Any mutation produces a
// new revision; the validation engine clears its result cache whenever the
// revision it last observed differs.
func (c *Catalogue) Revision() types.RevisionID {
	return c.revision
}

// Lookup resolves the rule for a dimension and classification code.
// In the shared cst_pis_cofins partition a rule typed for the dimension's
// tax wins over an untyped one. Returns nil when no rule is defined.
func (c *Catalogue) Lookup(dim types.Dimension, code string) *rules.CompiledRule {
	part, ok := c.parts[dim.Partition()]
	if !ok {
		return nil
	}
	entries := part[code]
	taxType := dim.TaxType()

	var untyped *rules.CompiledRule
	for _, e := range entries {
		switch e.rule.TaxType {
		case taxType:
			return e.rule
		case "":
			if untyped == nil {
				untyped = e.rule
			}
		}
	}
	return untyped
}

// Describe returns the human description for a code, or the original's
// placeholder when none is recorded.
func (c *Catalogue) Describe(partition, code string) string {
	if part, ok := c.parts[partition]; ok {
		for _, e := range part[code] {
			if e.def.Description != "" {
				return e.def.Description
			}
		}
	}
	return "Descrição não disponível"
}

// Upsert compiles a rule definition and installs it for every code it
// lists within the partition, replacing any rule with the same tax type.
// The definition's code list defaults to the given code when empty.
// Bumps the revision on success.
func (c *Catalogue) Upsert(partition, code string, def types.RuleDef) error {
	part, ok := c.parts[partition]
	if !ok {
		return fmt.Errorf("%w: %q", types.ErrUnknownPartition, partition)
	}

	if len(def.Codes) == 0 {
		def.Codes = []string{code}
	}

	compiled, err := rules.Compile(&def)
	if err != nil {
		return err
	}

	e := &entry{def: def, rule: compiled}
	for _, cd := range def.Codes {
		part[cd] = replaceByTaxType(part[cd], e)
	}

	c.revision = types.NewRevisionID()
	return nil
}

// replaceByTaxType swaps out the entry sharing the new entry's tax type,
// keeping differently-typed rules for the same code intact.
func replaceByTaxType(entries []*entry, e *entry) []*entry {
	for i, old := range entries {
		if old.rule.TaxType == e.rule.TaxType {
			entries[i] = e
			return entries
		}
	}
	return append(entries, e)
}

// Remove deletes all rules for a code within a partition.
// Multi-code rules are unindexed for that code and forget it in their code
// lists, so an export/import round-trip cannot resurrect it as an alias.
// Reports whether anything was removed; bumps the revision only when
// something was.
func (c *Catalogue) Remove(partition, code string) bool {
	part, ok := c.parts[partition]
	if !ok {
		return false
	}
	if _, ok := part[code]; !ok {
		return false
	}
	delete(part, code)

	for _, entries := range part {
		for _, e := range entries {
			e.def.Codes = withoutCode(e.def.Codes, code)
			e.rule.Codes = withoutCode(e.rule.Codes, code)
		}
	}

	c.revision = types.NewRevisionID()
	return true
}

// withoutCode filters one code out of a code list.
func withoutCode(codes []string, code string) []string {
	kept := make([]string, 0, len(codes))
	for _, c := range codes {
		if c != code {
			kept = append(kept, c)
		}
	}
	return kept
}

// Codes returns the sorted set of codes indexed in a partition.
func (c *Catalogue) Codes(partition string) []string {
	part, ok := c.parts[partition]
	if !ok {
		return nil
	}
	codes := make([]string, 0, len(part))
	for code := range part {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Len returns the number of indexed codes across all partitions.
func (c *Catalogue) Len() int {
	n := 0
	for _, part := range c.parts {
		n += len(part)
	}
	return n
}
