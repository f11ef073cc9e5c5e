// internal/validator/matcher.go
package validator

import (
	"fmt"
	"strings"

	"github.com/walisonlf/fiscal/internal/catalogue"
	"github.com/walisonlf/fiscal/internal/rules"
	"github.com/walisonlf/fiscal/internal/types"
)

/*
 * Per-dimension rule matching.
 *
 * For each classification axis (CFOP, CST ICMS, CST PIS, CST COFINS) the
 * matcher resolves the row's code against the catalogue and produces
 * findings:
 *
 *   - code absent or blank      -> one error, <DIM>001
 *   - code without a rule       -> one warning, <DIM>002
 *   - rule found, exception hit -> no findings, rule suppressed for the row
 *   - rule found                -> one error per failing check
 *
 * An unknown code is deliberately a warning, not an error: the catalogue is
 * user-extensible, and an unmapped code means "nothing to check", not "the
 * row is wrong".
 */

// Fallbacks for checks authored without a code or message.
const (
	fallbackCode    = "RULE_CONDITION"
	fallbackMessage = "Valor inválido para %s"
)

// Match is the outcome of checking one row against one dimension.
type Match struct {
	Rule             *rules.CompiledRule
	ExceptionMatched bool
	Errors           []types.Finding
	Warnings         []types.Finding
}

// MatchDimension resolves and evaluates the rule for one dimension of a row.
func MatchDimension(cat *catalogue.Catalogue, row types.Row, dim types.Dimension) Match {
	field := dim.Field()
	code, _ := row.Get(field)
	code = strings.TrimSpace(code)

	if code == "" {
		return Match{Errors: []types.Finding{{
			Field:   field,
			Code:    findingCode(dim, "001"),
			Message: fmt.Sprintf("%s não informado", field),
		}}}
	}

	rule := cat.Lookup(dim, code)
	if rule == nil {
		return Match{Warnings: []types.Finding{{
			Field:    field,
			Code:     findingCode(dim, "002"),
			Message:  fmt.Sprintf("Não há regras definidas para o %s %s", field, code),
			Severity: types.SeverityWarning,
		}}}
	}

	if rules.MatchesException(rule, row) {
		return Match{Rule: rule, ExceptionMatched: true}
	}

	m := Match{Rule: rule}
	for i := range rule.Checks {
		check := &rule.Checks[i]
		if rules.Evaluate(&check.Condition, row) {
			continue
		}
		m.Errors = append(m.Errors, checkFinding(check, dim, code))
	}
	return m
}

// checkFinding builds the finding for one failed check. The finding points
// at the check's own field when it names one, otherwise at the dimension
// field; "{value}" in the message is replaced with the row's code.
func checkFinding(check *rules.CompiledCheck, dim types.Dimension, code string) types.Finding {
	field := check.Condition.Field
	if field == "" {
		field = dim.Field()
	}

	fcode := check.ErrorCode
	if fcode == "" {
		fcode = fallbackCode
	}

	message := check.ErrorMessage
	if message == "" {
		message = fmt.Sprintf(fallbackMessage, field)
	}
	message = strings.ReplaceAll(message, "{value}", code)

	return types.Finding{Field: field, Code: fcode, Message: message}
}

// findingCode derives the structural finding code for a dimension:
// CFOP001, CSTICMS002, ...
func findingCode(dim types.Dimension, suffix string) string {
	return strings.ReplaceAll(dim.Field(), " ", "") + suffix
}
