// internal/validator/summary.go
package validator

import "github.com/walisonlf/fiscal/internal/types"

// Summary aggregates the outcome of validating a batch of rows.
type Summary struct {
	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Invalid  int `json:"invalid"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// ValidateAll validates rows in order, returning per-row results and the
// batch summary.
func (e *Engine) ValidateAll(rows []types.Row) ([]types.Result, Summary) {
	results := make([]types.Result, 0, len(rows))
	var s Summary

	for _, row := range rows {
		result := e.Validate(row)
		results = append(results, result)

		s.Total++
		if result.Valid {
			s.Valid++
		} else {
			s.Invalid++
		}
		s.Errors += len(result.Errors)
		s.Warnings += len(result.Warnings)
	}

	return results, s
}
