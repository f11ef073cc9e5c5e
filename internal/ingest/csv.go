// Package ingest reads spreadsheet exports into rows the validation engine
// consumes, normalizing column headers to their canonical names.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/walisonlf/fiscal/internal/types"
)

/*
 * CSV ingestion.
 *
 * Spreadsheet exports name the same columns differently depending on the
 * source system ("Código IVA" for "CST ICMS", "% PIS" for "Aliquota PIS").
 * Headers are normalized through an alias table; every canonical name maps
 * to itself implicitly, and unknown headers pass through untouched so rules
 * over custom columns keep working.
 */

// ColumnAliases maps export header names to canonical column names.
// Canonical names never need an entry for themselves.
var ColumnAliases = map[string]string{
	"Nº documento":          "Nº da Nota Fiscal",
	"Valor":                 "Val.Total NF",
	"Texto breve material":  "Descrição",
	"Código IVA":            "CST ICMS",
	"Base cálculo ICMS":     "Base ICMS",
	"Código IVA COFINS":     "CST COFINS",
	"Base cálculo COFINS":   "Base COFINS",
	"% COFINS":              "Aliquota COFINS",
	"Código IVA PIS":        "CST PIS",
	"Base cálculo PIS":      "Base PIS",
	"% PIS":                 "Aliquota PIS",
	"Base cálculo ICMS-ST":  "Base ICMS_ST",
	"% ICMS-ST":             "Aliquota ICMS_ST",
	"Valor ICMS-ST":         "Valor ICMS_ST",
}

// RequiredColumns are the canonical columns the rule set expects. Their
// absence does not abort ingestion; missing classification codes surface as
// per-row findings instead.
var RequiredColumns = []string{
	"CFOP",
	"CST ICMS",
	"CST PIS",
	"CST COFINS",
	"Base ICMS",
	"Valor ICMS",
	"Base ICMS_ST",
	"Valor ICMS_ST",
	"Base PIS",
	"Aliquota PIS",
	"Valor PIS",
	"Base COFINS",
	"Aliquota COFINS",
	"Valor COFINS",
	"Val.Total NF",
}

// Reader decodes CSV into rows.
type Reader struct {
	delimiter rune
	aliases   map[string]string
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithDelimiter sets the CSV field delimiter. Defaults to ';', the usual
// delimiter of Brazilian spreadsheet exports.
func WithDelimiter(d rune) ReaderOption {
	return func(r *Reader) { r.delimiter = d }
}

// WithAliases replaces the header alias table.
func WithAliases(aliases map[string]string) ReaderOption {
	return func(r *Reader) { r.aliases = aliases }
}

// NewReader returns a CSV reader with the default alias table.
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{
		delimiter: ';',
		aliases:   ColumnAliases,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read decodes all rows from src. The first record is the header; its
// cells are normalized through the alias table to canonical names.
func (r *Reader) Read(src io.Reader) ([]types.Row, error) {
	cr := csv.NewReader(src)
	cr.Comma = r.delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", types.ErrInvalidFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", types.ErrInvalidFormat, err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = r.canonical(h)
	}

	var rows []types.Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", types.ErrInvalidFormat, len(rows)+2, err)
		}

		row := make(types.Row, len(columns))
		for i, cell := range record {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			row[columns[i]] = strings.TrimSpace(cell)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// canonical resolves one header cell to its canonical column name.
func (r *Reader) canonical(header string) string {
	h := strings.TrimSpace(stripBOM(header))
	if canon, ok := r.aliases[h]; ok {
		return canon
	}
	return h
}

// MissingColumns reports which required columns the header set lacks.
// Callers surface these as a batch-level warning.
func MissingColumns(rows []types.Row) []string {
	if len(rows) == 0 {
		return append([]string(nil), RequiredColumns...)
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := rows[0].Get(col); !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// stripBOM drops a UTF-8 byte order mark from the first header cell.
func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
