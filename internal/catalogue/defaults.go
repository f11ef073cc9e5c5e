// internal/catalogue/defaults.go
package catalogue

import (
	_ "embed"
	"fmt"
)

// defaultsJSON is the catalogue the validator ships with: the CFOP
// compatibility tables plus the per-CST ICMS/PIS/COFINS consistency rules.
//
//go:embed defaults.json
var defaultsJSON []byte

// Default returns a fresh catalogue loaded with the built-in rules.
// Hosts that manage their own rules can start from New() instead.
func Default() (*Catalogue, error) {
	c := New()
	if err := c.Import(defaultsJSON); err != nil {
		return nil, fmt.Errorf("embedded catalogue: %w", err)
	}
	return c, nil
}
