package model

import (
	"fmt"
	"strconv"
	"strings"
)

// AllergiesText renders allergies as "agente (reacao)", comma separated.
func (p AntecedentePessoal) AllergiesText() string {
	parts := make([]string, 0, len(p.Alergias))
	for _, a := range p.Alergias {
		parts = append(parts, fmt.Sprintf("%s (%s)", a.Agente, a.Reacao))
	}
	return strings.Join(parts, ", ")
}

// FormatNumber prints a float without trailing zeros.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
