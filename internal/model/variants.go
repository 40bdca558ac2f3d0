package model

import (
	"encoding/json"
	"fmt"
	"strconv"

	apperrors "github.com/jwalitptl/anamnese-api/pkg/errors"
)

// Inicio is the onset of the chief complaint, e.g. {"há": 3, "unidade": "dias"}.
// Keys other than the well-known ones are kept as sent.
type Inicio map[string]interface{}

const (
	inicioHaKey      = "há"
	inicioUnidadeKey = "unidade"
)

// Ha returns the onset amount.
func (i Inicio) Ha() (float64, bool) {
	return number(i[inicioHaKey])
}

func (i Inicio) Unidade() string {
	s, _ := i[inicioUnidadeKey].(string)
	return s
}

// Describe renders the onset as "há 3 dias". A missing amount renders as 0.
func (i Inicio) Describe() string {
	ha := "0"
	if v, ok := i[inicioHaKey]; ok && v != nil {
		if n, ok := number(v); ok {
			ha = strconv.FormatFloat(n, 'f', -1, 64)
		} else {
			ha = fmt.Sprint(v)
		}
	}
	return fmt.Sprintf("há %s %s", ha, i.Unidade())
}

func (i Inicio) check(path string) error {
	if v, ok := i[inicioHaKey]; ok && v != nil {
		if _, isNum := number(v); !isNum {
			return apperrors.NewValidation(path+"."+inicioHaKey, "type=number")
		}
	}
	if v, ok := i[inicioUnidadeKey]; ok && v != nil {
		if _, isStr := v.(string); !isStr {
			return apperrors.NewValidation(path+"."+inicioUnidadeKey, "type=string")
		}
	}
	return nil
}

// SystemItem is one finding in a review-of-systems entry, e.g.
// {"sintoma": "tosse", "presente": true, "detalhes": "seca"}. Other keys pass through.
type SystemItem map[string]interface{}

const (
	itemSintomaKey  = "sintoma"
	itemPresenteKey = "presente"
	itemDetalhesKey = "detalhes"
)

func (s SystemItem) Sintoma() string {
	v, _ := s[itemSintomaKey].(string)
	return v
}

// Presente reports whether the finding was marked present and whether the key was set at all.
func (s SystemItem) Presente() (bool, bool) {
	v, ok := s[itemPresenteKey].(bool)
	return v, ok
}

func (s SystemItem) Detalhes() string {
	v, _ := s[itemDetalhesKey].(string)
	return v
}

func (s SystemItem) check(path string) error {
	for _, key := range []string{itemSintomaKey, itemDetalhesKey} {
		if v, ok := s[key]; ok && v != nil {
			if _, isStr := v.(string); !isStr {
				return apperrors.NewValidation(path+"."+key, "type=string")
			}
		}
	}
	if v, ok := s[itemPresenteKey]; ok && v != nil {
		if _, isBool := v.(bool); !isBool {
			return apperrors.NewValidation(path+"."+itemPresenteKey, "type=boolean")
		}
	}
	return nil
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
