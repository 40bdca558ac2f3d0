package model

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	apperrors "github.com/jwalitptl/anamnese-api/pkg/errors"
	"github.com/jwalitptl/anamnese-api/pkg/validator"
)

var rules = validator.New()

// ValidateInput decodes and validates a creation body. Unknown keys are
// dropped and declared defaults are filled in.
func ValidateInput(body []byte, now time.Time) (*AnamneseInput, error) {
	var in AnamneseInput
	if err := decode(body, &in, now); err != nil {
		return nil, err
	}
	if err := checkVariants("queixa_principal", &in.QueixaPrincipal, "interrogatorio_sistematico", &in.InterrogatorioSistematico); err != nil {
		return nil, err
	}
	return &in, nil
}

// ValidatePatch decodes and validates an update body. Absent or null
// sections stay nil; present ones are validated like on creation.
func ValidatePatch(body []byte, now time.Time) (*AnamnesePatch, error) {
	var patch AnamnesePatch
	if err := decode(body, &patch, now); err != nil {
		return nil, err
	}
	if err := checkVariants("queixa_principal", patch.QueixaPrincipal, "interrogatorio_sistematico", patch.InterrogatorioSistematico); err != nil {
		return nil, err
	}
	return &patch, nil
}

func decode(body []byte, v interface{}, now time.Time) error {
	body, err := validator.CheckRequired(body, v)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) {
			return validator.TypeError(typeErr)
		}
		var parseErr *time.ParseError
		if stderrors.As(err, &parseErr) {
			return apperrors.NewValidation("body", "type=datetime")
		}
		return apperrors.NewValidation("body", "json")
	}

	if err := validator.ApplyDefaults(v, now); err != nil {
		return apperrors.NewInternal(err)
	}
	return rules.Validate(v)
}

func checkVariants(qpPath string, qp *QueixaPrincipal, isPath string, is *InterrogatorioSistematico) error {
	if qp != nil {
		if err := qp.Inicio.check(qpPath + ".inicio"); err != nil {
			return err
		}
	}
	if is == nil {
		return nil
	}
	systems := is.Systems()
	for _, name := range SystemNames {
		for i, item := range systems[name].Itens {
			if err := item.check(fmt.Sprintf("%s.%s.itens[%d]", isPath, name, i)); err != nil {
				return err
			}
		}
	}
	return nil
}
