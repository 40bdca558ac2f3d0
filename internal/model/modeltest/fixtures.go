// Package modeltest holds record fixtures shared by package tests.
package modeltest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jwalitptl/anamnese-api/internal/model"
)

// Body returns a complete, valid creation payload. Callers may mutate it freely.
func Body() map[string]interface{} {
	return map[string]interface{}{
		"meta": map[string]interface{}{
			"consentimento": true,
			"profissional": map[string]interface{}{
				"nome":     "Dra. Helena Prado",
				"registro": "CRM-SP 123456",
				"unidade":  "UBS Vila Mariana",
			},
		},
		"identificacao": map[string]interface{}{
			"nome_completo":  "Maria Aparecida Souza",
			"sexo_biologico": "feminino",
			"idade":          map[string]interface{}{"valor": 54, "unidade": "anos"},
			"cor_etnia":      "parda",
			"estado_civil":   "casada",
			"ocupacao":       map[string]interface{}{"atividade": "costureira"},
			"escolaridade":   "ensino médio",
			"naturalidade":   map[string]interface{}{"cidade": "Recife", "uf": "PE"},
			"procedencia":    map[string]interface{}{"cidade": "São Paulo", "uf": "SP"},
		},
		"queixa_principal": map[string]interface{}{
			"texto_entre_aspas": "Tosse há três semanas",
			"inicio":            map[string]interface{}{"há": 3, "unidade": "semanas"},
		},
		"hda": map[string]interface{}{
			"narrativa": "Paciente refere tosse seca persistente, pior à noite.",
			"sintomas_principais": []interface{}{
				map[string]interface{}{
					"nome":             "tosse",
					"intensidade_0a10": 6,
					"cronologia":       map[string]interface{}{"inicio": "gradual", "duracao": "3 semanas"},
				},
			},
		},
		"antecedentes": map[string]interface{}{
			"pessoais": map[string]interface{}{
				"cronicos": []interface{}{"hipertensão"},
			},
		},
		"habitos": map[string]interface{}{
			"tabagismo": map[string]interface{}{"status": "ex", "carga_tabagica_packyears": 12.5},
			"etilismo":  map[string]interface{}{"doses_semana": 2},
		},
		"psicossocial": map[string]interface{}{
			"composicao_familiar": "mora com o marido",
		},
	}
}

// JSON marshals body or fails the test.
func JSON(t testing.TB, body map[string]interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return data
}

// Input returns the validated form of Body.
func Input(t testing.TB) *model.AnamneseInput {
	t.Helper()
	in, err := model.ValidateInput(JSON(t, Body()), time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("fixture rejected: %v", err)
	}
	return in
}

// Named returns a validated input with the given patient name and complaint.
func Named(t testing.TB, name, complaint string) *model.AnamneseInput {
	t.Helper()
	body := Body()
	body["identificacao"].(map[string]interface{})["nome_completo"] = name
	body["queixa_principal"].(map[string]interface{})["texto_entre_aspas"] = complaint
	in, err := model.ValidateInput(JSON(t, body), time.Now().UTC())
	if err != nil {
		t.Fatalf("fixture rejected: %v", err)
	}
	return in
}
