package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordFormatVersion is stored in auditoria.versao_registro for every new record.
const RecordFormatVersion = 1

// Anamnese is a clinical intake record owned by a single user.
type Anamnese struct {
	ID                        uuid.UUID                 `json:"id"`
	UserID                    uuid.UUID                 `json:"user_id"`
	Meta                      Meta                      `json:"meta"`
	Identificacao             Identificacao             `json:"identificacao"`
	QueixaPrincipal           QueixaPrincipal           `json:"queixa_principal"`
	HDA                       HDA                       `json:"hda"`
	InterrogatorioSistematico InterrogatorioSistematico `json:"interrogatorio_sistematico"`
	Antecedentes              Antecedentes              `json:"antecedentes"`
	Habitos                   Habitos                   `json:"habitos"`
	Psicossocial              Psicossocial              `json:"psicossocial"`
	Auditoria                 Auditoria                 `json:"auditoria"`
	ResumoClinicoIA           *string                   `json:"resumo_clinico_ia"`
	CreatedAt                 time.Time                 `json:"created_at"`
	UpdatedAt                 time.Time                 `json:"updated_at"`
}

// AnamneseInput is the body accepted on creation.
type AnamneseInput struct {
	Meta                      Meta                      `json:"meta" schema:"required"`
	Identificacao             Identificacao             `json:"identificacao" schema:"required"`
	QueixaPrincipal           QueixaPrincipal           `json:"queixa_principal" schema:"required"`
	HDA                       HDA                       `json:"hda" schema:"required"`
	InterrogatorioSistematico InterrogatorioSistematico `json:"interrogatorio_sistematico"`
	Antecedentes              Antecedentes              `json:"antecedentes" schema:"required"`
	Habitos                   Habitos                   `json:"habitos" schema:"required"`
	Psicossocial              Psicossocial              `json:"psicossocial" schema:"required"`
}

// AnamnesePatch is the body accepted on update. Nil sections are left untouched.
type AnamnesePatch struct {
	Meta                      *Meta                      `json:"meta"`
	Identificacao             *Identificacao             `json:"identificacao"`
	QueixaPrincipal           *QueixaPrincipal           `json:"queixa_principal"`
	HDA                       *HDA                       `json:"hda"`
	InterrogatorioSistematico *InterrogatorioSistematico `json:"interrogatorio_sistematico"`
	Antecedentes              *Antecedentes              `json:"antecedentes"`
	Habitos                   *Habitos                   `json:"habitos"`
	Psicossocial              *Psicossocial              `json:"psicossocial"`
}

// Empty reports whether the patch carries no section.
func (p *AnamnesePatch) Empty() bool {
	return p.Meta == nil && p.Identificacao == nil && p.QueixaPrincipal == nil && p.HDA == nil &&
		p.InterrogatorioSistematico == nil && p.Antecedentes == nil && p.Habitos == nil && p.Psicossocial == nil
}

// NewAnamnese builds a fresh record for owner from validated input.
func NewAnamnese(owner uuid.UUID, in *AnamneseInput, now time.Time) *Anamnese {
	return &Anamnese{
		ID:                        uuid.New(),
		UserID:                    owner,
		Meta:                      in.Meta,
		Identificacao:             in.Identificacao,
		QueixaPrincipal:           in.QueixaPrincipal,
		HDA:                       in.HDA,
		InterrogatorioSistematico: in.InterrogatorioSistematico,
		Antecedentes:              in.Antecedentes,
		Habitos:                   in.Habitos,
		Psicossocial:              in.Psicossocial,
		Auditoria: Auditoria{
			DataHoraAnamnese: now,
			VersaoRegistro:   RecordFormatVersion,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AnamneseFilter narrows a listing.
type AnamneseFilter struct {
	UserID uuid.UUID
	// Search is matched literally and case-insensitively against the patient
	// name and the chief complaint text.
	Search string
	Limit  int
}

// MatchesSearch applies the listing search rule to a record.
func (a *Anamnese) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	return strings.Contains(strings.ToLower(a.Identificacao.NomeCompleto), needle) ||
		strings.Contains(strings.ToLower(a.QueixaPrincipal.TextoEntreAspas), needle)
}
