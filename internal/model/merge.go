package model

import "time"

// MergePartial returns a copy of existing with every section present in patch
// replaced wholesale. Identity, ownership, audit data, summary and creation
// time are never touched. UpdatedAt never moves backwards.
func MergePartial(existing *Anamnese, patch *AnamnesePatch, now time.Time) *Anamnese {
	merged := *existing

	if patch.Meta != nil {
		merged.Meta = *patch.Meta
	}
	if patch.Identificacao != nil {
		merged.Identificacao = *patch.Identificacao
	}
	if patch.QueixaPrincipal != nil {
		merged.QueixaPrincipal = *patch.QueixaPrincipal
	}
	if patch.HDA != nil {
		merged.HDA = *patch.HDA
	}
	if patch.InterrogatorioSistematico != nil {
		merged.InterrogatorioSistematico = *patch.InterrogatorioSistematico
	}
	if patch.Antecedentes != nil {
		merged.Antecedentes = *patch.Antecedentes
	}
	if patch.Habitos != nil {
		merged.Habitos = *patch.Habitos
	}
	if patch.Psicossocial != nil {
		merged.Psicossocial = *patch.Psicossocial
	}

	merged.UpdatedAt = latest(now, existing.UpdatedAt)
	return &merged
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
