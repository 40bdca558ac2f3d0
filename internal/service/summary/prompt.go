package summary

import (
	"fmt"
	"strings"

	"github.com/jwalitptl/anamnese-api/internal/model"
)

// SystemMessage frames every summary request.
const SystemMessage = "Você é um assistente médico especializado em resumos clínicos estruturados."

// BuildPrompt renders the fixed summary prompt for a record. The output depends
// only on the record.
func BuildPrompt(a *model.Anamnese) string {
	id := a.Identificacao
	qp := a.QueixaPrincipal
	pessoais := a.Antecedentes.Pessoais
	hab := a.Habitos

	var b strings.Builder
	b.WriteString("Você é um médico experiente. Gere um resumo clínico estruturado e profissional em português a partir dos seguintes dados de anamnese:\n\n")

	b.WriteString("**IDENTIFICAÇÃO:**\n")
	fmt.Fprintf(&b, "Nome: %s\n", id.NomeCompleto)
	fmt.Fprintf(&b, "Idade: %d %s\n", id.Idade.Valor, id.Idade.Unidade)
	fmt.Fprintf(&b, "Sexo: %s\n", id.SexoBiologico)
	fmt.Fprintf(&b, "Ocupação: %s\n\n", id.Ocupacao.Atividade)

	b.WriteString("**QUEIXA PRINCIPAL:**\n")
	fmt.Fprintf(&b, "%s\n", qp.TextoEntreAspas)
	fmt.Fprintf(&b, "Início: %s\n\n", qp.Inicio.Describe())

	b.WriteString("**HISTÓRIA DA DOENÇA ATUAL:**\n")
	fmt.Fprintf(&b, "%s\n\n", a.HDA.Narrativa)

	b.WriteString("**ANTECEDENTES PESSOAIS:**\n")
	fmt.Fprintf(&b, "Crônicos: %s\n", orNone(strings.Join(pessoais.Cronicos, ", "), "Nenhum"))
	fmt.Fprintf(&b, "Alergias: %s\n", orNone(pessoais.AllergiesText(), "Nenhuma"))
	fmt.Fprintf(&b, "Medicações: %s\n\n", orNone(joinMedications(pessoais.MedicacoesUso), "Nenhuma"))

	b.WriteString("**HÁBITOS:**\n")
	fmt.Fprintf(&b, "Tabagismo: %s (carga tabágica: %s pack-years)\n", hab.Tabagismo.Status, model.FormatNumber(hab.Tabagismo.CargaTabagicaPackyears))
	fmt.Fprintf(&b, "Etilismo: %d doses/semana\n", hab.Etilismo.DosesSemana)
	fmt.Fprintf(&b, "Atividade física: %s\n\n", orNone(hab.AtividadeFisica.Tipo, "Nenhuma"))

	b.WriteString("Gere um resumo clínico conciso (máximo 300 palavras) destacando os pontos mais relevantes para o diagnóstico e conduta.")
	return b.String()
}

func joinMedications(list []model.Medicacao) string {
	parts := make([]string, 0, len(list))
	for _, m := range list {
		parts = append(parts, fmt.Sprintf("%s %s %s", m.Nome, m.Dose, m.Posologia))
	}
	return strings.Join(parts, ", ")
}

func orNone(s, none string) string {
	if s == "" {
		return none
	}
	return s
}
