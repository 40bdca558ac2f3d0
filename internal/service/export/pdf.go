package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/jwalitptl/anamnese-api/internal/model"
)

const (
	marginMM   = 20.0
	lineHeight = 5.5
)

// accent is the heading colour, #2C5F7C.
var accent = [3]int{0x2C, 0x5F, 0x7C}

// PDF renders the printable A4 report for a record. Identical records give
// identical bytes: the document dates come from the record itself.
func PDF(a *model.Anamnese) ([]byte, error) {
	return renderPDF(a, true)
}

func renderPDF(a *model.Anamnese, compress bool) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, marginMM)
	pdf.SetCreationDate(a.CreatedAt.UTC())
	pdf.SetModificationDate(a.CreatedAt.UTC())
	pdf.SetCatalogSort(true)
	pdf.SetTitle("Anamnese "+a.ID.String(), true)
	pdf.SetCreator("anamnese-api", true)

	r := &renderer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.AddPage()
	r.render(a)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type renderer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (r *renderer) render(a *model.Anamnese) {
	r.title("ANAMNESE CLÍNICA")

	id := a.Identificacao
	r.heading("IDENTIFICAÇÃO")
	r.field("Nome", id.NomeCompleto)
	r.optional("Nome Social", id.NomeSocial)
	r.field("Idade", fmt.Sprintf("%d %s", id.Idade.Valor, id.Idade.Unidade))
	r.field("Sexo Biológico", id.SexoBiologico)
	r.optional("Gênero", id.Genero)
	r.field("Cor/Etnia", id.CorEtnia)
	r.field("Estado Civil", id.EstadoCivil)
	r.field("Ocupação", id.Ocupacao.Atividade)
	r.field("Escolaridade", id.Escolaridade)
	r.field("Naturalidade", id.Naturalidade.Cidade+"/"+id.Naturalidade.UF)
	r.field("Procedência", id.Procedencia.Cidade+"/"+id.Procedencia.UF)

	r.heading("QUEIXA PRINCIPAL")
	r.text(a.QueixaPrincipal.TextoEntreAspas)
	r.text("Início: " + a.QueixaPrincipal.Inicio.Describe())

	r.heading("HISTÓRIA DA DOENÇA ATUAL")
	r.text(a.HDA.Narrativa)
	r.optional("Impacto na vida", a.HDA.ImpactoVida)

	pessoais := a.Antecedentes.Pessoais
	r.heading("ANTECEDENTES")
	r.optional("Crônicos", strings.Join(pessoais.Cronicos, ", "))
	r.optional("Alergias", pessoais.AllergiesText())
	if len(pessoais.MedicacoesUso) > 0 {
		r.label("Medicações em uso")
		r.pdf.Ln(lineHeight)
		for _, m := range pessoais.MedicacoesUso {
			r.text(fmt.Sprintf("• %s - %s - %s", m.Nome, m.Dose, m.Posologia))
		}
	}

	hab := a.Habitos
	r.heading("HÁBITOS DE VIDA")
	r.field("Tabagismo", fmt.Sprintf("%s (Carga tabágica: %s pack-years)", hab.Tabagismo.Status, model.FormatNumber(hab.Tabagismo.CargaTabagicaPackyears)))
	r.field("Etilismo", fmt.Sprintf("%d doses/semana", hab.Etilismo.DosesSemana))
	r.optional("Atividade física", hab.AtividadeFisica.Tipo)

	if a.ResumoClinicoIA != nil && *a.ResumoClinicoIA != "" {
		r.heading("RESUMO CLÍNICO (IA)")
		r.text(*a.ResumoClinicoIA)
	}

	created := a.CreatedAt.UTC()
	r.pdf.Ln(10)
	r.pdf.SetFont("Helvetica", "I", 10)
	r.text(fmt.Sprintf("Documento gerado em: %s às %s", created.Format("2006-01-02"), created.Format("15:04")))
	r.text("Grau de confiabilidade: " + id.GrauConfiabilidade)
}

func (r *renderer) title(s string) {
	r.pdf.SetFont("Helvetica", "B", 16)
	r.pdf.SetTextColor(accent[0], accent[1], accent[2])
	r.pdf.CellFormat(0, 10, r.tr(s), "", 1, "C", false, 0, "")
	r.pdf.Ln(5)
}

func (r *renderer) heading(s string) {
	r.pdf.Ln(3)
	r.pdf.SetFont("Helvetica", "B", 12)
	r.pdf.SetTextColor(accent[0], accent[1], accent[2])
	r.pdf.CellFormat(0, 8, r.tr(s), "", 1, "L", false, 0, "")
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.SetFont("Helvetica", "", 10)
}

func (r *renderer) label(s string) {
	r.pdf.SetFont("Helvetica", "B", 10)
	r.pdf.Write(lineHeight, r.tr(s+":"))
	r.pdf.SetFont("Helvetica", "", 10)
}

// field writes "Label: value" on its own line.
func (r *renderer) field(label, value string) {
	r.label(label)
	r.pdf.Write(lineHeight, r.tr(" "+value))
	r.pdf.Ln(lineHeight)
}

// optional writes a field only when value is not empty.
func (r *renderer) optional(label, value string) {
	if value == "" {
		return
	}
	r.field(label, value)
}

func (r *renderer) text(s string) {
	r.pdf.MultiCell(0, lineHeight, r.tr(s), "", "L", false)
}
