package model

import "time"

// Field tags used across the record sections:
//
//	schema:"required"  the key must be present and non-null in the request body
//	default:"..."      value applied when the field is left empty
//	validate:"..."     enumeration and range rules checked after decoding

type Profissional struct {
	Nome     string `json:"nome"`
	Registro string `json:"registro"`
	Unidade  string `json:"unidade"`
}

type Meta struct {
	Consentimento bool         `json:"consentimento"`
	Profissional  Profissional `json:"profissional"`
	TimestampISO  time.Time    `json:"timestamp_iso" default:"now"`
}

type Idade struct {
	Valor   int    `json:"valor" schema:"required"`
	Unidade string `json:"unidade" schema:"required" validate:"oneof=anos meses dias"`
}

type Localidade struct {
	Cidade string `json:"cidade" schema:"required"`
	UF     string `json:"uf" schema:"required"`
}

type Ocupacao struct {
	Atividade string `json:"atividade" schema:"required"`
	Local     string `json:"local"`
	Condicoes string `json:"condicoes"`
}

type Identificacao struct {
	NomeCompleto          string     `json:"nome_completo" schema:"required"`
	NomeSocial            string     `json:"nome_social"`
	Genero                string     `json:"genero"`
	SexoBiologico         string     `json:"sexo_biologico" schema:"required" validate:"oneof=masculino feminino"`
	Idade                 Idade      `json:"idade" schema:"required"`
	CorEtnia              string     `json:"cor_etnia" schema:"required"`
	EstadoCivil           string     `json:"estado_civil" schema:"required"`
	Ocupacao              Ocupacao   `json:"ocupacao" schema:"required"`
	Escolaridade          string     `json:"escolaridade" schema:"required"`
	Religiao              string     `json:"religiao"`
	Naturalidade          Localidade `json:"naturalidade" schema:"required"`
	Procedencia           Localidade `json:"procedencia" schema:"required"`
	Mae                   string     `json:"mae"`
	ResponsavelOuCuidador string     `json:"responsavel_ou_cuidador"`
	PlanoOuPrevidencia    string     `json:"plano_ou_previdencia"`
	GrauConfiabilidade    string     `json:"grau_confiabilidade" default:"bom" validate:"oneof=otimo bom regular ruim"`
}

type QueixaPrincipal struct {
	TextoEntreAspas string `json:"texto_entre_aspas" schema:"required"`
	Inicio          Inicio `json:"inicio" schema:"required"`
}

type Cronologia struct {
	Inicio     string `json:"inicio"`
	Duracao    string `json:"duracao"`
	Frequencia string `json:"frequencia"`
}

type Sintoma struct {
	Nome                 string     `json:"nome" schema:"required"`
	Localizacao          string     `json:"localizacao"`
	Caracteristicas      string     `json:"caracteristicas"`
	Intensidade0a10      *int       `json:"intensidade_0a10"`
	Cronologia           Cronologia `json:"cronologia" schema:"required"`
	Situacoes            string     `json:"situacoes"`
	FatoresAgrava        string     `json:"fatores_agrava"`
	FatoresAlivia        string     `json:"fatores_alivia"`
	Associados           string     `json:"associados"`
	PertinentesPositivos []string   `json:"pertinentes_positivos"`
	PertinentesNegativos []string   `json:"pertinentes_negativos"`
}

// HDA is the history of the present illness.
type HDA struct {
	Narrativa          string    `json:"narrativa" schema:"required"`
	SintomasPrincipais []Sintoma `json:"sintomas_principais"`
	ImpactoVida        string    `json:"impacto_vida"`
}

type SistemaIS struct {
	PerguntaGuardaChuva string       `json:"pergunta_guarda_chuva"`
	Itens               []SystemItem `json:"itens"`
}

// InterrogatorioSistematico is the review of systems. The set of systems is fixed.
type InterrogatorioSistematico struct {
	Geral              SistemaIS `json:"geral"`
	Respiratorio       SistemaIS `json:"respiratorio"`
	Cardiovascular     SistemaIS `json:"cardiovascular"`
	Gastrointestinal   SistemaIS `json:"gastrointestinal"`
	Geniturinario      SistemaIS `json:"geniturinario"`
	Musculoesqueletico SistemaIS `json:"musculoesqueletico"`
	Neurologico        SistemaIS `json:"neurologico"`
	Psiquiatrico       SistemaIS `json:"psiquiatrico"`
	Endocrino          SistemaIS `json:"endocrino"`
	Hemato             SistemaIS `json:"hemato"`
	Pele               SistemaIS `json:"pele"`
	Reprodutivo        SistemaIS `json:"reprodutivo"`
}

// SystemNames lists the review-of-systems entries in declaration order.
var SystemNames = []string{
	"geral", "respiratorio", "cardiovascular", "gastrointestinal", "geniturinario", "musculoesqueletico",
	"neurologico", "psiquiatrico", "endocrino", "hemato", "pele", "reprodutivo",
}

// Systems returns the review-of-systems entries keyed by their JSON name.
func (is *InterrogatorioSistematico) Systems() map[string]*SistemaIS {
	return map[string]*SistemaIS{
		"geral":              &is.Geral,
		"respiratorio":       &is.Respiratorio,
		"cardiovascular":     &is.Cardiovascular,
		"gastrointestinal":   &is.Gastrointestinal,
		"geniturinario":      &is.Geniturinario,
		"musculoesqueletico": &is.Musculoesqueletico,
		"neurologico":        &is.Neurologico,
		"psiquiatrico":       &is.Psiquiatrico,
		"endocrino":          &is.Endocrino,
		"hemato":             &is.Hemato,
		"pele":               &is.Pele,
		"reprodutivo":        &is.Reprodutivo,
	}
}

type Alergia struct {
	Agente string `json:"agente" schema:"required"`
	Reacao string `json:"reacao" schema:"required"`
}

type Medicacao struct {
	Nome      string `json:"nome" schema:"required"`
	Dose      string `json:"dose" schema:"required"`
	Posologia string `json:"posologia" schema:"required"`
}

type AntecedentePessoal struct {
	Cronicos                 []string    `json:"cronicos"`
	Alergias                 []Alergia   `json:"alergias"`
	MedicacoesUso            []Medicacao `json:"medicacoes_uso"`
	CirurgiasHospitalizacoes []string    `json:"cirurgias_hospitalizacoes"`
	ImunizacoesRelevantes    []string    `json:"imunizacoes_relevantes"`
}

type AntecedenteFamiliar struct {
	Parentesco string `json:"parentesco" schema:"required"`
	Condicao   string `json:"condicao" schema:"required"`
}

type EstadoAtual struct {
	Fisico string `json:"fisico"`
	Mental string `json:"mental"`
}

type EventoLinhaTempo struct {
	Ano    string `json:"ano" schema:"required"`
	Evento string `json:"evento" schema:"required"`
}

type Antecedentes struct {
	Pessoais     AntecedentePessoal    `json:"pessoais" schema:"required"`
	Familiares   []AntecedenteFamiliar `json:"familiares"`
	EstadoAtual  EstadoAtual           `json:"estado_atual"`
	LinhaDoTempo []EventoLinhaTempo    `json:"linha_do_tempo"`
}

type AtividadeFisica struct {
	Tipo             string `json:"tipo"`
	FrequenciaSemana int    `json:"frequencia_semana"`
	DuracaoMin       int    `json:"duracao_min"`
}

type Sono struct {
	Horas     float64 `json:"horas"`
	Qualidade string  `json:"qualidade"`
}

type Alimentacao struct {
	Padrao     string `json:"padrao"`
	Restricoes string `json:"restricoes"`
}

type Tabagismo struct {
	Status                 string  `json:"status" default:"nunca" validate:"oneof=nunca ex atual"`
	MacosDia               float64 `json:"macos_dia"`
	Anos                   int     `json:"anos"`
	CargaTabagicaPackyears float64 `json:"carga_tabagica_packyears"`
}

type Etilismo struct {
	Tipos       []string `json:"tipos"`
	DosesSemana int      `json:"doses_semana"`
	UsoPesadoEp bool     `json:"uso_pesado_ep"`
}

type Habitos struct {
	AtividadeFisica   AtividadeFisica `json:"atividade_fisica"`
	Sono              Sono            `json:"sono"`
	Alimentacao       Alimentacao     `json:"alimentacao"`
	Tabagismo         Tabagismo       `json:"tabagismo"`
	Etilismo          Etilismo        `json:"etilismo"`
	OutrasSubstancias string          `json:"outras_substancias"`
}

type Psicossocial struct {
	ComposicaoFamiliar       string `json:"composicao_familiar"`
	Dependentes              int    `json:"dependentes"`
	RendaFamiliarFaixa       string `json:"renda_familiar_faixa"`
	Saneamento               string `json:"saneamento"`
	AguaSegura               string `json:"agua_segura"`
	RiscosOcupacionais       string `json:"riscos_ocupacionais"`
	SuporteSocial            string `json:"suporte_social"`
	CrencasPraticasCulturais string `json:"crencas_praticas_culturais"`
	BarreirasAcesso          string `json:"barreiras_acesso"`
}

// Auditoria carries record-format metadata. VersaoRegistro is a format tag, not an edit counter.
type Auditoria struct {
	DataHoraAnamnese time.Time `json:"data_hora_anamnese"`
	VersaoRegistro   int       `json:"versao_registro"`
}
