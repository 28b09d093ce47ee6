// Package contract extracts a structured summary ("ficha do contrato")
// from Brazilian investment contract text using rule-based patterns.
// All field names in the JSON output are Portuguese, matching what the
// frontend renders.
package contract

// Instrument is the kind of investment instrument the document represents.
type Instrument string

const (
	InstrumentMutuoConversivel Instrument = "mutuo_conversivel"
	InstrumentSAFE             Instrument = "safe"
	InstrumentTermSheet        Instrument = "term_sheet"
	InstrumentAcordoAcionistas Instrument = "acordo_acionistas"
	InstrumentSideLetter       Instrument = "side_letter"
)

// PersonKind distinguishes individuals from legal entities.
type PersonKind string

const (
	PessoaFisica   PersonKind = "PF"
	PessoaJuridica PersonKind = "PJ"
)

// CompanyKind is the Brazilian corporate form.
type CompanyKind string

const (
	CompanyLTDA                 CompanyKind = "LTDA"
	CompanySA                   CompanyKind = "SA"
	CompanyEIRELI               CompanyKind = "EIRELI"
	CompanyEmpresarioIndividual CompanyKind = "EI"
)

// Currency of a monetary value.
type Currency string

const (
	CurrencyBRL Currency = "BRL"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Indexer is the economic index the principal is corrected by.
type Indexer string

const (
	IndexerIPCA  Indexer = "IPCA"
	IndexerSELIC Indexer = "SELIC"
	IndexerCDI   Indexer = "CDI"
	IndexerIGPM  Indexer = "IGP_M"
)

// Party is a contract party (investor, guarantor).
type Party struct {
	Nome      string     `json:"nome"`
	Tipo      PersonKind `json:"tipo"`
	Documento string     `json:"documento,omitempty"`
	Endereco  string     `json:"endereco,omitempty"`
}

// Company is the invested company, with corporate-form details.
type Company struct {
	Party
	TipoSocietario CompanyKind `json:"tipo_societario,omitempty"`
	CNPJ           string      `json:"cnpj,omitempty"`
	NomeFantasia   string      `json:"nome_fantasia,omitempty"`
}

// Money is an amount tagged with its currency.
type Money struct {
	Moeda Currency `json:"moeda"`
	Valor float64  `json:"valor"`
}

// Parties groups everyone bound by the contract.
type Parties struct {
	Empresa      Company `json:"empresa"`
	Investidores []Party `json:"investidores"`
	Garantidores []Party `json:"garantidores,omitempty"`
}

// Dates holds the key contract dates as extracted strings (DD-MM-YYYY).
type Dates struct {
	Assinatura      string `json:"assinatura,omitempty"`
	VigenciaInicio  string `json:"vigencia_inicio,omitempty"`
	VigenciaFim     string `json:"vigencia_fim,omitempty"`
	VencimentoMutuo string `json:"vencimento_mutuo,omitempty"`
}

// Values holds the financial terms.
type Values struct {
	Principal          Money    `json:"principal"`
	JurosAA            *float64 `json:"juros_aa,omitempty"`
	Indexador          Indexer  `json:"indexador,omitempty"`
	ValuationCap       *float64 `json:"valuation_cap,omitempty"`
	DescontoPercentual *float64 `json:"desconto_percentual,omitempty"`
}

// Conversion describes how and when the note converts into equity.
type Conversion struct {
	Gatilhos                   []string `json:"gatilhos"`
	DefinicaoRodadaQualificada string   `json:"definicao_rodada_qualificada"`
	Formula                    string   `json:"formula"`
	MFN                        bool     `json:"mfn"`
}

// Rights captures common investor protections.
type Rights struct {
	ProRata               bool     `json:"pro_rata"`
	DireitoInformacao     bool     `json:"direito_informacao"`
	AntiDiluicao          string   `json:"anti_diluicao"`
	PreferenciaLiquidacao bool     `json:"preferencia_liquidacao"`
	TagAlong              bool     `json:"tag_along"`
	DragAlong             bool     `json:"drag_along"`
	Veto                  []string `json:"veto,omitempty"`
}

// Obligations captures covenants and restrictions on the company.
type Obligations struct {
	Covenants            []string `json:"covenants,omitempty"`
	CondicoesPrecedentes []string `json:"condicoes_precedentes,omitempty"`
	RestricoesCessao     string   `json:"restricoes_cessao,omitempty"`
}

// Jurisdiction holds governing law and forum.
type Jurisdiction struct {
	LeiAplicavel string `json:"lei_aplicavel"`
	Foro         string `json:"foro,omitempty"`
	Arbitragem   bool   `json:"arbitragem"`
}

// Summary is the ficha do contrato rendered alongside the clause analysis.
type Summary struct {
	TipoInstrumento Instrument   `json:"tipo_instrumento"`
	Partes          Parties      `json:"partes"`
	Datas           Dates        `json:"datas"`
	Valores         Values       `json:"valores"`
	Conversao       Conversion   `json:"conversao"`
	Direitos        Rights       `json:"direitos"`
	Obrigacoes      Obligations  `json:"obrigacoes"`
	Jurisdicao      Jurisdiction `json:"jurisdicao"`
	Observacoes     string       `json:"observacoes,omitempty"`
}
