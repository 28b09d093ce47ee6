package contract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/contratoclaro/contratoclaro/internal/clause"
)

// Instrument type patterns run against accent-folded lowercase text, so
// "Mútuo Conversível" and "MUTUO CONVERSIVEL" both match. Order matters:
// the first hit wins, and mútuo conversível is checked before SAFE since
// SAFE terms often appear inside conversion clauses.
var instrumentPatterns = []struct {
	kind Instrument
	re   *regexp.Regexp
}{
	{InstrumentMutuoConversivel, regexp.MustCompile(`mutuo\s+conversivel|emprestimo\s+conversivel|convertible\s+note`)},
	{InstrumentSAFE, regexp.MustCompile(`\bsafe\b|simple\s+agreement\s+for\s+future\s+equity|instrumento\s+simples\s+para\s+patrimonio\s+futuro`)},
	{InstrumentTermSheet, regexp.MustCompile(`term\s+sheet|termo\s+de\s+compromisso|carta\s+de\s+intencoes|memorando\s+de\s+entendimentos`)},
	{InstrumentAcordoAcionistas, regexp.MustCompile(`acordo\s+de\s+acionistas|acordo\s+de\s+quotistas|shareholders?\s+agreement|quotaholders?\s+agreement`)},
	{InstrumentSideLetter, regexp.MustCompile(`side\s+letter|carta\s+adicional|instrumento\s+particular\s+adicional`)},
}

var (
	companyNameRe = regexp.MustCompile(`(?mi)(?:^|\n)\s*(.+?)\s*,?\s*(?:LTDA|S\.?A\.?|EIRELI|Empres[áa]rio\s+Individual)\b`)
	cnpjRe        = regexp.MustCompile(`(?i)CNPJ[:\s]*(\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2})`)
	companyKindRe = regexp.MustCompile(`(?i)\b(LTDA|S\.?A\.?|EIRELI|Empres[áa]rio\s+Individual)\b`)

	investorRe  = regexp.MustCompile(`(?i)(?:investidor|s[óo]cio)[\s:]*(.+?)(?:\n|,|;)`)
	docHolderRe = regexp.MustCompile(`(?i)(.+?)\s+(?:CPF|CNPJ)[\s:]*(\d[\d.\-/]+)`)
	guarantorRe = regexp.MustCompile(`(?i)(?:garantidor|fiador|avalista)[\s:]*(.+?)(?:\n|,|;)`)

	dateExtendedRe = regexp.MustCompile(`(?i)(\d{1,2})\s+de\s+(\p{L}+)\s+de\s+(\d{4})`)

	signatureDateRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)assinatura[\s:]*(\d{1,2}[/.-]\d{1,2}[/.-]\d{4})`),
		regexp.MustCompile(`(?i)data[\s:]*(\d{1,2}[/.-]\d{1,2}[/.-]\d{4})`),
		regexp.MustCompile(`(?i)(\d{1,2}[/.-]\d{1,2}[/.-]\d{4}).*assinatura`),
	}
	maturityDateRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)vencimento[\s:]*(\d{1,2}[/.-]\d{1,2}[/.-]\d{4})`),
		regexp.MustCompile(`(?i)prazo.*?at[ée][\s:]*(\d{1,2}[/.-]\d{1,2}[/.-]\d{4})`),
		regexp.MustCompile(`(?i)vig[êe]ncia.*?(\d{1,2}[/.-]\d{1,2}[/.-]\d{4})`),
	}

	principalRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:valor|montante|quantia).*?R\$\s*([\d.,]+)`),
		regexp.MustCompile(`(?i)(?:investimento|aporte).*?R\$\s*([\d.,]+)`),
		regexp.MustCompile(`(?i)R\$\s*([\d.,]+).*?(?:investido|aportado)`),
	}
	interestRe     = regexp.MustCompile(`(?i)juros?\s+de\s+(\d+(?:,\d+)?)\s*%\s*(?:ao\s+ano|a\.a\.)|taxa\s+de\s+juros?\s+(\d+(?:,\d+)?)\s*%`)
	valuationCapRe = regexp.MustCompile(`(?i)(?:valuation\s+cap|teto\s+de\s+avalia[çc][ãa]o|valor\s+m[áa]ximo)[\s:]*R\$\s*([\d.,]+)`)
	discountRe     = regexp.MustCompile(`(?i)desconto\s+de\s+(\d+(?:,\d+)?)\s*%|(\d+(?:,\d+)?)\s*%\s+de\s+desconto`)

	forumRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)foro[\s:]+(.+?)(?:\n|\.)`),
		regexp.MustCompile(`(?i)jurisdi[çc][ãa]o[\s:]+(.+?)(?:\n|\.)`),
		regexp.MustCompile(`(?i)comarca[\s:]+(.+?)(?:\n|\.)`),
	}
)

// Extract builds a Summary from the full contract text and the detected
// sections. It never fails: when nothing can be extracted the returned
// summary carries placeholder parties and an advisory note.
func Extract(text string, sections []clause.Section) Summary {
	folded := foldText(text)

	// The parties section concentrates qualification data; fall back to
	// the document opening where parties are customarily qualified.
	partiesText := findSectionText(sections, "PARTES", "QUALIFICAÇÃO")
	if partiesText == "" {
		partiesText = head(text, 2000)
	}

	return Summary{
		TipoInstrumento: identifyInstrument(folded),
		Partes: Parties{
			Empresa:      extractCompany(partiesText),
			Investidores: extractInvestors(partiesText),
			Garantidores: extractGuarantors(partiesText),
		},
		Datas:       extractDates(text),
		Valores:     extractValues(text, folded),
		Conversao:   defaultConversion(folded),
		Direitos:    extractRights(folded),
		Obrigacoes:  extractObligations(folded),
		Jurisdicao:  extractJurisdiction(text, folded),
		Observacoes: buildObservations(text, folded),
	}
}

// MinimalSummary is the fallback when the document yields nothing usable.
func MinimalSummary() Summary {
	return Summary{
		TipoInstrumento: InstrumentSAFE,
		Partes: Parties{
			Empresa: Company{Party: Party{
				Nome: "Empresa não identificada",
				Tipo: PessoaJuridica,
			}},
			Investidores: []Party{{
				Nome: "Investidor não identificado",
				Tipo: PessoaFisica,
			}},
		},
		Valores:     Values{Principal: Money{Moeda: CurrencyBRL}},
		Conversao:   defaultConversion(""),
		Jurisdicao:  Jurisdiction{LeiAplicavel: "Brasil"},
		Observacoes: "Extração automática limitada - requer análise manual",
	}
}

func identifyInstrument(folded string) Instrument {
	for _, p := range instrumentPatterns {
		if p.re.MatchString(folded) {
			return p.kind
		}
	}
	switch {
	case strings.Contains(folded, "conversao") || strings.Contains(folded, "convertible") || strings.Contains(folded, "juros"):
		return InstrumentMutuoConversivel
	case strings.Contains(folded, "acionistas") || strings.Contains(folded, "quotistas") || strings.Contains(folded, "shareholders"):
		return InstrumentAcordoAcionistas
	case strings.Contains(folded, "term sheet") || strings.Contains(folded, "carta de intencoes"):
		return InstrumentTermSheet
	}
	return InstrumentSAFE
}

func extractCompany(text string) Company {
	c := Company{Party: Party{
		Nome: "Empresa não identificada",
		Tipo: PessoaJuridica,
	}}

	if m := companyNameRe.FindStringSubmatch(text); m != nil {
		c.Nome = strings.TrimSpace(m[1])
	}
	if m := cnpjRe.FindStringSubmatch(text); m != nil {
		c.CNPJ = m[1]
		c.Documento = m[1]
	}
	if m := companyKindRe.FindStringSubmatch(text); m != nil {
		c.TipoSocietario = mapCompanyKind(m[1])
	}
	return c
}

func mapCompanyKind(raw string) CompanyKind {
	folded := foldText(raw)
	compact := strings.ReplaceAll(strings.ReplaceAll(folded, ".", ""), " ", "")
	switch {
	case strings.Contains(compact, "ltda"):
		return CompanyLTDA
	case strings.Contains(compact, "eireli"):
		return CompanyEIRELI
	case strings.Contains(compact, "empresario"):
		return CompanyEmpresarioIndividual
	case strings.Contains(compact, "sa"):
		return CompanySA
	}
	return ""
}

func extractInvestors(text string) []Party {
	var investors []Party
	seen := map[string]bool{}

	add := func(name, doc string) {
		name = strings.TrimSpace(name)
		if len([]rune(name)) <= 5 || seen[name] {
			return
		}
		kind := PessoaFisica
		if doc != "" && (strings.Contains(doc, "/") || len(digitsOnly(doc)) == 14) {
			kind = PessoaJuridica
		}
		investors = append(investors, Party{Nome: name, Tipo: kind, Documento: doc})
		seen[name] = true
	}

	for _, m := range investorRe.FindAllStringSubmatch(text, -1) {
		add(m[1], "")
	}
	for _, m := range docHolderRe.FindAllStringSubmatch(text, -1) {
		add(m[1], m[2])
	}

	if len(investors) == 0 {
		investors = append(investors, Party{
			Nome: "Investidor não identificado",
			Tipo: PessoaFisica,
		})
	}
	return investors
}

func extractGuarantors(text string) []Party {
	var guarantors []Party
	for _, m := range guarantorRe.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if len([]rune(name)) > 5 {
			guarantors = append(guarantors, Party{Nome: name, Tipo: PessoaFisica})
		}
	}
	return guarantors
}

func extractDates(text string) Dates {
	var d Dates
	for _, re := range signatureDateRes {
		if m := re.FindStringSubmatch(text); m != nil {
			d.Assinatura = formatDate(m[1])
			break
		}
	}
	for _, re := range maturityDateRes {
		if m := re.FindStringSubmatch(text); m != nil {
			d.VencimentoMutuo = formatDate(m[1])
			break
		}
	}
	if d.Assinatura == "" {
		// Extended form: "15 de março de 2024".
		if m := dateExtendedRe.FindStringSubmatch(text); m != nil {
			if month, ok := brazilianMonths[foldText(m[2])]; ok {
				day, _ := strconv.Atoi(m[1])
				d.Assinatura = fmt.Sprintf("%02d-%02d-%s", day, month, m[3])
			}
		}
	}
	return d
}

var brazilianMonths = map[string]int{
	"janeiro": 1, "fevereiro": 2, "marco": 3, "abril": 4,
	"maio": 5, "junho": 6, "julho": 7, "agosto": 8,
	"setembro": 9, "outubro": 10, "novembro": 11, "dezembro": 12,
}

func extractValues(text, folded string) Values {
	v := Values{Principal: Money{Moeda: CurrencyBRL}}

	for _, re := range principalRes {
		if m := re.FindStringSubmatch(text); m != nil {
			if amount, err := parseBRNumber(m[1]); err == nil {
				v.Principal.Valor = amount
				break
			}
		}
	}
	if m := interestRe.FindStringSubmatch(text); m != nil {
		if rate, err := parseBRNumber(firstGroup(m)); err == nil {
			v.JurosAA = &rate
		}
	}
	if m := valuationCapRe.FindStringSubmatch(text); m != nil {
		if capValue, err := parseBRNumber(m[1]); err == nil {
			v.ValuationCap = &capValue
		}
	}
	if m := discountRe.FindStringSubmatch(text); m != nil {
		if pct, err := parseBRNumber(firstGroup(m)); err == nil {
			v.DescontoPercentual = &pct
		}
	}
	v.Indexador = extractIndexer(folded)
	return v
}

func extractIndexer(folded string) Indexer {
	switch {
	case strings.Contains(folded, "ipca"):
		return IndexerIPCA
	case strings.Contains(folded, "selic"):
		return IndexerSELIC
	case strings.Contains(folded, "cdi"):
		return IndexerCDI
	case strings.Contains(folded, "igp-m") || strings.Contains(folded, "igp m"):
		return IndexerIGPM
	}
	return ""
}

func defaultConversion(folded string) Conversion {
	c := Conversion{
		Gatilhos: []string{"rodada_qualificada", "maturidade", "evento_liquidez"},
		Formula:  "cap",
		MFN:      true,
	}
	if strings.Contains(folded, "rodada qualificada") {
		c.DefinicaoRodadaQualificada = "definida em cláusula própria"
	}
	return c
}

func extractRights(folded string) Rights {
	return Rights{
		ProRata:               strings.Contains(folded, "pro rata") || strings.Contains(folded, "pro-rata"),
		DireitoInformacao:     strings.Contains(folded, "direito de informacao") || strings.Contains(folded, "informacoes trimestrais"),
		AntiDiluicao:          "na",
		PreferenciaLiquidacao: strings.Contains(folded, "preferencia de liquidacao") || strings.Contains(folded, "preferencia na liquidacao"),
		TagAlong:              strings.Contains(folded, "tag along") || strings.Contains(folded, "tag-along"),
		DragAlong:             strings.Contains(folded, "drag along") || strings.Contains(folded, "drag-along"),
	}
}

func extractObligations(folded string) Obligations {
	var o Obligations
	if strings.Contains(folded, "nao concorrencia") || strings.Contains(folded, "non-compete") {
		o.Covenants = append(o.Covenants, "nao_concorrencia")
	}
	if strings.Contains(folded, "nao aliciamento") || strings.Contains(folded, "non-solicit") {
		o.Covenants = append(o.Covenants, "nao_aliciamento")
	}
	if strings.Contains(folded, "cessao") && strings.Contains(folded, "anuencia") {
		o.RestricoesCessao = "cessão condicionada a anuência prévia"
	}
	return o
}

func extractJurisdiction(text, folded string) Jurisdiction {
	j := Jurisdiction{
		LeiAplicavel: "Brasil",
		Arbitragem:   strings.Contains(folded, "arbitragem"),
	}
	for _, re := range forumRes {
		if m := re.FindStringSubmatch(text); m != nil {
			j.Foro = strings.TrimSpace(m[1])
			break
		}
	}
	return j
}

func buildObservations(text, folded string) string {
	var notes []string
	if strings.Contains(folded, "arbitragem") {
		notes = append(notes, "Contrato prevê arbitragem")
	}
	if strings.Contains(folded, "garantia") {
		notes = append(notes, "Contém cláusulas de garantia")
	}
	if len(text) > 50000 {
		notes = append(notes, "Documento extenso - revisar cláusulas detalhadamente")
	}
	return strings.Join(notes, "; ")
}

func findSectionText(sections []clause.Section, keywords ...string) string {
	for _, s := range sections {
		title := strings.ToUpper(s.Title)
		for _, kw := range keywords {
			if strings.Contains(title, kw) {
				return s.Text
			}
		}
	}
	return ""
}

// parseBRNumber converts Brazilian number formatting (1.000.000,00)
// to a float.
func parseBRNumber(s string) (float64, error) {
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(strings.TrimSuffix(s, "."), 64)
}

// firstGroup returns the first non-empty capture group of a match.
func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

func formatDate(s string) string {
	s = strings.ReplaceAll(s, "/", "-")
	return strings.ReplaceAll(s, ".", "-")
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// foldText lowercases and strips combining marks so accent variants
// compare equal ("Conversível" == "conversivel").
func foldText(s string) string {
	decomposed := norm.NFD.String(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
