// Package report renders a completed document analysis as a Markdown
// report, optionally converted to HTML.
package report

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/contratoclaro/contratoclaro/internal/analysis"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.Table),
)

var flagLabels = map[analysis.Flag]string{
	analysis.FlagVerde:    "🟢 Verde",
	analysis.FlagAmarelo:  "🟡 Amarelo",
	analysis.FlagVermelho: "🔴 Vermelho",
}

// BuildMarkdown renders the full analysis report in Portuguese: summary
// card, risk overview table, clause index, and one section per clause.
func BuildMarkdown(doc *analysis.DocumentAnalysis) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Análise de Contrato - %s\n\n", doc.Filename))
	sb.WriteString(fmt.Sprintf("**Documento:** `%s`  \n", doc.DocumentID))
	sb.WriteString(fmt.Sprintf("**Gerado em:** %s  \n", doc.CreatedAt.Format("02/01/2006 15:04")))
	sb.WriteString(fmt.Sprintf("**Modelo:** %s (%s)\n\n", doc.LLMModel, doc.LLMProvider))

	writeSummaryCard(&sb, doc)
	writeRiskOverview(&sb, doc)
	writeClauseIndex(&sb, doc)
	writeClauses(&sb, doc)

	sb.WriteString("---\n\n")
	sb.WriteString("*Análise educativa gerada automaticamente. Não constitui aconselhamento jurídico.*\n")
	return sb.String()
}

// RenderHTML converts the Markdown report to HTML.
func RenderHTML(doc *analysis.DocumentAnalysis) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(BuildMarkdown(doc)), &buf); err != nil {
		return "", fmt.Errorf("render report html: %w", err)
	}
	return buf.String(), nil
}

func writeSummaryCard(sb *strings.Builder, doc *analysis.DocumentAnalysis) {
	s := doc.ContractSummary

	sb.WriteString("## Ficha do Contrato\n\n")
	sb.WriteString(fmt.Sprintf("- **Tipo de instrumento:** %s\n", instrumentLabel(string(s.TipoInstrumento))))
	sb.WriteString(fmt.Sprintf("- **Empresa:** %s", s.Partes.Empresa.Nome))
	if s.Partes.Empresa.CNPJ != "" {
		sb.WriteString(fmt.Sprintf(" (CNPJ %s)", s.Partes.Empresa.CNPJ))
	}
	sb.WriteString("\n")
	for _, inv := range s.Partes.Investidores {
		sb.WriteString(fmt.Sprintf("- **Investidor:** %s (%s)\n", inv.Nome, inv.Tipo))
	}
	if s.Valores.Principal.Valor > 0 {
		sb.WriteString(fmt.Sprintf("- **Valor principal:** %s %.2f\n", s.Valores.Principal.Moeda, s.Valores.Principal.Valor))
	}
	if s.Valores.JurosAA != nil {
		sb.WriteString(fmt.Sprintf("- **Juros:** %.2f%% a.a.\n", *s.Valores.JurosAA))
	}
	if s.Valores.Indexador != "" {
		sb.WriteString(fmt.Sprintf("- **Indexador:** %s\n", s.Valores.Indexador))
	}
	if s.Datas.Assinatura != "" {
		sb.WriteString(fmt.Sprintf("- **Assinatura:** %s\n", s.Datas.Assinatura))
	}
	if s.Datas.VencimentoMutuo != "" {
		sb.WriteString(fmt.Sprintf("- **Vencimento:** %s\n", s.Datas.VencimentoMutuo))
	}
	if s.Jurisdicao.Foro != "" {
		sb.WriteString(fmt.Sprintf("- **Foro:** %s\n", s.Jurisdicao.Foro))
	}
	if s.Observacoes != "" {
		sb.WriteString(fmt.Sprintf("- **Observações:** %s\n", s.Observacoes))
	}
	sb.WriteString("\n")
}

func writeRiskOverview(sb *strings.Builder, doc *analysis.DocumentAnalysis) {
	sb.WriteString("## Resumo de Riscos\n\n")
	sb.WriteString("| Bandeira | Cláusulas |\n")
	sb.WriteString("|----------|-----------|\n")
	sb.WriteString(fmt.Sprintf("| 🟢 Verde | %d |\n", doc.RiskSummary.Verde))
	sb.WriteString(fmt.Sprintf("| 🟡 Amarelo | %d |\n", doc.RiskSummary.Amarelo))
	sb.WriteString(fmt.Sprintf("| 🔴 Vermelho | %d |\n", doc.RiskSummary.Vermelho))
	sb.WriteString(fmt.Sprintf("\n**Total de cláusulas:** %d  \n", doc.TotalClauses))
	sb.WriteString(fmt.Sprintf("**Confiança da análise:** %.0f%%\n\n", doc.ConfidenceScore*100))
}

func writeClauseIndex(sb *strings.Builder, doc *analysis.DocumentAnalysis) {
	if len(doc.Clauses) == 0 {
		return
	}
	sb.WriteString("## Índice de Cláusulas\n\n")
	for i, c := range doc.Clauses {
		label := clauseLabel(c)
		sb.WriteString(fmt.Sprintf("%d. [%s](#%s) - %s\n", i+1, label, Anchor(label), flagLabels[c.Bandeira]))
	}
	sb.WriteString("\n")
}

func writeClauses(sb *strings.Builder, doc *analysis.DocumentAnalysis) {
	if len(doc.Clauses) == 0 {
		return
	}
	sb.WriteString("## Análise Cláusula a Cláusula\n\n")
	for _, c := range doc.Clauses {
		sb.WriteString(fmt.Sprintf("### %s\n\n", clauseLabel(c)))
		sb.WriteString(fmt.Sprintf("**Bandeira:** %s - %s\n\n", flagLabels[c.Bandeira], c.MotivoBandeira))
		sb.WriteString(fmt.Sprintf("**TL;DR:** %s\n\n", c.TLDR))
		if c.ExplicacaoSimples != "" {
			sb.WriteString(fmt.Sprintf("**Em palavras simples:** %s\n\n", c.ExplicacaoSimples))
		}
		if c.PorqueImporta != "" {
			sb.WriteString(fmt.Sprintf("**Por que importa:** %s\n\n", c.PorqueImporta))
		}
		if len(c.PerguntasNegociacao) > 0 {
			sb.WriteString("**Perguntas para negociação:**\n\n")
			for _, q := range c.PerguntasNegociacao {
				sb.WriteString(fmt.Sprintf("- %s\n", q))
			}
			sb.WriteString("\n")
		}
		if len(c.TermosTecnicos) > 0 {
			sb.WriteString(fmt.Sprintf("**Termos técnicos:** %s\n\n", strings.Join(c.TermosTecnicos, ", ")))
		}
	}
}

func clauseLabel(c analysis.ClauseAnalysis) string {
	switch {
	case c.ClausulaNumero != "" && c.Titulo != "":
		return fmt.Sprintf("Cláusula %s - %s", c.ClausulaNumero, c.Titulo)
	case c.Titulo != "":
		return c.Titulo
	case c.ClausulaNumero != "":
		return fmt.Sprintf("Cláusula %s", c.ClausulaNumero)
	}
	return "Cláusula"
}

func instrumentLabel(kind string) string {
	switch kind {
	case "mutuo_conversivel":
		return "Mútuo Conversível"
	case "safe":
		return "SAFE"
	case "term_sheet":
		return "Term Sheet"
	case "acordo_acionistas":
		return "Acordo de Acionistas"
	case "side_letter":
		return "Side Letter"
	}
	return kind
}

var anchorDropRe = regexp.MustCompile(`[^\p{L}\p{N}\s-]`)

// Anchor converts a heading into a GitHub-style anchor slug.
func Anchor(heading string) string {
	s := strings.ToLower(strings.TrimSpace(heading))
	s = anchorDropRe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "-")
	return s
}
