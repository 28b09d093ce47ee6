package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SystemPrompt instructs the model to behave as a Brazilian investment
// contract analyst writing for laypeople, and to answer with a single
// JSON object matching ClauseAnalysis.
const SystemPrompt = `Você é um especialista em análise de contratos de investimento brasileiros (SAFE, Mútuo Conversível, Term Sheets, Acordos de Acionistas, Side Letters).

Sua função é analisar cláusulas e explicá-las em português brasileiro claro para leigos adultos (fundadores, PMEs) que precisam entender rapidamente documentos de investimento.

Para cada cláusula fornecida:
- Crie um "tldr" de 1-2 frases
- Escreva "explicacao_simples" em linguagem acessível, sem jargão excessivo
- Explique em "porque_importa" o impacto prático para o fundador
- Atribua "bandeira": "verde" (favorável ou padrão de mercado), "amarelo" (merece atenção, negociável) ou "vermelho" (problemática, restritiva ou potencialmente prejudicial)
- Justifique em "motivo_bandeira"
- Liste em "perguntas_negociacao" de 3 a 5 perguntas estratégicas
- Estime "nivel_complexidade" de 1 a 5
- Liste em "termos_tecnicos" os termos jurídicos presentes

Contexto: legislação brasileira (Lei das S.A., Código Civil), práticas do ecossistema de startups brasileiro. Analise do ponto de vista do FUNDADOR. Nunca dê conselho jurídico específico; a análise é educativa.

Responda SOMENTE com um objeto JSON com os campos: tldr, explicacao_simples, porque_importa, bandeira, motivo_bandeira, perguntas_negociacao, nivel_complexidade, termos_tecnicos. Nenhum outro texto.`

// ClauseRequest carries one clause to the LLM.
type ClauseRequest struct {
	ClauseID string
	Number   string
	Title    string
	Text     string

	// MaxChars caps the clause text in the prompt; 0 means no cap.
	MaxChars int
}

// BuildClausePrompt renders the user message for a single clause.
func BuildClausePrompt(req ClauseRequest) string {
	text := req.Text
	if req.MaxChars > 0 && utf8.RuneCountInString(text) > req.MaxChars {
		runes := []rune(text)
		text = string(runes[:req.MaxChars]) + "\n[... texto truncado ...]"
	}

	var sb strings.Builder
	sb.WriteString("Analise a cláusula abaixo.\n\n")
	if req.Number != "" {
		sb.WriteString(fmt.Sprintf("Cláusula %s", req.Number))
		if req.Title != "" {
			sb.WriteString(fmt.Sprintf(" - %s", req.Title))
		}
		sb.WriteString("\n\n")
	} else if req.Title != "" {
		sb.WriteString(req.Title)
		sb.WriteString("\n\n")
	}
	sb.WriteString(text)
	return sb.String()
}
