// Package analysis turns extracted contract clauses into plain-Portuguese
// explanations with risk flags, by way of an OpenAI-compatible LLM.
package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/contratoclaro/contratoclaro/internal/contract"
)

// Flag is the risk color assigned to a clause.
type Flag string

const (
	FlagVerde    Flag = "verde"
	FlagAmarelo  Flag = "amarelo"
	FlagVermelho Flag = "vermelho"
)

// ClauseAnalysis is the LLM's assessment of a single clause. Field names
// are Portuguese because the output is rendered to Brazilian users as-is.
type ClauseAnalysis struct {
	ClauseID      string `json:"clause_id"`
	Titulo        string `json:"titulo,omitempty"`
	TextoOriginal string `json:"texto_original"`

	TLDR              string `json:"tldr"`
	ExplicacaoSimples string `json:"explicacao_simples"`
	PorqueImporta     string `json:"porque_importa"`

	Bandeira       Flag   `json:"bandeira"`
	MotivoBandeira string `json:"motivo_bandeira"`

	PerguntasNegociacao []string `json:"perguntas_negociacao"`

	ClausulaNumero    string   `json:"clausula_numero,omitempty"`
	NivelComplexidade int      `json:"nivel_complexidade,omitempty"`
	TermosTecnicos    []string `json:"termos_tecnicos,omitempty"`
}

// Validate normalizes the LLM output in place and reports whether the
// analysis is usable. Out-of-range fields are clamped rather than
// rejected; only a missing flag or empty summary makes it unusable.
func (a *ClauseAnalysis) Validate() error {
	if a == nil {
		return fmt.Errorf("nil analysis")
	}
	switch a.Bandeira {
	case FlagVerde, FlagAmarelo, FlagVermelho:
	default:
		return fmt.Errorf("invalid bandeira %q", a.Bandeira)
	}
	if strings.TrimSpace(a.TLDR) == "" {
		return fmt.Errorf("empty tldr")
	}
	if r := []rune(a.TLDR); len(r) > 200 {
		a.TLDR = string(r[:200])
	}
	if len(a.PerguntasNegociacao) > 5 {
		a.PerguntasNegociacao = a.PerguntasNegociacao[:5]
	}
	if a.NivelComplexidade < 0 {
		a.NivelComplexidade = 0
	}
	if a.NivelComplexidade > 5 {
		a.NivelComplexidade = 5
	}
	return nil
}

// FallbackAnalysis is used when the LLM fails for a clause: the pipeline
// keeps going and the clause gets a cautious yellow flag.
func FallbackAnalysis(clauseID, number, title, text string) ClauseAnalysis {
	return ClauseAnalysis{
		ClauseID:          clauseID,
		Titulo:            title,
		TextoOriginal:     text,
		TLDR:              "Análise automática indisponível para esta cláusula.",
		ExplicacaoSimples: "Não foi possível gerar a explicação automática. Leia a cláusula na íntegra ou consulte um advogado.",
		PorqueImporta:     "Cláusulas não analisadas podem conter termos relevantes.",
		Bandeira:          FlagAmarelo,
		MotivoBandeira:    "Falha na análise automática - revisar manualmente",
		ClausulaNumero:    number,
	}
}

// RiskSummary counts clauses per flag color.
type RiskSummary struct {
	Verde    int `json:"verde"`
	Amarelo  int `json:"amarelo"`
	Vermelho int `json:"vermelho"`
}

func (r *RiskSummary) add(f Flag) {
	switch f {
	case FlagVerde:
		r.Verde++
	case FlagAmarelo:
		r.Amarelo++
	case FlagVermelho:
		r.Vermelho++
	}
}

// DocumentAnalysis is the complete result for a document: the contract
// summary card plus the clause-by-clause assessment.
type DocumentAnalysis struct {
	DocumentID      string           `json:"document_id"`
	Filename        string           `json:"filename"`
	ContractSummary contract.Summary `json:"contract_summary"`
	Clauses         []ClauseAnalysis `json:"clauses"`
	TotalPages      int              `json:"total_pages"`
	TotalClauses    int              `json:"total_clauses"`
	ProcessingTime  float64          `json:"processing_time"`
	LLMProvider     string           `json:"llm_provider"`
	LLMModel        string           `json:"llm_model"`
	Language        string           `json:"analysis_language"`
	CreatedAt       time.Time        `json:"created_at"`
	ConfidenceScore float64          `json:"confidence_score"`
	RiskSummary     RiskSummary      `json:"risk_summary"`
	Warnings        []string         `json:"warnings,omitempty"`
}

// Finalize fills the derived fields from the clause list: totals, the
// risk flag counts, and a confidence score proportional to the share of
// clauses that got a real (non-fallback) analysis.
func (d *DocumentAnalysis) Finalize(fallbacks int) {
	d.TotalClauses = len(d.Clauses)
	d.Language = "pt-BR"
	d.RiskSummary = RiskSummary{}
	for _, c := range d.Clauses {
		d.RiskSummary.add(c.Bandeira)
	}
	if d.TotalClauses == 0 {
		d.ConfidenceScore = 0
		return
	}
	d.ConfidenceScore = float64(d.TotalClauses-fallbacks) / float64(d.TotalClauses)
}
