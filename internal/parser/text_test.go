package parser

import (
	"strings"
	"testing"
)

func TestTextParser_PreservesLineStructure(t *testing.T) {
	input := "1 OBJETO\n\nConteúdo da cláusula um.\n\n2 VALOR\n\nConteúdo da cláusula dois."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "contrato.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "contrato" {
		t.Errorf("expected title %q, got %q", "contrato", doc.Title)
	}
	if got := strings.TrimRight(doc.Text, "\n"); got != input {
		t.Errorf("expected text preserved, got %q", got)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", doc.Title)
	}
	if strings.TrimSpace(doc.Text) != "" {
		t.Errorf("expected empty text, got %q", doc.Text)
	}
}

func TestForFile_SelectsParserByExtension(t *testing.T) {
	cases := []struct {
		filename string
		wantErr  bool
	}{
		{"contrato.pdf", false},
		{"contrato.PDF", false},
		{"contrato.docx", false},
		{"contrato.txt", false},
		{"contrato.exe", true},
		{"contrato", true},
	}
	for _, tc := range cases {
		_, err := ForFile(tc.filename)
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error, got nil", tc.filename)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.filename, err)
		}
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension("minuta.docx") {
		t.Error("expected .docx to be supported")
	}
	if IsSupportedExtension("planilha.xlsx") {
		t.Error("expected .xlsx to be unsupported")
	}
}
