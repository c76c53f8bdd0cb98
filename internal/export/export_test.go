package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/alienxp03/santa/internal/core"
)

func testSheet() *Sheet {
	created := time.Date(2026, 12, 1, 18, 0, 0, 0, time.UTC)
	completed := created.Add(90 * time.Minute)
	return &Sheet{
		Game: &core.Game{
			ID:          "5f1c0c9e-7d1a-4b55-9d8a-1f6f7c1e2a3b",
			Name:        "Office: 2026/Winter",
			Mode:        core.ModeInteractive,
			Status:      core.StatusCompleted,
			CreatedAt:   created,
			UpdatedAt:   completed,
			CompletedAt: &completed,
		},
		Participants: []core.Participant{
			{Name: "Elena Navideña", Contact: "elena@example.com", Wishes: "tea | books"},
			{Name: "Carlos"},
			{Name: "Lucía"},
		},
		Assignments: core.AssignmentSet{
			{Giver: "Elena Navideña", Receiver: "Carlos"},
			{Giver: "Carlos", Receiver: "Lucía"},
			{Giver: "Lucía", Receiver: "Elena Navideña"},
		},
	}
}

func TestMarkdownExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(testSheet(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Office: 2026/Winter",
		"- **Mode:** interactive",
		"- **Duration:** 1.5 hours",
		"| 1 | Elena Navideña | elena@example.com | tea \\| books |",
		"| Carlos | Lucía |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Still to draw") {
		t.Error("complete game should not list pending givers")
	}
}

func TestMarkdownExporter_Partial(t *testing.T) {
	sheet := testSheet()
	sheet.Assignments = sheet.Assignments[:1]
	sheet.Game.CompletedAt = nil

	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(sheet, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "### Still to draw\n\n- Carlos\n- Lucía\n") {
		t.Errorf("expected pending givers:\n%s", buf.String())
	}
}

func TestJSONExporter(t *testing.T) {
	sheet := testSheet()
	sheet.Assignments = nil

	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(sheet, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var got struct {
		Game        core.Game          `json:"game"`
		Assignments core.AssignmentSet `json:"assignments"`
		Complete    bool               `json:"complete"`
		Pending     []string           `json:"pending"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Game.Name != sheet.Game.Name || got.Complete {
		t.Errorf("unexpected export: %+v", got)
	}
	if got.Assignments == nil {
		t.Error("assignments should encode as an empty list")
	}
	if diff := cmp.Diff([]string{"Elena Navideña", "Carlos", "Lucía"}, got.Pending); diff != "" {
		t.Errorf("pending mismatch (-want +got):\n%s", diff)
	}
	if sheet.Assignments != nil {
		t.Error("export must not modify the sheet")
	}
}

func TestPDFExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&PDFExporter{}).Export(testSheet(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
}

func TestGetExporter(t *testing.T) {
	tests := []struct {
		name string
		ext  string
	}{
		{"markdown", "md"},
		{"md", "md"},
		{"PDF", "pdf"},
		{"json", "json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, err := ParseFormat(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			exp, err := GetExporter(format)
			if err != nil {
				t.Fatal(err)
			}
			if exp.FileExtension() != tt.ext {
				t.Errorf("expected %s, got %s", tt.ext, exp.FileExtension())
			}
		})
	}

	if _, err := ParseFormat("docx"); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := GetExporter(Format("docx")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestGenerateFilename(t *testing.T) {
	got := GenerateFilename(testSheet().Game, "pdf")
	want := "santa_20261201_Office-_2026-Winter.pdf"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
