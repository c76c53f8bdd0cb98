package roster

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alienxp03/santa/internal/core"
)

func TestParse(t *testing.T) {
	want := []core.Participant{
		{Name: "Alex", Contact: "alex@example.com", Wishes: "books"},
		{Name: "Sam"},
		{Name: "Jo", Contact: "jo@example.com"},
	}

	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{
			name:   "YAMLDocument",
			format: FormatYAML,
			input: `
name: Office
participants:
  - name: Alex
    contact: alex@example.com
    wishes: books
  - name: "  Sam "
  - name: Jo
    contact: jo@example.com
`,
		},
		{
			name:   "YAMLList",
			format: FormatYAML,
			input: `
- {name: Alex, contact: alex@example.com, wishes: books}
- {name: Sam}
- {name: Jo, contact: jo@example.com}
`,
		},
		{
			name:   "YAMLDocumentMarker",
			format: FormatYAML,
			input: `---
name: Office
participants:
  - {name: Alex, contact: alex@example.com, wishes: books}
  - {name: Sam}
  - {name: Jo, contact: jo@example.com}
`,
		},
		{
			name:   "YAMLListMarker",
			format: FormatYAML,
			input: `---
- {name: Alex, contact: alex@example.com, wishes: books}
- {name: Sam}
- {name: Jo, contact: jo@example.com}
`,
		},
		{
			name:   "JSONDocument",
			format: FormatJSON,
			input: `{"participants": [
				{"name": "Alex", "contact": "alex@example.com", "wishes": "books"},
				{"name": "Sam"},
				{"name": "Jo", "contact": "jo@example.com"}
			]}`,
		},
		{
			name:   "JSONList",
			format: FormatJSON,
			input:  `[{"name": "Alex", "contact": "alex@example.com", "wishes": "books"}, {"name": "Sam"}, {"name": "Jo", "contact": "jo@example.com"}]`,
		},
		{
			name:   "Text",
			format: FormatText,
			input:  "# office\nAlex, alex@example.com, books\n\nSam\nJo,jo@example.com\n",
		},
		{
			name:   "CSV",
			format: FormatCSV,
			input:  "name,contact,wishes\nAlex, alex@example.com, books\nSam\n# left early\nJo,jo@example.com\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := Parse(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if diff := cmp.Diff(want, file.Participants); diff != "" {
				t.Errorf("participants mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseCSVQuotedFields(t *testing.T) {
	input := `Alex,alex@example.com,"books, tea, socks"
"Smith, Sam",,"a ""good"" pen"
`
	file, err := Parse(strings.NewReader(input), FormatCSV)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []core.Participant{
		{Name: "Alex", Contact: "alex@example.com", Wishes: "books, tea, socks"},
		{Name: "Smith, Sam", Wishes: `a "good" pen`},
	}
	if diff := cmp.Diff(want, file.Participants); diff != "" {
		t.Errorf("participants mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	t.Run("Duplicate", func(t *testing.T) {
		_, err := Parse(strings.NewReader("Alex\nalex\n"), FormatText)
		if !errors.Is(err, core.ErrDuplicateIdentity) {
			t.Errorf("expected ErrDuplicateIdentity, got %v", err)
		}
	})

	t.Run("BlankName", func(t *testing.T) {
		_, err := Parse(strings.NewReader(`[{"name": "  "}]`), FormatJSON)
		if !errors.Is(err, core.ErrInvalidParticipant) {
			t.Errorf("expected ErrInvalidParticipant, got %v", err)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		if _, err := Parse(strings.NewReader(`{"participants": [`), FormatJSON); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("MalformedCSV", func(t *testing.T) {
		if _, err := Parse(strings.NewReader("Alex,\"unterminated\n"), FormatCSV); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		if _, err := Parse(strings.NewReader(""), Format("xml")); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "family.json")
	if err := os.WriteFile(path, []byte(`{"name": "Family", "participants": [{"name": "Ana"}, {"name": "Ben"}]}`), 0644); err != nil {
		t.Fatal(err)
	}

	file, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if file.Name != "Family" || len(file.Participants) != 2 {
		t.Errorf("unexpected file: %+v", file)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.json": FormatJSON,
		"a.YAML": FormatYAML,
		"a.yml":  FormatYAML,
		"a.txt":  FormatText,
		"a.csv":  FormatCSV,
		"roster": FormatYAML,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %s, want %s", path, got, want)
		}
	}
}
