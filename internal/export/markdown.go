package export

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownExporter exports games to Markdown format.
type MarkdownExporter struct{}

// Export writes the game as Markdown.
func (e *MarkdownExporter) Export(sheet *Sheet, w io.Writer) error {
	var sb strings.Builder
	game := sheet.Game

	// Title
	sb.WriteString(fmt.Sprintf("# %s\n\n", game.Name))

	// Metadata
	sb.WriteString("## Game Information\n\n")
	sb.WriteString(fmt.Sprintf("- **ID:** `%s`\n", game.ID))
	sb.WriteString(fmt.Sprintf("- **Mode:** %s\n", game.Mode))
	sb.WriteString(fmt.Sprintf("- **Status:** %s\n", game.Status))
	sb.WriteString(fmt.Sprintf("- **Created:** %s\n", game.CreatedAt.Format("January 2, 2006 at 3:04 PM")))
	if game.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("- **Completed:** %s\n", game.CompletedAt.Format("January 2, 2006 at 3:04 PM")))
		sb.WriteString(fmt.Sprintf("- **Duration:** %s\n", formatDuration(game.CreatedAt, *game.CompletedAt)))
	}
	sb.WriteString("\n")

	// Participants
	sb.WriteString(fmt.Sprintf("## Participants (%d)\n\n", len(sheet.Participants)))
	if len(sheet.Participants) == 0 {
		sb.WriteString("*No participants yet.*\n\n")
	} else {
		sb.WriteString("| # | Name | Contact | Gift ideas |\n")
		sb.WriteString("|---|------|---------|------------|\n")
		for i, p := range sheet.Participants {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n", i+1, cell(p.Name), cell(p.Contact), cell(p.Wishes)))
		}
		sb.WriteString("\n")
	}

	// Assignments
	sb.WriteString("## Assignments\n\n")
	if len(sheet.Assignments) == 0 {
		sb.WriteString("*No assignments yet.*\n\n")
	} else {
		sb.WriteString("| Giver | Receiver |\n")
		sb.WriteString("|-------|----------|\n")
		for _, a := range sheet.Assignments {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", cell(a.Giver), cell(a.Receiver)))
		}
		sb.WriteString("\n")
	}

	if pending := sheet.Pending(); len(pending) > 0 && len(sheet.Participants) > 0 {
		sb.WriteString("### Still to draw\n\n")
		for _, p := range pending {
			sb.WriteString(fmt.Sprintf("- %s\n", p.Name))
		}
		sb.WriteString("\n")
	}

	// Footer
	sb.WriteString("---\n\n")
	sb.WriteString("*Exported from santa*\n")

	_, err := w.Write([]byte(sb.String()))
	return err
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return "md"
}

// ContentType returns the MIME type for Markdown.
func (e *MarkdownExporter) ContentType() string {
	return "text/markdown; charset=utf-8"
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
