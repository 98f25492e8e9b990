package components

import (
	"strings"

	"github.com/Rorical/RoriPersona/internal/models"
	"github.com/Rorical/RoriPersona/ui/styles"
)

// RenderLines draws the conversation. personaName labels assistant lines.
func RenderLines(lines []models.Line, personaName string, width int) string {
	var b strings.Builder

	userStyle := styles.UserStyle(width)
	assistantStyle := styles.AssistantStyle(width)
	programStyle := styles.ProgramStyle(width)
	verdictStyle := styles.VerdictStyle(width)
	errorStyle := styles.ErrorStyle(width)

	if personaName == "" {
		personaName = "Assistant"
	}

	for _, line := range lines {
		switch line.Type {
		case models.UserLine:
			b.WriteString(userStyle.Render("You: "+line.Content) + "\n\n")
		case models.AssistantLine:
			b.WriteString(assistantStyle.Render(personaName+": "+line.Content) + "\n\n")
		case models.VerdictLine:
			b.WriteString(verdictStyle.Render("[" + line.Content + "]") + "\n\n")
		case models.ErrorLine:
			b.WriteString(errorStyle.Render("Error: "+line.Content) + "\n\n")
		case models.ProgramLine:
			b.WriteString(programStyle.Render(line.Content) + "\n")
		}
	}

	return b.String()
}
