package components

import (
	"github.com/Rorical/RoriPersona/ui/styles"
)

func RenderInput(input string, loading bool, width int) string {
	inputStyle := styles.InputStyle(width)
	if loading {
		return inputStyle.Faint(true).Render("> " + input)
	}
	return inputStyle.Render("> " + input + "_")
}
