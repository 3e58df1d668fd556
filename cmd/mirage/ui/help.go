package ui

import (
	"github.com/charmbracelet/glamour"
)

// helpText is the reference card rendered for the local `help` command.
const helpText = `# mirage terminal

Every command you type is executed by a remote oracle that plays the part of
a Unix shell. The filesystem you see is a simulation: state is reconstructed
from the session history on each command, so treat it as convincing, not
durable. Nothing persists across restarts.

## Local commands

These are handled by the window itself and never reach the oracle:

| Command | Effect |
|---------|--------|
| ` + "`help`" + `  | show this card |
| ` + "`clear`" + ` | clear the scrollback |
| ` + "`exit`" + `  | close the session |

## Credential

The first thing the terminal asks for is an API credential for the oracle.
It is sent only as a bearer secret on each call, never shown, never stored.
`

// renderHelp produces the glamour-rendered help card, sized to the window.
// Falls back to the raw markdown when the renderer cannot be built.
func renderHelp(width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpText
	}
	out, err := renderer.Render(helpText)
	if err != nil {
		return helpText
	}
	return out
}
