package display

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/RednibCoding/mudden-sub001/internal/events"
)

// templateFuncs provides utility functions for templates.
var templateFuncs = func() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["capitalize"] = Capitalize
	return funcs
}()

// eventTemplates maps event types to the text shown for them. Combat rounds
// aggregate their hits, deaths, and payouts into one block.
var eventTemplates = map[string]string{
	"info":          `{{ .Message }}`,
	"command_error": `{{ .Reason }}`,
	"flee_result": `{{ if .Success }}You break away from the fight!{{ else }}You fail to get away!{{ end }}`,
	"player_defeated":    `You have been defeated!`,
	"combat_interrupted": `The fight dissolves into confusion.`,
	"quest_progress":     `Quest updated: {{ .Quest }} ({{ .Have }}/{{ .Need }})`,
	"quest_complete":     `Quest complete: {{ .Quest }}! You receive {{ .Gold }} gold and {{ .XP }} experience.`,
	"combat_round": `{{ range .Damage }}{{ .Attacker | capitalize }} hits {{ .Target }} for {{ .Amount }} damage.
{{ end }}{{ range .Deaths }}{{ .Name | capitalize }} dies{{ if .CreditedTo }}, felled by {{ .CreditedTo }}{{ end }}.
{{ end }}{{ range .Rewards }}{{ .Player }} gains {{ .Gold }} gold and {{ .XP }} experience{{ if .Item }} and picks up {{ .Item }}{{ end }}.
{{ end }}`,
}

// Renderer turns decoded engine events into wrapped, player-facing text.
type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(eventTemplates))}

	for name, body := range eventTemplates {
		tmpl, err := template.New(name).Funcs(templateFuncs).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parsing %q template: %w", name, err)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// Render produces the display text for an event. Events without a template
// render as nothing, which suppresses them.
func (r *Renderer) Render(ev events.Event) (string, error) {
	tmpl, ok := r.templates[ev.EventType()]
	if !ok {
		return "", nil
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ev); err != nil {
		return "", fmt.Errorf("executing %q template: %w", ev.EventType(), err)
	}

	return Wrap(strings.TrimRight(buf.String(), "\n")), nil
}
