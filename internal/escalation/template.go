package escalation

import (
	"cmp"
	"maps"
	"slices"

	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/setup/config"
	"go.uber.org/zap"
)

// Template is a named punishment preset staff can issue by id.
type Template struct {
	ID          string
	Type        enum.PunishmentType
	Reason      string
	Duration    string
	DisplayName string
	Description string
}

// loadTemplates validates the configured templates.
func (e *Engine) loadTemplates(raw map[string]config.Template) map[string]Template {
	templates := make(map[string]Template, len(raw))
	for id, t := range raw {
		kind, err := enum.PunishmentTypeString(t.Type)
		if err != nil {
			e.logger.Warn("Invalid punishment type in template",
				zap.String("template", id),
				zap.String("type", t.Type))
			continue
		}

		displayName := t.DisplayName
		if displayName == "" {
			displayName = id
		}
		reason := t.Reason
		if reason == "" {
			reason = "No reason provided"
		}

		templates[id] = Template{
			ID:          id,
			Type:        kind,
			Reason:      reason,
			Duration:    t.Duration,
			DisplayName: displayName,
			Description: t.Description,
		}
	}
	return templates
}

// Template returns the template with the id.
func (e *Engine) Template(id string) (Template, bool) {
	t, ok := e.state.Load().templates[id]
	return t, ok
}

// Templates returns every template ordered by id.
func (e *Engine) Templates() []Template {
	templates := slices.Collect(maps.Values(e.state.Load().templates))
	slices.SortFunc(templates, func(a, b Template) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return templates
}

// TemplatesByType returns the templates issuing the punishment type, ordered by id.
func (e *Engine) TemplatesByType(kind enum.PunishmentType) []Template {
	var matched []Template
	for _, t := range e.Templates() {
		if t.Type == kind {
			matched = append(matched, t)
		}
	}
	return matched
}
