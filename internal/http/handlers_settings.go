package http

import (
	"net/http"

	applog "financas/internal/log"
	"financas/internal/settings"
)

type settingsResponse struct {
	settings.Settings
	VisibleSections []settings.Section `json:"visible_sections"`
}

func newSettingsResponse(s settings.Settings) settingsResponse {
	return settingsResponse{Settings: s, VisibleSections: s.VisibleSections()}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.settings.LoadSettings(r.Context(), s.userID(r))
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	NewResponse().JSON(newSettingsResponse(current)).Write(w)
}

// handleUpdateSettings applies a partial update. Fields are applied in this
// order: theme, sidebar_variant, hidden_sections, reset_sections,
// toggle_section. Omitted fields keep their stored value.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	userID := s.userID(r)
	next, err := s.settings.LoadSettings(r.Context(), userID)
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}

	if next, err = applySettingsPatch(next, p); err != nil {
		s.fail(w, r, applog.OpValidate, err)
		return
	}
	if err := next.Validate(); err != nil {
		s.fail(w, r, applog.OpValidate, err)
		return
	}
	if err := s.settings.SaveSettings(r.Context(), userID, next); err != nil {
		s.fail(w, r, applog.OpUpdate, err)
		return
	}

	saved, err := s.settings.LoadSettings(r.Context(), userID)
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	NewResponse().JSON(newSettingsResponse(saved)).Write(w)
}

func applySettingsPatch(cur settings.Settings, p *RequestBodyParser) (settings.Settings, error) {
	var err error
	if p.Has("theme") {
		if cur, err = cur.SetTheme(settings.Theme(p.Get("theme"))); err != nil {
			return cur, err
		}
	}
	if p.Has("sidebar_variant") {
		if cur, err = cur.SetSidebarVariant(settings.SidebarVariant(p.Get("sidebar_variant"))); err != nil {
			return cur, err
		}
	}
	if p.Has("hidden_sections") {
		hidden := []settings.Section{}
		for _, v := range p.GetStrings("hidden_sections") {
			hidden = append(hidden, settings.Section(v))
		}
		cur.HiddenSections = hidden
	}
	if p.GetBool("reset_sections") {
		cur = cur.ResetSections()
	}
	if p.Has("toggle_section") {
		if cur, err = cur.ToggleSection(settings.Section(p.Get("toggle_section"))); err != nil {
			return cur, err
		}
	}
	return cur, nil
}
