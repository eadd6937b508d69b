// Package settings holds the per-user interface preferences: colour theme,
// sidebar behaviour and which menu sections are hidden.
package settings

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

type (
	Theme          string
	SidebarVariant string
	Section        string
)

const (
	ThemeDark     Theme = "dark"
	ThemeNude     Theme = "nude"
	ThemeNeonCyan Theme = "neon-cyan"
	ThemeMidnight Theme = "midnight"
	ThemeStudio   Theme = "studio"
)

const (
	SidebarPinned SidebarVariant = "pinned"
	SidebarHover  SidebarVariant = "hover"
)

const (
	SectionDashboard Section = "painel"
	SectionEntries   Section = "entradas"
	SectionExits     Section = "saidas"
	SectionAccounts  Section = "contas"
	SectionCalendar  Section = "calendario"
	SectionReports   Section = "relatorios"
	SectionSettings  Section = "configuracoes"
)

var (
	Themes   = []Theme{ThemeDark, ThemeNude, ThemeNeonCyan, ThemeMidnight, ThemeStudio}
	Sidebars = []SidebarVariant{SidebarPinned, SidebarHover}
	// Sections lists the menu in display order.
	Sections = []Section{SectionDashboard, SectionEntries, SectionExits, SectionAccounts, SectionCalendar, SectionReports, SectionSettings}
)

var (
	ErrUnknownTheme   = errors.New("unknown theme")
	ErrUnknownSidebar = errors.New("unknown sidebar variant")
	ErrUnknownSection = errors.New("unknown section")
)

// Settings is a plain value: copy it, change it, save it.
type Settings struct {
	Theme          Theme          `json:"theme"`
	SidebarVariant SidebarVariant `json:"sidebar_variant"`
	HiddenSections []Section      `json:"hidden_sections"`
}

// Store persists settings per user. Load returns Default() for users that never saved.
type Store interface {
	LoadSettings(ctx context.Context, userID string) (Settings, error)
	SaveSettings(ctx context.Context, userID string, s Settings) error
}

func Default() Settings {
	return Settings{Theme: ThemeDark, SidebarVariant: SidebarPinned, HiddenSections: []Section{}}
}

func (t Theme) Valid() bool { return slices.Contains(Themes, t) }
func (v SidebarVariant) Valid() bool { return slices.Contains(Sidebars, v) }
func (s Section) Valid() bool { return slices.Contains(Sections, s) }

func (s Settings) Validate() error {
	if !s.Theme.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, s.Theme)
	}
	if !s.SidebarVariant.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSidebar, s.SidebarVariant)
	}
	for _, sec := range s.HiddenSections {
		if !sec.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownSection, sec)
		}
	}
	return nil
}

func (s Settings) SetTheme(t Theme) (Settings, error) {
	if !t.Valid() {
		return s, fmt.Errorf("%w: %q", ErrUnknownTheme, t)
	}
	s.Theme = t
	return s, nil
}

func (s Settings) SetSidebarVariant(v SidebarVariant) (Settings, error) {
	if !v.Valid() {
		return s, fmt.Errorf("%w: %q", ErrUnknownSidebar, v)
	}
	s.SidebarVariant = v
	return s, nil
}

// ToggleSection hides a visible section or shows a hidden one.
func (s Settings) ToggleSection(sec Section) (Settings, error) {
	if !sec.Valid() {
		return s, fmt.Errorf("%w: %q", ErrUnknownSection, sec)
	}
	hidden := make([]Section, 0, len(s.HiddenSections)+1)
	found := false
	for _, h := range s.HiddenSections {
		if h == sec {
			found = true
			continue
		}
		hidden = append(hidden, h)
	}
	if !found {
		hidden = append(hidden, sec)
	}
	s.HiddenSections = hidden
	return s, nil
}

// ResetSections makes every section visible again.
func (s Settings) ResetSections() Settings {
	s.HiddenSections = []Section{}
	return s
}

func (s Settings) IsSectionVisible(sec Section) bool {
	return !slices.Contains(s.HiddenSections, sec)
}

// VisibleSections returns the menu entries that are not hidden, in menu order.
func (s Settings) VisibleSections() []Section {
	out := make([]Section, 0, len(Sections))
	for _, sec := range Sections {
		if s.IsSectionVisible(sec) {
			out = append(out, sec)
		}
	}
	return out
}

// Normalize fills empty fields with defaults and drops duplicate hidden sections.
func (s Settings) Normalize() Settings {
	d := Default()
	if s.Theme == "" {
		s.Theme = d.Theme
	}
	if s.SidebarVariant == "" {
		s.SidebarVariant = d.SidebarVariant
	}
	hidden := make([]Section, 0, len(s.HiddenSections))
	for _, sec := range s.HiddenSections {
		if !slices.Contains(hidden, sec) {
			hidden = append(hidden, sec)
		}
	}
	s.HiddenSections = hidden
	return s
}
