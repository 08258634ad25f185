package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/innermost/internal/event"
	"github.com/dshills/innermost/internal/runtime"
)

var (
	headStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// renderSummary prints the composed registries, one box per section.
// disabled lists the user's disable overrides.
func renderSummary(rt *runtime.Runtime, report *runtime.Report, disabled []string) string {
	sections := []string{
		section("Extensions", extensionLines(report)),
		section("Menus", menuLines(rt)),
		section("Bodies", bodyLines(rt)),
	}
	if len(disabled) > 0 {
		sections = append(sections, section("Disabled", disabledLines(report, disabled)))
	}
	if len(report.Failures) > 0 || len(report.Warnings) > 0 {
		sections = append(sections, section("Problems", problemLines(report)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func section(title string, lines []string) string {
	if len(lines) == 0 {
		lines = []string{dimStyle.Render("(none)")}
	}
	body := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, headStyle.Render(title), body))
}

func extensionLines(report *runtime.Report) []string {
	lines := make([]string, 0, len(report.Modules))
	for _, m := range report.Modules {
		points := make([]string, len(m.Points))
		for i, k := range m.Points {
			points[i] = string(k)
		}
		state := ""
		if m.Disabled {
			state = dimStyle.Render(" disabled")
		}
		lines = append(lines, fmt.Sprintf("%s%s  %s  %s",
			m.Extension, state, dimStyle.Render(m.Path), strings.Join(points, ",")))
	}
	return lines
}

// disabledLines lists overrides; names no composed module carries are stale.
func disabledLines(report *runtime.Report, disabled []string) []string {
	composed := make(map[string]bool, len(report.Modules))
	for _, m := range report.Modules {
		composed[m.Extension] = true
	}
	lines := make([]string, 0, len(disabled))
	for _, name := range disabled {
		if composed[name] {
			lines = append(lines, name)
			continue
		}
		lines = append(lines, name+dimStyle.Render(" (not installed)"))
	}
	return lines
}

func menuLines(rt *runtime.Runtime) []string {
	tr := rt.Translator()
	var lines []string
	for _, t := range rt.Menus().Titles() {
		lines = append(lines, fmt.Sprintf("%s: %s", t.Extension, headStyle.Render(t.Key.Resolve(tr))))
	}
	for _, e := range rt.Menus().Entries() {
		lines = append(lines, fmt.Sprintf("  %s  %s -> %s",
			e.DispatchID, e.LabelKey().Resolve(tr), e.TargetID))
	}
	for _, r := range rt.Menus().Records() {
		if r.DispatchID == "" {
			lines = append(lines, fmt.Sprintf("  %s  %s", r.Extension, dimStyle.Render("custom menu")))
		}
	}
	return lines
}

func bodyLines(rt *runtime.Runtime) []string {
	var lines []string
	for _, b := range rt.Bodies().All() {
		mark := ""
		if b.Default {
			mark = headStyle.Render(" default")
		}
		lines = append(lines, fmt.Sprintf("%s%s  opens %s", b.Extension, mark, rt.Bodies().DefaultView(b.Extension)))
	}
	return lines
}

func problemLines(report *runtime.Report) []string {
	lines := make([]string, 0, len(report.Failures)+len(report.Warnings))
	for _, f := range report.Failures {
		lines = append(lines, failStyle.Render(f.Error()))
	}
	for _, w := range report.Warnings {
		lines = append(lines, dimStyle.Render(w.Error()))
	}
	return lines
}

// renderOpen describes an open request the way a shell would act on it.
func renderOpen(ev event.Envelope) string {
	switch p := ev.EventPayload().(type) {
	case event.OpenExtension:
		return fmt.Sprintf("open %s", p.Name)
	case event.OpenExtensionID:
		return fmt.Sprintf("open %s view %s", p.Name, p.ID)
	default:
		return fmt.Sprintf("%s %v", ev.EventTopic(), p)
	}
}

