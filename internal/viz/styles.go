package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/rotcurve/internal/fit"
	"github.com/san-kum/rotcurve/internal/metrics"
)

var (
	headerStyle      lipgloss.Style
	labelStyle       lipgloss.Style
	valueStyle       lipgloss.Style
	activeParamStyle lipgloss.Style
	mutedStyle       lipgloss.Style
	errorStyle       lipgloss.Style
	panelStyle       lipgloss.Style
	graphStyle       = lipgloss.NewStyle().Padding(1, 0)
)

func init() {
	applyTheme(CurrentTheme)
}

func applyTheme(t Theme) {
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(t.Title).
		BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(t.Muted)
	labelStyle = lipgloss.NewStyle().Foreground(t.Label).Width(18)
	valueStyle = lipgloss.NewStyle().Foreground(t.Value)
	activeParamStyle = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(t.Muted)
	errorStyle = lipgloss.NewStyle().Foreground(t.Error).Bold(true)
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Muted).Padding(0, 1)
}

// FitTable renders a fitted model's parameters and quality scores.
func FitTable(res *fit.Result, quality map[string]float64) string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(string(res.Family))) + "\n")

	for _, p := range res.Params {
		val := formatValue(p.Value)
		if p.StdErr > 0 {
			val += " ± " + formatValue(p.StdErr)
		}
		s.WriteString(labelStyle.Render(p.Name) + valueStyle.Render(val) + " " + mutedStyle.Render(p.Unit) + "\n")
	}

	s.WriteString(labelStyle.Render("chi2") + valueStyle.Render(formatValue(res.ChiSquare)) + "\n")
	s.WriteString(labelStyle.Render("reduced chi2") + valueStyle.Render(formatValue(res.ReducedChiSquare())) + "\n")
	s.WriteString(labelStyle.Render("iterations") + valueStyle.Render(fmt.Sprint(res.Iterations)) + "\n")

	if len(quality) > 0 {
		keys := make([]string, 0, len(quality))
		for k := range quality {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s.WriteString(Separator(36) + "\n")
		for _, k := range keys {
			s.WriteString(labelStyle.Render(k) + valueStyle.Render(formatValue(quality[k])) + "\n")
		}
	}

	return panelStyle.Render(strings.TrimSuffix(s.String(), "\n"))
}

// AttemptTable ranks fit attempts by reduced chi-square, failures last.
func AttemptTable(attempts []fit.Attempt) string {
	sorted := append([]fit.Attempt(nil), attempts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		if a.Err != nil {
			return false
		}
		return a.Result.ReducedChiSquare() < b.Result.ReducedChiSquare()
	})

	var s strings.Builder
	s.WriteString(headerStyle.Render("FITS") + "\n")
	for _, a := range sorted {
		if a.Err != nil {
			s.WriteString(labelStyle.Render(string(a.Family)) + errorStyle.Render(a.Err.Error()) + "\n")
			continue
		}
		s.WriteString(labelStyle.Render(string(a.Family)) +
			valueStyle.Render("reduced chi2 "+formatValue(a.Result.ReducedChiSquare())) + "\n")
	}
	return panelStyle.Render(strings.TrimSuffix(s.String(), "\n"))
}

// CurveTable lists the peak and outer slope of each curve.
func CurveTable(summaries []metrics.Summary) string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("CURVES") + "\n")
	s.WriteString(labelStyle.Render("family") +
		mutedStyle.Render(fmt.Sprintf("%12s %12s %10s", "r_peak kpc", "v_peak km/s", "slope")) + "\n")
	for _, sm := range summaries {
		s.WriteString(labelStyle.Render(string(sm.Family)) + valueStyle.Render(fmt.Sprintf("%12.3f %12.2f %10.3f",
			sm.Peak.RadiusKpc, sm.Peak.VelocityKms, sm.OuterSlope)) + "\n")
	}
	return panelStyle.Render(strings.TrimSuffix(s.String(), "\n"))
}

// Separator draws a decorative rule
func Separator(width int) string {
	if width < 8 {
		width = 8
	}
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return mutedStyle.Render(left + " ◆ " + right)
}

// sliderBar draws the position of v within [lo, hi].
func sliderBar(v, lo, hi float64, width int) string {
	ratio := (v - lo) / (hi - lo)
	ratio = math.Max(0, math.Min(1, ratio))
	filled := int(math.Round(ratio * float64(width)))
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", width-filled) + "]"
}

func formatValue(v float64) string {
	a := math.Abs(v)
	if a != 0 && (a < 1e-3 || a >= 1e5) {
		return fmt.Sprintf("%.4e", v)
	}
	return fmt.Sprintf("%.4f", v)
}
