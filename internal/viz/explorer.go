package viz

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/patrickmn/go-cache"
	"github.com/sgostarter/i/l"

	"github.com/san-kum/rotcurve/internal/config"
	"github.com/san-kum/rotcurve/internal/potential"
	"github.com/san-kum/rotcurve/internal/rotation"
	"github.com/san-kum/rotcurve/internal/store"
	"github.com/san-kum/rotcurve/internal/units"
)

// Slider range for scale radii, in kpc. Values snap to one decimal.
const (
	SliderMin  = 1.0
	SliderMax  = 30.0
	SliderStep = 0.1

	canvasWidth  = 60
	canvasHeight = 16
	cacheTTL     = 5 * time.Minute
)

type slider struct {
	family  potential.Family
	value   float64
	initial float64
	visible bool
}

// Explorer is a terminal model with one scale-radius slider per halo
// profile. Curves are memoised by family and parameters.
type Explorer struct {
	sys     units.System
	grid    potential.Grid
	reg     *potential.Registry
	engine  *rotation.Engine
	mass    float64
	sliders []slider
	cursor  int
	curves  *cache.Cache
	dir     string
	status  string
	err     error
	logger  l.Wrapper
}

type ExplorerOption func(e *Explorer)

// MassExplorerOption sets the total mass shared by every profile.
func MassExplorerOption(mass float64) ExplorerOption {
	return func(e *Explorer) {
		e.mass = mass
	}
}

// SnapshotDirExplorerOption sets where snapshots are written.
func SnapshotDirExplorerOption(dir string) ExplorerOption {
	return func(e *Explorer) {
		e.dir = dir
	}
}

// ScaleExplorerOption sets the starting scale radius of every slider.
func ScaleExplorerOption(kpc float64) ExplorerOption {
	return func(e *Explorer) {
		for i := range e.sliders {
			e.sliders[i].value = clampSlider(kpc)
			e.sliders[i].initial = e.sliders[i].value
		}
	}
}

func NewExplorer(sys units.System, grid potential.Grid, logger l.Wrapper, opts ...ExplorerOption) *Explorer {
	if logger == nil {
		logger = l.NewNopLoggerWrapper()
	}

	e := &Explorer{
		sys:    sys,
		grid:   grid,
		reg:    potential.NewRegistry(sys),
		engine: rotation.NewEngine(rotation.Auto),
		mass:   config.DefaultMass,
		curves: cache.New(cacheTTL, 2*cacheTTL),
		dir:    ".",
		logger: logger.WithFields(l.StringField(l.ClsKey, "explorer")),
	}
	for _, f := range potential.HaloProfiles() {
		e.sliders = append(e.sliders, slider{
			family:  f,
			value:   config.DefaultScaleRadius,
			initial: config.DefaultScaleRadius,
			visible: true,
		})
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

func clampSlider(v float64) float64 {
	v = math.Round(v*10) / 10
	return math.Max(SliderMin, math.Min(SliderMax, v))
}

func (e *Explorer) Init() tea.Cmd { return nil }

func (e *Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return e.handleKey(msg)
	}
	return e, nil
}

func (e *Explorer) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := &e.sliders[e.cursor]

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return e, tea.Quit
	case "up", "k":
		if e.cursor > 0 {
			e.cursor--
		}
	case "down", "j":
		if e.cursor < len(e.sliders)-1 {
			e.cursor++
		}
	case "left", "h":
		s.value = clampSlider(s.value - SliderStep)
	case "right", "l":
		s.value = clampSlider(s.value + SliderStep)
	case "pgdown", "H":
		s.value = clampSlider(s.value - 1)
	case "pgup", "L":
		s.value = clampSlider(s.value + 1)
	case " ", "space", "enter":
		s.visible = !s.visible
	case "r":
		for i := range e.sliders {
			e.sliders[i].value = e.sliders[i].initial
			e.sliders[i].visible = true
		}
		e.status, e.err = "", nil
	case "s":
		path, err := e.Save()
		if err != nil {
			e.status, e.err = "", err
		} else {
			e.status, e.err = "saved "+path, nil
		}
	}
	return e, nil
}

// Values returns the current scale radius of each slider.
func (e *Explorer) Values() []float64 {
	out := make([]float64, len(e.sliders))
	for i, s := range e.sliders {
		out[i] = s.value
	}
	return out
}

func cacheKey(f potential.Family, a, mass float64) string {
	return strconv.FormatUint(xxhash.Sum64String(fmt.Sprintf("%s|%.1f|%g", f, a, mass)), 16)
}

// curve returns the rotation curve for slider i, computing it on a miss.
func (e *Explorer) curve(i int) (*rotation.Curve, error) {
	s := e.sliders[i]
	key := cacheKey(s.family, s.value, e.mass)
	if c, ok := e.curves.Get(key); ok {
		return c.(*rotation.Curve), nil
	}

	m, err := e.reg.Build(e.grid, potential.Spec{Family: s.family, ScaleRadius: s.value, Mass: e.mass})
	if err != nil {
		return nil, err
	}
	c, err := e.engine.Curve(m)
	if err != nil {
		return nil, err
	}

	e.curves.Set(key, c, cache.DefaultExpiration)
	return c, nil
}

// Save writes every profile's curve to curve_<a1>_<a2>_<a3>_<a4>.csv in the
// snapshot directory and returns the path.
func (e *Explorer) Save() (string, error) {
	curves := make([]*rotation.Curve, len(e.sliders))
	for i := range e.sliders {
		c, err := e.curve(i)
		if err != nil {
			return "", err
		}
		curves[i] = c
	}

	path := filepath.Join(e.dir, store.SnapshotName("curve", ".csv", e.Values()...))
	if err := store.SaveFile(path, e.sys, curves, nil); err != nil {
		e.logger.WithFields(l.ErrorField(err), l.StringField("path", path)).Error("snapshot failed")
		return "", err
	}

	e.logger.WithFields(l.StringField("path", path)).Info("snapshot saved")
	return path, nil
}

func (e *Explorer) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("ROTATION CURVE EXPLORER") + "\n\n")

	styles := make([]lipgloss.Style, len(e.sliders))
	for i := range styles {
		styles[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(seriesHex[i%len(seriesHex)]))
	}

	canvas := NewCanvas(canvasWidth, canvasHeight)
	radius := e.grid.Kpc(e.sys)
	var vmax float64
	var visible []*rotation.Curve
	var owners []int
	for i, sl := range e.sliders {
		if !sl.visible {
			continue
		}
		c, err := e.curve(i)
		if err != nil {
			s.WriteString(errorStyle.Render(fmt.Sprintf("%s: %v", sl.family, err)) + "\n")
			continue
		}
		visible = append(visible, c)
		owners = append(owners, i)
		for _, v := range c.Velocity {
			vmax = math.Max(vmax, e.sys.MsToKms(v))
		}
	}
	if len(radius) > 1 && vmax > 0 {
		for k, c := range visible {
			canvas.UseSeries(owners[k])
			canvas.Polyline(radius, e.sys.MsToKmsSlice(c.Velocity), radius[0], radius[len(radius)-1], 0, vmax*1.05)
		}
	}
	s.WriteString(mutedStyle.Render(fmt.Sprintf("%.0f km/s", vmax*1.05)) + "\n")
	s.WriteString(canvas.Render(styles))
	if len(radius) > 1 {
		s.WriteString(mutedStyle.Render(fmt.Sprintf("%.1f kpc%*s%.1f kpc", radius[0], canvasWidth-14, "", radius[len(radius)-1])) + "\n")
	}

	s.WriteString("\nSCALE RADIUS [kpc]\n")
	for i, sl := range e.sliders {
		mark := "●"
		if !sl.visible {
			mark = "○"
		}
		line := fmt.Sprintf("%s %-10s %s %5.1f", styles[i].Render(mark), sl.family, sliderBar(sl.value, SliderMin, SliderMax, 20), sl.value)
		if i == e.cursor {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}

	switch {
	case e.err != nil:
		s.WriteString("\n" + errorStyle.Render(e.err.Error()) + "\n")
	case e.status != "":
		s.WriteString("\n" + valueStyle.Render(e.status) + "\n")
	}

	s.WriteString(mutedStyle.Render("\n↑/↓ select  ←/→ ±0.1  H/L ±1  space toggle  s save  r reset  q quit"))
	return s.String()
}

var seriesHex = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff88"}

// RunExplorer blocks until the user quits.
func RunExplorer(e *Explorer) error {
	_, err := tea.NewProgram(e, tea.WithAltScreen()).Run()
	return err
}
