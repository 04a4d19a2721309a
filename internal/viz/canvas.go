package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a Braille pixel canvas. Each cell remembers the series that
// last drew into it so overlapping curves keep distinct colors.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	owner         [][]int
	series        int
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		owner:  make([][]int, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.owner[i] = make([]int, w)
	}
	c.Clear()
	return c
}

// SubWidth and SubHeight are the canvas size in sub-pixels.
func (c *Canvas) SubWidth() int  { return c.Width * 2 }
func (c *Canvas) SubHeight() int { return c.Height * 4 }

// UseSeries sets the series index attributed to following draws.
func (c *Canvas) UseSeries(i int) { c.series = i }

// Set lights the sub-pixel (x, y); y grows downwards.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	c.owner[row][col] = c.series
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.owner[i][j] = -1
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Polyline maps (x[i], y[i]) from the data box [xmin,xmax]×[ymin,ymax]
// onto the canvas and joins consecutive points.
func (c *Canvas) Polyline(x, y []float64, xmin, xmax, ymin, ymax float64) {
	if len(x) == 0 || len(x) != len(y) || !(xmax > xmin) || !(ymax > ymin) {
		return
	}

	w, h := float64(c.SubWidth()-1), float64(c.SubHeight()-1)
	px := func(i int) (int, int) {
		return int((x[i] - xmin) / (xmax - xmin) * w), int((ymax - y[i]) / (ymax - ymin) * h)
	}

	x0, y0 := px(0)
	c.Set(x0, y0)
	for i := 1; i < len(x); i++ {
		x1, y1 := px(i)
		c.DrawLine(x0, y0, x1, y1)
		x0, y0 = x1, y1
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render colors each cell with the style of the series that owns it.
func (c *Canvas) Render(styles []lipgloss.Style) string {
	var b strings.Builder
	for i, row := range c.Grid {
		for j, r := range row {
			o := c.owner[i][j]
			if o < 0 || len(styles) == 0 {
				b.WriteRune(r)
				continue
			}
			b.WriteString(styles[o%len(styles)].Render(string(r)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
