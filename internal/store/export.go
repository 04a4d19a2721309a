package store

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/san-kum/rotcurve/internal/export"
	"github.com/san-kum/rotcurve/internal/fit"
	"github.com/san-kum/rotcurve/internal/metrics"
	"github.com/san-kum/rotcurve/internal/rotation"
	"github.com/san-kum/rotcurve/internal/units"
)

var (
	ErrUnknownFormat = errors.New("store: unknown export format")
	ErrGridMismatch  = errors.New("store: curves do not share a grid")
	ErrNothingToSave = errors.New("store: nothing to export")
)

type CurveData struct {
	Family      string           `json:"family"`
	Method      string           `json:"method"`
	RadiusKpc   []float64        `json:"radius_kpc"`
	VelocityKms []float64        `json:"velocity_kms"`
	Summary     *metrics.Summary `json:"summary,omitempty"`
}

type ExportData struct {
	Curves []CurveData   `json:"curves,omitempty"`
	Fits   []*fit.Result `json:"fits,omitempty"`
}

func curveData(sys units.System, c *rotation.Curve) CurveData {
	r, v := c.Kpc(sys)
	d := CurveData{
		Family:      string(c.Family),
		Method:      c.Method.String(),
		RadiusKpc:   r,
		VelocityKms: v,
	}
	if s, err := metrics.Summarize(sys, c); err == nil {
		d.Summary = &s
	}
	return d
}

// WriteJSON writes curves (kpc, km/s) and fit results as indented JSON.
func WriteJSON(w io.Writer, sys units.System, curves []*rotation.Curve, fits []*fit.Result) error {
	data := ExportData{
		Curves: make([]CurveData, 0, len(curves)),
		Fits:   fits,
	}
	for _, c := range curves {
		data.Curves = append(data.Curves, curveData(sys, c))
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteCSV writes one radius_kpc column followed by one km/s column per
// curve. All curves must have the same number of points.
func WriteCSV(w io.Writer, sys units.System, curves []*rotation.Curve) error {
	if len(curves) == 0 {
		return ErrNothingToSave
	}
	n := curves[0].Len()

	header := []string{"radius_kpc"}
	seen := make(map[string]int)
	for _, c := range curves {
		if c.Len() != n {
			return fmt.Errorf("%w: %d vs %d points", ErrGridMismatch, c.Len(), n)
		}
		name := string(c.Family)
		seen[name]++
		if seen[name] > 1 {
			name = fmt.Sprintf("%s_%d", name, seen[name])
		}
		header = append(header, name+"_kms")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	radius := curves[0].Grid.Kpc(sys)
	velocities := make([][]float64, len(curves))
	for i, c := range curves {
		velocities[i] = sys.MsToKmsSlice(c.Velocity)
	}

	for i := 0; i < n; i++ {
		row := []string{strconv.FormatFloat(radius[i], 'f', 6, 64)}
		for _, v := range velocities {
			row = append(row, strconv.FormatFloat(v[i], 'f', 6, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveFile picks the format from the extension (.csv, .json or .svg). A
// trailing .gz compresses the output. CSV and SVG files carry curves only.
func SaveFile(path string, sys units.System, curves []*rotation.Curve, fits []*fit.Result) (err error) {
	name := strings.ToLower(path)
	compressed := strings.HasSuffix(name, ".gz")
	name = strings.TrimSuffix(name, ".gz")

	var write func(io.Writer) error
	switch filepath.Ext(name) {
	case ".csv":
		write = func(w io.Writer) error { return WriteCSV(w, sys, curves) }
	case ".svg":
		write = func(w io.Writer) error { return export.WriteSVG(w, sys, curves) }
	case ".json":
		if len(curves) == 0 && len(fits) == 0 {
			return ErrNothingToSave
		}
		write = func(w io.Writer) error { return WriteJSON(w, sys, curves, fits) }
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	if !compressed {
		return write(file)
	}

	zw := gzip.NewWriter(file)
	if err := write(zw); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// SnapshotName formats a file name from slider values, one decimal minimum:
// SnapshotName("curve", ".csv", 10, 12.5) is "curve_10.0_12.5.csv".
func SnapshotName(prefix, ext string, values ...float64) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, v := range values {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		b.WriteString("_")
		b.WriteString(s)
	}
	b.WriteString(ext)
	return b.String()
}
