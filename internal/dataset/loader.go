package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/spf13/cast"
)

// DefaultSkipRows matches the two header lines of the bundled data files.
const DefaultSkipRows = 2

// Read parses whitespace- or comma-separated rows of
//
//	radius_kpc velocity_kms sigma_plus_kms [sigma_minus_kms]
//
// after discarding the first skipRows lines. Blank lines and lines starting
// with '#' are ignored. A row with three columns has a symmetric uncertainty.
func Read(r io.Reader, skipRows int) ([]Record, error) {
	var records []Record

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		if line <= skipRows {
			continue
		}

		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.FieldsFunc(text, func(c rune) bool {
			return c == ',' || c == ';' || unicode.IsSpace(c)
		})
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: line %d: expected at least 3 columns, got %d", ErrInvalidDataset, line, len(fields))
		}

		vals := make([]float64, 4)
		for i := 0; i < len(vals) && i < len(fields); i++ {
			v, err := cast.ToFloat64E(fields[i])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %d: %v", ErrInvalidDataset, line, i+1, err)
			}
			vals[i] = v
		}
		if len(fields) == 3 {
			vals[3] = vals[2]
		}

		records = append(records, Record{
			RadiusKpc:     vals[0],
			VelocityKms:   vals[1],
			SigmaPlusKms:  vals[2],
			SigmaMinusKms: vals[3],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read: %w", err)
	}

	return records, nil
}

func Load(path string, skipRows int) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := Read(f, skipRows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
