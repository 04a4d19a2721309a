package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/rotcurve/internal/dataset"
	"github.com/san-kum/rotcurve/internal/fit"
	"github.com/san-kum/rotcurve/internal/units"
)

var ErrRunNotFound = errors.New("storage: run not found")

// Store keeps fit runs under baseDir, one directory per run holding
// metadata.json and residuals.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID               string             `json:"id"`
	Family           fit.Family         `json:"family"`
	Timestamp        time.Time          `json:"timestamp"`
	Data             string             `json:"data"`
	Policy           string             `json:"sigma_policy"`
	Params           []fit.Param        `json:"params"`
	Free             []float64          `json:"free"`
	ChiSquare        float64            `json:"chi_square"`
	ReducedChiSquare float64            `json:"reduced_chi_square"`
	Points           int                `json:"points"`
	Iterations       int                `json:"iterations"`
	Metrics          map[string]float64 `json:"metrics"`
}

// Result rebuilds the fit result recorded in the metadata.
func (m *RunMetadata) Result() *fit.Result {
	return &fit.Result{
		Family:     m.Family,
		Params:     m.Params,
		Free:       m.Free,
		ChiSquare:  m.ChiSquare,
		Points:     m.Points,
		Iterations: m.Iterations,
	}
}

// Residual is one row of residuals.csv.
type Residual struct {
	RadiusKpc   float64
	ObservedKms float64
	ModelKms    float64
	SigmaKms    float64
	// Pull is (observed - model) / sigma.
	Pull float64
}

// Save records a fit of ds and returns the run ID.
func (s *Store) Save(res *fit.Result, ds *dataset.Dataset, dataPath string, policy dataset.SigmaPolicy, quality map[string]float64) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", res.Family, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:               runID,
		Family:           res.Family,
		Timestamp:        now,
		Data:             dataPath,
		Policy:           string(policy),
		Params:           res.Params,
		Free:             res.Free,
		ChiSquare:        res.ChiSquare,
		ReducedChiSquare: finiteOrZero(res.ReducedChiSquare()),
		Points:           res.Points,
		Iterations:       res.Iterations,
		Metrics:          make(map[string]float64, len(quality)),
	}
	// JSON has no NaN or Inf
	for k, v := range quality {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			meta.Metrics[k] = v
		}
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	rows, err := residuals(ds.Units(), res, ds, policy)
	if err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "residuals.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"radius_kpc", "observed_kms", "model_kms", "sigma_kms", "pull"}); err != nil {
		return "", err
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatFloat(r.RadiusKpc, 'f', 6, 64),
			strconv.FormatFloat(r.ObservedKms, 'f', 6, 64),
			strconv.FormatFloat(r.ModelKms, 'f', 6, 64),
			strconv.FormatFloat(r.SigmaKms, 'f', 6, 64),
			strconv.FormatFloat(r.Pull, 'f', 6, 64),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func residuals(sys units.System, res *fit.Result, ds *dataset.Dataset, policy dataset.SigmaPolicy) ([]Residual, error) {
	radius := ds.Radius()
	pred, err := res.Predict(sys, radius)
	if err != nil {
		return nil, err
	}
	obs := ds.Velocity()

	rows := make([]Residual, len(radius))
	for i := range radius {
		sigma := ds.Sigma(policy, i, pred[i])
		rows[i] = Residual{
			RadiusKpc:   sys.MToKpc(radius[i]),
			ObservedKms: sys.MsToKms(obs[i]),
			ModelKms:    sys.MsToKms(pred[i]),
			SigmaKms:    sys.MsToKms(sigma),
			Pull:        (obs[i] - pred[i]) / sigma,
		}
	}
	return rows, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadResiduals(runID string) ([]Residual, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "residuals.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 5

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Residual{}, nil
	}

	rows := make([]Residual, 0, len(records)-1)
	for i, record := range records[1:] {
		var vals [5]float64
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("residuals.csv row %d: %w", i+2, err)
			}
			vals[j] = v
		}
		rows = append(rows, Residual{
			RadiusKpc:   vals[0],
			ObservedKms: vals[1],
			ModelKms:    vals[2],
			SigmaKms:    vals[3],
			Pull:        vals[4],
		})
	}

	return rows, nil
}
