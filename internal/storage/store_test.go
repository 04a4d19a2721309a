package storage

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/rotcurve/internal/dataset"
	"github.com/san-kum/rotcurve/internal/fit"
	"github.com/san-kum/rotcurve/internal/units"
)

func fitted(t *testing.T) (*fit.Result, *dataset.Dataset) {
	sys := units.SI()
	records := make([]dataset.Record, 8)
	for i := range records {
		v := 210.0
		if i%2 == 1 {
			v = 214
		}
		records[i] = dataset.Record{RadiusKpc: float64(2 * (i + 1)), VelocityKms: v, SigmaPlusKms: 4, SigmaMinusKms: 4}
	}
	ds, err := dataset.New(sys, records)
	require.NoError(t, err)

	res, err := fit.NewEngine(sys, nil).Fit(context.Background(), fit.Isothermal, ds, []float64{100})
	require.NoError(t, err)
	return res, ds
}

func TestSaveAndLoad(t *testing.T) {
	res, ds := fitted(t)
	st := New(filepath.Join(t.TempDir(), "runs"))
	require.NoError(t, st.Init())

	quality := map[string]float64{"rms": 2, "bad": math.NaN()}
	id, err := st.Save(res, ds, "flat.txt", dataset.Mean, quality)
	require.NoError(t, err)

	meta, err := st.Load(id)
	require.NoError(t, err)
	require.Equal(t, fit.Isothermal, meta.Family)
	require.Equal(t, "flat.txt", meta.Data)
	require.Equal(t, "mean", meta.Policy)
	require.Equal(t, 8, meta.Points)
	require.InDelta(t, res.ChiSquare, meta.ChiSquare, 1e-12)
	require.Equal(t, map[string]float64{"rms": 2}, meta.Metrics)

	rebuilt := meta.Result()
	p, ok := rebuilt.Param("sigma")
	require.True(t, ok)
	require.InDelta(t, 212/math.Sqrt2, p.Value, 1e-3)

	rows, err := st.LoadResiduals(id)
	require.NoError(t, err)
	require.Len(t, rows, 8)
	require.InDelta(t, 2, rows[0].RadiusKpc, 1e-6)
	require.InDelta(t, 210, rows[0].ObservedKms, 1e-6)
	require.InDelta(t, 212, rows[0].ModelKms, 1e-3)
	require.InDelta(t, -0.5, rows[0].Pull, 1e-3)
}

func TestList(t *testing.T) {
	res, ds := fitted(t)
	st := New(t.TempDir())

	runs, err := st.List()
	require.NoError(t, err)
	require.Empty(t, runs)

	first, err := st.Save(res, ds, "a.txt", dataset.Mean, nil)
	require.NoError(t, err)
	second, err := st.Save(res, ds, "b.txt", dataset.Max, nil)
	require.NoError(t, err)

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, first, runs[0].ID)
	require.Equal(t, second, runs[1].ID)
}

func TestListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	require.NoError(t, err)
	require.Empty(t, runs)
}

func TestLoadMissingRun(t *testing.T) {
	st := New(t.TempDir())

	_, err := st.Load("nope")
	require.ErrorIs(t, err, ErrRunNotFound)

	_, err = st.LoadResiduals("nope")
	require.ErrorIs(t, err, ErrRunNotFound)
}
