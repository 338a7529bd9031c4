package lookupdb

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cta-observatory/showerrec/internal/reco"
)

const degToRad = math.Pi / 180

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "lookups.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.MigrateUp("migrations"))
	return db
}

func mustTable(t *testing.T) *reco.Table {
	t.Helper()
	tab, err := reco.NewTable(0, 1000, 10, 1, 5, 8)
	require.NoError(t, err)
	return tab
}

func TestTableRoundTrip(t *testing.T) {
	db := openTestDB(t)

	want := mustTable(t)
	want.SetBin(0, 0, 0.05, 12)
	want.SetBin(3, 4, 0.08, 250)
	want.SetBin(9, 7, 0.12, 3)

	require.NoError(t, db.SaveTable(2, KindWidthMean, want))

	got, err := db.LoadTable(2, KindWidthMean)
	require.NoError(t, err)
	require.NotNil(t, got)

	if diff := cmp.Diff(want, got, cmp.AllowUnexported(reco.Table{})); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveTableReplaces(t *testing.T) {
	db := openTestDB(t)

	first := mustTable(t)
	first.SetBin(1, 1, 0.5, 10)
	first.SetBin(2, 2, 0.6, 10)
	require.NoError(t, db.SaveTable(1, KindLengthSig, first))

	second := mustTable(t)
	second.SetBin(5, 5, 0.7, 20)
	require.NoError(t, db.SaveTable(1, KindLengthSig, second))

	got, err := db.LoadTable(1, KindLengthSig)
	require.NoError(t, err)
	require.NotNil(t, got)

	// Bins from the first save must be gone.
	_, num := got.Bin(1, 1)
	assert.Zero(t, num)
	val, num := got.Bin(5, 5)
	assert.Equal(t, 0.7, val)
	assert.Equal(t, 20.0, num)
}

func TestLoadTableAbsent(t *testing.T) {
	db := openTestDB(t)

	got, err := db.LoadTable(3, KindEnergyMean)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadNormTables(t *testing.T) {
	db := openTestDB(t)

	wm := mustTable(t)
	wm.SetBin(1, 2, 0.1, 5)
	require.NoError(t, db.SaveTable(1, KindWidthMean, wm))
	ws := mustTable(t)
	ws.SetBin(1, 2, 0.02, 5)
	require.NoError(t, db.SaveTable(1, KindWidthSig, ws))

	nt, err := db.LoadNormTables(1)
	require.NoError(t, err)
	require.NotNil(t, nt)
	assert.NotNil(t, nt.WidthMean)
	assert.NotNil(t, nt.WidthSig)
	assert.Nil(t, nt.LengthMean)
	assert.Nil(t, nt.EnergyMean)
	assert.Nil(t, nt.CoreDistMean)

	cm := mustTable(t)
	cm.SetBin(1, 2, 150, 5)
	require.NoError(t, db.SaveTable(1, KindCoreDistMean, cm))
	nt, err = db.LoadNormTables(1)
	require.NoError(t, err)
	assert.NotNil(t, nt.CoreDistMean)

	// A type with nothing stored yields no tables at all.
	none, err := db.LoadNormTables(7)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestLoadAllNormTables(t *testing.T) {
	db := openTestDB(t)

	for _, tt := range []int{1, 3} {
		tab := mustTable(t)
		tab.SetBin(0, 0, 0.1, 1)
		require.NoError(t, db.SaveTable(tt, KindWidthMean, tab))
	}

	norms, err := db.LoadAllNormTables()
	require.NoError(t, err)
	require.Len(t, norms, 2)
	assert.Contains(t, norms, 1)
	assert.Contains(t, norms, 3)
}

func TestThetaCutsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveThetaVariant(0, []float64{0, 0.15, 0.10}))
	require.NoError(t, db.SaveThetaVariant(2, []float64{0.08, 0.30, 0.01}))

	p := reco.DefaultParams()
	p.MinThetaDeg = 0.05

	tc, err := db.LoadThetaCuts(&p, 4)
	require.NoError(t, err)

	fixed := 0.2 * degToRad
	lo := 0.05 * degToRad

	// Variant 0: the zero entry and multiplicities beyond the curve
	// clamp up to the minimum limit.
	assert.InDelta(t, lo, tc.Cut(0, 0), 1e-12)
	assert.InDelta(t, 0.15*degToRad, tc.Cut(0, 1), 1e-12)
	assert.InDelta(t, 0.10*degToRad, tc.Cut(0, 2), 1e-12)
	assert.InDelta(t, lo, tc.Cut(0, 4), 1e-12)

	// Variant 1 has no stored curve and inherits variant 0.
	assert.InDelta(t, 0.15*degToRad, tc.Cut(1, 1), 1e-12)

	// Variant 2: values clamp to the configured limits.
	assert.InDelta(t, 0.08*degToRad, tc.Cut(2, 0), 1e-12)
	assert.InDelta(t, fixed, tc.Cut(2, 1), 1e-12)
	assert.InDelta(t, lo, tc.Cut(2, 2), 1e-12)

	// Variants past the last stored curve inherit it in turn.
	assert.InDelta(t, tc.Cut(2, 2), tc.Cut(6, 2), 1e-12)
}

func TestLoadThetaCutsEmpty(t *testing.T) {
	db := openTestDB(t)

	p := reco.DefaultParams()
	tc, err := db.LoadThetaCuts(&p, 3)
	require.NoError(t, err)

	fixed := 0.2 * degToRad
	for v := 0; v < reco.NumThetaVariants; v++ {
		assert.InDelta(t, fixed, tc.Cut(v, 2), 1e-12)
	}
}

func TestSaveThetaVariantRange(t *testing.T) {
	db := openTestDB(t)

	assert.Error(t, db.SaveThetaVariant(-1, []float64{0.1}))
	assert.Error(t, db.SaveThetaVariant(reco.NumThetaVariants, []float64{0.1}))
}

func TestEnergyBiasRoundTrip(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveEnergyBias(
		[]float64{-1, 0, 1},
		[]float64{0.10, 0.02, -0.05},
	))

	c, err := db.LoadEnergyBias()
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.InDelta(t, 0.02, c.Eval(0), 1e-12)
	assert.InDelta(t, 0.06, c.Eval(-0.5), 1e-12)
	// Outside the sampled range the curve holds its edge value.
	assert.InDelta(t, -0.05, c.Eval(3), 1e-12)
}

func TestLoadEnergyBiasEmpty(t *testing.T) {
	db := openTestDB(t)

	c, err := db.LoadEnergyBias()
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestSaveEnergyBiasMismatch(t *testing.T) {
	db := openTestDB(t)

	assert.Error(t, db.SaveEnergyBias([]float64{0, 1}, []float64{0.1}))
}
