package lookupdb

import (
	"database/sql"
	"fmt"

	"github.com/cta-observatory/showerrec/internal/reco"
)

// Table kinds stored per telescope type.
const (
	KindWidthMean  = "width_mean"
	KindWidthSig   = "width_sig"
	KindLengthMean = "length_mean"
	KindLengthSig  = "length_sig"
	KindEnergyMean = "energy_mean"
	KindEnergySig  = "energy_sig"

	// Secondary tables over (width/length ratio, lg amplitude).
	KindCoreDistMean = "core_dist_mean"
	KindCoreDistSq   = "core_dist_sq"
	KindImgDistMean  = "img_dist_mean"
	KindImgDistSq    = "img_dist_sq"
)

// SaveTable stores one lookup table for a telescope type, replacing
// any previous table of the same kind. Only bins with entries are
// written out.
func (db *DB) SaveTable(telType int, kind string, t *reco.Table) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("saving %s table for type %d: %w", kind, telType, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM lookup_bins WHERE tel_type = ? AND kind = ?", telType, kind,
	); err != nil {
		return fmt.Errorf("clearing %s bins for type %d: %w", kind, telType, err)
	}
	if _, err := tx.Exec(`
		INSERT INTO lookup_tables (tel_type, kind, r_min, r_max, r_bins, a_min, a_max, a_bins)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tel_type, kind) DO UPDATE SET
			r_min = excluded.r_min, r_max = excluded.r_max, r_bins = excluded.r_bins,
			a_min = excluded.a_min, a_max = excluded.a_max, a_bins = excluded.a_bins
	`, telType, kind, t.RMin, t.RMax, t.NR, t.AMin, t.AMax, t.NA); err != nil {
		return fmt.Errorf("saving %s table for type %d: %w", kind, telType, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO lookup_bins (tel_type, kind, r_bin, a_bin, value, entries)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("saving %s bins for type %d: %w", kind, telType, err)
	}
	defer stmt.Close()

	for ir := 0; ir < t.NR; ir++ {
		for ia := 0; ia < t.NA; ia++ {
			val, num := t.Bin(ir, ia)
			if num <= 0 {
				continue
			}
			if _, err := stmt.Exec(telType, kind, ir, ia, val, num); err != nil {
				return fmt.Errorf("saving %s bin (%d,%d) for type %d: %w", kind, ir, ia, telType, err)
			}
		}
	}

	return tx.Commit()
}

// LoadTable reads back one lookup table. Returns nil without error
// when no table of this kind has been stored for the type.
func (db *DB) LoadTable(telType int, kind string) (*reco.Table, error) {
	var rmin, rmax, amin, amax float64
	var nr, na int
	err := db.QueryRow(`
		SELECT r_min, r_max, r_bins, a_min, a_max, a_bins
		FROM lookup_tables WHERE tel_type = ? AND kind = ?
	`, telType, kind).Scan(&rmin, &rmax, &nr, &amin, &amax, &na)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s table for type %d: %w", kind, telType, err)
	}

	t, err := reco.NewTable(rmin, rmax, nr, amin, amax, na)
	if err != nil {
		return nil, fmt.Errorf("loading %s table for type %d: %w", kind, telType, err)
	}

	rows, err := db.Query(`
		SELECT r_bin, a_bin, value, entries
		FROM lookup_bins WHERE tel_type = ? AND kind = ?
	`, telType, kind)
	if err != nil {
		return nil, fmt.Errorf("loading %s bins for type %d: %w", kind, telType, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ir, ia int
		var val, num float64
		if err := rows.Scan(&ir, &ia, &val, &num); err != nil {
			return nil, fmt.Errorf("loading %s bins for type %d: %w", kind, telType, err)
		}
		t.SetBin(ir, ia, val, num)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading %s bins for type %d: %w", kind, telType, err)
	}

	return t, nil
}

// LoadNormTables assembles the stored tables for one telescope type.
// Kinds without a stored table come back nil; if the type has no
// tables at all the result is nil.
func (db *DB) LoadNormTables(telType int) (*reco.NormTables, error) {
	nt := &reco.NormTables{}
	any := false
	for _, k := range []struct {
		kind string
		dst  **reco.Table
	}{
		{KindWidthMean, &nt.WidthMean},
		{KindWidthSig, &nt.WidthSig},
		{KindLengthMean, &nt.LengthMean},
		{KindLengthSig, &nt.LengthSig},
		{KindEnergyMean, &nt.EnergyMean},
		{KindEnergySig, &nt.EnergySig},
		{KindCoreDistMean, &nt.CoreDistMean},
		{KindCoreDistSq, &nt.CoreDistSq},
		{KindImgDistMean, &nt.ImgDistMean},
		{KindImgDistSq, &nt.ImgDistSq},
	} {
		t, err := db.LoadTable(telType, k.kind)
		if err != nil {
			return nil, err
		}
		if t != nil {
			*k.dst = t
			any = true
		}
	}
	if !any {
		return nil, nil
	}
	return nt, nil
}

// LoadAllNormTables loads the tables of every telescope type present
// in the store, keyed by type.
func (db *DB) LoadAllNormTables() (map[int]*reco.NormTables, error) {
	rows, err := db.Query("SELECT DISTINCT tel_type FROM lookup_tables ORDER BY tel_type")
	if err != nil {
		return nil, fmt.Errorf("listing lookup table types: %w", err)
	}
	defer rows.Close()

	var types []int
	for rows.Next() {
		var tt int
		if err := rows.Scan(&tt); err != nil {
			return nil, fmt.Errorf("listing lookup table types: %w", err)
		}
		types = append(types, tt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing lookup table types: %w", err)
	}

	norms := make(map[int]*reco.NormTables, len(types))
	for _, tt := range types {
		nt, err := db.LoadNormTables(tt)
		if err != nil {
			return nil, err
		}
		if nt != nil {
			norms[tt] = nt
		}
	}
	return norms, nil
}

// SaveThetaVariant stores one optimized angular cut curve, given in
// degrees indexed by image multiplicity, replacing any previous curve
// for the variant.
func (db *DB) SaveThetaVariant(variant int, deg []float64) error {
	if variant < 0 || variant >= reco.NumThetaVariants {
		return fmt.Errorf("theta cut variant %d out of range", variant)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("saving theta cut variant %d: %w", variant, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM theta_cuts WHERE variant = ?", variant); err != nil {
		return fmt.Errorf("clearing theta cut variant %d: %w", variant, err)
	}
	for mult, d := range deg {
		if _, err := tx.Exec(
			"INSERT INTO theta_cuts (variant, multiplicity, theta_deg) VALUES (?, ?, ?)",
			variant, mult, d,
		); err != nil {
			return fmt.Errorf("saving theta cut variant %d: %w", variant, err)
		}
	}

	return tx.Commit()
}

// LoadThetaCuts builds the angular cut set for the given parameters
// from the stored curves. Variants without a stored curve inherit the
// preceding variant; multiplicities a curve leaves out, and any
// non-positive stored value, fall back to the minimum limit, or to
// the fixed limit when no minimum is configured.
func (db *DB) LoadThetaCuts(p *reco.Params, maxMult int) (*reco.ThetaCuts, error) {
	tc := reco.NewThetaCuts(p, maxMult)

	rows, err := db.Query("SELECT variant, multiplicity, theta_deg FROM theta_cuts")
	if err != nil {
		return nil, fmt.Errorf("loading theta cuts: %w", err)
	}
	defer rows.Close()

	curves := make(map[int][]float64)
	for rows.Next() {
		var variant, mult int
		var deg float64
		if err := rows.Scan(&variant, &mult, &deg); err != nil {
			return nil, fmt.Errorf("loading theta cuts: %w", err)
		}
		if variant < 0 || variant >= reco.NumThetaVariants || mult < 0 || mult > maxMult {
			continue
		}
		if curves[variant] == nil {
			curves[variant] = make([]float64, maxMult+1)
		}
		curves[variant][mult] = deg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading theta cuts: %w", err)
	}

	for v := 0; v < reco.NumThetaVariants; v++ {
		if deg, ok := curves[v]; ok {
			tc.SetVariant(v, deg, p)
		} else if v > 0 {
			tc.CopyVariant(v, v-1)
		}
	}

	return tc, nil
}

// SaveEnergyBias stores the energy bias correction as (lg E, bias)
// sample points, replacing any previous curve.
func (db *DB) SaveEnergyBias(logE, bias []float64) error {
	if len(logE) != len(bias) {
		return fmt.Errorf("energy bias: %d abscissae for %d values", len(logE), len(bias))
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("saving energy bias: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM energy_bias"); err != nil {
		return fmt.Errorf("clearing energy bias: %w", err)
	}
	for i := range logE {
		if _, err := tx.Exec(
			"INSERT INTO energy_bias (log_energy, bias) VALUES (?, ?)", logE[i], bias[i],
		); err != nil {
			return fmt.Errorf("saving energy bias: %w", err)
		}
	}

	return tx.Commit()
}

// LoadEnergyBias returns the stored bias correction as an
// interpolation curve, or nil when no correction is stored.
func (db *DB) LoadEnergyBias() (*reco.Curve, error) {
	rows, err := db.Query("SELECT log_energy, bias FROM energy_bias ORDER BY log_energy")
	if err != nil {
		return nil, fmt.Errorf("loading energy bias: %w", err)
	}
	defer rows.Close()

	var xs, ys []float64
	for rows.Next() {
		var x, y float64
		if err := rows.Scan(&x, &y); err != nil {
			return nil, fmt.Errorf("loading energy bias: %w", err)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading energy bias: %w", err)
	}

	if len(xs) == 0 {
		return nil, nil
	}
	c, err := reco.NewCurve(xs, ys)
	if err != nil {
		return nil, fmt.Errorf("loading energy bias: %w", err)
	}
	return c, nil
}
