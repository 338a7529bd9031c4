package reco

import (
	"math"
	"testing"
)

func mustTable(t *testing.T) *Table {
	t.Helper()
	tab, err := NewTable(0, 1000, 10, 1, 5, 8)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tab
}

func TestNewTableValidation(t *testing.T) {
	if _, err := NewTable(0, 1000, 0, 1, 5, 8); err == nil {
		t.Error("zero bin count accepted")
	}
	if _, err := NewTable(500, 500, 10, 1, 5, 8); err == nil {
		t.Error("empty axis range accepted")
	}
}

func TestTableLookup(t *testing.T) {
	tab := mustTable(t)
	tab.SetBin(2, 3, 1.5, 20)

	// Bin 2 on r covers [200,300), bin 3 on lgA covers [2.5,3).
	v, ok := tab.Lookup(250, 2.7)
	if !ok || v != 1.5 {
		t.Errorf("Lookup = %v, %v; want 1.5, true", v, ok)
	}

	// Adjacent bin has no entries.
	if _, ok := tab.Lookup(350, 2.7); ok {
		t.Error("empty bin reported available")
	}
}

func TestTableLookupOutsideDomain(t *testing.T) {
	tab := mustTable(t)
	tab.SetBin(0, 0, 7, 1)
	tab.SetBin(9, 7, 9, 1)

	for _, tc := range []struct {
		name   string
		r, lgA float64
	}{
		{"below r", -50, 1.2},
		{"above r", 5000, 1.2},
		{"at r max", 1000, 1.2},
		{"below lgA", 50, 0.2},
		{"above lgA", 50, 12},
		{"at lgA max", 50, 5},
	} {
		if _, ok := tab.Lookup(tc.r, tc.lgA); ok {
			t.Errorf("%s: out-of-domain lookup reported available", tc.name)
		}
	}

	// The lower edges are inside the domain.
	if v, ok := tab.Lookup(0, 1); !ok || v != 7 {
		t.Errorf("lower-edge lookup = %v, %v; want 7, true", v, ok)
	}
}

func TestTableSetBinOutOfRange(t *testing.T) {
	tab := mustTable(t)
	tab.SetBin(-1, 0, 5, 1)
	tab.SetBin(10, 0, 5, 1)
	tab.SetBin(0, 8, 5, 1)
	for i := range tab.num {
		if tab.num[i] != 0 {
			t.Fatalf("bin %d modified by out-of-range SetBin", i)
		}
	}
}

// fillTable puts the same value and count into every bin.
func fillTable(tab *Table, val float64) {
	for ir := 0; ir < tab.NR; ir++ {
		for ia := 0; ia < tab.NA; ia++ {
			tab.SetBin(ir, ia, val, 10)
		}
	}
}

func TestImageNorm(t *testing.T) {
	wm := mustTable(t)
	ws := mustTable(t)
	lm := mustTable(t)
	ls := mustTable(t)
	em := mustTable(t)
	es := mustTable(t)
	fillTable(wm, 0.10) // expected width [deg]
	fillTable(ws, 0.02)
	fillTable(lm, 0.30)
	fillTable(ls, 0.05)
	fillTable(em, 0.005) // TeV per p.e.
	fillTable(es, 0.2)

	nt := &NormTables{
		WidthMean: wm, WidthSig: ws,
		LengthMean: lm, LengthSig: ls,
		EnergyMean: em, EnergySig: es,
	}

	n := nt.ImageNorm(120, 200, 0.14, 0.25)
	if !n.WidthOK || math.Abs(n.ReducedWidth-2.0) > 1e-12 {
		t.Errorf("ReducedWidth = %v, %v; want 2.0, true", n.ReducedWidth, n.WidthOK)
	}
	if math.Abs(n.ScaledWidth-1.4) > 1e-12 {
		t.Errorf("ScaledWidth = %v; want 1.4", n.ScaledWidth)
	}
	if !n.LengthOK || math.Abs(n.ReducedLength-(-1.0)) > 1e-12 {
		t.Errorf("ReducedLength = %v, %v; want -1.0, true", n.ReducedLength, n.LengthOK)
	}
	if math.Abs(n.ScaledLength-0.25/0.30) > 1e-12 {
		t.Errorf("ScaledLength = %v; want %v", n.ScaledLength, 0.25/0.30)
	}
	if !n.EnergyOK || math.Abs(n.Energy-1.0) > 1e-12 || n.SigmaRel != 0.2 {
		t.Errorf("Energy = %v (%v), SigmaRel = %v; want 1.0, true, 0.2", n.Energy, n.EnergyOK, n.SigmaRel)
	}
	if n.CoreDistOK || n.ImgDistOK {
		t.Error("secondary estimates reported without secondary tables")
	}
}

// ratioTable builds a table over (width/length ratio, lg amplitude).
func ratioTable(t *testing.T) *Table {
	t.Helper()
	tab, err := NewTable(0, 1, 10, 1, 5, 8)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tab
}

func TestImageNormSecondaryEstimates(t *testing.T) {
	cm := ratioTable(t)
	cs := ratioTable(t)
	im := ratioTable(t)
	is := ratioTable(t)
	fillTable(cm, 150)         // expected core distance [m]
	fillTable(cs, 150*150+400) // mean square: spread 20 m
	fillTable(im, 0.02)        // expected image distance [rad]
	fillTable(is, 0.02*0.02+1e-6)

	nt := &NormTables{
		CoreDistMean: cm, CoreDistSq: cs,
		ImgDistMean: im, ImgDistSq: is,
	}

	n := nt.ImageNorm(120, 200, 0.14, 0.25)
	if !n.CoreDistOK || n.CoreDist != 150 || math.Abs(n.CoreDistSig-20) > 1e-9 {
		t.Errorf("core estimate = %v±%v (%v); want 150±20, true", n.CoreDist, n.CoreDistSig, n.CoreDistOK)
	}
	if !n.ImgDistOK || n.ImgDist != 0.02 || math.Abs(n.ImgDistSig-1e-3) > 1e-12 {
		t.Errorf("image estimate = %v±%v (%v); want 0.02±0.001, true", n.ImgDist, n.ImgDistSig, n.ImgDistOK)
	}

	// Mean square below the squared mean means the spread is bogus.
	fillTable(cs, 150*150-1)
	n = nt.ImageNorm(120, 200, 0.14, 0.25)
	if n.CoreDistOK {
		t.Error("degenerate mean square reported available")
	}

	// A zero length leaves the ratio undefined.
	n = nt.ImageNorm(120, 200, 0.14, 0)
	if n.CoreDistOK || n.ImgDistOK {
		t.Error("zero-length image produced secondary estimates")
	}
}

func TestImageNormUnavailable(t *testing.T) {
	t.Run("missing tables", func(t *testing.T) {
		nt := &NormTables{}
		n := nt.ImageNorm(120, 200, 0.14, 0.25)
		if n.WidthOK || n.LengthOK || n.EnergyOK {
			t.Errorf("flags = %v/%v/%v, want all false", n.WidthOK, n.LengthOK, n.EnergyOK)
		}
		if n.ScaledWidth != SentinelScaled || n.ScaledLength != SentinelScaled {
			t.Errorf("scaled = %v/%v, want sentinels", n.ScaledWidth, n.ScaledLength)
		}
		if n.ReducedWidth != SentinelScaled || n.ReducedLength != SentinelScaled {
			t.Errorf("reduced = %v/%v, want sentinels", n.ReducedWidth, n.ReducedLength)
		}
	})

	t.Run("zero spread", func(t *testing.T) {
		wm := mustTable(t)
		ws := mustTable(t)
		fillTable(wm, 0.1)
		fillTable(ws, 0) // entries present but degenerate spread
		nt := &NormTables{WidthMean: wm, WidthSig: ws}
		n := nt.ImageNorm(120, 200, 0.14, 0.25)
		if n.WidthOK || n.ReducedWidth != SentinelScaled {
			t.Errorf("ReducedWidth = %v, %v; want sentinel, false", n.ReducedWidth, n.WidthOK)
		}
		// The ratio only needs the mean.
		if math.Abs(n.ScaledWidth-1.4) > 1e-12 {
			t.Errorf("ScaledWidth = %v; want 1.4", n.ScaledWidth)
		}
	})

	t.Run("non-positive amplitude", func(t *testing.T) {
		nt := &NormTables{}
		n := nt.ImageNorm(120, 0, 0.14, 0.25)
		if n.WidthOK || n.EnergyOK {
			t.Error("zero amplitude produced an available norm")
		}
	})
}
