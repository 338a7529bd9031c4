package reco

import "testing"

func TestCutCurveEval(t *testing.T) {
	tests := []struct {
		name  string
		curve CutCurve
		lgE   float64
		want  float64
	}{
		{"constant ignores energy", CutCurve{0.6, 0, -5, 5}, 2.0, 0.6},
		{"linear inside limits", CutCurve{0.5, 0.1, 0.3, 0.8}, 1.0, 0.6},
		{"clamped to minimum", CutCurve{0.5, 0.1, 0.3, 0.8}, -5.0, 0.3},
		{"clamped to maximum", CutCurve{0.5, 0.1, 0.3, 0.8}, 5.0, 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.curve.Eval(tt.lgE); got != tt.want {
				t.Errorf("Eval(%v) = %v, want %v", tt.lgE, got, tt.want)
			}
		})
	}
}

func TestParamStoreCascade(t *testing.T) {
	s := NewParamStore()

	// Global write reaches every concrete slot.
	s.SetMinAmplitude(0, 100)
	for i := 0; i <= MaxTelTypes; i++ {
		if got := s.Get(i).MinAmplitude; got != 100 {
			t.Errorf("slot %d MinAmplitude = %v, want 100", i, got)
		}
	}

	// A per-type write overrides just that slot.
	s.SetMinAmplitude(3, 200)
	if got := s.Get(3).MinAmplitude; got != 200 {
		t.Errorf("slot 3 MinAmplitude = %v, want 200", got)
	}
	if got := s.Get(2).MinAmplitude; got != 100 {
		t.Errorf("slot 2 MinAmplitude = %v, want 100", got)
	}

	// A later global write wins over the earlier override.
	s.SetMinAmplitude(0, 50)
	if got := s.Get(3).MinAmplitude; got != 50 {
		t.Errorf("slot 3 MinAmplitude after global write = %v, want 50", got)
	}
}

func TestParamStoreDefaultsFrozen(t *testing.T) {
	s := NewParamStore()
	s.SetMinAmplitude(0, 500)
	s.SetMinPixels(0, 9)
	s.SetStyle(StyleHard)

	def := s.Defaults()
	if def.MinAmplitude != 80 {
		t.Errorf("defaults MinAmplitude = %v, want 80", def.MinAmplitude)
	}
	if def.MinPix != 2 {
		t.Errorf("defaults MinPix = %v, want 2", def.MinPix)
	}
	if def.Style != 0 {
		t.Errorf("defaults Style = %v, want 0", def.Style)
	}
}

func TestParamStoreOutOfRangeSelector(t *testing.T) {
	s := NewParamStore()
	s.SetMinAmplitude(MaxTelTypes+1, 999)
	s.SetMinAmplitude(-3, 999)
	for i := 0; i <= MaxTelTypes; i++ {
		if got := s.Get(i).MinAmplitude; got != 80 {
			t.Errorf("slot %d MinAmplitude = %v, want untouched 80", i, got)
		}
	}
	// Out-of-range reads fall back to the global slot.
	if s.Get(MaxTelTypes+5) != s.Get(0) {
		t.Error("out-of-range Get did not fall back to the global slot")
	}
}

func TestSetStylePresetsClearCurves(t *testing.T) {
	s := NewParamStore()
	s.SetWidthMaxCut(CutCurve{0.6, 0.1, 0.4, 0.8})
	s.SetStyle(StyleStandard)
	p := s.Get(0)
	if p.WidthMax != (CutCurve{}) {
		t.Errorf("WidthMax = %v, want zeroed by preset style", p.WidthMax)
	}
	if p.Style != StyleStandard {
		t.Errorf("Style = %v, want %v", p.Style, StyleStandard)
	}
}

func TestSetMaxThetaPresets(t *testing.T) {
	tests := []struct {
		name    string
		style   int
		wantMax float64
	}{
		{"standard", StyleStandard, 0.1118},
		{"hard", StyleHard, 0.1},
		{"loose", StyleLoose, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewParamStore()
			s.SetStyle(tt.style)
			s.SetMaxTheta(0, 1.0, 0.2)
			if got := s.Get(0).MaxThetaDeg; got != tt.wantMax {
				t.Errorf("MaxThetaDeg = %v, want %v", got, tt.wantMax)
			}
		})
	}

	t.Run("explicit maximum wins", func(t *testing.T) {
		s := NewParamStore()
		s.SetStyle(StyleHard)
		s.SetMaxTheta(0.35, 1.0, 0.1)
		if got := s.Get(0).MaxThetaDeg; got != 0.35 {
			t.Errorf("MaxThetaDeg = %v, want 0.35", got)
		}
	})
}

func TestSetTailCutsOrdersThresholds(t *testing.T) {
	s := NewParamStore()
	s.SetTailCuts(0, 12, 6, 1, 0.25)
	p := s.Get(0)
	if p.TailcutLow != 6 || p.TailcutHigh != 12 {
		t.Errorf("tailcuts = %v/%v, want 6/12", p.TailcutLow, p.TailcutHigh)
	}
	if p.RefPixel != 1 || p.MinFrac != 0.25 {
		t.Errorf("refPixel/minFrac = %v/%v, want 1/0.25", p.RefPixel, p.MinFrac)
	}
}

func TestCutCurveGuards(t *testing.T) {
	s := NewParamStore()
	s.SetEresCut(CutCurve{0, 1, 0, 2})
	if got := s.Get(0).EresCut; got != (CutCurve{1, 0, 1, 1}) {
		t.Errorf("EresCut = %v, want untouched default", got)
	}
	s.SetHmaxCut(-1)
	if got := s.Get(0).HmaxCut; got != 1.0 {
		t.Errorf("HmaxCut = %v, want untouched 1.0", got)
	}
}
