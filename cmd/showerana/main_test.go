package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cta-observatory/showerrec/internal/config"
	"github.com/cta-observatory/showerrec/internal/lookupdb"
	"github.com/cta-observatory/showerrec/internal/reco"
)

func writeArrayFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "array.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing array file: %v", err)
	}
	return path
}

func TestLoadArray(t *testing.T) {
	path := writeArrayFile(t, `{
		"obs_height_m": 2150,
		"nominal_az_deg": 180,
		"nominal_alt_deg": 70,
		"source_az_deg": 180,
		"source_alt_deg": 70,
		"telescopes": [
			{"id": 1, "pos_m": [-50, 0, 0], "mirror_area_m2": 100, "focal_length_m": 15, "num_pixels": 960, "camera_radius_deg": 2.5},
			{"id": 2, "pos_m": [50, 0, 0], "mirror_area_m2": 100, "focal_length_m": 15, "num_pixels": 960, "camera_radius_deg": 2.5}
		]
	}`)

	array, err := loadArray(path, config.EmptyTuningConfig())
	if err != nil {
		t.Fatalf("loadArray: %v", err)
	}

	if len(array.Telescopes) != 2 {
		t.Fatalf("got %d telescopes, want 2", len(array.Telescopes))
	}
	if array.ObsHeight != 2150 {
		t.Errorf("ObsHeight = %v, want 2150", array.ObsHeight)
	}
	if array.Telescopes[0].Index != 0 || array.Telescopes[1].Index != 1 {
		t.Errorf("telescope indexes not assigned in order")
	}
	wantRad := 2.5 * degToRad
	if got := array.Telescopes[0].Cam.Radius; got != wantRad {
		t.Errorf("camera radius = %v rad, want %v", got, wantRad)
	}
	if array.Diffuse {
		t.Errorf("Diffuse = true, want false by default")
	}
}

func TestLoadArrayDefaultsObsHeight(t *testing.T) {
	path := writeArrayFile(t, `{"telescopes": [{"id": 1, "pos_m": [0, 0, 0]}]}`)

	array, err := loadArray(path, config.EmptyTuningConfig())
	if err != nil {
		t.Fatalf("loadArray: %v", err)
	}
	if array.ObsHeight != 1800 {
		t.Errorf("ObsHeight = %v, want config default 1800", array.ObsHeight)
	}
}

func TestLoadArrayErrors(t *testing.T) {
	cfg := config.EmptyTuningConfig()

	if _, err := loadArray(filepath.Join(t.TempDir(), "missing.json"), cfg); err == nil {
		t.Errorf("missing file: expected error")
	}
	if _, err := loadArray(writeArrayFile(t, "{not json"), cfg); err == nil {
		t.Errorf("malformed JSON: expected error")
	}
	if _, err := loadArray(writeArrayFile(t, `{"telescopes": []}`), cfg); err == nil {
		t.Errorf("empty array: expected error")
	}
}

func TestToEvent(t *testing.T) {
	telIndex := map[int]int{5: 0, 9: 1}

	ie := &inputEvent{Run: 12, Number: 345}
	ie.True.Energy = 1.5
	ie.Shower.DirectionKnown = true
	ie.Images = append(ie.Images, inputImage{TelID: 9, Known: true, Amplitude: 200, Pixels: 12})

	ev, err := toEvent(ie, telIndex)
	if err != nil {
		t.Fatalf("toEvent: %v", err)
	}
	if ev.Run != 12 || ev.Number != 345 {
		t.Errorf("event identity = %d/%d, want 12/345", ev.Run, ev.Number)
	}
	if ev.True.Energy != 1.5 {
		t.Errorf("Energy = %v, want 1.5", ev.True.Energy)
	}
	if len(ev.Images) != 1 || ev.Images[0].TelIndex != 1 {
		t.Errorf("image TelIndex = %d, want 1", ev.Images[0].TelIndex)
	}

	ie.Images[0].TelID = 17
	if _, err := toEvent(ie, telIndex); err == nil {
		t.Errorf("unknown telescope ID: expected error")
	}
}

func TestIsRejection(t *testing.T) {
	for _, err := range []error{
		reco.ErrBadTrueEnergy,
		reco.ErrOffAxis,
		reco.ErrTrueImpactRange,
		reco.ErrImpactRange,
	} {
		if !isRejection(err) {
			t.Errorf("isRejection(%v) = false, want true", err)
		}
	}
	if isRejection(os.ErrNotExist) {
		t.Errorf("isRejection(ErrNotExist) = true, want false")
	}
}

func TestMigrateAction(t *testing.T) {
	db, err := lookupdb.NewDB(filepath.Join(t.TempDir(), "lookups.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	defer db.Close()
	migrations := "../../internal/lookupdb/migrations"

	for _, args := range [][]string{
		{"up"},
		{"version"},
		{"down"},
		{"force", "1"},
	} {
		if err := migrateAction(db, migrations, args); err != nil {
			t.Fatalf("migrateAction(%v): %v", args, err)
		}
	}

	for _, args := range [][]string{
		nil,
		{"sideways"},
		{"force"},
		{"force", "x"},
	} {
		if err := migrateAction(db, migrations, args); err == nil {
			t.Errorf("migrateAction(%v) accepted", args)
		}
	}
}
