// Command showerana evaluates reconstructed air showers against the
// configured gamma-hadron cuts. It reads one JSON event per line,
// writes one JSON result per accepted input line and logs a selection
// summary when the stream ends.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/cta-observatory/showerrec/internal/config"
	"github.com/cta-observatory/showerrec/internal/lookupdb"
	"github.com/cta-observatory/showerrec/internal/reco"
	"github.com/cta-observatory/showerrec/internal/units"
)

// arrayFile describes the telescope array layout. Angles are given in
// degrees, positions in metres relative to the array centre.
type arrayFile struct {
	ObsHeight float64 `json:"obs_height_m"`
	NomAzDeg  float64 `json:"nominal_az_deg"`
	NomAltDeg float64 `json:"nominal_alt_deg"`
	SrcAzDeg  float64 `json:"source_az_deg"`
	SrcAltDeg float64 `json:"source_alt_deg"`

	Telescopes []telescopeDef `json:"telescopes"`
}

type telescopeDef struct {
	ID          int        `json:"id"`
	Pos         [3]float64 `json:"pos_m"`
	MirrorArea  float64    `json:"mirror_area_m2"`
	FocalLength float64    `json:"focal_length_m"`
	NumPixels   int        `json:"num_pixels"`
	RadiusDeg   float64    `json:"camera_radius_deg"`
}

// inputEvent is one line of the event stream. Directions are radians
// in the same frame as the array file's nominal direction.
type inputEvent struct {
	Run    int `json:"run"`
	Number int `json:"event"`

	True struct {
		PrimaryID int     `json:"primary_id"`
		Energy    float64 `json:"energy_tev"`
		Az        float64 `json:"az_rad"`
		Alt       float64 `json:"alt_rad"`
		CoreX     float64 `json:"core_x_m"`
		CoreY     float64 `json:"core_y_m"`
	} `json:"true"`

	Shower struct {
		DirectionKnown bool    `json:"direction_known"`
		CoreKnown      bool    `json:"core_known"`
		Az             float64 `json:"az_rad"`
		Alt            float64 `json:"alt_rad"`
		CoreX          float64 `json:"core_x_m"`
		CoreY          float64 `json:"core_y_m"`
		ErrDir1        float64 `json:"err_dir1_rad"`
		ErrDir2        float64 `json:"err_dir2_rad"`
		NumImg         int     `json:"num_img"`
	} `json:"shower"`

	Images []inputImage `json:"images"`
}

type inputImage struct {
	TelID     int     `json:"tel_id"`
	Known     bool    `json:"known"`
	Amplitude float64 `json:"amplitude_pe"`
	Width     float64 `json:"width_rad"`
	Length    float64 `json:"length_rad"`
	CogX      float64 `json:"cog_x_rad"`
	CogY      float64 `json:"cog_y_rad"`
	Phi       float64 `json:"phi_rad"`
	Pixels    int     `json:"pixels"`
	TelAz     float64 `json:"tel_az_rad"`
	TelAlt    float64 `json:"tel_alt_rad"`

	TimeSlope    float64 `json:"time_slope_ns_deg,omitempty"`
	TimeResidual float64 `json:"time_residual_ns,omitempty"`
}

// outputRecord is the per-event JSON result line.
type outputRecord struct {
	Run    int `json:"run"`
	Number int `json:"event"`

	NAmp   int `json:"n_amp"`
	NGeom  int `json:"n_geom"`
	NShape int `json:"n_shape"`

	MeanScaledWidth  float64 `json:"msw"`
	MeanScaledLength float64 `json:"msl"`
	Energy           float64 `json:"energy"`
	Resolution       float64 `json:"energy_resolution"`
	Xmax             float64 `json:"xmax_gcm2"`
	Theta            float64 `json:"theta"`
	Weight           float64 `json:"weight"`

	ShapeOK      bool `json:"shape_ok"`
	AngleOK      bool `json:"angle_ok"`
	EresOK       bool `json:"eres_ok"`
	DE2OK        bool `json:"de2_ok"`
	HmaxOK       bool `json:"hmax_ok"`
	Multiplicity bool `json:"multiplicity_ok"`
	Acceptance   int  `json:"acceptance"`
}

const degToRad = 0.017453292519943295

func main() {
	var (
		configPath    = flag.String("config", "", "tuning config JSON file (optional)")
		arrayPath     = flag.String("array", "", "telescope array JSON file (required)")
		eventsPath    = flag.String("events", "-", "event stream JSONL file, - for stdin")
		outPath       = flag.String("out", "-", "result JSONL file, - for stdout")
		lookupsPath   = flag.String("lookups", "", "lookup database path (default from config)")
		migrationsDir = flag.String("migrations", "internal/lookupdb/migrations", "lookup database migrations directory")
		angleUnits    = flag.String("angle-units", units.DEG, "angle units for theta output")
		energyUnits   = flag.String("energy-units", units.TEV, "energy units for output")
		verbose       = flag.Int("v", 0, "verbosity: 1 logs rejections, 2 logs every event")
	)
	flag.Parse()

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("loading tuning config: %v", err)
		}
		log.Printf("loaded tuning config from %s", *configPath)
	}

	path := *lookupsPath
	if path == "" {
		path = cfg.GetLookupPath()
	}

	// Maintenance mode: "showerana [flags] migrate <action>" manages
	// the lookup database schema and exits.
	if args := flag.Args(); len(args) > 0 {
		if args[0] != "migrate" {
			log.Fatalf("unknown command %q", args[0])
		}
		db, err := lookupdb.NewDB(path)
		if err != nil {
			log.Fatalf("opening lookup database: %v", err)
		}
		defer db.Close()
		if err := migrateAction(db, *migrationsDir, args[1:]); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	if *arrayPath == "" {
		log.Fatal("missing required -array flag")
	}
	if !units.IsValidAngle(*angleUnits) {
		log.Fatalf("invalid angle units %q, valid: %s", *angleUnits, units.GetValidAngleUnitsString())
	}
	if !units.IsValidEnergy(*energyUnits) {
		log.Fatalf("invalid energy units %q, valid: %s", *energyUnits, units.GetValidEnergyUnitsString())
	}

	sessionID := uuid.New().String()
	log.Printf("analysis session %s starting", sessionID)

	store := reco.NewParamStore()
	cfg.Apply(store)

	array, err := loadArray(*arrayPath, cfg)
	if err != nil {
		log.Fatalf("loading array: %v", err)
	}
	log.Printf("array: %d telescopes at %.0f m a.s.l.", len(array.Telescopes), array.ObsHeight)

	census := reco.NewTypeClassifier(store).Census(array.Telescopes)
	for tt, n := range census {
		if n == 0 {
			continue
		}
		if tt == 0 {
			log.Printf("telescope types: %d unmatched", n)
			continue
		}
		log.Printf("telescope types: %d of type %d", n, tt)
	}

	db, err := lookupdb.NewDB(path)
	if err != nil {
		log.Fatalf("opening lookup database: %v", err)
	}
	defer db.Close()
	if err := db.MigrateUp(*migrationsDir); err != nil {
		log.Fatalf("migrating lookup database: %v", err)
	}

	norms, err := db.LoadAllNormTables()
	if err != nil {
		log.Fatalf("loading lookup tables: %v", err)
	}
	log.Printf("loaded lookup tables for %d telescope types", len(norms))

	theta, err := db.LoadThetaCuts(store.Get(0), len(array.Telescopes))
	if err != nil {
		log.Fatalf("loading theta cuts: %v", err)
	}
	ebias, err := db.LoadEnergyBias()
	if err != nil {
		log.Fatalf("loading energy bias: %v", err)
	}
	if ebias != nil {
		log.Printf("energy bias correction loaded (%d points)", ebias.Len())
	}

	analyzer, err := reco.NewAnalyzer(store, reco.AnalyzerConfig{
		Array:      array,
		Norms:      norms,
		ThetaCuts:  theta,
		EbiasCurve: ebias,
		Verbose:    *verbose,
	})
	if err != nil {
		log.Fatalf("building analyzer: %v", err)
	}
	for _, l := range cfg.AltLists {
		analyzer.AddAltList(l.MinTel, l.TelIDs)
	}

	in := os.Stdin
	if *eventsPath != "-" {
		f, err := os.Open(*eventsPath)
		if err != nil {
			log.Fatalf("opening event stream: %v", err)
		}
		defer f.Close()
		in = f
	}
	out := os.Stdout
	if *outPath != "-" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("creating output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	if err := run(analyzer, array, in, out, *angleUnits, *energyUnits); err != nil {
		log.Fatalf("event stream failed: %v", err)
	}

	analyzer.Stats().LogSummary()
	log.Printf("analysis session %s done", sessionID)
}

// migrateAction dispatches one lookup-database maintenance action:
// "up" applies pending migrations, "down" rolls back the most recent
// one, "version" reports the schema version, and "force <version>"
// recovers from a dirty migration state.
func migrateAction(db *lookupdb.DB, migrationsDir string, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: migrate up|down|version|force <version>")
	}
	switch args[0] {
	case "up":
		if err := db.MigrateUp(migrationsDir); err != nil {
			return err
		}
	case "down":
		if err := db.MigrateDown(migrationsDir); err != nil {
			return err
		}
	case "version":
		// Falls through to the version report below.
	case "force":
		if len(args) < 2 {
			return errors.New("usage: migrate force <version>")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad version %q: %w", args[1], err)
		}
		if err := db.MigrateForce(migrationsDir, v); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown migrate action %q", args[0])
	}

	version, dirty, err := db.MigrateVersion(migrationsDir)
	if err != nil {
		return err
	}
	log.Printf("lookup database at version %d (dirty: %v)", version, dirty)
	return nil
}

// loadArray reads the array layout and merges the tuning config's
// viewing-mode settings into it.
func loadArray(path string, cfg *config.TuningConfig) (reco.ArrayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return reco.ArrayConfig{}, err
	}
	var af arrayFile
	if err := json.Unmarshal(data, &af); err != nil {
		return reco.ArrayConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(af.Telescopes) == 0 {
		return reco.ArrayConfig{}, fmt.Errorf("%s: no telescopes defined", path)
	}

	tels := make([]reco.TelescopeRecord, len(af.Telescopes))
	for i, td := range af.Telescopes {
		tels[i] = reco.TelescopeRecord{
			ID:    td.ID,
			Index: i,
			Pos:   td.Pos,
			Cam: reco.CameraSettings{
				TelID:       td.ID,
				MirrorArea:  td.MirrorArea,
				FocalLength: td.FocalLength,
				NumPixels:   td.NumPixels,
				Radius:      td.RadiusDeg * degToRad,
			},
		}
	}

	obsHeight := af.ObsHeight
	if obsHeight == 0 {
		obsHeight = cfg.GetObsHeight()
	}
	offAxis := cfg.GetOffAxisRangeDeg()

	return reco.ArrayConfig{
		Telescopes: tels,
		ObsHeight:  obsHeight,
		NomAz:      af.NomAzDeg * degToRad,
		NomAlt:     af.NomAltDeg * degToRad,
		SrcAz:      af.SrcAzDeg * degToRad,
		SrcAlt:     af.SrcAltDeg * degToRad,
		Diffuse:    cfg.GetDiffuse(),
		OffAxisMin: offAxis[0] * degToRad,
		OffAxisMax: offAxis[1] * degToRad,
	}, nil
}

// run streams events through the analyzer. Rejected events are
// counted in the analyzer's statistics and produce no output line;
// malformed input aborts the stream.
func run(analyzer *reco.Analyzer, array reco.ArrayConfig, in io.Reader, out io.Writer, angleUnits, energyUnits string) error {
	telIndex := make(map[int]int, len(array.Telescopes))
	for _, tel := range array.Telescopes {
		telIndex[tel.ID] = tel.Index
	}

	dec := json.NewDecoder(in)
	enc := json.NewEncoder(out)
	line := 0
	for {
		var ie inputEvent
		if err := dec.Decode(&ie); err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("event %d: %w", line+1, err)
		}
		line++

		ev, err := toEvent(&ie, telIndex)
		if err != nil {
			return fmt.Errorf("event %d: %w", line, err)
		}

		agg, err := analyzer.EvaluateEvent(ev)
		if err != nil {
			if isRejection(err) {
				continue
			}
			return fmt.Errorf("event %d: %w", line, err)
		}

		rec := outputRecord{
			Run:              agg.Run,
			Number:           agg.Number,
			NAmp:             agg.NAmp,
			NGeom:            agg.NGeom,
			NShape:           agg.NShape,
			MeanScaledWidth:  agg.MeanScaledWidth,
			MeanScaledLength: agg.MeanScaledLength,
			Energy:           units.ConvertEnergy(agg.Energy, energyUnits),
			Resolution:       agg.Resolution,
			Xmax:             agg.Xmax,
			Theta:            units.ConvertAngle(agg.Theta, angleUnits),
			Weight:           agg.Weight,
			ShapeOK:          agg.ShapeOK,
			AngleOK:          agg.AngleOK,
			EresOK:           agg.EresOK,
			DE2OK:            agg.DE2OK,
			HmaxOK:           agg.HmaxOK,
			Multiplicity:     agg.Multiplicity,
			Acceptance:       agg.Acceptance,
		}
		if err := enc.Encode(&rec); err != nil {
			return fmt.Errorf("writing result %d: %w", line, err)
		}
	}
}

// toEvent maps an input line onto the analyzer's event type,
// resolving telescope IDs to array indexes.
func toEvent(ie *inputEvent, telIndex map[int]int) (*reco.Event, error) {
	ev := &reco.Event{
		Run:    ie.Run,
		Number: ie.Number,
		True: reco.TrueShower{
			PrimaryID: ie.True.PrimaryID,
			Energy:    ie.True.Energy,
			Az:        ie.True.Az,
			Alt:       ie.True.Alt,
			CoreX:     ie.True.CoreX,
			CoreY:     ie.True.CoreY,
		},
		Shower: reco.ShowerEstimate{
			DirectionKnown: ie.Shower.DirectionKnown,
			CoreKnown:      ie.Shower.CoreKnown,
			Az:             ie.Shower.Az,
			Alt:            ie.Shower.Alt,
			CoreX:          ie.Shower.CoreX,
			CoreY:          ie.Shower.CoreY,
			ErrDir1:        ie.Shower.ErrDir1,
			ErrDir2:        ie.Shower.ErrDir2,
			NumImg:         ie.Shower.NumImg,
		},
	}
	for _, im := range ie.Images {
		idx, ok := telIndex[im.TelID]
		if !ok {
			return nil, fmt.Errorf("image references unknown telescope %d", im.TelID)
		}
		ev.Images = append(ev.Images, reco.ImageRecord{
			TelIndex:     idx,
			Known:        im.Known,
			Amplitude:    im.Amplitude,
			Width:        im.Width,
			Length:       im.Length,
			CogX:         im.CogX,
			CogY:         im.CogY,
			Phi:          im.Phi,
			Pixels:       im.Pixels,
			TelAz:        im.TelAz,
			TelAlt:       im.TelAlt,
			TimeSlope:    im.TimeSlope,
			TimeResidual: im.TimeResidual,
		})
	}
	return ev, nil
}

func isRejection(err error) bool {
	return errors.Is(err, reco.ErrBadTrueEnergy) ||
		errors.Is(err, reco.ErrOffAxis) ||
		errors.Is(err, reco.ErrTrueImpactRange) ||
		errors.Is(err, reco.ErrImpactRange)
}
