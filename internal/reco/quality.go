package reco

import "math"

// Grade classifies how an image may be used downstream.
type Grade int

const (
	// GradeUnusable images are ignored entirely.
	GradeUnusable Grade = iota
	// GradeGeometry images pass amplitude and pixel requirements and
	// enter the geometric reconstruction, but sit too close to the
	// camera edge for reliable shape parameters.
	GradeGeometry
	// GradeShape images additionally pass the edge containment cut
	// and feed shape, energy and shower-maximum estimates.
	GradeShape
)

// QualityFilter grades images against the per-type thresholds and
// edge containment policy.
type QualityFilter struct {
	store      *ParamStore
	classifier *TypeClassifier
}

// NewQualityFilter returns a filter backed by the given store and
// classifier.
func NewQualityFilter(store *ParamStore, classifier *TypeClassifier) *QualityFilter {
	return &QualityFilter{store: store, classifier: classifier}
}

// Grade rates one image. Unknown images and images below the
// amplitude or pixel minima are unusable; passing images are graded
// by the edge containment policy of the analysis style.
func (f *QualityFilter) Grade(img *ImageRecord, cam CameraSettings) Grade {
	telType := f.classifier.Classify(cam)
	p := f.store.Get(telType)

	if !img.Known || img.Amplitude < p.MinAmplitude || img.Pixels < p.MinPix {
		return GradeUnusable
	}
	if edgeContained(img, cam, p) {
		return GradeShape
	}
	return GradeGeometry
}

// edgeContained applies the containment cut. The fixed-threshold
// styles cut harder on the centroid alone; the scaled styles allow a
// larger radius but include the image extension along its major axis.
func edgeContained(img *ImageRecord, cam CameraSettings, p *Params) bool {
	r := cam.Radius
	if p.CameraClipDeg > 0 && p.CameraClipDeg < r {
		r = p.CameraClipDeg
	}
	if r <= 0 {
		return false
	}
	d := math.Hypot(img.CogX, img.CogY)
	if p.Style > StyleScaled {
		return d <= 0.764*r
	}
	return d+0.35*img.Length <= 0.82*r
}
