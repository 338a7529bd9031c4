package reco

import (
	"math"
	"sync"
)

// TypeClassifier assigns physical telescopes to parameter type slots
// by scoring each configured slot's matching criteria against the
// camera settings. Assignments are cached per telescope ID since the
// criteria only change on reconfiguration.
type TypeClassifier struct {
	store *ParamStore

	mu    sync.Mutex
	cache map[int]int
}

// NewTypeClassifier returns a classifier backed by the given store.
func NewTypeClassifier(store *ParamStore) *TypeClassifier {
	return &TypeClassifier{
		store: store,
		cache: make(map[int]int),
	}
}

// Reconfigure drops all cached assignments; call it after changing
// any matching criteria in the store.
func (c *TypeClassifier) Reconfigure() {
	c.mu.Lock()
	c.cache = make(map[int]int)
	c.mu.Unlock()
}

// Classify returns the type slot best matching the given telescope,
// or 0 when no slot has any matching criteria configured.
func (c *TypeClassifier) Classify(cam CameraSettings) int {
	c.mu.Lock()
	if t, ok := c.cache[cam.TelID]; ok {
		c.mu.Unlock()
		return t
	}
	c.mu.Unlock()

	best, bestScore := 0, 0.0
	for t := 1; t <= MaxTelTypes; t++ {
		m := c.store.Match(t)
		if !m.Configured() {
			continue
		}
		score := matchScore(m, cam)
		if best == 0 || score > bestScore {
			best, bestScore = t, score
		}
	}

	c.mu.Lock()
	c.cache[cam.TelID] = best
	c.mu.Unlock()
	return best
}

// Census classifies every telescope in the array and returns how many
// landed in each type slot; index 0 counts telescopes no configured
// slot matched.
func (c *TypeClassifier) Census(tels []TelescopeRecord) [MaxTelTypes + 1]int {
	var census [MaxTelTypes + 1]int
	for i := range tels {
		census[c.Classify(tels[i].Cam)]++
	}
	return census
}

// matchScore rates how well a telescope fits one slot's criteria. An
// ID inside the configured range dominates with a fixed bonus; the
// continuous criteria each contribute up to 1, falling off with the
// log-ratio of configured to actual value.
func matchScore(m TypeMatch, cam CameraSettings) float64 {
	var score float64
	if m.MinTelID > 0 && m.MaxTelID > 0 &&
		cam.TelID >= m.MinTelID && cam.TelID <= m.MaxTelID {
		score += 10
	}
	if m.MirrorArea > 0 && cam.MirrorArea > 0 {
		score += logRatioScore(m.MirrorArea, cam.MirrorArea, 2.0)
	}
	if m.FocalLength > 0 && cam.FocalLength > 0 {
		score += logRatioScore(m.FocalLength, cam.FocalLength, 1.3)
	}
	if m.NumPixels > 0 && cam.NumPixels > 0 {
		score += logRatioScore(float64(m.NumPixels), float64(cam.NumPixels), 1.5)
	}
	return score
}

func logRatioScore(configured, actual, base float64) float64 {
	return 1.0 - math.Abs(math.Log(configured/actual))/math.Log(base)
}
