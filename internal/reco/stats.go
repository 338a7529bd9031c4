package reco

import (
	"log"
	"sync"
)

// SelectionStats tracks per-run event selection counters. All methods
// are safe for concurrent use so that several analyzers can share one
// instance through Merge-free direct counting.
type SelectionStats struct {
	mu sync.Mutex

	seen      uint64
	rejected  uint64
	evaluated uint64

	multiplicityOK uint64
	altSelected    uint64
	shapeOK        uint64
	angleOK        uint64

	byAcceptance [6]uint64

	weightSeen     float64
	weightAccepted float64 // acceptance level 2 or better
}

// SelectionSnapshot is a point-in-time copy of the counters.
type SelectionSnapshot struct {
	Seen      uint64
	Rejected  uint64
	Evaluated uint64

	MultiplicityOK uint64
	AltSelected    uint64
	ShapeOK        uint64
	AngleOK        uint64

	ByAcceptance [6]uint64

	WeightSeen     float64
	WeightAccepted float64
}

// NewSelectionStats returns zeroed counters.
func NewSelectionStats() *SelectionStats {
	return &SelectionStats{}
}

func (s *SelectionStats) countSeen() {
	s.mu.Lock()
	s.seen++
	s.mu.Unlock()
}

func (s *SelectionStats) countRejected() {
	s.mu.Lock()
	s.rejected++
	s.mu.Unlock()
}

func (s *SelectionStats) record(agg *EventAggregate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluated++
	s.weightSeen += agg.Weight
	if agg.Multiplicity {
		s.multiplicityOK++
	}
	if agg.AltSelected {
		s.altSelected++
	}
	if agg.ShapeOK {
		s.shapeOK++
	}
	if agg.AngleOK {
		s.angleOK++
	}
	if agg.Acceptance >= 0 && agg.Acceptance < len(s.byAcceptance) {
		s.byAcceptance[agg.Acceptance]++
	}
	if agg.Acceptance >= 2 {
		s.weightAccepted += agg.Weight
	}
}

// Snapshot returns a copy of the counters without resetting them.
func (s *SelectionStats) Snapshot() SelectionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SelectionSnapshot{
		Seen:           s.seen,
		Rejected:       s.rejected,
		Evaluated:      s.evaluated,
		MultiplicityOK: s.multiplicityOK,
		AltSelected:    s.altSelected,
		ShapeOK:        s.shapeOK,
		AngleOK:        s.angleOK,
		ByAcceptance:   s.byAcceptance,
		WeightSeen:     s.weightSeen,
		WeightAccepted: s.weightAccepted,
	}
}

// GetAndReset returns the counters and zeroes them, for periodic
// reporting during long runs.
func (s *SelectionStats) GetAndReset() SelectionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := SelectionSnapshot{
		Seen:           s.seen,
		Rejected:       s.rejected,
		Evaluated:      s.evaluated,
		MultiplicityOK: s.multiplicityOK,
		AltSelected:    s.altSelected,
		ShapeOK:        s.shapeOK,
		AngleOK:        s.angleOK,
		ByAcceptance:   s.byAcceptance,
		WeightSeen:     s.weightSeen,
		WeightAccepted: s.weightAccepted,
	}
	s.seen = 0
	s.rejected = 0
	s.evaluated = 0
	s.multiplicityOK = 0
	s.altSelected = 0
	s.shapeOK = 0
	s.angleOK = 0
	s.byAcceptance = [6]uint64{}
	s.weightSeen = 0
	s.weightAccepted = 0
	return snap
}

// LogSummary writes the end-of-run selection summary to the standard
// logger.
func (s *SelectionStats) LogSummary() {
	snap := s.Snapshot()
	log.Printf("events: %d seen, %d rejected, %d evaluated",
		snap.Seen, snap.Rejected, snap.Evaluated)
	log.Printf("selection: %d multiplicity ok (%d via alternate lists), %d shape ok, %d angle ok",
		snap.MultiplicityOK, snap.AltSelected, snap.ShapeOK, snap.AngleOK)
	log.Printf("acceptance levels: 0:%d 1:%d 2:%d 3:%d 4:%d 5:%d",
		snap.ByAcceptance[0], snap.ByAcceptance[1], snap.ByAcceptance[2],
		snap.ByAcceptance[3], snap.ByAcceptance[4], snap.ByAcceptance[5])
	if snap.WeightSeen > 0 {
		log.Printf("weighted acceptance fraction: %.4f", snap.WeightAccepted/snap.WeightSeen)
	}
}
