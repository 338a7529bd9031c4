package reco

// SelectedTel identifies one telescope whose image passed the shape
// selection.
type SelectedTel struct {
	TelID   int
	TelType int
}

// altList is one explicit telescope subset with its own multiplicity
// requirement.
type altList struct {
	minTel int
	telIDs map[int]bool
}

// AltSelector rescues events below the global image multiplicity:
// first through explicit telescope lists, then through per-type
// relaxed minima configured in the store.
type AltSelector struct {
	store *ParamStore
	lists []altList
}

// NewAltSelector returns a selector backed by the given store.
func NewAltSelector(store *ParamStore) *AltSelector {
	return &AltSelector{store: store}
}

// AddList registers an explicit telescope subset. Lists with no
// telescopes or a non-positive requirement are ignored.
func (s *AltSelector) AddList(minTel int, telIDs []int) {
	if minTel <= 0 || len(telIDs) == 0 {
		return
	}
	ids := make(map[int]bool, len(telIDs))
	for _, id := range telIDs {
		ids[id] = true
	}
	s.lists = append(s.lists, altList{minTel: minTel, telIDs: ids})
}

// Satisfied reports whether an event with the given selected
// telescopes passes any alternate criterion. It only applies to
// events with at least one selected image below the global minimum;
// anything else is decided by the regular multiplicity requirement.
func (s *AltSelector) Satisfied(tels []SelectedTel) bool {
	n := len(tels)
	if n == 0 || n >= s.store.Get(0).MinTelImg {
		return false
	}

	for _, l := range s.lists {
		if n < l.minTel {
			continue
		}
		k := 0
		for _, t := range tels {
			if l.telIDs[t.TelID] {
				k++
			}
		}
		if k >= l.minTel {
			return true
		}
	}

	// Per-type relaxed minima: a type may accept fewer images than
	// the array as a whole.
	globalMin := s.store.Get(0).MinTelImg
	tryByType := false
	for t := 1; t <= MaxTelTypes; t++ {
		if s.store.Get(t).MinTelImg < globalMin {
			tryByType = true
			break
		}
	}
	if !tryByType {
		return false
	}
	var count [MaxTelTypes + 1]int
	for _, t := range tels {
		if t.TelType >= 1 && t.TelType <= MaxTelTypes {
			count[t.TelType]++
		}
	}
	for t := 1; t <= MaxTelTypes; t++ {
		if s.store.Get(t).MinTelImg < globalMin && count[t] >= s.store.Get(t).MinTelImg {
			return true
		}
	}
	return false
}
