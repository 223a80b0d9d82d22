package frame

import "spt"

// secondChance is the enhanced second-chance (three-pass clock-style)
// eviction policy, matching get_victim_frame:
//
//   - pass one opportunistically flushes dirty non-CODE (FILE/MMAP)
//     frames as it scans past them, clearing their dirty bit without
//     evicting them, and returns the first unpinned frame whose
//     accessed bit is clear (a CODE frame never takes the flush
//     branch, so an unaccessed CODE frame is returned here directly);
//   - pass two clears accessed bits along the way and settles for the
//     first unpinned frame with both bits clear;
//   - pass three gives up and returns the first unpinned frame
//     outright.
type secondChance struct{}

// NewSecondChance returns the three-pass eviction policy.
func NewSecondChance() EvictionPolicy_i {
	return secondChance{}
}

func (secondChance) PickVictim(entries []*Entry_t) (*Entry_t, error) {
	for _, e := range entries {
		if e.Spte.Pinned {
			continue
		}
		pd := e.Owner.PageDir()
		if e.Spte.Type != spt.CODE && pd.IsDirty(e.Spte.Upage) {
			if err := writeBack(e.Spte); err != nil {
				return nil, err
			}
			pd.SetDirty(e.Spte.Upage, false)
			continue
		}
		if !pd.IsAccessed(e.Spte.Upage) {
			return e, nil
		}
	}

	for _, e := range entries {
		if e.Spte.Pinned {
			continue
		}
		pd := e.Owner.PageDir()
		dirty := pd.IsDirty(e.Spte.Upage)
		accessed := pd.IsAccessed(e.Spte.Upage)
		if !dirty && !accessed {
			return e, nil
		}
		pd.SetAccessed(e.Spte.Upage, false)
	}

	for _, e := range entries {
		if !e.Spte.Pinned {
			return e, nil
		}
	}

	return nil, ErrAllPinned
}
