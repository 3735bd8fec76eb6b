// Package edit implements the pending-edit instruction log and the
// normalizer that collapses it into a minimal, sorted, conflict-free
// sequence before a save commits it to disk.
package edit

import "sort"

// Value is the payload carried by an Insert/Update/Append instruction: one
// of a record or a signal header, depending on which log it belongs to.
// Kept as `any` so this package stays independent of pkg/record and
// pkg/signal; callers type-assert to their concrete payload type.
type Value any

// Kind identifies the operation an Instruction performs.
type Kind int

const (
	KindWriteHeader Kind = iota
	KindUpdate
	KindInsert
	KindAppend
	KindRemove
	KindPatch
)

// Instruction is one pending edit: an index-addressed mutation of a record
// or signal sequence.
type Instruction struct {
	Kind  Kind
	Index int
	Value Value
}

// sortIndex returns the sort key used by Normalize: WriteHeader sorts first,
// Remove/Insert/Update sort by their target index, everything else
// (Append, Patch — convenience forms not meant to survive normalization)
// sorts last.
func (i Instruction) sortIndex() int {
	switch i.Kind {
	case KindWriteHeader:
		return 0
	case KindRemove, KindInsert, KindUpdate:
		return i.Index
	default:
		return int(^uint(0) >> 1) // max int
	}
}

// priority breaks ties at equal index: Remove before Insert before Update.
func (i Instruction) priority() int {
	switch i.Kind {
	case KindWriteHeader:
		return 0
	case KindRemove:
		return 1
	case KindInsert:
		return 2
	case KindUpdate:
		return 3
	default:
		return int(^uint(0) >> 1)
	}
}

// Normalize collapses instructions into a minimal, sorted list:
//   - Append is translated into Insert at the position it would land at
//     given initialCount and the inserts/removes already processed.
//   - An Insert/Update whose index is at or after a later Insert's index
//     shifts forward by one; Remove only shifts indices strictly greater
//     than it.
//   - Insert(i, v) immediately cancelled by Remove(i) disappears entirely;
//     Update(i, v) followed by Remove(i) drops the Update and keeps the
//     Remove.
//   - Insert(i, v) followed by Update(i, v') collapses to Insert(i, v');
//     Update(i, v) followed by Update(i, v') collapses to Update(i, v').
//   - Finally, a Remove(i) immediately followed (after sorting) by an
//     Insert(i, v) at the same index merges into Update(i, v).
func Normalize(instructions []Instruction, initialCount int) []Instruction {
	var normalized []Instruction
	itemCounter := initialCount

	for _, tr := range instructions {
		instr := tr
		if tr.Kind == KindAppend {
			instr = Instruction{Kind: KindInsert, Index: itemCounter, Value: tr.Value}
		}

		addInstruction := true

		switch instr.Kind {
		case KindInsert:
			currentIdx := instr.Index
			for i := len(normalized) - 1; i >= 0; i-- {
				cur := &normalized[i]
				switch cur.Kind {
				case KindInsert, KindUpdate:
					if cur.Index >= currentIdx {
						cur.Index++
					}
				case KindRemove:
					if cur.Index > currentIdx {
						cur.Index++
					}
				}
			}
			itemCounter++

		case KindUpdate:
			currentIdx := instr.Index
			replaced := false
			for i, cur := range normalized {
				if cur.Kind == KindInsert && cur.Index == currentIdx {
					normalized = append(normalized[:i], normalized[i+1:]...)
					instr = Instruction{Kind: KindInsert, Index: currentIdx, Value: instr.Value}
					replaced = true
					break
				}
			}
			if !replaced {
				for i, cur := range normalized {
					if cur.Kind == KindUpdate && cur.Index == currentIdx {
						normalized = append(normalized[:i], normalized[i+1:]...)
						break
					}
				}
			}

		case KindRemove:
			currentIdx := instr.Index
			idxEliminate := -1
			for i := len(normalized) - 1; i >= 0; i-- {
				cur := &normalized[i]
				switch cur.Kind {
				case KindInsert, KindUpdate, KindRemove:
					if cur.Index > currentIdx {
						cur.Index--
						continue
					}
				}
				if cur.Kind == KindInsert && cur.Index == currentIdx && idxEliminate == -1 {
					idxEliminate = i
					addInstruction = false
				} else if cur.Kind == KindUpdate && cur.Index == currentIdx && idxEliminate == -1 {
					idxEliminate = i
				}
			}
			if idxEliminate >= 0 {
				normalized = append(normalized[:idxEliminate], normalized[idxEliminate+1:]...)
			}
			itemCounter--

		case KindWriteHeader:
			// no-op, always kept

		default:
			addInstruction = false
		}

		if addInstruction {
			normalized = append(normalized, instr)
		}
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		a, b := normalized[i], normalized[j]
		ai, bi := a.sortIndex(), b.sortIndex()
		if ai != bi {
			return ai < bi
		}
		return a.priority() < b.priority()
	})

	return mergeToUpdates(normalized)
}

// mergeToUpdates fuses an adjacent Remove(i) followed by Insert(i, v) into
// a single Update(i, v).
func mergeToUpdates(instructions []Instruction) []Instruction {
	out := make([]Instruction, 0, len(instructions))
	for i := 0; i < len(instructions); i++ {
		curr := instructions[i]
		if curr.Kind == KindRemove && i+1 < len(instructions) {
			next := instructions[i+1]
			if next.Kind == KindInsert && next.Index == curr.Index {
				out = append(out, Instruction{Kind: KindUpdate, Index: curr.Index, Value: next.Value})
				i++
				continue
			}
		}
		out = append(out, curr)
	}
	return out
}
