package edf

import (
	"github.com/BitFlaker/edf-go/pkg/edferrors"
	"github.com/BitFlaker/edf-go/pkg/edit"
	"github.com/BitFlaker/edf-go/pkg/record"
	"github.com/BitFlaker/edf-go/pkg/signal"
)

// InsertSignal stages a new signal header at index, shifting every
// subsequent signal back by one. It also patches every pending record held
// by a not-yet-saved Insert/Update/Append instruction so the in-memory
// pending state stays consistent with the staged signal layout.
func (f *File) InsertSignal(index int, sig signal.Header) error {
	instruction := edit.Instruction{Kind: edit.KindInsert, Index: index, Value: sig}

	signals := f.Header.ModifySignals()
	if index < 0 || index > len(*signals) {
		return edferrors.ErrIndexOutOfBounds
	}
	*signals = append(*signals, signal.Header{})
	copy((*signals)[index+1:], (*signals)[index:])
	(*signals)[index] = sig

	if err := f.patchRecordsWithInstruction(instruction); err != nil {
		return err
	}

	f.signalCounter++
	f.signalInstructions = append(f.signalInstructions, instruction)
	return nil
}

// UpdateSignal replaces the signal header at index.
func (f *File) UpdateSignal(index int, sig signal.Header) error {
	instruction := edit.Instruction{Kind: edit.KindUpdate, Index: index, Value: sig}

	signals := f.Header.ModifySignals()
	if index < 0 || index >= len(*signals) {
		return edferrors.ErrIndexOutOfBounds
	}
	(*signals)[index] = sig

	if err := f.patchRecordsWithInstruction(instruction); err != nil {
		return err
	}

	f.signalInstructions = append(f.signalInstructions, instruction)
	return nil
}

// RemoveSignal stages removal of the signal header at index.
func (f *File) RemoveSignal(index int) error {
	if f.signalCounter <= index {
		return edferrors.ErrIndexOutOfBounds
	}
	instruction := edit.Instruction{Kind: edit.KindRemove, Index: index}

	signals := f.Header.ModifySignals()
	*signals = append((*signals)[:index], (*signals)[index+1:]...)

	if err := f.patchRecordsWithInstruction(instruction); err != nil {
		return err
	}

	f.signalCounter--
	f.signalInstructions = append(f.signalInstructions, instruction)
	return nil
}

// patchRecordsWithInstruction applies one signal-header edit to every
// record carried by a pending Append/Insert/Update record instruction, so
// records staged before a signal change stay shaped correctly.
func (f *File) patchRecordsWithInstruction(instruction edit.Instruction) error {
	single := []edit.Instruction{instruction}
	for i := range f.instructions {
		tr := &f.instructions[i]
		if tr.Kind != edit.KindAppend && tr.Kind != edit.KindInsert && tr.Kind != edit.KindUpdate {
			continue
		}
		rec, ok := tr.Value.(*record.Record)
		if !ok {
			continue
		}
		if err := rec.PatchRecord(single); err != nil {
			return err
		}
	}
	return nil
}

// InsertRecord stages insertion of rec at index.
func (f *File) InsertRecord(index int, rec *record.Record) error {
	if !rec.MatchesSignals(f.Header.CurrentSignals()) {
		return edferrors.ErrInvalidRecordSignals
	}
	f.recordCounter++
	f.instructions = append(f.instructions, edit.Instruction{Kind: edit.KindInsert, Index: index, Value: rec})
	return nil
}

// UpdateRecord stages replacement of the record at index with rec.
func (f *File) UpdateRecord(index int, rec *record.Record) error {
	if !rec.MatchesSignals(f.Header.CurrentSignals()) {
		return edferrors.ErrInvalidRecordSignals
	}
	f.instructions = append(f.instructions, edit.Instruction{Kind: edit.KindUpdate, Index: index, Value: rec})
	return nil
}

// AppendRecord stages rec to be appended after the last existing record.
func (f *File) AppendRecord(rec *record.Record) error {
	if !rec.MatchesSignals(f.Header.CurrentSignals()) {
		return edferrors.ErrInvalidRecordSignals
	}
	f.recordCounter++
	f.instructions = append(f.instructions, edit.Instruction{Kind: edit.KindAppend, Value: rec})
	return nil
}

// RemoveRecord stages removal of the record at index. The removal always
// leaves a timestamp gap behind; the RecordDeleteStrategy the file was
// opened/created with decides only whether Save marks an EDF+C file as
// EDF+D. Neither strategy shifts the onsets of the following records; see
// options.RecordDeleteStrategy.
func (f *File) RemoveRecord(index int) error {
	if f.recordCounter <= index {
		return edferrors.ErrIndexOutOfBounds
	}
	f.recordCounter--
	f.instructions = append(f.instructions, edit.Instruction{Kind: edit.KindRemove, Index: index})
	return nil
}

// recordsMatchSignals reports whether every record carried by a pending
// Append/Insert/Update instruction still matches the file's current signal
// layout.
func (f *File) recordsMatchSignals() bool {
	signals := f.Header.CurrentSignals()
	for _, tr := range f.instructions {
		if tr.Kind != edit.KindAppend && tr.Kind != edit.KindInsert && tr.Kind != edit.KindUpdate {
			continue
		}
		rec, ok := tr.Value.(*record.Record)
		if !ok {
			continue
		}
		if !rec.MatchesSignals(signals) {
			return false
		}
	}
	return true
}
