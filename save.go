package edf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/BitFlaker/edf-go/pkg/edferrors"
	"github.com/BitFlaker/edf-go/pkg/edit"
	"github.com/BitFlaker/edf-go/pkg/header"
	"github.com/BitFlaker/edf-go/pkg/record"
	"github.com/BitFlaker/edf-go/pkg/signal"
)

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// firstRecordIndex returns the Index of the first Insert/Update/Remove
// instruction in instructions, or 0 if there is none.
func firstRecordIndex(instructions []edit.Instruction) int64 {
	for _, tr := range instructions {
		if tr.Kind == edit.KindInsert || tr.Kind == edit.KindUpdate || tr.Kind == edit.KindRemove {
			return int64(tr.Index)
		}
	}
	return 0
}

// nextRecordIndexFrom returns the Index of the first Insert/Update/Remove
// instruction at or after from, or 0 if there is none.
func nextRecordIndexFrom(instructions []edit.Instruction, from int) int64 {
	for _, tr := range instructions[from:] {
		if tr.Kind == edit.KindInsert || tr.Kind == edit.KindUpdate || tr.Kind == edit.KindRemove {
			return int64(tr.Index)
		}
	}
	return 0
}

func removeIndices(instructions []edit.Instruction, indices []int) []edit.Instruction {
	remove := make(map[int]bool, len(indices))
	for _, i := range indices {
		remove[i] = true
	}
	out := make([]edit.Instruction, 0, len(instructions))
	for i, tr := range instructions {
		if !remove[i] {
			out = append(out, tr)
		}
	}
	return out
}

// Save commits every pending signal/record edit to disk in a single
// streaming pass over the file in place: it starts at the first affected
// record (or at the first record when the header size or the signal layout
// changes) and carries an overflow buffer (overwriteCounter/overwriteBuffer)
// across each record it touches to absorb the header/record size changes a
// growing or shrinking record or signal layout can cause.
func (f *File) Save() error {
	info, err := f.handle.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
	}
	initialFilesize := info.Size()
	initialSignalCount := len(f.Header.Signals)
	initialRecordCount := 0
	if f.Header.RecordCount != nil {
		initialRecordCount = *f.Header.RecordCount
	}
	initialSignals := append([]signal.Header(nil), f.Header.Signals...)
	initialRecordDuration := f.Header.RecordDuration
	initialHeaderSize := int64(f.Header.HeaderBytes)
	initialRecordBytes := int64(f.Header.InitialRecordBytes())

	// Update every header value to match the new, post-edit state.
	if f.saveMode == SaveModeDefault {
		rc := f.recordCounter
		f.Header.RecordCount = &rc
	} else {
		f.Header.RecordCount = nil
	}

	f.Header.CommitUpdatedSignals()
	f.signalCounter = len(f.Header.Signals)

	// If there are no signals left, every record is 0 bytes long; reflect
	// that in the record count rather than leaving a stale nonzero value.
	if f.signalCounter == 0 && f.Header.RecordCount != nil {
		zero := 0
		f.Header.RecordCount = &zero
	}

	f.Header.HeaderBytes = f.Header.CalculateHeaderBytes()
	newRecordBytes := int64(f.Header.DataRecordBytes())
	headerSizeDiff := int64(f.Header.HeaderBytes) - initialHeaderSize

	currentSHA256, err := f.Header.SHA256()
	if err != nil {
		return err
	}
	headerChanged := f.Header.InitialHeaderSHA256() != currentSHA256

	// Ensure WriteHeader appears at most once, and first if present.
	var headerPositions []int
	for i, tr := range f.instructions {
		if tr.Kind == edit.KindWriteHeader {
			headerPositions = append(headerPositions, i)
		}
	}
	switch {
	case len(headerPositions) >= 1 && headerPositions[0] != 0:
		f.instructions = removeIndices(f.instructions, headerPositions)
		f.instructions = append([]edit.Instruction{{Kind: edit.KindWriteHeader}}, f.instructions...)
	case len(headerPositions) >= 1:
		f.instructions = removeIndices(f.instructions, headerPositions[1:])
	case len(headerPositions) == 0 && headerChanged:
		f.instructions = append([]edit.Instruction{{Kind: edit.KindWriteHeader}}, f.instructions...)
	}

	initialReadPosition, err := f.handle.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
	}
	var initialRecordPosition *int64
	if initialRecordBytes != 0 {
		if diff := initialReadPosition - initialHeaderSize; diff >= 0 {
			pos := diff % initialRecordBytes
			initialRecordPosition = &pos
		}
	}

	if len(f.instructions) == 0 && len(f.signalInstructions) == 0 {
		return nil
	}

	normalizedInstructions := edit.Normalize(f.instructions, initialRecordCount)
	normalizedSignalInstructions := edit.Normalize(f.signalInstructions, initialSignalCount)

	if !f.recordsMatchSignals() {
		return edferrors.ErrInvalidRecordSignals
	}

	if len(normalizedInstructions) == 0 && len(normalizedSignalInstructions) == 0 {
		f.instructions = nil
		return nil
	}

	removesMiddleRecord := false
	for _, tr := range normalizedInstructions {
		if tr.Kind == edit.KindRemove && tr.Index > 0 && tr.Index < f.recordCounter-1 {
			removesMiddleRecord = true
			break
		}
	}
	if f.Header.Specification == header.EDFPlus && f.Header.IsContinuous && removesMiddleRecord &&
		f.recordDeleteStrategy == RecordDeleteDiscontinuous {
		f.Header.IsContinuous = false
	}

	patchTrailingRecords := len(normalizedSignalInstructions) > 0
	overwriteCounter := headerSizeDiff
	var overwriteBuffer []byte
	recordCounter := firstRecordIndex(normalizedInstructions)
	if patchTrailingRecords {
		recordCounter = 0
	}
	instructionIdx := 0

	filePos := initialHeaderSize + recordCounter*initialRecordBytes

saveLoop:
	for {
		var instr edit.Instruction
		switch {
		case instructionIdx < len(normalizedInstructions):
			instr = normalizedInstructions[instructionIdx]
		case patchTrailingRecords:
			instr = edit.Instruction{Kind: edit.KindPatch}
		default:
			break saveLoop
		}

		switch {
		case instr.Kind == edit.KindWriteHeader:
			instructionIdx++
			filePos = 0

			if overwriteCounter > 0 {
				readMax := maxInt64(0, initialFilesize-initialHeaderSize)
				readLength := minInt64(overwriteCounter, readMax)
				if readLength > 0 {
					buf := make([]byte, readLength)
					if _, err := f.handle.ReadAt(buf, initialHeaderSize); err != nil {
						return fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
					}
					overwriteBuffer = append(overwriteBuffer, buf...)
				}
			}

			serializedHeader, err := f.Header.Serialize()
			if err != nil {
				return err
			}
			if _, err := f.handle.WriteAt([]byte(serializedHeader), 0); err != nil {
				return fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
			}
			filePos = int64(len(serializedHeader))

			if overwriteCounter != 0 {
				recordCounter = 0
			} else if !patchTrailingRecords {
				filePos = initialHeaderSize + recordCounter*initialRecordBytes
			}

		case instr.Kind == edit.KindRemove && int64(instr.Index) == recordCounter:
			instructionIdx++
			drain := minInt64(initialRecordBytes, int64(len(overwriteBuffer)))
			overwriteBuffer = overwriteBuffer[drain:]
			overwriteCounter -= initialRecordBytes

		case instr.Kind == edit.KindInsert && int64(instr.Index) == recordCounter:
			instructionIdx++
			recordCounter++

			rec, ok := instr.Value.(*record.Record)
			if !ok {
				return edferrors.ErrInvalidRecordSignals
			}

			readOffset := int64(0)
			if overwriteCounter < 0 {
				readOffset = -overwriteCounter
			}
			currentFilePos := filePos + readOffset
			readMax := maxInt64(0, initialFilesize-currentFilePos)

			if newBufferLength := overwriteCounter + newRecordBytes; newBufferLength > 0 {
				readLength := minInt64(newBufferLength-int64(len(overwriteBuffer)), readMax)
				if readLength > 0 {
					buf := make([]byte, readLength)
					if _, err := f.handle.ReadAt(buf, currentFilePos); err != nil && err != io.EOF {
						return fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
					}
					overwriteBuffer = append(overwriteBuffer, buf...)
				}
			}

			serialized, err := rec.Serialize(f.Header.CurrentSignals())
			if err != nil {
				return err
			}
			if _, err := f.handle.WriteAt(serialized, filePos); err != nil {
				return fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
			}
			filePos += int64(len(serialized))
			overwriteCounter += minInt64(newRecordBytes, readMax)

		case instr.Kind == edit.KindUpdate && int64(instr.Index) == recordCounter:
			instructionIdx++
			recordCounter++

			rec, ok := instr.Value.(*record.Record)
			if !ok {
				return edferrors.ErrInvalidRecordSignals
			}

			bufferReadCount := minInt64(initialRecordBytes, int64(len(overwriteBuffer)))
			overwriteBuffer = overwriteBuffer[bufferReadCount:]
			diskReadCount := maxInt64(0, initialRecordBytes-bufferReadCount)

			readOffset := int64(0)
			if overwriteCounter < 0 {
				readOffset = -overwriteCounter
			}
			bufferedOffset := maxInt64(0, overwriteCounter)
			currentFilePos := filePos + readOffset

			readMax := maxInt64(0, initialFilesize-currentFilePos)
			targetReadLength := overwriteCounter + newRecordBytes - bufferedOffset
			readLength := maxInt64(0, minInt64(targetReadLength, readMax)-diskReadCount)
			if readLength > 0 {
				buf := make([]byte, readLength)
				if _, err := f.handle.ReadAt(buf, currentFilePos+diskReadCount); err != nil && err != io.EOF {
					return fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
				}
				overwriteBuffer = append(overwriteBuffer, buf...)
			}

			exceed := int64(0)
			if maxInt64(targetReadLength, 0) > readMax {
				exceed = maxInt64(targetReadLength, 0) - readMax
			}
			overwriteCounter += newRecordBytes - diskReadCount - bufferReadCount - exceed

			serialized, err := rec.Serialize(f.Header.CurrentSignals())
			if err != nil {
				return err
			}
			if _, err := f.handle.WriteAt(serialized, filePos); err != nil {
				return fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
			}
			filePos += int64(len(serialized))

		default: // Patch, or an instruction whose index is further out than recordCounter.
			if recordCounter == int64(f.recordCounter) {
				break saveLoop
			}

			if overwriteCounter == 0 && !patchTrailingRecords {
				recordCounter = nextRecordIndexFrom(normalizedInstructions, instructionIdx)
				filePos = initialHeaderSize + recordCounter*initialRecordBytes
				continue saveLoop
			}

			readOffset := int64(0)
			if overwriteCounter < 0 {
				readOffset = -overwriteCounter
			}
			bufferedOffset := maxInt64(0, overwriteCounter)

			bufferReadCount := minInt64(initialRecordBytes, int64(len(overwriteBuffer)))
			bufferRead := append([]byte(nil), overwriteBuffer[:bufferReadCount]...)
			overwriteBuffer = overwriteBuffer[bufferReadCount:]
			diskReadCount := initialRecordBytes - bufferReadCount

			currentFilePos := filePos + readOffset
			if diskReadCount > 0 {
				buf := make([]byte, diskReadCount)
				if _, err := f.handle.ReadAt(buf, currentFilePos); err != nil && err != io.EOF {
					return fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
				}
				bufferRead = append(bufferRead, buf...)
			}

			readMax := maxInt64(0, initialFilesize-currentFilePos)
			targetReadLength := overwriteCounter + newRecordBytes - bufferedOffset
			readLength := maxInt64(0, minInt64(targetReadLength, readMax)-diskReadCount)
			if readLength > 0 {
				buf := make([]byte, readLength)
				if _, err := f.handle.ReadAt(buf, currentFilePos+diskReadCount); err != nil && err != io.EOF {
					return fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
				}
				overwriteBuffer = append(overwriteBuffer, buf...)
			}

			exceed := int64(0)
			if maxInt64(targetReadLength, 0) > readMax {
				exceed = maxInt64(targetReadLength, 0) - readMax
			}
			overwriteCounter += newRecordBytes - diskReadCount - bufferReadCount - exceed

			if len(normalizedSignalInstructions) > 0 {
				rec, err := readRecordData(bytes.NewReader(bufferRead), 0, initialSignals, initialRecordDuration)
				if err != nil {
					return err
				}
				if err := rec.PatchRecord(normalizedSignalInstructions); err != nil {
					return err
				}
				bufferRead, err = rec.Serialize(f.Header.CurrentSignals())
				if err != nil {
					return err
				}
			}

			if _, err := f.handle.WriteAt(bufferRead, filePos); err != nil {
				return fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
			}
			filePos += int64(len(bufferRead))
			recordCounter++
		}
	}

	if overwriteCounter != 0 {
		if overwriteCounter > 0 {
			if _, err := f.handle.WriteAt(overwriteBuffer, filePos); err != nil {
				return fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
			}
			filePos += int64(len(overwriteBuffer))
			overwriteBuffer = nil
		} else {
			reducedByLength := -overwriteCounter
			padding := make([]byte, reducedByLength)
			if _, err := f.handle.WriteAt(padding, filePos); err != nil {
				return fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
			}
			if err := f.handle.Truncate(filePos); err != nil {
				return fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
			}
		}
	}

	f.instructions = nil
	f.signalInstructions = nil
	newInfo, err := f.handle.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
	}
	newFileSize := newInfo.Size()

	f.Header.UpdateInitialRecordBytes()
	if err := f.Header.UpdateInitialHeaderSHA256(); err != nil {
		return err
	}

	var seekPos int64
	if initialRecordPosition != nil {
		seekPos = int64(f.Header.HeaderBytes) + *initialRecordPosition*newRecordBytes
		seekPos = minInt64(seekPos, newFileSize)
	}
	if _, err := f.handle.Seek(seekPos, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
	}

	return nil
}
