package gif89

// decState is the decoder's current node in the FSM described in spec.md
// §4.3. Go has no tagged-union language feature, so each state's payload
// (the Rust source's State enum carries data per-variant) is spread across
// the handful of scratch fields below it in Decoder, reused as whichever
// state is active needs them.
type decState int

const (
	stMagic decState = iota
	stU16
	stU16Byte1
	stByte
	stGlobalPalette
	stBlockStart
	stBlockEnd
	stExtensionBlock
	stSkipBlock
	stLocalPalette
	stLzwInit
	stDecodeSubBlock
	stCopySubBlock
	stFrameDecoded
	stTrailer
)

type u16Value int

const (
	u16ScreenWidth u16Value = iota
	u16ScreenHeight
	u16Delay
	u16ImageLeft
	u16ImageTop
	u16ImageWidth
	u16ImageHeight
)

type byteValue int

const (
	byteGlobalFlags byteValue = iota
	byteBackground
	byteAspectRatio
	byteControlFlags
	byteImageFlags
	byteTransparentIdx
	byteCodeSize
)

// extensionScratch accumulates the raw bytes of the extension currently
// being read, for introspection via LastExtension.
type extensionScratch struct {
	id         AnyExtension
	data       []byte
	isBlockEnd bool
}

// EventKind tags the payload carried by a Decoded value, one variant per
// entry in spec.md §4.3's DecodedEvent list.
type EventKind int

const (
	EventNothing EventKind = iota
	EventGlobalPalette
	EventBackgroundColor
	EventBlockStart
	EventSubBlockFinished
	EventBlockFinished
	EventFrameMetadata
	EventBytesDecoded
	EventLzwDataCopied
	EventDataEnd
	EventTrailer
)

// FrameDataKind says whether FrameMetadata's frame carries decompressed
// pixels (the usual case) or still-compressed LZW bytes (SkipFrameDecoding).
type FrameDataKind int

const (
	FrameDataPixels FrameDataKind = iota
	FrameDataLZW
)

// Decoded is one event produced by a call to Decoder.Update. Only the
// fields relevant to Kind are populated. Data borrows the decoder's own
// scratch buffer and is only valid until the next Update call; Palette is
// handed over to the caller, and the decoder keeps no reference to it.
type Decoded struct {
	Kind EventKind

	Palette         []byte // EventGlobalPalette
	BackgroundIndex byte   // EventBackgroundColor
	Block           Block  // EventBlockStart

	ExtensionID AnyExtension // EventSubBlockFinished, EventBlockFinished
	Data        []byte       // EventSubBlockFinished, EventBlockFinished

	Frame               *Frame        // EventFrameMetadata
	FrameKind           FrameDataKind // EventFrameMetadata
	FrameLzwMinCodeSize byte          // EventFrameMetadata, when FrameKind == FrameDataLZW

	N int // EventBytesDecoded, EventLzwDataCopied
}

// Decoder is a byte-driven GIF state machine. The zero value is not usable;
// construct one with NewDecoder. Update must be called repeatedly with
// however much input is on hand; see spec.md §4.3 for the full state list
// and §5 for the suspension model.
type Decoder struct {
	opts  DecoderOptions
	state decState

	// Magic
	magicBuf [6]byte
	magicIdx int

	// U16 / U16Byte1
	u16Target u16Value
	u16Lo     byte

	// Byte
	byteTarget  byteValue
	globalFlags byte

	// GlobalPalette / SkipBlock / LocalPalette / DecodeSubBlock / CopySubBlock
	remaining int

	// BlockStart / BlockEnd
	blockTag           byte
	blockEndTerminator byte

	// ExtensionBlock
	extID AnyExtension

	// LzwInit
	lzwMinCodeSize byte

	lzwReader lzwReader

	version          Version
	width, height    uint16
	globalColorTable []byte
	backgroundColor  [4]byte

	ext extensionScratch

	current *Frame
}

// NewDecoder constructs a Decoder ready to receive bytes starting from the
// header.
func NewDecoder(opts DecoderOptions) *Decoder {
	return &Decoder{
		opts:            opts,
		state:           stMagic,
		backgroundColor: [4]byte{0, 0, 0, 0xFF},
		ext:             extensionScratch{data: make([]byte, 0, 256)},
		lzwReader:       lzwReader{checkForEndCode: opts.CheckForEndCode},
	}
}

func (d *Decoder) Width() uint16        { return d.width }
func (d *Decoder) Height() uint16       { return d.height }
func (d *Decoder) Version() Version     { return d.version }
func (d *Decoder) CurrentFrame() *Frame { return d.current }

// LastExtension returns the label, accumulated scratch bytes, and
// block-end status of the most recently read extension.
func (d *Decoder) LastExtension() (AnyExtension, []byte, bool) {
	return d.ext.id, d.ext.data, d.ext.isBlockEnd
}

func (d *Decoder) addFrame() {
	if d.current == nil {
		d.current = newFrame()
	}
}

// currentFrame panics if called outside the state-transition sequence that
// guarantees a frame exists; that sequence is entirely internal to Update,
// so reaching a nil here would be this package's bug, not caller error.
func (d *Decoder) currentFrame() *Frame {
	if d.current == nil {
		panic("gif89: internal error: no current frame")
	}
	return d.current
}

// Update advances the decoder with however much of buf it can consume
// before producing one event, and reports how many bytes it used. Call it
// again with the unconsumed tail (plus whatever new bytes have arrived) to
// continue. An empty buf returns (0, Decoded{Kind: EventNothing}, nil).
func (d *Decoder) Update(buf []byte, sink OutputSink) (int, Decoded, error) {
	total := 0
	for len(buf) > 0 {
		n, ev, err := d.nextState(buf, sink)
		if err != nil {
			return total, Decoded{}, err
		}
		buf = buf[n:]
		total += n
		if ev.Kind != EventNothing {
			return total, ev, nil
		}
	}
	return total, Decoded{Kind: EventNothing}, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// outOfBounds reports whether a frame dimension placed at offset within a
// screen of size screen overruns the screen, matching the Option-ordering
// comparison in the reference decoder (None, from an underflowing
// subtraction, compares as always out of bounds).
func outOfBounds(screen, size, offset uint16) bool {
	if screen < size {
		return true
	}
	return screen-size < offset
}

// copyInto writes p to sink in "copy mode" (CopySubBlock), returning bytes
// consumed from p and bytes actually delivered to the sink. A slice sink
// may consume less than len(p) once its capacity is exhausted; a discard
// sink consumes everything but delivers nothing; an append sink consumes
// and delivers all of p.
func copyInto(sink OutputSink, p []byte) (consumed, copied int) {
	switch sink.(type) {
	case *sliceSink, *appendSink:
		n := sink.write(p)
		return n, n
	default:
		return len(p), 0
	}
}

// nextState runs exactly one FSM transition, grounded state-for-state on
// original_source/src/reader/decoder.rs's next_state.
func (d *Decoder) nextState(buf []byte, sink OutputSink) (int, Decoded, error) {
	b := buf[0]

	switch d.state {
	case stMagic:
		if d.magicIdx < 6 {
			d.magicBuf[d.magicIdx] = b
			d.magicIdx++
			return 1, Decoded{}, nil
		}
		if string(d.magicBuf[:3]) != "GIF" {
			return 0, Decoded{}, formatErrorf("malformed GIF header")
		}
		switch string(d.magicBuf[3:6]) {
		case "87a":
			d.version = V87a
		case "89a":
			d.version = V89a
		default:
			return 0, Decoded{}, formatErrorf("unsupported GIF version")
		}
		d.u16Target = u16ScreenWidth
		d.u16Lo = b
		d.state = stU16Byte1
		return 1, Decoded{}, nil

	case stU16:
		d.u16Lo = b
		d.state = stU16Byte1
		return 1, Decoded{}, nil

	case stU16Byte1:
		value := uint16(b)<<8 | uint16(d.u16Lo)
		switch d.u16Target {
		case u16ScreenWidth:
			d.width = value
			d.u16Target = u16ScreenHeight
			d.state = stU16
			return 1, Decoded{}, nil
		case u16ScreenHeight:
			d.height = value
			d.byteTarget = byteGlobalFlags
			d.state = stByte
			return 1, Decoded{}, nil
		case u16Delay:
			d.currentFrame().Delay = value
			d.ext.data = append(d.ext.data, d.u16Lo, b)
			d.byteTarget = byteTransparentIdx
			d.state = stByte
			return 1, Decoded{}, nil
		case u16ImageLeft:
			d.currentFrame().Left = value
			d.u16Target = u16ImageTop
			d.state = stU16
			return 1, Decoded{}, nil
		case u16ImageTop:
			d.currentFrame().Top = value
			d.u16Target = u16ImageWidth
			d.state = stU16
			return 1, Decoded{}, nil
		case u16ImageWidth:
			d.currentFrame().Width = value
			d.u16Target = u16ImageHeight
			d.state = stU16
			return 1, Decoded{}, nil
		case u16ImageHeight:
			d.currentFrame().Height = value
			d.byteTarget = byteImageFlags
			d.state = stByte
			return 1, Decoded{}, nil
		}
		panic("gif89: internal error: unreachable u16 target")

	case stByte:
		switch d.byteTarget {
		case byteGlobalFlags:
			d.globalFlags = b
			d.byteTarget = byteBackground
			return 1, Decoded{}, nil
		case byteBackground:
			d.byteTarget = byteAspectRatio
			return 1, Decoded{Kind: EventBackgroundColor, BackgroundIndex: b}, nil
		case byteAspectRatio:
			tableSize := 0
			if d.globalFlags&0x80 != 0 {
				tableSize = plteChannels * tableSizeForFlag(d.globalFlags)
				d.globalColorTable = make([]byte, 0, tableSize)
			}
			d.remaining = tableSize
			d.state = stGlobalPalette
			return 1, Decoded{}, nil
		case byteControlFlags:
			d.ext.data = append(d.ext.data, b)
			frame := d.currentFrame()
			if b&0x01 != 0 {
				idx := uint8(0)
				frame.Transparent = &idx
			}
			frame.NeedsUserInput = b&0x02 != 0
			frame.Dispose = disposalFromByte((b & 0b11100) >> 2)
			d.u16Target = u16Delay
			d.state = stU16
			return 1, Decoded{}, nil
		case byteTransparentIdx:
			d.ext.data = append(d.ext.data, b)
			if frame := d.currentFrame(); frame.Transparent != nil {
				*frame.Transparent = b
			}
			d.remaining = 0
			d.state = stSkipBlock
			return 1, Decoded{}, nil
		case byteImageFlags:
			localTable := b&0x80 != 0
			interlaced := b&0x40 != 0
			tableSizeField := b & 0x07

			frame := d.currentFrame()
			frame.Interlaced = interlaced
			if d.opts.CheckFrameConsistency {
				if outOfBounds(d.width, frame.Width, frame.Left) || outOfBounds(d.height, frame.Height, frame.Top) {
					return 0, Decoded{}, formatErrorf("frame descriptor is out-of-bounds")
				}
			}
			if localTable {
				entries := plteChannels * tableSizeForFlag(tableSizeField)
				frame.Palette = make([]byte, 0, entries)
				d.remaining = entries
				d.state = stLocalPalette
			} else {
				d.byteTarget = byteCodeSize
				d.state = stByte
			}
			return 1, Decoded{}, nil
		case byteCodeSize:
			d.lzwMinCodeSize = b
			d.state = stLzwInit
			return 1, Decoded{}, nil
		}
		panic("gif89: internal error: unreachable byte target")

	case stGlobalPalette:
		left := d.remaining
		n := minInt(left, len(buf))
		if left > 0 {
			d.globalColorTable = append(d.globalColorTable, buf[:n]...)
			d.remaining = left - n
			return n, Decoded{}, nil
		}
		idx := int(d.backgroundColor[0])
		if idx*plteChannels+plteChannels <= len(d.globalColorTable) {
			copy(d.backgroundColor[:plteChannels], d.globalColorTable[idx*plteChannels:])
		} else {
			d.backgroundColor[0] = 0
		}
		table := d.globalColorTable
		d.globalColorTable = nil
		d.blockTag = b
		d.state = stBlockStart
		return 1, Decoded{Kind: EventGlobalPalette, Palette: table}, nil

	case stBlockStart:
		blk, ok := blockFromByte(d.blockTag)
		if !ok {
			if d.opts.AllowUnknownBlocks {
				d.ext.id = 0
				d.ext.data = d.ext.data[:0]
				d.remaining = int(b)
				d.state = stSkipBlock
				return 1, Decoded{}, nil
			}
			return 0, Decoded{}, formatErrorf("unknown block type encountered")
		}
		switch blk {
		case BlockImage:
			d.addFrame()
			d.u16Target = u16ImageLeft
			d.u16Lo = b
			d.state = stU16Byte1
			return 1, Decoded{Kind: EventBlockStart, Block: BlockImage}, nil
		case BlockExtension:
			d.extID = AnyExtension(b)
			d.state = stExtensionBlock
			return 1, Decoded{Kind: EventBlockStart, Block: BlockExtension}, nil
		default: // BlockTrailer
			d.state = stTrailer
			return 0, Decoded{Kind: EventBlockStart, Block: BlockTrailer}, nil
		}

	case stBlockEnd:
		if d.blockEndTerminator != 0 {
			return 0, Decoded{}, formatErrorf("expected block terminator not found")
		}
		d.blockTag = b
		d.state = stBlockStart
		if Block(b) == BlockTrailer {
			// The trailer is not a real block and has no further data to
			// read, so it must not be consumed here.
			return 0, Decoded{}, nil
		}
		return 1, Decoded{}, nil

	case stExtensionBlock:
		d.ext.id = d.extID
		d.ext.data = d.ext.data[:0]
		d.ext.data = append(d.ext.data, b)
		ext, ok := extensionFromByte(byte(d.extID))
		if !ok {
			return 0, Decoded{}, formatErrorf("unknown extension block encountered")
		}
		if ext == ExtensionControl {
			d.addFrame()
			d.ext.data = append(d.ext.data, b)
			if b != 4 {
				return 0, Decoded{}, formatErrorf("control extension has wrong length")
			}
			d.byteTarget = byteControlFlags
			d.state = stByte
			return 1, Decoded{}, nil
		}
		d.remaining = int(b)
		d.state = stSkipBlock
		return 1, Decoded{}, nil

	case stSkipBlock:
		left := d.remaining
		n := minInt(left, len(buf))
		if left > 0 {
			d.ext.data = append(d.ext.data, buf[:n]...)
			d.remaining = left - n
			return n, Decoded{}, nil
		}
		if b == 0 {
			d.ext.isBlockEnd = true
			d.blockEndTerminator = b
			d.state = stBlockEnd
			return 1, Decoded{Kind: EventBlockFinished, ExtensionID: d.ext.id, Data: d.ext.data}, nil
		}
		d.ext.isBlockEnd = false
		ev := Decoded{Kind: EventSubBlockFinished, ExtensionID: d.ext.id, Data: d.ext.data}
		d.remaining = int(b)
		return 1, ev, nil

	case stLocalPalette:
		left := d.remaining
		n := minInt(left, len(buf))
		if left > 0 {
			frame := d.currentFrame()
			if cap(frame.Palette)-len(frame.Palette) >= n {
				frame.Palette = append(frame.Palette, buf[:n]...)
			}
			d.remaining = left - n
			return n, Decoded{}, nil
		}
		d.lzwMinCodeSize = b
		d.state = stLzwInit
		return 1, Decoded{}, nil

	case stLzwInit:
		if !d.opts.SkipFrameDecoding {
			if err := d.lzwReader.reset(d.lzwMinCodeSize); err != nil {
				return 0, Decoded{}, err
			}
			d.remaining = int(b)
			d.state = stDecodeSubBlock
			return 1, Decoded{Kind: EventFrameMetadata, Frame: d.currentFrame(), FrameKind: FrameDataPixels}, nil
		}
		d.remaining = int(b)
		d.state = stCopySubBlock
		return 1, Decoded{
			Kind:                EventFrameMetadata,
			Frame:               d.currentFrame(),
			FrameKind:           FrameDataLZW,
			FrameLzwMinCodeSize: d.lzwMinCodeSize,
		}, nil

	case stDecodeSubBlock:
		left := d.remaining
		if left > 0 {
			n := minInt(left, len(buf))
			if d.lzwReader.hasEnded() || isDiscard(sink) {
				d.remaining = 0
				return n, Decoded{Kind: EventBytesDecoded, N: 0}, nil
			}
			consumedIn, consumedOut, err := d.lzwReader.decodeBytes(buf[:n], sink)
			if err != nil {
				return 0, Decoded{}, err
			}
			if consumedIn == 0 && consumedOut == 0 {
				// No progress; skip the sub-block rather than stall. With
				// CheckForEndCode this condition is instead reported by
				// decodeBytes as an error before reaching here.
				consumedIn = n
			}
			d.remaining = left - consumedIn
			return consumedIn, Decoded{Kind: EventBytesDecoded, N: consumedOut}, nil
		}
		if b != 0 {
			d.remaining = int(b)
			return 1, Decoded{}, nil
		}
		_, consumedOut, err := d.lzwReader.decodeBytes(nil, sink)
		if err != nil {
			return 0, Decoded{}, err
		}
		if consumedOut > 0 {
			d.remaining = 0
			return 0, Decoded{Kind: EventBytesDecoded, N: consumedOut}, nil
		}
		d.state = stFrameDecoded
		return 0, Decoded{}, nil

	case stCopySubBlock:
		left := d.remaining
		if left > 0 {
			n := minInt(left, len(buf))
			consumed, copied := copyInto(sink, buf[:n])
			d.remaining = left - consumed
			return consumed, Decoded{Kind: EventLzwDataCopied, N: copied}, nil
		}
		if b != 0 {
			d.remaining = int(b)
			return 1, Decoded{}, nil
		}
		d.state = stFrameDecoded
		return 0, Decoded{}, nil

	case stFrameDecoded:
		d.current = nil
		d.blockEndTerminator = b
		d.state = stBlockEnd
		return 1, Decoded{Kind: EventDataEnd}, nil

	case stTrailer:
		return 0, Decoded{Kind: EventTrailer}, nil
	}

	panic("gif89: internal error: unreachable decoder state")
}
