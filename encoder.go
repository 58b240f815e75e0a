package gif89

import "io"

// Encoder writes a conforming GIF89a byte stream to an underlying
// io.Writer: header and logical screen descriptor at construction, then
// one WriteFrame call per frame, finishing with Close or CloseBestEffort.
//
// Grounded on GIFEncoder.go for the write ordering (header, LSD, global
// palette, per-frame control extension then image descriptor then pixels)
// and on encoder.rs for the exact byte layout of each piece; the
// color-quantization machinery GIFEncoder.go carries (NeuQuant, dithering)
// has no place here since Frame always arrives pre-indexed (SPEC_FULL.md §4.4).
type Encoder struct {
	w         io.Writer
	width     uint16
	height    uint16
	hasGlobal bool
}

// NewEncoder writes the header and logical screen descriptor and returns an
// Encoder ready to accept frames. globalPalette may be nil, meaning no
// global color table: every frame written afterwards must then carry its
// own local palette.
func NewEncoder(w io.Writer, width, height uint16, globalPalette []byte) (*Encoder, error) {
	e := &Encoder{w: w, width: width, height: height}

	if err := e.writeBytes([]byte("GIF89a")); err != nil {
		return nil, ioError(err)
	}

	// Bits 4-6 (color resolution) are fixed at the maximum value,
	// matching GIFEncoder.go's writeLSD rather than the non-contiguous
	// "wtf flag" duplicate-of-size formula some reference encoders use.
	flags := byte(0x70)
	if globalPalette != nil {
		e.hasGlobal = true
		numColors := len(globalPalette) / plteChannels
		if numColors > 256 {
			return nil, formatErrorf("too many colors in global palette")
		}
		flags |= 0x80 | flagSize(numColors)
	}

	if err := e.writeUint16(width); err != nil {
		return nil, ioError(err)
	}
	if err := e.writeUint16(height); err != nil {
		return nil, ioError(err)
	}
	if err := e.writeByte(flags); err != nil {
		return nil, ioError(err)
	}
	if err := e.writeByte(0); err != nil { // background color index
		return nil, ioError(err)
	}
	if err := e.writeByte(0); err != nil { // pixel aspect ratio
		return nil, ioError(err)
	}
	if e.hasGlobal {
		if err := e.writeColorTable(globalPalette); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// WriteFrame writes a graphics-control extension (unconditionally, even
// when delay and transparency are both zero, per spec.md §9's resolved
// Open Question) followed by the image descriptor, optional local palette,
// and LZW-compressed pixel data.
func (e *Encoder) WriteFrame(frame *Frame) error {
	ctrl := newControlExtension(frame.Delay, frame.Dispose, frame.NeedsUserInput, frame.Transparent)
	if err := e.WriteExtension(ExtensionData{Control: &ctrl}); err != nil {
		return err
	}

	if err := e.writeByte(byte(BlockImage)); err != nil {
		return ioError(err)
	}
	if err := e.writeUint16(frame.Left); err != nil {
		return ioError(err)
	}
	if err := e.writeUint16(frame.Top); err != nil {
		return ioError(err)
	}
	if err := e.writeUint16(frame.Width); err != nil {
		return ioError(err)
	}
	if err := e.writeUint16(frame.Height); err != nil {
		return ioError(err)
	}

	flags := byte(0)
	if frame.Interlaced {
		flags |= 0x40
	}
	if frame.Palette != nil {
		numColors := len(frame.Palette) / plteChannels
		if numColors > 256 {
			return formatErrorf("too many colors in local palette")
		}
		flags |= 0x80 | flagSize(numColors)
		if err := e.writeByte(flags); err != nil {
			return ioError(err)
		}
		if err := e.writeColorTable(frame.Palette); err != nil {
			return err
		}
	} else {
		if !e.hasGlobal {
			return formatErrorf("frame has no local palette and the encoder has no global palette")
		}
		if err := e.writeByte(flags); err != nil {
			return ioError(err)
		}
	}

	return e.writeImageBlock(frame.Pixels)
}

// writeImageBlock writes the min-code-size byte, the LZW-compressed,
// sub-block-framed pixel data, and the trailing zero-length terminator.
func (e *Encoder) writeImageBlock(data []byte) error {
	maxIndex := 0
	for _, p := range data {
		if int(p) > maxIndex {
			maxIndex = int(p)
		}
	}
	minCodeSize := flagSize(maxIndex+1) + 1
	if minCodeSize == 1 {
		minCodeSize = 2
	}
	if err := e.writeByte(minCodeSize); err != nil {
		return ioError(err)
	}
	enc := newLZWEncoder(minCodeSize)
	if err := enc.encodeAll(e.w, data); err != nil {
		return ioError(err)
	}
	return e.writeByte(0)
}

// WriteExtension writes a standalone extension block. Repetitions with a
// finite count of zero is a deliberate no-op: "play once" has no wire
// representation distinct from omitting the extension entirely.
func (e *Encoder) WriteExtension(ext ExtensionData) error {
	if ext.Repetitions != nil && !ext.Repetitions.Infinite && ext.Repetitions.N == 0 {
		return nil
	}

	if err := e.writeByte(byte(BlockExtension)); err != nil {
		return ioError(err)
	}

	switch {
	case ext.Control != nil || ext.Repetitions == nil:
		var c ControlExtension
		if ext.Control != nil {
			c = *ext.Control
		}
		if err := e.writeByte(byte(ExtensionControl)); err != nil {
			return ioError(err)
		}
		if err := e.writeByte(4); err != nil {
			return ioError(err)
		}
		if err := e.writeByte(c.Flags); err != nil {
			return ioError(err)
		}
		if err := e.writeUint16(c.Delay); err != nil {
			return ioError(err)
		}
		if err := e.writeByte(c.Transparent); err != nil {
			return ioError(err)
		}
	case ext.Repetitions != nil:
		if err := e.writeByte(byte(ExtensionApplication)); err != nil {
			return ioError(err)
		}
		if err := e.writeByte(11); err != nil {
			return ioError(err)
		}
		if err := e.writeBytes([]byte("NETSCAPE2.0")); err != nil {
			return ioError(err)
		}
		if err := e.writeByte(3); err != nil {
			return ioError(err)
		}
		if err := e.writeByte(1); err != nil {
			return ioError(err)
		}
		n := uint16(0)
		if !ext.Repetitions.Infinite {
			n = ext.Repetitions.N
		}
		if err := e.writeUint16(n); err != nil {
			return ioError(err)
		}
	}

	return e.writeByte(0)
}

// WriteRawExtension writes an extension this package does not otherwise
// model: id is the extension label byte, and each entry of data is split
// into <=255-byte sub-blocks as needed.
func (e *Encoder) WriteRawExtension(id byte, data [][]byte) error {
	if err := e.writeByte(byte(BlockExtension)); err != nil {
		return ioError(err)
	}
	if err := e.writeByte(id); err != nil {
		return ioError(err)
	}
	for _, block := range data {
		for len(block) > 0 {
			n := minInt(len(block), 255)
			if err := e.writeByte(byte(n)); err != nil {
				return ioError(err)
			}
			if err := e.writeBytes(block[:n]); err != nil {
				return ioError(err)
			}
			block = block[n:]
		}
	}
	return e.writeByte(0)
}

// Close writes the trailer byte and propagates any write error.
func (e *Encoder) Close() error {
	return ioError(e.writeByte(byte(BlockTrailer)))
}

// CloseBestEffort writes the trailer byte and swallows any error, for
// teardown paths that must not fail (spec.md §7's "release must not fail"
// policy).
func (e *Encoder) CloseBestEffort() {
	_ = e.writeByte(byte(BlockTrailer))
}

func (e *Encoder) writeColorTable(table []byte) error {
	numColors := len(table) / plteChannels
	if numColors > 256 {
		return formatErrorf("too many colors in palette")
	}
	if err := e.writeBytes(table[:numColors*plteChannels]); err != nil {
		return ioError(err)
	}
	pad := tableSizeForFlag(flagSize(numColors)) - numColors
	var zero [plteChannels]byte
	for i := 0; i < pad; i++ {
		if err := e.writeBytes(zero[:]); err != nil {
			return ioError(err)
		}
	}
	return nil
}

func (e *Encoder) writeByte(b byte) error {
	_, err := e.w.Write([]byte{b})
	return err
}

func (e *Encoder) writeUint16(v uint16) error {
	_, err := e.w.Write([]byte{byte(v), byte(v >> 8)})
	return err
}

func (e *Encoder) writeBytes(p []byte) error {
	_, err := e.w.Write(p)
	return err
}
