package gif89

import (
	"bytes"
	"errors"
	"testing"
)

// decodeResult mirrors what a real caller would assemble out of Update's
// event stream: the global palette (if any) and one *Frame per image block,
// each with Pixels fully populated.
type decodeResult struct {
	globalPalette []byte
	frames        []*Frame
}

// runDecoder drives a Decoder to the trailer, feeding data in chunks of
// chunkSize bytes (0 meaning "everything in one call"). It owns the sink
// plumbing a real caller would otherwise have to write by hand.
func runDecoder(t *testing.T, data []byte, opts DecoderOptions, chunkSize int) (decodeResult, error) {
	t.Helper()
	d := NewDecoder(opts)

	var res decodeResult
	var sink OutputSink = Discard
	var curFrame *Frame

	pos := 0
	for {
		end := len(data)
		if chunkSize > 0 && pos+chunkSize < end {
			end = pos + chunkSize
		}
		buf := data[pos:end]

		n, ev, err := d.Update(buf, sink)
		if err != nil {
			return res, err
		}
		pos += n

		switch ev.Kind {
		case EventNothing:
			if len(buf) == 0 {
				return res, errors.New("decoder stalled: ran out of input before reaching the trailer")
			}
		case EventGlobalPalette:
			res.globalPalette = append([]byte(nil), ev.Palette...)
		case EventFrameMetadata:
			curFrame = ev.Frame
			if ev.FrameKind == FrameDataPixels {
				curFrame.Pixels = make([]byte, int(curFrame.Width)*int(curFrame.Height))
				sink = NewSliceSink(curFrame.Pixels)
			} else {
				sink = Discard
			}
		case EventDataEnd:
			res.frames = append(res.frames, curFrame)
			curFrame = nil
			sink = Discard
		case EventTrailer:
			return res, nil
		}
	}
}

// buildMinimalGIF returns the canonical byte-for-byte encoding of a single
// opaque 1x1 frame over a two-color global palette (black, white), pixel
// index 0. Grounded on the well-known minimal valid GIF used as a smoke
// test across the ecosystem; SPEC_FULL.md §8's literal byte listing elides
// the LZW terminator, so this builds the corrected, internally consistent
// sequence instead of transcribing that listing verbatim (see DESIGN.md).
func buildMinimalGIF() []byte {
	return []byte{
		'G', 'I', 'F', '8', '9', 'a',
		0x01, 0x00, // width
		0x01, 0x00, // height
		0xF0,       // flags: global table, 2 entries
		0x00,       // background index
		0x00,       // aspect ratio
		0, 0, 0, 0xFF, 0xFF, 0xFF, // global palette
		0x21, 0xF9, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, // control ext
		0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, // image descriptor
		0x00,             // local flags
		0x02,             // min code size
		0x02, 0x44, 0x01, // lzw sub-block
		0x00, // terminator
		0x3B, // trailer
	}
}

func TestDecodeMinimalGIF(t *testing.T) {
	data := buildMinimalGIF()
	res, err := runDecoder(t, data, DecoderOptions{CheckForEndCode: true}, 0)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := []byte{0, 0, 0, 0xFF, 0xFF, 0xFF}
	if !bytes.Equal(res.globalPalette, want) {
		t.Errorf("global palette = %v, want %v", res.globalPalette, want)
	}
	if len(res.frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(res.frames))
	}
	f := res.frames[0]
	if f.Width != 1 || f.Height != 1 {
		t.Errorf("frame size = %dx%d, want 1x1", f.Width, f.Height)
	}
	if !bytes.Equal(f.Pixels, []byte{0}) {
		t.Errorf("pixels = %v, want [0]", f.Pixels)
	}
}

func TestDecodeChunkedMatchesWholeBuffer(t *testing.T) {
	data := buildMinimalGIF()
	whole, err := runDecoder(t, data, DecoderOptions{}, 0)
	if err != nil {
		t.Fatalf("whole-buffer decode: %v", err)
	}
	chunked, err := runDecoder(t, data, DecoderOptions{}, 1)
	if err != nil {
		t.Fatalf("one-byte-at-a-time decode: %v", err)
	}
	if !bytes.Equal(whole.globalPalette, chunked.globalPalette) {
		t.Errorf("palette differs between chunked and whole-buffer decode")
	}
	if len(whole.frames) != len(chunked.frames) {
		t.Fatalf("frame count differs: %d vs %d", len(whole.frames), len(chunked.frames))
	}
	for i := range whole.frames {
		if !bytes.Equal(whole.frames[i].Pixels, chunked.frames[i].Pixels) {
			t.Errorf("frame %d pixels differ between chunked and whole-buffer decode", i)
		}
	}
}

func TestDecodeBadMagic(t *testing.T) {
	data := buildMinimalGIF()
	data[0] = 'X'
	_, err := runDecoder(t, data, DecoderOptions{}, 0)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("got %v, want a *FormatError", err)
	}
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	data := buildMinimalGIF()
	copy(data[3:6], "88a")
	_, err := runDecoder(t, data, DecoderOptions{}, 0)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("got %v, want a *FormatError", err)
	}
}

func TestDecodeTruncatedControlExtension(t *testing.T) {
	data := buildMinimalGIF()
	// Control extension's declared length (byte 21) must be 4.
	controlLenIdx := bytes.Index(data, []byte{0x21, 0xF9})
	data[controlLenIdx+2] = 3
	_, err := runDecoder(t, data, DecoderOptions{}, 0)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("got %v, want a *FormatError", err)
	}
}

func TestDecodeMissingEndCodeEscalatesWhenRequested(t *testing.T) {
	data := buildMinimalGIF()
	// Drop the eof code's high bit contribution by truncating the LZW
	// payload to a single byte, then point the sub-block length and
	// terminator at the shortened stream.
	lzwIdx := bytes.Index(data, []byte{0x02, 0x44, 0x01})
	truncated := append([]byte{}, data[:lzwIdx]...)
	truncated = append(truncated, 0x01, 0x44, 0x00, 0x3B)

	_, err := runDecoder(t, truncated, DecoderOptions{CheckForEndCode: true}, 0)
	var ioe *IOError
	if !errors.As(err, &ioe) {
		t.Fatalf("got %v, want an *IOError", err)
	}
	if !errors.Is(err, errMissingEndCode) {
		t.Errorf("got %v, want errMissingEndCode", err)
	}
}

func TestDecodeTrailerRepeatsWithoutConsumingInput(t *testing.T) {
	// Once the trailer state is reached, repeated Update calls on the same
	// trailing byte must keep reporting EventTrailer without consuming it.
	d := NewDecoder(DecoderOptions{})
	d.state = stTrailer
	buf := []byte{0x3B}
	for i := 0; i < 3; i++ {
		n, ev, err := d.Update(buf, Discard)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if n != 0 {
			t.Errorf("iteration %d: consumed %d bytes, want 0", i, n)
		}
		if ev.Kind != EventTrailer {
			t.Errorf("iteration %d: event = %v, want EventTrailer", i, ev.Kind)
		}
	}
}
