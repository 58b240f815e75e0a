package gif89

// lzwDecoder reverses the compression in lzw_encode.go. It is driven
// incrementally: decodeBytes accepts whatever compressed bytes are
// available and an output sink, and reports how many input bytes it
// consumed and how many decoded bytes it produced. It never blocks and
// never reads past the slice it is given.
//
// The table-walk is the classic prefix/suffix/stack technique (as found in
// most C GIF decoders derived from the original Un*x "compress" and
// GIFCOMPR.C lineage that LZWEncoder.go itself descends from), chosen over
// a map[int][]byte string table to avoid an allocation per new code.
type lzwDecoder struct {
	minCodeSize byte

	codeSize  uint
	clearCode int
	eofCode   int
	nextCode  int
	oldCode   int // -1 means "no previous code" (just cleared or reset)

	prefix [lzwTableSize]int32
	suffix [lzwTableSize]byte
	stack  [lzwTableSize]byte

	bitBuf   uint32
	bitCount uint
	ended    bool

	outBuf     []byte
	pending    []byte
	pendingOff int
}

func newLZWDecoder(minCodeSize byte) *lzwDecoder {
	d := &lzwDecoder{minCodeSize: minCodeSize}
	d.reset()
	return d
}

// reset reinitializes the decoder fully, including bit-stream state. Used
// when a new frame starts.
func (d *lzwDecoder) reset() {
	d.resetTable()
	d.bitBuf = 0
	d.bitCount = 0
	d.ended = false
	d.pending = d.pending[:0]
	d.pendingOff = 0
}

// resetTable clears the code table without touching bit-stream state, for
// a clear code encountered mid-stream.
func (d *lzwDecoder) resetTable() {
	d.codeSize = uint(d.minCodeSize) + 1
	d.clearCode = 1 << d.minCodeSize
	d.eofCode = d.clearCode + 1
	d.nextCode = d.clearCode + 2
	d.oldCode = -1
}

func (d *lzwDecoder) hasEnded() bool { return d.ended }

// decodeOneCode expands a single non-special code into its string,
// extending the table, and returns the string in forward byte order. The
// returned slice aliases d.outBuf and is only valid until the next call.
func (d *lzwDecoder) decodeOneCode(code int) ([]byte, error) {
	if d.oldCode < 0 {
		// First code after a clear must be a root literal.
		if code >= d.clearCode {
			return nil, formatErrorf("invalid code in LZW stream")
		}
		d.oldCode = code
		d.outBuf = append(d.outBuf[:0], byte(code))
		return d.outBuf, nil
	}

	var entry int
	switch {
	case code < d.nextCode:
		entry = code
	case code == d.nextCode:
		entry = d.oldCode
	default:
		return nil, formatErrorf("invalid code in LZW stream")
	}

	stackLen := 0
	cur := entry
	for cur >= d.clearCode+2 {
		d.stack[stackLen] = d.suffix[cur]
		stackLen++
		cur = int(d.prefix[cur])
	}
	d.stack[stackLen] = byte(cur)
	stackLen++

	d.outBuf = d.outBuf[:0]
	for i := stackLen - 1; i >= 0; i-- {
		d.outBuf = append(d.outBuf, d.stack[i])
	}
	first := d.outBuf[0]
	if code == d.nextCode {
		d.outBuf = append(d.outBuf, first)
	}

	if d.nextCode < lzwTableSize {
		d.prefix[d.nextCode] = int32(d.oldCode)
		d.suffix[d.nextCode] = first
		d.nextCode++
		if d.nextCode == 1<<d.codeSize && d.codeSize < maxLZWBits {
			d.codeSize++
		}
	}

	d.oldCode = code
	return d.outBuf, nil
}

// decodeBytes consumes a prefix of data, writing decoded bytes into sink,
// and returns how much of data was consumed and how many bytes were
// produced. It stops, without error, as soon as either data is exhausted
// (need more input) or sink refuses further bytes (output full) — both are
// reported as zero additional progress on that axis, letting the caller
// tell them apart from a real error.
func (d *lzwDecoder) decodeBytes(data []byte, sink OutputSink) (consumedIn, consumedOut int, err error) {
	for {
		if d.pendingOff < len(d.pending) {
			n := sink.write(d.pending[d.pendingOff:])
			d.pendingOff += n
			consumedOut += n
			if d.pendingOff < len(d.pending) {
				return consumedIn, consumedOut, nil
			}
		}
		if d.ended {
			return consumedIn, consumedOut, nil
		}
		for d.bitCount < d.codeSize {
			if len(data) == 0 {
				return consumedIn, consumedOut, nil
			}
			d.bitBuf |= uint32(data[0]) << d.bitCount
			data = data[1:]
			consumedIn++
			d.bitCount += 8
		}
		code := int(d.bitBuf & (uint32(1)<<d.codeSize - 1))
		d.bitBuf >>= d.codeSize
		d.bitCount -= d.codeSize

		switch {
		case code == d.clearCode:
			d.resetTable()
			continue
		case code == d.eofCode:
			d.ended = true
			continue
		}

		out, derr := d.decodeOneCode(code)
		if derr != nil {
			return consumedIn, consumedOut, derr
		}
		d.pending = out
		d.pendingOff = 0
	}
}
