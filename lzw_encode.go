package gif89

import "io"

// lzwEncoder compresses a run of palette-index bytes into the GIF LZW-LSB
// wire format: a clear code, codes bumping in width as the table fills, and
// a trailing end-of-information code.
//
// Grounded on LZWEncoder.go (itself a Go port of the classic GIFCOMPR.C
// hash-table compressor). The packet-buffering layer that file duplicated
// (aCount/accum/flushChar, a second ad hoc sub-block framer) is dropped
// here in favor of writing bits straight through blockWriter, which already
// owns sub-block segmentation — see §4.1/§4.2 of SPEC_FULL.md.
type lzwEncoder struct {
	minCodeSize byte
}

func newLZWEncoder(minCodeSize byte) *lzwEncoder {
	return &lzwEncoder{minCodeSize: minCodeSize}
}

// encodeAll compresses pixels and writes the sub-block-framed LZW stream to
// w. It does not write the leading min-code-size byte or the trailing
// zero-length block terminator; Encoder.writeImageBlock writes those around
// the call, per the wire format in SPEC_FULL.md §6.
func (e *lzwEncoder) encodeAll(w io.Writer, pixels []byte) error {
	bw := newBlockWriter(w)
	if err := e.compress(bw, pixels); err != nil {
		return err
	}
	return bw.Close()
}

func (e *lzwEncoder) compress(bw *blockWriter, pixels []byte) error {
	clearCode := 1 << e.minCodeSize
	eofCode := clearCode + 1
	nextCode := clearCode + 2
	codeSize := uint(e.minCodeSize) + 1

	var curAccum uint32
	var curBits uint

	// output packs one code's bits (LSB-first) into the running
	// accumulator, flushing whole bytes to the block writer as they fill.
	// Once the next free code no longer fits in codeSize bits, the codes
	// that follow are one bit wider, which is where the decoder widens too.
	output := func(code int) error {
		curAccum |= uint32(code) << curBits
		curBits += codeSize
		for curBits >= 8 {
			if _, err := bw.Write([]byte{byte(curAccum)}); err != nil {
				return err
			}
			curAccum >>= 8
			curBits -= 8
		}
		if nextCode == 1<<codeSize && codeSize < maxLZWBits {
			codeSize++
		}
		return nil
	}
	flushRemainder := func() error {
		if curBits > 0 {
			if _, err := bw.Write([]byte{byte(curAccum)}); err != nil {
				return err
			}
			curAccum, curBits = 0, 0
		}
		return nil
	}

	if err := output(clearCode); err != nil {
		return err
	}

	if len(pixels) == 0 {
		if err := output(eofCode); err != nil {
			return err
		}
		return flushRemainder()
	}

	htab := make([]int32, hashSize)
	codetab := make([]int32, hashSize)
	for i := range htab {
		htab[i] = -1
	}

	hshift := 0
	for fcode := hashSize; fcode < 65536; fcode *= 2 {
		hshift++
	}
	hshift = 8 - hshift

	ent := int(pixels[0])

pixelLoop:
	for _, px := range pixels[1:] {
		c := int(px)
		fcode := (c << maxLZWBits) + ent
		idx := (c << hshift) ^ ent

		if htab[idx] == int32(fcode) {
			ent = int(codetab[idx])
			continue pixelLoop
		}
		if htab[idx] >= 0 {
			disp := hashSize - idx
			if idx == 0 {
				disp = 1
			}
			for {
				idx -= disp
				if idx < 0 {
					idx += hashSize
				}
				if htab[idx] == int32(fcode) {
					ent = int(codetab[idx])
					continue pixelLoop
				}
				if htab[idx] < 0 {
					break
				}
			}
		}

		if err := output(ent); err != nil {
			return err
		}
		ent = c

		if nextCode < lzwTableSize {
			codetab[idx] = int32(nextCode)
			htab[idx] = int32(fcode)
			nextCode++
		} else {
			// Table exhausted: emit a clear code and start over.
			if err := output(clearCode); err != nil {
				return err
			}
			for i := range htab {
				htab[i] = -1
			}
			nextCode = clearCode + 2
			codeSize = uint(e.minCodeSize) + 1
		}
	}

	if err := output(ent); err != nil {
		return err
	}
	if err := output(eofCode); err != nil {
		return err
	}
	return flushRemainder()
}
