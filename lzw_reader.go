package gif89

// lzwReader wraps an lzwDecoder with the reuse-vs-rebuild policy the state
// machine needs across frames: a decoder is only rebuilt when the
// min-code-size changes, otherwise it is reset in place. Grounded on
// decoder.rs's LzwReader.
type lzwReader struct {
	decoder         *lzwDecoder
	minCodeSize     byte
	checkForEndCode bool
}

// reset prepares the reader for a new frame's LZW stream. The LZW spec
// caps codes at 12 bits, so a min-code-size above 11 (which would need a
// 13th bit once incremented) is rejected before any table is built.
func (r *lzwReader) reset(minCodeSize byte) error {
	if minCodeSize > 11 {
		return formatErrorf("invalid minimal code size")
	}
	if r.decoder == nil || r.minCodeSize != minCodeSize {
		r.minCodeSize = minCodeSize
		r.decoder = newLZWDecoder(minCodeSize)
	} else {
		r.decoder.reset()
	}
	return nil
}

// hasEnded reports whether the decoder has already seen an explicit
// end-of-information code for the current frame. It also reports true when
// no decoder has been set up yet.
func (r *lzwReader) hasEnded() bool {
	return r.decoder == nil || r.decoder.hasEnded()
}

func (r *lzwReader) decodeBytes(data []byte, sink OutputSink) (consumedIn, consumedOut int, err error) {
	if r.decoder == nil {
		return 0, 0, ioError(errUninitializedLZWReader)
	}
	if _, ok := sink.(*appendSink); ok {
		return 0, 0, ioError(errAppendSinkUnsupported)
	}
	consumedIn, consumedOut, err = r.decoder.decodeBytes(data, sink)
	if err != nil {
		return consumedIn, consumedOut, err
	}
	if consumedIn == 0 && consumedOut == 0 && !r.decoder.hasEnded() && r.checkForEndCode {
		return 0, 0, ioError(errMissingEndCode)
	}
	return consumedIn, consumedOut, nil
}
