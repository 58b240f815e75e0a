package gif89

// DecoderOptions configures the strictness and behavior of a Decoder.
// Grounded on the public decoder surface in spec.md §6.
type DecoderOptions struct {
	// CheckForEndCode escalates a missing LZW end-of-information code
	// from a silently-tolerated truncation to an IOError wrapping
	// errMissingEndCode.
	CheckForEndCode bool
	// SkipFrameDecoding copies compressed LZW bytes through verbatim
	// instead of decompressing them, for callers that only want frame
	// metadata or want to decode lazily later.
	SkipFrameDecoding bool
	// CheckFrameConsistency rejects a frame whose position and size
	// exceed the logical screen's bounds.
	CheckFrameConsistency bool
	// AllowUnknownBlocks skips an unrecognized top-level block tag
	// instead of treating it as a FormatError.
	AllowUnknownBlocks bool
}
