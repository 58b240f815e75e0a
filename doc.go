// Package gif89 implements the core of a GIF image codec: a byte-exact
// streaming decoder built as an explicit state machine over chunked input,
// and a matching encoder that writes a conforming GIF89a byte stream.
//
// The package owns no file handle and performs no I/O itself. Callers drive
// the decoder by repeatedly calling Decoder.Update with whatever bytes they
// have on hand, and drive the encoder by calling Encoder.WriteFrame once per
// frame. Rendering, animation playback, color management, and interlace
// de-interleaving are explicitly out of scope; they belong to a caller built
// on top of this package.
package gif89
