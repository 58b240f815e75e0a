package gif89

// maxLZWBits is the widest code GIF's LZW variant allows: 12 bits,
// yielding a 4096-entry code table.
const maxLZWBits = 12

// lzwTableSize is the number of code-table slots, 2^maxLZWBits.
const lzwTableSize = 1 << maxLZWBits

// hashSize is the open-addressed hash table size used by the encoder,
// sized for roughly 80% occupancy at the maximum table size. Grounded on
// LZWEncoder.go's HSIZE constant (itself a port of the classic GIFCOMPR.C
// compress() routine).
const hashSize = 5003
