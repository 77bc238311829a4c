// Package generator builds replayable workloads by sampling from
// model-aware candidates (spec.md 4.2): every operation it emits is
// guaranteed to succeed against the abstract FS it was generated from.
package generator

// InterestingInts is the AFL++-style pool of boundary-condition values
// used for Read/Write sizes and Write source offsets.
var InterestingInts = []uint64{
	0, 1, 16, 32, 64, 100, 127, 128, 255, 256,
	512, 1000, 1024, 4096, 32767, 32768, 65535, 65536, 100000,
}
