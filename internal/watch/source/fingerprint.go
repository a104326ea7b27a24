package source

import (
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// headProbeLen bounds how much of the file head participates in the
// fingerprint. The MobileTouch log always opens with a timestamped entry,
// so the first few hundred bytes identify a file generation reliably.
const headProbeLen = 256

// Fingerprint identifies a log file generation. A changed fingerprint
// means the file was rotated or replaced, even when the path is unchanged.
type Fingerprint struct {
	HeadHash uint64
	HeadLen  int64
}

// Zero reports whether the fingerprint has been taken yet.
func (fp Fingerprint) Zero() bool {
	return fp.HeadLen == 0
}

// takeFingerprint hashes the first min(size, headProbeLen) bytes of f.
func takeFingerprint(f *os.File, size int64) (Fingerprint, error) {
	n := size
	if n > headProbeLen {
		n = headProbeLen
	}
	if n == 0 {
		return Fingerprint{}, nil
	}

	buf := make([]byte, n)
	if _, err := f.ReadAt(buf, 0); err != nil && err != io.EOF {
		return Fingerprint{}, err
	}
	return Fingerprint{HeadHash: xxhash.Sum64(buf), HeadLen: n}, nil
}

// matches re-hashes the current head of f over fp's recorded length and
// reports whether it still describes the same generation.
func (fp Fingerprint) matches(f *os.File, size int64) (bool, error) {
	if fp.Zero() {
		return false, nil
	}
	if size < fp.HeadLen {
		// File shrank below the fingerprinted region: replaced.
		return false, nil
	}

	buf := make([]byte, fp.HeadLen)
	if _, err := f.ReadAt(buf, 0); err != nil && err != io.EOF {
		return false, err
	}
	return xxhash.Sum64(buf) == fp.HeadHash, nil
}
