package session

import (
	"github.com/cespare/xxhash/v2"

	"eicrcore/pkg/domain"
)

// Fingerprint hashes every field of every record in order. Two collections
// with equal fingerprints persist to the same document.
func Fingerprint(records []domain.TestResult) uint64 {
	d := xxhash.New()
	for _, r := range records {
		for _, v := range r.Values() {
			_, _ = d.WriteString(v)
			_, _ = d.Write([]byte{0x1f})
		}
		_, _ = d.Write([]byte{0x1e})
	}
	return d.Sum64()
}
