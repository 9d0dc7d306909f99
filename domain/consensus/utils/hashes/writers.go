package hashes

import (
	"crypto/sha256"
	"hash"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ripemd160"
)

// HashWriter is used to incrementally hash data without concatenating all of the data to a single buffer
// it exposes an io.Writer api and a Finalize function to get the resulting hash.
// The resulting hash is the double SHA256 of everything written.
type HashWriter struct {
	hash.Hash
}

// NewDoubleHashWriter returns a new HashWriter computing double SHA256.
func NewDoubleHashWriter() HashWriter {
	return HashWriter{sha256.New()}
}

// InfallibleWrite is just like write but doesn't return anything
func (h HashWriter) InfallibleWrite(p []byte) {
	// This write can never return an error, this is part of the hash.Hash interface contract.
	_, err := h.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. hash.Hash interface promises to not return errors."))
	}
}

// Finalize returns the resulting hash
func (h HashWriter) Finalize() *externalapi.DomainHash {
	var first externalapi.DomainHash
	copy(first[:], h.Sum(first[:0]))
	sum := externalapi.DomainHash(sha256.Sum256(first[:]))
	return &sum
}

// DoubleHash returns the double SHA256 of data.
func DoubleHash(data ...[]byte) *externalapi.DomainHash {
	writer := NewDoubleHashWriter()
	for _, d := range data {
		writer.InfallibleWrite(d)
	}
	return writer.Finalize()
}

// Hash160 returns RIPEMD160(SHA256(data)), the hash used by pay-to-pubkey-hash
// and pay-to-script-hash scripts.
func Hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	hasher := ripemd160.New()
	// ripemd160 writes never fail.
	_, _ = hasher.Write(sha[:])
	return hasher.Sum(nil)
}
