package externalapi

import (
	"bytes"
	"encoding/hex"

	"github.com/pkg/errors"
)

// DomainHashSize of array used to store hashes.
const DomainHashSize = 32

// DomainHash is a double-SHA256 hash as used for block hashes, transaction ids
// and merkle nodes. Its string form is the byte-reversed hex encoding.
type DomainHash [DomainHashSize]byte

// ZeroHash is the all-zero hash.
var ZeroHash = DomainHash{}

// NewDomainHashFromByteSlice returns a hash holding a copy of hashBytes.
func NewDomainHashFromByteSlice(hashBytes []byte) (*DomainHash, error) {
	if len(hashBytes) != DomainHashSize {
		return nil, errors.Errorf("invalid hash size. Want: %d, got: %d",
			DomainHashSize, len(hashBytes))
	}
	var hash DomainHash
	copy(hash[:], hashBytes)
	return &hash, nil
}

// NewDomainHashFromString parses the byte-reversed hex representation
// returned by String.
func NewDomainHashFromString(hashString string) (*DomainHash, error) {
	expectedLength := DomainHashSize * 2
	if len(hashString) != expectedLength {
		return nil, errors.Errorf("hash string length is %d, while it should be be %d",
			len(hashString), expectedLength)
	}

	hashBytes, err := hex.DecodeString(hashString)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var hash DomainHash
	for i, b := range hashBytes {
		hash[DomainHashSize-1-i] = b
	}
	return &hash, nil
}

// MustNewDomainHashFromString is like NewDomainHashFromString but panics on
// malformed input. It is intended for hard-coded parameters.
func MustNewDomainHashFromString(hashString string) *DomainHash {
	hash, err := NewDomainHashFromString(hashString)
	if err != nil {
		panic(err)
	}
	return hash
}

// String returns the hash as byte-reversed hex.
func (hash DomainHash) String() string {
	reversed := hash
	for i := 0; i < DomainHashSize/2; i++ {
		reversed[i], reversed[DomainHashSize-1-i] = reversed[DomainHashSize-1-i], reversed[i]
	}
	return hex.EncodeToString(reversed[:])
}

// ByteSlice returns a copy of the hash bytes in internal order.
func (hash *DomainHash) ByteSlice() []byte {
	clone := *hash
	return clone[:]
}

// Equal returns whether hash equals to other
func (hash *DomainHash) Equal(other *DomainHash) bool {
	if hash == nil || other == nil {
		return hash == other
	}
	return *hash == *other
}

// Clone returns a copy of the hash.
func (hash *DomainHash) Clone() *DomainHash {
	clone := *hash
	return &clone
}

// IsZero returns whether the hash is all zeros.
func (hash *DomainHash) IsZero() bool {
	return *hash == ZeroHash
}

// Less returns true if hash is lexicographically smaller than other when both
// are compared in internal byte order.
func (hash *DomainHash) Less(other *DomainHash) bool {
	return bytes.Compare(hash[:], other[:]) < 0
}
