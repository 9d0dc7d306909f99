// Package blocksignature signs and verifies the signature a staker puts on a
// proof-of-stake block.
package blocksignature

import (
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// halfOrder is used to tame ECDSA malleability (see BIP0062).
var halfOrder = new(big.Int).Rsh(secp256k1.S256().Params().N, 1)

// Sign returns the DER encoded signature of blockHash with the given
// private key. Signatures are always produced with a low S value.
func Sign(privateKey []byte, blockHash *externalapi.DomainHash) ([]byte, error) {
	if len(privateKey) != secp256k1.PrivKeyBytesLen {
		return nil, errors.Errorf("private key must be %d bytes, got %d",
			secp256k1.PrivKeyBytesLen, len(privateKey))
	}
	key := secp256k1.PrivKeyFromBytes(privateKey)
	defer key.Zero()
	return ecdsa.Sign(key, blockHash[:]).Serialize(), nil
}

// PublicKey returns the compressed public key of privateKey.
func PublicKey(privateKey []byte) []byte {
	return secp256k1.PrivKeyFromBytes(privateKey).PubKey().SerializeCompressed()
}

// Verify returns whether signature is a valid canonical signature of
// blockHash by publicKey.
func Verify(publicKey []byte, blockHash *externalapi.DomainHash, signature []byte) bool {
	if !IsCanonicalSignature(signature) {
		return false
	}
	key, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(blockHash[:], key)
}

// IsCanonicalSignature returns whether signature is a strict DER encoding
// with a low S value.
func IsCanonicalSignature(signature []byte) bool {
	s, ok := parseStrictDER(signature)
	if !ok {
		return false
	}
	return s.Sign() > 0 && s.Cmp(halfOrder) <= 0
}

// parseStrictDER checks the encoding rules of BIP0066 and returns S.
//
// The format of a DER encoded signature is as follows:
//
// 0x30 <total length> 0x02 <length of R> <R> 0x02 <length of S> <S>
func parseStrictDER(sig []byte) (*big.Int, bool) {
	const (
		minSigLen = 8
		maxSigLen = 72
	)
	sigLen := len(sig)
	if sigLen < minSigLen || sigLen > maxSigLen {
		return nil, false
	}
	if sig[0] != 0x30 || int(sig[1]) != sigLen-2 {
		return nil, false
	}

	rLen := int(sig[3])
	if sig[2] != 0x02 || rLen == 0 || 4+rLen+2 > sigLen {
		return nil, false
	}
	r := sig[4 : 4+rLen]
	if !isCanonicalInteger(r) {
		return nil, false
	}

	sTypeOffset := 4 + rLen
	sLen := int(sig[sTypeOffset+1])
	if sig[sTypeOffset] != 0x02 || sLen == 0 || sTypeOffset+2+sLen != sigLen {
		return nil, false
	}
	s := sig[sTypeOffset+2:]
	if !isCanonicalInteger(s) {
		return nil, false
	}
	return new(big.Int).SetBytes(s), true
}

// isCanonicalInteger rejects negative values and unnecessary leading zeros.
func isCanonicalInteger(value []byte) bool {
	if value[0]&0x80 != 0 {
		return false
	}
	if len(value) > 1 && value[0] == 0x00 && value[1]&0x80 == 0 {
		return false
	}
	return true
}
