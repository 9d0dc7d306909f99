package model

import "github.com/hybridchain/hcd/domain/consensus/model/externalapi"

// Multiset is a multiset hash of the unspent output set.
type Multiset interface {
	Add(data []byte)
	Remove(data []byte)
	Hash() *externalapi.DomainHash
	Serialize() []byte
	Clone() Multiset
}
