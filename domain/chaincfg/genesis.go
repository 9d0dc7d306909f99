// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"math"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
)

// genesisCoinbaseTx is the coinbase transaction for the genesis blocks of
// the proof-of-work networks.
var genesisCoinbaseTx = externalapi.DomainTransaction{
	Version: 1,
	Inputs: []*externalapi.DomainTransactionInput{
		{
			PreviousOutpoint: externalapi.DomainOutpoint{
				TransactionID: externalapi.DomainHash{},
				Index:         math.MaxUint32,
			},
			SignatureScript: []byte{
				0x04, 0xff, 0xff, 0x00, 0x1d, 0x01, 0x04, 0x45, /* |.......E| */
				0x54, 0x68, 0x65, 0x20, 0x54, 0x69, 0x6d, 0x65, /* |The Time| */
				0x73, 0x20, 0x30, 0x33, 0x2f, 0x4a, 0x61, 0x6e, /* |s 03/Jan| */
				0x2f, 0x32, 0x30, 0x30, 0x39, 0x20, 0x43, 0x68, /* |/2009 Ch| */
				0x61, 0x6e, 0x63, 0x65, 0x6c, 0x6c, 0x6f, 0x72, /* |ancellor| */
				0x20, 0x6f, 0x6e, 0x20, 0x62, 0x72, 0x69, 0x6e, /* | on brin| */
				0x6b, 0x20, 0x6f, 0x66, 0x20, 0x73, 0x65, 0x63, /* |k of sec|*/
				0x6f, 0x6e, 0x64, 0x20, 0x62, 0x61, 0x69, 0x6c, /* |ond bail| */
				0x6f, 0x75, 0x74, 0x20, 0x66, 0x6f, 0x72, 0x20, /* |out for |*/
				0x62, 0x61, 0x6e, 0x6b, 0x73, /* |banks| */
			},
			Sequence: math.MaxUint32,
		},
	},
	Outputs: []*externalapi.DomainTransactionOutput{
		{
			Value: 0x12a05f200,
			ScriptPublicKey: []byte{
				0x41, 0x04, 0x67, 0x8a, 0xfd, 0xb0, 0xfe, 0x55, /* |A.g....U| */
				0x48, 0x27, 0x19, 0x67, 0xf1, 0xa6, 0x71, 0x30, /* |H'.g..q0| */
				0xb7, 0x10, 0x5c, 0xd6, 0xa8, 0x28, 0xe0, 0x39, /* |..\..(.9| */
				0x09, 0xa6, 0x79, 0x62, 0xe0, 0xea, 0x1f, 0x61, /* |..yb...a| */
				0xde, 0xb6, 0x49, 0xf6, 0xbc, 0x3f, 0x4c, 0xef, /* |..I..?L.| */
				0x38, 0xc4, 0xf3, 0x55, 0x04, 0xe5, 0x1e, 0xc1, /* |8..U....| */
				0x12, 0xde, 0x5c, 0x38, 0x4d, 0xf7, 0xba, 0x0b, /* |..\8M...| */
				0x8d, 0x57, 0x8a, 0x4c, 0x70, 0x2b, 0x6b, 0xf1, /* |.W.Lp+k.| */
				0x1d, 0x5f, 0xac, /* |._.| */
			},
		},
	},
	LockTime: 0,
}

// genesisMerkleRoot is the hash of the first transaction in the genesis block
// of the proof-of-work networks.
var genesisMerkleRoot = *externalapi.MustNewDomainHashFromString(
	"4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b")

// genesisBlock defines the genesis block of the proof-of-work main network.
var genesisBlock = externalapi.DomainBlock{
	Header: &externalapi.DomainBlockHeader{
		Version:       1,
		PrevBlockHash: externalapi.DomainHash{},
		MerkleRoot:    genesisMerkleRoot,
		Timestamp:     1231006505, // 2009-01-03 18:15:05 +0000 UTC
		Bits:          0x1d00ffff,
		Nonce:         0x7c2bac1d, // 2083236893
	},
	Transactions: []*externalapi.DomainTransaction{&genesisCoinbaseTx},
}

// genesisHash is the hash of the first block in the block chain for the
// proof-of-work main network.
var genesisHash = externalapi.MustNewDomainHashFromString(
	"000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f")

// regtestGenesisBlock defines the genesis block of the proof-of-work
// regression test network. It shares the coinbase with the main network.
var regtestGenesisBlock = externalapi.DomainBlock{
	Header: &externalapi.DomainBlockHeader{
		Version:       1,
		PrevBlockHash: externalapi.DomainHash{},
		MerkleRoot:    genesisMerkleRoot,
		Timestamp:     1296688602, // 2011-02-02 23:16:42 +0000 UTC
		Bits:          0x207fffff,
		Nonce:         2,
	},
	Transactions: []*externalapi.DomainTransaction{&genesisCoinbaseTx},
}

// regtestGenesisHash is the hash of the proof-of-work regression test
// network genesis block.
var regtestGenesisHash = externalapi.MustNewDomainHashFromString(
	"0f9188f13cb7b2c71f2a335e3a4fc328bf5beb436012afca590b1a11466e2206")

// posGenesisCoinbaseTx is the coinbase of the proof-of-stake networks. Its
// transactions carry a timestamp and the genesis pays nothing.
var posGenesisCoinbaseTx = externalapi.DomainTransaction{
	Version:      1,
	Timestamp:    1470467000,
	HasTimestamp: true,
	Inputs: []*externalapi.DomainTransactionInput{
		{
			PreviousOutpoint: externalapi.DomainOutpoint{
				TransactionID: externalapi.DomainHash{},
				Index:         math.MaxUint32,
			},
			SignatureScript: append([]byte{0x00, 0x01, 0x2a, 0x21},
				"hcd hybrid proof-of-stake genesis"...),
			Sequence: math.MaxUint32,
		},
	},
	Outputs: []*externalapi.DomainTransactionOutput{
		{Value: 0, ScriptPublicKey: []byte{}},
	},
	LockTime: 0,
}

var posGenesisMerkleRoot = *externalapi.MustNewDomainHashFromString(
	"630b425434579c515a0d006f700d09491318c1221819ca0571ffd8d624115583")

// posGenesisBlock defines the genesis block of the proof-of-stake main
// network.
var posGenesisBlock = externalapi.DomainBlock{
	Header: &externalapi.DomainBlockHeader{
		Version:       1,
		PrevBlockHash: externalapi.DomainHash{},
		MerkleRoot:    posGenesisMerkleRoot,
		Timestamp:     1470467000, // 2016-08-06 07:03:20 +0000 UTC
		Bits:          0x1e0fffff,
		Nonce:         875413,
	},
	Transactions: []*externalapi.DomainTransaction{&posGenesisCoinbaseTx},
}

var posGenesisHash = externalapi.MustNewDomainHashFromString(
	"000009234f36b6470c51ad5701daa7fccb28cbca8c8f13cf01565b6c9f837345")

// posRegtestGenesisBlock defines the genesis block of the proof-of-stake
// regression test network.
var posRegtestGenesisBlock = externalapi.DomainBlock{
	Header: &externalapi.DomainBlockHeader{
		Version:       1,
		PrevBlockHash: externalapi.DomainHash{},
		MerkleRoot:    posGenesisMerkleRoot,
		Timestamp:     1470467000,
		Bits:          0x207fffff,
		Nonce:         2,
	},
	Transactions: []*externalapi.DomainTransaction{&posGenesisCoinbaseTx},
}

var posRegtestGenesisHash = externalapi.MustNewDomainHashFromString(
	"187b5a0f55d995ebcc987c368c5786686e5b7fe4d21fe971695f49a93eef4b8e")
