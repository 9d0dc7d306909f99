package externalapi

import "sort"

// MedianTimeSpan is the number of previous headers used to compute the median
// time past.
const MedianTimeSpan = 11

// ChainedHeader is a header linked to its predecessor. Chained headers are
// owned by the chain index; the engine only reads them.
type ChainedHeader struct {
	Header   *DomainBlockHeader
	Hash     DomainHash
	Height   uint64
	Previous *ChainedHeader
}

// NewChainedHeader links header after previous. previous is nil for the
// genesis header.
func NewChainedHeader(header *DomainBlockHeader, hash *DomainHash, previous *ChainedHeader) *ChainedHeader {
	var height uint64
	if previous != nil {
		height = previous.Height + 1
	}
	return &ChainedHeader{
		Header:   header,
		Hash:     *hash,
		Height:   height,
		Previous: previous,
	}
}

// Ancestor returns the ancestor at the given height, or nil if height is above
// this header's height.
func (ch *ChainedHeader) Ancestor(height uint64) *ChainedHeader {
	if height > ch.Height {
		return nil
	}
	current := ch
	for current != nil && current.Height > height {
		current = current.Previous
	}
	return current
}

// PastMedianTime returns the median timestamp of this header and up to ten of
// its predecessors.
func (ch *ChainedHeader) PastMedianTime() uint32 {
	timestamps := make([]uint32, 0, MedianTimeSpan)
	for current := ch; current != nil && len(timestamps) < MedianTimeSpan; current = current.Previous {
		timestamps = append(timestamps, current.Header.Timestamp)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })
	return timestamps[len(timestamps)/2]
}

// Timestamp is a shortcut for ch.Header.Timestamp.
func (ch *ChainedHeader) Timestamp() uint32 {
	return ch.Header.Timestamp
}

// IsOnChainOf returns whether ch is tip or one of its ancestors.
func (ch *ChainedHeader) IsOnChainOf(tip *ChainedHeader) bool {
	ancestor := tip.Ancestor(ch.Height)
	return ancestor != nil && ancestor.Hash == ch.Hash
}
