package ldb

import (
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

const (
	// bloomFilterBitsPerKey sizes the per-table filters consulted before a
	// block is read, so lookups of spent or unknown coins rarely touch disk.
	bloomFilterBitsPerKey = 10

	minWriteBufferMiB = 4
	maxWriteBufferMiB = 64
)

// Options returns the leveldb options of a coin database using a block cache
// of cacheSizeMiB. Every call returns a new instance.
func Options(cacheSizeMiB int) *opt.Options {
	return &opt.Options{
		Compression:            opt.NoCompression,
		BlockCacheCapacity:     cacheSizeMiB * opt.MiB,
		WriteBuffer:            writeBufferMiB(cacheSizeMiB) * opt.MiB,
		DisableSeeksCompaction: true,
		Filter:                 filter.NewBloomFilter(bloomFilterBitsPerKey),
	}
}

// writeBufferMiB is a quarter of the cache, within
// [minWriteBufferMiB, maxWriteBufferMiB].
func writeBufferMiB(cacheSizeMiB int) int {
	size := cacheSizeMiB / 4
	if size < minWriteBufferMiB {
		return minWriteBufferMiB
	}
	if size > maxWriteBufferMiB {
		return maxWriteBufferMiB
	}
	return size
}
