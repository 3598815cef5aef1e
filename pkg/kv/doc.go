/*
Package kv provides the ordered, memory-mapped key-value backend for the
ordinal index.

The ordinal index keeps every logical row — name records, token states,
token balances, inscription metadata — as byte-keyed entries in a single
bbolt bucket. bbolt memory-maps its whole file and presents an ordered
B+tree, so prefix iteration across the differently-shaped keys described in
the ordinal KV layout (single-byte tag followed by a tag-specific suffix)
falls out of a plain cursor seek plus a byte-prefix check.

# Architecture

	┌─────────────────────── KV STORE ─────────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │                 bbolt.DB                     │          │
	│  │  - File: <dbRoot>/ordinaldb/index.db         │          │
	│  │  - mmap'd, single writer, many readers       │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         bucket "ordinal" (flat)              │          │
	│  │   0x01 ns:name       -> name record JSON     │          │
	│  │   0x02 ticker        -> token state JSON     │          │
	│  │   0x03 pubkey+ticker -> balance (8 bytes)    │          │
	│  │   0x04 poolSeq+index -> inscription meta     │          │
	│  └──────────────────────────────────────────────┘          │
	│                                                            │
	└────────────────────────────────────────────────────────────┘

Single bucket, not one-bucket-per-entity as in a typical bbolt store, because
the prefix-iteration queries this index serves (names by owner, tokens
listing) need to scan across rows that differ only by their leading tag byte
and compare in byte order — a requirement a single flat keyspace satisfies
directly and a bucket-per-entity layout would not.
*/
package kv
