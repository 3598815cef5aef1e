/*
Package oic is the Ordinal Index Core: the state machine that applies
parsed inscriptions to the key-value store, enforces every domain
invariant (first-seen wins, ownership discipline, supply caps), and
answers the read-side queries the query/subscription server serves.

Core's apply path dispatches on inscription kind with a single type-switch
entry point: one parsed Inscription in, one handler call out, per
transaction. There is no replicated consensus underneath it: Core is a
single-writer secondary index driven by whatever already-finalized blocks
the blockchain bridge hands it.

	┌────────────── ORDINAL INDEX CORE ───────────────┐
	│                                                   │
	│  OnStartReadFromDB / OnReadFromDB / OnReadFinished│
	│  OnRemoveBlock / OnNewBlock                       │
	│                     │                             │
	│                     ▼                             │
	│          ┌─────────────────────┐                  │
	│          │   dispatch(kind)     │                  │
	│          │  NameOp / Deploy /   │                  │
	│          │  Mint                │                  │
	│          └──────────┬──────────┘                  │
	│                     │                              │
	│        ┌────────────┴────────────┐                │
	│        ▼                         ▼                │
	│   recreate-mode caches      kv.Store               │
	│   (Loading/Indexing only)   (always written)        │
	│                     │                              │
	│                     ▼                              │
	│                 OnEvent(kind, payload, block, tx)  │
	└───────────────────────────────────────────────────┘

During recreate, every write is still written through to the KV store —
the in-memory caches exist only so that reads-during-recreate (e.g. a
"reg" checking whether a name already exists) don't pay a disk round trip
for state this same bulk pass already produced. Once OnReadFinished
clears the recreate flag, the caches are dropped and lookups fall back to
the KV store for good.
*/
package oic
