/*
Package types defines the data shapes shared across the ordinal index: the
chain-supplied block/transaction shape the index consumes, the tagged
inscription variants the parser produces, and the logical rows the core
persists in the key-value store.

Core types:

  - Block / Tx — external chain shape; the index never owns these, only
    reads them during block application.
  - Inscription — tagged union of NameOp, TokenDeploy, TokenMint.
  - NameRecord, TokenState, InscriptionMeta — logical rows kept in the KV
    store, keyed as described by the ordinal KV layout.

The rules that mutate these types live in pkg/oic; this package is data
only.
*/
package types
