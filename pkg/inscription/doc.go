/*
Package inscription decodes the single class of transaction payload the
ordinal index cares about: a restricted, single-level JSON object embedded
in a transaction's keyed user-field bag, naming a name-system or
fungible-token operation.

Parsing never fails the block it runs in. A malformed or unrecognized
payload yields ok=false, not an error; the caller (pkg/oic) logs and moves
on to the next transaction, per the indexing pipeline's "one bad
transaction never aborts a block" rule.
*/
package inscription
