// Package bridge adapts the external blockchain component's block-delivery
// callbacks onto pkg/oic.Core's lifecycle methods.
//
// The callback names and sequencing (OnStartReadFromDB, repeated
// OnReadFromDB, OnReadFinished, then steady-state OnNewBlock/OnRemoveBlock)
// are dictated by the chain component this index runs alongside; Bridge's
// only job is to be the thin, stateless seam between that component and
// Core, plus resolve wire addresses to raw public keys the way Core's
// AddressResolver needs.
package bridge
