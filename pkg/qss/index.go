package qss

import "github.com/akaitrade/ordinalindex/pkg/types"

// Index is the read surface the server needs from the ordinal index core.
// Defined locally (rather than importing *oic.Core directly) so handlers
// can be tested against a fake.
type Index interface {
	NameAvailable(namespace, name string) (bool, error)
	LookupName(namespace, name string) (types.NameRecord, bool, error)
	NamesByOwner(address string) ([]types.NameRecord, error)
	GetToken(ticker string) (types.TokenState, bool, error)
	ListTokens(offset, limit int, filter func(types.TokenState) bool) ([]types.TokenState, error)
	GetTokenBalance(address, ticker string) (int64, error)
	TotalNames() int
	TotalTokens() int
	TotalInscriptions() int
	IndexedHeight() uint64
}
