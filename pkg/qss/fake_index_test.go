package qss

import "github.com/akaitrade/ordinalindex/pkg/types"

type fakeIndex struct {
	names    map[string]types.NameRecord
	tokens   map[string]types.TokenState
	balances map[string]int64
	height   uint64
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		names:    make(map[string]types.NameRecord),
		tokens:   make(map[string]types.TokenState),
		balances: make(map[string]int64),
	}
}

func (f *fakeIndex) NameAvailable(namespace, name string) (bool, error) {
	_, found, err := f.LookupName(namespace, name)
	return !found, err
}

func (f *fakeIndex) LookupName(namespace, name string) (types.NameRecord, bool, error) {
	rec, ok := f.names[namespace+":"+name]
	return rec, ok, nil
}

func (f *fakeIndex) NamesByOwner(address string) ([]types.NameRecord, error) {
	var out []types.NameRecord
	for _, rec := range f.names {
		if rec.Owner == address {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeIndex) GetToken(ticker string) (types.TokenState, bool, error) {
	ts, ok := f.tokens[ticker]
	return ts, ok, nil
}

func (f *fakeIndex) ListTokens(offset, limit int, filter func(types.TokenState) bool) ([]types.TokenState, error) {
	var out []types.TokenState
	for _, ts := range f.tokens {
		out = append(out, ts)
	}
	return out, nil
}

func (f *fakeIndex) GetTokenBalance(address, ticker string) (int64, error) {
	return f.balances[address+":"+ticker], nil
}

func (f *fakeIndex) TotalNames() int        { return len(f.names) }
func (f *fakeIndex) TotalTokens() int       { return len(f.tokens) }
func (f *fakeIndex) TotalInscriptions() int { return len(f.names) + len(f.tokens) }
func (f *fakeIndex) IndexedHeight() uint64  { return f.height }
