package oic

import (
	"encoding/json"
	"errors"

	"github.com/akaitrade/ordinalindex/pkg/kv"
	"github.com/akaitrade/ordinalindex/pkg/types"
)

// NameAvailable reports whether (namespace, name) has no registered
// NameRecord.
func (c *Core) NameAvailable(namespace, name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, found, err := c.lookupNameLocked(normalize(namespace), normalize(name))
	if err != nil {
		return false, err
	}
	return !found, nil
}

// LookupName returns the NameRecord for (namespace, name), if any.
func (c *Core) LookupName(namespace, name string) (types.NameRecord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupNameLocked(normalize(namespace), normalize(name))
}

// NamesByOwner scans the name prefix for every record owned by address.
// This is a full prefix scan; callers needing this on a hot path should
// cache results upstream.
func (c *Core) NamesByOwner(address string) ([]types.NameRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []types.NameRecord
	err := c.store.IteratePrefix(NamePrefix, func(k, v []byte) (bool, error) {
		rec, err := decodeNameRecord(v)
		if err != nil {
			// Every value under the name prefix was written by
			// encodeNameRecord, so a decode failure here means corruption,
			// not a valid miss; skip and keep scanning rather than aborting
			// the whole query.
			return true, nil
		}
		if rec.Owner == address {
			out = append(out, rec)
		}
		return true, nil
	})
	return out, err
}

// GetToken returns the TokenState for ticker, if deployed.
func (c *Core) GetToken(ticker string) (types.TokenState, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupTokenLocked(ticker)
}

// ListTokens returns a page of deployed tokens, optionally filtered. A nil
// filter matches everything. offset/limit apply after filtering; limit<=0
// means "no limit".
func (c *Core) ListTokens(offset, limit int, filter func(types.TokenState) bool) ([]types.TokenState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var all []types.TokenState
	err := c.store.IteratePrefix([]byte{prefixToken}, func(k, v []byte) (bool, error) {
		var ts types.TokenState
		if jsonErr := json.Unmarshal(v, &ts); jsonErr != nil {
			return true, nil
		}
		if filter == nil || filter(ts) {
			all = append(all, ts)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

// GetTokenBalance returns the holder's balance for ticker, resolving
// address to its raw public key first.
func (c *Core) GetTokenBalance(address, ticker string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pub, err := c.resolver.PublicKeyOf(address)
	if err != nil {
		return 0, err
	}
	v, err := c.store.Get(balanceKey(pub, ticker))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return decodeBalance(v), nil
}

// TotalNames returns the number of registered names, computing it lazily
// from KV if it has not been loaded yet.
func (c *Core) TotalNames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureCountersLocked()
	return c.totalNames
}

// TotalTokens returns the number of deployed tokens.
func (c *Core) TotalTokens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureCountersLocked()
	return c.totalTokens
}

// TotalInscriptions returns the number of recorded InscriptionMeta
// entries.
func (c *Core) TotalInscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureCountersLocked()
	return c.totalInscriptions
}

// IndexedHeight returns the last block sequence fully applied. It
// satisfies pkg/metrics.Source.
func (c *Core) IndexedHeight() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastIndexed
}

// InscriptionCounts returns the number of InscriptionMeta entries by
// kind, for metrics collection. It satisfies pkg/metrics.Source.
func (c *Core) InscriptionCounts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := map[string]int{"name_op": 0, "token_deploy": 0, "token_mint": 0}
	_ = c.store.IteratePrefix([]byte{prefixInscription}, func(k, v []byte) (bool, error) {
		meta, err := decodeInscriptionMeta(v)
		if err != nil {
			return true, nil
		}
		switch meta.Type {
		case types.KindNameOp:
			counts["name_op"]++
		case types.KindTokenDeploy:
			counts["token_deploy"]++
		case types.KindTokenMint:
			counts["token_mint"]++
		}
		return true, nil
	})
	return counts
}

func (c *Core) ensureCountersLocked() {
	if c.countersLoaded {
		return
	}
	c.totalNames, _ = c.store.CountPrefix([]byte{prefixName})
	c.totalTokens, _ = c.store.CountPrefix([]byte{prefixToken})
	c.totalInscriptions, _ = c.store.CountPrefix([]byte{prefixInscription})
	c.countersLoaded = true
}
