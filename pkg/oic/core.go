package oic

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/akaitrade/ordinalindex/pkg/checkpoint"
	"github.com/akaitrade/ordinalindex/pkg/inscription"
	"github.com/akaitrade/ordinalindex/pkg/kv"
	"github.com/akaitrade/ordinalindex/pkg/log"
	"github.com/akaitrade/ordinalindex/pkg/metrics"
	"github.com/akaitrade/ordinalindex/pkg/types"
)

// State is one of the four lifecycle states the core moves through.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateIndexing
	StateLive
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateIndexing:
		return "indexing"
	case StateLive:
		return "live"
	default:
		return "unknown"
	}
}

// AddressResolver maps a wire (base58) address to its canonical raw
// public-key bytes. The blockchain bridge owns the real implementation;
// the core only needs it to build balance keys, which are keyed by raw
// public key rather than the wire address string.
type AddressResolver interface {
	PublicKeyOf(address string) ([]byte, error)
}

// EventFunc is the notification callback signature: invoked after a
// successful state change with the event kind, a JSON payload, and the
// block/tx coordinates that produced it.
type EventFunc func(kind, payloadJSON string, block int64, txIndex uint32)

// Core is the Ordinal Index Core.
type Core struct {
	mu       sync.Mutex
	store    *kv.Store
	cp       *checkpoint.File
	resolver AddressResolver
	log      zerolog.Logger

	state       State
	recreate    bool
	lastIndexed uint64

	// recreate-mode caches; nil outside recreate.
	names  map[string]types.NameRecord
	tokens map[string]types.TokenState

	countersLoaded    bool
	totalNames        int
	totalTokens       int
	totalInscriptions int

	onEvent EventFunc
}

// New creates a Core over an already-constructed store and checkpoint
// file. Call Open before feeding it blocks.
func New(store *kv.Store, cp *checkpoint.File, resolver AddressResolver) *Core {
	return &Core{
		store:    store,
		cp:       cp,
		resolver: resolver,
		log:      log.WithComponent("oic"),
	}
}

// OnEvent registers the notification callback. Pass nil to disable
// notifications entirely.
func (c *Core) OnEvent(fn EventFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvent = fn
}

// State reports the current lifecycle state.
func (c *Core) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Recreating reports whether the core is currently in a bulk recreate
// pass.
func (c *Core) Recreating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recreate
}

// Open loads the checkpoint and decides whether a recreate is required
// because the watermark is the wrong-sentinel.
func (c *Core) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	seq, err := c.cp.Load()
	if err != nil {
		return fmt.Errorf("oic: load checkpoint: %w", err)
	}
	c.lastIndexed = seq
	if checkpoint.IsWrong(seq) {
		c.recreate = true
	}
	c.state = StateLoading
	return nil
}

// OnStartReadFromDB begins a bulk replay up to lastWritten. If the
// checkpoint is invalid or ahead of the chain tip, it forces a full
// recreate: the KV file is wiped and caches are reset to empty.
func (c *Core) OnStartReadFromDB(lastWritten uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if checkpoint.IsWrong(c.lastIndexed) || c.lastIndexed > lastWritten {
		c.log.Warn().Uint64("last_indexed", c.lastIndexed).Uint64("last_written", lastWritten).
			Msg("forcing recreate")
		if err := c.store.Recreate(); err != nil {
			return fmt.Errorf("oic: recreate kv: %w", err)
		}
		c.recreate = true
		c.lastIndexed = 0
		c.names = make(map[string]types.NameRecord)
		c.tokens = make(map[string]types.TokenState)
		c.totalNames, c.totalTokens, c.totalInscriptions = 0, 0, 0
		c.countersLoaded = true
	} else {
		c.log.Info().Uint64("from", c.lastIndexed+1).Uint64("to", lastWritten).Msg("resuming index")
	}
	c.state = StateIndexing
	return nil
}

// OnReadFromDB applies one block during bulk replay. Blocks already
// covered by the checkpoint are skipped unless a recreate is in
// progress.
func (c *Core) OnReadFromDB(block types.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.recreate && c.lastIndexed >= uint64(block.Seq) {
		return nil
	}
	return c.applyBlockLocked(block)
}

// OnReadFinished ends a bulk replay: the recreate flag clears, the
// in-memory caches are dropped, and the checkpoint is flushed.
func (c *Core) OnReadFinished() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recreate = false
	c.names = nil
	c.tokens = nil
	c.state = StateLive
	return c.persistCheckpointLocked()
}

// OnNewBlock applies one live-appended block and flushes the checkpoint
// immediately afterward.
func (c *Core) OnNewBlock(block types.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.applyBlockLocked(block); err != nil {
		return err
	}
	return c.persistCheckpointLocked()
}

// OnRemoveBlock reverses a block's effects for a reorg. A removed
// registration is deleted outright; updates, transfers, and deploys are
// not inverted, and a reversed mint never restores the holder's balance —
// rollback only ever lowers a token's total-minted counter, since there is
// no undo log recording which holder a given mint credited.
func (c *Core) OnRemoveBlock(block types.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, tx := range block.Txs {
		insc, ok := inscription.Parse(tx)
		if !ok {
			continue
		}
		if err := c.undo(insc, tx); err != nil {
			return fmt.Errorf("oic: undo block %d tx %d: %w", block.Seq, tx.Index, err)
		}
	}
	if c.lastIndexed > 0 {
		c.lastIndexed--
	}
	metrics.RollbacksTotal.Inc()
	return c.persistCheckpointLocked()
}

func (c *Core) applyBlockLocked(block types.Block) error {
	timer := metrics.NewTimer()

	for _, tx := range block.Txs {
		insc, ok := inscription.Parse(tx)
		if !ok {
			continue
		}
		if err := c.writeMeta(insc, tx, block.Seq); err != nil {
			return fmt.Errorf("oic: write inscription metadata at block %d tx %d: %w", block.Seq, tx.Index, err)
		}
		if err := c.dispatch(insc, tx, block.Seq); err != nil {
			return fmt.Errorf("oic: apply inscription at block %d tx %d: %w", block.Seq, tx.Index, err)
		}
	}

	c.lastIndexed = uint64(block.Seq)
	metrics.IndexedHeight.Set(float64(c.lastIndexed))
	timer.ObserveDuration(metrics.BlockApplyDuration)

	if block.Seq > 0 && block.Seq%100000 == 0 {
		c.log.Info().Int64("block", block.Seq).Msg("indexing progress")
	}
	return nil
}

func (c *Core) persistCheckpointLocked() error {
	if err := c.cp.Store(c.lastIndexed); err != nil {
		return fmt.Errorf("oic: persist checkpoint: %w", err)
	}
	return nil
}

// withReopen runs a KV operation and, if it fails, attempts exactly one
// reopen of the backing store before retrying the operation once more. A
// transient failure recovers silently; a failure that survives the reopen
// is returned to the caller so the apply loop stops instead of continuing
// over a store that can no longer be trusted.
func (c *Core) withReopen(op func() error) error {
	err := op()
	if err == nil {
		return nil
	}
	metrics.KVFailuresTotal.Inc()
	c.log.Error().Err(err).Msg("kv operation failed; attempting one reopen")
	if reopenErr := c.store.Open(); reopenErr != nil {
		return fmt.Errorf("kv store unreachable (reopen failed: %v): %w", reopenErr, err)
	}
	if err = op(); err != nil {
		metrics.KVFailuresTotal.Inc()
		return fmt.Errorf("kv store failed again after reopen: %w", err)
	}
	return nil
}

func (c *Core) writeMeta(insc types.Inscription, tx types.Tx, blockSeq int64) error {
	pub, err := c.resolver.PublicKeyOf(tx.Source)
	if err != nil {
		c.log.Error().Err(err).Str("source", tx.Source).Msg("failed to resolve source address; skipping metadata")
		return nil
	}
	meta := types.InscriptionMeta{
		Type:        insc.Kind,
		BlockNumber: blockSeq,
		TxIndex:     tx.Index,
		Source:      pub,
		RawJSON:     insc.RawJSON,
	}
	key := inscriptionMetaKey(tx.PoolSeq, tx.Index)
	val := encodeInscriptionMeta(meta)
	if err := c.withReopen(func() error { return c.store.Put(key, val) }); err != nil {
		return err
	}
	if c.countersLoaded {
		c.totalInscriptions++
	}
	return nil
}

func (c *Core) dispatch(insc types.Inscription, tx types.Tx, blockSeq int64) error {
	switch insc.Kind {
	case types.KindNameOp:
		return c.applyNameOp(insc.NameOp, tx, blockSeq)
	case types.KindTokenDeploy:
		return c.applyTokenDeploy(insc.TokenDeploy, tx, blockSeq)
	case types.KindTokenMint:
		return c.applyTokenMint(insc.TokenMint, tx, blockSeq)
	}
	return nil
}

func (c *Core) applyNameOp(op *types.NameOp, tx types.Tx, blockSeq int64) error {
	ns := normalize(string(op.Namespace))
	name := normalize(op.Name)

	existing, found, err := c.lookupNameLocked(ns, name)
	if err != nil {
		return fmt.Errorf("look up name %s: %w", name, err)
	}

	switch op.Op {
	case types.NameOpReg:
		if found {
			return nil // first-seen wins
		}
		rec := types.NameRecord{
			Namespace:        ns,
			Op:               string(types.NameOpReg),
			Name:             name,
			Relay:            op.Relay,
			Owner:            tx.Source,
			FirstSeenBlock:   tx.PoolSeq,
			FirstSeenTxIndex: tx.Index,
		}
		if err := c.putNameLocked(ns, name, rec); err != nil {
			return fmt.Errorf("store name registration for %s: %w", name, err)
		}
		if c.countersLoaded {
			c.totalNames++
		}
		c.emit("name_registration", rec, blockSeq, tx.Index)

	case types.NameOpUpd:
		if !found || tx.Source != existing.Owner {
			return nil
		}
		existing.Relay = op.Relay
		if err := c.putNameLocked(ns, name, existing); err != nil {
			return fmt.Errorf("store name update for %s: %w", name, err)
		}
		c.emit("name_update", existing, blockSeq, tx.Index)

	case types.NameOpTrf:
		if !found || tx.Source != existing.Owner {
			return nil
		}
		existing.Owner = tx.Target
		if err := c.putNameLocked(ns, name, existing); err != nil {
			return fmt.Errorf("store name transfer for %s: %w", name, err)
		}
		c.emit("name_transfer", existing, blockSeq, tx.Index)
	}
	return nil
}

func (c *Core) applyTokenDeploy(d *types.TokenDeploy, tx types.Tx, blockSeq int64) error {
	_, found, err := c.lookupTokenLocked(d.Ticker)
	if err != nil {
		return fmt.Errorf("look up token %s: %w", d.Ticker, err)
	}
	if found {
		return nil
	}
	ts := types.TokenState{
		Ticker:       d.Ticker,
		MaxSupply:    d.Max,
		LimitPerMint: d.Lim,
		TotalMinted:  0,
		DeployBlock:  tx.PoolSeq,
		Deployer:     tx.Source,
	}
	if err := c.putTokenLocked(ts); err != nil {
		return fmt.Errorf("store token deploy for %s: %w", d.Ticker, err)
	}
	if c.countersLoaded {
		c.totalTokens++
	}
	c.emit("token_deploy", ts, blockSeq, tx.Index)
	return nil
}

func (c *Core) applyTokenMint(m *types.TokenMint, tx types.Tx, blockSeq int64) error {
	ts, found, err := c.lookupTokenLocked(m.Ticker)
	if err != nil {
		return fmt.Errorf("look up token %s: %w", m.Ticker, err)
	}
	if !found {
		return nil
	}
	if m.Amt > ts.LimitPerMint {
		return nil
	}
	if ts.TotalMinted+m.Amt > ts.MaxSupply {
		return nil
	}
	ts.TotalMinted += m.Amt
	if err := c.putTokenLocked(ts); err != nil {
		return fmt.Errorf("store token mint for %s: %w", m.Ticker, err)
	}

	pub, err := c.resolver.PublicKeyOf(tx.Source)
	if err != nil {
		c.log.Error().Err(err).Str("source", tx.Source).Msg("failed to resolve minter address; mint not credited")
		return nil
	}
	if err := c.addBalanceLocked(pub, m.Ticker, m.Amt); err != nil {
		return fmt.Errorf("credit mint balance for %s: %w", m.Ticker, err)
	}
	c.emit("token_mint", ts, blockSeq, tx.Index)
	return nil
}

func (c *Core) addBalanceLocked(pub []byte, ticker string, delta int64) error {
	key := balanceKey(pub, ticker)
	var cur int64
	if err := c.withReopen(func() error {
		v, err := c.store.Get(key)
		if errors.Is(err, kv.ErrNotFound) {
			cur = 0
			return nil
		}
		if err != nil {
			return err
		}
		cur = decodeBalance(v)
		return nil
	}); err != nil {
		return err
	}

	next := cur + delta
	if next < 0 {
		next = 0
	}
	val := encodeBalance(next)
	return c.withReopen(func() error { return c.store.Put(key, val) })
}

func (c *Core) undo(insc types.Inscription, tx types.Tx) error {
	switch insc.Kind {
	case types.KindNameOp:
		return c.undoNameOp(insc.NameOp)
	case types.KindTokenMint:
		return c.undoTokenMint(insc.TokenMint)
	case types.KindTokenDeploy:
		// A deploy is never inverted: a reorg that removes a deploy leaves
		// the token state in place, matching mint rollback's one-directional
		// treatment of supply.
	}
	return nil
}

func (c *Core) undoNameOp(op *types.NameOp) error {
	ns := normalize(string(op.Namespace))
	name := normalize(op.Name)

	switch op.Op {
	case types.NameOpReg:
		key := nameKey(ns, name)
		if err := c.withReopen(func() error { return c.store.Delete(key) }); err != nil {
			return fmt.Errorf("undo name registration for %s: %w", name, err)
		}
		if c.countersLoaded && c.totalNames > 0 {
			c.totalNames--
		}
	case types.NameOpUpd, types.NameOpTrf:
		// Not inverted: an update or transfer removed by a reorg leaves the
		// current relay/owner as-is, since no prior-value history is kept.
	}
	return nil
}

func (c *Core) undoTokenMint(m *types.TokenMint) error {
	ts, found, err := c.lookupTokenLocked(m.Ticker)
	if err != nil {
		return fmt.Errorf("look up token %s: %w", m.Ticker, err)
	}
	if !found {
		return nil
	}
	ts.TotalMinted -= m.Amt
	if ts.TotalMinted < 0 {
		ts.TotalMinted = 0
	}
	if err := c.putTokenLocked(ts); err != nil {
		return fmt.Errorf("undo token mint for %s: %w", m.Ticker, err)
	}
	// The holder's balance is intentionally left as-is: nothing records
	// which holder a given mint credited, so rollback can only recover the
	// token's total-minted counter.
	return nil
}

func (c *Core) emit(kind string, payload interface{}, blockSeq int64, txIndex uint32) {
	if c.onEvent == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		c.log.Error().Err(err).Str("kind", kind).Msg("failed to marshal event payload")
		return
	}
	c.onEvent(kind, string(b), blockSeq, txIndex)
}

func (c *Core) lookupNameLocked(ns, name string) (types.NameRecord, bool, error) {
	if c.recreate {
		rec, ok := c.names[cacheKey(ns, name)]
		return rec, ok, nil
	}
	var v []byte
	var found bool
	if err := c.withReopen(func() error {
		val, err := c.store.Get(nameKey(ns, name))
		if errors.Is(err, kv.ErrNotFound) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		v, found = val, true
		return nil
	}); err != nil {
		return types.NameRecord{}, false, err
	}
	if !found {
		return types.NameRecord{}, false, nil
	}
	rec, err := decodeNameRecord(v)
	if err != nil {
		return types.NameRecord{}, false, err
	}
	return rec, true, nil
}

func (c *Core) putNameLocked(ns, name string, rec types.NameRecord) error {
	val, err := encodeNameRecord(rec)
	if err != nil {
		return err
	}
	key := nameKey(ns, name)
	if err := c.withReopen(func() error { return c.store.Put(key, val) }); err != nil {
		return err
	}
	if c.recreate {
		c.names[cacheKey(ns, name)] = rec
	}
	return nil
}

func (c *Core) lookupTokenLocked(ticker string) (types.TokenState, bool, error) {
	if c.recreate {
		ts, ok := c.tokens[ticker]
		return ts, ok, nil
	}
	var v []byte
	var found bool
	if err := c.withReopen(func() error {
		val, err := c.store.Get(tokenKey(ticker))
		if errors.Is(err, kv.ErrNotFound) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		v, found = val, true
		return nil
	}); err != nil {
		return types.TokenState{}, false, err
	}
	if !found {
		return types.TokenState{}, false, nil
	}
	var ts types.TokenState
	if err := json.Unmarshal(v, &ts); err != nil {
		return types.TokenState{}, false, fmt.Errorf("oic: decode token state: %w", err)
	}
	return ts, true, nil
}

func (c *Core) putTokenLocked(ts types.TokenState) error {
	v, err := json.Marshal(ts)
	if err != nil {
		return err
	}
	key := tokenKey(ts.Ticker)
	if err := c.withReopen(func() error { return c.store.Put(key, v) }); err != nil {
		return err
	}
	if c.recreate {
		c.tokens[ts.Ticker] = ts
	}
	return nil
}
