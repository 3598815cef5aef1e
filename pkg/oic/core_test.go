package oic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akaitrade/ordinalindex/pkg/types"
)

func userField(payload string) map[int]types.UserField {
	return map[int]types.UserField{
		1000: {Kind: types.UserFieldString, Value: payload},
	}
}

func nameOpTx(poolSeq int64, index uint32, source, target, op, name, relay string) types.Tx {
	payload := `{"p":"cns","op":"` + op + `","cns":"` + name + `"`
	if relay != "" {
		payload += `,"relay":"` + relay + `"`
	}
	payload += `}`
	return types.Tx{PoolSeq: poolSeq, Index: index, Source: source, Target: target, UserFields: userField(payload)}
}

func deployTx(poolSeq int64, index uint32, source, ticker, max, lim string) types.Tx {
	payload := `{"p":"crc20","op":"deploy","tick":"` + ticker + `","max":"` + max + `","lim":"` + lim + `"}`
	return types.Tx{PoolSeq: poolSeq, Index: index, Source: source, UserFields: userField(payload)}
}

func mintTx(poolSeq int64, index uint32, source, ticker, amt string) types.Tx {
	payload := `{"p":"crc20","op":"mint","tick":"` + ticker + `","amt":"` + amt + `"}`
	return types.Tx{PoolSeq: poolSeq, Index: index, Source: source, UserFields: userField(payload)}
}

func TestGenesisRegistration(t *testing.T) {
	core := newTestCore(t)
	require.NoError(t, core.OnReadFinished())

	var events []string
	core.OnEvent(func(kind, payload string, block int64, txIndex uint32) {
		events = append(events, kind)
	})

	block := types.Block{Seq: 1, Txs: []types.Tx{
		nameOpTx(1, 0, "A", "", "reg", "Alice", "ipfs://x"),
	}}
	require.NoError(t, core.OnNewBlock(block))

	rec, found, err := core.LookupName("cns", "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "alice", rec.Name)
	assert.Equal(t, "ipfs://x", rec.Relay)
	assert.Equal(t, "A", rec.Owner)
	assert.Equal(t, int64(1), rec.FirstSeenBlock)
	assert.Equal(t, uint32(0), rec.FirstSeenTxIndex)
	assert.Equal(t, 1, core.TotalNames())
	assert.Equal(t, []string{"name_registration"}, events)
}

// Two registrations of the same name in one block resolve by transaction
// index: the lower index wins.
func TestFirstSeenWinsWithinBlock(t *testing.T) {
	core := newTestCore(t)
	require.NoError(t, core.OnReadFinished())

	block := types.Block{Seq: 2, Txs: []types.Tx{
		nameOpTx(2, 0, "A", "", "reg", "bob", ""),
		nameOpTx(2, 1, "B", "", "reg", "bob", ""),
	}}
	require.NoError(t, core.OnNewBlock(block))

	rec, found, err := core.LookupName("cns", "bob")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "A", rec.Owner)
	assert.Equal(t, int64(2), rec.FirstSeenBlock)
	assert.Equal(t, uint32(0), rec.FirstSeenTxIndex)
}

// A transfer moves ownership to the target but never touches the
// first-seen coordinates.
func TestOwnershipPreservingTransfer(t *testing.T) {
	core := newTestCore(t)
	require.NoError(t, core.OnReadFinished())

	require.NoError(t, core.OnNewBlock(types.Block{Seq: 1, Txs: []types.Tx{
		nameOpTx(1, 0, "A", "", "reg", "Alice", "ipfs://x"),
	}}))

	var lastEvent string
	core.OnEvent(func(kind, payload string, block int64, txIndex uint32) {
		lastEvent = kind
	})

	require.NoError(t, core.OnNewBlock(types.Block{Seq: 3, Txs: []types.Tx{
		nameOpTx(3, 0, "A", "B", "trf", "Alice", ""),
	}}))

	rec, found, err := core.LookupName("cns", "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "B", rec.Owner)
	assert.Equal(t, int64(1), rec.FirstSeenBlock)
	assert.Equal(t, uint32(0), rec.FirstSeenTxIndex)
	assert.Equal(t, "name_transfer", lastEvent)
}

// A transfer whose source is not the current owner is silently ignored.
func TestNonOwnerTransferIgnored(t *testing.T) {
	core := newTestCore(t)
	require.NoError(t, core.OnReadFinished())

	require.NoError(t, core.OnNewBlock(types.Block{Seq: 1, Txs: []types.Tx{
		nameOpTx(1, 0, "A", "", "reg", "alice", ""),
	}}))
	require.NoError(t, core.OnNewBlock(types.Block{Seq: 2, Txs: []types.Tx{
		nameOpTx(2, 0, "C", "D", "trf", "alice", ""),
	}}))

	rec, found, err := core.LookupName("cns", "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "A", rec.Owner)
}

// A sequence of mints against one deploy: mints land until the supply cap
// would be exceeded, and a rejected mint leaves room for a later smaller
// one.
func TestTokenDeployMintCap(t *testing.T) {
	core := newTestCore(t)
	require.NoError(t, core.OnReadFinished())

	require.NoError(t, core.OnNewBlock(types.Block{Seq: 4, Txs: []types.Tx{
		deployTx(4, 0, "D", "FOO", "100", "40"),
	}}))

	require.NoError(t, core.OnNewBlock(types.Block{Seq: 5, Txs: []types.Tx{
		mintTx(5, 0, "A", "FOO", "40"),
	}}))
	require.NoError(t, core.OnNewBlock(types.Block{Seq: 6, Txs: []types.Tx{
		mintTx(6, 0, "A", "FOO", "40"),
	}}))
	// Rejected: would exceed maxSupply (80+40=120 > 100).
	require.NoError(t, core.OnNewBlock(types.Block{Seq: 7, Txs: []types.Tx{
		mintTx(7, 0, "A", "FOO", "40"),
	}}))
	require.NoError(t, core.OnNewBlock(types.Block{Seq: 8, Txs: []types.Tx{
		mintTx(8, 0, "A", "FOO", "20"),
	}}))

	ts, found, err := core.GetToken("FOO")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(100), ts.TotalMinted)

	bal, err := core.GetTokenBalance("A", "FOO")
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal)
}

// Once totalMinted equals maxSupply, even a mint of 1 is rejected.
func TestMintRejectedAtCap(t *testing.T) {
	core := newTestCore(t)
	require.NoError(t, core.OnReadFinished())

	require.NoError(t, core.OnNewBlock(types.Block{Seq: 1, Txs: []types.Tx{
		deployTx(1, 0, "D", "BAR", "10", "10"),
	}}))
	require.NoError(t, core.OnNewBlock(types.Block{Seq: 2, Txs: []types.Tx{
		mintTx(2, 0, "A", "BAR", "10"),
	}}))
	require.NoError(t, core.OnNewBlock(types.Block{Seq: 3, Txs: []types.Tx{
		mintTx(3, 0, "A", "BAR", "1"),
	}}))

	ts, _, err := core.GetToken("BAR")
	require.NoError(t, err)
	assert.Equal(t, int64(10), ts.TotalMinted)
}

// A mint of exactly limitPerMint is accepted; one unit over is rejected.
func TestMintLimitBoundary(t *testing.T) {
	core := newTestCore(t)
	require.NoError(t, core.OnReadFinished())

	require.NoError(t, core.OnNewBlock(types.Block{Seq: 1, Txs: []types.Tx{
		deployTx(1, 0, "D", "BAZ", "1000", "50"),
	}}))
	require.NoError(t, core.OnNewBlock(types.Block{Seq: 2, Txs: []types.Tx{
		mintTx(2, 0, "A", "BAZ", "51"),
	}}))

	ts, _, err := core.GetToken("BAZ")
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts.TotalMinted)

	require.NoError(t, core.OnNewBlock(types.Block{Seq: 3, Txs: []types.Tx{
		mintTx(3, 0, "A", "BAZ", "50"),
	}}))
	ts, _, err = core.GetToken("BAZ")
	require.NoError(t, err)
	assert.Equal(t, int64(50), ts.TotalMinted)
}

// Names normalize to lowercase: a second registration of another-case
// spelling of the same name is rejected.
func TestNameCaseNormalization(t *testing.T) {
	core := newTestCore(t)
	require.NoError(t, core.OnReadFinished())

	require.NoError(t, core.OnNewBlock(types.Block{Seq: 1, Txs: []types.Tx{
		nameOpTx(1, 0, "A", "", "reg", "MixedCase", ""),
	}}))
	require.NoError(t, core.OnNewBlock(types.Block{Seq: 2, Txs: []types.Tx{
		nameOpTx(2, 0, "B", "", "reg", "mixedcase", ""),
	}}))

	rec, found, err := core.LookupName("cns", "MIXEDCASE")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "A", rec.Owner)
}

// An inscription with an unrecognized op parses as a non-inscription and
// leaves state untouched.
func TestUnknownOpIgnored(t *testing.T) {
	core := newTestCore(t)
	require.NoError(t, core.OnReadFinished())

	tx := types.Tx{PoolSeq: 1, Index: 0, Source: "A", UserFields: userField(`{"p":"cns","op":"frobnicate","cns":"x"}`)}
	require.NoError(t, core.OnNewBlock(types.Block{Seq: 1, Txs: []types.Tx{tx}}))

	assert.Equal(t, 0, core.TotalNames())
}

// Removing a block deletes the registrations it carried and decrements the
// watermark and counters.
func TestReorgOfRegistration(t *testing.T) {
	core := newTestCore(t)
	require.NoError(t, core.OnReadFinished())

	require.NoError(t, core.OnNewBlock(types.Block{Seq: 1, Txs: []types.Tx{
		nameOpTx(1, 0, "A", "", "reg", "alice", ""),
	}}))
	require.Equal(t, 1, core.TotalNames())
	require.Equal(t, uint64(1), core.IndexedHeight())

	require.NoError(t, core.OnRemoveBlock(types.Block{Seq: 1, Txs: []types.Tx{
		nameOpTx(1, 0, "A", "", "reg", "alice", ""),
	}}))

	_, found, err := core.LookupName("cns", "alice")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, core.TotalNames())
	assert.Equal(t, uint64(0), core.IndexedHeight())
}

// Open-question decision: mint rollback does not restore the holder's
// balance, matching the observed (non-inverse) behavior the design
// preserves.
func TestReorgOfMintDoesNotRestoreBalance(t *testing.T) {
	core := newTestCore(t)
	require.NoError(t, core.OnReadFinished())

	require.NoError(t, core.OnNewBlock(types.Block{Seq: 1, Txs: []types.Tx{
		deployTx(1, 0, "D", "QUX", "100", "50"),
	}}))
	mint := mintTx(2, 0, "A", "QUX", "50")
	require.NoError(t, core.OnNewBlock(types.Block{Seq: 2, Txs: []types.Tx{mint}}))

	require.NoError(t, core.OnRemoveBlock(types.Block{Seq: 2, Txs: []types.Tx{mint}}))

	ts, _, err := core.GetToken("QUX")
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts.TotalMinted)

	bal, err := core.GetTokenBalance("A", "QUX")
	require.NoError(t, err)
	assert.Equal(t, int64(50), bal, "balance is not rolled back on reorg, per design")
}

// Applying a reg for an already-registered name is a no-op.
func TestRegistrationIdempotent(t *testing.T) {
	core := newTestCore(t)
	require.NoError(t, core.OnReadFinished())

	require.NoError(t, core.OnNewBlock(types.Block{Seq: 1, Txs: []types.Tx{
		nameOpTx(1, 0, "A", "", "reg", "alice", "ipfs://first"),
	}}))
	require.NoError(t, core.OnNewBlock(types.Block{Seq: 2, Txs: []types.Tx{
		nameOpTx(2, 0, "B", "", "reg", "alice", "ipfs://second"),
	}}))

	rec, _, err := core.LookupName("cns", "alice")
	require.NoError(t, err)
	assert.Equal(t, "A", rec.Owner)
	assert.Equal(t, "ipfs://first", rec.Relay)
}

func TestNamesByOwner(t *testing.T) {
	core := newTestCore(t)
	require.NoError(t, core.OnReadFinished())

	require.NoError(t, core.OnNewBlock(types.Block{Seq: 1, Txs: []types.Tx{
		nameOpTx(1, 0, "A", "", "reg", "alice", ""),
		nameOpTx(1, 1, "A", "", "reg", "alicia", ""),
		nameOpTx(1, 2, "B", "", "reg", "bob", ""),
	}}))

	recs, err := core.NamesByOwner("A")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestRecreateAppliesReplayedBlocks(t *testing.T) {
	core := newTestCore(t)
	require.NoError(t, core.OnReadFromDB(types.Block{Seq: 1, Txs: []types.Tx{
		nameOpTx(1, 0, "A", "", "reg", "alice", ""),
	}}))
	require.NoError(t, core.OnReadFinished())
	assert.Equal(t, uint64(1), core.IndexedHeight())
	assert.Equal(t, 1, core.TotalNames())
}
