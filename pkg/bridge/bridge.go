package bridge

import (
	"github.com/rs/zerolog"

	"github.com/akaitrade/ordinalindex/pkg/log"
	"github.com/akaitrade/ordinalindex/pkg/oic"
	"github.com/akaitrade/ordinalindex/pkg/types"
)

// Core is the subset of oic.Core's surface the bridge drives. Bridge depends
// on this instead of *oic.Core directly so tests can substitute a fake.
type Core interface {
	Open() error
	OnStartReadFromDB(lastWritten uint64) error
	OnReadFromDB(block types.Block) error
	OnReadFinished() error
	OnNewBlock(block types.Block) error
	OnRemoveBlock(block types.Block) error
}

// Bridge is the seam between the chain component's block-delivery callbacks
// and the Ordinal Index Core. It holds no state of its own beyond the Core
// it wraps and a logger.
type Bridge struct {
	core Core
	log  zerolog.Logger
}

// New wraps core. Callers outside this package construct the concrete
// *oic.Core with a Base58Resolver and pass it in here.
func New(core Core) *Bridge {
	return &Bridge{core: core, log: log.WithComponent("bridge")}
}

// Open prepares the underlying core for replay.
func (b *Bridge) Open() error {
	return b.core.Open()
}

// OnStartReadFromDB begins a bulk replay up to lastWritten.
func (b *Bridge) OnStartReadFromDB(lastWritten uint64) error {
	b.log.Info().Uint64("last_written", lastWritten).Msg("start read from db")
	return b.core.OnStartReadFromDB(lastWritten)
}

// OnReadFromDB applies one historical block during bulk replay.
func (b *Bridge) OnReadFromDB(block types.Block) error {
	return b.core.OnReadFromDB(block)
}

// OnReadFinished ends the bulk replay.
func (b *Bridge) OnReadFinished() error {
	b.log.Info().Msg("read finished; index is live")
	return b.core.OnReadFinished()
}

// OnNewBlock applies one live-appended block.
func (b *Bridge) OnNewBlock(block types.Block) error {
	return b.core.OnNewBlock(block)
}

// OnRemoveBlock reverses one block's effects for a reorg.
func (b *Bridge) OnRemoveBlock(block types.Block) error {
	b.log.Warn().Int64("block", block.Seq).Msg("removing block")
	return b.core.OnRemoveBlock(block)
}

var _ Core = (*oic.Core)(nil)
