package bridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akaitrade/ordinalindex/pkg/types"
)

type fakeCore struct {
	opened      bool
	started     uint64
	read        []types.Block
	finished    bool
	applied     []types.Block
	removed     []types.Block
	failOnStart error
}

func (f *fakeCore) Open() error { f.opened = true; return nil }

func (f *fakeCore) OnStartReadFromDB(lastWritten uint64) error {
	f.started = lastWritten
	return f.failOnStart
}

func (f *fakeCore) OnReadFromDB(block types.Block) error {
	f.read = append(f.read, block)
	return nil
}

func (f *fakeCore) OnReadFinished() error {
	f.finished = true
	return nil
}

func (f *fakeCore) OnNewBlock(block types.Block) error {
	f.applied = append(f.applied, block)
	return nil
}

func (f *fakeCore) OnRemoveBlock(block types.Block) error {
	f.removed = append(f.removed, block)
	return nil
}

func TestBridgeReplaySequence(t *testing.T) {
	fc := &fakeCore{}
	b := New(fc)

	require.NoError(t, b.Open())
	require.NoError(t, b.OnStartReadFromDB(10))
	require.NoError(t, b.OnReadFromDB(types.Block{Seq: 1}))
	require.NoError(t, b.OnReadFromDB(types.Block{Seq: 2}))
	require.NoError(t, b.OnReadFinished())

	assert.True(t, fc.opened)
	assert.Equal(t, uint64(10), fc.started)
	assert.Len(t, fc.read, 2)
	assert.True(t, fc.finished)
}

func TestBridgeLiveBlocks(t *testing.T) {
	fc := &fakeCore{}
	b := New(fc)

	require.NoError(t, b.OnNewBlock(types.Block{Seq: 5}))
	require.NoError(t, b.OnRemoveBlock(types.Block{Seq: 5}))

	assert.Len(t, fc.applied, 1)
	assert.Len(t, fc.removed, 1)
}

func TestBridgePropagatesStartError(t *testing.T) {
	fc := &fakeCore{failOnStart: errors.New("boom")}
	b := New(fc)

	err := b.OnStartReadFromDB(1)
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}
