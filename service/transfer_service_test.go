package service

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchbase/pitchbase/core"
)

var (
	tokenAddr = common.HexToAddress("0x00000000000000000000000000000000000000AA")
	alice     = common.HexToAddress("0x0000000000000000000000000000000000000A11")
	bob       = common.HexToAddress("0x0000000000000000000000000000000000000B0B")
)

// fakeChain serves canned Transfer logs, honoring the topic filters of the
// query the same way an RPC node would.
type fakeChain struct {
	logs []types.Log
}

func (f *fakeChain) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	var out []types.Log
	for _, lg := range f.logs {
		if !matchTopic(q.Topics, 0, lg.Topics[0]) ||
			!matchTopic(q.Topics, 1, lg.Topics[1]) ||
			!matchTopic(q.Topics, 2, lg.Topics[2]) {
			continue
		}
		out = append(out, lg)
	}
	return out, nil
}

func matchTopic(filter [][]common.Hash, pos int, topic common.Hash) bool {
	if len(filter) <= pos || len(filter[pos]) == 0 {
		return true
	}
	for _, h := range filter[pos] {
		if h == topic {
			return true
		}
	}
	return false
}

func (f *fakeChain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Time: 1700000000 + number.Uint64()}, nil
}

func addrTopic(a common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(a.Bytes(), 32))
}

func transferLog(from, to common.Address, value *big.Int, block uint64, txHash byte) types.Log {
	return types.Log{
		Address:     tokenAddr,
		Topics:      []common.Hash{transferTopic, addrTopic(from), addrTopic(to)},
		Data:        common.LeftPadBytes(value.Bytes(), 32),
		BlockNumber: block,
		TxHash:      common.BytesToHash([]byte{txHash}),
	}
}

func oneAndAHalfTokens() *big.Int {
	v, _ := new(big.Int).SetString("1500000000000000000", 10)
	return v
}

func TestHistoryDirections(t *testing.T) {
	chain := &fakeChain{logs: []types.Log{
		transferLog(alice, bob, oneAndAHalfTokens(), 10, 1),
		transferLog(bob, alice, big.NewInt(2e18), 12, 2),
	}}
	svc := NewTransferService(chain, tokenAddr, 18)
	ctx := context.Background()

	all, err := svc.History(ctx, alice, core.TransferAll)
	require.NoError(t, err)
	require.Len(t, all, 2)

	// Newest first
	assert.Equal(t, uint64(12), all[0].BlockNumber)
	assert.True(t, all[0].Received)
	assert.Equal(t, bob.Hex(), all[0].From)

	assert.Equal(t, uint64(10), all[1].BlockNumber)
	assert.False(t, all[1].Received)
	assert.True(t, all[1].Value.Equal(decimal.RequireFromString("1.5")), "got %s", all[1].Value)

	sent, err := svc.History(ctx, alice, core.TransferSent)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, alice.Hex(), sent[0].From)

	received, err := svc.History(ctx, alice, core.TransferReceived)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, alice.Hex(), received[0].To)
}

func TestHistoryDeduplicatesSelfTransfer(t *testing.T) {
	// A self-transfer matches both the sent and the received query
	chain := &fakeChain{logs: []types.Log{
		transferLog(alice, alice, big.NewInt(1e18), 5, 1),
	}}
	svc := NewTransferService(chain, tokenAddr, 18)

	all, err := svc.History(context.Background(), alice, core.TransferAll)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Received)
}

func TestHistoryTimestamps(t *testing.T) {
	chain := &fakeChain{logs: []types.Log{
		transferLog(alice, bob, big.NewInt(1e18), 7, 1),
	}}
	svc := NewTransferService(chain, tokenAddr, 18)

	all, err := svc.History(context.Background(), alice, core.TransferAll)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(1700000007), all[0].Timestamp.Unix())
}

func TestHistoryEmpty(t *testing.T) {
	svc := NewTransferService(&fakeChain{}, tokenAddr, 18)

	all, err := svc.History(context.Background(), alice, core.TransferAll)
	require.NoError(t, err)
	assert.Empty(t, all)
}
