package service

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"github.com/pitchbase/pitchbase/core"
)

// transferTopic is the event signature hash of ERC-20 Transfer(address,address,uint256).
var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// ChainReader is the subset of the Ethereum RPC client the transfer service
// depends on. *ethclient.Client satisfies it.
type ChainReader interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// TransferService lists utility-token movements for a wallet by reading
// Transfer logs of the configured token contract.
type TransferService struct {
	chain    ChainReader
	token    common.Address
	decimals int32
}

// NewTransferService creates a transfer history service for one token
// contract. decimals is the token's decimal scale (18 for the pitch token).
func NewTransferService(chain ChainReader, token common.Address, decimals int32) *TransferService {
	return &TransferService{chain: chain, token: token, decimals: decimals}
}

// History returns the transfers involving address, newest first, optionally
// filtered by direction.
func (s *TransferService) History(ctx context.Context, address common.Address, direction core.TransferDirection) ([]core.Transfer, error) {
	addrTopic := common.BytesToHash(common.LeftPadBytes(address.Bytes(), 32))

	var logs []types.Log
	if direction == core.TransferAll || direction == core.TransferSent {
		sent, err := s.chain.FilterLogs(ctx, ethereum.FilterQuery{
			Addresses: []common.Address{s.token},
			Topics:    [][]common.Hash{{transferTopic}, {addrTopic}},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch sent transfers: %w", err)
		}
		logs = append(logs, sent...)
	}
	if direction == core.TransferAll || direction == core.TransferReceived {
		received, err := s.chain.FilterLogs(ctx, ethereum.FilterQuery{
			Addresses: []common.Address{s.token},
			Topics:    [][]common.Hash{{transferTopic}, nil, {addrTopic}},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch received transfers: %w", err)
		}
		logs = append(logs, received...)
	}

	// A self-transfer shows up in both queries
	seen := make(map[string]struct{}, len(logs))
	headers := make(map[uint64]time.Time)

	transfers := make([]core.Transfer, 0, len(logs))
	for _, lg := range logs {
		if len(lg.Topics) != 3 {
			continue
		}
		key := fmt.Sprintf("%s:%d", lg.TxHash.Hex(), lg.Index)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		ts, err := s.blockTime(ctx, headers, lg.BlockNumber)
		if err != nil {
			return nil, err
		}

		to := common.BytesToAddress(lg.Topics[2].Bytes())
		transfers = append(transfers, core.Transfer{
			Hash:        lg.TxHash.Hex(),
			From:        common.BytesToAddress(lg.Topics[1].Bytes()).Hex(),
			To:          to.Hex(),
			Value:       decimal.NewFromBigInt(new(big.Int).SetBytes(lg.Data), -s.decimals),
			BlockNumber: lg.BlockNumber,
			Timestamp:   ts,
			Received:    to == address,
		})
	}

	sort.Slice(transfers, func(i, j int) bool {
		return transfers[i].BlockNumber > transfers[j].BlockNumber
	})

	return transfers, nil
}

func (s *TransferService) blockTime(ctx context.Context, cache map[uint64]time.Time, block uint64) (time.Time, error) {
	if ts, ok := cache[block]; ok {
		return ts, nil
	}

	header, err := s.chain.HeaderByNumber(ctx, new(big.Int).SetUint64(block))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch block %d header: %w", block, err)
	}

	ts := time.Unix(int64(header.Time), 0).UTC()
	cache[block] = ts
	return ts, nil
}
