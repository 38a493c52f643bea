package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferDirection filters transfer history relative to an address.
type TransferDirection string

const (
	TransferAll      TransferDirection = "all"
	TransferSent     TransferDirection = "sent"
	TransferReceived TransferDirection = "received"
)

// Transfer is one utility-token movement involving the user's wallet.
type Transfer struct {
	Hash        string          `json:"hash"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Value       decimal.Decimal `json:"value"`
	BlockNumber uint64          `json:"blockNumber"`
	Timestamp   time.Time       `json:"timestamp"`
	Received    bool            `json:"isReceived"`
}
