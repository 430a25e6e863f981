package private

import (
	"fmt"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/ardanlabs/paystream/foundation/paystream/ledger"
	"github.com/holiman/uint256"
)

type newStream struct {
	Employee      string `json:"employee" validate:"required,account"`
	RatePerSecond string `json:"rate_per_second" validate:"required,numeric"`
	TaxBps        uint64 `json:"tax_bps" validate:"lte=10000"`
}

func (ns newStream) toLedger() (ledger.NewStream, error) {
	employee, err := accounts.ToAccountID(ns.Employee)
	if err != nil {
		return ledger.NewStream{}, fmt.Errorf("employee: %w", err)
	}

	rate, err := amount.Parse(ns.RatePerSecond)
	if err != nil {
		return ledger.NewStream{}, fmt.Errorf("rate: %w", err)
	}

	return ledger.NewStream{
		Employee:      employee,
		RatePerSecond: rate,
		TaxBps:        ns.TaxBps,
	}, nil
}

type batch struct {
	Streams []newStream `json:"streams" validate:"required,min=1,dive"`
}

type bonus struct {
	Amount      string `json:"amount" validate:"required,numeric"`
	ReleaseTime uint64 `json:"release_time" validate:"required"`
}

type funds struct {
	Amount string `json:"amount" validate:"required,numeric"`
}

type taxWithdraw struct {
	To     string `json:"to" validate:"required,account"`
	Amount string `json:"amount" validate:"required,numeric"`
}

type yieldRate struct {
	Bps uint64 `json:"bps"`
}

type created struct {
	IDs []uint64 `json:"ids"`
}

type bonusScheduled struct {
	StreamID    uint64 `json:"stream_id"`
	Amount      string `json:"amount"`
	ReleaseTime uint64 `json:"release_time"`
	Replaced    string `json:"replaced"`
}

type status struct {
	Status string `json:"status"`
	Seq    uint64 `json:"seq"`
}

func parseAmount(s string) (*uint256.Int, error) {
	v, err := amount.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	return v, nil
}
