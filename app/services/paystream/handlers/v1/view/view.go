// Package view holds the response forms shared by the v1 handler groups.
package view

import (
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/ardanlabs/paystream/foundation/paystream/ledger"
	"github.com/holiman/uint256"
)

// Value carries an amount in whole units and in base units.
type Value struct {
	Units string       `json:"units"`
	Base  *uint256.Int `json:"base"`
}

// ToValue renders the amount, treating nil as zero.
func ToValue(v *uint256.Int) Value {
	if v == nil {
		v = new(uint256.Int)
	}
	return Value{
		Units: amount.Format(v),
		Base:  v.Clone(),
	}
}

// Settlement is the receipt of a withdrawal or cancellation.
type Settlement struct {
	StreamID   uint64 `json:"stream_id"`
	Employee   string `json:"employee"`
	Accrued    Value  `json:"accrued"`
	Bonus      Value  `json:"bonus"`
	Gross      Value  `json:"gross"`
	Tax        Value  `json:"tax"`
	Net        Value  `json:"net"`
	Relayer    string `json:"relayer,omitempty"`
	RelayerFee Value  `json:"relayer_fee"`
	Nonce      uint64 `json:"nonce"`
	TimeStamp  uint64 `json:"timestamp"`
	Seq        uint64 `json:"seq"`
	Receipt    string `json:"receipt"`
}

// ToSettlement renders a ledger settlement.
func ToSettlement(stl ledger.Settlement) Settlement {
	return Settlement{
		StreamID:   stl.StreamID,
		Employee:   string(stl.Employee),
		Accrued:    ToValue(stl.Accrued),
		Bonus:      ToValue(stl.Bonus),
		Gross:      ToValue(stl.Gross),
		Tax:        ToValue(stl.Tax),
		Net:        ToValue(stl.Net),
		Relayer:    string(stl.Relayer),
		RelayerFee: ToValue(stl.RelayerFee),
		Nonce:      stl.Nonce,
		TimeStamp:  stl.TimeStamp,
		Seq:        stl.Seq,
		Receipt:    stl.Receipt,
	}
}
