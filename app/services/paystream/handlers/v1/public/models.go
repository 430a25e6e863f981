package public

import (
	"github.com/ardanlabs/paystream/app/services/paystream/handlers/v1/view"
	"github.com/ardanlabs/paystream/foundation/nameservice"
	"github.com/ardanlabs/paystream/foundation/paystream/ledger"
	"github.com/holiman/uint256"
)

type stream struct {
	ID               uint64     `json:"id"`
	Employee         string     `json:"employee"`
	EmployeeName     string     `json:"employee_name"`
	RatePerSecond    view.Value `json:"rate_per_second"`
	LastCheckpoint   uint64     `json:"last_checkpoint"`
	TaxBps           uint64     `json:"tax_bps"`
	Active           bool       `json:"active"`
	Paused           bool       `json:"paused"`
	BonusAmount      view.Value `json:"bonus_amount"`
	BonusReleaseTime uint64     `json:"bonus_release_time"`
	BonusClaimed     bool       `json:"bonus_claimed"`
	CreatedAt        uint64     `json:"created_at"`
	Accrued          view.Value `json:"accrued"`
	NetWithdrawable  view.Value `json:"net_withdrawable"`
}

func toStream(s ledger.Stream, ns *nameservice.NameService, accrued *uint256.Int, net *uint256.Int) stream {
	return stream{
		ID:               s.ID,
		Employee:         string(s.Employee),
		EmployeeName:     ns.Lookup(s.Employee),
		RatePerSecond:    view.ToValue(s.RatePerSecond),
		LastCheckpoint:   s.LastCheckpoint,
		TaxBps:           s.TaxBps,
		Active:           s.Active,
		Paused:           s.Paused,
		BonusAmount:      view.ToValue(s.BonusAmount),
		BonusReleaseTime: s.BonusReleaseTime,
		BonusClaimed:     s.BonusClaimed,
		CreatedAt:        s.CreatedAt,
		Accrued:          view.ToValue(accrued),
		NetWithdrawable:  view.ToValue(net),
	}
}

type info struct {
	Account string     `json:"account"`
	Name    string     `json:"name"`
	Balance view.Value `json:"balance"`
	Nonce   uint64     `json:"nonce"`
}

type treasury struct {
	Balance          view.Value `json:"balance"`
	TotalPrincipal   view.Value `json:"total_principal"`
	AccumulatedYield view.Value `json:"accumulated_yield"`
	YieldRateBps     uint64     `json:"yield_rate_bps"`
	Sponsorship      view.Value `json:"sponsorship"`
	TaxCollected     view.Value `json:"tax_collected"`
	TaxHeld          view.Value `json:"tax_held"`
}

// signedWithdraw is the request a relayer submits on behalf of an employee.
type signedWithdraw struct {
	Nonce      uint64 `json:"nonce"`
	Deadline   uint64 `json:"deadline" validate:"required"`
	Signature  string `json:"signature" validate:"required,hexadecimal"`
	RelayerFee string `json:"relayer_fee" validate:"omitempty,numeric"`
}
