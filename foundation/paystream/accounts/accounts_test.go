package accounts_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	kennedy = accounts.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
	pavel   = accounts.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	ceasar  = accounts.AccountID("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76")
)

func TestTransfers(t *testing.T) {
	type transfer struct {
		from   accounts.AccountID
		to     accounts.AccountID
		amount uint64
		err    error
	}

	type table struct {
		name      string
		sheet     map[accounts.AccountID]*uint256.Int
		transfers []transfer
		final     map[accounts.AccountID]uint64
	}

	tt := []table{
		{
			name: "basic",
			sheet: map[accounts.AccountID]*uint256.Int{
				kennedy: uint256.NewInt(1000),
			},
			transfers: []transfer{
				{from: kennedy, to: pavel, amount: 300},
				{from: pavel, to: ceasar, amount: 100},
			},
			final: map[accounts.AccountID]uint64{
				kennedy: 700,
				pavel:   200,
				ceasar:  100,
			},
		},
		{
			name: "insufficient",
			sheet: map[accounts.AccountID]*uint256.Int{
				kennedy: uint256.NewInt(50),
			},
			transfers: []transfer{
				{from: kennedy, to: pavel, amount: 51, err: accounts.ErrInsufficientFunds},
				{from: pavel, to: kennedy, amount: 1, err: accounts.ErrInsufficientFunds},
				{from: kennedy, to: pavel, amount: 50},
			},
			final: map[accounts.AccountID]uint64{
				kennedy: 0,
				pavel:   50,
			},
		},
		{
			name: "overflow",
			sheet: map[accounts.AccountID]*uint256.Int{
				kennedy: uint256.NewInt(1),
				pavel:   new(uint256.Int).SetAllOne(),
			},
			transfers: []transfer{
				{from: kennedy, to: pavel, amount: 1, err: amount.ErrOverflow},
			},
			final: map[accounts.AccountID]uint64{
				kennedy: 1,
			},
		},
	}

	t.Log("Given the need to move funds between accounts.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a set of transfers.", testID)
				{
					book := accounts.New(tst.sheet)

					for _, tr := range tst.transfers {
						err := book.Transfer(tr.from, tr.to, uint256.NewInt(tr.amount))
						if !errors.Is(err, tr.err) {
							t.Fatalf("\t%s\tTest %d:\tShould get the expected transfer result: got %v, exp %v", failed, testID, err, tr.err)
						}
						t.Logf("\t%s\tTest %d:\tShould get the expected transfer result.", success, testID)
					}

					for id, exp := range tst.final {
						got := book.Balance(id)
						if !got.Eq(uint256.NewInt(exp)) {
							t.Errorf("\t%s\tTest %d:\tShould have correct balance for %s.", failed, testID, id)
							t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got)
							t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, exp)
						} else {
							t.Logf("\t%s\tTest %d:\tShould have correct balance for %s.", success, testID, id)
						}
					}
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestCredit(t *testing.T) {
	t.Log("Given the need to create funds in an account.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the credit would overflow the balance.", testID)
		{
			book := accounts.New(map[accounts.AccountID]*uint256.Int{
				kennedy: new(uint256.Int).SetAllOne(),
			})

			if err := book.Credit(kennedy, uint256.NewInt(1)); !errors.Is(err, amount.ErrOverflow) {
				t.Fatalf("\t%s\tTest %d:\tShould fail with an overflow, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fail with an overflow.", success, testID)

			if !book.Balance(kennedy).Eq(new(uint256.Int).SetAllOne()) {
				t.Fatalf("\t%s\tTest %d:\tShould leave the balance alone.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the balance alone.", success, testID)

			if err := book.Credit(pavel, uint256.NewInt(7)); err != nil || !book.Balance(pavel).Eq(uint256.NewInt(7)) {
				t.Fatalf("\t%s\tTest %d:\tShould credit a new account: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould credit a new account.", success, testID)
		}
	}
}

func TestClone(t *testing.T) {
	t.Log("Given the need to work on a copy of the accounts.")
	{
		t.Logf("\tTest 0:\tWhen changing a clone.")
		{
			book := accounts.New(map[accounts.AccountID]*uint256.Int{kennedy: uint256.NewInt(10)})
			clone := book.Clone()

			if err := clone.Transfer(kennedy, pavel, uint256.NewInt(10)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to transfer on the clone: %s", failed, err)
			}
			if err := clone.Credit(ceasar, uint256.NewInt(5)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to credit the clone: %s", failed, err)
			}

			if !book.Balance(kennedy).Eq(uint256.NewInt(10)) || !book.Balance(pavel).IsZero() || !book.Balance(ceasar).IsZero() {
				t.Fatalf("\t%s\tTest 0:\tShould leave the original untouched.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould leave the original untouched.", success)

			if got := len(clone.Copy()); got != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould see three accounts in the clone, got %d.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould see three accounts in the clone.", success)
		}
	}
}

func TestAccountID(t *testing.T) {
	t.Log("Given the need to validate account ids.")
	{
		t.Logf("\tTest 0:\tWhen parsing account ids.")
		{
			const lower = "0xf01813e4b85e178a83e29b8e7bf26bd830a25f32"

			id, err := accounts.ToAccountID(lower)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould parse a lower case id: %s", failed, err)
			}
			if id != accounts.AccountID(common.HexToAddress(lower).Hex()) || id == lower {
				t.Fatalf("\t%s\tTest 0:\tShould normalize to checksum form, got %s.", failed, id)
			}
			t.Logf("\t%s\tTest 0:\tShould normalize to checksum form.", success)

			if _, err := accounts.ToAccountID("0x1234"); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a short id.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a short id.", success)

			if !accounts.ZeroAccountID.IsZero() || !accounts.AccountID("").IsZero() || kennedy.IsZero() {
				t.Fatalf("\t%s\tTest 0:\tShould detect the zero account.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould detect the zero account.", success)
		}
	}
}
