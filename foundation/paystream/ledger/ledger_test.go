package ledger_test

import (
	"crypto/ecdsa"
	"errors"
	"testing"
	"time"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/amount"
	"github.com/ardanlabs/paystream/foundation/paystream/genesis"
	"github.com/ardanlabs/paystream/foundation/paystream/journal"
	"github.com/ardanlabs/paystream/foundation/paystream/journal/storage/memory"
	"github.com/ardanlabs/paystream/foundation/paystream/ledger"
	"github.com/ardanlabs/paystream/foundation/paystream/signature"
	"github.com/ardanlabs/paystream/foundation/paystream/taxcollector"
	"github.com/ardanlabs/paystream/foundation/paystream/vault"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	ownerID   = accounts.AccountID("0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8")
	ledgerID  = accounts.AccountID("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	vaultID   = accounts.AccountID("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	taxID     = accounts.AccountID("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
	relayerID = accounts.AccountID("0xa988b1866EaBF72B4c53b592c97aAD8e4b9bDCC0")

	employeeKey = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"
	strangerKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func (c *clock) advance(seconds int) {
	c.now = c.now.Add(time.Duration(seconds) * time.Second)
}

func (c *clock) unix() uint64 {
	return uint64(c.now.Unix())
}

func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		ChainID:      31337,
		Name:         "PayStream",
		Version:      "1",
		Ledger:       string(ledgerID),
		Vault:        string(vaultID),
		TaxCollector: string(taxID),
		Owner:        string(ownerID),
		MaxBatch:     200,
		Balances: map[string]string{
			string(ownerID): "1000000",
		},
	}
}

func key(t *testing.T, hex string) (*ecdsa.PrivateKey, accounts.AccountID) {
	pk, err := crypto.HexToECDSA(hex)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the private key: %s", failed, err)
	}
	return pk, accounts.PublicKeyToAccountID(pk.PublicKey)
}

// setup constructs a ledger with a funded treasury and one stream paying the
// employee one unit a second with 5% tax.
func setup(t *testing.T, strg journal.Storage, treasury uint64) (*ledger.Ledger, *clock, accounts.AccountID, uint64) {
	clk := clock{now: time.Unix(1_700_000_000, 0)}

	l, err := ledger.New(ledger.Config{
		Genesis: testGenesis(),
		Storage: strg,
		Now:     clk.Now,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the ledger: %s", failed, err)
	}

	if treasury > 0 {
		if _, err := l.DepositTreasury(ownerID, amount.Units(treasury)); err != nil {
			t.Fatalf("\t%s\tShould be able to fund the treasury: %s", failed, err)
		}
	}

	_, employee := key(t, employeeKey)

	id, err := l.CreateStream(ownerID, ledger.NewStream{
		Employee:      employee,
		RatePerSecond: amount.One(),
		TaxBps:        500,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create a stream: %s", failed, err)
	}

	return l, &clk, employee, id
}

func checkAmount(t *testing.T, testID int, what string, got *uint256.Int, exp *uint256.Int) {
	if got == nil || !got.Eq(exp) {
		t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, amount.Format(got))
		t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, amount.Format(exp))
		t.Fatalf("\t%s\tTest %d:\tShould have the right %s.", failed, testID, what)
	}
	t.Logf("\t%s\tTest %d:\tShould have the right %s.", success, testID, what)
}

func checkErr(t *testing.T, testID int, what string, err error, target error) {
	if !errors.Is(err, target) {
		t.Fatalf("\t%s\tTest %d:\tShould fail %s with %q, got %v.", failed, testID, what, target, err)
	}
	t.Logf("\t%s\tTest %d:\tShould fail %s with %q.", success, testID, what, target)
}

// =============================================================================

func TestAccrualAndWithdraw(t *testing.T) {
	t.Log("Given the need to stream salary to an employee.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen 100 seconds pass at one unit a second with 5%% tax.", testID)
		{
			l, clk, employee, id := setup(t, nil, 10_000)

			if id != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould assign stream id 1, got %d.", failed, testID, id)
			}
			t.Logf("\t%s\tTest %d:\tShould assign stream id 1.", success, testID)

			clk.advance(100)

			accrued, err := l.AccruedSalary(id)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read accrued salary: %s", failed, testID, err)
			}
			checkAmount(t, testID, "accrued salary", accrued, amount.Units(100))

			net, err := l.NetWithdrawable(id)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read net withdrawable: %s", failed, testID, err)
			}
			checkAmount(t, testID, "net withdrawable", net, amount.Units(95))

			stl, err := l.Withdraw(employee, id)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to withdraw: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to withdraw.", success, testID)

			checkAmount(t, testID, "settled net", stl.Net, amount.Units(95))
			checkAmount(t, testID, "employee balance", l.Balance(employee), amount.Units(95))
			checkAmount(t, testID, "treasury balance", l.TreasuryBalance(), amount.Units(9_900))

			total, held := l.TaxCollected()
			checkAmount(t, testID, "tax collected", total, amount.Units(5))
			checkAmount(t, testID, "tax held", held, amount.Units(5))

			accrued, _ = l.AccruedSalary(id)
			checkAmount(t, testID, "accrued salary after the withdrawal", accrued, new(uint256.Int))

			if stl.Receipt == "" || stl.Seq == 0 {
				t.Fatalf("\t%s\tTest %d:\tShould return a receipt.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould return a receipt.", success, testID)

			_, err = l.Withdraw(employee, id)
			checkErr(t, testID, "a second withdrawal in the same second", err, ledger.ErrNothingToWithdraw)
		}

		testID++
		t.Logf("\tTest %d:\tWhen someone other than the employee withdraws.", testID)
		{
			l, clk, _, id := setup(t, nil, 10_000)
			clk.advance(10)

			_, err := l.Withdraw(ownerID, id)
			checkErr(t, testID, "the withdrawal", err, ledger.ErrNotEmployee)

			_, err = l.Withdraw(ownerID, 99)
			checkErr(t, testID, "an unknown stream", err, ledger.ErrStreamNotFound)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the treasury cannot cover the withdrawal.", testID)
		{
			l, clk, employee, id := setup(t, nil, 10)
			clk.advance(100)

			_, err := l.Withdraw(employee, id)
			checkErr(t, testID, "the withdrawal", err, vault.ErrInsufficientBalance)

			if kind := ledger.KindOf(err); kind != ledger.KindResource {
				t.Fatalf("\t%s\tTest %d:\tShould classify as a resource error, got %s.", failed, testID, kind)
			}
			t.Logf("\t%s\tTest %d:\tShould classify as a resource error.", success, testID)

			accrued, _ := l.AccruedSalary(id)
			checkAmount(t, testID, "accrued salary left untouched", accrued, amount.Units(100))
			checkAmount(t, testID, "treasury left untouched", l.TreasuryBalance(), amount.Units(10))

			total, _ := l.TaxCollected()
			checkAmount(t, testID, "tax left untouched", total, new(uint256.Int))
		}
	}
}

func TestCreateStream(t *testing.T) {
	t.Log("Given the need to validate new streams.")
	{
		l, _, employee, _ := setup(t, nil, 0)

		tt := []struct {
			name string
			ns   ledger.NewStream
			err  error
		}{
			{"zero employee", ledger.NewStream{Employee: accounts.ZeroAccountID, RatePerSecond: amount.One()}, ledger.ErrZeroAddress},
			{"zero rate", ledger.NewStream{Employee: employee, RatePerSecond: new(uint256.Int)}, ledger.ErrInvalidRate},
			{"rate above the ceiling", ledger.NewStream{Employee: employee, RatePerSecond: amount.Units(ledger.DefaultMaxRatePerSecond + 1)}, ledger.ErrInvalidRate},
			{"tax above 100%", ledger.NewStream{Employee: employee, RatePerSecond: amount.One(), TaxBps: 10_001}, ledger.ErrInvalidTaxBps},
		}

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen creating a stream with a %s.", testID, tst.name)
			{
				_, err := l.CreateStream(ownerID, tst.ns)
				checkErr(t, testID, "the creation", err, tst.err)
			}
		}

		testID := len(tt)
		t.Logf("\tTest %d:\tWhen someone other than the owner creates a stream.", testID)
		{
			_, err := l.CreateStream(employee, ledger.NewStream{Employee: employee, RatePerSecond: amount.One()})
			checkErr(t, testID, "the creation", err, ledger.ErrUnauthorized)

			if n := len(l.Streams()); n != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould still have one stream, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould still have one stream.", success, testID)
		}
	}
}

func TestBatchCreateStreams(t *testing.T) {
	t.Log("Given the need to create streams in bulk.")
	{
		_, employee := key(t, employeeKey)

		batch := func(n int) []ledger.NewStream {
			b := make([]ledger.NewStream, n)
			for i := range b {
				b[i] = ledger.NewStream{Employee: employee, RatePerSecond: amount.One(), TaxBps: 100}
			}
			return b
		}

		testID := 0
		t.Logf("\tTest %d:\tWhen the batch holds 200 entries.", testID)
		{
			l, _, _, _ := setup(t, nil, 0)

			ids, err := l.BatchCreateStreams(ownerID, batch(200))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the batch: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to create the batch.", success, testID)

			if len(ids) != 200 || ids[0] != 2 || ids[199] != 201 {
				t.Fatalf("\t%s\tTest %d:\tShould assign sequential ids, got %d ids.", failed, testID, len(ids))
			}
			t.Logf("\t%s\tTest %d:\tShould assign sequential ids.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the batch size is out of range.", testID)
		{
			l, _, _, _ := setup(t, nil, 0)

			_, err := l.BatchCreateStreams(ownerID, batch(201))
			checkErr(t, testID, "a batch of 201", err, ledger.ErrInvalidBatchSize)

			_, err = l.BatchCreateStreams(ownerID, nil)
			checkErr(t, testID, "an empty batch", err, ledger.ErrInvalidBatchSize)
		}

		testID++
		t.Logf("\tTest %d:\tWhen one entry in the batch is invalid.", testID)
		{
			l, _, _, _ := setup(t, nil, 0)

			b := batch(5)
			b[3].TaxBps = 20_000

			_, err := l.BatchCreateStreams(ownerID, b)
			checkErr(t, testID, "the whole batch", err, ledger.ErrInvalidTaxBps)

			if n := len(l.Streams()); n != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould not create any stream, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould not create any stream.", success, testID)
		}
	}
}

func TestBonus(t *testing.T) {
	t.Log("Given the need to pay a one time bonus.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a 500 unit bonus is released after 50 seconds.", testID)
		{
			l, clk, employee, id := setup(t, nil, 10_000)

			replaced, err := l.ScheduleBonus(ownerID, id, amount.Units(500), clk.unix()+50)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to schedule the bonus: %s", failed, testID, err)
			}
			checkAmount(t, testID, "replaced bonus", replaced, new(uint256.Int))

			clk.advance(49)

			net, _ := l.NetWithdrawable(id)
			checkAmount(t, testID, "net withdrawable before release", net, amount.MustParse("46.55"))

			clk.advance(1)

			stl, err := l.Withdraw(employee, id)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to withdraw: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to withdraw.", success, testID)

			checkAmount(t, testID, "bonus paid", stl.Bonus, amount.Units(500))
			checkAmount(t, testID, "tax only on salary", stl.Tax, amount.MustParse("2.5"))
			checkAmount(t, testID, "net paid", stl.Net, amount.MustParse("547.5"))

			s, _ := l.StreamInfo(id)
			if !s.BonusClaimed {
				t.Fatalf("\t%s\tTest %d:\tShould mark the bonus claimed.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould mark the bonus claimed.", success, testID)

			clk.advance(10)

			stl, err = l.Withdraw(employee, id)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to withdraw again: %s", failed, testID, err)
			}
			checkAmount(t, testID, "bonus paid once", stl.Bonus, new(uint256.Int))
		}

		testID++
		t.Logf("\tTest %d:\tWhen a pending bonus is replaced.", testID)
		{
			l, clk, _, id := setup(t, nil, 0)

			if _, err := l.ScheduleBonus(ownerID, id, amount.Units(100), clk.unix()+10); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to schedule the bonus: %s", failed, testID, err)
			}

			replaced, err := l.ScheduleBonus(ownerID, id, amount.Units(200), clk.unix()+20)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to replace the bonus: %s", failed, testID, err)
			}
			checkAmount(t, testID, "replaced bonus", replaced, amount.Units(100))

			_, err = l.ScheduleBonus(ownerID, id, amount.Units(200), clk.unix())
			checkErr(t, testID, "a release time of now", err, ledger.ErrReleaseTimeNotFuture)

			_, err = l.ScheduleBonus(ownerID, id, new(uint256.Int), clk.unix()+20)
			checkErr(t, testID, "a zero bonus", err, ledger.ErrZeroAmount)
		}
	}
}

func TestPauseResume(t *testing.T) {
	t.Log("Given the need to suspend a stream.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a stream is paused for 100 seconds.", testID)
		{
			l, clk, employee, id := setup(t, nil, 10_000)

			clk.advance(10)

			stl, err := l.PauseStream(ownerID, id)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to pause: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to pause.", success, testID)

			checkAmount(t, testID, "salary settled by the pause", stl.Gross, amount.Units(10))
			checkAmount(t, testID, "net paid by the pause", stl.Net, amount.MustParse("9.5"))
			checkAmount(t, testID, "employee balance", l.Balance(employee), amount.MustParse("9.5"))

			if stl.Seq != l.LatestSeq() {
				t.Fatalf("\t%s\tTest %d:\tShould report seq %d, got %d.", failed, testID, l.LatestSeq(), stl.Seq)
			}
			t.Logf("\t%s\tTest %d:\tShould report the seq of the pause.", success, testID)

			net, _ := l.NetWithdrawable(id)
			checkAmount(t, testID, "net withdrawable after the pause", net, new(uint256.Int))

			_, err = l.PauseStream(ownerID, id)
			checkErr(t, testID, "a second pause", err, ledger.ErrAlreadyPaused)

			_, err = l.Withdraw(employee, id)
			checkErr(t, testID, "a withdrawal while paused", err, ledger.ErrStreamPaused)

			clk.advance(100)

			accrued, _ := l.AccruedSalary(id)
			checkAmount(t, testID, "accrued salary while paused", accrued, new(uint256.Int))

			seq, err := l.ResumeStream(ownerID, id)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to resume: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to resume.", success, testID)

			if seq != stl.Seq+1 {
				t.Fatalf("\t%s\tTest %d:\tShould resume at seq %d, got %d.", failed, testID, stl.Seq+1, seq)
			}
			t.Logf("\t%s\tTest %d:\tShould resume at the next seq.", success, testID)

			_, err = l.ResumeStream(ownerID, id)
			checkErr(t, testID, "a second resume", err, ledger.ErrNotPaused)

			clk.advance(10)

			accrued, _ = l.AccruedSalary(id)
			checkAmount(t, testID, "accrued salary after resume", accrued, amount.Units(10))
		}

		testID++
		t.Logf("\tTest %d:\tWhen the treasury cannot cover the salary owed at the pause.", testID)
		{
			l, clk, _, id := setup(t, nil, 0)

			clk.advance(20)

			_, err := l.PauseStream(ownerID, id)
			checkErr(t, testID, "the pause", err, vault.ErrInsufficientBalance)

			s, _ := l.StreamInfo(id)
			if s.Paused {
				t.Fatalf("\t%s\tTest %d:\tShould leave the stream running.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the stream running.", success, testID)

			accrued, _ := l.AccruedSalary(id)
			checkAmount(t, testID, "accrued salary kept", accrued, amount.Units(20))
		}
	}
}

func TestCancelStream(t *testing.T) {
	t.Log("Given the need to end a stream permanently.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a stream with accrued salary is cancelled.", testID)
		{
			l, clk, employee, id := setup(t, nil, 10_000)

			clk.advance(20)

			stl, err := l.CancelStream(ownerID, id)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to cancel: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to cancel.", success, testID)

			checkAmount(t, testID, "accrued salary settled", stl.Net, amount.Units(19))
			checkAmount(t, testID, "employee balance", l.Balance(employee), amount.Units(19))

			s, _ := l.StreamInfo(id)
			if s.Active {
				t.Fatalf("\t%s\tTest %d:\tShould deactivate the stream.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould deactivate the stream.", success, testID)

			clk.advance(20)

			_, err = l.Withdraw(employee, id)
			checkErr(t, testID, "a withdrawal", err, ledger.ErrStreamInactive)

			_, err = l.CancelStream(ownerID, id)
			checkErr(t, testID, "a second cancel", err, ledger.ErrStreamInactive)

			_, err = l.PauseStream(ownerID, id)
			checkErr(t, testID, "a pause", err, ledger.ErrStreamInactive)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the treasury cannot cover the settlement.", testID)
		{
			l, clk, _, id := setup(t, nil, 0)

			clk.advance(20)

			_, err := l.CancelStream(ownerID, id)
			checkErr(t, testID, "the cancel", err, vault.ErrInsufficientBalance)

			s, _ := l.StreamInfo(id)
			if !s.Active {
				t.Fatalf("\t%s\tTest %d:\tShould leave the stream active.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the stream active.", success, testID)
		}
	}
}

func TestWithdrawSigned(t *testing.T) {
	t.Log("Given the need to withdraw through a relayer.")
	{
		employeePK, _ := key(t, employeeKey)
		strangerPK, _ := key(t, strangerKey)

		sign := func(t *testing.T, l *ledger.Ledger, pk *ecdsa.PrivateKey, msg signature.Withdraw) []byte {
			sig, err := signature.Sign(l.Domain(), msg, pk)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to sign: %s", failed, err)
			}
			return sig
		}

		fund := func(t *testing.T, l *ledger.Ledger, units uint64) {
			if _, err := l.DepositSponsorship(ownerID, amount.Units(units)); err != nil {
				t.Fatalf("\t%s\tShould be able to fund the sponsorship pool: %s", failed, err)
			}
		}

		testID := 0
		t.Logf("\tTest %d:\tWhen a valid authorization is relayed for a fee.", testID)
		{
			l, clk, employee, id := setup(t, nil, 10_000)
			fund(t, l, 10)
			clk.advance(100)

			msg := signature.Withdraw{StreamID: id, Nonce: 0, Deadline: clk.unix() + 60}
			sw := ledger.SignedWithdraw{
				StreamID:   id,
				Nonce:      msg.Nonce,
				Deadline:   msg.Deadline,
				Signature:  sign(t, l, employeePK, msg),
				Relayer:    relayerID,
				RelayerFee: amount.One(),
			}

			stl, err := l.WithdrawSigned(sw)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to withdraw: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to withdraw.", success, testID)

			checkAmount(t, testID, "net paid in full", stl.Net, amount.Units(95))
			checkAmount(t, testID, "employee balance", l.Balance(employee), amount.Units(95))
			checkAmount(t, testID, "relayer fee", l.Balance(relayerID), amount.One())
			checkAmount(t, testID, "sponsorship pool", l.SponsorshipBalance(), amount.Units(9))

			if n := l.Nonce(employee); n != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould advance the nonce to 1, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould advance the nonce to 1.", success, testID)

			clk.advance(10)

			_, err = l.WithdrawSigned(sw)
			checkErr(t, testID, "a replay", err, ledger.ErrInvalidNonce)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the authorization is not valid.", testID)
		{
			l, clk, employee, id := setup(t, nil, 10_000)
			clk.advance(100)

			msg := signature.Withdraw{StreamID: id, Nonce: 0, Deadline: clk.unix() - 1}
			_, err := l.WithdrawSigned(ledger.SignedWithdraw{StreamID: id, Nonce: 0, Deadline: msg.Deadline, Signature: sign(t, l, employeePK, msg)})
			checkErr(t, testID, "an expired deadline", err, ledger.ErrSignatureExpired)

			msg = signature.Withdraw{StreamID: id, Nonce: 0, Deadline: clk.unix() + 60}
			_, err = l.WithdrawSigned(ledger.SignedWithdraw{StreamID: id, Nonce: 0, Deadline: msg.Deadline, Signature: sign(t, l, strangerPK, msg)})
			checkErr(t, testID, "a signature by someone else", err, ledger.ErrInvalidSignature)

			_, err = l.WithdrawSigned(ledger.SignedWithdraw{StreamID: id, Nonce: 0, Deadline: msg.Deadline + 1, Signature: sign(t, l, employeePK, msg)})
			checkErr(t, testID, "a tampered deadline", err, ledger.ErrInvalidSignature)

			_, err = l.WithdrawSigned(ledger.SignedWithdraw{StreamID: id, Nonce: 1, Deadline: msg.Deadline, Signature: sign(t, l, employeePK, msg)})
			checkErr(t, testID, "a future nonce", err, ledger.ErrInvalidNonce)

			if n := l.Nonce(employee); n != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould leave the nonce at 0, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the nonce at 0.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the sponsorship pool cannot cover the fee.", testID)
		{
			l, clk, employee, id := setup(t, nil, 10_000)
			fund(t, l, 1)
			clk.advance(100)

			msg := signature.Withdraw{StreamID: id, Nonce: 0, Deadline: clk.unix() + 60}
			_, err := l.WithdrawSigned(ledger.SignedWithdraw{
				StreamID:   id,
				Nonce:      0,
				Deadline:   msg.Deadline,
				Signature:  sign(t, l, employeePK, msg),
				Relayer:    relayerID,
				RelayerFee: amount.Units(2),
			})
			checkErr(t, testID, "the withdrawal", err, ledger.ErrInsufficientSponsorship)

			if n := l.Nonce(employee); n != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould roll back the nonce, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould roll back the nonce.", success, testID)

			checkAmount(t, testID, "employee balance rolled back", l.Balance(employee), new(uint256.Int))
			checkAmount(t, testID, "treasury rolled back", l.TreasuryBalance(), amount.Units(10_000))

			accrued, _ := l.AccruedSalary(id)
			checkAmount(t, testID, "accrued salary rolled back", accrued, amount.Units(100))
		}
	}
}

func TestTreasuryAdmin(t *testing.T) {
	t.Log("Given the need to administer the treasury and the tax.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the owner manages funds.", testID)
		{
			l, clk, employee, id := setup(t, nil, 10_000)
			clk.advance(100)

			if _, err := l.Withdraw(employee, id); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to withdraw: %s", failed, testID, err)
			}

			if _, err := l.WithdrawTax(ownerID, ownerID, amount.Units(5)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to withdraw the tax: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to withdraw the tax.", success, testID)

			total, held := l.TaxCollected()
			checkAmount(t, testID, "running tax total", total, amount.Units(5))
			checkAmount(t, testID, "tax held", held, new(uint256.Int))

			if _, err := l.SetYieldRate(ownerID, 1_000); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to set the yield rate: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to set the yield rate.", success, testID)

			clk.advance(vault.SecondsPerYear)
			checkAmount(t, testID, "treasury with a year of yield", l.TreasuryBalance(), amount.Units(10_890))
		}

		testID++
		t.Logf("\tTest %d:\tWhen someone other than the owner manages funds.", testID)
		{
			l, _, employee, _ := setup(t, nil, 0)

			_, err := l.DepositTreasury(employee, amount.One())
			checkErr(t, testID, "a treasury deposit", err, ledger.ErrUnauthorized)

			_, err = l.DepositSponsorship(employee, amount.One())
			checkErr(t, testID, "a sponsorship deposit", err, ledger.ErrUnauthorized)

			_, err = l.SetYieldRate(employee, 1)
			checkErr(t, testID, "a yield change", err, ledger.ErrUnauthorized)

			_, err = l.WithdrawTax(employee, employee, amount.One())
			checkErr(t, testID, "a tax withdrawal", err, ledger.ErrUnauthorized)

			_, err = l.DepositTreasury(ownerID, new(uint256.Int))
			checkErr(t, testID, "a zero deposit", err, ledger.ErrZeroAmount)

			_, err = l.SetYieldRate(ownerID, 10_001)
			checkErr(t, testID, "a yield rate above 100%", err, vault.ErrRateTooHigh)
		}
	}
}

func TestOverflowKind(t *testing.T) {
	t.Log("Given the need to classify overflows from the balance book and the tax collector.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a balance or a running total overflows.", testID)
		{
			full := new(uint256.Int).SetAllOne()

			book := accounts.New(map[accounts.AccountID]*uint256.Int{ownerID: amount.One(), relayerID: full})

			c, err := taxcollector.Restore(taxID, ownerID, book, full)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to restore a collector: %s", failed, testID, err)
			}

			tt := []struct {
				name string
				err  error
			}{
				{"a transfer", book.Transfer(ownerID, relayerID, amount.One())},
				{"a credit", book.Credit(relayerID, amount.One())},
				{"a tax deposit", c.DepositTax(ownerID, amount.One())},
			}

			for _, tst := range tt {
				checkErr(t, testID, tst.name, tst.err, amount.ErrOverflow)

				if kind := ledger.KindOf(tst.err); kind != ledger.KindResource {
					t.Fatalf("\t%s\tTest %d:\tShould classify %s as a resource error, got %s.", failed, testID, tst.name, kind)
				}
				t.Logf("\t%s\tTest %d:\tShould classify %s as a resource error.", success, testID, tst.name)
			}
		}
	}
}

// =============================================================================

type failingStorage struct {
	*memory.Memory
	fail bool
}

func (fs *failingStorage) Write(rec journal.Record) error {
	if fs.fail {
		return errors.New("disk full")
	}
	return fs.Memory.Write(rec)
}

func TestJournal(t *testing.T) {
	t.Log("Given the need to persist the ledger.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the ledger restarts on the same journal.", testID)
		{
			strg := memory.New()
			l, clk, employee, id := setup(t, strg, 10_000)
			clk.advance(100)

			if _, err := l.Withdraw(employee, id); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to withdraw: %s", failed, testID, err)
			}

			restarted, err := ledger.New(ledger.Config{Genesis: testGenesis(), Storage: strg, Now: clk.Now})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to restart: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to restart.", success, testID)

			if got, exp := restarted.LatestSeq(), l.LatestSeq(); got != exp {
				t.Fatalf("\t%s\tTest %d:\tShould resume at seq %d, got %d.", failed, testID, exp, got)
			}
			t.Logf("\t%s\tTest %d:\tShould resume at the latest seq.", success, testID)

			checkAmount(t, testID, "employee balance", restarted.Balance(employee), amount.Units(95))
			checkAmount(t, testID, "treasury balance", restarted.TreasuryBalance(), amount.Units(9_900))

			s, err := restarted.StreamInfo(id)
			if err != nil || s.LastCheckpoint != clk.unix() {
				t.Fatalf("\t%s\tTest %d:\tShould restore the stream checkpoint: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould restore the stream checkpoint.", success, testID)

			next, err := restarted.CreateStream(ownerID, ledger.NewStream{Employee: employee, RatePerSecond: amount.One()})
			if err != nil || next != id+1 {
				t.Fatalf("\t%s\tTest %d:\tShould continue the stream ids, got %d: %v", failed, testID, next, err)
			}
			t.Logf("\t%s\tTest %d:\tShould continue the stream ids.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the journal write fails.", testID)
		{
			strg := failingStorage{Memory: memory.New()}
			l, clk, employee, id := setup(t, &strg, 10_000)
			clk.advance(100)

			strg.fail = true

			if _, err := l.Withdraw(employee, id); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould fail the withdrawal.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould fail the withdrawal.", success, testID)

			checkAmount(t, testID, "employee balance untouched", l.Balance(employee), new(uint256.Int))

			accrued, _ := l.AccruedSalary(id)
			checkAmount(t, testID, "accrued salary untouched", accrued, amount.Units(100))
		}
	}
}
