package cmd

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/spf13/cobra"
)

var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "List the streams paying this wallet.",
	Run:   streamsRun,
}

func init() {
	rootCmd.AddCommand(streamsCmd)
}

func streamsRun(cmd *cobra.Command, args []string) {
	privateKey, err := loadPrivateKey()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := callContext(cmd)
	defer cancel()

	streams, err := node().Streams(ctx, string(accounts.PublicKeyToAccountID(privateKey.PublicKey)))
	if err != nil {
		log.Fatal(err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRATE/S\tTAX BPS\tSTATE\tACCRUED\tWITHDRAWABLE\tBONUS")
	for _, s := range streams {
		state := "active"
		switch {
		case !s.Active:
			state = "cancelled"
		case s.Paused:
			state = "paused"
		}

		bonus := "-"
		if s.BonusAmount.Units != "0" {
			bonus = fmt.Sprintf("%s at %d", s.BonusAmount.Units, s.BonusReleaseTime)
			if s.BonusClaimed {
				bonus += " (claimed)"
			}
		}

		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\t%s\n", s.ID, s.RatePerSecond.Units, s.TaxBps, state, s.Accrued.Units, s.NetWithdrawable.Units, bonus)
	}
	tw.Flush()
}
