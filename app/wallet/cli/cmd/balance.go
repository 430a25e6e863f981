package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance and withdrawal nonce.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	privateKey, err := loadPrivateKey()
	if err != nil {
		log.Fatal(err)
	}

	accountID := accounts.PublicKeyToAccountID(privateKey.PublicKey)
	fmt.Println("For Account:", accountID)

	ctx, cancel := callContext(cmd)
	defer cancel()

	info, err := node().Account(ctx, string(accountID))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Balance:", info.Balance.Units)
	fmt.Println("Nonce:  ", info.Nonce)
}
