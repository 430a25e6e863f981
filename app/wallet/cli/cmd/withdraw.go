package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/ardanlabs/paystream/foundation/paystream/client"
	"github.com/spf13/cobra"
)

var (
	relayerURL string
	apiKey     string
	token      string
)

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw your earnings from a stream.",
	Long: `Withdraw your earnings from a stream.

By default the withdrawal is signed and handed to a relayer, so you pay no
fees. With --token the withdrawal is sent straight to the node instead.`,
	Run: withdrawRun,
}

func init() {
	rootCmd.AddCommand(withdrawCmd)
	withdrawCmd.Flags().Uint64VarP(&streamID, "stream", "s", 0, "Stream to withdraw from.")
	withdrawCmd.Flags().DurationVarP(&validFor, "valid-for", "v", 10*time.Minute, "How long the relayer may take to submit.")
	withdrawCmd.Flags().StringVarP(&relayerURL, "relayer", "r", "http://localhost:8180", "Url of the relayer.")
	withdrawCmd.Flags().StringVarP(&apiKey, "api-key", "k", "", "Key for the relayer.")
	withdrawCmd.Flags().StringVarP(&token, "token", "t", "", "USER token for a direct withdrawal.")
	withdrawCmd.MarkFlagRequired("stream")
}

func withdrawRun(cmd *cobra.Command, args []string) {
	ctx, cancel := callContext(cmd)
	defer cancel()

	var stl client.Settlement
	switch token {
	case "":
		privateKey, err := loadPrivateKey()
		if err != nil {
			log.Fatal(err)
		}

		sw, err := signWithdraw(ctx, node(), privateKey, streamID, validFor)
		if err != nil {
			log.Fatal(err)
		}

		if stl, err = client.New(relayerURL, nil).Relay(ctx, apiKey, sw); err != nil {
			log.Fatal(err)
		}

	default:
		var err error
		if stl, err = node().Withdraw(ctx, token, streamID); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Println("Stream:  ", stl.StreamID)
	fmt.Println("Accrued: ", stl.Accrued.Units)
	fmt.Println("Bonus:   ", stl.Bonus.Units)
	fmt.Println("Tax:     ", stl.Tax.Units)
	fmt.Println("Net:     ", stl.Net.Units)
	if stl.Relayer != "" {
		fmt.Println("Relayer: ", stl.Relayer, "fee", stl.RelayerFee.Units, "paid by sponsorship")
	}
	fmt.Println("Receipt: ", stl.Receipt)
}
