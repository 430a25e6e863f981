// This program is the wallet employees use to follow and withdraw from
// their payment streams.
package main

import "github.com/ardanlabs/paystream/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
