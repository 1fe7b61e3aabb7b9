// Command vouchersplit plans voucher splits offline and performs them
// against the split service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vouchersplit",
	Short: "Plan and perform prepaid voucher splits",
	Long: `vouchersplit divides one prepaid voucher into several smaller ones.
"plan" works offline and shows how an allocation balances. "split" and
"balance" talk to the voucher service using the credentials in .env or the
environment.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
