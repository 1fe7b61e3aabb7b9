package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vouchersplit/backend/internal/allocation"
	"github.com/vouchersplit/backend/internal/audit"
	"github.com/vouchersplit/backend/internal/bluelabel"
	"github.com/vouchersplit/backend/internal/config"
	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/models"
	"github.com/vouchersplit/backend/internal/money"
	"github.com/vouchersplit/backend/internal/services"
	"github.com/vouchersplit/backend/internal/split"
)

const pinEnv = "VOUCHER_PIN"

func init() {
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(balanceCmd)

	rootCmd.PersistentFlags().String("env-file", ".env", "Configuration file")

	splitCmd.Flags().IntP("split", "n", 0, "Split evenly into n vouchers (2-100)")
	splitCmd.Flags().StringP("slots", "s", "", "Comma separated amounts in rand")
	splitCmd.Flags().Bool("fill", false, "Put whatever is left into the first blank slot")
	splitCmd.Flags().String("key", "", "Idempotency key to reuse when retrying a timed out split")
	splitCmd.Flags().Bool("csv", false, "Print the new vouchers as CSV")
}

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split a voucher",
	Long: `Split the voucher whose PIN is in $VOUCHER_PIN. The PIN is read from the
environment so it stays out of shell history. The split is sent once; after
a timeout check the balance before trying again.`,
	RunE: runSplit,
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the status and value of the voucher in $VOUCHER_PIN",
	RunE:  runBalance,
}

type upstream struct {
	cfg    *config.VoucherConfig
	client *bluelabel.SplitClient
}

func connect(cmd *cobra.Command) (*upstream, error) {
	file, _ := cmd.Flags().GetString("env-file")
	config.Init(file)

	bl := config.LoadBlueLabelConfig()
	if err := bl.Validate(); err != nil {
		return nil, err
	}
	hc := bluelabel.NewHTTPClient(bl.Timeout)
	return &upstream{
		cfg:    config.LoadVoucherConfig(),
		client: bluelabel.NewSplitClient(bl.SplitBaseURL, hc, bluelabel.NewClientCredentials(bl, hc)),
	}, nil
}

func readPin() (string, error) {
	pin := strings.TrimSpace(os.Getenv(pinEnv))
	if pin == "" {
		return "", errs.Markf(errs.ErrValidation, "%s is not set", pinEnv)
	}
	return pin, nil
}

// printHistory stands in for the history store; the CLI keeps no state.
type printHistory struct{}

func (printHistory) Append(_ context.Context, entries ...models.HistoryEntry) error {
	log.Printf("[SPLIT] %d history entries not stored (CLI run)", len(entries))
	return nil
}

func runSplit(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("split")
	slots, _ := cmd.Flags().GetString("slots")
	fill, _ := cmd.Flags().GetBool("fill")
	key, _ := cmd.Flags().GetString("key")
	asCSV, _ := cmd.Flags().GetBool("csv")

	pin, err := readPin()
	if err != nil {
		return err
	}
	up, err := connect(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	guard := split.NewMemoryGuard(up.cfg.PendingSplitTTL, up.cfg.UnknownSplitTTL)
	session := split.NewSession(split.NewExecutor(up.client, up.cfg.SplitTimeout), printHistory{}, guard, 0)

	v, err := session.Validate(ctx, up.client, pin)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Voucher %s: %s\n", v.SerialNumber, money.FormatRand(v.ValueCents))

	err = session.Edit(func(a allocation.Allocation) (allocation.Allocation, error) {
		return buildAllocation(money.FormatCents(a.Original()), n, slots, fill)
	})
	if err != nil {
		return err
	}
	printAllocation(cmd.ErrOrStderr(), session.Allocation())

	res, err := session.SubmitWithKey(ctx, key)
	if err != nil {
		if errs.Ambiguous(err) {
			return fmt.Errorf("%s: run \"vouchersplit balance\" before retrying", services.MessageFor(err))
		}
		return fmt.Errorf("split failed: %s", services.MessageFor(err))
	}

	out := cmd.OutOrStdout()
	if asCSV {
		return services.WriteVouchersCSV(out, res.Vouchers)
	}
	for i, r := range res.Vouchers {
		fmt.Fprintf(out, "Voucher %d: %s  serial %s  token %s\n", i+1, money.FormatRand(r.Amount), r.SerialNumber, r.Token)
	}
	return nil
}

func runBalance(cmd *cobra.Command, args []string) error {
	pin, err := readPin()
	if err != nil {
		return err
	}
	up, err := connect(cmd)
	if err != nil {
		return err
	}

	b, err := up.client.CheckBalance(cmd.Context(), pin)
	if err != nil {
		return fmt.Errorf("balance check failed: %s", services.MessageFor(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Voucher %s (%s): %s, %s\n",
		b.SerialNumber, audit.MaskToken(pin), b.Status, money.FormatRand(b.AmountCents))
	return nil
}
