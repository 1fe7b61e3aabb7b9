package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vouchersplit/backend/internal/allocation"
	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/money"
)

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().String("value", "", "Voucher value in rand, e.g. 100.00")
	planCmd.Flags().IntP("split", "n", 0, "Split evenly into n vouchers (2-100)")
	planCmd.Flags().StringP("slots", "s", "", "Comma separated amounts in rand; blanks are allowed")
	planCmd.Flags().Bool("fill", false, "Put whatever is left into the first blank slot")
	planCmd.MarkFlagRequired("value")
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Work out an allocation without contacting the voucher service",
	Example: `  vouchersplit plan --value 100 --split 3
  vouchersplit plan --value 100 --slots 25,25, --fill`,
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	value, _ := cmd.Flags().GetString("value")
	n, _ := cmd.Flags().GetInt("split")
	slots, _ := cmd.Flags().GetString("slots")
	fill, _ := cmd.Flags().GetBool("fill")

	a, err := buildAllocation(value, n, slots, fill)
	if err != nil {
		return err
	}
	printAllocation(cmd.OutOrStdout(), a)
	return nil
}

func buildAllocation(value string, n int, slots string, fill bool) (allocation.Allocation, error) {
	original, err := money.ParseToCents(value)
	if err != nil {
		return allocation.Allocation{}, err
	}
	a, err := allocation.New(original)
	if err != nil {
		return a, err
	}

	switch {
	case n > 0 && slots != "":
		return a, errs.Markf(errs.ErrValidation, "use either --split or --slots")
	case n > 0:
		a, err = allocation.EvenSplit(a, n)
		if err != nil {
			return a, err
		}
	case slots != "":
		amounts, err := parseAmounts(slots)
		if err != nil {
			return a, err
		}
		if a, err = allocation.FromSlots(original, amounts); err != nil {
			return a, err
		}
	}

	if fill {
		a = allocation.FillRemaining(a)
	}
	return a, nil
}

// parseAmounts reads "25,,12.50" as [2500 0 1250]. Blank entries are unset
// slots.
func parseAmounts(list string) ([]int64, error) {
	parts := strings.Split(list, ",")
	out := make([]int64, len(parts))
	for i, p := range parts {
		cents, err := money.ParseToCents(p)
		if err != nil {
			return nil, err
		}
		out[i] = cents
	}
	return out, nil
}

func printAllocation(w io.Writer, a allocation.Allocation) {
	fmt.Fprintf(w, "Voucher value: %s\n", money.FormatRand(a.Original()))
	for i, v := range a.Slots() {
		if v == allocation.Unset {
			fmt.Fprintf(w, "  Voucher %d: -\n", i+1)
			continue
		}
		fmt.Fprintf(w, "  Voucher %d: %s\n", i+1, money.FormatRand(v))
	}
	fmt.Fprintf(w, "Allocated: %s\n", money.FormatRand(a.TotalAllocated()))
	fmt.Fprintf(w, "Remaining: %s\n", money.FormatSigned(a.Remaining()))

	if err := allocation.Validate(a); err != nil {
		fmt.Fprintf(w, "Not ready: %s\n", err)
		return
	}
	fmt.Fprintln(w, "Ready to split")
}
