package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dompet/internal/aggregate"
	"dompet/internal/ctl"
)

var (
	flagMonth  string
	flagFilter string
	flagSearch string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List a month's transactions grouped by day",
	RunE:    runList,
}

func init() {
	listCmd.Flags().StringVarP(&flagMonth, "month", "m", "", "Month to show as YYYY-MM (default current)")
	listCmd.Flags().StringVarP(&flagFilter, "filter", "f", "", `Ordering: "largest" sorts by amount`)
	listCmd.Flags().StringVarP(&flagSearch, "search", "q", "", "Only descriptions containing this text")
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, _ []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	ref, err := parseMonth(flagMonth, time.Now(), s.loc)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	summary, err := s.client.Summary(ctx, ref, flagFilter, flagSearch)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(ctl.RenderTitle("Transaksi " + summary.Month))
	fmt.Println()
	if summary.Count == 0 {
		fmt.Println(ctl.RenderMuted("  Belum ada transaksi"))
		fmt.Println()
		return nil
	}
	fmt.Print(ctl.RenderTable(groupsTable(summary, s.loc)))
	fmt.Println()
	fmt.Print(ctl.RenderKV([][2]string{
		{"Transaksi", fmt.Sprint(summary.Count)},
		{"Total", ctl.FormatRupiah(float64(summary.Total))},
	}))
	fmt.Println()
	return nil
}

func groupsTable(summary aggregate.Summary, loc *time.Location) ctl.Table {
	t := ctl.Table{Headers: []string{"ID", "Jam", "Deskripsi", "Kategori", "Jumlah"}}
	for i, g := range summary.Groups {
		if i > 0 {
			t.Rows = append(t.Rows, []string{"---"})
		}
		t.Rows = append(t.Rows, []string{g.Label})
		for _, tx := range g.Transactions {
			t.Rows = append(t.Rows, []string{
				shortID(tx.ID),
				aggregate.FormatTimeID(tx.Date, loc),
				ctl.Truncate(tx.Description, 32),
				ctl.CategoryLabel(tx),
				ctl.FormatRupiah(tx.Amount),
			})
		}
	}
	return t
}
