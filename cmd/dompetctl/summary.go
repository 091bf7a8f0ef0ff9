package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dompet/internal/aggregate"
	"dompet/internal/ctl"
)

var flagRemote bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Month totals per category and per week",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().StringVarP(&flagMonth, "month", "m", "", "Month to show as YYYY-MM (default current)")
	summaryCmd.Flags().StringVarP(&flagSearch, "search", "q", "", "Only descriptions containing this text")
	summaryCmd.Flags().BoolVar(&flagRemote, "remote", false, "Let the server build the summary")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
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

	var summary aggregate.Summary
	if flagRemote {
		summary, err = s.client.ServerSummary(ctx, ref.Year(), ref.Month(), "", flagSearch)
	} else {
		summary, err = s.client.Summary(ctx, ref, "", flagSearch)
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(ctl.RenderTitle("Ringkasan " + summary.Month))
	fmt.Println()
	fmt.Print(ctl.RenderKV([][2]string{
		{"Transaksi", fmt.Sprint(summary.Count)},
		{"Total", ctl.FormatRupiah(float64(summary.Total))},
	}))
	fmt.Println()

	if len(summary.CategoryTotals) > 0 {
		fmt.Print(ctl.RenderTable(categoryTable(summary.CategoryTotals)))
		fmt.Println()
	}
	fmt.Print(ctl.RenderTable(weeklyTable(summary.Weekly)))
	fmt.Println()
	return nil
}

func categoryTable(totals []aggregate.CategoryTotal) ctl.Table {
	t := ctl.Table{Title: "Per kategori", Headers: []string{"Kategori", "Jumlah", "%"}}
	for _, c := range totals {
		t.Rows = append(t.Rows, []string{c.Icon + " " + c.Name, ctl.FormatRupiah(c.Amount), ctl.FormatPercent(c.Percentage)})
	}
	return t
}

func weeklyTable(weekly []aggregate.WeeklyBucket) ctl.Table {
	t := ctl.Table{Title: "Per minggu", Headers: []string{"Tanggal", "Jumlah"}}
	for _, w := range weekly {
		t.Rows = append(t.Rows, []string{w.Label, ctl.FormatRupiah(float64(w.Amount))})
	}
	return t
}
