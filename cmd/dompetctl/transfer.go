package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"dompet/internal/ctl"
)

var flagOutput string

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import transactions from CSV",
	Long: "Import transactions from a CSV file with date, category, amount and\n" +
		"description columns. Rows whose category name is unknown are skipped.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every transaction as CSV",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write to FILE instead of stdout")
	rootCmd.AddCommand(importCmd, exportCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening csv: %w", err)
	}
	defer f.Close()

	ctx, cancel := commandContext()
	defer cancel()

	result, err := s.client.ImportCSV(ctx, filepath.Base(args[0]), f)
	if err != nil {
		return err
	}
	fmt.Printf("  %s: %d transaksi\n", result.Message, len(result.Transactions))
	if len(result.Transactions) == 0 {
		fmt.Println(ctl.RenderMuted("  Tidak ada baris dengan kategori yang dikenal"))
		return nil
	}
	t := ctl.Table{Headers: []string{"ID", "Tanggal", "Deskripsi", "Kategori", "Jumlah"}}
	for _, tx := range result.Transactions {
		t.Rows = append(t.Rows, []string{
			shortID(tx.ID),
			tx.Date.In(s.loc).Format("2006-01-02"),
			ctl.Truncate(tx.Description, 32),
			ctl.CategoryLabel(tx),
			ctl.FormatRupiah(tx.Amount),
		})
	}
	fmt.Println()
	fmt.Print(ctl.RenderTable(t))
	return nil
}

func runExport(_ *cobra.Command, _ []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	if flagOutput == "" {
		return s.client.ExportCSV(ctx, os.Stdout)
	}

	f, err := os.Create(flagOutput)
	if err != nil {
		return fmt.Errorf("creating %s: %w", flagOutput, err)
	}
	if err := s.client.ExportCSV(ctx, f); err != nil {
		_ = f.Close()
		_ = os.Remove(flagOutput)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", flagOutput, err)
	}
	fmt.Fprintf(os.Stderr, "  Wrote %s\n", flagOutput)
	return nil
}
