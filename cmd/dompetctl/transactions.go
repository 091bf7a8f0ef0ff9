package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dompet/internal/core"
	"dompet/internal/ctl"
)

var (
	flagAmount   string
	flagDesc     string
	flagDate     string
	flagCategory string
	flagAll      bool
	flagYes      bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a transaction",
	Example: `  dompetctl add --amount 25000 --desc "Nasi goreng" --category Food
  dompetctl add -a 3500 -c Transport --date 2024-01-06`,
	RunE: runAdd,
}

var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change fields of a transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

var rmCmd = &cobra.Command{
	Use:   "rm [ID]",
	Short: "Delete a transaction, or every transaction with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRm,
}

func init() {
	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().StringVarP(&flagAmount, "amount", "a", "", "Amount")
		c.Flags().StringVarP(&flagDesc, "desc", "d", "", "Description")
		c.Flags().StringVar(&flagDate, "date", "", "Date as YYYY-MM-DD or YYYY-MM-DD HH:MM (default now)")
		c.Flags().StringVarP(&flagCategory, "category", "c", "", "Category name or ID")
	}
	_ = addCmd.MarkFlagRequired("amount")
	_ = addCmd.MarkFlagRequired("category")

	rmCmd.Flags().BoolVar(&flagAll, "all", false, "Delete every transaction")
	rmCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Confirm --all")

	rootCmd.AddCommand(addCmd, editCmd, rmCmd)
}

func runAdd(_ *cobra.Command, _ []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	amount, err := parseAmount(flagAmount)
	if err != nil {
		return err
	}
	date, err := parseDate(flagDate, time.Now(), s.loc)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	cat, err := resolveCategory(ctx, s.client, flagCategory)
	if err != nil {
		return err
	}
	tx, err := s.client.CreateTransaction(ctx, core.NewTransaction{
		Amount:      amount,
		Description: flagDesc,
		Date:        date,
		CategoryID:  cat.ID,
	})
	if err != nil {
		return err
	}
	printTransaction("Tersimpan", tx, s.loc)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	var patch core.TransactionPatch
	flags := cmd.Flags()
	if flags.Changed("amount") {
		amount, err := parseAmount(flagAmount)
		if err != nil {
			return err
		}
		patch.Amount = &amount
	}
	if flags.Changed("desc") {
		patch.Description = &flagDesc
	}
	if flags.Changed("date") {
		date, err := parseDate(flagDate, time.Now(), s.loc)
		if err != nil {
			return err
		}
		patch.Date = &date
	}
	if flags.Changed("category") {
		cat, err := resolveCategory(ctx, s.client, flagCategory)
		if err != nil {
			return err
		}
		patch.CategoryID = &cat.ID
	}
	if patch.IsEmpty() {
		return errors.New("nothing to change: pass --amount, --desc, --date or --category")
	}

	id, err := resolveTransactionID(ctx, s.client, args[0])
	if err != nil {
		return err
	}
	tx, err := s.client.UpdateTransaction(ctx, id, patch)
	if err != nil {
		return err
	}
	printTransaction("Diperbarui", tx, s.loc)
	return nil
}

func runRm(_ *cobra.Command, args []string) error {
	if flagAll == (len(args) == 1) {
		return errors.New("pass either a transaction ID or --all")
	}
	if flagAll && !flagYes {
		return errors.New("refusing to delete every transaction without --yes")
	}
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	if flagAll {
		n, err := s.client.DeleteAllTransactions(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("  %d transaksi dihapus\n", n)
		return nil
	}

	id, err := resolveTransactionID(ctx, s.client, args[0])
	if err != nil {
		return err
	}
	if err := s.client.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	fmt.Printf("  Transaksi %s dihapus\n", shortID(id))
	return nil
}

func printTransaction(title string, tx core.EnrichedTransaction, loc *time.Location) {
	fmt.Println()
	fmt.Print(ctl.RenderKV([][2]string{
		{title, tx.ID},
		{"Tanggal", tx.Date.In(loc).Format("2006-01-02 15:04")},
		{"Deskripsi", tx.Description},
		{"Kategori", ctl.CategoryLabel(tx)},
		{"Jumlah", ctl.FormatRupiah(tx.Amount)},
	}))
	fmt.Println()
}
