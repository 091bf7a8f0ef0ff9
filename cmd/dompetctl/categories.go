package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dompet/internal/core"
	"dompet/internal/ctl"
)

var flagIcon string

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"cats"},
	Short:   "List categories",
	RunE:    runCategories,
}

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage categories",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoryAdd,
}

func init() {
	categoryAddCmd.Flags().StringVarP(&flagIcon, "icon", "i", core.DefaultCategoryIcon, "Icon shown next to the name")
	categoryCmd.AddCommand(categoryAddCmd)
	rootCmd.AddCommand(categoriesCmd, categoryCmd)
}

func runCategories(_ *cobra.Command, _ []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	cats, err := s.client.Categories(ctx)
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		fmt.Println(ctl.RenderMuted("  Belum ada kategori"))
		return nil
	}
	t := ctl.Table{Title: "Kategori", Headers: []string{"Ikon", "Nama", "ID"}}
	for _, c := range cats {
		t.Rows = append(t.Rows, []string{c.Icon, c.Name, c.ID})
	}
	fmt.Println()
	fmt.Print(ctl.RenderTable(t))
	fmt.Println()
	return nil
}

func runCategoryAdd(_ *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	cat, err := s.client.CreateCategory(ctx, core.NewCategory{Name: args[0], Icon: flagIcon})
	if err != nil {
		return err
	}
	fmt.Printf("  %s %s  %s\n", cat.Icon, cat.Name, ctl.RenderMuted(cat.ID))
	return nil
}
