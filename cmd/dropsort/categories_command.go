package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dropsort/internal/classify"
)

func newCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "categories",
		Short:       "List categories and the extensions routed to each",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			categories := classify.All()
			rows := make([][]string, 0, len(categories))
			for _, category := range categories {
				exts := classify.Extensions(category)
				label := strings.Join(exts, ", ")
				if len(exts) == 0 {
					label = "(anything else)"
				}
				rows = append(rows, []string{string(category), label, fmt.Sprint(len(exts))})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Category", "Extensions", "Count"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
			return nil
		},
	}
}
