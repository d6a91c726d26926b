package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sttbatch/internal/language"
)

func newLanguagesCommand() *cobra.Command {
	var indicOnly bool

	cmd := &cobra.Command{
		Use:         "languages",
		Short:       "List languages accepted by --language",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows [][]string
			for _, lang := range language.Supported() {
				if indicOnly && !lang.Indic() {
					continue
				}
				rows = append(rows, []string{lang.Name, lang.Code, lang.Code3, lang.Script, yesNo(lang.Indic()), lang.Tag.String()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(tableSpec{
				headers: []string{"Language", "Code", "ISO 639-2", "Script", "NFD", "Tag"},
				rows:    rows,
			}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&indicOnly, "indic", false, "Only list languages written in Indic scripts")
	return cmd
}
