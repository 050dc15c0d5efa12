package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cpcal/internal/i18n"
	"cpcal/internal/password"
)

var (
	pwConfirm string
	pwLang    string
)

var passwordCmd = &cobra.Command{
	Use:   "password <password>",
	Short: "Score a password against the composition rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := i18n.Load()
		if err != nil {
			return err
		}
		loc := bundle.Localizer(pwLang)
		out := cmd.OutOrStdout()

		res := password.Evaluate(args[0])
		label := loc.Strength(string(res.Level))
		fmt.Fprintf(out, "strength: %d%% %s\n", res.Strength, label)
		for _, r := range res.Rules {
			mark := "[ ]"
			if r.Passed {
				mark = "[x]"
			}
			fmt.Fprintf(out, "%s %s\n", mark, loc.Rule(r.ID))
		}
		fmt.Fprintf(out, "valid: %t\n", res.Valid)

		if m := password.Match(args[0], pwConfirm); m.ShowStatus {
			if m.Matching {
				fmt.Fprintln(out, loc.Msg(i18n.KeyPasswordsMatch))
			} else {
				fmt.Fprintln(out, loc.Msg(i18n.KeyPasswordsMismatch))
			}
		}
		return nil
	},
}

func init() {
	passwordCmd.Flags().StringVar(&pwConfirm, "confirm", "", "Confirmation entry to compare")
	passwordCmd.Flags().StringVar(&pwLang, "lang", "en", "Label language: en or zh")
	rootCmd.AddCommand(passwordCmd)
}
