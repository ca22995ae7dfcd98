package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/reservation-notifier/internal/util"
)

func newPhoneCmd() *cobra.Command {
	var regions util.PhoneRegions

	c := &cobra.Command{
		Use:   "phone <number>",
		Short: "Print the canonical international form of a phone number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := regions.Normalize(args[0])
			if err != nil {
				var nerr *util.NormalizationError
				if errors.As(err, &nerr) {
					return fmt.Errorf("cannot normalize %q: %s", args[0], nerr.Reason)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), normalized)
			return nil
		},
	}

	c.Flags().StringVar(&regions.Default, "region", "855", "country code for local numbers")
	c.Flags().StringVar(&regions.Fallback, "fallback-region", "1", "country code for bare 10-digit numbers")
	return c
}
