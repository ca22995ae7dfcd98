package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/reservation-notifier/internal/models"
	"github.com/example/reservation-notifier/internal/util"
)

type sendFlags struct {
	name     string
	phone    string
	email    string
	company  string
	date     string
	time     string
	guests   int
	requests string
}

func newSendCmd(root *rootFlags) *cobra.Command {
	f := &sendFlags{}

	c := &cobra.Command{
		Use:   "send",
		Short: "Dispatch one reservation built from flags and print the outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			event, err := f.event()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(context.Background()); err != nil {
					a.log.Error().Err(err).Msg("resource cleanup failed")
				}
			}()

			res, err := a.dispatcher.Dispatch(ctx, event)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.OverallSuccess {
				return errors.New("customer confirmation was not delivered")
			}
			return nil
		},
	}

	c.Flags().StringVar(&f.name, "name", "", "guest name")
	c.Flags().StringVar(&f.phone, "phone", "", "guest phone number")
	c.Flags().StringVar(&f.email, "email", "", "guest email address")
	c.Flags().StringVar(&f.company, "company", "", "company name")
	c.Flags().StringVar(&f.date, "date", "", "reservation date (YYYY-MM-DD)")
	c.Flags().StringVar(&f.time, "time", "", "reservation time (HH:MM)")
	c.Flags().IntVar(&f.guests, "guests", 2, "number of guests")
	c.Flags().StringVar(&f.requests, "requests", "", "special requests")
	for _, name := range []string{"name", "phone", "email", "date", "time"} {
		_ = c.MarkFlagRequired(name)
	}
	return c
}

func (f *sendFlags) event() (models.ReservationEvent, error) {
	if f.guests < 1 {
		return models.ReservationEvent{}, errors.New("invalid --guests: must be at least 1")
	}
	email, err := util.NormalizeEmail(f.email)
	if err != nil {
		return models.ReservationEvent{}, fmt.Errorf("invalid --email: %w", err)
	}
	date, err := util.ParseDate(f.date)
	if err != nil {
		return models.ReservationEvent{}, fmt.Errorf("invalid --date (want YYYY-MM-DD): %w", err)
	}
	tod, err := models.ParseTimeOfDay(f.time)
	if err != nil {
		return models.ReservationEvent{}, fmt.Errorf("invalid --time (want HH:MM): %w", err)
	}

	return models.ReservationEvent{
		ID:              util.NewID(),
		Name:            strings.TrimSpace(f.name),
		Phone:           strings.TrimSpace(f.phone),
		Email:           email,
		CompanyName:     strings.TrimSpace(f.company),
		Date:            date,
		Time:            tod,
		GuestCount:      f.guests,
		SpecialRequests: strings.TrimSpace(f.requests),
	}, nil
}
