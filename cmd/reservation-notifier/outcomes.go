package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/reservation-notifier/internal/config"
	"github.com/example/reservation-notifier/internal/kafka/consumer"
	"github.com/example/reservation-notifier/internal/logger"
	"github.com/example/reservation-notifier/internal/models"
)

func newOutcomesCmd(flags *rootFlags) *cobra.Command {
	var (
		group         string
		fromBeginning bool
		failuresOnly  bool
	)

	c := &cobra.Command{
		Use:   "outcomes",
		Short: "Tail dispatch outcome records from Kafka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.Kafka.Enabled() {
				return errors.New("KAFKA_BROKERS and KAFKA_OUTCOME_TOPIC must be set")
			}
			level := cfg.App.LogLevel
			if flags.logLevel != "" {
				level = flags.logLevel
			}
			log, err := logger.New(cfg.App.Env, level, cfg.Telemetry.ServiceName, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var opts []consumer.Option
			if fromBeginning {
				opts = append(opts, consumer.WithFromBeginning())
			}
			cons, err := consumer.New(cfg.Kafka.Brokers, group, *log, opts...)
			if err != nil {
				return err
			}
			defer func() {
				if err := cons.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close kafka consumer")
				}
			}()

			out := cmd.OutOrStdout()
			err = cons.Consume(ctx, []string{cfg.Kafka.OutcomeTopic}, func(_ context.Context, rec *consumer.Record) error {
				return printOutcome(out, rec.Value, failuresOnly)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	c.Flags().StringVar(&group, "group", "reservation-notifier-outcomes", "consumer group id")
	c.Flags().BoolVar(&fromBeginning, "from-beginning", false, "start a new group at the oldest offset")
	c.Flags().BoolVar(&failuresOnly, "failures-only", false, "print only dispatches with failed channels")
	return c
}

// printOutcome writes a one-line summary of a DispatchRecord followed by one
// indented line per failed channel.
func printOutcome(w io.Writer, value []byte, failuresOnly bool) error {
	var rec models.DispatchRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return fmt.Errorf("decode dispatch record: %w", err)
	}

	var failed []models.ChannelOutcome
	for _, ch := range rec.Channels {
		if !ch.Success {
			failed = append(failed, ch)
		}
	}
	if failuresOnly && len(failed) == 0 {
		return nil
	}

	status := "ok"
	if !rec.OverallSuccess {
		status = "UNCONFIRMED"
	}
	fmt.Fprintf(w, "%s %s %s code=%s channels=%d failed=%d %dms\n",
		rec.DispatchedAt.Format("2006-01-02T15:04:05Z07:00"), rec.ReservationID, status,
		rec.ConfirmationCode, len(rec.Channels), len(failed), rec.DurationMs)
	for _, ch := range failed {
		detail := ch.Error
		if len(ch.RoomFailures) > 0 {
			detail += " [" + strings.Join(ch.RoomFailures, "; ") + "]"
		}
		fmt.Fprintf(w, "  %s/%s %s: %s\n", ch.Channel, ch.Role, ch.Kind, detail)
	}
	return nil
}
