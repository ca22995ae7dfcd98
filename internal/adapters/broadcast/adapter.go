package broadcast

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	common "github.com/example/reservation-notifier/internal/adapters/common"
	"github.com/example/reservation-notifier/internal/models"
	tgprovider "github.com/example/reservation-notifier/internal/providers/telegram"
	"github.com/example/reservation-notifier/internal/render"
)

const defaultMaxParallel = 4

// Option customises adapter behaviour.
type Option func(*Adapter)

// WithMaxParallel bounds how many rooms are contacted at once.
func WithMaxParallel(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxParallel = int64(n)
		}
	}
}

// WithRawBodyLimit overrides the maximum number of characters retained from
// provider error details.
func WithRawBodyLimit(limit int) Option {
	return func(a *Adapter) {
		if limit > 0 {
			a.maxRawChars = limit
		}
	}
}

// Adapter posts the reservation to every configured chat room. The broadcast
// succeeds when at least one room accepted the message.
type Adapter struct {
	logger      zerolog.Logger
	provider    tgprovider.Provider
	renderer    *render.Renderer
	maxParallel int64
	maxRawChars int
}

// NewAdapter constructs a broadcast adapter. A nil provider disables the
// channel.
func NewAdapter(provider tgprovider.Provider, renderer *render.Renderer, logger zerolog.Logger, opts ...Option) *Adapter {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	if renderer == nil {
		renderer = render.New(render.Branding{})
	}

	a := &Adapter{
		logger:      logger,
		provider:    provider,
		renderer:    renderer,
		maxParallel: defaultMaxParallel,
		maxRawChars: common.DefaultRawBodyLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

type roomResult struct {
	room string
	id   string
	err  error
}

// Send fans the rendered message out to target.Addresses, one call per room.
func (a *Adapter) Send(ctx context.Context, event models.ReservationEvent, target models.ChannelTarget) models.ChannelResult {
	rooms := cleanRooms(target.Addresses)
	if a.provider == nil || len(rooms) == 0 {
		return common.NotConfigured()
	}

	text, err := a.renderer.Broadcast(event)
	if err != nil {
		return common.Failed(err, a.maxRawChars)
	}

	results := make([]roomResult, len(rooms))
	sem := semaphore.NewWeighted(a.maxParallel)
	var wg sync.WaitGroup

	for i, room := range rooms {
		results[i].room = room
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i].err = err
			continue
		}
		wg.Add(1)
		go func(i int, room string) {
			defer wg.Done()
			defer sem.Release(1)
			defer func() {
				if r := recover(); r != nil {
					results[i].err = fmt.Errorf("provider panic: %v", r)
				}
			}()
			raw, err := a.provider.Send(ctx, &tgprovider.Payload{
				ChatID:                room,
				Text:                  text,
				ParseMode:             tgprovider.ParseModeHTML,
				DisableWebPagePreview: true,
			})
			if err != nil {
				results[i].err = err
				return
			}
			if raw != nil {
				results[i].id = raw.MessageID
			}
		}(i, room)
	}
	wg.Wait()

	var (
		ids      []string
		failures []string
		firstErr error
	)
	for _, r := range results {
		if r.err != nil {
			failures = append(failures, fmt.Sprintf("%s: %s", r.room, common.TruncateRaw(r.err.Error(), a.maxRawChars)))
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		if r.id != "" {
			ids = append(ids, r.id)
		}
	}

	succeeded := len(rooms) - len(failures)
	if len(failures) > 0 {
		a.logger.Info().
			Str("reservation_id", event.ID).
			Str("channel", string(models.ChannelBroadcast)).
			Int("rooms", len(rooms)).
			Int("failed_rooms", len(failures)).
			Strs("room_failures", failures).
			Msg("broadcast had room failures")
	}

	if succeeded == 0 {
		res := common.Failed(fmt.Errorf("all %d rooms failed: %s", len(rooms), strings.Join(failures, "; ")), a.maxRawChars)
		res.Kind = common.Kind(firstErr)
		res.RoomFailures = failures
		return res
	}

	res := common.Succeeded(strings.Join(ids, ","))
	res.RoomFailures = failures
	a.logger.Debug().
		Str("reservation_id", event.ID).
		Str("channel", string(models.ChannelBroadcast)).
		Int("rooms", len(rooms)).
		Msg("broadcast delivered")
	return res
}

func cleanRooms(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
