package email_test

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	common "github.com/example/reservation-notifier/internal/adapters/common"
	"github.com/example/reservation-notifier/internal/config"
	emailprovider "github.com/example/reservation-notifier/internal/providers/email"
)

func TestNewSMTPProviderValidation(t *testing.T) {
	logger := zerolog.New(io.Discard)

	tests := []struct {
		name string
		cfg  config.SMTPConfig
	}{
		{name: "missing host", cfg: config.SMTPConfig{Port: 25, From: "noreply@example.com"}},
		{name: "invalid port", cfg: config.SMTPConfig{Host: "smtp.example.com", From: "noreply@example.com"}},
		{name: "missing from", cfg: config.SMTPConfig{Host: "smtp.example.com", Port: 25}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := emailprovider.NewSMTPProvider(tc.cfg, logger); !errors.Is(err, common.ErrConfiguration) {
				t.Fatalf("expected configuration error for %s, got %v", tc.name, err)
			}
		})
	}
}

func TestSMTPSendNilPayload(t *testing.T) {
	cfg := config.SMTPConfig{Host: "smtp.example.com", Port: 2525, From: "noreply@example.com"}

	provider, err := emailprovider.NewSMTPProvider(cfg, zerolog.Nop(), emailprovider.WithSMTPTLSConfig(nil))
	if err != nil {
		t.Fatalf("unexpected error creating provider: %v", err)
	}

	if _, err := provider.Send(context.Background(), nil); err == nil {
		t.Fatalf("expected error when payload is nil")
	}
}

func TestSMTPProviderSendsAlternativeBodies(t *testing.T) {
	cfg := config.SMTPConfig{Host: "smtp.example.com", Port: 2525, From: "noreply@example.com"}

	var (
		waitFn     func()
		transcript *smtpTranscript
	)
	defer func() {
		if waitFn != nil {
			waitFn()
		}
	}()

	dialer := dialerFunc(func(ctx context.Context, network, address string) (net.Conn, error) {
		conn, tr, wait := startFakeSMTPServer(t, cfg.From, []string{"owner@restaurant.test"})
		transcript = tr
		waitFn = wait
		return conn, nil
	})

	provider, err := emailprovider.NewSMTPProvider(cfg, zerolog.Nop(),
		emailprovider.WithSMTPTLSConfig(nil),
		emailprovider.WithSMTPDialer(dialer),
	)
	if err != nil {
		t.Fatalf("unexpected error creating provider: %v", err)
	}

	payload := &emailprovider.Payload{
		MessageID: "<rsv-1@restaurant.test>",
		FromName:  "Tonle Sab Restaurant",
		To:        []string{"owner@restaurant.test", "owner@restaurant.test"},
		ToName:    "Restaurant Owner",
		Subject:   "New Reservation Request from Dara",
		HTML:      "<p>Line 1</p>",
		Text:      "Line 1\nLine 2",
		Headers: map[string]string{
			"From": "spoof@example.com",
			"Bcc":  "bcc-header@example.com",
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := provider.Send(ctx, payload)
	if err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	if resp == nil || resp.Code != 250 {
		t.Fatalf("expected response code 250, got %#v", resp)
	}

	if transcript == nil {
		t.Fatalf("expected transcript to be captured")
	}
	if want := []string{"owner@restaurant.test"}; !reflect.DeepEqual(transcript.rcpts, want) {
		t.Fatalf("unexpected rcpt to list: got %v, want %v", transcript.rcpts, want)
	}

	data := transcript.data
	if !strings.Contains(data, `From: "Tonle Sab Restaurant" <noreply@example.com>`) {
		t.Fatalf("expected From header with display name, got %q", data)
	}
	if !strings.Contains(data, `To: "Restaurant Owner" <owner@restaurant.test>`) {
		t.Fatalf("expected To header with display name, got %q", data)
	}
	if strings.Contains(data, "spoof@example.com") || strings.Contains(data, "bcc-header@example.com") {
		t.Fatalf("expected caller headers to be overridden, got %q", data)
	}
	if !strings.Contains(data, "Content-Type: multipart/alternative; boundary=") {
		t.Fatalf("expected multipart content type, got %q", data)
	}
	if !strings.Contains(data, "Content-Type: text/plain; charset=UTF-8") || !strings.Contains(data, "Content-Type: text/html; charset=UTF-8") {
		t.Fatalf("expected both alternative parts, got %q", data)
	}
	if !strings.Contains(data, "Line 1\r\nLine 2") {
		t.Fatalf("expected text body with CRLF normalization, got %q", data)
	}
}

func TestSMTPProviderDialFailureIsTransport(t *testing.T) {
	cfg := config.SMTPConfig{Host: "smtp.example.com", Port: 2525, From: "noreply@example.com"}
	dialer := dialerFunc(func(context.Context, string, string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	})

	provider, err := emailprovider.NewSMTPProvider(cfg, zerolog.Nop(),
		emailprovider.WithSMTPTLSConfig(nil),
		emailprovider.WithSMTPDialer(dialer),
	)
	if err != nil {
		t.Fatalf("unexpected error creating provider: %v", err)
	}

	_, err = provider.Send(context.Background(), &emailprovider.Payload{To: []string{"guest@example.com"}, Text: "hi"})
	if !errors.Is(err, common.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestSMTPProviderRejectedRecipientIsProvider(t *testing.T) {
	cfg := config.SMTPConfig{Host: "smtp.example.com", Port: 2525, From: "noreply@example.com"}

	var wg sync.WaitGroup
	defer wg.Wait()

	dialer := dialerFunc(func(context.Context, string, string) (net.Conn, error) {
		client, server := net.Pipe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer server.Close()
			r := bufio.NewReader(server)
			_, _ = io.WriteString(server, "220 fake ready\r\n")
			for {
				line, err := r.ReadString('\n')
				if err != nil {
					return
				}
				switch cmd := strings.ToUpper(strings.TrimSpace(line)); {
				case strings.HasPrefix(cmd, "RCPT"):
					_, _ = io.WriteString(server, "550 5.1.1 mailbox unavailable\r\n")
				default:
					_, _ = io.WriteString(server, "250 ok\r\n")
				}
			}
		}()
		return client, nil
	})

	provider, err := emailprovider.NewSMTPProvider(cfg, zerolog.Nop(),
		emailprovider.WithSMTPTLSConfig(nil),
		emailprovider.WithSMTPDialer(dialer),
	)
	if err != nil {
		t.Fatalf("unexpected error creating provider: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := provider.Send(ctx, &emailprovider.Payload{To: []string{"nobody@example.com"}, Text: "hi"})
	if !errors.Is(err, common.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if resp == nil || resp.Code != 550 {
		t.Fatalf("expected 550 reply code, got %#v", resp)
	}
}

// Helpers.

type dialerFunc func(ctx context.Context, network, address string) (net.Conn, error)

func (d dialerFunc) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return d(ctx, network, address)
}

type smtpTranscript struct {
	mailFrom string
	rcpts    []string
	data     string
}

func startFakeSMTPServer(t *testing.T, expectedFrom string, expectedRecipients []string) (net.Conn, *smtpTranscript, func()) {
	t.Helper()

	server, client := net.Pipe()
	transcript := &smtpTranscript{}
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		defer server.Close()
		if err := runFakeSMTPConversation(t, server, expectedFrom, expectedRecipients, transcript); err != nil && !errors.Is(err, io.EOF) {
			t.Errorf("fake smtp server: %v", err)
		}
	}()

	wait := func() {
		wg.Wait()
	}

	return client, transcript, wait
}

func runFakeSMTPConversation(t *testing.T, conn net.Conn, expectedFrom string, expectedRecipients []string, transcript *smtpTranscript) error {
	writer := bufio.NewWriter(conn)
	reader := bufio.NewReader(conn)

	writeLine := func(format string, args ...interface{}) error {
		if _, err := fmt.Fprintf(writer, format+"\r\n", args...); err != nil {
			return err
		}
		return writer.Flush()
	}

	if err := writeLine("220 fake smtp ready"); err != nil {
		return err
	}

	rcptIndex := 0

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimRight(line, "\r\n")
		upper := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(upper, "EHLO ") || strings.HasPrefix(upper, "HELO "):
			if err := writeLine("250-fake"); err != nil {
				return err
			}
			if err := writeLine("250 OK"); err != nil {
				return err
			}
		case strings.HasPrefix(upper, "MAIL FROM:"):
			addr := extractSMTPAddress(line)
			transcript.mailFrom = addr
			if expectedFrom != "" && addr != expectedFrom {
				t.Errorf("unexpected MAIL FROM: got %s, want %s", addr, expectedFrom)
			}
			if err := writeLine("250 OK"); err != nil {
				return err
			}
		case strings.HasPrefix(upper, "RCPT TO:"):
			addr := extractSMTPAddress(line)
			if rcptIndex < len(expectedRecipients) && addr != expectedRecipients[rcptIndex] {
				t.Errorf("unexpected RCPT TO: got %s, want %s", addr, expectedRecipients[rcptIndex])
			}
			transcript.rcpts = append(transcript.rcpts, addr)
			rcptIndex++
			if err := writeLine("250 OK"); err != nil {
				return err
			}
		case upper == "DATA":
			if err := writeLine("354 Start mail input; end with <CRLF>.<CRLF>"); err != nil {
				return err
			}
			var data strings.Builder
			for {
				msgLine, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				if msgLine == ".\r\n" {
					break
				}
				data.WriteString(msgLine)
			}
			transcript.data = data.String()
			if err := writeLine("250 OK"); err != nil {
				return err
			}
		case upper == "QUIT":
			if err := writeLine("221 Bye"); err != nil {
				return err
			}
			return nil
		default:
			if err := writeLine("250 OK"); err != nil {
				return err
			}
		}
	}
}

func extractSMTPAddress(line string) string {
	start := strings.Index(line, "<")
	end := strings.Index(line, ">")
	if start != -1 && end != -1 && end > start+1 {
		return strings.TrimSpace(line[start+1 : end])
	}
	if idx := strings.Index(line, ":"); idx != -1 && idx+1 < len(line) {
		return strings.TrimSpace(line[idx+1:])
	}
	return strings.TrimSpace(line)
}
