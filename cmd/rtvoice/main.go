// Command rtvoice is a terminal console for live voice conversations with a
// realtime speech-to-speech agent.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/codewandler/rtvoice"
	"github.com/codewandler/rtvoice/audio/device"
	"github.com/codewandler/rtvoice/config"
	"github.com/codewandler/rtvoice/realtime"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	debug := flag.Bool("debug", false, "enable debug logs")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rtvoice: %v\n", err)
			return 1
		}
	}

	logger := newLogger(cfg.LogLevel, *debug)
	slog.SetDefault(logger)

	if err := device.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "rtvoice: audio init: %v\n", err)
		return 1
	}
	defer device.Terminate()

	clientOpts := []realtime.Option{realtime.WithLogger(logger)}
	if cfg.Model != "" {
		clientOpts = append(clientOpts, realtime.WithModel(cfg.Model))
	}
	client := realtime.New(clientOpts...)

	recOpts := []device.RecorderOption{device.WithRecorderLogger(logger)}
	if cfg.MicSampleRate != 0 {
		recOpts = append(recOpts, device.WithDeviceSampleRate(cfg.MicSampleRate))
	}
	rec := device.NewRecorder(recOpts...)
	player := device.NewPlayer()

	ui := newPrinter(os.Stdout)

	mode := rtvoice.TurnModeManual
	if cfg.TurnDetection == config.TurnVAD {
		mode = rtvoice.TurnModeVAD
	}

	var console *rtvoice.Console
	console = rtvoice.New(client, rec, player,
		rtvoice.WithLogger(logger),
		rtvoice.WithInstructions(cfg.Instructions),
		rtvoice.WithVoice(cfg.Voice),
		rtvoice.WithTranscriptionModel(cfg.TranscriptionModel),
		rtvoice.WithGreeting(cfg.Greeting),
		rtvoice.WithTurnMode(mode),
		rtvoice.WithOnUpdate(func() { ui.render(console) }),
	)
	defer console.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := console.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "rtvoice: connect: %v\n", err)
		return 1
	}
	fmt.Println("connected. commands: say <text> | mode vad|manual | connect | disconnect | quit")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return commandLoop(ctx, console, client) })
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "rtvoice: %v\n", err)
		return 1
	}
	return 0
}

// commandLoop reads user intents from stdin and forwards them to the
// console.
func commandLoop(ctx context.Context, console *rtvoice.Console, client *realtime.Client) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		cmd, rest, _ := strings.Cut(line, " ")

		var err error
		switch cmd {
		case "":
		case "quit", "exit":
			return nil
		case "connect":
			err = console.Connect(ctx)
		case "disconnect":
			err = console.Disconnect()
		case "mode":
			switch rest {
			case "vad":
				err = console.SetTurnMode(rtvoice.TurnModeVAD)
			case "manual":
				err = console.SetTurnMode(rtvoice.TurnModeManual)
			default:
				err = fmt.Errorf("usage: mode vad|manual")
			}
		case "say":
			err = client.SendUserMessage(rtvoice.TextContent(rest))
		default:
			err = fmt.Errorf("unknown command %q", cmd)
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "rtvoice: %v\n", err)
		}
	}
	return scanner.Err()
}

func newLogger(level config.LogLevel, debug bool) *slog.Logger {
	l := slog.LevelInfo
	switch level {
	case config.LogDebug:
		l = slog.LevelDebug
	case config.LogWarn:
		l = slog.LevelWarn
	case config.LogError:
		l = slog.LevelError
	}
	if debug {
		l = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
