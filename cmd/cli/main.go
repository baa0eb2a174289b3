package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/pricecheck/internal/config"
	"github.com/mamadbah2/pricecheck/internal/domain/models"
	"github.com/mamadbah2/pricecheck/internal/repository/memory"
	commandsvc "github.com/mamadbah2/pricecheck/internal/service/commands"
	"github.com/mamadbah2/pricecheck/internal/service/comparison"
	"github.com/mamadbah2/pricecheck/internal/service/ranking"
	"github.com/mamadbah2/pricecheck/pkg/logger"
)

const prompt = "> "

func main() {
	envFile := flag.String("env", "", "optional .env file")
	logLevel := flag.String("log-level", "warn", "log level written to stderr")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	baseLogger := logger.Must(logger.New(*logLevel))
	defer func() { _ = baseLogger.Sync() }()

	locale := cfg.Display.Language()
	formatter := ranking.NewFormatter(locale, cfg.Display.CurrencySymbol, cfg.Display.VolumeUnitLabel, cfg.Display.LiterUnitLabel)
	session := comparison.NewSession("cli", memory.NewStore(), ranking.NewEngine(locale, formatter), comparison.Options{
		UndoWindow:         cfg.Session.UndoWindow,
		MaxAttachmentBytes: cfg.Session.MaxAttachmentBytes,
		Logger:             logger.Named(baseLogger, "svc.comparison"),
	})
	defer session.Close()

	dispatcher := commandsvc.NewService(formatter, nil, openFile, logger.Named(baseLogger, "svc.commands"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := repl(ctx, os.Stdin, os.Stdout, dispatcher, session); err != nil {
		baseLogger.Error("input closed with error", zap.Error(err))
		os.Exit(1)
	}
}

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// repl reads one command per line until /quit, end of input or ctx is done.
func repl(ctx context.Context, in io.Reader, out io.Writer, dispatcher commandsvc.Dispatcher, session *comparison.Session) error {
	fmt.Fprintln(out, "Price comparison. Send /help for the commands.")

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, prompt)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(out, prompt)
			continue
		}

		cmd := models.ParseCommand(line)
		reply, err := dispatcher.HandleCommand(ctx, session, cmd)
		if err != nil {
			reply = commandsvc.Describe(err)
		}
		fmt.Fprintln(out, reply)

		if cmd.Type == models.CommandQuit {
			return nil
		}
		fmt.Fprint(out, prompt)
	}
	return scanner.Err()
}
