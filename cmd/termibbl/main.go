package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"termibbl/internal/config"
	"termibbl/internal/logging"
	"termibbl/internal/server"
	"termibbl/internal/words"
)

const usage = `usage:
  termibbl server [--port n] [--http addr] [--config file.toml] [--words file]
                  [--dimensions WxH] [--draw-time s] [--rounds n] [--advertise] [--debug]
  termibbl client [--address host:port] <username>
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "server":
		err = runServer(ctx, os.Args[2:])
	case "client":
		err = runClient(ctx, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "termibbl:", err)
		os.Exit(1)
	}
}

type serverFlags struct {
	port       int
	httpAddr   string
	configPath string
	envPath    string
	wordsPath  string
	dimensions string
	drawTime   int
	rounds     int
	advertise  bool
	debug      bool
}

func parseServerFlags(args []string) (serverFlags, map[string]bool, error) {
	var f serverFlags
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.IntVar(&f.port, "port", 0, "TCP port for game connections")
	fs.StringVar(&f.httpAddr, "http", "", "address for the HTTP status page and websocket transport")
	fs.StringVar(&f.configPath, "config", "", "TOML config file")
	fs.StringVar(&f.envPath, "env", ".env", "dotenv file")
	fs.StringVar(&f.wordsPath, "words", "", "custom word list, one word per line")
	fs.StringVar(&f.dimensions, "dimensions", "", "canvas size <width>x<height>")
	fs.IntVar(&f.drawTime, "draw-time", 0, "drawing time in seconds")
	fs.IntVar(&f.rounds, "rounds", 0, "rotation cycles per game, 0 plays forever")
	fs.BoolVar(&f.advertise, "advertise", false, "advertise the server on the LAN over mDNS")
	fs.BoolVar(&f.debug, "debug", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return f, nil, err
	}
	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set, nil
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(cfg config.Config, f serverFlags, set map[string]bool) (config.Config, error) {
	if set["port"] {
		cfg.Port = f.port
	}
	if set["http"] {
		cfg.HTTPAddr = f.httpAddr
	}
	if set["words"] {
		cfg.WordsFile = f.wordsPath
	}
	if set["dimensions"] {
		w, h, err := config.ParseDimensions(f.dimensions)
		if err != nil {
			return cfg, err
		}
		cfg.Width, cfg.Height = w, h
	}
	if set["draw-time"] {
		cfg.DrawSeconds = f.drawTime
	}
	if set["rounds"] {
		cfg.Rounds = f.rounds
	}
	if set["advertise"] {
		cfg.Advertise = f.advertise
	}
	if set["debug"] && f.debug {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func runServer(ctx context.Context, args []string) error {
	f, set, err := parseServerFlags(args)
	if err != nil {
		return err
	}
	if err := config.LoadDotEnv(f.envPath); err != nil {
		return fmt.Errorf("load %s: %w", f.envPath, err)
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if cfg, err = applyFlags(cfg, f, set); err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogPretty)

	var bank *words.Bank
	if cfg.WordsFile != "" {
		list, err := words.LoadFile(cfg.WordsFile)
		if err != nil {
			return err
		}
		if bank, err = words.New(list, cfg.RecentWords, nil); err != nil {
			return fmt.Errorf("%s: %w", cfg.WordsFile, err)
		}
		logger.Info().Str("file", cfg.WordsFile).Int("words", bank.Len()).Msg("custom word list loaded")
	}

	srv, err := server.New(cfg, logger, bank)
	if err != nil {
		return err
	}
	logger.Info().Int("port", cfg.Port).Int("width", cfg.Width).Int("height", cfg.Height).
		Int("rounds", cfg.Rounds).Msg("termibbl server starting")
	return srv.ListenAndRun(ctx)
}
