package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const envPrefix = "TERMIBBL_"

type Config struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	HTTPAddr string `toml:"http_addr"`

	Width  int `toml:"width"`
	Height int `toml:"height"`

	MaxPlayers        int    `toml:"max_players"`
	MinPlayers        int    `toml:"min_players"`
	Rounds            int    `toml:"rounds"`
	WordChoices       int    `toml:"word_choices"`
	RecentWords       int    `toml:"recent_words"`
	WordSelectSeconds int    `toml:"word_select_seconds"`
	DrawSeconds       int    `toml:"draw_seconds"`
	RoundEndSeconds   int    `toml:"round_end_seconds"`
	HintSeconds       int    `toml:"hint_seconds"`
	ChatHistory       int    `toml:"chat_history"`
	WordsFile         string `toml:"words_file"`

	BasePoints   int `toml:"base_points"`
	DrawerPoints int `toml:"drawer_points"`

	HeartbeatSeconds int     `toml:"heartbeat_seconds"`
	HandshakeSeconds int     `toml:"handshake_seconds"`
	MessageRate      float64 `toml:"message_rate"`
	MessageBurst     int     `toml:"message_burst"`
	MaxFrameBytes    int     `toml:"max_frame_bytes"`
	OutboundQueue    int     `toml:"outbound_queue"`

	Advertise bool   `toml:"advertise"`
	LogLevel  string `toml:"log_level"`
	LogPretty bool   `toml:"log_pretty"`
}

func Default() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              9001,
		Width:             100,
		Height:            40,
		MaxPlayers:        12,
		MinPlayers:        2,
		Rounds:            3,
		WordChoices:       3,
		RecentWords:       20,
		WordSelectSeconds: 15,
		DrawSeconds:       120,
		RoundEndSeconds:   5,
		HintSeconds:       30,
		ChatHistory:       50,
		BasePoints:        500,
		DrawerPoints:      50,
		HeartbeatSeconds:  15,
		HandshakeSeconds:  10,
		MessageRate:       20,
		MessageBurst:      40,
		MaxFrameBytes:     1 << 20,
		OutboundQueue:     256,
		LogLevel:          "info",
		LogPretty:         true,
	}
}

// Load builds a config from defaults, an optional TOML file and TERMIBBL_*
// environment variables, in increasing precedence.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg = FromEnv(cfg)
	return cfg, cfg.Validate()
}

// LoadFile decodes a TOML file over cfg. Keys missing from the file keep
// their current values.
func LoadFile(path string, cfg *Config) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func FromEnv(cfg Config) Config {
	envString("HOST", &cfg.Host)
	envInt("PORT", &cfg.Port)
	envString("HTTP_ADDR", &cfg.HTTPAddr)
	envInt("WIDTH", &cfg.Width)
	envInt("HEIGHT", &cfg.Height)
	envInt("MAX_PLAYERS", &cfg.MaxPlayers)
	envInt("MIN_PLAYERS", &cfg.MinPlayers)
	envInt("ROUNDS", &cfg.Rounds)
	envInt("WORD_CHOICES", &cfg.WordChoices)
	envInt("RECENT_WORDS", &cfg.RecentWords)
	envInt("WORD_SELECT_SECONDS", &cfg.WordSelectSeconds)
	envInt("DRAW_SECONDS", &cfg.DrawSeconds)
	envInt("ROUND_END_SECONDS", &cfg.RoundEndSeconds)
	envInt("HINT_SECONDS", &cfg.HintSeconds)
	envInt("CHAT_HISTORY", &cfg.ChatHistory)
	envString("WORDS_FILE", &cfg.WordsFile)
	envInt("BASE_POINTS", &cfg.BasePoints)
	envInt("DRAWER_POINTS", &cfg.DrawerPoints)
	envInt("HEARTBEAT_SECONDS", &cfg.HeartbeatSeconds)
	envInt("HANDSHAKE_SECONDS", &cfg.HandshakeSeconds)
	if raw := os.Getenv(envPrefix + "MESSAGE_RATE"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value > 0 {
			cfg.MessageRate = value
		}
	}
	envInt("MESSAGE_BURST", &cfg.MessageBurst)
	envInt("MAX_FRAME_BYTES", &cfg.MaxFrameBytes)
	envInt("OUTBOUND_QUEUE", &cfg.OutboundQueue)
	if raw := os.Getenv(envPrefix + "ADVERTISE"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.Advertise = value
		}
	}
	envString("LOG_LEVEL", &cfg.LogLevel)
	if raw := os.Getenv(envPrefix + "LOG_PRETTY"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.LogPretty = value
		}
	}
	return cfg
}

func envString(name string, dst *string) {
	if raw := os.Getenv(envPrefix + name); raw != "" {
		*dst = raw
	}
}

func envInt(name string, dst *int) {
	if raw := os.Getenv(envPrefix + name); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			*dst = value
		}
	}
}

// ParseDimensions parses a "WxH" string.
func ParseDimensions(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("dimensions %q: want <width>x<height>", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0, fmt.Errorf("dimensions %q: %w", s, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("dimensions %q: %w", s, err)
	}
	return width, height, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas %dx%d must be positive", c.Width, c.Height))
	}
	if c.MinPlayers < 2 {
		errs = append(errs, errors.New("min_players must be at least 2"))
	}
	if c.MaxPlayers < c.MinPlayers {
		errs = append(errs, fmt.Errorf("max_players %d below min_players %d", c.MaxPlayers, c.MinPlayers))
	}
	if c.WordChoices < 1 || c.WordChoices > 16 {
		errs = append(errs, fmt.Errorf("word_choices %d must be between 1 and 16", c.WordChoices))
	}
	if c.WordSelectSeconds <= 0 || c.DrawSeconds <= 0 {
		errs = append(errs, errors.New("word_select_seconds and draw_seconds must be positive"))
	}
	if c.HeartbeatSeconds <= 0 || c.HandshakeSeconds <= 0 {
		errs = append(errs, errors.New("heartbeat_seconds and handshake_seconds must be positive"))
	}
	if c.ChatHistory <= 0 {
		errs = append(errs, errors.New("chat_history must be positive"))
	}
	if c.MessageRate <= 0 || c.MessageBurst <= 0 {
		errs = append(errs, errors.New("message_rate and message_burst must be positive"))
	}
	if c.MaxFrameBytes <= 0 || c.OutboundQueue <= 0 {
		errs = append(errs, errors.New("max_frame_bytes and outbound_queue must be positive"))
	}
	return errors.Join(errs...)
}
