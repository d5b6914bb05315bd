// Package selfmatch plays games between two agents, checks every move
// with the rule engine and records the results.
package selfmatch

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Config controls a self-match. Zero durations mean "no limit".
type Config struct {
	Games         int                  `json:"games"`
	MoveTimeMs    int                  `json:"move_time_ms"`
	GameTimeMs    int                  `json:"game_time_ms"`
	ByoyomiMs     int                  `json:"byoyomi_ms"`
	GraceMs       int                  `json:"grace_ms"`
	MaxPly        int                  `json:"max_ply"`
	Ponder        bool                 `json:"ponder"`
	PositionsFile string               `json:"positions_file"`
	StartSFEN     string               `json:"start_sfen"`
	KifuPath      string               `json:"kifu_path"`
	KifDir        string               `json:"kif_dir"`
	KifUTF8       bool                 `json:"kif_utf8"`
	Seed          int64                `json:"seed"`
	MonitorAddr   string               `json:"monitor_addr"`
	LogInfo       bool                 `json:"log_info"`
	Options       [2]map[string]string `json:"options"`
}

// DefaultConfig is one game at one second per move.
func DefaultConfig() Config {
	return Config{
		Games:      1,
		MoveTimeMs: 1000,
		GraceMs:    100,
		MaxPly:     256,
	}
}

// LoadConfig reads a JSON config. Missing fields keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate rejects negative limits.
func (c Config) Validate() error {
	switch {
	case c.Games < 0:
		return errors.Errorf("games must not be negative, got %d", c.Games)
	case c.MoveTimeMs < 0, c.GameTimeMs < 0, c.ByoyomiMs < 0, c.GraceMs < 0:
		return errors.New("time limits must not be negative")
	case c.MaxPly < 0:
		return errors.Errorf("max_ply must not be negative, got %d", c.MaxPly)
	case c.PositionsFile != "" && c.StartSFEN != "":
		return errors.New("positions_file and start_sfen are exclusive")
	}
	return nil
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// MoveTime is the fixed per-move limit.
func (c Config) MoveTime() time.Duration { return ms(c.MoveTimeMs) }

// GameTime is each side's main clock.
func (c Config) GameTime() time.Duration { return ms(c.GameTimeMs) }

// Byoyomi is the per-move allowance once the main clock is spent.
func (c Config) Byoyomi() time.Duration { return ms(c.ByoyomiMs) }

// Grace is how long a stopped agent may take before it loses on time.
func (c Config) Grace() time.Duration { return ms(c.GraceMs) }
