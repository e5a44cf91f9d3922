package cli

import (
	"fmt"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
)

// LevelFlag is a log level flag that remembers whether it was given, so an
// unset flag can fall back to the configuration file.
type LevelFlag struct {
	Level zapcore.Level
	IsSet bool
}

var _ pflag.Value = (*LevelFlag)(nil)

func (l *LevelFlag) String() string {
	if !l.IsSet {
		return ""
	}
	return l.Level.String()
}

// Set parses a level name.
func (l *LevelFlag) Set(s string) error {
	var level zapcore.Level
	if err := level.Set(s); err != nil {
		return fmt.Errorf("unknown log level %q; supported levels are debug, info, warn, error", s)
	}
	l.Level, l.IsSet = level, true
	return nil
}

func (l *LevelFlag) Type() string {
	return "level"
}
