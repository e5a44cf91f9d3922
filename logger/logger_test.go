package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/mgt2e/docmigrate/logger"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(&buf, logger.Config{Format: "json", Level: zapcore.InfoLevel})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("Migrating pack", zap.String("pack", "weapons"))
	require.NoError(t, log.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "Migrating pack", entry["msg"])
	require.Equal(t, "weapons", entry["pack"])
	require.NotContains(t, buf.String(), "hidden")
}

func TestNew_Logfmt(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(&buf, logger.Config{Format: "auto", Level: zapcore.InfoLevel})
	require.NoError(t, err)

	log.Info("Migrating pack", zap.String("pack", "weapons"))
	require.NoError(t, log.Sync())

	require.Contains(t, buf.String(), `msg="Migrating pack"`)
	require.Contains(t, buf.String(), "pack=weapons")
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := logger.New(&bytes.Buffer{}, logger.Config{Format: "xml"})
	require.Error(t, err)
}

func TestConfig_Parse(t *testing.T) {
	c := logger.NewConfig()
	if _, err := toml.Decode(`
format = "json"
level = "debug"
`, &c); err != nil {
		t.Fatal(err)
	}

	require.Equal(t, "json", c.Format)
	require.Equal(t, zapcore.DebugLevel, c.Level)
}

func TestFromContext(t *testing.T) {
	require.NotNil(t, logger.FromContext(context.Background()))

	log := zap.NewExample()
	ctx := logger.NewContextWithLogger(context.Background(), log)
	require.Same(t, log, logger.FromContext(ctx))
}
