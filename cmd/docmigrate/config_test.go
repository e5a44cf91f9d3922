package main_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	main "github.com/mgt2e/docmigrate/cmd/docmigrate"
	"github.com/mgt2e/docmigrate/vocab"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// Testing configuration file.
const testFile = `
# Log output of docmigrate.
[logging]
format = "json"
level = "debug"

# Creature vocabularies used when normalizing behaviours and traits.
[vocabulary]
behaviours = ["grazer", "hunter", "pouncer"]
`

func TestParseConfig(t *testing.T) {
	c, err := main.ParseConfig(testFile)
	require.NoError(t, err)

	require.Equal(t, "json", c.Logging.Format)
	require.Equal(t, zapcore.DebugLevel, c.Logging.Level)
	if diff := cmp.Diff([]string{"grazer", "hunter", "pouncer"}, c.Vocabulary.Behaviours); diff != "" {
		t.Fatalf("unexpected behaviours (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(vocab.DefaultConfig().Traits, c.Vocabulary.Traits); diff != "" {
		t.Fatalf("traits should keep their default (-want +got):\n%s", diff)
	}
}

func TestParseConfig_EmptyVocabularyKeepsDefault(t *testing.T) {
	c, err := main.ParseConfig(`
[vocabulary]
behaviours = []
traits = ["flyer"]
`)
	require.NoError(t, err)

	if diff := cmp.Diff(vocab.DefaultConfig().Behaviours, c.Vocabulary.Behaviours); diff != "" {
		t.Fatalf("behaviours should keep their default (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"flyer"}, c.Vocabulary.Traits)
}

func TestParseConfig_Defaults(t *testing.T) {
	c, err := main.ParseConfig("")
	require.NoError(t, err)
	if diff := cmp.Diff(main.NewConfig(), c); diff != "" {
		t.Fatalf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	for _, s := range []string{
		"[logging]\nlevel = \"loud\"\n",
		"[logging]\ncolour = true\n",
		"[vocabulary\n",
	} {
		_, err := main.ParseConfig(s)
		require.Error(t, err, s)
	}
}

func TestLoadConfig(t *testing.T) {
	c, err := main.LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, main.NewConfig(), c)

	path := filepath.Join(t.TempDir(), "docmigrate.toml")
	require.NoError(t, os.WriteFile(path, []byte(testFile), 0600))
	c, err = main.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "json", c.Logging.Format)

	_, err = main.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
