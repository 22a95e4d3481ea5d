package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/koshadb/pkg/api"
	"github.com/ssargent/koshadb/pkg/config"
	"github.com/ssargent/koshadb/pkg/di"
	"github.com/ssargent/koshadb/pkg/kosha"
	"github.com/ssargent/koshadb/pkg/semantics"
)

const sortedInput = `{"key":"ca","pada":{"pos":"avyaya","pratipadika":"ca"}}
{"key":"gacCati","pada":{"pos":"tinanta","dhatu":"gam","purusha":"prathama","vacana":"eka","lakara":"lat","pada_prayoga":"parasmaipada"}}
{"key":"gacCati","pada":{"pos":"subanta","pratipadika":"gacCat","linga":"pum","vibhakti":"v7","vacana":"eka"}}

{"key":"rama","pada":{"pos":"subanta","pratipadika":"rama","linga":"pum","vibhakti":"v1","vacana":"eka"}}
`

const unsortedInput = `{"key":"rama","pada":{"pos":"subanta","pratipadika":"rama","linga":"pum","vibhakti":"v1","vacana":"eka"}}
{"key":"gacCati","pada":{"pos":"tinanta","dhatu":"gam","purusha":"prathama","vacana":"eka","lakara":"lat","pada_prayoga":"parasmaipada"}}
{"key":"ca","pada":{"pos":"avyaya","pratipadika":"ca"}}
{"key":"gacCati","pada":{"pos":"subanta","pratipadika":"gacCat","linga":"pum","vibhakti":"v7","vacana":"eka"}}
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "kosha")
	cfg.Build.StagingDir = t.TempDir()
	return cfg
}

func testLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func assertGacchati(t *testing.T, dir string) {
	t.Helper()

	k, err := kosha.Open(dir)
	require.NoError(t, err)
	defer k.Close()

	assert.Equal(t, 3, k.Len())
	assert.Equal(t, uint64(4), k.Records())

	padas, err := k.GetAllPadas("gacCati")
	require.NoError(t, err)
	require.Len(t, padas, 2)
	assert.Equal(t, semantics.PosTinanta, padas[0].PartOfSpeech())
	assert.Equal(t, semantics.PosSubanta, padas[1].PartOfSpeech())
}

func TestBuildKosha(t *testing.T) {
	t.Run("sorted input", func(t *testing.T) {
		cfg := testConfig(t)
		stats, err := buildKosha(cfg, testLogger(), strings.NewReader(sortedInput), false)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.keys)
		assert.Equal(t, uint64(4), stats.records)
		assertGacchati(t, cfg.DataDir)
	})

	t.Run("unsorted input with sort", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Build.IndexCompression = "none"
		_, err := buildKosha(cfg, testLogger(), strings.NewReader(unsortedInput), true)
		require.NoError(t, err)
		assertGacchati(t, cfg.DataDir)
	})

	t.Run("unsorted input without sort", func(t *testing.T) {
		cfg := testConfig(t)
		_, err := buildKosha(cfg, testLogger(), strings.NewReader(unsortedInput), false)
		require.Error(t, err)
		assert.ErrorIs(t, err, kosha.ErrOrdering)
		assert.Contains(t, err.Error(), "line 2")

		// The aborted build leaves the directory reusable.
		_, err = buildKosha(cfg, testLogger(), strings.NewReader(sortedInput), false)
		assert.NoError(t, err)
	})

	t.Run("bad line", func(t *testing.T) {
		cfg := testConfig(t)
		input := sortedInput + `{"key":"te","pada":{"pos":"kridanta"}}` + "\n"
		_, err := buildKosha(cfg, testLogger(), strings.NewReader(input), true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 6")

		_, err = kosha.Open(cfg.DataDir)
		assert.ErrorIs(t, err, kosha.ErrStorageUnavailable)
	})

	t.Run("existing store", func(t *testing.T) {
		cfg := testConfig(t)
		_, err := buildKosha(cfg, testLogger(), strings.NewReader(sortedInput), false)
		require.NoError(t, err)

		_, err = buildKosha(cfg, testLogger(), strings.NewReader(sortedInput), false)
		assert.ErrorIs(t, err, kosha.ErrStoreExists)
	})
}

func TestPrintReadings(t *testing.T) {
	cfg := testConfig(t)
	_, err := buildKosha(cfg, testLogger(), strings.NewReader(sortedInput), false)
	require.NoError(t, err)

	k, err := kosha.Open(cfg.DataDir)
	require.NoError(t, err)
	defer k.Close()

	var out bytes.Buffer
	require.NoError(t, printReadings(&out, testLogger(), k, "ca", false))
	assert.Equal(t, "Pada(pos=avyaya, pratipadika=Pratipadika(text='ca'))\n", out.String())

	out.Reset()
	require.NoError(t, printReadings(&out, testLogger(), k, "gacCati", true))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	p, err := semantics.UnmarshalPada([]byte(lines[1]))
	require.NoError(t, err)
	assert.Equal(t, semantics.PosSubanta, p.PartOfSpeech())

	err = printReadings(&out, testLogger(), k, "missing", false)
	assert.Error(t, err)
}

func TestInitializeConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "kosha.yaml")
	var out bytes.Buffer

	require.NoError(t, initializeConfig(&out, configPath, "/srv/kosha", true, false))
	assert.Contains(t, out.String(), "Configuration written")
	assert.Contains(t, out.String(), "API key:")

	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "/srv/kosha", cfg.DataDir)
	assert.NotEmpty(t, cfg.Security.APIKey)

	out.Reset()
	require.NoError(t, initializeConfig(&out, configPath, "/elsewhere", false, false))
	assert.Contains(t, out.String(), "already exists")

	out.Reset()
	require.NoError(t, initializeConfig(&out, configPath, "/elsewhere", false, true))
	cfg, err = config.LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere", cfg.DataDir)
	assert.Empty(t, cfg.Security.APIKey)
}

type recordingFactory struct {
	starter *recordingStarter
}

func (f *recordingFactory) CreateServerStarter() api.ServerStarter { return f.starter }

type recordingStarter struct {
	config api.ServerConfig
	keys   int
}

func (s *recordingStarter) StartServer(_ context.Context, lexicon api.Lexicon, config api.ServerConfig, _ logrus.FieldLogger) error {
	s.config = config
	s.keys = lexicon.Len()
	return nil
}

func TestServe(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = 9300
	cfg.Security.APIKey = "secret"
	_, err := buildKosha(cfg, testLogger(), strings.NewReader(sortedInput), false)
	require.NoError(t, err)

	starter := &recordingStarter{}
	c := di.NewContainer()
	c.SetServerFactory(&recordingFactory{starter: starter})
	SetContainer(c)
	defer SetContainer(nil)

	require.NoError(t, serve(context.Background(), cfg, testLogger()))
	assert.Equal(t, 3, starter.keys)
	assert.Equal(t, api.ServerConfig{
		Bind:      "127.0.0.1",
		Port:      9300,
		APIKey:    "secret",
		CacheSize: cfg.Cache.Size,
	}, starter.config)

	t.Run("missing kosha", func(t *testing.T) {
		missing := testConfig(t)
		err := serve(context.Background(), missing, testLogger())
		assert.ErrorIs(t, err, kosha.ErrStorageUnavailable)
	})
}

func TestRootCommand(t *testing.T) {
	tmp := t.TempDir()
	dataDir := filepath.Join(tmp, "kosha")
	configPath := filepath.Join(tmp, "missing.yaml")
	inputPath := filepath.Join(tmp, "padas.jsonl")
	require.NoError(t, os.WriteFile(inputPath, []byte(unsortedInput), 0600))

	run := func(args ...string) string {
		t.Helper()
		var out, errOut bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&errOut)
		rootCmd.SetArgs(append([]string{"--config", configPath, "--data-dir", dataDir}, args...))
		require.NoError(t, rootCmd.Execute(), errOut.String())
		return out.String()
	}

	assert.Contains(t, run("build", "--input", inputPath, "--sort"), "3 keys, 4 records")
	assert.Equal(t, "Pada(pos=avyaya, pratipadika=Pratipadika(text='ca'))\n", run("get", "ca"))
	assert.Equal(t, "gacCati\n", run("prefix", "gac"))
	assert.Equal(t, "OK: 3 keys, 4 records\n", run("verify", "--workers", "2"))
}
