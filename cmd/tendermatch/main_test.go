package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func TestAppFlags(t *testing.T) {
	app := newApp()

	t.Run("commands are registered", func(t *testing.T) {
		for _, name := range []string{"score", "rescore", "run", "embed", "top", "import"} {
			findCommand(t, app, name)
		}
	})

	t.Run("config flag reads TENDERMATCH_CONFIG", func(t *testing.T) {
		var configFlag *cli.StringFlag
		for _, flag := range app.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "config" {
				configFlag = f
			}
		}
		require.NotNil(t, configFlag)
		assert.Equal(t, []string{"TENDERMATCH_CONFIG"}, configFlag.EnvVars)
	})

	t.Run("top limit defaults to 20", func(t *testing.T) {
		cmd := findCommand(t, app, "top")
		var limitFlag *cli.IntFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "limit" {
				limitFlag = f
			}
		}
		require.NotNil(t, limitFlag)
		assert.Equal(t, 20, limitFlag.Value)
	})

	t.Run("import lists every kind", func(t *testing.T) {
		assert.Equal(t, []string{"competitors", "embeddings", "profiles", "results", "tenders"}, importKinds())
	})
}

// writeConfig points a badger backend at a temp directory and returns the config path.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "log_level: error\nbackend: badger\ndb_path: " + filepath.Join(dir, "data") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func writeLines(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func TestCommandValidation(t *testing.T) {
	cfg := writeConfig(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"top requires user", []string{"top"}, "user"},
		{"top rejects zero limit", []string{"top", "--user", "u1", "--limit", "0"}, "limit"},
		{"import requires kind", []string{"import", "x.jsonl"}, "kind"},
		{"import rejects unknown kind", []string{"import", "--kind", "bids", "x.jsonl"}, "unknown kind"},
		{"import requires a file", []string{"import", "--kind", "tenders"}, "FILE"},
		{"embed rejects zero interval", []string{"embed", "--report-interval", "0"}, "report-interval"},
		{"bad log level", []string{"--log-level", "loud", "score"}, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Writer = &bytes.Buffer{}
			app.ErrWriter = &bytes.Buffer{}
			args := append([]string{"tendermatch", "--config", cfg}, tt.args...)
			err := app.Run(args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestImportScoreTop(t *testing.T) {
	cfg := writeConfig(t)
	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		app := newApp()
		app.Writer = &out
		require.NoError(t, app.Run(append([]string{"tendermatch", "--config", cfg}, args...)))
		return out.String()
	}

	tenders := writeLines(t,
		`{"id":"t1","tender_value":600000000,"description":"bridge repair"}`,
		``,
		`{"id":"t2","tender_value":450000000,"description":"road resurfacing"}`,
		`{"id":"t3","description":"no value"}`,
	)
	profiles := writeLines(t,
		`{"user_id":"u1","company_name":"Acme","company_info":{"preferred_tender_amount_range":{"min":400000000,"max":800000000}}}`,
	)

	run("import", "--kind", "tenders", "--batch-size", "2", tenders)
	run("import", "--kind", "profiles", profiles)
	run("score")

	out := run("top", "--user", "u1", "--limit", "1")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "t1")
	assert.Contains(t, lines[0], "55.00")

	// t2 falls below the default midpoint: small tier, 450M/500M*10 = 9.0.
	// t3 has no value and gets no row.
	out = run("top", "--user", "u1")
	lines = strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "t2")
	assert.Contains(t, lines[1], "9.00")
}

func TestImportLines(t *testing.T) {
	ctx := context.Background()

	t.Run("flushes in batches", func(t *testing.T) {
		var sizes []int
		input := strings.NewReader("{\"id\":\"a\"}\n{\"id\":\"b\"}\n\n{\"id\":\"c\"}\n")
		n, err := importLines(ctx, input, 2, func(_ context.Context, batch []*core.Tender) error {
			sizes = append(sizes, len(batch))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, []int{2, 1}, sizes)
	})

	t.Run("reports the bad line", func(t *testing.T) {
		input := strings.NewReader("{\"id\":\"a\"}\nnot json\n")
		n, err := importLines(ctx, input, 10, func(context.Context, []*core.Tender) error { return nil })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
		assert.Zero(t, n)
	})

	t.Run("stops on write failure", func(t *testing.T) {
		boom := errors.New("boom")
		input := strings.NewReader("{\"id\":\"a\"}\n{\"id\":\"b\"}\n")
		_, err := importLines(ctx, input, 1, func(context.Context, []*core.Tender) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("embedding records", func(t *testing.T) {
		input := strings.NewReader(`{"tender_id":"t1","vector":[0.5,0.5]}`)
		var got []*embeddingRecord
		n, err := importLines(ctx, input, 10, func(_ context.Context, batch []*embeddingRecord) error {
			got = append(got, batch...)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, []float32{0.5, 0.5}, got[0].Vector)
	})
}

func TestImporters_ValidateRecords(t *testing.T) {
	ctx := context.Background()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	n, err := importers["tenders"](ctx, store, strings.NewReader(`{"id":"t1","tender_value":-5}`), 10)
	assert.ErrorIs(t, err, core.ErrInvalidTender)
	assert.Zero(t, n)

	n, err = importers["profiles"](ctx, store, strings.NewReader(`{"company_name":"Acme"}`), 10)
	assert.ErrorIs(t, err, core.ErrInvalidProfile)
	assert.Zero(t, n)

	n, err = importers["embeddings"](ctx, store, strings.NewReader(`{"tender_id":"t1","vector":[1,0]}`), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	vec, err := store.GetEmbedding(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
}
