package main

import (
	"testing"
	"time"

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

func findStringFlag(t *testing.T, cmd *cli.Command, name string) *cli.StringFlag {
	t.Helper()
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
			return f
		}
	}
	t.Fatalf("string flag %q not found on %q", name, cmd.Name)
	return nil
}

func findIntFlag(t *testing.T, cmd *cli.Command, name string) *cli.IntFlag {
	t.Helper()
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.IntFlag); ok && f.Name == name {
			return f
		}
	}
	t.Fatalf("int flag %q not found on %q", name, cmd.Name)
	return nil
}

func findDurationFlag(t *testing.T, cmd *cli.Command, name string) *cli.DurationFlag {
	t.Helper()
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.DurationFlag); ok && f.Name == name {
			return f
		}
	}
	t.Fatalf("duration flag %q not found on %q", name, cmd.Name)
	return nil
}

func TestAppCommands(t *testing.T) {
	app := newApp()

	for _, name := range []string{"worker", "enqueue", "status", "enrich", "recommend"} {
		cmd := findCommand(t, app, name)
		dbFlag := findStringFlag(t, cmd, "db")
		assert.True(t, dbFlag.Required, "%s: db should be required", name)
	}
}

func TestWorkerCommandFlags(t *testing.T) {
	app := newApp()
	cmd := findCommand(t, app, "worker")

	t.Run("extraction flags have local defaults", func(t *testing.T) {
		assert.Equal(t, "http://localhost:11434/v1", findStringFlag(t, cmd, "extraction-host").Value)
		assert.Equal(t, "llava:13b", findStringFlag(t, cmd, "extraction-model").Value)
	})

	t.Run("embedding flags have local defaults", func(t *testing.T) {
		assert.Equal(t, "all-minilm", findStringFlag(t, cmd, "embedding-model").Value)
		assert.Equal(t, "clip-vit-large", findStringFlag(t, cmd, "image-embedding-model").Value)
		assert.Equal(t, "http://localhost:9200", findStringFlag(t, cmd, "image-embedding-host").Value)
	})

	t.Run("queue tuning defaults", func(t *testing.T) {
		assert.Equal(t, 8, findIntFlag(t, cmd, "batch-size").Value)
		assert.Equal(t, 3, findIntFlag(t, cmd, "max-retries").Value)
		assert.Equal(t, 2*time.Second, findDurationFlag(t, cmd, "poll-interval").Value)
		assert.Equal(t, 5*time.Minute, findDurationFlag(t, cmd, "reclaim-after").Value)
		assert.Equal(t, 10*time.Minute, findDurationFlag(t, cmd, "sweep-interval").Value)
	})

	t.Run("pool-size defaults to zero for auto sizing", func(t *testing.T) {
		assert.Zero(t, findIntFlag(t, cmd, "pool-size").Value)
	})
}

func TestEnqueueCommandRequiresUserAndImage(t *testing.T) {
	t.Run("user is required", func(t *testing.T) {
		err := newApp().Run([]string{"vinolog", "enqueue", "--db", t.TempDir(), "--image-url", "https://example.com/a.jpg"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "user")
	})

	t.Run("image-url is required", func(t *testing.T) {
		err := newApp().Run([]string{"vinolog", "enqueue", "--db", t.TempDir(), "--user", "7"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "image-url")
	})
}

func TestRecommendCommandRequiresExactlyOneTarget(t *testing.T) {
	t.Run("neither scan nor wine", func(t *testing.T) {
		err := newApp().Run([]string{"vinolog", "recommend", "--db", t.TempDir()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one")
	})

	t.Run("both scan and wine", func(t *testing.T) {
		err := newApp().Run([]string{"vinolog", "recommend", "--db", t.TempDir(), "--scan", "1", "--wine", "2"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one")
	})
}

func TestSetupLogger(t *testing.T) {
	app := newApp()
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "noop",
		Action: func(*cli.Context) error { return nil },
	})

	t.Run("accepts known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
			assert.NoError(t, app.Run([]string{"vinolog", "--log-level", level, "noop"}), "level %q", level)
		}
	})

	t.Run("rejects unknown levels", func(t *testing.T) {
		err := app.Run([]string{"vinolog", "--log-level", "verbose", "noop"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestRecommendationString(t *testing.T) {
	t.Run("named wine", func(t *testing.T) {
		r := recommendation{wineID: 4, producer: "Villa Oliveira", name: "Reserva", percent: 71}
		assert.Equal(t, " 71%  Villa Oliveira Reserva (wine 4)", r.String())
	})

	t.Run("duplicate marker", func(t *testing.T) {
		r := recommendation{wineID: 4, name: "Reserva", percent: 95, duplicate: true}
		assert.Equal(t, " 95%  Reserva (wine 4) [likely duplicate]", r.String())
	})

	t.Run("falls back to wine id", func(t *testing.T) {
		r := recommendation{wineID: 9, percent: 63}
		assert.Equal(t, " 63%  wine 9 (wine 9)", r.String())
	})
}
