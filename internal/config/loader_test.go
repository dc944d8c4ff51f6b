package config_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"

	"github.com/okian/pitwall/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
				convey.So(cfg.VariabilityMin, convey.ShouldEqual, 0.8)
				convey.So(cfg.VariabilityMax, convey.ShouldEqual, 1.2)
				convey.So(cfg.UseEnvironment, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PITWALL_ADDR", ":8080")
			_ = os.Setenv("PITWALL_QUEUE_SIZE", "500")
			_ = os.Setenv("PITWALL_WORKER_COUNT", "16")
			_ = os.Setenv("PITWALL_VARIABILITY_MIN", "0.9")
			_ = os.Setenv("PITWALL_VARIABILITY_MAX", "1.1")
			_ = os.Setenv("PITWALL_USE_QUALIFYING_GRID", "true")
			_ = os.Setenv("PITWALL_SEED", "42")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.VariabilityMin, convey.ShouldEqual, 0.9)
				convey.So(cfg.VariabilityMax, convey.ShouldEqual, 1.1)
				convey.So(cfg.UseQualifyingGrid, convey.ShouldBeTrue)
				convey.So(cfg.Seed, convey.ShouldEqual, 42)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
queue_size: 300
worker_count: 24
max_stored_runs: 50
use_environment: false
trace_checkpoints: 4
log_format: json
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PITWALL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.MaxStoredRuns, convey.ShouldEqual, 50)
				convey.So(cfg.UseEnvironment, convey.ShouldBeFalse)
				convey.So(cfg.TraceCheckpoints, convey.ShouldEqual, 4)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
queue_size: 300
worker_count: 24
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PITWALL_CONFIG", tmpFile)
			_ = os.Setenv("PITWALL_ADDR", ":8080")
			_ = os.Setenv("PITWALL_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PITWALL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PITWALL_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the variability range from env is inverted", func() {
			_ = os.Setenv("PITWALL_VARIABILITY_MIN", "1.3")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fail validation", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			cfg, err := config.Load(cctx)

			convey.Convey("Then it should return the context error", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "pitwall-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = tmpFile.Close() }()

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"PITWALL_CONFIG",
		"PITWALL_ADDR",
		"PITWALL_QUEUE_SIZE",
		"PITWALL_WORKER_COUNT",
		"PITWALL_VARIABILITY_MIN",
		"PITWALL_VARIABILITY_MAX",
		"PITWALL_USE_QUALIFYING_GRID",
		"PITWALL_SEED",
	} {
		_ = os.Unsetenv(key)
	}
}
