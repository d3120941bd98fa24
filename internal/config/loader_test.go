package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/venuedraw/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config without an auth secret", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should refuse to start", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "auth_secret must not be empty")
			})
		})

		convey.Convey("When loading config with defaults and a secret", func() {
			_ = os.Setenv("VENUEDRAW_AUTH_SECRET", "s3cret")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "memory")
				convey.So(cfg.DeviceCodeTTLSeconds, convey.ShouldEqual, 600)
				convey.So(cfg.OutboxSize, convey.ShouldEqual, 1024)
				convey.So(cfg.PublisherCount, convey.ShouldEqual, 2)
				convey.So(cfg.AuthSecret, convey.ShouldEqual, "s3cret")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("VENUEDRAW_AUTH_SECRET", "s3cret")
			_ = os.Setenv("VENUEDRAW_ADDR", ":8080")
			_ = os.Setenv("VENUEDRAW_DEVICE_CODE_TTL_SECONDS", "120")
			_ = os.Setenv("VENUEDRAW_SUBSCRIBER_BUFFER", "64")
			_ = os.Setenv("VENUEDRAW_MQTT_BROKER", "tcp://broker:1883")
			_ = os.Setenv("VENUEDRAW_MQTT_QOS", "1")
			_ = os.Setenv("VENUEDRAW_AUTO_MIGRATE", "false")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DeviceCodeTTLSeconds, convey.ShouldEqual, 120)
				convey.So(cfg.SubscriberBuffer, convey.ShouldEqual, 64)
				convey.So(cfg.MQTTEnabled(), convey.ShouldBeTrue)
				convey.So(cfg.MQTTQoS, convey.ShouldEqual, 1)
				convey.So(cfg.AutoMigrate, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
auth_secret: from-file
store_driver: sqlite
database_url: "file:venuedraw.db"
seed_file: fixtures.yaml
mqtt_topic_prefix: venue
publisher_count: 4
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("VENUEDRAW_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.AuthSecret, convey.ShouldEqual, "from-file")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.DatabaseURL, convey.ShouldEqual, "file:venuedraw.db")
				convey.So(cfg.SeedFile, convey.ShouldEqual, "fixtures.yaml")
				convey.So(cfg.MQTTTopicPrefix, convey.ShouldEqual, "venue")
				convey.So(cfg.PublisherCount, convey.ShouldEqual, 4)
				convey.So(cfg.SubscriberBuffer, convey.ShouldEqual, 16)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nauth_secret: from-file\npublisher_count: 4\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("VENUEDRAW_CONFIG", tmpFile)
			_ = os.Setenv("VENUEDRAW_ADDR", ":8080")
			_ = os.Setenv("VENUEDRAW_PUBLISHER_COUNT", "8")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PublisherCount, convey.ShouldEqual, 8)
				convey.So(cfg.AuthSecret, convey.ShouldEqual, "from-file")
			})
		})

		convey.Convey("When a .env file provides the secret", func() {
			dotEnv := filepath.Join(t.TempDir(), "venuedraw.env")
			convey.So(os.WriteFile(dotEnv, []byte("VENUEDRAW_AUTH_SECRET=from-dotenv\nVENUEDRAW_LOG_LEVEL=debug\n"), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("VENUEDRAW_ENV_FILE", dotEnv)

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values should be picked up", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.AuthSecret, convey.ShouldEqual, "from-dotenv")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When the .env file does not exist", func() {
			_ = os.Setenv("VENUEDRAW_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
			_ = os.Setenv("VENUEDRAW_AUTH_SECRET", "s3cret")

			_, err := config.Load(ctx)

			convey.Convey("Then it should be ignored", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile("addr: [unclosed\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("VENUEDRAW_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("VENUEDRAW_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("VENUEDRAW_AUTH_SECRET", "s3cret")
			_ = os.Setenv("VENUEDRAW_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("VENUEDRAW_AUTH_SECRET", "s3cret")
			_ = os.Setenv("VENUEDRAW_OUTBOX_SIZE", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a SQL driver is selected without a database url", func() {
			_ = os.Setenv("VENUEDRAW_AUTH_SECRET", "s3cret")
			_ = os.Setenv("VENUEDRAW_STORE_DRIVER", "pgx")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "database_url")
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, config.EnvPrefix) {
			_ = os.Unsetenv(name)
		}
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "venuedraw-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
