package influxdb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/irkeyd/irkeyd/internal/infrastructure/config"
	"github.com/irkeyd/irkeyd/internal/infrastructure/influxdb"
)

// testConfig returns a configuration for the local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "irkeyd-dev-token",
		Org:           "irkeyd",
		Bucket:        "metrics",
		BatchSize:     100,
		FlushInterval: 1, // 1 second for faster test feedback
	}
}

// skipIfNoInfluxDB skips the test if InfluxDB is not running.
func skipIfNoInfluxDB(t *testing.T) *influxdb.Client {
	t.Helper()
	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Skip("InfluxDB not available, skipping integration test")
	}
	return client
}

func TestConnectDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect(t *testing.T) {
	client := skipIfNoInfluxDB(t)
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestWriteSignal(t *testing.T) {
	client := skipIfNoInfluxDB(t)
	defer client.Close()

	client.WriteSignal(1, 2, 3, "gpio-ir0", 2)
	client.WriteSignal(9, 9, 9, "api", 0)
	client.Flush()
}

func TestWriteEmission(t *testing.T) {
	client := skipIfNoInfluxDB(t)
	defer client.Close()

	client.WriteEmission("tv", "power", 116)
	client.Flush()
}

func TestWriteAfterClose(t *testing.T) {
	client := skipIfNoInfluxDB(t)
	client.Close()

	// Writes after close are dropped, not panics.
	client.WriteSignal(1, 2, 3, "gpio-ir0", 0)
	client.WriteReceiverStats(1, 1, 0)
	client.Flush()
}
