package config

import "time"

// Backend names accepted in database.backend.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config is the top-level YAML structure.
type Config struct {
	Pipeline PipelineConf `yaml:"pipeline"`
	Database DatabaseConf `yaml:"database"`
	Server   ServerConf   `yaml:"server"`
	Log      LogConf      `yaml:"log"`
}

// PipelineConf holds the flush cycle settings.
type PipelineConf struct {
	FlushIntervalSeconds int    `yaml:"flush_interval_seconds" env:"BLOCKWATCH_FLUSH_INTERVAL_SECONDS"`
	FlatLog              bool   `yaml:"flat_log" env:"BLOCKWATCH_FLAT_LOG"`
	DataDir              string `yaml:"data_dir" env:"BLOCKWATCH_DATA_DIR"`
}

// FlushInterval returns the interval as a duration.
func (p PipelineConf) FlushInterval() time.Duration {
	return time.Duration(p.FlushIntervalSeconds) * time.Second
}

// DatabaseConf selects the relational backend. Everything besides Backend is
// passed through to the driver untouched.
type DatabaseConf struct {
	Backend    string `yaml:"backend" env:"BLOCKWATCH_DB_BACKEND"`
	SQLitePath string `yaml:"sqlite_path" env:"BLOCKWATCH_SQLITE_PATH"`
	DSN        string `yaml:"dsn" env:"BLOCKWATCH_DATABASE_URL"`
	MaxConns   int    `yaml:"max_conns" env:"BLOCKWATCH_DB_MAX_CONNS"`
}

// ServerConf configures the HTTP ingress.
type ServerConf struct {
	Addr string `yaml:"addr" env:"BLOCKWATCH_ADDR"`
}

// LogConf configures slog.
type LogConf struct {
	Level  string `yaml:"level" env:"BLOCKWATCH_LOG_LEVEL"`   // debug | info | warn | error
	Format string `yaml:"format" env:"BLOCKWATCH_LOG_FORMAT"` // text | json
}
