package config

// Config is the top-level YAML structure.
type Config struct {
	Version string     `yaml:"version"`
	Server  ServerConf `yaml:"server"`
	Engine  EngineConf `yaml:"engine"`
	Store   StoreConf  `yaml:"store"`
	Ingest  IngestConf `yaml:"ingest"`
	Export  ExportConf `yaml:"export"`
}

// ServerConf holds the HTTP listener settings.
type ServerConf struct {
	Addr            string `yaml:"addr"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
}

// EngineConf holds tunable pass concurrency settings. Worker count and pass
// interval take effect on the next pass after a reload.
type EngineConf struct {
	Workers         int `yaml:"workers"`
	QueueDepth      int `yaml:"queue_depth"`
	PassIntervalSec int `yaml:"pass_interval_sec"`
}

// StoreConf selects the order book backend.
type StoreConf struct {
	Backend string `yaml:"backend"` // memory or pebble
	Path    string `yaml:"path"`
}

// IngestConf configures the Kafka order feed. With Enabled false the HTTP
// ingest path is the only one.
type IngestConf struct {
	Enabled       bool     `yaml:"enabled"`
	Brokers       []string `yaml:"brokers"`
	Topic         string   `yaml:"topic"`
	GroupID       string   `yaml:"group_id"`
	PollTimeoutMs int      `yaml:"poll_timeout_ms"`
}

// ExportConf configures where pass results go. Both sinks may be active at
// once; an empty File disables the file sink.
type ExportConf struct {
	File  string          `yaml:"file"`
	Kafka KafkaExportConf `yaml:"kafka"`
}

type KafkaExportConf struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}
