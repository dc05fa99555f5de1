package config

type LogConfig struct {
	LogLevel   string `json:"logLevel,omitempty"`
	LogHandler string `json:"logHandler,omitempty"`
}

func NewLogConfig() *LogConfig {
	return &LogConfig{
		LogLevel:   "info",
		LogHandler: "default",
	}
}
