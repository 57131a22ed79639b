package config

import "time"

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Bot:       DefaultBotConfig(),
		Model:     DefaultModelConfig(),
		Wave:      DefaultWaveConfig(),
		Redis:     DefaultRedisConfig(),
		Database:  DefaultDatabaseConfig(),
		Mongo:     DefaultMongoConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns the default HTTP listener settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    100,
		RateLimitBurst:  200,
	}
}

// DefaultBotConfig returns the default chat entry settings. The token is
// intentionally empty: without one, the bot stays off.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		WebhookPath:   "/api/messages",
		HandleTimeout: 2 * time.Minute,
	}
}

// DefaultModelConfig returns the default model client settings.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Provider:    "openai",
		Name:        "gpt-4o-mini",
		MaxTokens:   1024,
		Temperature: 0.7,
		Timeout:     2 * time.Minute,
		MaxRetries:  3,
	}
}

// DefaultWaveConfig returns the default orchestration settings.
func DefaultWaveConfig() WaveConfig {
	return WaveConfig{
		SystemPrompt:       "You are a helpful assistant. Respond with JSON.",
		MaxRepairAttempts:  3,
		MaxHistoryMessages: 10,
		MaxInputTokens:     2048,
	}
}

// DefaultRedisConfig returns the default shared memory settings.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		TTL:          24 * time.Hour,
	}
}

// DefaultDatabaseConfig returns the default transcript store settings. The
// in-process sqlite default keeps single-binary deployments dependency-free.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		Name:            "alphawave.db",
		Host:            "localhost",
		Port:            5432,
		User:            "alphawave",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DefaultMongoConfig returns the default audit trail settings.
func DefaultMongoConfig() MongoConfig {
	return MongoConfig{
		URI:           "mongodb://localhost:27017",
		Database:      "alphawave",
		Collection:    "turn_audit",
		BufferSize:    256,
		FlushInterval: 5 * time.Second,
		BatchSize:     32,
	}
}

// DefaultLogConfig returns the default logging settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig returns the default tracing settings.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "alphawave",
		SampleRate:   0.1,
	}
}
