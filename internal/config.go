package internal

import (
	"time"
)

type Config struct {
	Host     string `env:"HOST,default=localhost"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	JWTSecret      string `env:"JWT_SECRET,required=true"`

	// BufferSize sizes the dispatcher's offline-event channel;
	// ConnectionBufferSize sizes each connection's outbound buffer.
	BufferSize           int `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize int `env:"CONNECTION_BUFFER_SIZE,default=64"`

	// PushTimeout bounds a single push attempt; past it the
	// participant simply stays pending.
	PushTimeout     time.Duration `env:"PUSH_TIMEOUT,default=5s"`
	PingInterval    time.Duration `env:"PING_INTERVAL,default=30s"`
	PongTimeout     time.Duration `env:"PONG_TIMEOUT,default=75s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`

	MaxContentLength int `env:"MAX_CONTENT_LENGTH,default=4000"`
}
