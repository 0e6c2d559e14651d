package config

import "time"

const (
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultReadTimeout      = 5 * time.Second
	DefaultWriteTimeout     = 15 * time.Second
	DefaultPGMaxConns       = 4
	DefaultPGMinConns       = 1
	DefaultConnectMaxWait   = 15 * time.Second
	DefaultUpstreamMaxBody  = 64 << 10
	DefaultRedisSnapshotKey = "metalspot:snapshot"
)
