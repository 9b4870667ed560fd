package client

import (
	"net"
	"strconv"
	"time"
)

// DefaultPort is the registered NFS port.
const DefaultPort = 2049

// DefaultMaxRecordSize bounds a reply record when no limit is configured.
const DefaultMaxRecordSize = 4 << 20

// Config describes the endpoint and the per-exchange limits.
type Config struct {
	Host string
	Port int

	// ConnectTimeout bounds the TCP handshake. Zero means no limit beyond ctx.
	ConnectTimeout time.Duration

	// WriteTimeout bounds sending the request record. Zero means no limit.
	WriteTimeout time.Duration

	// ReadTimeout bounds receiving the reply record. Zero means no limit.
	ReadTimeout time.Duration

	// MaxRecordSize bounds the reassembled reply. Zero means DefaultMaxRecordSize.
	MaxRecordSize int
}

// Address returns host:port, using DefaultPort when Port is zero.
func (c Config) Address() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

func (c Config) maxRecordSize() int {
	if c.MaxRecordSize <= 0 {
		return DefaultMaxRecordSize
	}
	return c.MaxRecordSize
}
