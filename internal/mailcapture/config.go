package mailcapture

// Config holds configuration for the mail capture server.
type Config struct {
	// Host is the interface to listen on.
	Host string

	// Port is the SMTP port. Zero picks a free port.
	Port int

	// Capacity is how many messages are kept; older ones are dropped first.
	Capacity int
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:     "127.0.0.1",
		Port:     1025,
		Capacity: 100,
	}
}
