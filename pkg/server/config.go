package server

type Config struct {
	// Hostname is used to build absolute links to stored videos in API responses
	Hostname string `toml:"hostname"`
	// Port is a server port to listen to
	Port int `toml:"port"`
	// Bind a specific IP addresses for server
	// "*": bind all IP addresses which is default option
	// localhost or 127.0.0.1  bind a single IPv4 address
	BindAddress string `toml:"bind_address"`
	// Specify path prefix for the API, e.g. "v1" serves /v1/api/...
	Path string `toml:"path"`
}
