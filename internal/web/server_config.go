package web

// DefaultMaxUploadBytes caps request bodies on the upload and convert routes.
const DefaultMaxUploadBytes int64 = 32 << 20

// ServerConfig contains settings for the HTTP surface.
//
// The intended listen defaults differ per deployment:
// - appliance: :80
// - local dev: :8080
type ServerConfig struct {
	ListenAddr string
	DevMode    bool

	// StaticDir, when set to an existing directory, is served at "/" instead
	// of the embedded UI.
	StaticDir string

	// ETags turns on fingerprinted responses and conditional fetches. When off,
	// frames are served with Cache-Control: no-store and If-None-Match is ignored.
	ETags bool

	MaxUploadBytes int64
}

func DefaultServerConfig(listenAddr string) ServerConfig {
	return ServerConfig{
		ListenAddr:     listenAddr,
		ETags:          true,
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}

func (c ServerConfig) maxUploadBytes() int64 {
	if c.MaxUploadBytes <= 0 {
		return DefaultMaxUploadBytes
	}
	return c.MaxUploadBytes
}
