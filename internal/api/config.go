package api

// Config holds HTTP API settings.
type Config struct {
	// CORSOrigins lists the origins allowed to call the API from a browser.
	CORSOrigins []string `env:"API_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	// BodyLimit caps request bodies in bytes.
	BodyLimit int64 `env:"API_BODY_LIMIT" envDefault:"1048576"`
	// TrustProxy makes client address resolution honour proxy headers.
	TrustProxy bool `env:"API_TRUST_PROXY" envDefault:"false"`
}
