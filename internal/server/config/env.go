package config

// parseEnv applies the deployment variables the service has always honoured:
// PORT (bare port number), DATABASE_DSN and JWT_SECRET.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	if port, ok := lookup("PORT"); ok && port != "" {
		config.EndpointAddrHTTP = ":" + port
	}
	if dsn, ok := lookup("DATABASE_DSN"); ok && dsn != "" {
		config.DatabaseDSN = dsn
	}
	if secret, ok := lookup("JWT_SECRET"); ok && secret != "" {
		config.SecretKey = secret
	}
}
