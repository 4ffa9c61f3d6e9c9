package config

import "time"

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		c.Environment = env
		return nil
	}
}

// WithDatabase sets the database type and URL
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithMongoDatabase sets the MongoDB database name
func WithMongoDatabase(name string) Option {
	return func(c *ServerConfig) error {
		c.MongoDatabase = name
		return nil
	}
}

// WithSession sets the session signing secret and lifetime
func WithSession(secret string, ttl time.Duration) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		c.SessionTTL = ttl
		return nil
	}
}

// WithCommentCascade controls whether deleting a post removes its comments
func WithCommentCascade(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.CascadeComments = enabled
		return nil
	}
}

// WithSignInRate limits sign-in attempts per client IP per minute
func WithSignInRate(perMinute int) Option {
	return func(c *ServerConfig) error {
		c.SignInRatePerMinute = perMinute
		return nil
	}
}

// WithEventLogging enables or disables the logging event sink
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}
