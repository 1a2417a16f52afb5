// Package config loads application configuration from environment variables,
// with a .env file honored in development.
package config
