// Package config loads application settings from the environment, an
// optional .env file and an optional config.yaml, applies defaults and
// validates the result before anything else starts.
package config
