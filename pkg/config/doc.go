// Package config loads typed configuration from environment variables,
// optionally seeded from dotenv files.
//
// Parsing is done by github.com/caarlos0/env, so structs use its env and
// envDefault tags. Structs may implement Validator to reject inconsistent
// values after parsing.
package config
