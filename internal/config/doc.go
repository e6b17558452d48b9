// Package config defines the runtime configuration of the webpage operator.
//
// A [Config] starts from [Default], is optionally overlaid by a YAML file
// and finally by WEBPAGE_* environment variables, then validated.
package config
