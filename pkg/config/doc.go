// Package config loads typed configuration structs from environment
// variables, reading an optional .env file first. Each struct type is parsed
// once per process and cached, so packages can load their own config slice
// independently without re-reading the environment.
package config
