// Package config loads exchangectl settings from an optional YAML file.
//
// Files support ${VAR} environment variable interpolation, so the API key
// can stay out of the file:
//
//	api:
//	  api_key: ${EXCHANGE_API_KEY}
//
// Values given as command-line flags override whatever the file holds.
package config
