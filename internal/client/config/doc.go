// Package config loads runtime configuration for the bookkeeper CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. BOOKKEEPER_SERVER_ADDR, BOOKKEEPER_TIMEOUT and BOOKKEEPER_USER.
//
// The CLI binds its own flags over the loaded values.
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "30s",
//	  "username": "alice"
//	}
package config
