// Package config loads shadow.json.
//
// Values come from, in increasing precedence: built-in defaults, the JSON
// file, SHADOW_* environment variables (SHADOW_SERVER_PORT=9000 sets
// server.port) and command-line flags bound with BindFlags.
//
//	{
//	  "server": {"host": "0.0.0.0", "port": 8000},
//	  "static": {"dir": "dist"},
//	  "render": {"page": "counter", "timeout": "10s"},
//	  "cache":  {"backend": "sqlite", "path": "cache.db", "ttl": "5m"},
//	  "log":    {"level": "debug", "format": "json"}
//	}
package config
