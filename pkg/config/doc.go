// Package config provides the project configuration for restmock.
//
// A project file (restmock.yaml by convention) names the connection the
// fixtures attach to, the fixture globs to load, the not-found policy and the
// logging setup:
//
//	base_url: https://api.example.test/v1/
//	connection: api
//	fixtures:
//	  - fixtures/**/*.yaml
//	not_found: raise
//	variables:
//	  user_id: 42
//	log:
//	  level: debug
//	  format: text
//
// Values are layered: Default, then the file, then RESTMOCK_* environment
// variables, then command-line flags applied by the caller.
package config
