// Package commands defines the pushchat CLI and wires dependencies for subcommands.
//
// Commands
//
//   - run            Start the interactive session
//   - fingerprint    Print the device fingerprint and the saved handles
//   - rotate         Rotate user signing keys once and persist the result
//
// # Implementation
//
// The root command resolves the home directory, the TOML configuration, the
// log level and the state passphrase (optionally from AWS Parameter Store),
// then builds the dependency graph before any subcommand runs. The state sink
// is the local session file unless the configuration selects DynamoDB.
package commands
