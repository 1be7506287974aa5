// Package cli turns command-line arguments, optionally merged with a YAML
// configuration file, into an app.Config. Usage errors carry the process
// exit code in an ExitError.
package cli
