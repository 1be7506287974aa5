// Package app contains the host application: it loads graph files into
// instances that share a game-wide variable scope, fires lifecycle events,
// and keeps the instances current through hot reload and the socket.io
// bridge. It is decoupled from any specific entrypoint like a CLI.
package app
