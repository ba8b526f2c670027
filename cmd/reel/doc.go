// Command reel is the CLI entry point. It opens a session, wires the
// standard pipelines, and exposes run, inspection, and configuration
// subcommands over them.
package main
