// Package cli implements the vorax command-line interface.
//
// Every command that talks to an interpreter goes through openSession:
//
//  1. Find and load the profiles file (--config, .vorax.yaml, or the global file)
//  2. Resolve the profile (--profile, the default, or an interactive picker)
//  3. Pick the local or SSH supervisor and build the session options
//  4. Start the session and wait for the first completion marker
//
// Commands then execute statements one at a time and print the (optionally
// beautified) output to stdout. Status lines, spinners and errors go to
// stderr so output can be piped.
//
// # Commands
//
//	vorax exec <statement>...   - Run statements in a fresh session
//	vorax run <file|->          - Split a script and run it statement by statement
//	vorax shell                 - Interactive prompt with :restart and :quit
//	vorax beautify [file]       - Convert SQL*Plus HTML to plain text
//	vorax profile list|show|add|remove
//	vorax doctor [--start]      - Check profiles, interpreters and SSH hosts
//	vorax version
//
// Global flags (--config, --verbose, --no-color) are defined on the root
// command. Session flags (--profile, --timeout, --raw) are added by
// AddSessionFlags.
package cli
