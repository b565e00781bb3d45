// Package cmd implements the command-line interface for dScene. It provides
// commands to convert scene files between formats and to inspect them.
//
// The package is organized into several subpackages:
//
//   - convert: Decode a scene with one format and encode it with another
//   - inspect: Print the contents and the fingerprint of a scene file
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set as environment variables with the DSCENE_ prefix
// (e.g. DSCENE_LOG_LEVEL=debug), or in a .env / .env.local file.
//
// See dscene -help for a list of all commands.
package cmd
