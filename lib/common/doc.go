// Package common provides the configuration and logging shared by the dscene
// command line tool and the library packages.
//
// Logging goes through dragonboat's named loggers (logger.GetLogger("scene"))
// so library code stays independent of the backend. InitLoggers installs a
// factory that writes through zap in the form
//
//	2025/01/02 15:04:05 | WARN | scene | ...
package common
