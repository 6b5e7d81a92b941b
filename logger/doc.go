// Package logger provides structured logging for voicepulse using zerolog.
//
// It supports JSON and console output, level configuration, and scoped
// loggers that carry the component, session and chunk being processed.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg.Logging, "voicepulse").WithComponent("session")
//	log.Info("checkpoint stored", logger.Fields(logger.FieldSessionID, id))
package logger
