// Package logging wraps log/slog into the structured logger shared by every
// component of the fleet manager.
//
// Output is JSON in production and text for local development, selected by
// the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Every record carries service and version fields. Components derive child
// loggers with With:
//
//	log := logging.New(cfg.Logging, version)
//	disp := log.With("component", "dispatcher")
//	disp.Info("started", "qos", cfg.MQTT.QoS)
//
// Secrets (broker passwords, tokens) must never be logged.
package logging
