// Package logger wraps zap for the packaging CLI:
//   - a global sugared logger with a compact console encoder on stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and adjustment for the --log-level flag.
//
// Components take a context and log through the logger it carries, so a
// pipeline step can be tagged once and every message below it inherits the tag.
package logger
