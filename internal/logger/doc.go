// Package logger wraps zap with a global sugared console logger and
// context helpers (ToContext/FromContext/WithName/WithKV).
//
// Services take a context and log through it, so names and key-value pairs
// attached by a caller follow every line written further down the stack.
package logger
