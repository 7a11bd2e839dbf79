package logger

import "log"

// A LoggerOptFn is a functional option configuring a DroverLogger when constructing a new one.
type LoggerOptFn func(*DroverLogger)

// WithEnv sets the environment DroverLogger is operating in.
func WithEnv(env string) func(*DroverLogger) {
	return func(l *DroverLogger) {
		l.env = env
	}
}

// WithLevel sets the log level DroverLogger uses.
func WithLevel(level LogLevel) func(*DroverLogger) {
	return func(l *DroverLogger) {
		l.ll = level
	}
}

// WithLogger sets the log.Logger DroverLogger uses.
func WithLogger(log *log.Logger) func(*DroverLogger) {
	return func(l *DroverLogger) {
		l.l = log
	}
}

// WithSkip sets the number of frames in the call stack
// to skip in order to log the desired file and line number
// of the calling code.
func WithSkip(skip int) func(*DroverLogger) {
	return func(l *DroverLogger) {
		l.skip = skip
	}
}
