package log

import (
	"sync"

	"github.com/YuminosukeSato/autoscigo/pkg/errors"
)

var (
	providerMu     sync.RWMutex
	globalProvider LoggerProvider
)

// SetProvider replaces the package-level provider and routes errors.Warn
// through it.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	globalProvider = p
	providerMu.Unlock()

	warnLogger := p.GetLoggerWithName("warnings")
	errors.SetZerologWarnFunc(func(w error) {
		warnLogger.Warn("warning", "warning", w)
	})
}

// Provider returns the package-level provider, creating the default zerolog
// provider at info level on first use.
func Provider() LoggerProvider {
	providerMu.RLock()
	p := globalProvider
	providerMu.RUnlock()
	if p != nil {
		return p
	}
	SetProvider(NewZerologProvider(ToLogLevel("info")))
	return Provider()
}

// GetLogger returns the default logger of the package-level provider.
func GetLogger() Logger {
	return Provider().GetLogger()
}

// GetLoggerWithName returns a component logger of the package-level provider.
func GetLoggerWithName(name string) Logger {
	return Provider().GetLoggerWithName(name)
}
