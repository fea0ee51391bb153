package warmlib

import "log"

type (
	// ProgressHandlerFunc runs on every progress update of an in-flight
	// entry with the fetched fraction.
	ProgressHandlerFunc func(url string, frac float64)
	// CompleteHandlerFunc runs when an entry finishes downloading, or
	// when its passive probe succeeded.
	CompleteHandlerFunc func(url string)
	// ErrorHandlerFunc runs when an entry is abandoned as failed.
	ErrorHandlerFunc func(url string, err error)
	// FallbackHandlerFunc runs when a restricted-host entry falls back
	// to the passive probe.
	FallbackHandlerFunc func(url string)
)

// Handlers are the event hooks the scheduler fires while working the
// queue. The server wires these to push notifications for connected
// pages; tests use them to observe scheduling.
type Handlers struct {
	ProgressHandler ProgressHandlerFunc
	CompleteHandler CompleteHandlerFunc
	ErrorHandler    ErrorHandlerFunc
	FallbackHandler FallbackHandlerFunc
}

func (h *Handlers) setDefault(l *log.Logger, verbose bool) {
	if h.ProgressHandler == nil {
		h.ProgressHandler = func(url string, frac float64) {}
	}
	if h.CompleteHandler == nil {
		h.CompleteHandler = func(url string) {}
	}
	if h.FallbackHandler == nil {
		h.FallbackHandler = func(url string) {}
	}
	if h.ErrorHandler == nil {
		h.ErrorHandler = func(url string, err error) {
			if verbose {
				l.Printf("%s: error: %s", url, err.Error())
			}
		}
	} else {
		errHandler := h.ErrorHandler
		h.ErrorHandler = func(url string, err error) {
			if verbose {
				l.Printf("%s: error: %s", url, err.Error())
			}
			errHandler(url, err)
		}
	}
}
