package main

import (
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
)

// setupTracing routes the traces of every package to the standard logger.
func setupTracing(level string) {
	trace := gologadapter.GetAdapter()()
	trace.SetTraceLevel(traceLevel(level))
	tracing.SetTraceSelector(selector{
		tracer: trace,
	})
}

func traceLevel(l string) tracing.TraceLevel {
	switch l {
	case "debug":
		return tracing.LevelDebug
	case "info":
		return tracing.LevelInfo
	case "error":
		return tracing.LevelError
	}
	return tracing.LevelError
}

type selector struct {
	tracer tracing.Trace
}

func (s selector) Select(string) tracing.Trace {
	return s.tracer
}
