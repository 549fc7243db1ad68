package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nihei9/decisive/analysis"
	verr "github.com/nihei9/decisive/error"
	"github.com/nihei9/decisive/session"
)

// openSession creates a session for a grammar file, or for the standard input when path is empty.
func openSession(path string, opts analysis.Options) (*session.Session, error) {
	var src []byte
	if path == "" {
		var err error
		src, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		src, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("Cannot open the grammar file %s: %w", path, err)
		}
	}

	doc := session.NewTextDocument(path, string(src))
	return session.New(doc,
		session.WithAnalysisOptions(opts),
		session.WithGraphCacheSize(cfg.Output.GraphCacheSize),
	)
}

// nameStdin names the source of grammar errors read from the standard input.
func nameStdin(err error, path string) {
	if err == nil || path != "" {
		return
	}
	var specErrs verr.SpecErrors
	if errors.As(err, &specErrs) {
		for _, e := range specErrs {
			e.SourceName = "stdin"
		}
		return
	}
	var specErr *verr.SpecError
	if errors.As(err, &specErr) {
		specErr.SourceName = "stdin"
	}
}
