package main

import (
	"net/url"
	"os"
	"path"
	"runtime"

	"github.com/pkg/errors"
)

// urlParts is a parsed web address. Query is discarded once the caller has
// read the fields it needs.
type urlParts struct {
	Scheme string
	Host   string
	Port   string
	Path   string
	Query  url.Values
}

type readResult struct {
	content string
	err     error
}

// platformInfo returns the operating system and CPU architecture the binary runs on.
func platformInfo() (string, string) {
	return runtime.GOOS, runtime.GOARCH
}

// basename returns the last element of a slash-separated path.
func basename(p string) string {
	return path.Base(p)
}

// parseURL splits raw into its components and decodes the query string.
func parseURL(raw string) (urlParts, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return urlParts{}, errors.Wrapf(err, "failed to parse URL %q", raw)
	}
	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return urlParts{}, errors.Wrapf(err, "failed to parse query of %q", raw)
	}
	return urlParts{
		Scheme: u.Scheme,
		Host:   u.Hostname(),
		Port:   u.Port(),
		Path:   u.Path,
		Query:  q,
	}, nil
}

// writeSample replaces the file at name with content.
func writeSample(name, content string) error {
	if err := os.WriteFile(name, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", name)
	}
	return nil
}

// readSampleAsync reads name on its own goroutine. The returned channel
// receives exactly one result.
func (labRun *LabRun) readSampleAsync(name string) <-chan readResult {
	done := make(chan readResult, 1)
	go func() {
		data, err := labRun.readFile(name)
		if err != nil {
			done <- readResult{err: errors.Wrapf(err, "failed to read %s", name)}
			return
		}
		done <- readResult{content: string(data)}
	}()
	return done
}
