package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vulcand/oxy/v2/buffer"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 5 * time.Second

	// The request body is never read; anything larger is refused with 413.
	maxRequestBodyBytes = 1 << 20
	memRequestBodyBytes = 64 << 10
)

// fixedResponseHandler answers every request with body, whatever the method or path.
func fixedResponseHandler(body string, logger logrus.FieldLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debugf("%s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		// buffer only records a status set through WriteHeader.
		w.WriteHeader(http.StatusOK)
		if _, err := io.WriteString(w, body); err != nil {
			logger.Errorf("failed to write response: %v", err)
		}
	})
}

// newBufferedHandler wraps the fixed response in the buffer middleware with
// capped request bodies.
func newBufferedHandler(body string, logger logrus.FieldLogger) (http.Handler, error) {
	return buffer.New(fixedResponseHandler(body, logger),
		buffer.MaxRequestBodyBytes(maxRequestBodyBytes),
		buffer.MemRequestBodyBytes(memRequestBodyBytes),
	)
}

// serve binds the listener and answers requests until ctx is cancelled.
func (labRun *LabRun) serve(ctx context.Context) error {
	// The fixed body is completed in memory before it goes on the wire.
	bufferHandler, err := newBufferedHandler(labRun.responseBody, labRun.logger)
	if err != nil {
		return errors.Wrap(err, "failed to create buffer handler")
	}

	addr := fmt.Sprintf(":%d", labRun.listenPort)
	ln, err := labRun.listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}

	srv := &http.Server{Handler: bufferHandler}

	_, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		port = fmt.Sprint(labRun.listenPort)
	}
	fmt.Fprintf(labRun.out, "Server is running! Open your browser and go to http://localhost:%s\n", port)
	fmt.Fprintln(labRun.out, "(Press Ctrl+C to stop the server)")
	labRun.logger.Infof("Listening on %s", ln.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "web server terminated")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			labRun.logger.Warnf("Shutdown did not finish in %v: %v", shutdownTimeout, err)
			return srv.Close()
		}
		labRun.logger.Info("Web server stopped")
		return nil
	})
	return g.Wait()
}
