package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

const separator = "---------------------------------------------------------"

type LabRun struct {
	assetPath     string
	webAddress    string
	queryKey      string
	samplePath    string
	sampleContent string
	listenPort    int
	responseBody  string
	verbose       bool

	out    io.Writer
	logger *logrus.Logger

	// readFile and listen are swapped out by tests.
	readFile func(name string) ([]byte, error)
	listen   func(network, address string) (net.Listener, error)

	heading *color.Color
}

func NewLabRun() LabRun {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return LabRun{
		out:      os.Stdout,
		logger:   logger,
		readFile: os.ReadFile,
		listen:   net.Listen,
		heading:  color.New(color.Bold),
	}
}

func main() {
	labRun := NewLabRun()

	flag.StringVar(&labRun.assetPath, "path", "/content/index/home.html", "File path whose basename is extracted")
	flag.StringVar(&labRun.webAddress, "url", "http://localhost:2000/index.html?lastName=Kent&firstName=Clark", "URL whose query string is parsed")
	flag.StringVar(&labRun.queryKey, "query", "firstName", "Query parameter to extract from --url")
	flag.StringVar(&labRun.samplePath, "sample", "sample.txt", "File written and read back by the file system exercise")
	flag.StringVar(&labRun.sampleContent, "content", "This is a test file for the lab.", "Content written to --sample")
	flag.IntVar(&labRun.listenPort, "port", 6000, "Port on which the web server listens")
	flag.StringVar(&labRun.responseBody, "body", "Hello from the Go server!", "Body returned for every request")
	flag.BoolVar(&labRun.verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	if labRun.verbose {
		labRun.logger.SetLevel(logrus.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SIGTERM/SIGINT cancel the run, which stops the web server.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigs
		labRun.logger.Infof("Received %v. Shutting down.", sig)
		cancel()
	}()

	if err := labRun.Run(ctx); err != nil {
		labRun.logger.Fatalf("labrun failed: %v", err)
	}
}

// Run executes every exercise in order. The web server is started only after
// the sample file has been read back; a failed read ends the run without error.
func (labRun *LabRun) Run(ctx context.Context) error {
	fmt.Fprintln(labRun.out, "--- STARTING LAB EXERCISES ---")
	fmt.Fprintln(labRun.out)

	labRun.section("1. RUNTIME (platform info):")
	goos, goarch := platformInfo()
	fmt.Fprintf(labRun.out, "Computer OS Platform Info : %s\n", goos)
	fmt.Fprintf(labRun.out, "Computer OS Architecture Info: %s\n", goarch)
	labRun.endSection()

	labRun.section("2. PATH (file paths):")
	fmt.Fprintf(labRun.out, "Basename of '%s' is: %s\n", labRun.assetPath, basename(labRun.assetPath))
	labRun.endSection()

	labRun.section("3. NET/URL (web addresses):")
	parts, err := parseURL(labRun.webAddress)
	if err != nil {
		return err
	}
	fmt.Fprintf(labRun.out, "Full URL: %s\n", labRun.webAddress)
	fmt.Fprintf(labRun.out, "Host: %s, Path: %s\n", parts.Host, parts.Path)
	fmt.Fprintf(labRun.out, "Extracted %s: %s\n", labRun.queryKey, parts.Query.Get(labRun.queryKey))
	labRun.endSection()

	labRun.section("4. OS (file system):")
	if err := writeSample(labRun.samplePath, labRun.sampleContent); err != nil {
		return err
	}
	labRun.logger.Debugf("Wrote %d bytes to %s", len(labRun.sampleContent), labRun.samplePath)

	fmt.Fprintf(labRun.out, "Reading '%s' asynchronously...\n", labRun.samplePath)
	res := <-labRun.readSampleAsync(labRun.samplePath)
	if res.err != nil {
		labRun.logger.WithError(res.err).Error("Sample read failed. Skipping web server.")
		return nil
	}
	fmt.Fprintf(labRun.out, "Content of %s: %s\n", labRun.samplePath, res.content)

	if ctx.Err() != nil {
		labRun.logger.Info("Run cancelled. Skipping web server.")
		return nil
	}

	fmt.Fprintln(labRun.out)
	fmt.Fprintln(labRun.out, separator)
	labRun.section("5. NET/HTTP (web server):")
	return labRun.serve(ctx)
}

func (labRun *LabRun) section(title string) {
	labRun.heading.Fprintln(labRun.out, title)
}

func (labRun *LabRun) endSection() {
	fmt.Fprintln(labRun.out)
	fmt.Fprintln(labRun.out, separator)
}
