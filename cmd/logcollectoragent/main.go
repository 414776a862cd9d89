// Command logcollectoragent is the process entrypoint: load configuration,
// build the component graph, run until signaled, then shut down in the
// order spec.md §5 requires. Grounded on
// original_source/services/log-collector/src/main.rs's startup sequence
// (load config -> build components -> run), adapted to Go's
// os/signal.Notify instead of a tokio::main future, since signal handling
// is OS-interface code the standard library already owns cleanly — no
// library in the example pack does this differently.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowbase/logcollector/pkg/config"
	"github.com/flowbase/logcollector/pkg/logs/agent"
	"github.com/flowbase/logcollector/pkg/util/log"
)

func main() {
	configPath := flag.String("config", "log_collector.toml", "path to the agent's TOML configuration file")
	logLevel := flag.String("log-level", "info", "minimum log level (debug, info, warn, error)")
	flag.Parse()

	if err := log.SetLevel(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "logcollectoragent: invalid -log-level %q: %v\n", *logLevel, err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logcollectoragent: %v\n", err)
		os.Exit(1)
	}

	a, err := agent.New(cfg)
	if err != nil {
		log.Errorw("logcollectoragent: failed to build agent", "error", err)
		os.Exit(1)
	}

	log.Infow("logcollectoragent: starting", "config", *configPath)
	a.Run()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Infow("logcollectoragent: received signal, shutting down", "signal", sig.String())

	a.Stop()
	log.Infow("logcollectoragent: shutdown complete")
}
