package commands

import (
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"git.home.luguber.info/inful/mdls/internal/server"
	"git.home.luguber.info/inful/mdls/internal/version"
)

// ServeCmd implements the 'serve' command. The server talks LSP over stdin
// and stdout.
type ServeCmd struct{}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg := root.LoadedConfig()

	// glsp logs through commonlog; keep it quiet unless asked for.
	verbosity := 0
	if root.Verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	var reg *prom.Registry
	if cfg.Metrics.Listen != "" {
		reg = prom.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	slog.Info("Starting language server", slog.String("version", version.Version))
	ls := server.New(server.Options{
		Config:   cfg,
		Version:  version.Version,
		Registry: reg,
		Debug:    root.Verbose,
	})
	return ls.RunStdio()
}
