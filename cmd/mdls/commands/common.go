package commands

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdls/internal/config"
	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/docuri"
	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/langservice"
	"git.home.luguber.info/inful/mdls/internal/observability"
	"git.home.luguber.info/inful/mdls/internal/workspace"
)

// DefaultConfigFile is loaded when no --config flag is given and it exists.
const DefaultConfigFile = ".mdls.yaml"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (defaults to .mdls.yaml when present)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve      ServeCmd      `cmd:"" default:"withargs" help:"Run the language server over stdio"`
	Links      LinksCmd      `cmd:"" help:"List the links of a Markdown file"`
	Resolve    ResolveCmd    `cmd:"" help:"Resolve a link as written in a Markdown file"`
	Toc        TocCmd        `cmd:"" help:"Print the table of contents of a Markdown file"`
	References ReferencesCmd `cmd:"" help:"List the links to a file across the workspace"`
	RenameFile RenameFileCmd `cmd:"" name:"rename-file" help:"Print the link updates a file or folder move needs (dry run)"`
	Init       InitCmd       `cmd:"" help:"Write an example configuration file"`
	VersionCmd VersionCmd    `cmd:"" name:"version" help:"Print version information"`

	cfg *config.Config
}

// AfterApply runs after flag parsing; loads configuration and sets up logging once.
func (c *CLI) AfterApply() error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	c.cfg = cfg
	slog.SetDefault(observability.NewLogger(os.Stderr, cfg.Logging, c.Verbose))
	return nil
}

// LoadedConfig returns the configuration read by AfterApply, or the defaults.
func (c *CLI) LoadedConfig() *config.Config {
	if c.cfg == nil {
		return config.Default()
	}
	return c.cfg
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	return config.Load(path)
}

// WorkspaceFlags selects the workspace folder commands operate on.
type WorkspaceFlags struct {
	Root string `short:"r" help:"Workspace folder" default:"." type:"existingdir"`
}

// session is a read-only language service over a folder on disk.
type session struct {
	root docuri.URI
	ws   *workspace.FileSystem
	svc  *langservice.Service
}

func openSession(root string, cfg *config.Config) (*session, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, mdlserrors.WrapError(err, mdlserrors.CategoryFileSystem, "failed to resolve workspace folder").
			WithContext("path", root).
			Build()
	}
	rootURI := docuri.File(abs)
	ws := workspace.NewFileSystem([]docuri.URI{rootURI}, workspace.FileSystemOptions{
		Extensions: langservice.Extensions(cfg.Markdown),
		Exclude:    cfg.Workspace.Exclude,
		CacheDisk:  true,
	})
	return &session{
		root: rootURI,
		ws:   ws,
		svc:  langservice.New(ws, langservice.OptionsFromConfig(cfg, nil)),
	}, nil
}

// fileURI turns a command-line path into a file URI.
func fileURI(p string) (docuri.URI, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return docuri.URI{}, mdlserrors.WrapError(err, mdlserrors.CategoryFileSystem, "failed to resolve path").
			WithContext("path", p).
			Build()
	}
	return docuri.File(abs), nil
}

// openDocument loads a Markdown file through the session's workspace.
func (s *session) openDocument(ctx context.Context, p string) (*document.Document, error) {
	uri, err := fileURI(p)
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(uri.FSPath()); errors.Is(statErr, fs.ErrNotExist) {
		return nil, mdlserrors.NotFoundError("file not found").WithContext("path", p).Build()
	}
	doc, err := s.ws.OpenMarkdownDocument(ctx, uri)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, mdlserrors.ValidationError("not a Markdown file").
			WithContext("path", p).
			WithContext("extensions", s.svc.Extensions).
			Build()
	}
	return doc, nil
}
