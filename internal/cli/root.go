// Package cli provides Cobra command definitions for piodl.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazuruo/piodl/internal/config"
	pioerrors "github.com/chazuruo/piodl/internal/errors"
	"github.com/chazuruo/piodl/internal/fetch"
	"github.com/chazuruo/piodl/internal/platform"
	"github.com/chazuruo/piodl/internal/receipt"
)

// InstallOptions contains the inputs of one install run.
// Zero values select the real host, terminal and network.
type InstallOptions struct {
	Detector   platform.Detector
	HomeDir    string
	In         io.Reader
	Out        io.Writer
	Confirmer  Confirmer
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewRootCommand creates the piodl root command, which runs the install.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "piodl",
		Short: "Download and install the PlatformIO packages bundle",
		Long: `piodl installs the prebuilt PlatformIO packages bundle for this computer.

It detects the operating system (Windows, Intel macOS or Apple Silicon macOS),
asks for confirmation, downloads the matching archive with a progress bar and
extracts it into ~/.platformio, restoring file permissions from the archive.

Use --no-tui to answer the confirmation on a plain y/n line.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(configPath())
			if err != nil {
				return err
			}

			opts := &InstallOptions{
				In:     cmd.InOrStdin(),
				Out:    cmd.OutOrStdout(),
				Logger: NewLogger(cmd.ErrOrStderr()),
			}
			return RunInstall(cmd.Context(), opts, cfg)
		},
	}

	AddGlobalFlags(cmd)
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.AddCommand(NewConfigCommand())

	return cmd
}

// RunInstall runs the detect, confirm, download and extract flow once.
//
// An unsupported platform is reported on Out and returned wrapped in
// errors.ErrUnsupportedPlatform. Declining the prompt returns nil.
func RunInstall(ctx context.Context, opts *InstallOptions, cfg *config.Config) error {
	opts.setDefaults(cfg)
	out, logger := opts.Out, opts.Logger

	if cfg.UI.Banner {
		printBanner(out)
	}

	host := opts.Detector.Detect(ctx)
	p := host.Platform()
	logger.Debug("host detected", "os", host.OS, "processor", host.Processor, "platform", p.String())
	if !p.Supported() {
		_, _ = fmt.Fprintln(out, "Unable to determine operating system. piodl only works on Windows and macOS computers.")
		return fmt.Errorf("%w: %s", pioerrors.ErrUnsupportedPlatform, host.OS)
	}

	home := opts.HomeDir
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return fmt.Errorf("failed to locate home directory: %w", err)
		}
	}
	src, _ := platform.ResolveSource(p, home)
	logger.Debug("package source resolved", "source", src.String())

	var previous *receipt.Receipt
	if cfg.Receipt.Enabled {
		r, err := receipt.Load(cfg.Receipt.Path)
		if err != nil {
			logger.Warn("ignoring unreadable receipt", "path", cfg.Receipt.Path, "error", err)
		}
		previous = r
	}

	printVerification(out, p, src, previous)

	ok, err := opts.Confirmer.Confirm(ctx, "Continue with installation?")
	if err != nil {
		return err
	}
	if !ok {
		_, _ = fmt.Fprintln(out, "Installation cancelled.")
		return nil
	}
	_, _ = fmt.Fprintln(out)

	res, err := install(ctx, opts, cfg, src)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return fmt.Errorf("%w: %w", pioerrors.ErrCanceled, err)
		}
		return err
	}
	printDone(out)

	if cfg.Receipt.Enabled {
		r := receipt.New(p.String(), res.URL, res.Destination, res.Bytes, res.Summary.Entries())
		if err := receipt.Write(cfg.Receipt.Path, r); err != nil {
			logger.Warn("failed to write receipt", "path", cfg.Receipt.Path, "error", err)
		} else {
			logger.Debug("receipt written", "path", cfg.Receipt.Path, "id", r.ID)
		}
	}

	return nil
}

// install wires the engine to the progress line and runs it.
func install(ctx context.Context, opts *InstallOptions, cfg *config.Config, src platform.Source) (*fetch.Result, error) {
	line := newProgressLine(opts.Out, cfg.UI.ProgressWidth)

	d := fetch.NewDownloader()
	d.SetHTTPClient(opts.HTTPClient)
	d.SetUserAgent(cfg.Download.UserAgent)
	d.SetFallbackChunkSize(cfg.Download.FallbackChunkSize)
	d.SetStartHook(line.Start)
	d.SetProgressHook(line.Update)

	engine := fetch.NewEngine(d, fetch.NewExtractor())
	engine.SetLogger(opts.Logger)
	engine.SetStateHook(func(from, to fetch.State) {
		switch to {
		case fetch.StateDownloaded, fetch.StateFailed:
			line.Finish()
		case fetch.StateExtracting:
			_, _ = fmt.Fprintln(opts.Out, "Extracting...")
		}
	})

	res, err := engine.FetchAndExtract(ctx, src.URL, src.Destination)
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug("packages installed",
		"destination", res.Destination,
		"bytes", res.Bytes,
		"files", res.Summary.Files,
		"directories", res.Summary.Directories,
		"symlinks", res.Summary.Symlinks)

	return res, nil
}

func (o *InstallOptions) setDefaults(cfg *config.Config) {
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Logger == nil {
		o.Logger = NewLogger(os.Stderr)
	}
	if o.Detector == nil {
		o.Detector = platform.NewDetector()
	}
	if o.Confirmer == nil {
		o.Confirmer = newConfirmer(cfg.UI.TUI && !IsNoTUI(), o.In, o.Out)
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: cfg.Timeout()}
	}
}
