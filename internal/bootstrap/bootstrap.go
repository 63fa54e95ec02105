package bootstrap

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"

	"docshelf/assets"
	documentinadapter "docshelf/internal/modules/document/adapter/in"
	documentoutadapter "docshelf/internal/modules/document/adapter/out"
	documentout "docshelf/internal/modules/document/port/out"
	documentservice "docshelf/internal/modules/document/service"
	documentusecase "docshelf/internal/modules/document/usecase"
	extractinadapter "docshelf/internal/modules/extract/adapter/in"
	extractoutadapter "docshelf/internal/modules/extract/adapter/out"
	extractout "docshelf/internal/modules/extract/port/out"
	extractservice "docshelf/internal/modules/extract/service"
	extractusecase "docshelf/internal/modules/extract/usecase"
	shelfinadapter "docshelf/internal/modules/shelf/adapter/in"
	shelfoutadapter "docshelf/internal/modules/shelf/adapter/out"
	shelfservice "docshelf/internal/modules/shelf/service"
	shelfusecase "docshelf/internal/modules/shelf/usecase"
	"docshelf/internal/platform/clock"
	"docshelf/internal/platform/config"
	"docshelf/internal/platform/id"
	"docshelf/internal/platform/logging"
	uiapp "docshelf/internal/ui/app"
)

type App struct {
	ShelfCLI    shelfinadapter.CLIHandler
	ShelfTUI    shelfinadapter.TUIHandler
	ExtractCLI  extractinadapter.CLIHandler
	DocumentCLI documentinadapter.CLIHandler

	cfg     config.Config
	closers []func() error
}

// New wires every module for cfg. A nil logger discards output.
func New(cfg config.Config, logger hclog.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	clk := clock.SystemClock{}
	app := &App{cfg: cfg}

	manifest, err := extractoutadapter.NewSQLiteManifest(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open extraction manifest: %w", err)
	}
	app.closers = append(app.closers, manifest.Close)

	extractUC := extractusecase.NewInteractor(extractservice.NewExtractService(
		clk,
		assetSource(cfg),
		manifest,
		cfg.ExtractDir,
		logger,
	))

	documentUC := documentusecase.NewInteractor(documentservice.NewDocumentService(
		app.documentBackend(cfg, logger),
		logger,
	))

	shelfUC := shelfusecase.NewInteractor(shelfservice.NewShelfService(
		clk,
		id.UUID{},
		shelfoutadapter.NewExtractStage(extractUC),
		shelfoutadapter.NewDecodeStage(documentUC),
		logger,
		shelfservice.Options{
			Catalog:        cfg.Catalog,
			Parallelism:    cfg.Parallelism,
			ExtractTimeout: cfg.ExtractTimeout,
			DecodeTimeout:  cfg.DecodeTimeout,
		},
	))
	// Closed first: held handles may live in the plugin process.
	app.closers = append(app.closers, shelfUC.Close)

	app.ShelfCLI = shelfinadapter.NewCLIHandler(shelfUC)
	app.ShelfTUI = shelfinadapter.NewTUIHandler(shelfUC)
	app.ExtractCLI = extractinadapter.NewCLIHandler(extractUC)
	app.DocumentCLI = documentinadapter.NewCLIHandler(documentUC)
	return app, nil
}

// Close releases the shelf, the document service and the manifest, in
// that order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.ShelfTUI, uiapp.Options{
		ShowChrome:  app.cfg.Viewer.ShowChrome,
		LoadOnStart: app.cfg.LoadOnStart,
	})
	defer model.Close()
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func assetSource(cfg config.Config) extractout.AssetSource {
	if cfg.AssetsDir != "" {
		return extractoutadapter.NewDirAssetSource(cfg.AssetsDir)
	}
	return extractoutadapter.NewFSAssetSource(assets.FS)
}

func (a *App) documentBackend(cfg config.Config, logger hclog.Logger) documentout.Service {
	if cfg.DocumentService.Plugin == "" {
		return documentoutadapter.NewPDFService(cfg.DocumentService.Validate, logger)
	}
	remote := documentoutadapter.NewRemoteService(cfg.DocumentService.Plugin, cfg.DocumentService.Validate, logger)
	a.closers = append(a.closers, remote.Close)
	return remote
}
