package main

import (
	"io"
	"net/http"
	"time"

	"github.com/spf13/afero"

	"github.com/JaimeStill/docbridge/internal/config"
	"github.com/JaimeStill/docbridge/internal/exports"
	"github.com/JaimeStill/docbridge/internal/filter"
	"github.com/JaimeStill/docbridge/internal/graph"
	"github.com/JaimeStill/docbridge/internal/infrastructure"
	"github.com/JaimeStill/docbridge/internal/intent"
	"github.com/JaimeStill/docbridge/internal/render"
	"github.com/JaimeStill/docbridge/pkg/routes"
)

// Server coordinates the lifecycle of all subsystems.
type Server struct {
	infra *infrastructure.Infrastructure
	http  *httpServer
}

// NewServer creates and initializes the service with all subsystems.
func NewServer(cfg *config.Config, logOut io.Writer) (*Server, error) {
	infra, err := infrastructure.New(cfg, logOut)
	if err != nil {
		return nil, err
	}

	handler := buildHandler(infra, cfg)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"sharepoint", infra.SharePoint != nil,
		"remote_upload", cfg.Export.RemoteUpload,
	)

	return &Server{
		infra: infra,
		http:  newHTTPServer(&cfg.Server, handler, infra.Logger, cfg.ShutdownTimeoutDuration()),
	}, nil
}

// Start begins all subsystems and returns when they are ready.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown gracefully stops all subsystems within the provided timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}

// buildHandler wires the domain systems into the API routes and wraps them in middleware.
func buildHandler(infra *infrastructure.Infrastructure, cfg *config.Config) http.Handler {
	renderer := render.New(afero.NewOsFs(), infra.Logger)

	exportSvc := exports.New(
		renderer,
		infra.Attachments,
		cfg.Branding,
		infra.Uploader(),
		exports.Config{
			InlineLimit:  cfg.Export.InlineLimitBytes(),
			PublicURL:    cfg.Server.PublicURL,
			RemoteUpload: cfg.Export.RemoteUpload,
			RemoteTarget: cfg.Export.RemoteTarget,
		},
		infra.Logger,
	)

	var importer filter.Importer
	if infra.SharePoint != nil {
		importer = infra.SharePoint
	}
	chatFilter := filter.New(importer, exportSvc, infra.Logger)

	r := routes.New(infra.Logger)
	r.RegisterGroup(routes.Group{
		Prefix:      "/api",
		Description: "docbridge API",
		Children: []routes.Group{
			filter.NewHandler(chatFilter, infra.Logger, cfg.Server.MaxBodyBytes()).Routes(),
			intent.NewHandler(infra.Logger).Routes(),
			graph.NewHandler(infra.SharePoint, infra.Logger).Routes(),
			exports.NewHandler(infra.Attachments, infra.Logger, cfg.Pagination).Routes(),
		},
	})
	registerProbes(r, infra.Lifecycle)

	return buildMiddleware(infra, cfg).Apply(r.Build())
}
