/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"net"
	"net/http"
	"time"

	"github.com/flamego/csrf"
	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"github.com/humaidq/biodash/dashboard"
	"github.com/humaidq/biodash/db"
	"github.com/humaidq/biodash/ranges"
	"github.com/humaidq/biodash/routes"
	"github.com/humaidq/biodash/static"
	"github.com/humaidq/biodash/templates"
)

const shutdownTimeout = 10 * time.Second

var CmdStart = &cli.Command{
	Name:    "start",
	Aliases: []string{"run"},
	Usage:   "Start the web server",
	Flags: []cli.Flag{
		configFlag,
		databaseURLFlag,
		&cli.StringFlag{
			Name:  "port",
			Value: "8080",
			Usage: "the web server port",
		},
		&cli.StringFlag{
			Name:    "csrf-secret",
			Sources: cli.EnvVars("CSRF_SECRET"),
			Usage:   "secret used to sign CSRF tokens",
		},
		&cli.DurationFlag{
			Name:  "session-lifetime",
			Value: 7 * 24 * time.Hour,
			Usage: "how long an idle session is kept",
		},
		&cli.BoolFlag{
			Name:  "dev",
			Value: false,
			Usage: "enables development mode (templates are read from disk)",
		},
	},
	Action: start,
}

func start(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.CSRFSecret == "" {
		if !cfg.Dev {
			return errCSRFSecretRequired
		}

		cfg.CSRFSecret = uuid.NewString()
		appLogger.Warn("Using a random CSRF secret for development mode")
	}

	appLogger.Info("Connecting to database")

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	appLogger.Info("Syncing database schema")

	if err := store.SyncSchema(ctx, cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to sync schema: %w", err)
	}

	appLogger.Info("Database schema synced successfully")

	f, err := newWebApp(store, cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("0.0.0.0", cfg.Port),
		Handler:           f,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ErrorLog:          webStdLogger,
	}

	return serve(ctx, srv)
}

func newWebApp(store *db.Store, cfg config) (*flamego.Flame, error) {
	f := flamego.New()
	f.Use(flamego.Recovery())
	f.Use(routes.RequestLogger)
	f.Use(routes.NoCacheHeaders())

	tplOpts := template.Options{
		FuncMaps: []htmltemplate.FuncMap{templateFuncs()},
	}

	if cfg.Dev {
		tplOpts.Directory = "templates"
	} else {
		fs, err := template.EmbedFS(templates.Templates, ".", []string{".html"})
		if err != nil {
			return nil, fmt.Errorf("failed to load templates: %w", err)
		}
		tplOpts.FileSystem = fs
	}

	f.Use(flamego.Static(flamego.StaticOptions{
		FileSystem: http.FS(static.Static),
	}))
	f.Use(session.Sessioner(session.Options{
		Initer: store.SessionIniter(),
		Config: db.SessionConfig{Lifetime: cfg.SessionLifetime},
		Cookie: session.CookieOptions{
			Name:     "biodash_session",
			SameSite: http.SameSiteLaxMode,
		},
		ErrorFunc: func(err error) {
			appLogger.Error("Session error", "error", err)
		},
	}))
	f.Use(csrf.Csrfer(csrf.Options{
		Secret: cfg.CSRFSecret,
	}))
	f.Use(template.Templater(tplOpts))
	f.Use(routes.CSRFInjector())
	f.Use(routes.FlashInjector())

	f.MapTo(store, (*routes.Store)(nil))
	f.Map(dashboard.New(store))

	f.Get("/", routes.Index)
	f.Get("/metrics", promhttp.Handler().ServeHTTP)

	f.Get("/profiles", routes.ListProfiles)
	f.Post("/profiles", csrf.Validate, routes.CreateProfile)
	f.Get("/profiles/{id}", routes.ViewProfile)
	f.Get("/profiles/{id}/edit", routes.EditProfileForm)
	f.Post("/profiles/{id}/edit", csrf.Validate, routes.UpdateProfile)
	f.Post("/profiles/{id}/delete", csrf.Validate, routes.DeleteProfile)

	// Results
	f.Get("/profiles/{id}/biomarkers/{name}", routes.ViewBiomarker)
	f.Post("/profiles/{id}/results", csrf.Validate, routes.AddResult)
	f.Post("/profiles/{id}/results/{result_id}/delete", csrf.Validate, routes.DeleteResult)

	// Appointments
	f.Post("/profiles/{id}/appointments", csrf.Validate, routes.AddAppointment)
	f.Post("/profiles/{id}/appointments/{appt_id}/delete", csrf.Validate, routes.DeleteAppointment)

	f.Get("/api/profiles/{id}/biomarkers", routes.BiomarkersJSON)

	configureEmptyNotFoundHandler(f)

	return f, nil
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)

	go func() {
		appLogger.Info("Starting web server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down web server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}

	return nil
}

func configureEmptyNotFoundHandler(f *flamego.Flame) {
	f.NotFound(func(c flamego.Context) {
		c.ResponseWriter().WriteHeader(http.StatusNotFound)
	})
}

func templateFuncs() htmltemplate.FuncMap {
	return htmltemplate.FuncMap{
		"biomarkerPath":  routes.BiomarkerPath,
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
		"statusCount":    statusCount,
		"bandClass":      bandClass,
		"bandRange":      bandRange,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func statusCount(counts map[ranges.Status]int, status string) int {
	return counts[ranges.Status(status)]
}

func bandClass(b ranges.Band) string {
	return "pill-" + string(b.Color)
}

// bandRange renders a band's interval, e.g. "< 65", "65 - 99" or "> 99".
func bandRange(b ranges.Band) string {
	switch {
	case b.Min != nil && b.Max != nil:
		return ranges.FormatValue(*b.Min) + " - " + ranges.FormatValue(*b.Max)
	case b.Min != nil:
		return "> " + ranges.FormatValue(*b.Min)
	case b.Max != nil:
		return "< " + ranges.FormatValue(*b.Max)
	default:
		return "any"
	}
}
