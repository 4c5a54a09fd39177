package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agendaviva/ingest/internal/scraper"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server with scrape trigger endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, scraper.Options{})
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/scrape", func(w http.ResponseWriter, req *http.Request) {
			// Run asynchronously; scrape runs take minutes.
			go func() {
				run, err := env.Scraper.ScrapeAll(ctx)
				if err != nil {
					zap.L().Error("triggered scrape failed", zap.Error(err))
					return
				}
				zap.L().Info("triggered scrape complete",
					zap.Int("sources", len(run.Sources)),
					zap.Int("errors", run.TotalErrors()))
			}()
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		})

		r.Post("/scrape/url", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				URL string `json:"url"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.URL == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url is required"})
				return
			}
			res := env.Scraper.ScrapeURL(req.Context(), body.URL)
			writeJSON(w, http.StatusOK, map[string]any{
				"blocksFound":       res.BlocksFound,
				"activitiesCreated": res.ActivitiesCreated,
				"activitiesQueued":  res.ActivitiesQueued,
				"duplicates":        res.Duplicates,
				"errors":            res.Errors,
			})
		})

		r.Get("/review/open", func(w http.ResponseWriter, req *http.Request) {
			entries, err := env.Store.ListOpenReviewEntries(req.Context(), 100)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, entries)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
