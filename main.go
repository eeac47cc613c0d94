package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/samarth-labs/samarth-engine/pkg/config"
	"github.com/samarth-labs/samarth-engine/pkg/dataset"
	"github.com/samarth-labs/samarth-engine/pkg/executor"
	"github.com/samarth-labs/samarth-engine/pkg/handlers"
	"github.com/samarth-labs/samarth-engine/pkg/loader"
	"github.com/samarth-labs/samarth-engine/pkg/logging"
	"github.com/samarth-labs/samarth-engine/pkg/middleware"
	"github.com/samarth-labs/samarth-engine/pkg/planner"
	"github.com/samarth-labs/samarth-engine/pkg/question"
	"github.com/samarth-labs/samarth-engine/pkg/schema"
	"github.com/samarth-labs/samarth-engine/pkg/services"
)

// Version is set at build time via ldflags.
var Version = "dev"

// engine bundles everything built at startup.
type engine struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *dataset.Registry
	service  *services.QuestionService
}

// setup loads config, builds the logger, loads the datasets from the data
// directory and wires the question pipeline.
func setup() (*engine, error) {
	cfg, err := config.Load(Version)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	registry := dataset.NewRegistry(schema.NewDetector(), logger)
	subjects, err := loader.NewLoader(logger).LoadDir(cfg.DataDir, registry)
	if err != nil {
		return nil, fmt.Errorf("load datasets from %s: %w", cfg.DataDir, err)
	}

	classifier := question.NewClassifier(registry, logger)
	plan := planner.NewPlanner(registry, subjects, cfg.Query, logger)
	exec := executor.NewExecutor(registry, logger)
	service := services.NewQuestionService(classifier, plan, exec, logger)

	return &engine{cfg: cfg, logger: logger, registry: registry, service: service}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the question-answering HTTP endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = eng.logger.Sync() }()

			r := chi.NewRouter()
			r.Use(middleware.RequestLogger(eng.logger))
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: eng.cfg.CORSOrigins,
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Content-Type"},
				MaxAge:         300,
			}))

			handlers.NewHealthHandler(eng.cfg, eng.registry, eng.logger).RegisterRoutes(r)
			handlers.NewQueryHandler(eng.service, eng.logger).RegisterRoutes(r)

			addr := eng.cfg.BindAddr + ":" + eng.cfg.Port
			eng.logger.Info("Starting samarth-engine",
				zap.String("addr", addr),
				zap.String("version", eng.cfg.Version),
				zap.Strings("datasets", eng.registry.Names()))
			return http.ListenAndServe(addr, r)
		},
	}
}

func askCmd() *cobra.Command {
	var explain bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question from the command line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = eng.logger.Sync() }()

			if explain {
				intent, slots, plan, err := eng.service.Explain(args[0])
				if err != nil {
					return err
				}
				fmt.Printf("intent: %s\n", intent)
				fmt.Printf("locations: %v\nsubjects: %v\nyears: %s (last_n=%d)\n",
					slots.Locations, slots.Subjects, slots.Years, slots.LastN)
				if plan != nil {
					fmt.Printf("dataset: %s\ngroup_by: %s\nagg: %s\nfilters: %+v\nlimit: %d\n",
						plan.Dataset, plan.GroupBy, plan.Agg, plan.Filters, plan.Limit)
				}
				return nil
			}

			answer, err := eng.service.AnswerQuestion(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(answer.Text)
			for _, e := range answer.Provenance.Entries {
				fmt.Printf("[provenance] dataset=%s rows_matched=%d rows_ignored=%d\n",
					e.Dataset, e.RowsMatched, e.RowsIgnored)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "print the detected intent, slots and plan instead of executing")
	return cmd
}

func main() {
	root := &cobra.Command{
		Use:     "samarth-engine",
		Short:   "Natural-language question answering over agriculture and climate datasets",
		Version: Version,
	}
	root.AddCommand(serveCmd(), askCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
