// Command masterschedule is the CLI entrypoint: ingest a catalog and
// roster, run the placement engine, and render the resulting schedule
// as text, PDF, and/or a persisted store. Grounded on the teacher's
// cli.go cobra command tree.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/edboard/masterschedule/internal/config"
	"github.com/edboard/masterschedule/internal/ingest"
	"github.com/edboard/masterschedule/internal/report"
	"github.com/edboard/masterschedule/internal/scheduler"
	"github.com/edboard/masterschedule/internal/store"
)

var (
	inFile           string
	outPrefix        = "schedule"
	seed             int64
	includeElectives bool
	writePDF         bool
	dsn              string
	logLevel         string
	listenAddr       = ":8080"
)

func main() {
	cfg := config.Load()

	root := &cobra.Command{
		Use:   "masterschedule",
		Short: "High school master schedule generator",
		Long:  "Assigns students to sections against faculty certifications and IEP service levels.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging()
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")

	cmdRun := &cobra.Command{
		Use:   "run",
		Short: "ingest a catalog/roster file and produce a schedule",
		RunE:  commandRun,
	}
	cmdRun.Flags().StringVar(&inFile, "in", "input.txt", "input catalog/roster file")
	cmdRun.Flags().StringVar(&outPrefix, "out", outPrefix, "output file prefix (.txt, .pdf)")
	cmdRun.Flags().Int64Var(&seed, "seed", 1, "deterministic run seed for generated section ids")
	cmdRun.Flags().BoolVar(&includeElectives, "electives", false, "also schedule elective demands once required demands are placed")
	cmdRun.Flags().BoolVar(&writePDF, "pdf", false, "also render the schedule as a PDF")
	cmdRun.Flags().StringVar(&dsn, "dsn", cfg.DatabaseDSN, "Postgres DSN; when set, the schema is migrated and the schedule is also saved to the store")
	root.AddCommand(cmdRun)

	cmdServe := &cobra.Command{
		Use:   "serve",
		Short: "expose Prometheus metrics for the last completed run",
		RunE:  commandServe,
	}
	cmdServe.Flags().StringVar(&listenAddr, "addr", listenAddr, "address to listen on")
	cmdServe.Flags().StringVar(&dsn, "dsn", cfg.DatabaseDSN, "Postgres DSN to load the schedule from")
	root.AddCommand(cmdServe)

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("masterschedule failed")
	}
}

func configureLogging() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if logLevel != "" {
		if lvl, err := zerolog.ParseLevel(logLevel); err == nil {
			zerolog.SetGlobalLevel(lvl)
		}
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func commandRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fp, err := os.Open(inFile)
	if err != nil {
		return errors.Wrapf(err, "opening %s", inFile)
	}
	defer fp.Close()

	isCSV := len(inFile) > 4 && inFile[len(inFile)-4:] == ".csv"
	lines, err := ingest.FetchLines(fp, isCSV)
	if err != nil {
		return errors.Wrap(err, "reading input")
	}

	result, err := ingest.Parse(inFile, lines)
	if err != nil {
		return errors.Wrap(err, "parsing input")
	}
	log.Info().Int("courses", len(result.Catalog.Order)).Int("teachers", len(result.Teachers)).
		Int("students", len(result.Students)).Int("rooms", len(result.Rooms)).Msg("ingested input")

	var st *store.Store
	if dsn != "" {
		st, err = store.Open(ctx, dsn)
		if err != nil {
			return errors.Wrap(err, "opening store")
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return errors.Wrap(err, "migrating store")
		}
	}

	sched := scheduler.NewSchedule(result.Catalog, result.Rooms)
	sched, err = scheduler.Run(ctx, sched, result.Teachers, result.Catalog, result.Students, seed, scheduler.Options{IncludeElectives: includeElectives})
	if err != nil {
		return errors.Wrap(err, "running placement engine")
	}

	missing := scheduler.MissingRequirements(sched, result.Students)
	unmetTotal := 0
	for _, m := range missing {
		unmetTotal += len(m)
	}
	anomalies := scheduler.Anomalies(sched, result.Students)

	counters := report.NewCounters()
	counters.Observe(sched, result.Students)
	log.Info().
		Int("unmet_demands", unmetTotal).
		Int("lunch_anomalies", len(anomalies)).
		Int("sections", len(sched.AllSections())).
		Msg("run complete")

	textOut, err := os.Create(outPrefix + ".txt")
	if err != nil {
		return errors.Wrap(err, "creating text report")
	}
	defer textOut.Close()
	if err := report.WriteText(textOut, sched, result.Teachers, result.Students); err != nil {
		return errors.Wrap(err, "writing text report")
	}

	if writePDF {
		pdfOut, err := os.Create(outPrefix + ".pdf")
		if err != nil {
			return errors.Wrap(err, "creating pdf report")
		}
		defer pdfOut.Close()
		if err := report.WritePDF(pdfOut, sched, result.Teachers, "Master Schedule"); err != nil {
			return errors.Wrap(err, "writing pdf report")
		}
	}

	if st != nil {
		if err := st.SaveSchedule(ctx, sched); err != nil {
			return errors.Wrap(err, "saving schedule")
		}
	}

	return nil
}

func commandServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if dsn == "" {
		return errors.New("serve: --dsn is required")
	}
	st, err := store.Open(ctx, dsn)
	if err != nil {
		return errors.Wrap(err, "opening store")
	}
	defer st.Close()

	catalog, rooms, err := st.Catalog(ctx)
	if err != nil {
		return errors.Wrap(err, "loading catalog")
	}
	students, err := st.Roster(ctx)
	if err != nil {
		return errors.Wrap(err, "loading roster")
	}

	sched, err := st.LoadSchedule(ctx, catalog, rooms)
	if err != nil {
		return errors.Wrap(err, "loading schedule")
	}

	counters := report.NewCounters()
	counters.Observe(sched, students)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(counters.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	log.Info().Str("addr", listenAddr).Msg("serving metrics")
	return http.ListenAndServe(listenAddr, mux)
}
