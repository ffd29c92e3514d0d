package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/san-kum/spinlab/internal/analysis"
	"github.com/san-kum/spinlab/internal/config"
	"github.com/san-kum/spinlab/internal/hamiltonian"
	"github.com/san-kum/spinlab/internal/metrics"
	"github.com/san-kum/spinlab/internal/relax"
	"github.com/san-kum/spinlab/internal/storage"
	"github.com/san-kum/spinlab/internal/viz"
)

// runOptions are the flags shared by every command that builds a lattice.
type runOptions struct {
	preset     string
	configFile string
	seed       int64

	nx, ny int
	init   string

	bz, k, j, d float64
	dmi         string

	target      int
	step        float64
	temperature float64
	maxAttempts int
	sampleEvery int
}

func addRunFlags(cmd *cobra.Command, o *runOptions) {
	f := cmd.Flags()
	f.StringVar(&o.preset, "preset", "", "start from a named preset")
	f.StringVar(&o.configFile, "config", "", "config file path (yaml)")
	f.Int64Var(&o.seed, "seed", 0, "random seed (0 picks one from the clock)")

	f.IntVar(&o.nx, "nx", config.DefaultSize, "lattice width")
	f.IntVar(&o.ny, "ny", config.DefaultSize, "lattice height")
	f.StringVar(&o.init, "init", config.InitRandom, "initial state (random|uniform)")

	f.Float64Var(&o.bz, "bz", config.DefaultField, "external field along z")
	f.Float64Var(&o.k, "k", 0, "anisotropy constant")
	f.Float64Var(&o.j, "j", config.DefaultJ, "exchange constant")
	f.Float64Var(&o.d, "d", config.DefaultD, "dmi constant")
	f.StringVar(&o.dmi, "dmi", string(hamiltonian.Bloch), "dmi type (bloch|neel|planar)")

	f.IntVar(&o.target, "target", config.DefaultTarget, "accepted moves to reach")
	f.Float64Var(&o.step, "step", config.DefaultStepSize, "perturbation step size")
	f.Float64Var(&o.temperature, "temp", 0, "metropolis temperature (0 is strict descent)")
	f.IntVar(&o.maxAttempts, "max-attempts", 0, "cap on proposals (0 is unbounded)")
	f.IntVar(&o.sampleEvery, "sample-every", 1, "record the energy every n accepted moves")
}

// resolveConfig layers preset < config file < explicitly changed flags.
func resolveConfig(cmd *cobra.Command, o *runOptions) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if o.preset != "" {
		cfg = config.GetPreset(o.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", o.preset, config.ListPresets())
		}
	}

	if o.configFile != "" {
		loaded, err := config.Load(o.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = o.seed
	}
	if flags.Changed("nx") {
		cfg.Lattice.NX = o.nx
	}
	if flags.Changed("ny") {
		cfg.Lattice.NY = o.ny
	}
	if flags.Changed("init") {
		cfg.Lattice.Init = o.init
	}
	if flags.Changed("bz") {
		b := []float64{0, 0, o.bz}
		if len(cfg.Hamiltonian.B) == 3 {
			b[0], b[1] = cfg.Hamiltonian.B[0], cfg.Hamiltonian.B[1]
		}
		cfg.Hamiltonian.B = b
	}
	if flags.Changed("k") {
		cfg.Hamiltonian.K = o.k
		if len(cfg.Hamiltonian.U) == 0 {
			cfg.Hamiltonian.U = []float64{0, 0, 1}
		}
	}
	if flags.Changed("j") {
		cfg.Hamiltonian.J = o.j
	}
	if flags.Changed("d") {
		cfg.Hamiltonian.D = o.d
	}
	if flags.Changed("dmi") {
		cfg.Hamiltonian.DMI = o.dmi
	}
	if flags.Changed("target") {
		cfg.Relax.Target = o.target
	}
	if flags.Changed("step") {
		cfg.Relax.StepSize = o.step
	}
	if flags.Changed("temp") {
		cfg.Relax.Temperature = o.temperature
	}
	if flags.Changed("max-attempts") {
		cfg.Relax.MaxAttempts = o.maxAttempts
	}
	if flags.Changed("sample-every") {
		cfg.Relax.SampleEvery = o.sampleEvery
	}

	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRunCmd() *cobra.Command {
	var (
		o           runOptions
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "relax a lattice and save the run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, &o)
			if err != nil {
				return err
			}
			return runRelaxation(cmd.Context(), cfg, o.preset, metricsAddr)
		},
	}
	addRunFlags(cmd, &o)
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address during the run")
	return cmd
}

func runRelaxation(ctx context.Context, cfg *config.Config, preset, metricsAddr string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}

	params, err := cfg.Params()
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	field, err := cfg.NewField(rng)
	if err != nil {
		return err
	}
	model, err := hamiltonian.New(field, params)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	opts := []relax.Option{relax.WithLogger(logger), relax.WithObserver(collector)}
	for _, m := range metrics.Default() {
		opts = append(opts, relax.WithMetric(m))
	}

	if metricsAddr != "" {
		stop, err := serveMetrics(metricsAddr, collector, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	nx, ny := field.Dims()
	fmt.Printf("relaxing %dx%d lattice (seed %d)...\n", nx, ny, cfg.Seed)

	res, runErr := relax.New(rng, opts...).Run(ctx, field, model, cfg.RelaxConfig())
	if runErr != nil && !relax.IsStopped(runErr) {
		return runErr
	}

	meta, err := st.Save(storage.Run{
		Preset:  preset,
		Config:  cfg,
		Field:   field,
		Result:  res,
		StopErr: runErr,
	})
	if err != nil {
		return err
	}
	indexRun(ctx, meta, logger)

	fmt.Printf("completed in %v\n", res.Duration)
	fmt.Printf("run id: %s\n", meta.ID)
	if runErr != nil {
		fmt.Printf("stopped early: %v\n", runErr)
	}
	fmt.Printf("accepted: %d / %d attempts (%.2f%%)\n", res.Accepted, res.Attempts, 100*res.AcceptanceRate())
	fmt.Printf("energy: %.6f -> %.6f\n", res.InitialEnergy, res.FinalEnergy)
	fmt.Printf("charge: %.4f\n", meta.Charge)
	fmt.Println("\nmetrics:")
	for name, val := range res.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	if len(res.Energies) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(res.Energies,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("total energy"),
		))
	}
	return nil
}

// serveMetrics exposes the collector on addr until stop is called.
func serveMetrics(addr string, collector *metrics.Collector, logger *slog.Logger) (stop func(), err error) {
	reg := prometheus.NewRegistry()
	if err := collector.Register(reg); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

// indexRun adds a saved run to the index. The files are the source of
// truth, so failures are only logged.
func indexRun(ctx context.Context, meta *storage.RunMetadata, logger *slog.Logger) {
	idx, err := openIndex()
	if err != nil {
		logger.Warn("failed to open run index", "error", err)
		return
	}
	defer idx.Close()
	if err := idx.Insert(context.WithoutCancel(ctx), meta); err != nil {
		logger.Warn("failed to index run", "run", meta.ID, "error", err)
	}
}

func newEnsembleCmd() *cobra.Command {
	var (
		o    runOptions
		runs int
		save bool
	)

	cmd := &cobra.Command{
		Use:   "ensemble",
		Short: "relax independent copies with consecutive seeds and keep the lowest energy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runs <= 0 {
				return fmt.Errorf("runs must be positive, got %d", runs)
			}
			cfg, err := resolveConfig(cmd, &o)
			if err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			params, err := cfg.Params()
			if err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(cfg.Seed))
			start, err := cfg.NewField(rng)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			ens := relax.NewEnsemble(params, cfg.RelaxConfig(), runs, cfg.Seed, relax.WithLogger(logger)).
				Randomized(cfg.Lattice.Init != config.InitUniform)
			members, err := ens.Run(ctx, start)
			if err != nil {
				return err
			}
			best := relax.Best(members)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SEED\tACCEPTED\tATTEMPTS\tFINAL\tCHARGE\tSTATUS")
			for i, m := range members {
				status := "ok"
				if m.Err != nil {
					status = m.Err.Error()
				}
				if i == best {
					status += " *"
				}
				if m.Result == nil {
					fmt.Fprintf(w, "%d\t-\t-\t-\t-\t%s\n", m.Seed, status)
					continue
				}
				fmt.Fprintf(w, "%d\t%d\t%d\t%.6f\t%.4f\t%s\n",
					m.Seed, m.Result.Accepted, m.Result.Attempts, m.Result.FinalEnergy,
					analysis.TopologicalCharge(m.Field), status)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !save || best < 0 {
				return nil
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			winner := members[best]
			saved := cfg.Clone()
			saved.Seed = winner.Seed
			meta, err := st.Save(storage.Run{
				Preset:  o.preset,
				Config:  saved,
				Field:   winner.Field,
				Result:  winner.Result,
				StopErr: winner.Err,
			})
			if err != nil {
				return err
			}
			indexRun(ctx, meta, logger)
			fmt.Printf("\nsaved best run: %s\n", meta.ID)
			return nil
		},
	}
	addRunFlags(cmd, &o)
	cmd.Flags().IntVar(&runs, "runs", 4, "number of independent runs")
	cmd.Flags().BoolVar(&save, "save", true, "save the lowest-energy run")
	return cmd
}

func newLiveCmd() *cobra.Command {
	var (
		o     runOptions
		theme string
	)

	cmd := &cobra.Command{
		Use:   "live",
		Short: "relax with a live terminal view",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, &o)
			if err != nil {
				return err
			}
			params, err := cfg.Params()
			if err != nil {
				return err
			}
			if theme != "" {
				viz.SetTheme(theme)
			}

			rng := rand.New(rand.NewSource(cfg.Seed))
			field, err := cfg.NewField(rng)
			if err != nil {
				return err
			}

			title := o.preset
			if title == "" {
				title = fmt.Sprintf("%dx%d", cfg.Lattice.NX, cfg.Lattice.NY)
			}
			m, err := viz.NewModel(title, field, params, cfg.RelaxConfig(), rng)
			if err != nil {
				return err
			}
			final, err := viz.RunLive(m)
			if err != nil {
				return err
			}
			fmt.Printf("final charge: %.4f\n", analysis.TopologicalCharge(final.Field()))
			return nil
		},
	}
	addRunFlags(cmd, &o)
	cmd.Flags().StringVar(&theme, "theme", "", fmt.Sprintf("colour theme %v", viz.ThemeNames()))
	return cmd
}

func newBenchCmd() *cobra.Command {
	var moves int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark relaxation throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := config.GetPreset("skyrmion").Params()
			if err != nil {
				return err
			}

			sizes := []int{8, 16, 32, 64}
			steps := []float64{0.05, 0.1, 0.3}

			fmt.Printf("benchmarking %d accepted moves\n\n", moves)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SIZE\tSTEP\tATTEMPTS\tACCEPT\tTIME\tMOVES/SEC")

			for _, n := range sizes {
				for _, step := range steps {
					cfg := config.DefaultConfig()
					cfg.Lattice.NX, cfg.Lattice.NY = n, n
					rng := rand.New(rand.NewSource(42))
					field, err := cfg.NewField(rng)
					if err != nil {
						return err
					}
					model, err := hamiltonian.New(field, params)
					if err != nil {
						return err
					}

					rc := relax.Config{Target: moves, StepSize: step}
					res, err := relax.New(rng).Run(cmd.Context(), field, model, rc)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%dx%d\t%.2f\t%d\t%.1f%%\t%v\t%.0f\n",
						n, n, step, res.Attempts, 100*res.AcceptanceRate(), res.Duration,
						float64(res.Accepted)/res.Duration.Seconds())
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&moves, "moves", 20000, "accepted moves per case")
	return cmd
}
