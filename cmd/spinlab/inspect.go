package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/spinlab/internal/analysis"
	"github.com/san-kum/spinlab/internal/config"
	"github.com/san-kum/spinlab/internal/export"
	"github.com/san-kum/spinlab/internal/hamiltonian"
	"github.com/san-kum/spinlab/internal/storage"
	"github.com/san-kum/spinlab/internal/viz"
)

func newListCmd() *cobra.Command {
	var (
		order string
		best  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			idx, err := openIndex()
			if err != nil {
				return err
			}
			defer idx.Close()

			ctx := cmd.Context()
			if _, err := idx.Rebuild(ctx, st); err != nil {
				return err
			}

			var runs []storage.RunMetadata
			if best > 0 {
				runs, err = idx.Best(ctx, best)
			} else {
				runs, err = idx.List(ctx, order)
			}
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPRESET\tTIME\tSIZE\tACCEPTED\tE/SITE\tCHARGE\tSTATUS")
			for _, run := range runs {
				preset := run.Preset
				if preset == "" {
					preset = "-"
				}
				status := "done"
				if run.Stopped != "" {
					status = "stopped"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%d\t%.4f\t%.3f\t%s\n",
					run.ID,
					preset,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.NX, run.NY,
					run.Accepted,
					run.EnergyPerSite(),
					run.Charge,
					status,
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&order, "order", "created", "sort by created|energy|charge|size")
	cmd.Flags().IntVar(&best, "best", 0, "show the lowest-energy run of each size, at most n")
	return cmd
}

func newShowCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a run's relaxed field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			field, err := st.LoadField(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("run: %s\n", meta.ID)
			fmt.Printf("size: %dx%d  seed: %d\n", meta.NX, meta.NY, meta.Seed)
			fmt.Printf("energy: %.6f (%.6f per site)\n", meta.FinalEnergy, meta.EnergyPerSite())
			fmt.Printf("charge: %.4f\n\n", meta.Charge)

			opts := viz.DefaultQuiverOptions()
			opts.Color = !noColor
			fmt.Println(viz.Quiver(field, opts))

			if meta.Config == nil {
				return nil
			}
			params, err := meta.Config.Params()
			if err != nil {
				return err
			}
			model, err := hamiltonian.New(field, params)
			if err != nil {
				return err
			}
			terms := model.Terms()
			fmt.Printf("\nzeeman: %.6f  anisotropy: %.6f  exchange: %.6f  dmi: %.6f\n",
				terms.Zeeman, terms.Anisotropy, terms.Exchange, terms.DMI)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "plain glyphs without colour")
	return cmd
}

func newPlotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a run's energy trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			energies, err := st.LoadEnergies(args[0])
			if err != nil {
				return err
			}
			if len(energies) < 2 {
				return fmt.Errorf("no energy trace to plot")
			}

			fmt.Printf("run: %s\n", meta.ID)
			fmt.Printf("samples: %d\n\n", len(energies))
			fmt.Println(asciigraph.Plot(energies,
				asciigraph.Height(15),
				asciigraph.Width(80),
				asciigraph.Caption("total energy vs sample"),
			))
			return nil
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	var maps bool

	cmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "topological charge, structure factor and trace statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			field, err := st.LoadField(args[0])
			if err != nil {
				return err
			}
			energies, err := st.LoadEnergies(args[0])
			if err != nil {
				return err
			}

			r := analysis.Summarize(field, energies)
			m := r.Magnetization
			fmt.Printf("analysis: %s\n\n", args[0])
			fmt.Printf("magnetization: (%.4f, %.4f, %.4f)\n", m.X, m.Y, m.Z)
			fmt.Printf("topological charge: %.4f\n", r.Charge)
			fmt.Printf("structure factor peak: k=(%d, %d) q=(%.3f, %.3f) intensity %.3f\n",
				r.Peak.Kx, r.Peak.Ky, r.Peak.Qx, r.Peak.Qy, r.Peak.Intensity)
			if wl := r.Peak.Wavelength(); wl > 0 {
				fmt.Printf("wavelength: %.3f sites\n", wl)
			}
			if r.Trace.Samples > 0 {
				fmt.Printf("\nenergy trace: %d samples\n", r.Trace.Samples)
				fmt.Printf("  initial %.6f  final %.6f  drop %.6f\n", r.Trace.Initial, r.Trace.Final, r.Trace.Drop)
				fmt.Printf("  min %.6f  max %.6f  mean %.6f  std %.6f\n", r.Trace.Min, r.Trace.Max, r.Trace.Mean, r.Trace.StdDev)
			}

			if maps {
				fmt.Println("\ncharge density:")
				fmt.Println(analysis.HeatmapASCII(analysis.ChargeDensity(field), true))
				fmt.Println("\nstructure factor:")
				fmt.Println(analysis.HeatmapASCII(analysis.StructureFactor(field), false))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&maps, "maps", false, "print charge density and structure factor maps")
	return cmd
}

func newExportCSVCmd() *cobra.Command {
	var energy bool

	cmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a run's field (or energy trace) as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			if energy {
				energies, err := st.LoadEnergies(args[0])
				if err != nil {
					return err
				}
				return storage.WriteEnergyCSV(os.Stdout, energies)
			}
			field, err := st.LoadField(args[0])
			if err != nil {
				return err
			}
			return storage.WriteFieldCSV(os.Stdout, field)
		},
	}
	cmd.Flags().BoolVar(&energy, "energy", false, "export the energy trace instead of the field")
	return cmd
}

func newExportJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			field, err := st.LoadField(args[0])
			if err != nil {
				return err
			}
			energies, err := st.LoadEnergies(args[0])
			if err != nil {
				return err
			}
			return storage.WriteJSON(os.Stdout, storage.NewExportData(meta, field, energies))
		},
	}
}

func newSVGCmd() *cobra.Command {
	var (
		out   string
		size  = export.DefaultFigureSize()
		trace bool
		theme string
	)

	cmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "write an SVG quiver plot of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			if theme != "" {
				viz.SetTheme(theme)
			}

			var svg string
			if trace {
				energies, err := st.LoadEnergies(args[0])
				if err != nil {
					return err
				}
				w, h := size.Pixels()
				svg = export.TraceSVG(energies, w, h, string(viz.CurrentTheme.Primary))
				if svg == "" {
					return fmt.Errorf("no energy trace to plot")
				}
			} else {
				field, err := st.LoadField(args[0])
				if err != nil {
					return err
				}
				svg = export.QuiverSVG(field, size)
			}

			if out == "" {
				name := "quiver.svg"
				if trace {
					name = "energy.svg"
				}
				out = filepath.Join(st.Dir(), args[0], name)
			}
			if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default inside the run directory)")
	cmd.Flags().Float64Var(&size.Width, "width", size.Width, "figure width in inches")
	cmd.Flags().Float64Var(&size.Height, "height", size.Height, "figure height in inches")
	cmd.Flags().Float64Var(&size.DPI, "dpi", size.DPI, "dots per inch")
	cmd.Flags().BoolVar(&trace, "trace", false, "plot the energy trace instead of the field")
	cmd.Flags().StringVar(&theme, "theme", "", fmt.Sprintf("colour theme %v", viz.ThemeNames()))
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Println("presets:")
				for _, p := range config.ListPresets() {
					fmt.Printf("  %s\n", p)
				}
				return nil
			}

			cfg := config.GetPreset(args[0])
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a run and its index entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			if err := st.Delete(args[0]); err != nil {
				return err
			}
			idx, err := openIndex()
			if err != nil {
				return err
			}
			defer idx.Close()
			if err := idx.Delete(context.WithoutCancel(cmd.Context()), args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}
