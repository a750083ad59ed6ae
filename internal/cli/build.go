package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/repotools/artlist/pkg/artifact"
	"github.com/repotools/artlist/pkg/config"
	"github.com/repotools/artlist/pkg/depgraph"
	"github.com/repotools/artlist/pkg/errors"
	"github.com/repotools/artlist/pkg/listbuild"
	"github.com/repotools/artlist/pkg/maven"
	"github.com/repotools/artlist/pkg/sources"
)

// coordCacheSize bounds the shared coordinate parse cache. Large graph
// responses repeat the same coordinates many times.
const coordCacheSize = 8192

// httpTimeout caps a single request. Graph path responses can be huge, so
// this is generous.
const httpTimeout = 10 * time.Minute

// buildCommand creates the build command, the main entry point of the tool.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		configPath string
		output     string
		threads    int
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the artifact list described by a configuration file",
		Long: `Build reads a TOML configuration, collects artifacts from every declared
source concurrently, merges them by source priority, runs the filter pipeline
and writes one "{url}\t{gatcv}" line per artifact file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if output != "" {
				cfg.Output = output
			}
			if threads > 0 {
				cfg.Threads = min(threads, config.MaxThreads)
			}
			return c.runBuild(cmd.Context(), cfg, noCache)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the TOML configuration file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the list to this file instead of the configured output")
	cmd.Flags().IntVar(&threads, "threads", 0, "override the configured worker thread count")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the response and dependency-graph caches")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// runBuild wires the collectors, runs the aggregation and filter pipeline and
// writes the resulting list.
func (c *CLI) runBuild(ctx context.Context, cfg *config.Config, noCache bool) error {
	start := time.Now()

	respCache, err := newResponseCache(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	defer respCache.Close()

	httpClient := &http.Client{Timeout: httpTimeout}
	coords := maven.NewCache(coordCacheSize)
	adm := sources.NewAdmission(cfg)

	var graphCache *depgraph.DiskCache
	if !noCache && !cfg.Cache.Disabled {
		dir, err := depgraphCacheDir(cfg)
		if err == nil {
			if graphCache, err = depgraph.NewDiskCache(dir); err != nil {
				c.Logger.Warn("dependency-graph cache unavailable", "error", err)
			}
		}
	}

	srcs := make([]listbuild.Source, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		var collector sources.Collector
		switch src.Type {
		case config.SourceTypeTag:
			collector = sources.NewTagCollector(src, adm, httpClient, respCache, c.Logger)
		case config.SourceTypeDependencyList:
			collector = sources.NewDependencyListCollector(src, adm, coords, httpClient, cfg.Threads, c.Logger)
		case config.SourceTypeDependencyGraph:
			client := depgraph.NewClient(src.GraphServiceURL, httpClient, graphCache, c.Logger)
			collector = sources.NewDependencyGraphCollector(src, cfg, client, coords, c.Logger)
		case config.SourceTypeRepository:
			collector = sources.NewRepositoryCollector(src, adm, httpClient, c.Logger)
		default:
			return errors.New(errors.ErrCodeInvalidConfig, "unknown source type %q", src.Type)
		}
		srcs = append(srcs, listbuild.Source{Collector: collector, ExcludedGAVs: src.ExcludedGAVs})
	}

	set, err := listbuild.NewBuilder(srcs, c.Logger).Build(ctx)
	if err != nil {
		return err
	}
	c.Logger.Info("collected artifacts", "gavs", set.Size())

	probe := func(ctx context.Context, repoURL string, coord maven.Coordinate) (bool, error) {
		return sources.PomExists(ctx, httpClient, repoURL, coord)
	}
	filter := listbuild.NewFilter(cfg.Filter, cfg.Threads, probe, c.Logger)
	if err := filter.Apply(ctx, set); err != nil {
		return err
	}
	c.Logger.Info("filtered artifacts", "gavs", set.Size())

	if err := c.writeList(cfg.Output, set); err != nil {
		return err
	}

	printSuccess("Built artifact list with %d artifact entries", set.Size())
	if cfg.Output != "" {
		printFile(cfg.Output)
	}
	printDetail("Took %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// writeList writes the rendered list to the output file, or stdout when no
// output path is configured.
func (c *CLI) writeList(output string, set artifact.Set) error {
	if output == "" {
		return listbuild.WriteList(os.Stdout, set, listbuild.DefaultLineFormat)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := listbuild.WriteList(f, set, listbuild.DefaultLineFormat); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
