package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/olsync/olsync/internal/olsdk"
	"github.com/olsync/olsync/internal/sync"
	"github.com/olsync/olsync/internal/utils"
	"github.com/olsync/olsync/internal/version"
)

const (
	defaultStorePath  = ".olauth"
	defaultIgnoreName = ".olignore"
)

var (
	red   = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green = color.New(color.FgHiGreen).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:     "olsync",
	Short:   "Overleaf two-way sync tool",
	Version: version.Detailed(),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd)
	},
	RunE: runSync,
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().BoolP("local-only", "l", false, "sync local project files to the remote only")
	rootCmd.Flags().BoolP("remote-only", "r", false, "sync remote project files to the local file system only")
	rootCmd.Flags().String("store-path", defaultStorePath, "path of the persisted session store")
	rootCmd.Flags().StringP("path", "p", ".", "path of the project to sync")
	rootCmd.Flags().StringP("olignore", "i", defaultIgnoreName, "path of the ignore file, relative to the project")
	rootCmd.Flags().String("server", olsdk.DefaultServerURL, "base URL of the Overleaf server")
	rootCmd.Flags().String("project", "", "remote project name (default: base name of the project path)")
	rootCmd.Flags().String("strategy", "ask", "conflict strategy: ask, local, remote or skip")
	rootCmd.Flags().String("baseline", "", "path of an optional sync baseline database")
	rootCmd.Flags().Bool("mirror", false, "mirror local subdirectories as remote folders instead of flattening")
	rootCmd.Flags().Int("jobs", 4, "number of concurrent transfer workers")
}

func bindFlags(cmd *cobra.Command) error {
	for _, name := range []string{"server", "strategy", "baseline", "jobs"} {
		if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	viper.SetEnvPrefix("OLSYNC")
	viper.AutomaticEnv()
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	localOnly, _ := flags.GetBool("local-only")
	remoteOnly, _ := flags.GetBool("remote-only")
	if localOnly && remoteOnly {
		return errors.New("--local-only and --remote-only are mutually exclusive")
	}

	mode := sync.ModeBidirectional
	if localOnly {
		mode = sync.ModeLocalOnly
	} else if remoteOnly {
		mode = sync.ModeRemoteOnly
	}

	syncPath, _ := flags.GetString("path")
	rootDir, err := utils.ResolvePath(syncPath)
	if err != nil {
		return fmt.Errorf("resolve project path: %w", err)
	}
	if !utils.DirExists(rootDir) {
		return fmt.Errorf("project directory %q does not exist", rootDir)
	}

	storePath, _ := flags.GetString("store-path")
	session, err := olsdk.LoadSession(storePath)
	if err != nil {
		return fmt.Errorf("%w (session store: %s)", err, storePath)
	}

	serverURL := viper.GetString("server")
	if !flags.Changed("server") && session.ServerURL != "" {
		serverURL = session.ServerURL
	}

	sdk, err := olsdk.New(serverURL, session)
	if err != nil {
		return err
	}

	projectName, _ := flags.GetString("project")
	if projectName == "" {
		projectName = filepath.Base(rootDir)
	}

	cmd.SilenceUsage = true

	project, err := sdk.GetProject(ctx, projectName)
	if err != nil {
		return err
	}
	slog.Info("project found", "name", project.Name, "id", project.ProjectID(), "lastUpdated", project.LastUpdated)

	ignorePath, _ := flags.GetString("olignore")
	if !filepath.IsAbs(ignorePath) {
		ignorePath = filepath.Join(rootDir, ignorePath)
	}
	matcher, err := sync.LoadIgnoreFile(ignorePath)
	if err != nil {
		return fmt.Errorf("load ignore file: %w", err)
	}

	var namespace sync.NamespaceStrategy = sync.FlattenNamespace{}
	if mirror, _ := flags.GetBool("mirror"); mirror {
		namespace = sync.MirrorNamespace{}
	}

	var baseline *sync.BaselineStore
	if baselinePath := viper.GetString("baseline"); baselinePath != "" {
		baseline = sync.NewBaselineStore(baselinePath)
		if err := baseline.Open(); err != nil {
			return err
		}
		defer baseline.Close()
	}

	remote := sync.NewOverleafRemote(sdk, project, namespace)
	scanner := sync.NewLocalScanner(rootDir, matcher, namespace, storePath, viper.GetString("baseline"))

	// The two catalogs are independent read-only snapshots; build them
	// concurrently. Either side failing aborts before any plan exists.
	var localCatalog, remoteCatalog sync.Catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		localCatalog, err = scanner.Scan()
		return err
	})
	g.Go(func() error {
		var err error
		remoteCatalog, err = sync.BuildRemoteCatalog(gctx, remote)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("catalogs built", "local", len(localCatalog), "remote", len(remoteCatalog))

	engine := sync.NewEngine(matcher, baselineLookup(baseline))
	plan := engine.Diff(localCatalog, remoteCatalog)
	plan.ApplyMode(mode)

	resolver := sync.NewResolver(conflictJudge(viper.GetString("strategy")))
	if err := resolver.Resolve(plan); err != nil {
		return err
	}

	if !plan.HasChanges() {
		fmt.Println(green("Everything up to date."))
		return nil
	}

	executor := sync.NewExecutor(remote, rootDir, viper.GetInt("jobs"), baseline)
	report, err := executor.Apply(ctx, plan)
	if err != nil {
		return err
	}

	report.Print(os.Stdout)
	if failed := report.Failed(); failed > 0 {
		fmt.Printf("%s: %d file(s) failed to sync, see above\n", red("WARNING"), failed)
	}

	// Per-path failures are reported, not fatal.
	return nil
}

// baselineLookup keeps the engine's optional dependency nil when no store
// is configured (a typed nil would defeat the nil check).
func baselineLookup(store *sync.BaselineStore) sync.BaselineLookup {
	if store == nil {
		return nil
	}
	return store
}

func conflictJudge(strategy string) sync.ConflictJudge {
	switch strategy {
	case "local":
		return &sync.PolicyJudge{Policy: sync.KeepLocal}
	case "remote":
		return &sync.PolicyJudge{Policy: sync.KeepRemote}
	case "skip":
		return &sync.PolicyJudge{Policy: sync.SkipPath}
	default:
		return &sync.TerminalJudge{In: os.Stdin, Out: os.Stdout}
	}
}

func main() {
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "15:04:05",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
