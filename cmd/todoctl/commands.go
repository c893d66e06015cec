package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/optimistic-todo/internal/client"
	"github.com/BuzzLyutic/optimistic-todo/internal/config"
	"github.com/BuzzLyutic/optimistic-todo/internal/listctl"
	"github.com/BuzzLyutic/optimistic-todo/internal/model"
	"github.com/BuzzLyutic/optimistic-todo/internal/worker"
)

// app holds what every subcommand needs. It is filled in PersistentPreRunE.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	client *client.Client

	apiURL   string
	timeout  time.Duration
	interval time.Duration
	verbose  bool

	filter   string
	category string
	priority string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "todoctl",
		Short:         "Manage the todo list with optimistic updates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.apiURL, "api-url", "", "base URL of the item API (env API_URL)")
	pf.DurationVar(&a.timeout, "timeout", 0, "per-request timeout (env REQUEST_TIMEOUT)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log requests and failures")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show items",
		Args:  cobra.NoArgs,
		RunE:  a.runList,
	}
	a.filterFlags(listCmd)

	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add an item",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runAdd,
	}
	addCmd.Flags().StringVar(&a.category, "category", "", "category (server default react19)")
	addCmd.Flags().StringVar(&a.priority, "priority", "", "priority (server default medium)")

	toggleCmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip the completed flag of an item",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runToggle,
	}

	deleteCmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an item",
		Args:    cobra.ExactArgs(1),
		RunE:    a.runDelete,
	}

	completeCmd := &cobra.Command{
		Use:   "complete <id>...",
		Short: "Mark several items completed in one batch",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runComplete,
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show item counts",
		Args:  cobra.NoArgs,
		RunE:  a.runStats,
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the list on screen and revalidate it in the background",
		Args:  cobra.NoArgs,
		RunE:  a.runWatch,
	}
	a.filterFlags(watchCmd)
	watchCmd.Flags().DurationVar(&a.interval, "interval", 0, "refresh period (env REVALIDATE_INTERVAL)")

	root.AddCommand(listCmd, addCmd, toggleCmd, deleteCmd, completeCmd, statsCmd, watchCmd)
	return root
}

func (a *app) filterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&a.filter, "filter", "f", string(model.FilterAll), "all, active or completed")
	cmd.Flags().StringVar(&a.category, "category", "", "only this category")
	cmd.Flags().StringVar(&a.priority, "priority", "", "only this priority")
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.timeout > 0 {
		cfg.RequestTimeout = a.timeout
	}
	if a.interval > 0 {
		cfg.RevalidateInterval = a.interval
	}
	a.cfg = cfg

	a.logger = zap.NewNop()
	if a.verbose {
		if a.logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}

	a.client = client.New(cfg.APIURL,
		client.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		client.WithLogger(a.logger),
	)
	return nil
}

// controller builds a list controller for the command's filter flags.
func (a *app) controller() (*listctl.Controller, error) {
	state := model.FilterState(a.filter)
	if a.filter == "" {
		state = model.FilterAll
	}
	if !state.Valid() {
		return nil, &client.ValidationError{Field: "filter", Reason: "must be all, active or completed"}
	}

	var base model.ItemFilter
	if a.category != "" {
		base.Category = model.String(a.category)
	}
	if a.priority != "" {
		base.Priority = model.String(a.priority)
	}

	return listctl.New(a.client,
		listctl.WithLogger(a.logger),
		listctl.WithBaseFilter(base),
		listctl.WithFilter(state),
	), nil
}

// loaded returns an unfiltered controller with its first fetch done.
func (a *app) loaded(ctx context.Context) (*listctl.Controller, error) {
	ctl := listctl.New(a.client, listctl.WithLogger(a.logger))
	if err := ctl.Load(ctx); err != nil {
		return nil, err
	}
	return ctl, nil
}

func (a *app) runList(cmd *cobra.Command, args []string) error {
	ctl, err := a.controller()
	if err != nil {
		return report(err)
	}
	if err := ctl.Load(cmd.Context()); err != nil {
		return report(err)
	}
	fmt.Println(renderView(ctl.View()))
	return nil
}

func (a *app) runAdd(cmd *cobra.Command, args []string) error {
	p := model.ItemPatch{Title: model.String(args[0])}
	if a.category != "" {
		p.Category = model.String(a.category)
	}
	if a.priority != "" {
		p.Priority = model.String(a.priority)
	}

	ctl := listctl.New(a.client, listctl.WithLogger(a.logger))
	it, err := ctl.Add(cmd.Context(), p)
	if err != nil {
		return report(err)
	}
	ok(fmt.Sprintf("added #%d %s", it.ID, it.Title))
	return nil
}

func (a *app) runToggle(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return report(err)
	}
	ctl, err := a.loaded(cmd.Context())
	if err != nil {
		return report(err)
	}

	if err := ctl.ToggleCompleted(cmd.Context(), id); err != nil {
		fmt.Println(renderView(ctl.View()))
		return report(err)
	}
	it, _ := ctl.View().Item(id)
	ok(fmt.Sprintf("#%d %s is now %s", it.ID, it.Title, status(it)))
	return nil
}

func (a *app) runDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return report(err)
	}
	ctl, err := a.loaded(cmd.Context())
	if err != nil {
		return report(err)
	}

	if err := ctl.Delete(cmd.Context(), id); err != nil {
		return report(err)
	}
	ok(fmt.Sprintf("deleted #%d", id))
	return nil
}

func (a *app) runComplete(cmd *cobra.Command, args []string) error {
	entries := make([]client.BatchEntry, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return report(err)
		}
		entries = append(entries, client.BatchEntry{ID: id, Fields: model.ItemPatch{Completed: model.Bool(true)}})
	}

	ctl, err := a.loaded(cmd.Context())
	if err != nil {
		return report(err)
	}

	res, err := ctl.BatchUpdate(cmd.Context(), entries)
	fmt.Println(renderBatch(res))
	if err != nil {
		return report(err)
	}
	return nil
}

func (a *app) runStats(cmd *cobra.Command, args []string) error {
	st, err := a.client.Stats(cmd.Context())
	if err != nil {
		return report(err)
	}
	fmt.Println(renderStats(st))
	return nil
}

func (a *app) runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctl, err := a.controller()
	if err != nil {
		return report(err)
	}

	views, unsubscribe := ctl.Subscribe()
	defer unsubscribe()

	pool := worker.NewPool(a.logger, a.cfg.RevalidateInterval, 1)
	pool.Add(ctl)
	pool.Start(ctx)
	defer pool.Stop()

	go func() {
		// Load failures stay on the view's error flag; the pool retries.
		_ = ctl.Load(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case v, open := <-views:
			if !open {
				return nil
			}
			fmt.Print("\033[H\033[2J")
			fmt.Println(renderView(v))
			fmt.Println(mutedStyle.Render(fmt.Sprintf("refreshing every %s, ctrl+c to quit", a.cfg.RevalidateInterval)))
		}
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, &client.ValidationError{Field: "id", Reason: fmt.Sprintf("%q is not a valid item id", s)}
	}
	return id, nil
}

// report prints err in the CLI's error style and returns it for the exit code.
func report(err error) error {
	var te *client.TransportError
	if errors.As(err, &te) && te.Network() {
		fail("server unreachable: " + err.Error())
		return err
	}
	fail(err.Error())
	return err
}
