package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tasklock/internal/app"
	"tasklock/internal/db"
)

type cli struct {
	v *viper.Viper
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	root := &cobra.Command{
		Use:   "tasklock",
		Short: "Tasklock task roller",
		Long: `Tasklock keeps one current task drawn at random from your active tasks.
- Active: the pool you roll from ("tasklock roll", "tasklock add active ...").
- Backlog: tasks put aside with "tasklock backlog".
- Completed: finished tasks with the time they were completed ("tasklock complete").
Lists can be rewritten in bulk with "tasklock edit <list>", one entry per line;
completed entries use "MM-dd-yyyy HH:mm - task".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := db.EnsureWorkspace(c.v.GetString("workspace"))
			return err
		},
	}
	c.addPersistentFlags(root)
	c.initConfig()
	c.registerCommands(root)
	return root
}

func (c *cli) initConfig() {
	c.v.SetEnvPrefix("TASKLOCK")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	_ = c.v.BindEnv("jwt-secret")
}

func (c *cli) addPersistentFlags(root *cobra.Command) {
	root.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	root.PersistentFlags().Bool("json", false, "output JSON")
	root.PersistentFlags().String("log-level", "", "log level (overrides tasklock.yml)")
	root.PersistentFlags().String("time-zone", "", "IANA zone for completed timestamps (overrides tasklock.yml)")
	for _, name := range []string{"workspace", "json", "log-level", "time-zone"} {
		_ = c.v.BindPFlag(name, root.PersistentFlags().Lookup(name))
	}
}

func (c *cli) registerCommands(root *cobra.Command) {
	root.AddCommand(c.initCmd())
	root.AddCommand(c.statusCmd())
	root.AddCommand(c.showCmd())
	root.AddCommand(c.rollCmd())
	root.AddCommand(c.backlogCmd())
	root.AddCommand(c.completeCmd())
	root.AddCommand(c.addCmd())
	root.AddCommand(c.editCmd())
	root.AddCommand(c.textCmd())
	root.AddCommand(c.clearCmd())
	root.AddCommand(c.exportCmd())
	root.AddCommand(c.importCmd())
	root.AddCommand(c.resetCmd())
	root.AddCommand(c.logCmd())
	root.AddCommand(c.serveCmd())
	root.AddCommand(c.tokenCmd())
}

func (c *cli) options(cmd *cobra.Command) app.Options {
	return app.Options{
		Workspace: c.v.GetString("workspace"),
		LogLevel:  c.v.GetString("log-level"),
		TimeZone:  c.v.GetString("time-zone"),
		LogOutput: cmd.ErrOrStderr(),
	}
}
