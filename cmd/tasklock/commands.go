package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tasklock/internal/app"
	"tasklock/internal/config"
	"tasklock/internal/db"
	"tasklock/internal/domain"
	"tasklock/internal/engine"
	"tasklock/internal/migrate"
	"tasklock/internal/store"
)

func (c *cli) withEngine(cmd *cobra.Command, fn func(context.Context, engine.Engine) error) error {
	return app.WithEngine(cmd.Context(), c.options(cmd), fn)
}

func (c *cli) initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create tasklock.yml and the workspace database",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := c.v.GetString("workspace")
			path, err := config.WriteDefault(workspace, force)
			if err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nDatabase at %s\n", path, db.Path(workspace))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing tasklock.yml")
	return cmd
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current task and list counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEngine(cmd, func(ctx context.Context, e engine.Engine) error {
				st, err := e.Status(ctx)
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return printJSON(cmd.OutOrStdout(), st)
				}
				printStatus(cmd.OutOrStdout(), st, e.Config.Display.ShowInfoBox)
				return nil
			})
		},
	}
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "show [active|backlog|completed]...",
		Short:     "Show task lists",
		ValidArgs: []string{"active", "backlog", "completed"},
		RunE: func(cmd *cobra.Command, args []string) error {
			lists, err := parseLists(args)
			if err != nil {
				return err
			}
			return c.withEngine(cmd, func(ctx context.Context, e engine.Engine) error {
				data, err := e.State(ctx)
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return printJSON(cmd.OutOrStdout(), data)
				}
				for _, l := range lists {
					printList(cmd.OutOrStdout(), data, l, e.Config.Location())
				}
				return nil
			})
		},
	}
}

func (c *cli) rollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roll",
		Short: "Pick a random current task from the active list",
		Long:  "Roll picks a new current task from the active list, never the one already selected while others remain.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEngine(cmd, func(ctx context.Context, e engine.Engine) error {
				res, err := e.Roll(ctx)
				if err != nil {
					return err
				}
				return c.printResult(cmd.OutOrStdout(), res, "Current task: "+res.Task, "Nothing to roll: add tasks with tasklock add active <task>")
			})
		},
	}
}

func (c *cli) backlogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backlog",
		Short: "Move the current task to the backlog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEngine(cmd, func(ctx context.Context, e engine.Engine) error {
				res, err := e.Backlog(ctx)
				if err != nil {
					return err
				}
				return c.printResult(cmd.OutOrStdout(), res, "Moved to backlog: "+res.Task, domain.NoCurrentTask)
			})
		},
	}
}

func (c *cli) completeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete",
		Short: "Mark the current task completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEngine(cmd, func(ctx context.Context, e engine.Engine) error {
				res, err := e.Complete(ctx)
				if err != nil {
					return err
				}
				return c.printResult(cmd.OutOrStdout(), res, "Completed: "+res.Task, domain.NoCurrentTask)
			})
		},
	}
}

func (c *cli) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <active|backlog> <task>...",
		Short: "Append tasks to the active list or the backlog",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := domain.ParseList(args[0])
			if err != nil {
				return err
			}
			return c.withEngine(cmd, func(ctx context.Context, e engine.Engine) error {
				res, err := e.Add(ctx, list, args[1:]...)
				if err != nil {
					return err
				}
				msg := fmt.Sprintf("%s now has %d tasks", list.Title(), res.State.Len(list))
				return c.printResult(cmd.OutOrStdout(), res, msg, "Nothing added")
			})
		},
	}
}

func (c *cli) editCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "edit <active|backlog|completed>",
		Short: "Replace a list from text, one entry per line",
		Long: `Edit replaces the whole list with the lines read from --file (or stdin).
Blank lines are ignored. Completed entries must look like "MM-dd-yyyy HH:mm - task";
lines that do not are dropped. Use "tasklock text <list>" to get the current text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := domain.ParseList(args[0])
			if err != nil {
				return err
			}
			text, err := readText(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			return c.withEngine(cmd, func(ctx context.Context, e engine.Engine) error {
				res, err := e.Replace(ctx, list, text)
				if err != nil {
					return err
				}
				return c.printResult(cmd.OutOrStdout(), res, domain.Heading(list, res.State.Len(list)), "")
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read text from file (default stdin)")
	return cmd
}

func (c *cli) textCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text <active|backlog|completed>",
		Short: "Print a list as editable text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := domain.ParseList(args[0])
			if err != nil {
				return err
			}
			return c.withEngine(cmd, func(ctx context.Context, e engine.Engine) error {
				text, err := e.Text(ctx, list)
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return printJSON(cmd.OutOrStdout(), map[string]string{"list": list.String(), "text": text})
				}
				if text != "" {
					fmt.Fprintln(cmd.OutOrStdout(), text)
				}
				return nil
			})
		},
	}
}

func (c *cli) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <active|backlog|completed>",
		Short: "Empty a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := domain.ParseList(args[0])
			if err != nil {
				return err
			}
			return c.withEngine(cmd, func(ctx context.Context, e engine.Engine) error {
				var res engine.Result
				var err error
				if list == domain.Completed {
					res, err = e.ClearCompleted(ctx)
				} else {
					res, err = e.Replace(ctx, list, "")
				}
				if err != nil {
					return err
				}
				return c.printResult(cmd.OutOrStdout(), res, "Cleared "+list.Title(), "")
			})
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the stored task state as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEngine(cmd, func(ctx context.Context, e engine.Engine) error {
				data, err := e.State(ctx)
				if err != nil {
					return err
				}
				b, err := store.Encode(data)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return err
			})
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the stored task state with JSON from --file (or stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readText(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			data, err := store.Decode([]byte(raw))
			if err != nil {
				return err
			}
			return c.withEngine(cmd, func(ctx context.Context, e engine.Engine) error {
				res, err := e.Import(ctx, data)
				if err != nil {
					return err
				}
				s := domain.Summarize(res.State)
				msg := fmt.Sprintf("Imported: %s, %s, %s", s.Headings["active"], s.Headings["backlog"], s.Headings["completed"])
				return c.printResult(cmd.OutOrStdout(), res, msg, "")
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read JSON from file (default stdin)")
	return cmd
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete all stored tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEngine(cmd, func(ctx context.Context, e engine.Engine) error {
				res, err := e.Reset(ctx)
				if err != nil {
					return err
				}
				return c.printResult(cmd.OutOrStdout(), res, "All tasks removed", "Nothing stored")
			})
		},
	}
}

func (c *cli) logCmd() *cobra.Command {
	l := &cobra.Command{Use: "log", Short: "Inspect the transition log"}
	l.AddCommand(c.logTailCmd())
	return l
}

func (c *cli) logTailCmd() *cobra.Command {
	var n int
	var evtType string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show recent transitions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEngine(cmd, func(ctx context.Context, e engine.Engine) error {
				items, err := e.History(ctx, n, evtType)
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return printJSON(cmd.OutOrStdout(), items)
				}
				printEvents(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&n, "n", "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	return cmd
}

func parseLists(args []string) ([]domain.List, error) {
	if len(args) == 0 {
		return domain.Lists(), nil
	}
	lists := make([]domain.List, 0, len(args))
	for _, a := range args {
		l, err := domain.ParseList(a)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, nil
}

func readText(stdin io.Reader, file string) (string, error) {
	if file != "" && file != "-" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}
