package main

import (
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tracker/internal/persist"
	"github.com/ShayCichocki/tracker/pkg/models"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage standalone tasks",
		Long: `Create, inspect, update and delete standalone tasks.

A task with both --start and --duration is scheduled. Scheduling fails when
its window overlaps another scheduled task or subtask.`,
	}
	cmd.AddCommand(
		newTaskAddCmd(a),
		newTaskGetCmd(a),
		newTaskUpdateCmd(a),
		newTaskRmCmd(a),
		newTaskLsCmd(a),
		newTaskClearCmd(a),
	)
	return cmd
}

func newTaskAddCmd(a *app) *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Example: `  tracker task add --title "Write report" --start "2025-03-25 16:15" --duration 1h
  tracker task add --title "Inbox zero"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := models.NewTask("", "")
			if err := f.apply(cmd, t, a.cfg.Display.TimeLayout); err != nil {
				return err
			}
			return a.withStore(cmd, func(s *persist.Store) error {
				created, err := s.CreateTask(t)
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Created task %d", created.ID)
				return nil
			})
		},
	}
	f.register(cmd, false, true)
	cmd.MarkFlagRequired("title")
	return cmd
}

func newTaskGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a task and record it in the history",
		Args:  idArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			return a.withStore(cmd, func(s *persist.Store) error {
				t, err := s.GetTask(id)
				if err != nil {
					return err
				}
				a.printer(cmd.OutOrStdout()).detail(t)
				return nil
			})
		},
	}
}

func newTaskUpdateCmd(a *app) *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a task's fields",
		Long: `Change a task's fields. Only the flags given are changed; pass
"none" to --start or --duration to unschedule the task.`,
		Args: idArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			return a.withStore(cmd, func(s *persist.Store) error {
				t, err := find(s.Tasks(), id)
				if err != nil {
					return err
				}
				if err := f.apply(cmd, t, a.cfg.Display.TimeLayout); err != nil {
					return err
				}
				updated, err := s.UpdateTask(t)
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Updated task %d", updated.ID)
				return nil
			})
		},
	}
	f.register(cmd, true, true)
	return cmd
}

func newTaskRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    idArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			return a.withStore(cmd, func(s *persist.Store) error {
				if err := s.DeleteTask(id); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Deleted task %d", id)
				return nil
			})
		},
	}
}

func newTaskLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tasks by id",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *persist.Store) error {
				a.printer(cmd.OutOrStdout()).items(entities(s.Tasks()), "No tasks.")
				return nil
			})
		},
	}
}

func newTaskClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *persist.Store) error {
				n := len(s.Tasks())
				if err := s.DeleteAllTasks(); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Deleted %d tasks", n)
				return nil
			})
		},
	}
}
