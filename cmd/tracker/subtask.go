package main

import (
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tracker/internal/persist"
	"github.com/ShayCichocki/tracker/pkg/models"
)

func newSubtaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtask",
		Short: "Manage subtasks of epics",
		Long: `Create, inspect, update and delete subtasks.

Every subtask belongs to exactly one epic. Changing a subtask's status,
schedule or epic recomputes the affected epics.`,
	}
	cmd.AddCommand(
		newSubtaskAddCmd(a),
		newSubtaskGetCmd(a),
		newSubtaskUpdateCmd(a),
		newSubtaskRmCmd(a),
		newSubtaskLsCmd(a),
		newSubtaskClearCmd(a),
	)
	return cmd
}

func newSubtaskAddCmd(a *app) *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Create a subtask in an epic",
		Example: `  tracker subtask add --epic 2 --title "Tag release" --start "2025-03-26 16:15" --duration 30m`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := models.NewSubtask("", "", f.epic)
			if err := f.apply(cmd, &st.Task, a.cfg.Display.TimeLayout); err != nil {
				return err
			}
			return a.withStore(cmd, func(s *persist.Store) error {
				created, err := s.CreateSubtask(st)
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Created subtask %d in epic %d", created.ID, created.EpicID)
				return nil
			})
		},
	}
	f.register(cmd, false, true)
	cmd.Flags().Int64Var(&f.epic, "epic", 0, "Owning epic id")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("epic")
	return cmd
}

func newSubtaskGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a subtask and record it in the history",
		Args:  idArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			return a.withStore(cmd, func(s *persist.Store) error {
				st, err := s.GetSubtask(id)
				if err != nil {
					return err
				}
				a.printer(cmd.OutOrStdout()).detail(st)
				return nil
			})
		},
	}
}

func newSubtaskUpdateCmd(a *app) *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a subtask's fields or move it to another epic",
		Args:  idArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			return a.withStore(cmd, func(s *persist.Store) error {
				st, err := find(s.Subtasks(), id)
				if err != nil {
					return err
				}
				if err := f.apply(cmd, &st.Task, a.cfg.Display.TimeLayout); err != nil {
					return err
				}
				if cmd.Flags().Changed("epic") {
					st.EpicID = f.epic
				}
				updated, err := s.UpdateSubtask(st)
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Updated subtask %d (epic %d)", updated.ID, updated.EpicID)
				return nil
			})
		},
	}
	f.register(cmd, true, true)
	cmd.Flags().Int64Var(&f.epic, "epic", 0, "Move to this epic")
	return cmd
}

func newSubtaskRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a subtask",
		Args:    idArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			return a.withStore(cmd, func(s *persist.Store) error {
				if err := s.DeleteSubtask(id); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Deleted subtask %d", id)
				return nil
			})
		},
	}
}

func newSubtaskLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List subtasks by id",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *persist.Store) error {
				a.printer(cmd.OutOrStdout()).items(entities(s.Subtasks()), "No subtasks.")
				return nil
			})
		},
	}
}

func newSubtaskClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every subtask",
		Long:  "Delete every subtask. Epics remain, with no subtasks and status NEW.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *persist.Store) error {
				n := len(s.Subtasks())
				if err := s.DeleteAllSubtasks(); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Deleted %s", subtaskCount(n))
				return nil
			})
		},
	}
}
