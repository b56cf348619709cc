package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tracker/internal/persist"
	"github.com/ShayCichocki/tracker/pkg/models"
)

func newEpicCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epic",
		Short: "Manage epics",
		Long: `Create, inspect, update and delete epics.

An epic's status and time window follow its subtasks: it is NEW when all
subtasks are NEW (or it has none), DONE when all are DONE, and IN_PROGRESS
otherwise. Deleting an epic deletes its subtasks.`,
	}
	cmd.AddCommand(
		newEpicAddCmd(a),
		newEpicGetCmd(a),
		newEpicUpdateCmd(a),
		newEpicRmCmd(a),
		newEpicLsCmd(a),
		newEpicClearCmd(a),
		newEpicSubtasksCmd(a),
	)
	return cmd
}

func newEpicAddCmd(a *app) *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an epic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := models.NewEpic("", "")
			if err := f.apply(cmd, &e.Task, a.cfg.Display.TimeLayout); err != nil {
				return err
			}
			return a.withStore(cmd, func(s *persist.Store) error {
				created, err := s.CreateEpic(e)
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Created epic %d", created.ID)
				return nil
			})
		},
	}
	f.register(cmd, false, false)
	cmd.MarkFlagRequired("title")
	return cmd
}

func newEpicGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show an epic and record it in the history",
		Args:  idArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			return a.withStore(cmd, func(s *persist.Store) error {
				e, err := s.GetEpic(id)
				if err != nil {
					return err
				}
				a.printer(cmd.OutOrStdout()).detail(e)
				return nil
			})
		},
	}
}

func newEpicUpdateCmd(a *app) *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change an epic's title or description",
		Long: `Change an epic's title or description. A --status that disagrees
with the subtasks is replaced by the derived status.`,
		Args: idArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			return a.withStore(cmd, func(s *persist.Store) error {
				e, err := find(s.Epics(), id)
				if err != nil {
					return err
				}
				requested := e.Status
				if err := f.apply(cmd, &e.Task, a.cfg.Display.TimeLayout); err != nil {
					return err
				}
				if cmd.Flags().Changed("status") {
					requested = e.Status
				}
				updated, err := s.UpdateEpic(e)
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Updated epic %d", updated.ID)
				if updated.Status != requested {
					printWarn(cmd.OutOrStdout(), "Status is %s, derived from its subtasks", updated.Status)
				}
				return nil
			})
		},
	}
	f.register(cmd, true, false)
	return cmd
}

func newEpicRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete an epic and its subtasks",
		Args:    idArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			return a.withStore(cmd, func(s *persist.Store) error {
				e, err := find(s.Epics(), id)
				if err != nil {
					return err
				}
				if err := s.DeleteEpic(id); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Deleted epic %d and %s", id, subtaskCount(len(e.SubtaskIDs)))
				return nil
			})
		},
	}
}

func newEpicLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List epics by id",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *persist.Store) error {
				a.printer(cmd.OutOrStdout()).items(entities(s.Epics()), "No epics.")
				return nil
			})
		},
	}
}

func newEpicClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every epic and every subtask",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *persist.Store) error {
				epics, subs := len(s.Epics()), len(s.Subtasks())
				if err := s.DeleteAllEpics(); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Deleted %d epics and %s", epics, subtaskCount(subs))
				return nil
			})
		},
	}
}

func newEpicSubtasksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "subtasks ID",
		Short: "List an epic's subtasks in membership order",
		Args:  idArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			return a.withStore(cmd, func(s *persist.Store) error {
				subs, err := s.EpicSubtasks(id)
				if err != nil {
					return err
				}
				a.printer(cmd.OutOrStdout()).items(entities(subs), fmt.Sprintf("Epic %d has no subtasks.", id))
				return nil
			})
		},
	}
}
