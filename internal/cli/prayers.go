package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pensaconnect/connect/internal/apperror"
	"github.com/pensaconnect/connect/internal/model"
	"github.com/pensaconnect/connect/internal/repository"
	"github.com/pensaconnect/connect/internal/service"
)

func (a *app) prayersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prayers",
		Aliases: []string{"prayer", "p"},
		Short:   "Browse and manage prayer requests",
	}
	cmd.AddCommand(
		a.listCommand(),
		a.getCommand(),
		a.createCommand(),
		a.updateCommand(),
		a.deleteCommand(),
		a.prayCommand(),
	)
	return cmd
}

func (a *app) listCommand() *cobra.Command {
	var (
		filter  string
		page    int
		perPage int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List prayer requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.svc.List(cmd.Context(), repository.ListOptions{
				Filter:  repository.Filter(filter),
				Page:    page,
				PerPage: perPage,
			})
			if err != nil {
				return err
			}
			if a.jsonMode {
				if list == nil {
					list = []model.PrayerRequest{}
				}
				return writeJSON(cmd.OutOrStdout(), list)
			}
			return renderTable(cmd.OutOrStdout(), list, a.opts.Now())
		},
	}

	cmd.Flags().StringVar(&filter, "filter", string(repository.FilterWall), "wall, answered or my_prayers")
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&perPage, "per-page", service.DefaultPerPage, "requests per page (max 100)")
	return cmd
}

func (a *app) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one prayer request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.show(cmd, p)
		},
	}
}

func (a *app) createCommand() *cobra.Command {
	var (
		in     service.NewPrayer
		status string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Share a new prayer request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Status = model.Status(status)
			p, err := a.svc.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.show(cmd, p)
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "short title (required)")
	cmd.Flags().StringVar(&in.Content, "content", "", "what to pray for (required)")
	cmd.Flags().StringVar(&in.Category, "category", "", `category, e.g. "Family" (server default: General)`)
	cmd.Flags().BoolVar(&in.IsAnonymous, "anonymous", false, "hide your name from other users")
	cmd.Flags().StringVar(&status, "status", "", "pending or answered (default pending)")
	return cmd
}

// updateCommand only turns flags the user actually passed into overrides:
// `pensa prayers update 3 --status answered` leaves title and content alone.
func (a *app) updateCommand() *cobra.Command {
	var (
		title, content, category, status string
		anonymous                        bool
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a prayer request or mark it answered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var u model.Update
			flags := cmd.Flags()
			if flags.Changed("title") {
				u.Title = &title
			}
			if flags.Changed("content") {
				u.Content = &content
			}
			if flags.Changed("category") {
				u.Category = &category
			}
			if flags.Changed("anonymous") {
				u.IsAnonymous = &anonymous
			}
			if flags.Changed("status") {
				u.Status = model.Ptr(model.Status(status))
			}
			if u.IsZero() {
				return apperror.ValidationFailed("update", "nothing to update: pass at least one of --title, --content, --category, --anonymous, --status")
			}

			current, err := a.svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			updated, err := a.svc.Update(cmd.Context(), current, u)
			if err != nil {
				return err
			}
			return a.show(cmd, updated)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new content")
	cmd.Flags().StringVar(&category, "category", "", "new category")
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "hide (true) or show (false) your name")
	cmd.Flags().StringVar(&status, "status", "", "pending or answered")
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one of your prayer requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.svc.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted prayer request %d\n", id)
			return nil
		},
	}
}

func (a *app) prayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pray ID",
		Short: `Toggle "I prayed for this" on a prayer request`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.svc.TogglePrayer(cmd.Context(), id)
			if err != nil {
				return err
			}
			if a.jsonMode {
				return writeJSON(cmd.OutOrStdout(), p)
			}

			verb := "Removed your prayer from"
			if p.HasPrayed() {
				verb = "You prayed for"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s #%d %q (%s)\n", verb, p.ID(), p.Title(), prayersLabel(p.PrayersCount()))
			return nil
		},
	}
}

func (a *app) show(cmd *cobra.Command, p model.PrayerRequest) error {
	if a.jsonMode {
		return writeJSON(cmd.OutOrStdout(), p)
	}
	return renderDetail(cmd.OutOrStdout(), p, a.opts.Now())
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", fmt.Sprintf("invalid prayer request id %q", s))
	}
	return id, nil
}
