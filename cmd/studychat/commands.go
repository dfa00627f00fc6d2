package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"StudyChat/internal/catalog"
	"StudyChat/internal/telemetry"
)

func newAskCmd(v *viper.Viper) *cobra.Command {
	var subjectName, actionRef string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Send a single question (or quick action) and print the reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			var action catalog.QuickAction
			if actionRef != "" {
				a, ok := catalog.FindQuickAction(actionRef)
				if !ok {
					return fmt.Errorf("unknown quick action: %s", actionRef)
				}
				action = a
			} else if len(args) == 0 {
				return fmt.Errorf("a question or --action is required")
			}

			var subject catalog.Subject
			if subjectName != "" {
				s, ok := catalog.ParseSubject(subjectName)
				if !ok {
					return fmt.Errorf("unknown subject: %s", subjectName)
				}
				subject = s
			}

			a, err := newApp(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer a.Close()

			if subject != "" {
				a.bot.SelectSubject(subject)
			}
			if actionRef != "" {
				err = a.bot.RunQuickAction(cmd.Context(), action)
			} else {
				err = a.bot.Submit(cmd.Context(), strings.Join(args, " "))
			}
			if err != nil {
				return err
			}

			snap := a.bot.Snapshot()
			fmt.Fprintln(cmd.OutOrStdout(), snap.Transcript[len(snap.Transcript)-1].Content)
			if snap.LastError != nil {
				return fmt.Errorf("request failed: %s", snap.LastError.Category)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&subjectName, "subject", "", "subject context (see `studychat catalog`)")
	cmd.Flags().StringVar(&actionRef, "action", "", "quick action number or label")
	return cmd
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List subjects and quick actions",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Subjects:")
			for _, s := range catalog.Subjects() {
				fmt.Fprintf(out, "  %s\n", s)
			}
			fmt.Fprintln(out, "Quick actions:")
			for i, a := range catalog.QuickActions() {
				fmt.Fprintf(out, "  %d. %s (%s)\n", i+1, a.Label, a.Icon)
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), telemetry.Version)
		},
	}
}
