package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"assistance-wizard/internal/assist"
	apperrors "assistance-wizard/internal/common/errors"
	"assistance-wizard/internal/common/metrics"
	"assistance-wizard/internal/common/validation"
	"assistance-wizard/internal/models"
	"assistance-wizard/internal/stubserver"
)

var errFieldsInvalid = errors.New("some fields need attention")

// ==========================
// Session Commands
// ==========================

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current step and what has been filled in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(a *app) error {
				printStatus(cmd.OutOrStdout(), a)
				return nil
			})
		},
	}
}

func newFillCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "fill <step>",
		Short: "Submit the values for the current step and move on",
		Long: `Reads a YAML or JSON file with the step's fields, validates it and,
when every field passes, stores it and moves to the next step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := models.ParseStep(args[0])
			if err != nil {
				return err
			}
			section, err := readSection(step, file)
			if err != nil {
				return err
			}

			return withSession(cmd.Context(), opts, func(a *app) error {
				form := validation.NewFormState()
				form.MarkSubmitAttempted()

				errs, err := a.controller.Advance(cmd.Context(), section)
				if err != nil {
					return err
				}
				if visible := form.Visible(errs); len(visible) > 0 {
					printFieldErrors(cmd.OutOrStdout(), visible)
					return errFieldsInvalid
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s. Current step: %s\n", step, a.controller.CurrentStep())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "values file (YAML or JSON)")
	cmd.MarkFlagRequired("file")
	return cmd
}

func newBackCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "back",
		Short: "Go back one step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(a *app) error {
				step, err := a.controller.Retreat(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Current step: %s\n", step)
				return nil
			})
		},
	}
}

func newGotoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "goto <step>",
		Short:     "Jump to a step",
		Long:      "Jumps to a step. Forward jumps stop at the first step that is not filled in yet.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: stepNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(a *app) error {
				step, err := a.controller.GoTo(cmd.Context(), models.Step(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Current step: %s\n", step)
				return nil
			})
		},
	}
}

func newRestartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Discard the application and start over",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(a *app) error {
				if err := a.controller.Restart(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Started a new application.")
				return nil
			})
		},
	}
}

// ==========================
// Assist Commands
// ==========================

type assistOptions struct {
	cached    bool
	accept    bool
	editFile  string
	disregard bool
}

func newAssistCmd(opts *rootOptions) *cobra.Command {
	aopts := &assistOptions{}
	cmd := &cobra.Command{
		Use:       "assist <field>",
		Short:     "Draft a narrative field with the writing assistant",
		Args:      cobra.ExactArgs(1),
		ValidArgs: fieldNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := models.ParseNarrativeField(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, func(a *app) error {
				return runAssist(cmd.Context(), cmd.OutOrStdout(), a, field, aopts)
			})
		},
	}
	cmd.Flags().BoolVar(&aopts.cached, "cached", false, "reuse the last suggestion instead of generating a new one")
	cmd.Flags().BoolVar(&aopts.accept, "accept", false, "write the suggestion into the field")
	cmd.Flags().StringVar(&aopts.editFile, "edit-file", "", "write the text from this file into the field")
	cmd.Flags().BoolVar(&aopts.disregard, "disregard", false, "drop the suggestion")
	cmd.MarkFlagsMutuallyExclusive("accept", "edit-file", "disregard")
	return cmd
}

func runAssist(ctx context.Context, out io.Writer, a *app, field models.NarrativeField, aopts *assistOptions) error {
	var status assist.Status
	if aopts.cached {
		status = a.coordinator.Status(field)
		if status.Content == "" {
			return fmt.Errorf("no earlier suggestion for %s", field)
		}
	} else {
		var err error
		status, err = a.coordinator.Generate(ctx, field, a.controller.Draft(), a.controller.Locale())
		if err != nil {
			return err
		}
	}
	printAssistStatus(out, status)
	if status.State == assist.StateError {
		return status.Err
	}

	switch {
	case aopts.accept:
		if err := a.coordinator.Accept(ctx, field, status.Content); err != nil {
			return err
		}
		fmt.Fprintf(out, "Accepted into %s.\n", field)
	case aopts.editFile != "":
		data, err := os.ReadFile(aopts.editFile)
		if err != nil {
			return err
		}
		if err := a.coordinator.EditAndSave(ctx, field, strings.TrimSpace(string(data))); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved edited text into %s.\n", field)
	case aopts.disregard:
		a.coordinator.Disregard(field)
		fmt.Fprintln(out, "Suggestion discarded.")
	}
	return nil
}

func newAssistAllCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "assist-all",
		Short: "Draft all narrative fields at once for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(a *app) error {
				draft := a.controller.Draft()
				locale := a.controller.Locale()
				statuses := make([]assist.Status, len(models.NarrativeFields))

				g, ctx := errgroup.WithContext(cmd.Context())
				for i, field := range models.NarrativeFields {
					g.Go(func() error {
						status, err := a.coordinator.Generate(ctx, field, draft, locale)
						statuses[i] = status
						return err
					})
				}
				if err := g.Wait(); err != nil {
					return err
				}

				failed := 0
				for _, status := range statuses {
					printAssistStatus(cmd.OutOrStdout(), status)
					if status.State == assist.StateError {
						failed++
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d suggestions failed", failed, len(statuses))
				}
				return nil
			})
		},
	}
}

// ==========================
// Submission
// ==========================

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit the application with the situation description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			section, err := readSection(models.StepSituationDescription, file)
			if err != nil {
				return err
			}
			situation := section.(models.SituationDescription)

			return withSession(cmd.Context(), opts, func(a *app) error {
				receipt, err := a.orchestrator.Submit(cmd.Context(), situation)
				if err != nil {
					if appErr, ok := apperrors.As(err); ok {
						fmt.Fprintln(cmd.OutOrStdout(), appErr.Message)
						printFieldErrors(cmd.OutOrStdout(), appErr.FieldErrors)
					}
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, receipt.Message)
				fmt.Fprintf(out, "Application ID: %s\n", receipt.ApplicationID)
				fmt.Fprintf(out, "Submitted at:   %s\n", receipt.SubmittedAt.Format(time.RFC3339))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "situation description file (YAML or JSON)")
	cmd.MarkFlagRequired("file")
	return cmd
}

// ==========================
// Servers
// ==========================

func newServeStubCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve-stub",
		Short: "Run a local submission and text generation backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return stubserver.New(stubserver.LoadConfig(a.cfg), a.log).Run(ctx)
		},
	}
}

func newMetricsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Run the stub backend and expose Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.HandlerFor(a.registry))
			metricsServer := &http.Server{
				Addr:              a.cfg.Metrics.Address,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			stub := stubserver.New(stubserver.LoadConfig(a.cfg), a.log, stubserver.WithMetrics(a.registry))

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return stub.Run(ctx)
			})
			g.Go(func() error {
				a.log.Info("metrics listening", map[string]interface{}{"address": metricsServer.Addr})
				if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return metricsServer.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
}

// ==========================
// Output
// ==========================

func printStatus(out io.Writer, a *app) {
	c := a.controller
	draft := c.Draft()

	fmt.Fprintf(out, "Current step: %s\n", c.CurrentStep())
	for _, step := range models.Steps[:models.StepSuccess.Index()] {
		mark := " "
		switch {
		case c.IsStepComplete(step):
			mark = "x"
		case draft.HasSection(step):
			mark = "~"
		}
		fmt.Fprintf(out, "  [%s] %s\n", mark, step)
	}
	fmt.Fprintf(out, "Submitted: %t\n", c.HasSubmittedSuccessfully())
	fmt.Fprintf(out, "Unsaved changes: %t\n", c.IsDirty())
	if saved := c.LastPersistedAt(); saved != nil {
		fmt.Fprintf(out, "Last saved: %s\n", saved.Local().Format(time.RFC3339))
	}
	fmt.Fprintf(out, "Language: %s\n", c.Locale())
}

func printFieldErrors(out io.Writer, errs map[string]string) {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(out, "  %s: %s\n", field, errs[field])
	}
}

func printAssistStatus(out io.Writer, status assist.Status) {
	fmt.Fprintf(out, "== %s (%s)\n", status.Field, status.State)
	if status.Err != nil {
		fmt.Fprintf(out, "%s\n", status.Err.Message)
		return
	}
	if status.ConflictsWithManualEdit {
		fmt.Fprintln(out, "Note: the field was edited while this was being written.")
	}
	if status.Content != "" {
		fmt.Fprintln(out, status.Content)
	}
}

func stepNames() []string {
	names := make([]string, len(models.Steps))
	for i, s := range models.Steps {
		names[i] = string(s)
	}
	return names
}

func fieldNames() []string {
	names := make([]string, len(models.NarrativeFields))
	for i, f := range models.NarrativeFields {
		names[i] = string(f)
	}
	return names
}
