package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tariff-workers/internal/common/validation"
	"tariff-workers/pkg/registry"
)

func registryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the activity registry",
	}
	cmd.AddCommand(registryValidateCmd(a))
	cmd.AddCommand(registryListCmd(a))
	return cmd
}

func (a *app) loadRegistry(args []string) (*registry.ActivityRegistry, string, error) {
	path := a.cfg.Registry.Path
	if len(args) > 0 {
		path = args[0]
	}
	reg, err := registry.LoadRegistry(path)
	return reg, path, err
}

func registryValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Check registry fields and compile every schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, path, err := a.loadRegistry(args)
			if err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if _, err := validation.NewValidator(reg); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if reg.Process != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: process %s, %d activities OK\n", path, reg.Process, len(reg.Activities))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d activities OK\n", path, len(reg.Activities))
			return nil
		},
	}
}

func registryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [path]",
		Short: "List registered task types",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := a.loadRegistry(args)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TASK TYPE\tCATEGORY\tTIMEOUT\tRETRIES\tENABLED\tBPMN ERRORS")
			for _, act := range reg.Activities {
				bpmnErrors := "-"
				if len(act.BPMNErrors) > 0 {
					bpmnErrors = strings.Join(act.BPMNErrors, ",")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%s\n",
					act.TaskType, act.Category, act.Timeout, act.Retries, workerEnabled(a, act.TaskType), bpmnErrors)
			}
			return w.Flush()
		},
	}
}

func workerEnabled(a *app, taskType string) bool {
	w, ok := a.cfg.Workers[taskType]
	return !ok || w.Enabled
}
