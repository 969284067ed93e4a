package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagefit/internal/config"
	"github.com/jackzampolin/pagefit/internal/home"
)

var initForce bool

const sampleDocument = `# Sample résumé. Each section is measured and laid out as a unit.
id: example
title: Jane Doe
sections:
  - id: header
    type: header
    content: |
      # Jane Doe
      Staff Engineer · jane@example.com · Berlin
  - id: summary
    type: section
    content: |
      ## Summary
      Backend engineer focused on distributed storage and developer tooling.
  - id: experience-acme
    type: section
    content: |
      ## Experience
      ### Acme Corp, Staff Engineer (2019 to present)
      - Led the migration of the billing pipeline to event sourcing
      - Cut p99 latency of the order API from 900ms to 120ms
  - id: skills
    type: section
    format: text
    content: Go, PostgreSQL, Kafka, Kubernetes, Terraform
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the pagefit home directory with a default config",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		if h.ConfigExists() && !initForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", h.ConfigPath())
		}
		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", h.ConfigPath())

		if !h.SampleExists() {
			if err := os.WriteFile(h.SamplePath(), []byte(sampleDocument), 0o644); err != nil {
				return fmt.Errorf("failed to write sample document: %w", err)
			}
			fmt.Printf("Wrote %s\n", h.SamplePath())
		}
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
