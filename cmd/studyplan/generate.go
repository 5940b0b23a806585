package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/studyplan/server/export"
	"github.com/hrygo/studyplan/server/planner"
	"github.com/hrygo/studyplan/server/service/plan"
	"github.com/hrygo/studyplan/server/timezone"
)

// generateInput is the file read by the generate command.
type generateInput struct {
	Name          string                        `json:"name"`
	Subjects      []planner.Subject             `json:"subjects"`
	Availability  []planner.WeekdayAvailability `json:"availability"`
	Deadline      civil.Date                    `json:"deadline"`
	PriorSchedule []planner.ScheduleItem        `json:"prior_schedule,omitempty"`
	Config        *planner.Config               `json:"config,omitempty"`
}

type generateOptions struct {
	today    string
	timezone string
	format   string
	adaptive bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a schedule from a JSON input file without a store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("input")
		today, _ := cmd.Flags().GetString("today")
		format, _ := cmd.Flags().GetString("format")

		var in io.Reader = cmd.InOrStdin()
		if path != "-" {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open input: %w", err)
			}
			defer f.Close()
			in = f
		}
		return runGenerate(in, cmd.OutOrStdout(), generateOptions{
			today:    today,
			timezone: viper.GetString("timezone"),
			format:   format,
			adaptive: viper.GetBool("adaptive-intervals"),
		})
	},
}

func init() {
	generateCmd.Flags().String("input", "-", `input JSON file, "-" reads stdin`)
	generateCmd.Flags().String("today", "", "date the plan starts from (YYYY-MM-DD), defaults to today")
	generateCmd.Flags().String("format", "json", "output format, json or markdown")
}

func runGenerate(in io.Reader, out io.Writer, opts generateOptions) error {
	if opts.format != "json" && opts.format != "markdown" {
		return fmt.Errorf("unknown format %q: use json or markdown", opts.format)
	}

	input := &generateInput{}
	if err := json.NewDecoder(in).Decode(input); err != nil {
		return fmt.Errorf("failed to decode input: %w", err)
	}

	loc, err := timezone.ParseTimezone(opts.timezone)
	if err != nil {
		return err
	}
	today, err := timezone.ParseDate(opts.today, loc)
	if err != nil {
		return err
	}

	cfg := planner.Config{}
	if input.Config != nil {
		cfg = *input.Config
	}
	if opts.adaptive {
		cfg.AdaptIntervalsToPerformance = true
	}
	generator, err := planner.NewGenerator(cfg)
	if err != nil {
		return err
	}
	result, err := generator.Generate(&planner.Request{
		Subjects:      input.Subjects,
		Availability:  input.Availability,
		Deadline:      input.Deadline,
		Today:         today,
		PriorSchedule: input.PriorSchedule,
	})
	if err != nil {
		return err
	}

	if opts.format == "markdown" {
		name := input.Name
		if name == "" {
			name = fmt.Sprintf("%s until %s", plan.DefaultPlanName, input.Deadline)
		}
		_, err := io.WriteString(out, export.Markdown(&plan.Plan{
			Name:          name,
			Timezone:      loc.String(),
			Deadline:      input.Deadline,
			AsOf:          today,
			Subjects:      input.Subjects,
			Availability:  input.Availability,
			Schedule:      result.Schedule,
			Notifications: result.Notifications,
			Statistics:    result.Statistics,
		}))
		return err
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
