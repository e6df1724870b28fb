package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/domain/professional"
	"github.com/clinic/clinic/internal/domain/scheduling"
	"github.com/clinic/clinic/internal/platform/clock"
)

var errRejected = errors.New("candidate rejected")

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a slot against a professional's availability without a database",
		Long: "Runs the slot and working-hours rules for one candidate appointment.\n" +
			"The professional file holds the same JSON the API returns for GET /professionals/:id.\n" +
			"Conflicts with existing appointments are not checked.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("professional")
			startRaw, _ := cmd.Flags().GetString("start")
			endRaw, _ := cmd.Flags().GetString("end")
			nowRaw, _ := cmd.Flags().GetString("now")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateScheduling(); err != nil {
				return err
			}
			loc, _ := cfg.Location()

			p, err := loadProfessional(file)
			if err != nil {
				return err
			}
			start, err := time.Parse(time.RFC3339, startRaw)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			end, err := time.Parse(time.RFC3339, endRaw)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			var clk clock.Clock = clock.System{}
			if nowRaw != "" {
				now, err := time.Parse(time.RFC3339, nowRaw)
				if err != nil {
					return fmt.Errorf("--now: %w", err)
				}
				clk = clock.NewFixed(now)
			}

			out := checkSlot(p, start, end, clk, loc, cfg.SchedulingMinDuration)
			if err := writeOutcome(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if !out.Accepted {
				return errRejected
			}
			return nil
		},
	}
	cmd.Flags().String("professional", "", "Path to a professional JSON file")
	cmd.Flags().String("start", "", "Candidate start (RFC3339)")
	cmd.Flags().String("end", "", "Candidate end (RFC3339)")
	cmd.Flags().String("now", "", "Evaluate as of this instant (RFC3339) instead of the current time")
	cmd.MarkFlagRequired("professional")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

func loadProfessional(path string) (*professional.Professional, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read professional: %w", err)
	}
	var p professional.Professional
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode professional %s: %w", path, err)
	}
	return &p, nil
}

// checkSlot applies the slot rules and then the calendar at the start
// instant, stopping at the first rejection.
func checkSlot(p *professional.Professional, start, end time.Time, clk clock.Clock, loc *time.Location, minDuration time.Duration) scheduling.Outcome {
	if out := scheduling.NewSlotValidator(clk, minDuration).Validate(start, end); !out.Accepted {
		return out
	}
	return scheduling.NewCalendar(loc).IsAvailable(p, start)
}

func writeOutcome(w io.Writer, out scheduling.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
