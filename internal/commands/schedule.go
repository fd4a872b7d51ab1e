package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"casedeck/internal/schedule"
)

// ScheduleCmd manages workflow run schedules. Schedules only fire while the
// serve process is running.
var ScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule workflow runs",
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add <workflow-id> <object-id>...",
	Short: "Add a one-shot or periodic schedule",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		atStr, _ := cmd.Flags().GetString("at")
		cronExpr, _ := cmd.Flags().GetString("cron")
		if (atStr == "") == (cronExpr == "") {
			fail(fmt.Errorf("exactly one of --at or --cron is required"))
		}

		vaultID, _ := cmd.Flags().GetString("vault")
		if vaultID == "" {
			fail(fmt.Errorf("--vault is required"))
		}
		mode, _ := cmd.Flags().GetString("mode")
		if mode != "separate" && mode != "combined" {
			fail(fmt.Errorf("unknown mode %q (want separate or combined)", mode))
		}
		name, _ := cmd.Flags().GetString("name")

		docs, err := lookupDocuments(mustClient(), vaultID, args[1:])
		if err != nil {
			fail(err)
		}

		sc := &schedule.Schedule{
			Name:       name,
			WorkflowID: args[0],
			Documents:  docs,
			Mode:       mode,
			Enabled:    true,
		}
		if atStr != "" {
			at, err := time.ParseInLocation("2006-01-02 15:04", atStr, time.Local)
			if err != nil {
				fail(fmt.Errorf("parse --at: %w (want \"2006-01-02 15:04\")", err))
			}
			sc.Type = schedule.TypeOnce
			sc.At = &at
		} else {
			sc.Type = schedule.TypePeriodic
			sc.Cron = cronExpr
		}

		if err := schedule.AddSchedule(sc); err != nil {
			fail(err)
		}
		fmt.Printf("Schedule %s added. It fires while 'casedeck serve' is running.\n", sc.ID)
	},
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List schedules",
	Run: func(cmd *cobra.Command, args []string) {
		schedules, err := schedule.ListSchedules()
		if err != nil {
			fail(err)
		}
		if len(schedules) == 0 {
			fmt.Println("No schedules.")
			return
		}
		for _, sc := range schedules {
			when := sc.Cron
			if sc.Type == schedule.TypeOnce && sc.At != nil {
				when = sc.At.Format("2006-01-02 15:04")
			}
			last := "never"
			if sc.LastRunAt != nil {
				last = sc.LastRunAt.Format("2006-01-02 15:04")
			}
			fmt.Printf("%s  %-8s  %-18s  wf=%s docs=%d mode=%s last=%s\n",
				sc.ID, sc.Type, when, sc.WorkflowID, len(sc.Documents), sc.Mode, last)
		}
	},
}

var scheduleRemoveCmd = &cobra.Command{
	Use:   "remove <schedule-id>",
	Short: "Remove a schedule",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := schedule.RemoveSchedule(args[0]); err != nil {
			fail(err)
		}
		fmt.Printf("Schedule %s removed.\n", args[0])
	},
}

func init() {
	scheduleAddCmd.Flags().String("at", "", "One-shot time, local, \"2006-01-02 15:04\"")
	scheduleAddCmd.Flags().String("cron", "", "Cron expression (min hour dom mon dow)")
	scheduleAddCmd.Flags().String("vault", "", "Vault id containing the documents")
	scheduleAddCmd.Flags().String("mode", "separate", "Run mode: separate or combined")
	scheduleAddCmd.Flags().String("name", "", "Display name")

	ScheduleCmd.AddCommand(scheduleAddCmd)
	ScheduleCmd.AddCommand(scheduleListCmd)
	ScheduleCmd.AddCommand(scheduleRemoveCmd)
}
