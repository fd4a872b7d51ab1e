package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"casedeck/internal/casedev"
	"casedeck/internal/livemic"
	"casedeck/internal/poll"
	"casedeck/internal/tui"
)

// TranscribeCmd is the parent command for transcription jobs.
var TranscribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Submit and monitor transcription jobs",
}

var transcribeSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit an audio file for transcription",
	Run: func(cmd *cobra.Command, args []string) {
		req := casedev.TranscriptionRequest{}
		req.AudioURL, _ = cmd.Flags().GetString("url")
		req.VaultID, _ = cmd.Flags().GetString("vault")
		req.ObjectID, _ = cmd.Flags().GetString("object")
		req.LanguageCode, _ = cmd.Flags().GetString("language")
		req.SpeakerLabels, _ = cmd.Flags().GetBool("speakers")
		req.Punctuate, _ = cmd.Flags().GetBool("punctuate")
		req.FormatText, _ = cmd.Flags().GetBool("format")
		req.WordBoost, _ = cmd.Flags().GetStringSlice("boost")

		if err := req.Validate(); err != nil {
			fail(err)
		}

		client := mustClient()
		id, err := client.SubmitTranscription(context.Background(), req)
		if err != nil {
			fail(err)
		}
		fmt.Printf("Transcription job submitted: %s\n", id)

		noWatch, _ := cmd.Flags().GetBool("no-watch")
		if !noWatch {
			watchTranscription(client, id)
		}
	},
}

var transcribeStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show a transcription job's current status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustClient()
		job, err := client.GetTranscriptionJob(context.Background(), args[0])
		if err != nil {
			fail(err)
		}
		printTranscriptionJob(job)
	},
}

var transcribeWatchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Watch a transcription job until it finishes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		watchTranscription(mustClient(), args[0])
	},
}

var transcribeLiveCmd = &cobra.Command{
	Use:   "live",
	Short: "Stream PCM audio from stdin for live transcription",
	Long: "Reads raw 16kHz 16-bit mono PCM from stdin and prints speaker turns " +
		"as the service recognizes them. Pipe from a recorder, e.g.\n\n" +
		"  rec -q -t raw -r 16000 -e signed -b 16 -c 1 - | casedeck transcribe live",
	Run: func(cmd *cobra.Command, args []string) {
		runLive(mustClient())
	},
}

func init() {
	transcribeSubmitCmd.Flags().String("url", "", "Public URL of the audio file")
	transcribeSubmitCmd.Flags().String("vault", "", "Vault id (with --object)")
	transcribeSubmitCmd.Flags().String("object", "", "Vault object id (with --vault)")
	transcribeSubmitCmd.Flags().String("language", "", "Language code, e.g. en_us")
	transcribeSubmitCmd.Flags().Bool("speakers", false, "Label speakers")
	transcribeSubmitCmd.Flags().Bool("punctuate", true, "Add punctuation")
	transcribeSubmitCmd.Flags().Bool("format", true, "Format numbers and casing")
	transcribeSubmitCmd.Flags().StringSlice("boost", nil, "Words to boost recognition for")
	transcribeSubmitCmd.Flags().Bool("no-watch", false, "Submit without watching")

	TranscribeCmd.AddCommand(transcribeSubmitCmd)
	TranscribeCmd.AddCommand(transcribeStatusCmd)
	TranscribeCmd.AddCommand(transcribeWatchCmd)
	TranscribeCmd.AddCommand(transcribeLiveCmd)
}

func watchTranscription(client *casedev.Client, id string) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		p := tui.NewMonitor("Transcription "+id, tui.TranscriptionSnapshot(client, id))
		if _, err := p.Run(); err != nil {
			fail(err)
		}
		return
	}

	job, err := poll.Until(context.Background(), poll.Options[*casedev.TranscriptionJob]{
		Fetch: func(ctx context.Context) (*casedev.TranscriptionJob, error) {
			return client.GetTranscriptionJob(ctx, id)
		},
		Terminal: func(j *casedev.TranscriptionJob) bool { return casedev.IsTerminal(j.Status) },
		OnUpdate: func(j *casedev.TranscriptionJob) {
			fmt.Printf("status=%s\n", j.Status)
		},
	})
	if err != nil {
		fail(err)
	}
	printTranscriptionJob(job)
	if job.Status != casedev.StatusCompleted {
		os.Exit(1)
	}
}

func printTranscriptionJob(job *casedev.TranscriptionJob) {
	fmt.Printf("Job:    %s\n", job.ID)
	fmt.Printf("Status: %s\n", job.Status)
	if job.Error != "" {
		fmt.Printf("Error:  %s\n", job.Error)
	}
	if job.Status != casedev.StatusCompleted {
		return
	}
	fmt.Println()
	if len(job.Utterances) > 0 {
		for _, u := range job.Utterances {
			if u.Speaker != "" {
				fmt.Printf("[%s] %s\n", u.Speaker, u.Text)
			} else {
				fmt.Println(u.Text)
			}
		}
		return
	}
	fmt.Println(job.Text)
}

// runLive pipes stdin audio to the streaming endpoint and prints turns.
// Partial transcripts overwrite in place; finalized turns get their own line.
func runLive(client *casedev.Client) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	wsURL, _, err := client.StreamingURL(ctx)
	if err != nil {
		fail(err)
	}

	session, err := livemic.Dial(ctx, wsURL)
	if err != nil {
		fail(err)
	}
	defer session.Close()

	fmt.Fprintln(os.Stderr, "Streaming. Ctrl+C to stop.")

	go func() {
		if err := session.Stream(ctx, os.Stdin); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "stream error: %v\n", err)
		}
		session.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case turn, ok := <-session.Turns():
			if !ok {
				return
			}
			if turn.EndOfTurn {
				fmt.Printf("\r\033[K%s\n", turn.Transcript)
			} else {
				fmt.Printf("\r\033[K%s", turn.Transcript)
			}
		}
	}
}
