package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"casedeck/internal/casedev"
	"casedeck/internal/poll"
	"casedeck/internal/tui"
)

// OCRCmd is the parent command for OCR jobs.
var OCRCmd = &cobra.Command{
	Use:   "ocr",
	Short: "Submit and monitor OCR jobs",
}

var ocrSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a document for OCR",
	Long:  "Submit a document by URL or by vault object reference, then watch the job to completion.",
	Run: func(cmd *cobra.Command, args []string) {
		req := casedev.OCRRequest{}
		req.DocumentURL, _ = cmd.Flags().GetString("url")
		req.VaultID, _ = cmd.Flags().GetString("vault")
		req.ObjectID, _ = cmd.Flags().GetString("object")
		req.Filename, _ = cmd.Flags().GetString("filename")
		req.Engine, _ = cmd.Flags().GetString("engine")
		req.Features.Embed, _ = cmd.Flags().GetBool("embed")
		req.Features.Tables, _ = cmd.Flags().GetBool("tables")

		if err := req.Validate(); err != nil {
			fail(err)
		}

		client := mustClient()
		id, err := client.SubmitOCR(context.Background(), req)
		if err != nil {
			fail(err)
		}
		fmt.Printf("OCR job submitted: %s\n", id)

		noWatch, _ := cmd.Flags().GetBool("no-watch")
		if !noWatch {
			watchOCR(client, id)
		}
	},
}

var ocrStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show an OCR job's current status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustClient()
		job, err := client.GetOCRJob(context.Background(), args[0])
		if err != nil {
			fail(err)
		}
		printOCRJob(job)
	},
}

var ocrWatchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Watch an OCR job until it finishes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		watchOCR(mustClient(), args[0])
	},
}

func init() {
	ocrSubmitCmd.Flags().String("url", "", "Public URL of the document")
	ocrSubmitCmd.Flags().String("vault", "", "Vault id (with --object)")
	ocrSubmitCmd.Flags().String("object", "", "Vault object id (with --vault)")
	ocrSubmitCmd.Flags().String("filename", "", "Display filename")
	ocrSubmitCmd.Flags().String("engine", casedev.OCREngineDoctr, "OCR engine: doctr, tesseract, paddle, google")
	ocrSubmitCmd.Flags().Bool("embed", false, "Generate embeddings")
	ocrSubmitCmd.Flags().Bool("tables", false, "Extract tables")
	ocrSubmitCmd.Flags().Bool("no-watch", false, "Submit without watching")

	OCRCmd.AddCommand(ocrSubmitCmd)
	OCRCmd.AddCommand(ocrStatusCmd)
	OCRCmd.AddCommand(ocrWatchCmd)
}

// watchOCR follows a job to its terminal status: interactive monitor on a
// TTY, plain polling otherwise.
func watchOCR(client *casedev.Client, id string) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		p := tui.NewMonitor("OCR "+id, tui.OCRSnapshot(client, id))
		if _, err := p.Run(); err != nil {
			fail(err)
		}
		return
	}

	job, err := poll.Until(context.Background(), poll.Options[*casedev.OCRJob]{
		Fetch: func(ctx context.Context) (*casedev.OCRJob, error) {
			return client.GetOCRJob(ctx, id)
		},
		Terminal: func(j *casedev.OCRJob) bool { return casedev.IsTerminal(j.Status) },
		OnUpdate: func(j *casedev.OCRJob) {
			fmt.Printf("status=%s chunks=%d/%d\n", j.Status, j.ChunksCompleted, j.ChunkCount)
		},
	})
	if err != nil {
		fail(err)
	}
	printOCRJob(job)
	if job.Status != casedev.StatusCompleted {
		os.Exit(1)
	}
}

func printOCRJob(job *casedev.OCRJob) {
	fmt.Printf("Job:      %s\n", job.ID)
	fmt.Printf("Status:   %s\n", job.Status)
	if job.ChunkCount > 0 {
		fmt.Printf("Progress: %d/%d chunks\n", job.ChunksCompleted, job.ChunkCount)
	}
	if job.Error != "" {
		fmt.Printf("Error:    %s\n", job.Error)
	}
	if job.Status == casedev.StatusCompleted && job.Text != "" {
		fmt.Println()
		fmt.Println(job.Text)
	}
}
