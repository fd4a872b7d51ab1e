package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"casedeck/internal/casedev"
)

// JobSnapshot is the monitor's view of a polled job: status, progress
// counters, and the error text once the job fails.
type JobSnapshot struct {
	Status string
	Done   int
	Total  int
	Error  string
	Detail string
}

// FetchFunc retrieves the current snapshot of the monitored job.
type FetchFunc func(ctx context.Context) (JobSnapshot, error)

const monitorInterval = 3 * time.Second

type snapshotMsg struct {
	snap JobSnapshot
	err  error
}

type tickMsg struct{}

// monitorModel polls one job and renders its progress until the status turns
// terminal. Closing the view stops the polling loop with it.
type monitorModel struct {
	title   string
	fetch   FetchFunc
	spinner spinner.Model
	bar     progress.Model

	snap     JobSnapshot
	fetchErr error
	terminal bool
}

// NewMonitor builds the job monitor program for the given fetch function.
func NewMonitor(title string, fetch FetchFunc) *tea.Program {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusWarnStyle

	m := monitorModel{
		title:   title,
		fetch:   fetch,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient()),
	}
	return tea.NewProgram(m)
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCmd())
}

// fetchCmd performs one fetch off the update loop.
func (m monitorModel) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.fetch(context.Background())
		return snapshotMsg{snap: snap, err: err}
	}
}

func scheduleTick() tea.Cmd {
	return tea.Tick(monitorInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if m.terminal {
				return m, tea.Quit
			}
		}
		return m, nil

	case snapshotMsg:
		if msg.err != nil {
			// A failed fetch is not fatal; keep the last snapshot and
			// retry on the next tick.
			m.fetchErr = msg.err
			return m, scheduleTick()
		}
		m.fetchErr = nil
		m.snap = msg.snap
		if casedev.IsTerminal(msg.snap.Status) {
			m.terminal = true
			return m, nil
		}
		return m, scheduleTick()

	case tickMsg:
		if m.terminal {
			return m, nil
		}
		return m, m.fetchCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m monitorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	status := m.snap.Status
	if status == "" {
		status = "submitting"
	}
	switch {
	case m.terminal && m.snap.Error != "":
		b.WriteString(labelStyle.Render("Status: "))
		b.WriteString(statusErrorStyle.Render(status))
		b.WriteString("\n")
		b.WriteString(statusErrorStyle.Render("Error: " + m.snap.Error))
		b.WriteString("\n")
	case m.terminal:
		b.WriteString(labelStyle.Render("Status: "))
		b.WriteString(statusOkStyle.Render(status))
		b.WriteString("\n")
	default:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(labelStyle.Render("Status: "))
		b.WriteString(valueStyle.Render(status))
		b.WriteString("\n")
	}

	if m.snap.Total > 0 {
		pct := float64(m.snap.Done) / float64(m.snap.Total)
		b.WriteString("\n")
		b.WriteString(m.bar.ViewAs(pct))
		b.WriteString(fmt.Sprintf("  %d/%d", m.snap.Done, m.snap.Total))
		b.WriteString("\n")
	}

	if m.snap.Detail != "" {
		b.WriteString("\n")
		b.WriteString(valueStyle.Render(m.snap.Detail))
		b.WriteString("\n")
	}

	if m.fetchErr != nil {
		b.WriteString("\n")
		b.WriteString(statusWarnStyle.Render("last poll failed, retrying: " + m.fetchErr.Error()))
		b.WriteString("\n")
	}

	if m.terminal {
		b.WriteString(helpStyle.Render("enter/q: close"))
	} else {
		b.WriteString(helpStyle.Render("q: stop watching (job keeps running remotely)"))
	}

	return appStyle.Render(b.String())
}

// OCRSnapshot adapts an OCR job to the monitor.
func OCRSnapshot(client *casedev.Client, id string) FetchFunc {
	return func(ctx context.Context) (JobSnapshot, error) {
		job, err := client.GetOCRJob(ctx, id)
		if err != nil {
			return JobSnapshot{}, err
		}
		return JobSnapshot{
			Status: job.Status,
			Done:   job.ChunksCompleted,
			Total:  job.ChunkCount,
			Error:  job.Error,
		}, nil
	}
}

// TranscriptionSnapshot adapts a transcription job to the monitor.
func TranscriptionSnapshot(client *casedev.Client, id string) FetchFunc {
	return func(ctx context.Context) (JobSnapshot, error) {
		job, err := client.GetTranscriptionJob(ctx, id)
		if err != nil {
			return JobSnapshot{}, err
		}
		detail := ""
		if job.Status == casedev.StatusCompleted && len(job.Utterances) > 0 {
			detail = fmt.Sprintf("%d utterance(s) transcribed", len(job.Utterances))
		}
		return JobSnapshot{Status: job.Status, Error: job.Error, Detail: detail}, nil
	}
}

// AnalysisSnapshot adapts a tabular analysis run to the monitor. Progress is
// the count of filled cells over the full document-by-column grid.
func AnalysisSnapshot(client *casedev.Client, id string) FetchFunc {
	return func(ctx context.Context) (JobSnapshot, error) {
		a, err := client.GetAnalysis(ctx, id)
		if err != nil {
			return JobSnapshot{}, err
		}
		done := 0
		for _, row := range a.Rows {
			done += len(row.Data)
		}
		return JobSnapshot{
			Status: a.Status,
			Done:   done,
			Total:  len(a.Documents) * len(a.Columns),
			Error:  a.Error,
		}, nil
	}
}
