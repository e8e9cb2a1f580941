// Package tui renders the live scan indicator shown while imgsnap walks a
// directory tree.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

var (
	primaryColor = lipgloss.Color("39")
	mutedColor   = lipgloss.Color("245")

	spinnerStyle = lipgloss.NewStyle().Foreground(primaryColor)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
)

// ScanFunc performs a scan, reporting progress through onProgress.
type ScanFunc func(ctx context.Context, onProgress func(types.ScanProgress)) (*types.ScanResult, error)

// ProgressMsg is sent when scan progress is updated.
type ProgressMsg types.ScanProgress

// DoneMsg is sent when the scan has returned.
type DoneMsg struct{}

// ProgressModel is a one-line spinner with running counters.
type ProgressModel struct {
	spinner   spinner.Model
	root      string
	progress  types.ScanProgress
	startTime time.Time
	width     int
	done      bool

	updates  <-chan types.ScanProgress
	finished <-chan struct{}
}

// NewProgressModel creates a progress model for a scan of root.
func NewProgressModel(root string) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = spinnerStyle

	return ProgressModel{
		spinner:   s,
		root:      root,
		startTime: time.Now(),
		width:     80,
	}
}

// Init starts the spinner and the activity listener.
func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForActivity(m.updates, m.finished))
}

// Update handles messages for the progress model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case ProgressMsg:
		m.progress = types.ScanProgress(msg)
		return m, waitForActivity(m.updates, m.finished)

	case DoneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress line. It is empty once the scan is done so
// the indicator leaves nothing behind.
func (m ProgressModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n",
		m.spinner.View(),
		titleStyle.Render("Scanning"),
		m.root)

	counts := fmt.Sprintf("  %s files · %s images · %s · %s",
		humanize.Comma(m.progress.FilesScanned),
		humanize.Comma(m.progress.ImagesFound),
		types.FormatSize(m.progress.BytesScanned),
		time.Since(m.startTime).Truncate(time.Second))
	b.WriteString(mutedStyle.Render(counts))
	b.WriteString("\n")

	if m.progress.CurrentPath != "" {
		b.WriteString(mutedStyle.Render("  " + truncatePath(m.progress.CurrentPath, max(m.width-4, 20))))
		b.WriteString("\n")
	}
	return b.String()
}

func waitForActivity(updates <-chan types.ScanProgress, finished <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-updates:
			return ProgressMsg(p)
		case <-finished:
			return DoneMsg{}
		}
	}
}

// Run executes scan while drawing the progress model on stderr and returns
// the scan's own result. Input and signals are left to the caller; cancel
// ctx to stop the scan.
func Run(ctx context.Context, root string, scan ScanFunc) (*types.ScanResult, error) {
	updates := make(chan types.ScanProgress, 1)
	finished := make(chan struct{})

	var (
		result  *types.ScanResult
		scanErr error
	)
	go func() {
		defer close(finished)
		result, scanErr = scan(ctx, func(p types.ScanProgress) {
			// Drop updates the display has not caught up with.
			select {
			case updates <- p:
			default:
			}
		})
	}()

	m := NewProgressModel(root)
	m.updates = updates
	m.finished = finished

	p := tea.NewProgram(m,
		tea.WithOutput(os.Stderr),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	// A display failure must not lose the scan.
	_, _ = p.Run()

	<-finished
	return result, scanErr
}

// truncatePath shortens path from the left to at most maxLen bytes.
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return path[:maxLen]
	}
	return "..." + path[len(path)-(maxLen-3):]
}
