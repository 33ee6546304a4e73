package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fullstacknyc/portfolio/internal/systems"
	"github.com/fullstacknyc/portfolio/internal/typewriter"
)

const previewCursor = "▌"

type frameMsg typewriter.State

type previewModel struct {
	anim  *typewriter.Animator
	state typewriter.State
	total int
	width int

	headline lipgloss.Style
	status   lipgloss.Style
}

func newPreviewModel(anim *typewriter.Animator) previewModel {
	return previewModel{
		anim:     anim,
		state:    anim.State(),
		total:    len(anim.Sequence()),
		headline: lipgloss.NewStyle().Bold(true).Padding(1, 2),
		status:   lipgloss.NewStyle().Faint(true).PaddingLeft(2),
	}
}

// Init starts the animator off the event loop; its first notification is
// delivered through Program.Send like every later one.
func (m previewModel) Init() tea.Cmd {
	anim := m.anim
	return func() tea.Msg {
		anim.Start()
		return nil
	}
}

// Update never calls into the animator: the animator may be blocked in
// Program.Send with its lock held, waiting for this loop.
func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case frameMsg:
		m.state = typewriter.State(msg)
	}
	return m, nil
}

func (m previewModel) View() string {
	headline := m.headline
	if m.width > 4 {
		headline = headline.Width(m.width - 4)
	}
	status := fmt.Sprintf("%d/%d · %s · q to quit", m.state.Index+1, m.total, m.state.Phase)
	return headline.Render(m.state.Render(previewCursor)) + "\n" + m.status.Render(status) + "\n"
}

// runPreview animates the catalog's default headline in the terminal.
func runPreview(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	var prog *tea.Program
	anim, err := typewriter.New(systems.Lines(catalog.Defaults()),
		typewriter.WithObserver(func(st typewriter.State) {
			prog.Send(frameMsg(st))
		}),
	)
	if err != nil {
		return err
	}
	defer anim.Stop()

	prog = tea.NewProgram(newPreviewModel(anim),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run preview: %w", err)
	}
	return nil
}
