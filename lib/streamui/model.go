// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamui

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/skystream/firehose"
)

// DefaultScrollback is the number of summary lines kept when Config
// leaves Scrollback unset.
const DefaultScrollback = 1000

// kinds is the display order of the per-kind counters.
var kinds = []string{"commit", "identity", "account", "handle", "tombstone", "info", "error"}

// chromeHeight is the number of rows outside the scrollback: the
// header, the counter line, and the status bar.
const chromeHeight = 3

// Config configures a Model.
type Config struct {
	// Endpoint is shown in the header.
	Endpoint   string
	Scrollback int
	Theme      *Theme
	Keys       *KeyMap
}

type line struct {
	kind string
	text string
}

// Model is the bubbletea model for the stream viewer.
type Model struct {
	endpoint   string
	theme      Theme
	keys       KeyMap
	scrollback int

	width, height int

	state     firehose.State
	cursor    int64
	hasCursor bool
	counts    map[string]int
	total     int

	lines []line
	// offset is how many lines the view is scrolled back from the
	// newest; zero follows the stream.
	offset int
	paused bool
	// dropped counts events that arrived while paused.
	dropped int

	status           string
	statusLevel      slog.Level
	statusGeneration int
}

// New returns a viewer model sized for an 80x24 terminal until the
// first window size message arrives.
func New(config Config) Model {
	model := Model{
		endpoint:   config.Endpoint,
		theme:      DefaultTheme,
		keys:       DefaultKeyMap,
		scrollback: config.Scrollback,
		width:      80,
		height:     24,
		counts:     make(map[string]int, len(kinds)),
	}
	if config.Theme != nil {
		model.theme = *config.Theme
	}
	if config.Keys != nil {
		model.keys = *config.Keys
	}
	if model.scrollback <= 0 {
		model.scrollback = DefaultScrollback
	}
	return model
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		model.width = msg.Width
		model.height = msg.Height
		model.offset = min(model.offset, model.maxOffset())

	case tea.KeyMsg:
		return model.handleKey(msg)

	case EventMsg:
		model.observe(msg.Event)

	case StateMsg:
		model.state = msg.To

	case logRecordMsg:
		model.status = msg.Summary
		model.statusLevel = msg.Level
		model.statusGeneration++
		generation := model.statusGeneration
		return model, tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{generation: generation}
		})

	case logRecordFadeMsg:
		if msg.generation == model.statusGeneration {
			model.status = ""
		}
	}
	return model, nil
}

func (model Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, model.keys.Quit):
		return model, tea.Quit
	case key.Matches(msg, model.keys.Pause):
		model.paused = !model.paused
		if !model.paused {
			model.dropped = 0
		}
	case key.Matches(msg, model.keys.Clear):
		model.lines = nil
		model.offset = 0
	case key.Matches(msg, model.keys.Up):
		model.scroll(1)
	case key.Matches(msg, model.keys.Down):
		model.scroll(-1)
	case key.Matches(msg, model.keys.PageUp):
		model.scroll(model.bodyHeight())
	case key.Matches(msg, model.keys.PageDown):
		model.scroll(-model.bodyHeight())
	case key.Matches(msg, model.keys.Follow):
		model.offset = 0
	}
	return model, nil
}

func (model *Model) observe(event firehose.Event) {
	kind := event.Kind()
	model.counts[kind]++
	model.total++

	if seq, ok := firehose.Sequence(event); ok {
		model.cursor, model.hasCursor = seq, true
	}
	if errorEvent, ok := event.(*firehose.ErrorEvent); ok && errorEvent.Code == firehose.ErrorFutureCursor {
		model.hasCursor = false
	}

	if model.paused {
		model.dropped++
		return
	}
	model.lines = append(model.lines, line{kind: kind, text: Summary(event)})
	if overflow := len(model.lines) - model.scrollback; overflow > 0 {
		model.lines = model.lines[overflow:]
	}
	if model.offset > 0 {
		// Keep a scrolled-back view on the same lines.
		model.offset = min(model.offset+1, model.maxOffset())
	}
}

func (model *Model) scroll(delta int) {
	model.offset = max(0, min(model.offset+delta, model.maxOffset()))
}

func (model Model) bodyHeight() int {
	return max(1, model.height-chromeHeight)
}

func (model Model) maxOffset() int {
	return max(0, len(model.lines)-model.bodyHeight())
}

// View implements tea.Model.
func (model Model) View() string {
	rows := make([]string, 0, model.height)
	rows = append(rows, model.headerView(), model.countsView())
	rows = append(rows, model.bodyView()...)
	rows = append(rows, model.statusView())
	for index, row := range rows {
		rows[index] = ansi.Truncate(row, model.width, "…")
	}
	return strings.Join(rows, "\n")
}

func (model Model) headerView() string {
	header := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Background(model.theme.HeaderBackground)
	stateStyle := header.Foreground(model.theme.StateColor(model.state)).Bold(true)

	cursor := "none"
	if model.hasCursor {
		cursor = strconv.FormatInt(model.cursor, 10)
	}

	var builder strings.Builder
	builder.WriteString(header.Bold(true).Render("skystream"))
	if model.endpoint != "" {
		builder.WriteString(header.Render(" " + model.endpoint))
	}
	builder.WriteString(header.Render("  "))
	builder.WriteString(stateStyle.Render(model.state.String()))
	builder.WriteString(header.Render("  cursor " + cursor))
	if model.paused {
		builder.WriteString(header.Render("  "))
		builder.WriteString(stateStyle.Foreground(model.theme.StateWaiting).
			Render(fmt.Sprintf("PAUSED (%d skipped)", model.dropped)))
	}
	content := ansi.Truncate(builder.String(), model.width, "…")
	return header.Width(model.width).Render(content)
}

func (model Model) countsView() string {
	parts := []string{fmt.Sprintf("events %d", model.total)}
	for _, kind := range kinds {
		parts = append(parts, fmt.Sprintf("%s %d", kind, model.counts[kind]))
	}
	return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(strings.Join(parts, "  "))
}

// bodyView returns exactly bodyHeight rows, blank-padded at the top
// when the scrollback is short.
func (model Model) bodyView() []string {
	height := model.bodyHeight()
	end := len(model.lines) - model.offset
	start := max(0, end-height)

	text := lipgloss.NewStyle().Foreground(model.theme.NormalText)
	rows := make([]string, 0, height)
	for range height - (end - start) {
		rows = append(rows, "")
	}
	for _, entry := range model.lines[start:end] {
		label := lipgloss.NewStyle().Foreground(model.theme.KindColor(entry.kind)).
			Render(fmt.Sprintf("%-9s", entry.kind))
		rows = append(rows, label+" "+text.Render(entry.text))
	}
	return rows
}

func (model Model) statusView() string {
	if model.status != "" {
		color := model.theme.LogWarn
		if model.statusLevel >= slog.LevelError {
			color = model.theme.LogError
		}
		return lipgloss.NewStyle().Foreground(color).Render(model.status)
	}

	var parts []string
	for _, binding := range model.keys.helpBindings() {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	if model.offset > 0 {
		parts = append(parts, fmt.Sprintf("(%d newer)", model.offset))
	}
	return lipgloss.NewStyle().Foreground(model.theme.HelpText).Render(strings.Join(parts, "  "))
}
