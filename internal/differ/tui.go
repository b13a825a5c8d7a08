// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/term"

	"github.com/tfctl/revctl/internal/changeset"
	"github.com/tfctl/revctl/internal/log"
	"github.com/tfctl/revctl/internal/selection"
)

// maxPreview bounds the records listed under the revision list.
const maxPreview = 12

var (
	// ErrPickAborted is returned when the picker is quit without accepting.
	ErrPickAborted = errors.New("pick aborted")
	// ErrNoTTY is returned when the picker is asked for without a terminal.
	ErrNoTTY = errors.New("interactive pick needs a terminal")
)

var (
	cursorStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	addStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	delStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// PickOptions configures Pick.
type PickOptions struct {
	Target changeset.ComparisonTarget
	// Branch is offered as a target when cycling with the target key.
	Branch string
	Path   string
	// WatchDir is the git dir. Ref changes under it reload the list.
	WatchDir string
	Reload   func(ctx context.Context) ([]changeset.Revision, error)
}

// PickResult is the accepted state of the picker.
type PickResult struct {
	Selection selection.Snapshot
	Target    changeset.ComparisonTarget
	Path      string
	ChangeSet changeset.ChangeSet
}

// Interactive reports whether stdin and stderr are terminals. The picker
// draws on stderr so stdout stays free for results.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// Pick runs the interactive revision picker over list.
func Pick(ctx context.Context, e *Engine, list []changeset.Revision, opts PickOptions) (PickResult, error) {
	if !Interactive() {
		return PickResult{}, ErrNoTTY
	}

	m := newPickModel(ctx, e, list, opts)

	if opts.WatchDir != "" && opts.Reload != nil {
		w, err := watchRefs(opts.WatchDir)
		if err != nil {
			log.WithError(err).Warn("ref watching disabled")
		} else {
			defer w.Close()
			m.watcher = w
		}
	}

	final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return PickResult{}, fmt.Errorf("picker failed: %w", err)
	}

	pm := final.(pickModel)
	if pm.aborted {
		return PickResult{}, ErrPickAborted
	}

	return PickResult{
		Selection: pm.sel.Snapshot(),
		Target:    pm.target,
		Path:      pm.path.Value(),
		ChangeSet: pm.result,
	}, nil
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Single key.Binding
	Toggle key.Binding
	Extend key.Binding
	Target key.Binding
	Path   key.Binding
	Accept key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Single: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "select"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		Extend: key.NewBinding(
			key.WithKeys("x", "shift+down", "shift+up"),
			key.WithHelp("x", "extend"),
		),
		Target: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "target"),
		),
		Path: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "path"),
		),
		Accept: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "accept"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) help() string {
	var parts []string
	for _, b := range []key.Binding{k.Single, k.Toggle, k.Extend, k.Target, k.Path, k.Accept, k.Quit} {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, "  ")
}

// resultMsg carries a finished computation back to the model.
type resultMsg Result

// refsChangedMsg reports a change under the git dir. reload is false when
// only the index moved.
type refsChangedMsg struct{ reload bool }

type reloadedMsg struct {
	list []changeset.Revision
	err  error
}

type pickModel struct {
	ctx     context.Context
	engine  *Engine
	tracker *Tracker
	sel     *selection.Selection
	cursor  int
	keys    keyMap

	target changeset.ComparisonTarget
	branch string
	path   textinput.Model
	// editing is set while the path prompt has focus.
	editing bool

	result  changeset.ChangeSet
	pending bool
	spinner spinner.Model

	watcher *fsnotify.Watcher
	reload  func(context.Context) ([]changeset.Revision, error)
	aborted bool
}

func newPickModel(ctx context.Context, e *Engine, list []changeset.Revision, opts PickOptions) pickModel {
	ti := textinput.New()
	ti.Prompt = "path: "
	ti.Placeholder = "all files"
	ti.CharLimit = 1024
	ti.SetValue(opts.Path)

	s := spinner.New()
	s.Spinner = spinner.Dot

	branch := opts.Branch
	if branch == "" && opts.Target.Kind() == changeset.TargetBranch {
		branch = opts.Target.Branch()
	}

	m := pickModel{
		ctx:     ctx,
		engine:  e,
		tracker: &Tracker{},
		sel:     selection.New(list),
		keys:    defaultKeyMap(),
		target:  opts.Target,
		branch:  branch,
		path:    ti,
		spinner: s,
		reload:  opts.Reload,
	}
	if len(list) > 0 {
		m.sel.SelectSingle(list[0].ID)
		m.pending = true
	}
	return m
}

func (m pickModel) Init() tea.Cmd {
	return tea.Batch(m.compute(m.tracker.Begin()), m.spinner.Tick, waitForRefs(m.watcher))
}

func (m pickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updatePath(msg)
		}
		return m.updateKeys(msg)

	case resultMsg:
		if !m.tracker.Current(msg.Ticket) {
			log.Tracef("picker: dropping stale result %d", msg.Ticket)
			return m, nil
		}
		m.result = msg.ChangeSet
		m.pending = false
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case refsChangedMsg:
		next := waitForRefs(m.watcher)
		if msg.reload && m.reload != nil {
			return m, tea.Batch(m.reloadList(), next)
		}
		if m.target.Kind() == changeset.TargetWorkingTree {
			return m, tea.Batch(m.recompute(), next)
		}
		return m, next

	case reloadedMsg:
		if msg.err != nil {
			log.WithError(msg.err).Warn("revision list reload failed")
			return m, nil
		}
		// Refresh drops the old selection. The cursor row becomes the new one.
		m.sel.Refresh(msg.list)
		m.cursor = min(m.cursor, max(len(msg.list)-1, 0))
		if len(msg.list) > 0 {
			m.sel.SelectSingle(msg.list[m.cursor].ID)
		}
		return m, m.recompute()
	}

	return m, nil
}

func (m pickModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.sel.List()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.aborted = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Accept):
		if m.sel.Len() > 0 {
			return m, tea.Quit
		}

	case key.Matches(msg, m.keys.Extend):
		if msg.String() == "shift+up" && m.cursor > 0 {
			m.cursor--
		} else if msg.String() == "shift+down" && m.cursor < len(list)-1 {
			m.cursor++
		}
		if len(list) > 0 && m.sel.ExtendRange(list[m.cursor].ID) {
			return m, m.recompute()
		}

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(list)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Single):
		if len(list) > 0 && m.sel.SelectSingle(list[m.cursor].ID) {
			return m, m.recompute()
		}

	case key.Matches(msg, m.keys.Toggle):
		if len(list) > 0 && m.sel.Toggle(list[m.cursor].ID) {
			return m, m.recompute()
		}

	case key.Matches(msg, m.keys.Target):
		m.target = m.nextTarget()
		return m, m.recompute()

	case key.Matches(msg, m.keys.Path):
		m.editing = true
		return m, m.path.Focus()
	}

	return m, nil
}

func (m pickModel) updatePath(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.editing = false
		m.path.Blur()
		return m, m.recompute()
	case tea.KeyEsc:
		m.editing = false
		m.path.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.path, cmd = m.path.Update(msg)
	return m, cmd
}

// nextTarget cycles prev, tree and, when a branch is known, the branch.
func (m pickModel) nextTarget() changeset.ComparisonTarget {
	switch m.target.Kind() {
	case changeset.TargetPrevious:
		return changeset.WorkingTree()
	case changeset.TargetWorkingTree:
		if m.branch != "" {
			return changeset.NamedBranch(m.branch)
		}
	}
	return changeset.PreviousRevision()
}

// recompute starts a computation for the live selection. The ticket is
// taken here, in Update, so ticket order matches user action order.
func (m *pickModel) recompute() tea.Cmd {
	ticket := m.tracker.Begin()
	if m.sel.Len() == 0 {
		m.result = changeset.ChangeSet{}
		m.pending = false
		return nil
	}
	m.pending = true
	return m.compute(ticket)
}

func (m pickModel) compute(ticket uint64) tea.Cmd {
	if m.sel.Len() == 0 {
		return nil
	}
	req := Request{
		Selection: m.sel.Snapshot(),
		Target:    m.target,
		Path:      strings.TrimSpace(m.path.Value()),
	}
	ctx, e := m.ctx, m.engine
	return func() tea.Msg {
		return resultMsg{Ticket: ticket, Request: req, ChangeSet: e.Compute(ctx, req)}
	}
}

func (m pickModel) reloadList() tea.Cmd {
	ctx, reload := m.ctx, m.reload
	return func() tea.Msg {
		list, err := reload(ctx)
		return reloadedMsg{list: list, err: err}
	}
}

func (m pickModel) View() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Select revisions to compare against %s:\n\n", m.target))

	for i, r := range m.sel.List() {
		cursor := " "
		if i == m.cursor {
			cursor = cursorStyle.Render(">")
		}
		mark := " "
		if m.sel.Contains(r.ID) {
			mark = selectedStyle.Render("x")
		}
		refs := ""
		if len(r.Refs) > 0 {
			refs = dimStyle.Render(" (" + strings.Join(r.Refs, ", ") + ")")
		}
		sb.WriteString(fmt.Sprintf("%s [%s] %s %s %s%s\n",
			cursor, mark, r.Short, r.Timestamp.Format("2006-01-02"), r.Message, refs))
	}

	sb.WriteString("\n" + m.path.View() + "\n\n")
	sb.WriteString(m.preview())
	sb.WriteString("\n" + dimStyle.Render(m.keys.help()) + "\n")
	return sb.String()
}

func (m pickModel) preview() string {
	switch {
	case m.pending:
		return m.spinner.View() + " computing\n"
	case m.result.Failed():
		return warnStyle.Render("warning: "+m.result.Warning.Error()) + "\n"
	case len(m.result.Records) == 0:
		return dimStyle.Render("no changes") + "\n"
	}

	var sb strings.Builder
	for i, r := range m.result.Records {
		if i == maxPreview {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("... %d more", len(m.result.Records)-maxPreview)) + "\n")
			break
		}
		sb.WriteString(fmt.Sprintf("%-9s %s %s %s\n",
			r.Status,
			addStyle.Render(fmt.Sprintf("+%-5d", r.Additions)),
			delStyle.Render(fmt.Sprintf("-%-5d", r.Deletions)),
			r.Path))
	}
	return sb.String()
}

// watchRefs watches the git dir and its branch refs.
func watchRefs(gitDir string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(gitDir); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Add(filepath.Join(gitDir, "refs", "heads")); err != nil {
		log.WithError(err).Debug("watchRefs: refs/heads not watched")
	}
	return w, nil
}

// waitForRefs blocks until a relevant change arrives. The model re-arms it
// after every message.
func waitForRefs(w *fsnotify.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if msg, ok := classifyEvent(ev); ok {
					return msg
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				log.WithError(err).Debug("waitForRefs")
			}
		}
	}
}

// classifyEvent ignores lock files and reports whether ev should reload
// the revision list or only refresh a working tree comparison.
func classifyEvent(ev fsnotify.Event) (refsChangedMsg, bool) {
	name := filepath.Base(ev.Name)
	if strings.HasSuffix(name, ".lock") || ev.Op == fsnotify.Chmod {
		return refsChangedMsg{}, false
	}
	if name == "index" {
		return refsChangedMsg{reload: false}, true
	}
	return refsChangedMsg{reload: true}, true
}
