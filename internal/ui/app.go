package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gravitrone/lectern/internal/config"
	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/draft"
	"github.com/gravitrone/lectern/internal/journal"
	"github.com/gravitrone/lectern/internal/logger"
	"github.com/gravitrone/lectern/internal/ui/components"
)

// --- Screens ---

type screen int

const (
	screenCourses screen = iota
	screenEditor
)

// leaveTarget is where the user wants to go when the leave guard fires.
type leaveTarget int

const (
	leaveQuit leaveTarget = iota
	leaveCourses
)

const (
	loadTimeout   = 15 * time.Second
	healthTimeout = 2 * time.Second
	bannerMinCols = 92
)

// --- Messages ---

type errMsg struct{ err error }
type clearToastMsg struct{}
type startupCheckedMsg struct {
	version string
	err     error
}
type openCourseMsg struct{ id string }
type sessionOpenedMsg struct{ sess *draft.Session }
type guardResolvedMsg struct {
	target  leaveTarget
	choice  draft.Choice
	proceed bool
	err     error
}

type appToast struct {
	level string
	text  string
}

// Backend is the content server as the TUI sees it.
type Backend interface {
	draft.ContentService
	ListCourses(ctx context.Context) ([]course.Course, error)
	Health(ctx context.Context) (string, error)
}

// DraftJournal is the autosave store; List marks courses with unsaved work.
type DraftJournal interface {
	draft.Journal
	List(ctx context.Context) ([]journal.Entry, error)
}

// Options configure NewApp. Backend is required.
type Options struct {
	Backend  Backend
	Config   *config.Config
	Journal  DraftJournal
	Logger   *logger.Logger
	Media    func(path string) string
	CourseID string
}

// --- App Model ---

// App is the root TUI model that routes between the course picker and the
// editor.
type App struct {
	backend Backend
	config  *config.Config
	journal DraftJournal
	log     *logger.Logger
	media   func(string) string

	screen   screen
	width    int
	height   int
	err      string
	helpOpen bool
	toast    *appToast
	server   string
	openID   string

	guardOpen   bool
	guardTarget leaveTarget

	courses CoursesModel
	editor  EditorModel
}

// NewApp creates the root application model. With CourseID set it opens that
// course directly.
func NewApp(opts Options) App {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	vim := opts.Config != nil && opts.Config.VimKeys
	return App{
		backend: opts.Backend,
		config:  opts.Config,
		journal: opts.Journal,
		log:     log,
		media:   opts.Media,
		screen:  screenCourses,
		openID:  strings.TrimSpace(opts.CourseID),
		courses: NewCoursesModel(opts.Backend, opts.Journal, vim),
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.runStartupCheckCmd()}
	if a.openID != "" {
		cmds = append(cmds, a.openCourseCmd(a.openID))
	} else {
		cmds = append(cmds, a.courses.Init())
	}
	return tea.Batch(cmds...)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.courses.width = msg.Width
		a.courses.height = msg.Height
		a.editor.width = msg.Width
		a.editor.height = msg.Height
		return a, nil

	case errMsg:
		a.err = msg.err.Error()
		a.courses.loading = false
		return a, nil
	case clearToastMsg:
		a.toast = nil
		return a, nil
	case startupCheckedMsg:
		if msg.err != nil {
			return a, a.setToast("warning", "server unreachable: "+msg.err.Error())
		}
		a.server = msg.version
		return a, nil

	case openCourseMsg:
		return a, a.openCourseCmd(msg.id)
	case sessionOpenedMsg:
		a.editor = NewEditorModel(msg.sess, a.log, a.courses.vim)
		a.editor.width = a.width
		a.editor.height = a.height
		a.screen = screenEditor
		a.log.Info("course opened", "course_id", msg.sess.Store().CourseID())
		return a, nil
	case committedMsg:
		a.editor = a.editor.finishCommit(msg)
		if msg.err != nil {
			a.err = describeError(msg.err)
			return a, nil
		}
		return a, a.setToast("success", commitToast(msg))
	case guardResolvedMsg:
		return a.finishLeave(msg)

	case tea.KeyMsg:
		if a.guardOpen {
			return a.handleGuardKeys(msg)
		}
		if a.helpOpen {
			if isBack(msg) || isHelp(msg) {
				a.helpOpen = false
			}
			return a, nil
		}
		if a.err != "" {
			a.err = ""
		}
		if a.screen == screenEditor && a.editor.saving {
			if isQuit(msg) {
				return a, a.setToast("info", "wait for the save to finish")
			}
			return a, nil
		}

		capturing := a.screen == screenEditor && a.editor.capturing()
		if !capturing {
			if isHelp(msg) {
				a.helpOpen = true
				return a, nil
			}
			if isQuit(msg) {
				return a.requestLeave(leaveQuit)
			}
			if a.screen == screenEditor && isBack(msg) && a.editor.view == editorOutline {
				return a.requestLeave(leaveCourses)
			}
		}
	}

	var cmd tea.Cmd
	switch a.screen {
	case screenCourses:
		a.courses, cmd = a.courses.Update(msg)
	case screenEditor:
		a.editor, cmd = a.editor.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	banner := compactBanner()
	if a.width == 0 || a.width >= bannerMinCols {
		banner = RenderBanner()
	}
	banner = centerBlockUniform(banner, a.width)

	var content string
	switch a.screen {
	case screenCourses:
		content = a.courses.View()
	case screenEditor:
		content = a.editor.View()
	}

	if a.guardOpen {
		content = a.renderLeaveGuard()
	} else if a.helpOpen {
		content = a.renderHelp()
	}
	content = centerBlockUniform(content, a.width)

	hints := components.StatusBar(a.statusHints(), a.width)

	feedback := ""
	if a.err != "" {
		feedback = "\n\n" + centerBlockUniform(components.ErrorBox("Error", a.err, a.width), a.width)
	} else if a.toast != nil {
		feedback = "\n\n" + centerBlockUniform(a.renderToast(), a.width)
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n\n\n%s%s", banner, a.renderBreadcrumb(), content, hints, feedback)
}

// --- Navigation ---

func (a App) openCourseCmd(id string) tea.Cmd {
	backend := a.backend
	opts := draft.Options{
		Media:  a.media,
		Logger: a.log,
	}
	if a.journal != nil {
		opts.Journal = a.journal
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		sess, err := draft.Open(ctx, backend, id, opts)
		if err != nil {
			return errMsg{err}
		}
		return sessionOpenedMsg{sess: sess}
	}
}

// requestLeave runs the leave guard: clean editors (and the course picker)
// leave at once, dirty ones ask first.
func (a App) requestLeave(target leaveTarget) (tea.Model, tea.Cmd) {
	if a.screen != screenEditor || a.editor.sess == nil || a.editor.sess.Guard().Check() {
		return a.leave(target)
	}
	a.guardOpen = true
	a.guardTarget = target
	return a, nil
}

func (a App) handleGuardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case isKey(msg, "s"):
		a.guardOpen = false
		a.editor.saving = true
		return a, resolveGuardCmd(a.editor.sess, a.guardTarget, draft.ChoiceSave)
	case isKey(msg, "d"):
		a.guardOpen = false
		a.editor.saving = true
		return a, resolveGuardCmd(a.editor.sess, a.guardTarget, draft.ChoiceDiscard)
	case isKey(msg, "c"), isBack(msg):
		a.guardOpen = false
		proceed, err := a.editor.sess.Guard().Resolve(context.Background(), draft.ChoiceCancel)
		return a.finishLeave(guardResolvedMsg{target: a.guardTarget, choice: draft.ChoiceCancel, proceed: proceed, err: err})
	}
	return a, nil
}

func resolveGuardCmd(sess *draft.Session, target leaveTarget, choice draft.Choice) tea.Cmd {
	return func() tea.Msg {
		proceed, err := sess.Guard().Resolve(context.Background(), choice)
		return guardResolvedMsg{target: target, choice: choice, proceed: proceed, err: err}
	}
}

func (a App) finishLeave(msg guardResolvedMsg) (tea.Model, tea.Cmd) {
	a.editor.saving = false
	if a.editor.sess != nil {
		a.editor.refresh()
	}
	if msg.err != nil {
		a.err = fmt.Sprintf("%s failed: %s", msg.choice, describeError(msg.err))
		return a, nil
	}
	if !msg.proceed {
		return a, nil
	}
	a.log.Info("leaving editor", "choice", msg.choice.String())
	return a.leave(msg.target)
}

func (a App) leave(target leaveTarget) (tea.Model, tea.Cmd) {
	if target == leaveQuit {
		return a, tea.Quit
	}
	a.editor = EditorModel{}
	a.screen = screenCourses
	a.courses.loading = true
	return a, a.courses.Init()
}

// --- Rendering ---

func (a App) renderBreadcrumb() string {
	parts := []string{MutedStyle.Render("courses")}
	if a.screen == screenEditor && a.editor.sess != nil {
		parts = append(parts, SelectedStyle.Render(components.ClampTextWidth(a.editor.snapshot.Title, 40)))
		if a.editor.view == editorItem {
			if it, ok := a.editor.currentItem(); ok {
				parts = append(parts, NormalStyle.Render(components.ClampTextWidth(it.Title, 30)))
			}
		}
	}
	line := strings.Join(parts, MutedStyle.Render(" › "))
	if a.config != nil {
		where := a.config.Server()
		if a.server != "" {
			where += " (" + a.server + ")"
		}
		line += MutedStyle.Render("   " + where)
	}
	return centerBlock(line, a.width)
}

func (a App) renderLeaveGuard() string {
	body := "This course has unsaved changes."
	if a.guardTarget == leaveQuit {
		body += "\nSave them before quitting?"
	} else {
		body += "\nSave them before closing the course?"
	}
	return components.Indent(components.ChoiceDialog("Unsaved changes", body, []string{"s: save", "d: discard", "c: cancel"}), 1)
}

func (a App) renderHelp() string {
	hints := a.helpLines()
	lines := make([]string, 0, len(hints)+2)
	lines = append(lines, MutedStyle.Render("esc to close"))
	lines = append(lines, "")
	for _, hint := range hints {
		lines = append(lines, "  "+hint)
	}
	return components.Indent(components.TitledBox("Help", strings.Join(lines, "\n"), a.width), 1)
}

func (a App) helpLines() []string {
	if a.screen == screenCourses {
		return []string{
			"↑/↓    select course",
			"enter  open course",
			"r      refresh",
			"q      quit",
		}
	}
	if a.editor.view == editorItem {
		return itemHelp(a.editor.currentKind())
	}
	return []string{
		"↑/↓        select row",
		"enter      open item",
		"t          new topic",
		"l / z      new lesson / quiz in topic",
		"r          rename",
		"d          delete",
		"K / J      move up / down",
		"T          course title",
		"C          certificate template",
		"ctrl+s     save draft",
		"P          save and publish",
		"u          discard changes",
		"esc        back to courses",
	}
}

func (a App) statusHints() []string {
	switch {
	case a.guardOpen:
		return []string{components.Hint("s", "Save"), components.Hint("d", "Discard"), components.Hint("c", "Cancel")}
	case a.helpOpen:
		return []string{components.Hint("esc", "Close")}
	case a.screen == screenCourses:
		return []string{
			components.Hint("↑/↓", "Select"),
			components.Hint("enter", "Open"),
			components.Hint("r", "Refresh"),
			components.Hint("?", "Help"),
			components.Hint("q", "Quit"),
		}
	}
	return a.editor.statusHints()
}

func (a App) runStartupCheckCmd() tea.Cmd {
	backend := a.backend
	return func() tea.Msg {
		if backend == nil {
			return startupCheckedMsg{err: fmt.Errorf("no server configured; run lectern login")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()
		version, err := backend.Health(ctx)
		return startupCheckedMsg{version: version, err: err}
	}
}

func (a *App) setToast(level, text string) tea.Cmd {
	a.toast = &appToast{
		level: level,
		text:  components.SanitizeOneLine(text),
	}
	return tea.Tick(2500*time.Millisecond, func(time.Time) tea.Msg {
		return clearToastMsg{}
	})
}

func (a App) renderToast() string {
	if a.toast == nil {
		return ""
	}
	title := "Info"
	switch a.toast.level {
	case "success":
		title = "Success"
	case "warning":
		title = "Warning"
	case "error":
		return components.ErrorBox("Error", a.toast.text, a.width)
	}
	return components.TitledBox(title, a.toast.text, a.width)
}

func centerBlock(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lineWidth := lipgloss.Width(line)
		if lineWidth >= width {
			continue
		}
		pad := (width - lineWidth) / 2
		lines[i] = strings.Repeat(" ", pad) + line
	}
	return strings.Join(lines, "\n")
}

func centerBlockUniform(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	maxWidth := 0
	for _, line := range lines {
		w := lipgloss.Width(line)
		if w > maxWidth {
			maxWidth = w
		}
	}
	if maxWidth <= 0 || maxWidth >= width {
		return s
	}
	pad := (width - maxWidth) / 2
	if pad <= 0 {
		return s
	}
	prefix := strings.Repeat(" ", pad)
	for i := range lines {
		if lines[i] != "" {
			lines[i] = prefix + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
