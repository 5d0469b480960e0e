package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/ui/components"
)

type coursesLoadedMsg struct {
	items  []course.Course
	drafts map[string]bool
}

// CoursesModel is the course picker.
type CoursesModel struct {
	backend Backend
	journal DraftJournal
	vim     bool

	items   []course.Course
	drafts  map[string]bool
	list    *components.List
	loading bool

	width  int
	height int
}

// NewCoursesModel builds the picker. journal may be nil.
func NewCoursesModel(backend Backend, j DraftJournal, vim bool) CoursesModel {
	return CoursesModel{
		backend: backend,
		journal: j,
		vim:     vim,
		list:    components.NewList(12),
		loading: true,
	}
}

func (m CoursesModel) Init() tea.Cmd {
	backend := m.backend
	j := m.journal
	return func() tea.Msg {
		if backend == nil {
			return errMsg{fmt.Errorf("no server configured; run lectern login")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		items, err := backend.ListCourses(ctx)
		if err != nil {
			return errMsg{fmt.Errorf("list courses: %w", err)}
		}
		drafts := map[string]bool{}
		if j != nil {
			// a broken journal only costs the draft marks
			if entries, err := j.List(ctx); err == nil {
				for _, e := range entries {
					drafts[e.CourseID] = true
				}
			}
		}
		return coursesLoadedMsg{items: items, drafts: drafts}
	}
}

func (m CoursesModel) Update(msg tea.Msg) (CoursesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case coursesLoadedMsg:
		m.loading = false
		m.items = msg.items
		m.drafts = msg.drafts
		labels := make([]string, len(msg.items))
		for i, c := range msg.items {
			labels[i] = c.Title
		}
		m.list.Replace(labels)
		return m, nil
	case tea.KeyMsg:
		switch {
		case navUp(msg, m.vim):
			m.list.Up()
		case navDown(msg, m.vim):
			m.list.Down()
		case isKey(msg, "r"):
			m.loading = true
			return m, m.Init()
		case isEnter(msg):
			if c, ok := m.selected(); ok {
				id := c.ID
				return m, func() tea.Msg { return openCourseMsg{id: id} }
			}
		}
	}
	return m, nil
}

func (m CoursesModel) selected() (course.Course, bool) {
	if len(m.items) == 0 {
		return course.Course{}, false
	}
	idx := m.list.Selected()
	if idx < 0 || idx >= len(m.items) {
		return course.Course{}, false
	}
	return m.items[idx], true
}

func (m CoursesModel) View() string {
	if m.loading {
		return components.Indent(components.Box(MutedStyle.Render("Loading courses..."), m.width), 1)
	}
	if len(m.items) == 0 {
		body := MutedStyle.Render("No courses on this server.") + "\n\n" +
			MutedStyle.Render("Create one with the web app, or run `lectern serve` for a demo course.")
		return components.Indent(components.TitledBox("Courses", body, m.width), 1)
	}

	contentWidth := components.BoxContentWidth(m.width)
	if contentWidth <= 0 {
		contentWidth = 72
	}
	statusWidth := 11
	markWidth := 1
	titleWidth := contentWidth - statusWidth - markWidth - 8
	if titleWidth < 12 {
		titleWidth = 12
	}
	cols := []components.TableColumn{
		{Header: "", Width: markWidth, Align: lipgloss.Center},
		{Header: "Title", Width: titleWidth},
		{Header: "Status", Width: statusWidth},
	}

	visible := m.list.Visible()
	rows := make([][]string, 0, len(visible))
	active := -1
	for rel := range visible {
		abs := m.list.RelToAbs(rel)
		c := m.items[abs]
		mark := ""
		if m.drafts[c.ID] {
			mark = components.DraftMark
		}
		status := c.Status
		if status == "" {
			status = course.StatusDraft
		}
		rows = append(rows, []string{mark, c.Title, status})
		if m.list.IsSelected(abs) {
			active = rel
		}
	}

	body := components.TableGridWithActiveRow(cols, rows, contentWidth, active)
	if len(m.drafts) > 0 {
		body += "\n\n" + MutedStyle.Render(components.DraftMark+" has an autosaved draft")
	}
	title := fmt.Sprintf("Courses (%d)", len(m.items))
	return components.Indent(components.TitledBox(title, strings.TrimRight(body, "\n"), m.width), 1)
}
