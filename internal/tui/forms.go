package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/bookreview-cli/internal/auth"
	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/mutation"
	"github.com/glabrego/bookreview-cli/internal/preview"
	"github.com/glabrego/bookreview-cli/internal/tui/actions"
	"github.com/glabrego/bookreview-cli/internal/tui/view"
	"github.com/glabrego/bookreview-cli/internal/upload"
	"github.com/glabrego/bookreview-cli/internal/validation"
)

type formKind int

const (
	formLogin formKind = iota
	formSignup
	formNew
	formEdit
	formProfile
)

type formField struct {
	key    string
	label  string
	value  string
	secret bool
	err    string
}

type form struct {
	kind       formKind
	fields     []formField
	focus      int
	err        string
	submitting bool

	edit    *mutation.EditSession
	editNav *actions.RouteRecorder

	slot   *preview.Slot
	avatar *upload.File
}

func newForm(kind formKind) *form {
	f := &form{kind: kind}
	switch kind {
	case formLogin:
		f.fields = []formField{{key: "email", label: "Email"}, {key: "password", label: "Password", secret: true}}
	case formSignup:
		f.fields = []formField{
			{key: "name", label: "Name"},
			{key: "email", label: "Email"},
			{key: "password", label: "Password", secret: true},
			{key: "avatar", label: "Avatar path"},
		}
	case formNew, formEdit:
		f.fields = []formField{
			{key: "title", label: "Title"},
			{key: "url", label: "URL"},
			{key: "detail", label: "Detail"},
			{key: "review", label: "Review"},
		}
	case formProfile:
		f.fields = []formField{{key: "name", label: "Name"}, {key: "avatar", label: "Avatar path"}}
	}
	return f
}

func (f *form) title() string {
	switch f.kind {
	case formLogin:
		return "Log in"
	case formSignup:
		return "Sign up"
	case formNew:
		return "New review"
	case formEdit:
		return "Edit review"
	default:
		return "Profile"
	}
}

func (f *form) value(key string) string {
	for _, fld := range f.fields {
		if fld.key == key {
			return fld.value
		}
	}
	return ""
}

func (f *form) setValue(key, value string) {
	for i := range f.fields {
		if f.fields[i].key == key {
			f.fields[i].value = value
		}
	}
}

func (f *form) hasAvatar() bool {
	return f.kind == formSignup || f.kind == formProfile
}

func (f *form) clearErrors() {
	f.err = ""
	for i := range f.fields {
		f.fields[i].err = ""
	}
}

// setErrors places field failures next to their fields. Anything that does
// not map to a field becomes the form message.
func (f *form) setErrors(err error, fallback string) {
	f.clearErrors()
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		matched := false
		for i := range f.fields {
			if msg := vErr.Field(f.fields[i].key); msg != "" {
				f.fields[i].err = msg
				matched = true
			}
		}
		if !matched {
			f.err = vErr.Error()
		}
		return
	}
	var failure *mutation.Failure
	if errors.As(err, &failure) {
		f.err = failure.Message
		return
	}
	f.err = bookreview.Describe(err, fallback)
}

func (f *form) viewFields() []view.FormField {
	out := make([]view.FormField, len(f.fields))
	for i, fld := range f.fields {
		out[i] = view.FormField{Label: fld.label, Value: fld.value, Secret: fld.secret, Error: fld.err}
	}
	return out
}

func (f *form) reviewDraft() mutation.ReviewDraft {
	return mutation.ReviewDraft{
		Title:  f.value("title"),
		URL:    f.value("url"),
		Detail: f.value("detail"),
		Review: f.value("review"),
	}
}

func (m *Model) openForm(kind formKind) {
	m.form = newForm(kind)
	if m.form.hasAvatar() && m.service != nil {
		m.form.slot = m.service.NewPreviewSlot()
	}
	m.preview = view.InlineImagePreviewState{}
	m.previewKey = ""
}

// closeForm drops the form and releases its preview file.
func (m *Model) closeForm() {
	if m.form == nil {
		return
	}
	if m.form.slot != nil {
		m.form.slot.Close()
	}
	m.form = nil
	m.preview = view.InlineImagePreviewState{}
	m.previewKey = ""
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.String() {
	case "esc":
		return m.back()
	case "tab", "down":
		f.focus = (f.focus + 1) % len(f.fields)
		return m, nil
	case "shift+tab", "up":
		f.focus = (f.focus + len(f.fields) - 1) % len(f.fields)
		return m, nil
	case "backspace":
		fld := &f.fields[f.focus]
		if r := []rune(fld.value); len(r) > 0 {
			fld.value = string(r[:len(r)-1])
		}
		return m, nil
	case "ctrl+u":
		f.fields[f.focus].value = ""
		return m, nil
	case "ctrl+o":
		return m.loadAvatar()
	case "enter", "ctrl+s":
		return m.submitForm()
	}
	switch msg.Type {
	case tea.KeyRunes:
		f.fields[f.focus].value += string(msg.Runes)
	case tea.KeySpace:
		f.fields[f.focus].value += " "
	}
	return m, nil
}

// loadAvatar reads the file named in the avatar field and shows it. The
// previous preview file is released by the slot.
func (m Model) loadAvatar() (tea.Model, tea.Cmd) {
	f := m.form
	if !f.hasAvatar() || f.slot == nil {
		return m, nil
	}
	f.clearErrors()
	path := strings.TrimSpace(f.value("avatar"))
	if path == "" {
		f.avatar = nil
		_, _ = f.slot.Select(nil)
		m.preview = view.InlineImagePreviewState{}
		m.previewKey = ""
		return m, nil
	}

	file, err := m.service.OpenAvatar(path)
	if err != nil {
		f.err = err.Error()
		return m, nil
	}
	handle, err := f.slot.Select(&file)
	if errors.Is(err, preview.ErrClosed) {
		// a finished sign-up attempt closed the old slot
		f.slot = m.service.NewPreviewSlot()
		handle, err = f.slot.Select(&file)
	}
	if err != nil {
		f.err = err.Error()
		return m, nil
	}
	f.avatar = &file
	m.previewKey = handle.Path
	m.preview = view.InlineImagePreviewState{Enabled: true, Loading: true}
	return m, actions.PreviewFileCmd(handle.Path, handle.Path, m.contentWidth()/2, m.renderImageFn)
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	if f.submitting {
		return m, nil
	}
	f.clearErrors()

	var cmd tea.Cmd
	switch f.kind {
	case formLogin:
		cmd = actions.SignInCmd(m.service, auth.Credentials{
			Email:    f.value("email"),
			Password: f.value("password"),
		})
	case formSignup:
		cmd = actions.SignUpCmd(m.service, auth.SignUpForm{
			Name:     f.value("name"),
			Email:    f.value("email"),
			Password: f.value("password"),
			Avatar:   f.avatar,
		}, f.slot)
	case formNew:
		cmd = actions.CreateCmd(m.service, f.reviewDraft())
	case formEdit:
		if f.edit == nil {
			f.err = mutation.ErrNotLoaded.Error()
			return m, nil
		}
		cmd = actions.SubmitEditCmd(f.edit, f.editNav, f.reviewDraft())
	case formProfile:
		cmd = actions.UpdateProfileCmd(m.service, mutation.ProfileDraft{
			Name:   f.value("name"),
			Avatar: f.avatar,
		})
	}
	f.submitting = true
	m.loading = true
	return m, cmd
}

func (m Model) applyFormError(err error, fallback string) (tea.Model, tea.Cmd) {
	m.loading = false
	if m.form == nil {
		m.err = err
		return m, nil
	}
	m.form.submitting = false
	m.form.setErrors(err, fallback)
	return m, nil
}

func (m Model) applyEditLoaded(msg actions.EditLoadedMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if f == nil || f.kind != formEdit || msg.Session == nil || msg.Session.ID() != m.history.Current().ID {
		return m, nil
	}
	m.loading = false
	if msg.Err != nil {
		f.setErrors(msg.Err, "failed to load the review")
		return m, nil
	}
	f.edit = msg.Session
	f.editNav = msg.Nav
	f.setValue("title", msg.Draft.Title)
	f.setValue("url", msg.Draft.URL)
	f.setValue("detail", msg.Draft.Detail)
	f.setValue("review", msg.Draft.Review)
	return m, nil
}
