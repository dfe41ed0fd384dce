package config

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/clubhub/internal/credential"
	"github.com/nhle/clubhub/internal/model"
	"github.com/nhle/clubhub/internal/theme"
)

// ConfigMode represents the current state of the connection view.
type ConfigMode int

const (
	ModeForm           ConfigMode = iota // Editing connection settings
	ModeValidating                       // Testing connection
	ModeValidateResult                   // Show validation result
)

// ConfigDoneMsg signals the view was cancelled without saving.
type ConfigDoneMsg struct{}

// ConfigSavedMsg signals that settings were validated and written.
type ConfigSavedMsg struct {
	Config    *model.AppConfig
	Principal string
}

// ValidateResultMsg carries the result of a connection attempt.
type ValidateResultMsg struct {
	Principal string
	Config    *model.AppConfig
	Err       error
}

// Validator checks that the backend at baseURL accepts token and returns
// the caller's principal.
type Validator func(ctx context.Context, baseURL, token string) (string, error)

const validateTimeout = 15 * time.Second

// formFields holds the values huh binds to. It lives behind a pointer so
// the bindings survive Model being copied.
type formFields struct {
	baseURL   string
	token     string
	driver    string
	redisAddr string
	interval  string
}

// Model is the Bubble Tea model for the connection settings form.
type Model struct {
	mode       ConfigMode
	cfg        model.AppConfig
	configPath string
	validate   Validator
	hasToken   bool

	form   *huh.Form
	fields *formFields

	validResult string
	validError  error
	saved       *model.AppConfig
	spinner     spinner.Model

	width, height int
}

// New creates a connection view editing a copy of cfg. hasToken reports
// whether a session token is already stored, which makes the token
// field optional.
func New(cfg *model.AppConfig, configPath string, validate Validator, hasToken bool, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		mode:       ModeForm,
		cfg:        *cfg,
		configPath: configPath,
		validate:   validate,
		hasToken:   hasToken,
		fields:     &formFields{},
		spinner:    sp,
		width:      width,
		height:     height,
	}
	m.resetFormFields()
	m.form = m.buildForm()
	return m
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Reset discards any previous attempt and starts a fresh form from the
// saved configuration.
func (m *Model) Reset() tea.Cmd {
	m.mode = ModeForm
	m.validError = nil
	m.validResult = ""
	m.saved = nil
	m.resetFormFields()
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ValidateResultMsg:
		m.validResult = msg.Principal
		m.validError = msg.Err
		m.saved = msg.Config
		m.mode = ModeValidateResult
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeValidating:
			// Only allow escape during validation
			if msg.String() == "esc" {
				return m.restartForm()
			}
			return m, nil
		case ModeValidateResult:
			return m.handleValidateResultKeys(msg)
		case ModeForm:
			if msg.String() == "esc" {
				return m, func() tea.Msg { return ConfigDoneMsg{} }
			}
		}
	}

	if m.mode == ModeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleValidateResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.validError == nil && m.saved != nil {
			saved, principal := m.saved, m.validResult
			return m, func() tea.Msg {
				return ConfigSavedMsg{Config: saved, Principal: principal}
			}
		}
		return m.restartForm()
	case "esc":
		if m.validError == nil {
			return m, func() tea.Msg { return ConfigDoneMsg{} }
		}
		return m.restartForm()
	case "r":
		if m.validError != nil {
			return m.submit()
		}
	}
	return m, nil
}

// --- Form ---

func (m *Model) buildForm() *huh.Form {
	tokenDesc := "Session token issued by the club backend"
	if m.hasToken {
		tokenDesc = "Leave empty to keep the stored token"
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Description("Root URL of the club backend (e.g., https://clubs.example.com)").
				Placeholder("https://clubs.example.com").
				Value(&m.fields.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Session Token").
				Description(tokenDesc).
				EchoMode(huh.EchoModePassword).
				Value(&m.fields.token).
				Validate(tokenValidator(m.hasToken)),
			huh.NewInput().
				Title("Poll Interval (seconds)").
				Value(&m.fields.interval).
				Validate(validatePositiveInt),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Read-State Storage").
				Description("Where read notifications are remembered").
				Options(
					huh.NewOption("SQLite - local file", model.ReadStateSQLite),
					huh.NewOption("Redis - shared across machines", model.ReadStateRedis),
					huh.NewOption("Memory - forget on exit", model.ReadStateMemory),
				).
				Value(&m.fields.driver),
			huh.NewInput().
				Title("Redis Address").
				Description("Only used with Redis storage").
				Placeholder("localhost:6379").
				Value(&m.fields.redisAddr),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.submit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return ConfigDoneMsg{} }
	}

	return m, cmd
}

// restartForm rebuilds the form with the values entered so far.
func (m Model) restartForm() (Model, tea.Cmd) {
	m.mode = ModeForm
	m.validError = nil
	m.validResult = ""
	m.form = m.buildForm()
	return m, m.form.Init()
}

func (m Model) submit() (Model, tea.Cmd) {
	cfg := m.applyFormFields()
	m.mode = ModeValidating
	return m, tea.Batch(
		m.spinner.Tick,
		m.validateAndSave(cfg, strings.TrimSpace(m.fields.token)),
	)
}

// applyFormFields returns a copy of the config with the form values set.
func (m Model) applyFormFields() *model.AppConfig {
	cfg := m.cfg
	cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(m.fields.baseURL), "/")
	cfg.ReadState.Driver = m.fields.driver
	if addr := strings.TrimSpace(m.fields.redisAddr); addr != "" {
		cfg.ReadState.RedisAddr = addr
	}
	if n, err := strconv.Atoi(strings.TrimSpace(m.fields.interval)); err == nil {
		cfg.PollIntervalSec = n
	}
	return &cfg
}

// validateAndSave tests the connection and, on success, persists the
// token and the configuration file.
func (m Model) validateAndSave(cfg *model.AppConfig, token string) tea.Cmd {
	validate := m.validate
	path := m.configPath
	return func() tea.Msg {
		if token == "" {
			stored, err := credential.SessionToken()
			if err != nil {
				return ValidateResultMsg{Err: fmt.Errorf("no session token: %w", err)}
			}
			token = stored
		}

		if err := cfg.Validate(); err != nil {
			return ValidateResultMsg{Err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
		defer cancel()

		var principal string
		if validate != nil {
			p, err := validate(ctx, cfg.Backend.BaseURL, token)
			if err != nil {
				return ValidateResultMsg{Err: err}
			}
			principal = p
		}

		if err := credential.SaveSessionToken(token); err != nil {
			return ValidateResultMsg{Err: fmt.Errorf("saving session token: %w", err)}
		}
		if err := model.SaveConfig(path, cfg); err != nil {
			return ValidateResultMsg{Err: err}
		}

		return ValidateResultMsg{Principal: principal, Config: cfg}
	}
}

// --- View ---

// View renders the connection UI based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeForm:
		return m.viewForm()
	case ModeValidating:
		return m.viewValidating()
	case ModeValidateResult:
		return m.viewValidateResult()
	default:
		return ""
	}
}

func (m Model) viewForm() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Backend Connection"),
		m.form.View(),
	)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m Model) viewValidating() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	content := fmt.Sprintf(
		"%s Testing connection...\n\nPress esc to cancel.",
		m.spinner.View(),
	)

	return style.Render(content)
}

func (m Model) viewValidateResult() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	hint := lipgloss.NewStyle().Foreground(theme.ColorGray)

	var content string
	if m.validError != nil {
		errStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorRed)
		content = errStyle.Render("Connection failed") + "\n\n" +
			m.validError.Error() + "\n\n" +
			hint.Render("r retry | enter edit | esc edit")
	} else {
		okStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorGreen)
		displayName := m.validResult
		if displayName == "" {
			displayName = "OK"
		}
		content = okStyle.Render("Connection saved") + "\n\n" +
			fmt.Sprintf("Authenticated as: %s", displayName) + "\n\n" +
			hint.Render("enter reconnect | esc back")
	}

	return style.Render(content)
}

// --- Helpers ---

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m *Model) resetFormFields() {
	m.fields.baseURL = m.cfg.Backend.BaseURL
	m.fields.token = "" // Never pre-fill credentials
	m.fields.driver = m.cfg.ReadState.Driver
	m.fields.redisAddr = m.cfg.ReadState.RedisAddr
	m.fields.interval = strconv.Itoa(m.cfg.PollIntervalSec)
}

// tokenValidator makes the token optional once one is stored.
func tokenValidator(hasToken bool) func(string) error {
	if hasToken {
		return func(string) error { return nil }
	}
	return validateRequired("Session token")
}

// validateRequired returns a validator that rejects empty strings.
func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// validateURL checks that s is an absolute http(s) URL.
func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

// validatePositiveInt checks that s is a whole number above zero.
func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if n <= 0 {
		return fmt.Errorf("must be greater than zero")
	}
	return nil
}
