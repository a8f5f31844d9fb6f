package wizard

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const title = "schemahead init"

// New creates a wizard that writes its files under dir. schemaDir pre-fills
// the schema directory prompt; empty means "database".
func New(dir string, force bool, schemaDir string) WizardModel {
	if schemaDir == "" {
		schemaDir = "database"
	}
	return WizardModel{
		state:  StateWelcome,
		dir:    dir,
		force:  force,
		env:    EnvironmentInput{SchemaDir: schemaDir},
		errors: make(map[string]string),
		inputs: []textinput.Model{},
	}
}

// Init initializes the wizard (Bubble Tea Init)
func (m WizardModel) Init() tea.Cmd {
	return nil
}

// Update handles state transitions (Bubble Tea Update)
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			// Typed as text while editing connection details.
			if m.state == StateConnectionDetails {
				return m.handleTextInput(msg)
			}
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			return m.handleUp()

		case "down":
			return m.handleDown()

		case "tab":
			return m.handleTab()

		default:
			return m.handleTextInput(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case connectionTestResultMsg:
		m.testingConnection = false
		if msg.err != nil {
			m.connectionError = msg.err
			m.connectionTestResult = "failed"
		} else {
			m.connectionTestResult = "success"
			m.connectionError = nil
		}
		return m, nil

	case fileCreationResultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = StateError
			return m, nil
		}
		m.result = msg.result
		m.state = StateDone
		return m, nil
	}

	return m, nil
}

// View renders the wizard UI (Bubble Tea View)
func (m WizardModel) View() string {
	switch m.state {
	case StateWelcome:
		return m.renderWelcome()
	case StateHeadStore:
		return m.renderHeadStore()
	case StateConnectionDetails:
		return m.renderConnectionDetails()
	case StateTestConnection:
		return m.renderTestConnection()
	case StateSummary:
		return m.renderSummary()
	case StateCreating:
		return m.renderCreating()
	case StateDone:
		return m.renderDone()
	case StateError:
		return m.renderError()
	default:
		return "Unknown state"
	}
}

// State transition handlers

func (m WizardModel) handleEnter() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateWelcome:
		m.state = StateHeadStore
		return m, nil

	case StateHeadStore:
		option := HeadStoreOptions[m.storeIndex]
		m.env.HeadStore = option.ID
		m.env.Dialect = option.Dialect
		m.state = StateConnectionDetails
		m.initializeInputs()
		return m, nil

	case StateConnectionDetails:
		if err := m.collectInputValues(); err != nil {
			return m, nil
		}
		m.state = StateTestConnection
		m.testingConnection = true
		return m, m.testConnection()

	case StateTestConnection:
		switch m.connectionTestResult {
		case "success":
			m.state = StateSummary
			return m, nil
		case "failed":
			switch m.retryChoice {
			case 0: // Retry
				m.connectionTestResult = ""
				m.connectionError = nil
				m.testingConnection = true
				return m, m.testConnection()
			case 1: // Edit
				m.state = StateConnectionDetails
				m.connectionTestResult = ""
				m.connectionError = nil
				m.retryChoice = 0
				return m, nil
			case 2: // Save anyway
				m.state = StateSummary
				m.retryChoice = 0
				return m, nil
			case 3: // Quit
				return m, tea.Quit
			}
		}
		return m, nil

	case StateSummary:
		m.state = StateCreating
		return m, m.createFiles()

	case StateDone, StateError:
		return m, tea.Quit
	}

	return m, nil
}

func (m WizardModel) handleUp() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateHeadStore:
		if m.storeIndex > 0 {
			m.storeIndex--
		}
	case StateConnectionDetails:
		if m.focusIndex > 0 {
			m.focusIndex--
			m.updateInputFocus()
		}
	case StateTestConnection:
		if m.connectionTestResult == "failed" && m.retryChoice > 0 {
			m.retryChoice--
		}
	}
	return m, nil
}

func (m WizardModel) handleDown() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateHeadStore:
		if m.storeIndex < len(HeadStoreOptions)-1 {
			m.storeIndex++
		}
	case StateConnectionDetails:
		if m.focusIndex < len(m.inputs)-1 {
			m.focusIndex++
			m.updateInputFocus()
		}
	case StateTestConnection:
		if m.connectionTestResult == "failed" && m.retryChoice < 3 {
			m.retryChoice++
		}
	}
	return m, nil
}

func (m WizardModel) handleTab() (tea.Model, tea.Cmd) {
	if m.state == StateConnectionDetails && len(m.inputs) > 0 {
		m.focusIndex = (m.focusIndex + 1) % len(m.inputs)
		m.updateInputFocus()
	}
	return m, nil
}

func (m WizardModel) handleTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == StateConnectionDetails && len(m.inputs) > 0 {
		var cmd tea.Cmd
		m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
		return m, cmd
	}
	return m, nil
}

// Input management

func (m *WizardModel) initializeInputs() {
	m.focusIndex = 0
	m.inputs = []textinput.Model{
		m.makeInput("Environment name", "development", false),
		m.makeInput("Schema directory", m.env.SchemaDir, false),
	}

	switch m.env.Dialect {
	case "":
		m.inputs = append(m.inputs,
			m.makeInput("GraphQL endpoint", "http://localhost:4466", false),
			m.makeInput("Token", "", true),
		)
	case "postgres":
		m.inputs = append(m.inputs,
			m.makeInput("Database URL", "postgres://localhost:5432/app?sslmode=disable", false),
		)
	case "sqlite":
		m.inputs = append(m.inputs,
			m.makeInput("Database file path", "file:schemahead.db", false),
		)
	case "libsql":
		m.inputs = append(m.inputs,
			m.makeInput("Database URL", "libsql://[name]-[org].turso.io?authToken=", false),
		)
	}

	m.inputs[0].Focus()
}

func (m *WizardModel) makeInput(placeholder, value string, isPassword bool) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.SetValue(value)
	if isPassword {
		input.EchoMode = textinput.EchoPassword
		input.EchoCharacter = '*'
	}
	return input
}

func (m *WizardModel) updateInputFocus() {
	for i := range m.inputs {
		if i == m.focusIndex {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *WizardModel) collectInputValues() error {
	m.errors = make(map[string]string)

	want := 3
	if m.env.HeadStore == "graphql" {
		want = 4
	}
	if len(m.inputs) < want {
		return fmt.Errorf("not enough inputs")
	}

	m.env.Name = strings.TrimSpace(m.inputs[0].Value())
	m.env.SchemaDir = strings.TrimSpace(m.inputs[1].Value())

	if err := ValidateEnvironmentName(m.env.Name); err != nil {
		m.errors["name"] = err.Error()
		return err
	}

	if m.env.HeadStore == "graphql" {
		m.env.Endpoint = strings.TrimSpace(m.inputs[2].Value())
		m.env.Token = m.inputs[3].Value()
		if err := ValidateEndpoint(m.env.Endpoint); err != nil {
			m.errors["endpoint"] = err.Error()
			return err
		}
		return nil
	}

	m.env.DatabaseURL = strings.TrimSpace(m.inputs[2].Value())
	if err := ValidateConnectionString(m.env.DatabaseURL, m.env.Dialect); err != nil {
		m.errors["database_url"] = err.Error()
		return err
	}
	return nil
}

// Message types for async operations

type connectionTestResultMsg struct {
	err error
}

func (m WizardModel) testConnection() tea.Cmd {
	env := m.env
	return func() tea.Msg {
		return connectionTestResultMsg{err: TestConnection(env)}
	}
}

type fileCreationResultMsg struct {
	result *InitResult
	err    error
}

func (m WizardModel) createFiles() tea.Cmd {
	dir, env, force := m.dir, m.env, m.force
	return func() tea.Msg {
		result, err := GenerateFiles(dir, env, force)
		return fileCreationResultMsg{result: result, err: err}
	}
}

// View renderers

func (m WizardModel) storeLabel() string {
	for _, option := range HeadStoreOptions {
		if option.ID == m.env.HeadStore && option.Dialect == m.env.Dialect {
			return option.Icon + " " + option.DisplayName
		}
	}
	return m.env.HeadStore
}

func (m WizardModel) renderWelcome() string {
	var b strings.Builder

	b.WriteString(renderHeader(title))
	b.WriteString("\n\n")
	b.WriteString("Welcome! Let's set up schemahead for your project.\n\n")
	b.WriteString(renderInfo("This wizard will:\n" +
		"  • Choose where the deployed head is recorded\n" +
		"  • Create the schema and migrations directories\n" +
		"  • Write schemahead.toml and an .env file for credentials"))
	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("Press Enter to continue, q to quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderHeadStore() string {
	var b strings.Builder

	b.WriteString(renderHeader(title))
	b.WriteString("\n\n")
	b.WriteString(renderSectionHeader("Head Store"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Where should schemahead record the deployed migration?"))
	b.WriteString("\n\n")

	for i, option := range HeadStoreOptions {
		line := fmt.Sprintf("%d. %s %s (%s)", i+1, option.Icon, option.DisplayName, option.Description)
		b.WriteString(renderOption(i == m.storeIndex, line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderInfo("The GraphQL store uses the same server your\nmigrations are deployed to."))
	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("↑/↓: navigate  Enter: select  q: quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderConnectionDetails() string {
	var b strings.Builder

	b.WriteString(renderHeader(title))
	b.WriteString("\n\n")
	b.WriteString(renderSectionHeader("Connection Details"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Head store: %s\n\n", m.storeLabel()))

	for i, input := range m.inputs {
		label := input.Placeholder
		if i == m.focusIndex {
			b.WriteString(selectedStyle.Render(iconArrow + " " + label + ":"))
		} else {
			b.WriteString(labelStyle.Render("  " + label + ":"))
		}
		b.WriteString("\n  ")
		b.WriteString(input.View())
		b.WriteString("\n\n")
	}

	for _, key := range []string{"name", "endpoint", "database_url"} {
		if msg, ok := m.errors[key]; ok {
			b.WriteString(renderError(msg))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(renderStatusBar("↑/↓ or Tab: navigate  Enter: test connection  ctrl+c: quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderTestConnection() string {
	var b strings.Builder

	b.WriteString(renderHeader(title))
	b.WriteString("\n\n")
	b.WriteString(renderSectionHeader("Testing Connection"))
	b.WriteString("\n\n")

	switch {
	case m.testingConnection:
		b.WriteString(infoStyle.Render(iconSpinner + " Testing connection..."))
	case m.connectionTestResult == "success":
		b.WriteString(renderSuccess("Connection successful!"))
		b.WriteString("\n\n")
		b.WriteString("Head store reachable for: " + m.env.Name)
	case m.connectionTestResult == "failed":
		b.WriteString(renderError("Connection failed"))
		b.WriteString("\n\n")
		if m.connectionError != nil {
			b.WriteString(errorStyle.Render("Error: " + m.connectionError.Error()))
		}
		b.WriteString("\n\n")
		b.WriteString("What would you like to do?\n\n")
		for i, choice := range []string{"Retry connection", "Edit connection details", "Save configuration anyway", "Quit wizard"} {
			b.WriteString(renderOption(m.retryChoice == i, choice))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	if m.connectionTestResult == "failed" {
		b.WriteString(renderStatusBar("↑/↓: navigate  Enter: select  q: quit"))
	} else {
		b.WriteString(renderStatusBar("Press Enter to continue"))
	}

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderSummary() string {
	var b strings.Builder

	b.WriteString(renderHeader(title))
	b.WriteString("\n\n")
	b.WriteString(renderSectionHeader("Summary"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Environment: %s\n", m.env.Name))
	b.WriteString(fmt.Sprintf("Head store:  %s\n", m.storeLabel()))
	b.WriteString("\n")
	b.WriteString("This will create:\n")
	b.WriteString("  • schemahead.toml\n")
	b.WriteString(fmt.Sprintf("  • .env.%s\n", m.env.Name))
	b.WriteString(fmt.Sprintf("  • %s/migrations/\n", m.env.SchemaDir))
	b.WriteString("  • Update .gitignore\n")

	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("Press Enter to create files, q to quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderCreating() string {
	var b strings.Builder

	b.WriteString(renderHeader(title))
	b.WriteString("\n\n")
	b.WriteString(infoStyle.Render(iconSpinner + " Creating project structure..."))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderDone() string {
	var b strings.Builder

	b.WriteString(renderHeader(title))
	b.WriteString("\n\n")
	b.WriteString(renderSuccess("Setup complete!"))
	b.WriteString("\n\n")

	if m.result != nil {
		b.WriteString("Created:\n")
		if m.result.ConfigCreated {
			b.WriteString(fmt.Sprintf("  %s %s\n", iconCheck, m.result.ConfigPath))
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", iconCheck, m.result.EnvFile))
		b.WriteString(fmt.Sprintf("  %s %s\n", iconCheck, m.result.MigrationsDir))
		if m.result.GitignoreUpdated {
			b.WriteString(fmt.Sprintf("  %s .gitignore updated\n", iconCheck))
		}
	}

	b.WriteString("\n")
	b.WriteString("Next steps:\n")
	b.WriteString("  1. Add your *.graphql datamodel files to the schema directory\n")
	b.WriteString("  2. Run: schemahead create <name>\n")
	b.WriteString("  3. Run: schemahead deploy --latest\n")

	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("Press Enter to exit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderError() string {
	var b strings.Builder

	b.WriteString(renderHeader(title))
	b.WriteString("\n\n")
	b.WriteString(renderError("An error occurred"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
	}

	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("Press Enter to exit"))

	return borderStyle.Render(b.String())
}

// Run starts the wizard in the working directory.
func Run(force bool, schemaDir string) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	final, err := tea.NewProgram(New(dir, force, schemaDir)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(WizardModel); ok && m.state == StateError {
		return m.err
	}
	return nil
}
