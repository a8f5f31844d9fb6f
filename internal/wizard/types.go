package wizard

import (
	"github.com/charmbracelet/bubbles/textinput"
)

// WizardState represents the current step in the wizard flow
type WizardState int

const (
	StateWelcome WizardState = iota
	StateHeadStore
	StateConnectionDetails
	StateTestConnection
	StateSummary
	StateCreating
	StateDone
	StateError
)

// WizardModel holds the state for the Bubble Tea wizard
type WizardModel struct {
	state WizardState
	dir   string
	force bool

	env EnvironmentInput

	// Connection testing
	testingConnection    bool
	connectionTestResult string
	connectionError      error
	retryChoice          int // 0=retry, 1=edit, 2=save anyway, 3=quit

	inputs     []textinput.Model
	focusIndex int

	storeIndex int

	errors map[string]string

	result *InitResult
	err    error

	width  int
	height int
}

// EnvironmentInput holds user input for the environment being configured
type EnvironmentInput struct {
	Name      string
	HeadStore string // "graphql" or "sql"
	Dialect   string // "postgres", "sqlite", "libsql" for the sql store

	// GraphQL fields
	Endpoint string
	Token    string

	// SQL fields
	DatabaseURL string

	SchemaDir string
}

// InitResult contains the outcome of running the wizard
type InitResult struct {
	ConfigPath       string
	ConfigCreated    bool
	EnvFile          string
	SchemaDir        string
	MigrationsDir    string
	GitignoreUpdated bool
}

// HeadStoreOption is a choice of where the head pointer lives.
type HeadStoreOption struct {
	ID          string
	Dialect     string
	DisplayName string
	Description string
	Icon        string
}

// HeadStoreOptions lists the supported head stores.
var HeadStoreOptions = []HeadStoreOption{
	{
		ID:          "graphql",
		DisplayName: "GraphQL endpoint",
		Description: "a migrations collection on your Prisma server",
		Icon:        "🔗",
	},
	{
		ID:          "sql",
		Dialect:     "postgres",
		DisplayName: "PostgreSQL",
		Description: "a schemahead_head table",
		Icon:        "🐘",
	},
	{
		ID:          "sql",
		Dialect:     "sqlite",
		DisplayName: "SQLite",
		Description: "a local database file",
		Icon:        "📁",
	},
	{
		ID:          "sql",
		Dialect:     "libsql",
		DisplayName: "libSQL/Turso",
		Description: "edge database",
		Icon:        "🌐",
	},
}
