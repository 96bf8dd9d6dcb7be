package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
)

// Event names published on the pipeline bus.
const (
	EventSessionCreated              = "session_created"
	EventClarificationStarted        = "clarification_started"
	EventClarificationUpdate         = "clarification_update"
	EventClarificationReady          = "clarification_ready"
	EventClarificationConsentRequest = "clarification_consent_requested"
	EventClarificationCompleted      = "clarification_completed"
	EventOutlineAccepted             = "outline_accepted"
	EventOutlineReady                = "outline_ready"
	EventResearchStarted             = "research_started"
	EventResearchDone                = "research_done"
	EventResearchFailed              = "research_failed"
)

// Background job names for the task dispatcher.
const (
	JobClarification = "clarification"
	JobOutline       = "outline"
	JobResearch      = "research"
	JobEmbedEvidence = "embed_evidence"
)

// SchemaFields is the fixed idea-knowledge schema the clarification loop
// fills in. Order matters only for display; the set is closed.
var SchemaFields = []string{
	"project_domain",
	"target_persona",
	"core_problem",
	"current_workaround",
	"proposed_solution",
	"differentiation",
}

// ConfidenceThreshold is the schema fill level at which clarification stops.
const ConfidenceThreshold = 0.95

// CoreSections always open a report outline, in this exact order.
var CoreSections = []string{
	"Problem Context & Validation",
	"Target Users & Personas",
	"Existing Solutions",
	"Competitor Landscape",
	"Market & Industry Trends",
	"Opportunities & Gaps",
	"Risks & Open Questions",
}

// AllowedOptionalSections is the closed set of extras the outline model may
// add, capped at MaxOptionalSections.
var AllowedOptionalSections = map[string]bool{
	"Technical Feasibility":     true,
	"Regulatory Considerations": true,
	"Go-To-Market Strategy":     true,
}

const MaxOptionalSections = 3

// FallbackQueries are used when query generation fails; research must never
// block on the provider.
var FallbackQueries = []string{
	"existing solutions",
	"competitor tools",
	"market overview",
}
