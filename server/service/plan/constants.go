package plan

const (
	// DefaultMaxConcurrentGenerations bounds generator runs in flight at once.
	DefaultMaxConcurrentGenerations = 4

	// DefaultPlanName prefixes the generated name of unnamed plans.
	DefaultPlanName = "Study plan"
)

// Operation names used in logs and metrics.
const (
	OperationGenerate     = "generate_plan"
	OperationExtend       = "extend_plan"
	OperationGet          = "get_plan"
	OperationList         = "list_plans"
	OperationDelete       = "delete_plan"
	OperationComplete     = "set_session_completed"
	OperationListSessions = "list_sessions"
	OperationStatistics   = "overall_statistics"
)
