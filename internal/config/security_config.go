package config

import (
	"strings"

	"hireflow/internal/domain"
)

const workflowService = "/hireflow.v1.WorkflowService/"

var (
	anyRole      = []domain.Role{domain.RoleCandidate, domain.RoleEmployer, domain.RoleStaff, domain.RoleAdmin}
	ownerRoles   = []domain.Role{domain.RoleCandidate, domain.RoleEmployer}
	staffRoles   = []domain.Role{domain.RoleStaff, domain.RoleAdmin}
	employerOnly = []domain.Role{domain.RoleEmployer}
	adminOnly    = []domain.Role{domain.RoleAdmin}
	partyOrStaff = []domain.Role{domain.RoleCandidate, domain.RoleEmployer, domain.RoleStaff, domain.RoleAdmin}
)

// EndpointRoles maps methods to the roles allowed to call them. Services apply
// the finer ownership checks.
var EndpointRoles = map[string][]domain.Role{
	// Documents
	workflowService + "SubmitDocument":   ownerRoles,
	workflowService + "ReviewDocument":   staffRoles,
	workflowService + "WithdrawDocument": ownerRoles,
	workflowService + "GetDocument":      anyRole,
	workflowService + "ListDocuments":    anyRole,

	// Verification
	workflowService + "GetEligibility":          anyRole,
	workflowService + "SubmitForVerification":   ownerRoles,
	workflowService + "ResolveVerification":     staffRoles,
	workflowService + "RevokeVerification":      ownerRoles,
	workflowService + "ReopenVerification":      ownerRoles,
	workflowService + "AdminRevokeVerification": adminOnly,
	workflowService + "UpdateProfile":           ownerRoles,
	workflowService + "GetVerification":         anyRole,

	// Pipeline
	workflowService + "SetPipelineStatus": {domain.RoleEmployer, domain.RoleStaff, domain.RoleAdmin},
	workflowService + "GetPipelineEntry":  {domain.RoleEmployer, domain.RoleStaff, domain.RoleAdmin},
	workflowService + "ListPipeline":      {domain.RoleEmployer, domain.RoleStaff, domain.RoleAdmin},

	// Quotes
	workflowService + "RequestQuote":       employerOnly,
	workflowService + "ResolveQuote":       staffRoles,
	workflowService + "AddQuoteOption":     staffRoles,
	workflowService + "SelectQuoteOption":  employerOnly,
	workflowService + "MarkQuoteFinalized": staffRoles,
	workflowService + "UpdateQuoteStatus":  adminOnly,
	workflowService + "GetQuote":           {domain.RoleEmployer, domain.RoleStaff, domain.RoleAdmin},
	workflowService + "FindOpenQuote":      {domain.RoleEmployer, domain.RoleStaff, domain.RoleAdmin},
	workflowService + "ListQuotes":         {domain.RoleEmployer, domain.RoleStaff, domain.RoleAdmin},

	// Interviews
	workflowService + "ScheduleInterview": ownerRoles,
	workflowService + "RespondToSlot":     ownerRoles,
	workflowService + "ProposeSlots":      ownerRoles,
	workflowService + "CancelInterview":   partyOrStaff,
	workflowService + "CompleteInterview": partyOrStaff,
	workflowService + "GetInterview":      partyOrStaff,
	workflowService + "ListInterviews":    partyOrStaff,

	// Talent demands
	workflowService + "CreateDemand":         employerOnly,
	workflowService + "SuggestPoolCandidate": staffRoles,
	workflowService + "AddManualProfile":     staffRoles,
	workflowService + "UpdateDemandStatus":   staffRoles,
	workflowService + "DeleteDemand":         {domain.RoleEmployer, domain.RoleStaff, domain.RoleAdmin},
	workflowService + "GetDemand":            {domain.RoleEmployer, domain.RoleStaff, domain.RoleAdmin},
	workflowService + "ListDemands":          {domain.RoleEmployer, domain.RoleStaff, domain.RoleAdmin},

	// Notifications and contact details
	workflowService + "GetNotifications":     anyRole,
	workflowService + "MarkNotificationRead": anyRole,
	workflowService + "UpdateContact":        anyRole,
}

// IsPublicMethod reports whether method skips authentication.
func IsPublicMethod(method string) bool {
	return strings.HasPrefix(method, "/grpc.health.v1.Health/") ||
		strings.HasPrefix(method, "/grpc.reflection.")
}

// GetAllowedRoles returns the roles allowed to call method. Unknown methods
// allow no role.
func GetAllowedRoles(method string) []domain.Role {
	return EndpointRoles[method]
}
