package grpc

import (
	"context"

	"google.golang.org/grpc"

	"hireflow/internal/domain"
	"hireflow/internal/service"
)

const ServiceName = "hireflow.v1.WorkflowService"

// WorkflowServer is implemented by WorkflowHandler. It exists so the service
// descriptor can name a handler type.
type WorkflowServer interface {
	Services() *service.Services
}

type WorkflowHandler struct {
	svc *service.Services
}

func NewWorkflowHandler(svc *service.Services) *WorkflowHandler {
	return &WorkflowHandler{svc: svc}
}

func (h *WorkflowHandler) Services() *service.Services {
	return h.svc
}

// RegisterWorkflowServer registers h under ServiceName.
func RegisterWorkflowServer(s grpc.ServiceRegistrar, h *WorkflowHandler) {
	s.RegisterService(&WorkflowServiceDesc, h)
}

// unary adapts a typed call into a grpc.MethodDesc. The actor is resolved
// from the context populated by the auth interceptor.
func unary[Req any](name string, fn func(ctx context.Context, s *service.Services, actor domain.Actor, req *Req) (any, error)) grpc.MethodDesc {
	invoke := func(srv any, ctx context.Context, req *Req) (any, error) {
		actor, err := ActorFromContext(ctx)
		if err != nil {
			return nil, err
		}
		return fn(ctx, srv.(WorkflowServer).Services(), actor, req)
	}
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return invoke(srv, ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, req, info, func(ctx context.Context, r any) (any, error) {
				return invoke(srv, ctx, r.(*Req))
			})
		},
	}
}

var WorkflowServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WorkflowServer)(nil),
	Methods: []grpc.MethodDesc{
		// Documents
		unary("SubmitDocument", func(ctx context.Context, s *service.Services, a domain.Actor, r *SubmitDocumentRequest) (any, error) {
			return s.Documents.Submit(ctx, a, r.Kind, r.BlobRef)
		}),
		unary("ReviewDocument", func(ctx context.Context, s *service.Services, a domain.Actor, r *ReviewDocumentRequest) (any, error) {
			return s.Documents.Review(ctx, a, r.DocumentID, r.Decision, r.Reason)
		}),
		unary("WithdrawDocument", func(ctx context.Context, s *service.Services, a domain.Actor, r *DocumentIDRequest) (any, error) {
			return s.Documents.Withdraw(ctx, a, r.DocumentID)
		}),
		unary("GetDocument", func(ctx context.Context, s *service.Services, a domain.Actor, r *DocumentIDRequest) (any, error) {
			return s.Documents.Get(ctx, a, r.DocumentID)
		}),
		unary("ListDocuments", func(ctx context.Context, s *service.Services, a domain.Actor, r *OwnerRequest) (any, error) {
			docs, err := s.Documents.ListByOwner(ctx, a, ownerOrSelf(a, r.OwnerID))
			if err != nil {
				return nil, err
			}
			return &DocumentList{Documents: docs}, nil
		}),

		// Verification
		unary("GetEligibility", func(ctx context.Context, s *service.Services, a domain.Actor, r *OwnerRequest) (any, error) {
			owner := ownerOrSelf(a, r.OwnerID)
			if !a.IsStaff() && owner != a.ID {
				return nil, domain.NewAuthorizationError(a, "read eligibility")
			}
			return s.Verifications.ComputeEligibility(ctx, owner)
		}),
		unary("SubmitForVerification", func(ctx context.Context, s *service.Services, a domain.Actor, r *Empty) (any, error) {
			return s.Verifications.SubmitForVerification(ctx, a)
		}),
		unary("ResolveVerification", func(ctx context.Context, s *service.Services, a domain.Actor, r *ResolveVerificationRequest) (any, error) {
			return s.Verifications.Resolve(ctx, a, r.OwnerID, r.Decision, r.Reason, r.CostHint)
		}),
		unary("RevokeVerification", func(ctx context.Context, s *service.Services, a domain.Actor, r *Empty) (any, error) {
			return s.Verifications.Revoke(ctx, a)
		}),
		unary("ReopenVerification", func(ctx context.Context, s *service.Services, a domain.Actor, r *Empty) (any, error) {
			return s.Verifications.Reopen(ctx, a)
		}),
		unary("AdminRevokeVerification", func(ctx context.Context, s *service.Services, a domain.Actor, r *AdminRevokeRequest) (any, error) {
			return s.Verifications.AdminRevoke(ctx, a, r.OwnerID, r.Reason)
		}),
		unary("UpdateProfile", func(ctx context.Context, s *service.Services, a domain.Actor, r *UpdateProfileRequest) (any, error) {
			return s.Verifications.UpdateProfile(ctx, a, r.Fields)
		}),
		unary("GetVerification", func(ctx context.Context, s *service.Services, a domain.Actor, r *OwnerRequest) (any, error) {
			return s.Verifications.Get(ctx, a, ownerOrSelf(a, r.OwnerID))
		}),

		// Pipeline
		unary("SetPipelineStatus", func(ctx context.Context, s *service.Services, a domain.Actor, r *SetPipelineStatusRequest) (any, error) {
			return s.Pipeline.SetStatus(ctx, a, r.EmployerID, r.CandidateID, r.Status, r.Expected)
		}),
		unary("GetPipelineEntry", func(ctx context.Context, s *service.Services, a domain.Actor, r *PairRequest) (any, error) {
			return s.Pipeline.Get(ctx, a, r.EmployerID, r.CandidateID)
		}),
		unary("ListPipeline", func(ctx context.Context, s *service.Services, a domain.Actor, r *EmployerRequest) (any, error) {
			entries, err := s.Pipeline.ListByEmployer(ctx, a, ownerOrSelf(a, r.EmployerID))
			if err != nil {
				return nil, err
			}
			return &PipelineList{Entries: entries}, nil
		}),

		// Quotes
		unary("RequestQuote", func(ctx context.Context, s *service.Services, a domain.Actor, r *PairRequest) (any, error) {
			return s.Quotes.Request(ctx, a, ownerOrSelf(a, r.EmployerID), r.CandidateID)
		}),
		unary("ResolveQuote", func(ctx context.Context, s *service.Services, a domain.Actor, r *ResolveQuoteRequest) (any, error) {
			return s.Quotes.Resolve(ctx, a, r.QuoteID, r.Decision, r.CostEstimate, r.Options)
		}),
		unary("AddQuoteOption", func(ctx context.Context, s *service.Services, a domain.Actor, r *AddQuoteOptionRequest) (any, error) {
			return s.Quotes.AddOption(ctx, a, r.QuoteID, r.Option)
		}),
		unary("SelectQuoteOption", func(ctx context.Context, s *service.Services, a domain.Actor, r *SelectQuoteOptionRequest) (any, error) {
			return s.Quotes.SelectOption(ctx, a, r.QuoteID, r.OptionID)
		}),
		unary("MarkQuoteFinalized", func(ctx context.Context, s *service.Services, a domain.Actor, r *QuoteIDRequest) (any, error) {
			return s.Quotes.MarkFinalized(ctx, a, r.QuoteID)
		}),
		unary("UpdateQuoteStatus", func(ctx context.Context, s *service.Services, a domain.Actor, r *UpdateQuoteStatusRequest) (any, error) {
			return s.Quotes.UpdateStatus(ctx, a, r.QuoteID, r.Status, r.Note)
		}),
		unary("GetQuote", func(ctx context.Context, s *service.Services, a domain.Actor, r *QuoteIDRequest) (any, error) {
			return s.Quotes.Get(ctx, a, r.QuoteID)
		}),
		unary("FindOpenQuote", func(ctx context.Context, s *service.Services, a domain.Actor, r *PairRequest) (any, error) {
			return s.Quotes.FindOpenForPair(ctx, a, ownerOrSelf(a, r.EmployerID), r.CandidateID)
		}),
		unary("ListQuotes", func(ctx context.Context, s *service.Services, a domain.Actor, r *EmployerRequest) (any, error) {
			quotes, err := s.Quotes.ListByEmployer(ctx, a, ownerOrSelf(a, r.EmployerID))
			if err != nil {
				return nil, err
			}
			return &QuoteList{Quotes: quotes}, nil
		}),

		// Interviews
		unary("ScheduleInterview", func(ctx context.Context, s *service.Services, a domain.Actor, r *ScheduleInterviewRequest) (any, error) {
			return s.Interviews.Schedule(ctx, a, r.EmployerID, r.CandidateID, r.Title, r.ProposedTimes, r.Notes)
		}),
		unary("RespondToSlot", func(ctx context.Context, s *service.Services, a domain.Actor, r *RespondToSlotRequest) (any, error) {
			return s.Interviews.RespondToSlot(ctx, a, r.InterviewID, r.SlotID, r.Accepted)
		}),
		unary("ProposeSlots", func(ctx context.Context, s *service.Services, a domain.Actor, r *ProposeSlotsRequest) (any, error) {
			return s.Interviews.ProposeSlots(ctx, a, r.InterviewID, r.ProposedTimes)
		}),
		unary("CancelInterview", func(ctx context.Context, s *service.Services, a domain.Actor, r *CancelInterviewRequest) (any, error) {
			return s.Interviews.Cancel(ctx, a, r.InterviewID, r.Reason)
		}),
		unary("CompleteInterview", func(ctx context.Context, s *service.Services, a domain.Actor, r *InterviewIDRequest) (any, error) {
			return s.Interviews.Complete(ctx, a, r.InterviewID)
		}),
		unary("GetInterview", func(ctx context.Context, s *service.Services, a domain.Actor, r *InterviewIDRequest) (any, error) {
			return s.Interviews.Get(ctx, a, r.InterviewID)
		}),
		unary("ListInterviews", func(ctx context.Context, s *service.Services, a domain.Actor, r *ParticipantRequest) (any, error) {
			list, err := s.Interviews.ListByParticipant(ctx, a, ownerOrSelf(a, r.ParticipantID))
			if err != nil {
				return nil, err
			}
			return &InterviewList{Interviews: list}, nil
		}),

		// Talent demands
		unary("CreateDemand", func(ctx context.Context, s *service.Services, a domain.Actor, r *CreateDemandRequest) (any, error) {
			return s.Demands.Create(ctx, a, ownerOrSelf(a, r.EmployerID), r.Spec)
		}),
		unary("SuggestPoolCandidate", func(ctx context.Context, s *service.Services, a domain.Actor, r *SuggestPoolCandidateRequest) (any, error) {
			return s.Demands.SuggestPoolCandidate(ctx, a, r.DemandID, r.CandidateID)
		}),
		unary("AddManualProfile", func(ctx context.Context, s *service.Services, a domain.Actor, r *AddManualProfileRequest) (any, error) {
			return s.Demands.AddManualProfile(ctx, a, r.DemandID, r.Profile)
		}),
		unary("UpdateDemandStatus", func(ctx context.Context, s *service.Services, a domain.Actor, r *UpdateDemandStatusRequest) (any, error) {
			return s.Demands.UpdateStatus(ctx, a, r.DemandID, r.Status)
		}),
		unary("DeleteDemand", func(ctx context.Context, s *service.Services, a domain.Actor, r *DemandIDRequest) (any, error) {
			return s.Demands.Delete(ctx, a, r.DemandID)
		}),
		unary("GetDemand", func(ctx context.Context, s *service.Services, a domain.Actor, r *DemandIDRequest) (any, error) {
			return s.Demands.Get(ctx, a, r.DemandID)
		}),
		unary("ListDemands", func(ctx context.Context, s *service.Services, a domain.Actor, r *EmployerRequest) (any, error) {
			demands, err := s.Demands.ListByEmployer(ctx, a, ownerOrSelf(a, r.EmployerID))
			if err != nil {
				return nil, err
			}
			return &DemandList{Demands: demands}, nil
		}),

		// Notifications
		unary("GetNotifications", func(ctx context.Context, s *service.Services, a domain.Actor, r *GetNotificationsRequest) (any, error) {
			notes, total, err := s.Notifications.GetNotifications(ctx, a, r.Page, r.PageSize)
			if err != nil {
				return nil, err
			}
			return &GetNotificationsResponse{Notifications: notes, TotalCount: total}, nil
		}),
		unary("MarkNotificationRead", func(ctx context.Context, s *service.Services, a domain.Actor, r *MarkNotificationReadRequest) (any, error) {
			if err := s.Notifications.MarkAsRead(ctx, a, r.NotificationID); err != nil {
				return nil, err
			}
			return &MarkNotificationReadResponse{Success: true}, nil
		}),
		unary("UpdateContact", func(ctx context.Context, s *service.Services, a domain.Actor, r *UpdateContactRequest) (any, error) {
			return s.Notifications.UpdateContact(ctx, a, r.Email, r.Name)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hireflow/v1/workflow",
}

// ownerOrSelf defaults an omitted owner id to the caller.
func ownerOrSelf(actor domain.Actor, id string) string {
	if id == "" {
		return actor.ID
	}
	return id
}
