package interceptor

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"hireflow/internal/domain"
	"hireflow/internal/logger"
)

const errorDomain = "hireflow"

// ErrorUnary converts domain errors returned by handlers into gRPC statuses.
// Conflicts carry the current entity as JSON in an ErrorInfo detail.
func ErrorUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return nil, ToStatus(info.FullMethod, err)
		}
		return resp, nil
	}
}

// ToStatus maps err to a gRPC status error. Errors that already carry a
// status pass through unchanged.
func ToStatus(method string, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	var (
		validation    *domain.ValidationError
		conflict      *domain.ConflictError
		authorization *domain.AuthorizationError
		notFound      *domain.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return withInfo(codes.InvalidArgument, validation.Error(), "VALIDATION", map[string]string{"field": validation.Field})
	case errors.As(err, &conflict):
		meta := map[string]string{"entity": conflict.Entity, "id": conflict.ID}
		if conflict.Current != nil {
			if b, jerr := json.Marshal(conflict.Current); jerr == nil {
				meta["current"] = string(b)
			}
		}
		return withInfo(codes.FailedPrecondition, conflict.Error(), "CONFLICT", meta)
	case errors.As(err, &authorization):
		return withInfo(codes.PermissionDenied, authorization.Error(), "FORBIDDEN", map[string]string{"operation": authorization.Operation})
	case errors.As(err, &notFound):
		return withInfo(codes.NotFound, notFound.Error(), "NOT_FOUND", map[string]string{"entity": notFound.Entity, "id": notFound.ID})
	}

	logger.Error("Request failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal error")
}

func withInfo(code codes.Code, msg, reason string, meta map[string]string) error {
	st := status.New(code, msg)
	detailed, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   reason,
		Domain:   errorDomain,
		Metadata: meta,
	})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}
