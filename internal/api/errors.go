// Package api implements the chatrise gRPC services on top of the chat
// components.
package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/matheus3301/chatrise/internal/apperr"
)

var kindCodes = map[apperr.Kind]codes.Code{
	apperr.Transient:       codes.Unavailable,
	apperr.Unauthenticated: codes.Unauthenticated,
	apperr.Unauthorized:    codes.PermissionDenied,
	apperr.NotFound:        codes.NotFound,
	apperr.Conflict:        codes.AlreadyExists,
	apperr.Validation:      codes.InvalidArgument,
}

// toStatus converts a component error to a gRPC status error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := grpcstatus.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return grpcstatus.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return grpcstatus.Error(codes.DeadlineExceeded, err.Error())
	}
	return grpcstatus.Error(kindCodes[apperr.KindOf(err)], err.Error())
}

// KindFromStatus maps a gRPC error back to an error kind, for clients.
func KindFromStatus(err error) apperr.Kind {
	st, ok := grpcstatus.FromError(err)
	if !ok {
		return apperr.Transient
	}
	for k, c := range kindCodes {
		if c == st.Code() {
			return k
		}
	}
	return apperr.Transient
}
