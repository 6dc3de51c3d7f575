package rpc

import (
	errorsmod "cosmossdk.io/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/babylonchain/guardian-attestor/attestor"
	"github.com/babylonchain/guardian-attestor/envelope"
	"github.com/babylonchain/guardian-attestor/guardianset"
	"github.com/babylonchain/guardian-attestor/payload"
	"github.com/babylonchain/guardian-attestor/verifier"
)

const (
	detailCodespace = "codespace"
	detailCode      = "code"
)

// ToStatus converts a registered error into a gRPC status error carrying
// its codespace and code, so that FromStatus can restore it on the other
// side.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}

	codespace, code, msg := errorsmod.ABCIInfo(err, false)
	// registered errors implement GRPCStatus with code Unknown, so only
	// statuses that carry no codespace are passed through
	if codespace == errorsmod.UndefinedCodespace && status.Code(err) != codes.Unknown {
		return err
	}
	st := status.New(grpcCode(err), msg)

	detail, detailErr := structpb.NewStruct(map[string]interface{}{
		detailCodespace: codespace,
		detailCode:      float64(code),
	})
	if detailErr != nil {
		return st.Err()
	}
	withDetail, detailErr := st.WithDetails(detail)
	if detailErr != nil {
		return st.Err()
	}

	return withDetail.Err()
}

// FromStatus restores the registered error carried by a status produced by
// ToStatus. Other errors are returned unchanged.
func FromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || st.Code() == codes.OK {
		return err
	}

	for _, d := range st.Details() {
		s, ok := d.(*structpb.Struct)
		if !ok {
			continue
		}
		fields := s.GetFields()
		codespace := fields[detailCodespace].GetStringValue()
		code := uint32(fields[detailCode].GetNumberValue())
		if codespace == "" || codespace == errorsmod.UndefinedCodespace || code == 0 {
			continue
		}
		return errorsmod.ABCIError(codespace, code, st.Message())
	}

	return err
}

func grpcCode(err error) codes.Code {
	switch {
	case errorsmod.IsOf(err, verifier.ErrUnknownGuardianSet):
		// the registry may learn the set later
		return codes.Unavailable
	case envelope.IsDecodeError(err),
		errorsmod.IsOf(err, payload.ErrMalformedPayload, payload.ErrWrongTargetChain, payload.ErrInvalidGuardianSet):
		return codes.InvalidArgument
	case verifier.IsVerificationError(err):
		return codes.PermissionDenied
	case errorsmod.IsOf(err, guardianset.ErrGuardianSetNotFound):
		return codes.NotFound
	case errorsmod.IsOf(err, attestor.ErrGovernanceNotCurrentSet, guardianset.ErrInvalidIndex):
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}
