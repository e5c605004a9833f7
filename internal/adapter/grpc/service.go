package grpc

import (
	"context"
	"math"

	"andrew-web-services/internal/domain/user"
	"andrew-web-services/internal/usecase/webservice"
	apperrors "andrew-web-services/pkg/errors"
	"andrew-web-services/pkg/logger"
	"andrew-web-services/pkg/security"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "andrew.v1.AndrewWebServices"

// Full method names, as seen by interceptors.
const (
	LogInMethod             = "/" + ServiceName + "/LogIn"
	GetRecommendationMethod = "/" + ServiceName + "/GetRecommendation"
	SendPromoEmailMethod    = "/" + ServiceName + "/SendPromoEmail"
)

// ServiceServer is the server API for the AndrewWebServices service.
type ServiceServer interface {
	LogIn(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	GetRecommendation(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	SendPromoEmail(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
}

// AndrewWebServicesServer implements ServiceServer on top of the usecase.
type AndrewWebServicesServer struct {
	uc  webservice.Usecase
	log *zap.Logger
}

// NewAndrewWebServicesServer creates a new gRPC server implementation.
func NewAndrewWebServicesServer(uc webservice.Usecase, log *zap.Logger) *AndrewWebServicesServer {
	return &AndrewWebServicesServer{uc: uc, log: log}
}

// Register attaches srv to s.
func Register(s grpc.ServiceRegistrar, srv ServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// LogIn handles gRPC LogIn request. The request is {"name": string, "pin": number}.
func (s *AndrewWebServicesServer) LogIn(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	name, pin, err := parseLogIn(req)
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx, s.log).Info("LogIn request", zap.String("name", name), zap.String("pin", security.MaskPIN(pin)))

	ok, err := s.uc.LogIn(ctx, name, pin)
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bool(ok), nil
}

// GetRecommendation handles gRPC GetRecommendation request
func (s *AndrewWebServicesServer) GetRecommendation(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	item, err := s.uc.GetRecommendation(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}
	return wrapperspb.String(item), nil
}

// SendPromoEmail handles gRPC SendPromoEmail request
func (s *AndrewWebServicesServer) SendPromoEmail(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if req.GetValue() == "" {
		return nil, apperrors.NewValidationError("email", "is required")
	}
	if err := s.uc.SendPromoEmail(ctx, req.GetValue()); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

func parseLogIn(req *structpb.Struct) (string, int, error) {
	fields := req.GetFields()

	var name string
	if v, ok := fields["name"]; ok {
		sv, isString := v.GetKind().(*structpb.Value_StringValue)
		if !isString {
			return "", 0, apperrors.NewValidationError("name", "must be a string")
		}
		name = sv.StringValue
	}

	v, ok := fields["pin"]
	if !ok {
		return "", 0, apperrors.NewValidationError("pin", "is required")
	}
	nv, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return "", 0, apperrors.NewValidationError("pin", "must be a number")
	}
	f := nv.NumberValue
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return "", 0, apperrors.NewValidationError("pin", "must be an integer")
	}
	if f > user.MaxPIN || f < user.MinPIN {
		return "", 0, apperrors.NewValidationError("pin", "out of range")
	}
	return name, int(f), nil
}

func logInHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ServiceServer).LogIn(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LogInMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ServiceServer).LogIn(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getRecommendationHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ServiceServer).GetRecommendation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetRecommendationMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ServiceServer).GetRecommendation(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func sendPromoEmailHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ServiceServer).SendPromoEmail(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SendPromoEmailMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ServiceServer).SendPromoEmail(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc describes the AndrewWebServices service. Messages are protobuf
// well-known types, so no generated code is needed on either side.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "LogIn", Handler: logInHandler},
		{MethodName: "GetRecommendation", Handler: getRecommendationHandler},
		{MethodName: "SendPromoEmail", Handler: sendPromoEmailHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "andrew/v1/andrew.proto",
}
