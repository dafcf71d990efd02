package api

import (
	"context"

	"google.golang.org/grpc"

	"github.com/miradorstack/cardio-intel/internal/coach"
	"github.com/miradorstack/cardio-intel/internal/explain"
	"github.com/miradorstack/cardio-intel/internal/models"
	"github.com/miradorstack/cardio-intel/internal/recommend"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "cardiointel.v1.CardioIntel"

// CardioIntelServer is implemented by the service facade.
type CardioIntelServer interface {
	Classify(context.Context, *ClassifyRequest) (*models.RiskAssessment, error)
	ClassifyBatch(context.Context, *ClassifyBatchRequest) (*ClassifyBatchResponse, error)
	Explain(context.Context, *ClassifyRequest) (*models.Explanation, error)
	DetectAnomalies(context.Context, *AnomalyRequest) (*models.AnomalyReport, error)
	ForecastTrends(context.Context, *TrendRequest) (*models.TrendForecast, error)
	CalibrateBaseline(context.Context, *BaselineRequest) (*models.BaselineCalibration, error)
	RankRecommendation(context.Context, *RankRequest) (*models.RecommendationAssignment, error)
	RecordOutcome(context.Context, *recommend.OutcomeRequest) (*models.OutcomeRecord, error)
	DescribeAlert(context.Context, *explain.AlertInput) (*models.FriendlyAlert, error)
	SummarizeRisk(context.Context, *SummaryRequest) (*SummaryResponse, error)
	CoachingPlan(context.Context, *coach.Input) (*models.CoachingPlan, error)
	Health(context.Context, *HealthRequest) (*HealthResponse, error)
}

func unaryHandler[Req, Resp any](method string, call func(CardioIntelServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(CardioIntelServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(*Req))
			})
		},
	}
}

// ServiceDesc describes the CardioIntel service for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CardioIntelServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Classify", CardioIntelServer.Classify),
		unaryHandler("ClassifyBatch", CardioIntelServer.ClassifyBatch),
		unaryHandler("Explain", CardioIntelServer.Explain),
		unaryHandler("DetectAnomalies", CardioIntelServer.DetectAnomalies),
		unaryHandler("ForecastTrends", CardioIntelServer.ForecastTrends),
		unaryHandler("CalibrateBaseline", CardioIntelServer.CalibrateBaseline),
		unaryHandler("RankRecommendation", CardioIntelServer.RankRecommendation),
		unaryHandler("RecordOutcome", CardioIntelServer.RecordOutcome),
		unaryHandler("DescribeAlert", CardioIntelServer.DescribeAlert),
		unaryHandler("SummarizeRisk", CardioIntelServer.SummarizeRisk),
		unaryHandler("CoachingPlan", CardioIntelServer.CoachingPlan),
		unaryHandler("Health", CardioIntelServer.Health),
	},
	Metadata: "cardiointel/v1/cardiointel.json",
}

// RegisterCardioIntelServer registers srv on s.
func RegisterCardioIntelServer(s grpc.ServiceRegistrar, srv CardioIntelServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls a remote CardioIntel service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection. Calls always use the JSON content subtype.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Classify(ctx context.Context, in *ClassifyRequest, opts ...grpc.CallOption) (*models.RiskAssessment, error) {
	return invoke[models.RiskAssessment](ctx, c, "Classify", in, opts)
}

func (c *Client) ClassifyBatch(ctx context.Context, in *ClassifyBatchRequest, opts ...grpc.CallOption) (*ClassifyBatchResponse, error) {
	return invoke[ClassifyBatchResponse](ctx, c, "ClassifyBatch", in, opts)
}

func (c *Client) Explain(ctx context.Context, in *ClassifyRequest, opts ...grpc.CallOption) (*models.Explanation, error) {
	return invoke[models.Explanation](ctx, c, "Explain", in, opts)
}

func (c *Client) DetectAnomalies(ctx context.Context, in *AnomalyRequest, opts ...grpc.CallOption) (*models.AnomalyReport, error) {
	return invoke[models.AnomalyReport](ctx, c, "DetectAnomalies", in, opts)
}

func (c *Client) ForecastTrends(ctx context.Context, in *TrendRequest, opts ...grpc.CallOption) (*models.TrendForecast, error) {
	return invoke[models.TrendForecast](ctx, c, "ForecastTrends", in, opts)
}

func (c *Client) CalibrateBaseline(ctx context.Context, in *BaselineRequest, opts ...grpc.CallOption) (*models.BaselineCalibration, error) {
	return invoke[models.BaselineCalibration](ctx, c, "CalibrateBaseline", in, opts)
}

func (c *Client) RankRecommendation(ctx context.Context, in *RankRequest, opts ...grpc.CallOption) (*models.RecommendationAssignment, error) {
	return invoke[models.RecommendationAssignment](ctx, c, "RankRecommendation", in, opts)
}

func (c *Client) RecordOutcome(ctx context.Context, in *recommend.OutcomeRequest, opts ...grpc.CallOption) (*models.OutcomeRecord, error) {
	return invoke[models.OutcomeRecord](ctx, c, "RecordOutcome", in, opts)
}

func (c *Client) DescribeAlert(ctx context.Context, in *explain.AlertInput, opts ...grpc.CallOption) (*models.FriendlyAlert, error) {
	return invoke[models.FriendlyAlert](ctx, c, "DescribeAlert", in, opts)
}

func (c *Client) SummarizeRisk(ctx context.Context, in *SummaryRequest, opts ...grpc.CallOption) (*SummaryResponse, error) {
	return invoke[SummaryResponse](ctx, c, "SummarizeRisk", in, opts)
}

func (c *Client) CoachingPlan(ctx context.Context, in *coach.Input, opts ...grpc.CallOption) (*models.CoachingPlan, error) {
	return invoke[models.CoachingPlan](ctx, c, "CoachingPlan", in, opts)
}

func (c *Client) Health(ctx context.Context, in *HealthRequest, opts ...grpc.CallOption) (*HealthResponse, error) {
	return invoke[HealthResponse](ctx, c, "Health", in, opts)
}
