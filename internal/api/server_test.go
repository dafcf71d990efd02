package api

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/miradorstack/cardio-intel/internal/coach"
	"github.com/miradorstack/cardio-intel/internal/config"
	"github.com/miradorstack/cardio-intel/internal/explain"
	"github.com/miradorstack/cardio-intel/internal/models"
	"github.com/miradorstack/cardio-intel/internal/recommend"
)

type stubService struct {
	lastClassify *ClassifyRequest
}

func (s *stubService) Classify(_ context.Context, req *ClassifyRequest) (*models.RiskAssessment, error) {
	s.lastClassify = req
	return &models.RiskAssessment{RiskScore: 0.42, RiskLevel: models.RiskLow}, nil
}

func (s *stubService) ClassifyBatch(context.Context, *ClassifyBatchRequest) (*ClassifyBatchResponse, error) {
	return &ClassifyBatchResponse{}, nil
}

func (s *stubService) Explain(context.Context, *ClassifyRequest) (*models.Explanation, error) {
	return nil, status.Error(codes.Unavailable, "artifact not ready")
}

func (s *stubService) DetectAnomalies(_ context.Context, req *AnomalyRequest) (*models.AnomalyReport, error) {
	return &models.AnomalyReport{TotalReadings: len(req.Samples), ZThreshold: req.ZThreshold}, nil
}

func (s *stubService) ForecastTrends(context.Context, *TrendRequest) (*models.TrendForecast, error) {
	return &models.TrendForecast{}, nil
}

func (s *stubService) CalibrateBaseline(context.Context, *BaselineRequest) (*models.BaselineCalibration, error) {
	return &models.BaselineCalibration{}, nil
}

func (s *stubService) RankRecommendation(context.Context, *RankRequest) (*models.RecommendationAssignment, error) {
	return &models.RecommendationAssignment{}, nil
}

func (s *stubService) RecordOutcome(context.Context, *recommend.OutcomeRequest) (*models.OutcomeRecord, error) {
	return &models.OutcomeRecord{}, nil
}

func (s *stubService) DescribeAlert(context.Context, *explain.AlertInput) (*models.FriendlyAlert, error) {
	return &models.FriendlyAlert{}, nil
}

func (s *stubService) SummarizeRisk(context.Context, *SummaryRequest) (*SummaryResponse, error) {
	return &SummaryResponse{Summary: "ok"}, nil
}

func (s *stubService) CoachingPlan(_ context.Context, in *coach.Input) (*models.CoachingPlan, error) {
	return &models.CoachingPlan{CoachingMessage: string(in.RiskLevel)}, nil
}

func (s *stubService) Health(context.Context, *HealthRequest) (*HealthResponse, error) {
	return &HealthResponse{Status: "SERVING"}, nil
}

func startBufServer(t *testing.T, svc CardioIntelServer) (*Server, *grpc.ClientConn) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServerWithListener(lis, config.ServerConfig{GracefulTimeout: time.Second}, svc)
	go func() { _ = srv.Start() }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return srv, conn
}

func TestJSONRoundTripOverGRPC(t *testing.T) {
	svc := &stubService{}
	_, conn := startBufServer(t, svc)
	client := NewClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := client.Classify(ctx, &ClassifyRequest{
		PatientID: "p-9",
		Profile:   models.PatientProfile{Age: 70, BaselineHR: 68, MaxSafeHR: 140},
		Session:   &models.SessionMetrics{PeakHeartRate: 131, ActivityType: "yoga"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.42, got.RiskScore)
	assert.Equal(t, models.RiskLow, got.RiskLevel)
	require.NotNil(t, svc.lastClassify)
	assert.Equal(t, 70, svc.lastClassify.Profile.Age)
	assert.Equal(t, 131.0, svc.lastClassify.Session.PeakHeartRate)

	report, err := client.DetectAnomalies(ctx, &AnomalyRequest{Samples: make([]models.Observation, 4), ZThreshold: 2.5})
	require.NoError(t, err)
	assert.Equal(t, 4, report.TotalReadings)
	assert.Equal(t, 2.5, report.ZThreshold)

	plan, err := client.CoachingPlan(ctx, &coach.Input{RiskLevel: coach.Critical, RiskScore: 0.9, Age: 60})
	require.NoError(t, err)
	assert.Equal(t, "critical", plan.CoachingMessage)
}

func TestStatusCodesPropagate(t *testing.T) {
	_, conn := startBufServer(t, &stubService{})
	_, err := NewClient(conn).Explain(context.Background(), &ClassifyRequest{})
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestHealthTracksServingState(t *testing.T) {
	srv, conn := startBufServer(t, &stubService{})
	health := healthpb.NewHealthClient(conn)
	ctx := context.Background()

	resp, err := health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	srv.SetServing(true)
	resp, err = health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestCodecName(t *testing.T) {
	assert.Equal(t, "json", jsonCodec{}.Name())
	var out struct{ A int }
	require.NoError(t, jsonCodec{}.Unmarshal(nil, &out))
	require.Error(t, jsonCodec{}.Unmarshal([]byte("{"), &out))
}
