package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
	agenttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcore/types"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	controltypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	"github.com/aws/smithy-go"

	memexErrors "github.com/cadre-oss/memex/internal/errors"
)

// maxPageSize is the largest page the AgentCore list APIs accept.
const maxPageSize = 100

// ControlPlaneAPI is the subset of the bedrockagentcorecontrol client used here.
type ControlPlaneAPI interface {
	ListMemories(ctx context.Context, params *bedrockagentcorecontrol.ListMemoriesInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.ListMemoriesOutput, error)
	GetMemory(ctx context.Context, params *bedrockagentcorecontrol.GetMemoryInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.GetMemoryOutput, error)
}

// DataPlaneAPI is the subset of the bedrockagentcore client used here.
type DataPlaneAPI interface {
	ListActors(ctx context.Context, params *bedrockagentcore.ListActorsInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.ListActorsOutput, error)
	ListMemoryRecords(ctx context.Context, params *bedrockagentcore.ListMemoryRecordsInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.ListMemoryRecordsOutput, error)
	RetrieveMemoryRecords(ctx context.Context, params *bedrockagentcore.RetrieveMemoryRecordsInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.RetrieveMemoryRecordsOutput, error)
}

// AgentCoreService implements Service against AWS Bedrock AgentCore Memory.
type AgentCoreService struct {
	control ControlPlaneAPI
	data    DataPlaneAPI
	region  string
}

// NewAgentCoreServiceFromClients wraps already constructed SDK clients.
func NewAgentCoreServiceFromClients(control ControlPlaneAPI, data DataPlaneAPI) *AgentCoreService {
	return &AgentCoreService{control: control, data: data}
}

// Region returns the AWS region the clients were built for, if known.
func (s *AgentCoreService) Region() string {
	return s.region
}

// ListMemories implements Service.
func (s *AgentCoreService) ListMemories(ctx context.Context, maxResults int) ([]MemorySummary, error) {
	var out []MemorySummary
	input := &bedrockagentcorecontrol.ListMemoriesInput{}

	for {
		input.MaxResults = aws.Int32(pageSize(maxResults, len(out)))

		page, err := s.control.ListMemories(ctx, input)
		if err != nil {
			return nil, classifyError("ListMemories", err)
		}

		for _, m := range page.Memories {
			out = append(out, MemorySummary{
				ID:        aws.ToString(m.Id),
				ARN:       aws.ToString(m.Arn),
				Status:    string(m.Status),
				CreatedAt: aws.ToTime(m.CreatedAt),
				UpdatedAt: aws.ToTime(m.UpdatedAt),
			})
		}

		if page.NextToken == nil || reached(maxResults, len(out)) {
			break
		}
		input.NextToken = page.NextToken
	}

	return truncate(out, maxResults), nil
}

// GetMemory implements Service.
func (s *AgentCoreService) GetMemory(ctx context.Context, memoryID string) (*Memory, error) {
	resp, err := s.control.GetMemory(ctx, &bedrockagentcorecontrol.GetMemoryInput{
		MemoryId: aws.String(memoryID),
	})
	if err != nil {
		return nil, classifyError("GetMemory", err)
	}
	if resp.Memory == nil {
		return nil, memexErrors.New(memexErrors.CodeMemoryNotFound, fmt.Sprintf("memory %s not found", memoryID))
	}

	return convertMemory(resp.Memory), nil
}

// ListActors implements Service.
func (s *AgentCoreService) ListActors(ctx context.Context, memoryID string) ([]Actor, error) {
	var out []Actor
	input := &bedrockagentcore.ListActorsInput{
		MemoryId:   aws.String(memoryID),
		MaxResults: aws.Int32(maxPageSize),
	}

	for {
		page, err := s.data.ListActors(ctx, input)
		if err != nil {
			return nil, classifyError("ListActors", err)
		}

		for _, a := range page.ActorSummaries {
			out = append(out, Actor{ActorID: aws.ToString(a.ActorId)})
		}

		if page.NextToken == nil {
			break
		}
		input.NextToken = page.NextToken
	}

	return out, nil
}

// ListRecords implements Service.
func (s *AgentCoreService) ListRecords(ctx context.Context, memoryID string, q ListQuery) ([]Record, error) {
	var out []Record
	input := &bedrockagentcore.ListMemoryRecordsInput{
		MemoryId:  aws.String(memoryID),
		Namespace: aws.String(q.NamespacePrefix),
	}
	if q.StrategyID != "" {
		input.MemoryStrategyId = aws.String(q.StrategyID)
	}

	for {
		input.MaxResults = aws.Int32(pageSize(q.MaxResults, len(out)))

		page, err := s.data.ListMemoryRecords(ctx, input)
		if err != nil {
			return nil, classifyError("ListMemoryRecords", err)
		}

		for _, r := range page.MemoryRecordSummaries {
			out = append(out, convertRecord(r))
		}

		if page.NextToken == nil || reached(q.MaxResults, len(out)) {
			break
		}
		input.NextToken = page.NextToken
	}

	return truncate(out, q.MaxResults), nil
}

// SearchRecords implements Service.
func (s *AgentCoreService) SearchRecords(ctx context.Context, memoryID string, q SearchQuery) ([]Record, error) {
	criteria := &agenttypes.SearchCriteria{
		SearchQuery: aws.String(q.Query),
	}
	if q.TopK > 0 {
		criteria.TopK = aws.Int32(int32(q.TopK))
	}
	if q.StrategyID != "" {
		criteria.MemoryStrategyId = aws.String(q.StrategyID)
	}

	input := &bedrockagentcore.RetrieveMemoryRecordsInput{
		MemoryId:       aws.String(memoryID),
		Namespace:      aws.String(q.NamespacePrefix),
		SearchCriteria: criteria,
	}
	if q.TopK > 0 {
		input.MaxResults = aws.Int32(int32(q.TopK))
	}

	resp, err := s.data.RetrieveMemoryRecords(ctx, input)
	if err != nil {
		return nil, classifyError("RetrieveMemoryRecords", err)
	}

	out := make([]Record, 0, len(resp.MemoryRecordSummaries))
	for _, r := range resp.MemoryRecordSummaries {
		out = append(out, convertRecord(r))
	}
	return truncate(out, q.TopK), nil
}

func convertMemory(m *controltypes.Memory) *Memory {
	mem := &Memory{
		ID:              aws.ToString(m.Id),
		ARN:             aws.ToString(m.Arn),
		Name:            aws.ToString(m.Name),
		Description:     aws.ToString(m.Description),
		Status:          string(m.Status),
		FailureReason:   aws.ToString(m.FailureReason),
		EventExpiryDays: int(aws.ToInt32(m.EventExpiryDuration)),
		CreatedAt:       aws.ToTime(m.CreatedAt),
		UpdatedAt:       aws.ToTime(m.UpdatedAt),
		Strategies:      make([]Strategy, 0, len(m.Strategies)),
	}

	for _, st := range m.Strategies {
		mem.Strategies = append(mem.Strategies, Strategy{
			StrategyID:  aws.ToString(st.StrategyId),
			Name:        aws.ToString(st.Name),
			Type:        string(st.Type),
			Status:      string(st.Status),
			Description: aws.ToString(st.Description),
			Namespaces:  st.Namespaces,
		})
	}
	return mem
}

func convertRecord(r agenttypes.MemoryRecordSummary) Record {
	rec := Record{
		ID:         aws.ToString(r.MemoryRecordId),
		StrategyID: aws.ToString(r.MemoryStrategyId),
		Namespaces: r.Namespaces,
		CreatedAt:  aws.ToTime(r.CreatedAt),
		Score:      r.Score,
	}

	switch c := r.Content.(type) {
	case *agenttypes.MemoryContentMemberText:
		rec.ContentType = "TEXT"
		rec.Content = c.Value
	case nil:
	default:
		rec.ContentType = fmt.Sprintf("%T", c)
	}
	return rec
}

// classifyError maps an AgentCore API failure to a coded error.
func classifyError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return memexErrors.Wrap(memexErrors.CodeTimeout, op+" timed out", err).
			WithSuggestion("Increase defaults.timeout in memex.yaml")
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ResourceNotFoundException":
			return memexErrors.Wrap(memexErrors.CodeMemoryNotFound, op+": resource not found", err).
				WithSuggestion("Run 'memex memories' to list memory IDs in this region")
		case "AccessDeniedException", "UnauthorizedException":
			return memexErrors.Wrap(memexErrors.CodeAccessDenied, op+": access denied", err).
				WithSuggestion("Grant bedrock-agentcore:" + op + " to the calling identity")
		case "ThrottlingException", "ThrottledException", "TooManyRequestsException", "ServiceQuotaExceededException":
			return memexErrors.Wrap(memexErrors.CodeThrottled, op+": throttled", err).
				WithSuggestion("Lower defaults.requests_per_second or defaults.concurrency")
		case "ValidationException", "InvalidInputException":
			return memexErrors.Wrap(memexErrors.CodeValidation, op+": request rejected", err)
		case "ServiceException", "ServiceUnavailableException", "InternalServerException", "InternalFailure":
			return memexErrors.Wrap(memexErrors.CodeServiceUnavailable, op+": service unavailable", err)
		}
	}

	if strings.Contains(err.Error(), "failed to retrieve credentials") {
		return memexErrors.Wrap(memexErrors.CodeCredentialsMissing, op+": no usable AWS credentials", err).
			WithSuggestion("Run 'aws configure' or set AWS_PROFILE / AWS_ACCESS_KEY_ID")
	}

	return memexErrors.Wrap(memexErrors.CodeServiceError, op+" failed", err)
}

// pageSize returns the page size to request given a total limit (0 means
// unlimited) and how many items are already collected.
func pageSize(limit, have int) int32 {
	if limit <= 0 {
		return maxPageSize
	}
	remaining := limit - have
	if remaining > maxPageSize {
		return maxPageSize
	}
	if remaining < 1 {
		return 1
	}
	return int32(remaining)
}

func reached(limit, have int) bool {
	return limit > 0 && have >= limit
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
