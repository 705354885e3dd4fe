package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ykarpov/procnode/internal/checks"
)

// CheckRunData is the outcome of one run of the check suite.
type CheckRunData struct {
	Passed  bool            `json:"passed" doc:"True when every check passed"`
	Results []checks.Result `json:"results" doc:"Per-check outcomes"`
}

// CheckRunResponse wraps CheckRunData for huma.
type CheckRunResponse struct {
	Body CheckRunData
}

// registerCheckRoutes registers the health check suite endpoint.
func (s *Server) registerCheckRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "run-checks",
		Method:      http.MethodPost,
		Path:        "/api/checks/run",
		Summary:     "Run checks",
		Description: "Run the full self-check suite and report per-check results.",
		Tags:        []string{"checks"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(ctx context.Context, input *struct{}) (*CheckRunResponse, error) {
		if s.options.Checks == nil {
			return nil, huma.Error503ServiceUnavailable("check suite not configured")
		}
		results := s.options.Checks.Run(ctx)
		return &CheckRunResponse{
			Body: CheckRunData{
				Passed:  !checks.AnyFailed(results),
				Results: results,
			},
		}, nil
	})
}
