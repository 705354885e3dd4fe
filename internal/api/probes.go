package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ykarpov/procnode/internal/probes"
)

// ProbeInput is the writable part of a probe spec.
type ProbeInput struct {
	ID      string `json:"id,omitempty" example:"cpu" doc:"Probe identifier, required on create"`
	Name    string `json:"name,omitempty" example:"CPU sampler" doc:"Human-readable name"`
	Command string `json:"command" example:"vmstat 1" doc:"Command line to run"`
	Enabled bool   `json:"enabled" doc:"Start automatically at boot"`
}

// ProbeResponse wraps one probe status for huma.
type ProbeResponse struct {
	Body probes.Status
}

// ProbeListResponse wraps the probe list for huma.
type ProbeListResponse struct {
	Body struct {
		Probes []probes.Status `json:"probes" doc:"All configured probes"`
	}
}

// probeErr maps service errors to HTTP status errors.
func probeErr(err error) error {
	switch {
	case errors.Is(err, probes.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, probes.ErrExists):
		return huma.Error409Conflict(err.Error())
	default:
		return huma.Error500InternalServerError("probe operation failed", err)
	}
}

// registerProbeRoutes registers probe CRUD and lifecycle endpoints.
func (s *Server) registerProbeRoutes() {
	svc := s.options.Probes

	huma.Register(s.api, huma.Operation{
		OperationID: "list-probes",
		Method:      http.MethodGet,
		Path:        "/api/probes",
		Summary:     "List probes",
		Tags:        []string{"probes"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*ProbeListResponse, error) {
		resp := &ProbeListResponse{}
		resp.Body.Probes = svc.Statuses()
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-probe",
		Method:      http.MethodGet,
		Path:        "/api/probes/{id}",
		Summary:     "Get probe",
		Tags:        []string{"probes"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id" doc:"Probe identifier"`
	}) (*ProbeResponse, error) {
		st, err := svc.Get(input.ID)
		if err != nil {
			return nil, probeErr(err)
		}
		return &ProbeResponse{Body: st}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "create-probe",
		Method:        http.MethodPost,
		Path:          "/api/probes",
		Summary:       "Create probe",
		Tags:          []string{"probes"},
		Security:      withAuth(),
		DefaultStatus: http.StatusCreated,
		Errors:        []int{401, 409, 422},
	}, func(ctx context.Context, input *struct {
		Body ProbeInput
	}) (*ProbeResponse, error) {
		if input.Body.ID == "" {
			return nil, huma.Error422UnprocessableEntity("probe id is required")
		}
		if input.Body.Command == "" {
			return nil, huma.Error422UnprocessableEntity("probe command is required")
		}
		err := svc.Add(probes.ProbeSpec{
			ID:      input.Body.ID,
			Name:    input.Body.Name,
			Command: input.Body.Command,
			Enabled: input.Body.Enabled,
		})
		if err != nil {
			return nil, probeErr(err)
		}
		st, err := svc.Get(input.Body.ID)
		if err != nil {
			return nil, probeErr(err)
		}
		return &ProbeResponse{Body: st}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update-probe",
		Method:      http.MethodPut,
		Path:        "/api/probes/{id}",
		Summary:     "Update probe",
		Description: "Replace a probe's spec. A running probe keeps the old command until restarted.",
		Tags:        []string{"probes"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 422},
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id" doc:"Probe identifier"`
		Body ProbeInput
	}) (*ProbeResponse, error) {
		if input.Body.Command == "" {
			return nil, huma.Error422UnprocessableEntity("probe command is required")
		}
		err := svc.Update(input.ID, probes.ProbeSpec{
			Name:    input.Body.Name,
			Command: input.Body.Command,
			Enabled: input.Body.Enabled,
		})
		if err != nil {
			return nil, probeErr(err)
		}
		st, err := svc.Get(input.ID)
		if err != nil {
			return nil, probeErr(err)
		}
		return &ProbeResponse{Body: st}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete-probe",
		Method:        http.MethodDelete,
		Path:          "/api/probes/{id}",
		Summary:       "Delete probe",
		Description:   "Stop the probe if running and remove its spec.",
		Tags:          []string{"probes"},
		Security:      withAuth(),
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{401, 404},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id" doc:"Probe identifier"`
	}) (*struct{}, error) {
		if err := svc.Remove(input.ID); err != nil {
			return nil, probeErr(err)
		}
		return nil, nil
	})

	// Lifecycle operations share a handler shape
	type lifecycleInput struct {
		ID string `path:"id" doc:"Probe identifier"`
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "start-probe",
		Method:      http.MethodPost,
		Path:        "/api/probes/{id}/start",
		Summary:     "Start probe",
		Tags:        []string{"probes"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 500},
	}, func(ctx context.Context, input *lifecycleInput) (*ProbeResponse, error) {
		if err := svc.Start(input.ID); err != nil {
			return nil, probeErr(err)
		}
		st, err := svc.Get(input.ID)
		if err != nil {
			return nil, probeErr(err)
		}
		return &ProbeResponse{Body: st}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-probe",
		Method:      http.MethodPost,
		Path:        "/api/probes/{id}/stop",
		Summary:     "Stop probe",
		Tags:        []string{"probes"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 500},
	}, func(ctx context.Context, input *lifecycleInput) (*ProbeResponse, error) {
		if err := svc.Stop(input.ID); err != nil {
			return nil, probeErr(err)
		}
		st, err := svc.Get(input.ID)
		if err != nil {
			return nil, probeErr(err)
		}
		return &ProbeResponse{Body: st}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "restart-probe",
		Method:      http.MethodPost,
		Path:        "/api/probes/{id}/restart",
		Summary:     "Restart probe",
		Tags:        []string{"probes"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 500},
	}, func(ctx context.Context, input *lifecycleInput) (*ProbeResponse, error) {
		if err := svc.Restart(input.ID); err != nil {
			return nil, probeErr(err)
		}
		st, err := svc.Get(input.ID)
		if err != nil {
			return nil, probeErr(err)
		}
		return &ProbeResponse{Body: st}, nil
	})
}
