package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ykarpov/procnode/internal/childpoll"
)

// PollData reports the outcome of one non-destructive child poll.
type PollData struct {
	Kind     string `json:"kind" enum:"no_children,none_pending,pending" doc:"Poll outcome"`
	Pid      int    `json:"pid,omitempty" doc:"Waitable child pid, present when kind is pending"`
	Sentinel int    `json:"sentinel" doc:"Collapsed result: -1 no children, 0 none pending, pid otherwise"`
	Alive    *bool  `json:"alive,omitempty" doc:"Whether the pending pid still exists, when verification was requested"`
}

// PollResponse wraps PollData for huma.
type PollResponse struct {
	Body PollData
}

// registerPollRoutes registers the child polling endpoint.
func (s *Server) registerPollRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "poll-children",
		Method:      http.MethodGet,
		Path:        "/api/poll",
		Summary:     "Poll children",
		Description: "Poll for a waitable child without consuming its exit status. The child stays waitable for the caller's own wait.",
		Tags:        []string{"children"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct {
		Verify bool `query:"verify" doc:"Cross-check a pending pid against the process table"`
	}) (*PollResponse, error) {
		r := childpoll.Poll()

		data := PollData{
			Kind:     r.Kind.String(),
			Sentinel: r.Sentinel(),
		}
		if r.Kind == childpoll.KindPending {
			data.Pid = r.Pid
			if input.Verify {
				alive, err := childpoll.Verify(r.Pid)
				if err == nil {
					data.Alive = &alive
				}
			}
		}
		return &PollResponse{Body: data}, nil
	})
}
