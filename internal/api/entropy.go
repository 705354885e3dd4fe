package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ykarpov/procnode/internal/entropy"
)

// EntropyData describes the entropy source and its bit variation status.
type EntropyData struct {
	Device   string `json:"device" example:"/dev/hwrng" doc:"Device the source reads from"`
	Hardware bool   `json:"hardware" doc:"True when a hardware RNG backs the source"`
	Trials   int    `json:"trials" doc:"Number of random bits sampled"`
	BitsVary bool   `json:"bits_vary" doc:"True when the sampled low bits took both values"`
	Error    string `json:"error,omitempty" doc:"Variation check failure, if any"`
}

// EntropyResponse wraps EntropyData for huma.
type EntropyResponse struct {
	Body EntropyData
}

// registerEntropyRoutes registers the entropy status endpoint.
func (s *Server) registerEntropyRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-entropy",
		Method:      http.MethodGet,
		Path:        "/api/entropy",
		Summary:     "Entropy status",
		Description: "Sample the entropy source and verify its low bits vary.",
		Tags:        []string{"entropy"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(ctx context.Context, input *struct {
		Trials int `query:"trials" default:"64" minimum:"2" maximum:"4096" doc:"Bits to sample"`
	}) (*EntropyResponse, error) {
		src, err := entropy.OpenDevice(s.options.EntropyDevice)
		if err != nil {
			return nil, huma.Error503ServiceUnavailable("no entropy device available", err)
		}
		defer src.Close()

		data := EntropyData{
			Device:   src.Device(),
			Hardware: entropy.HardwareAvailable(),
			Trials:   input.Trials,
			BitsVary: true,
		}
		if checkErr := src.CheckBitVariation(input.Trials); checkErr != nil {
			data.BitsVary = false
			data.Error = checkErr.Error()
		}
		return &EntropyResponse{Body: data}, nil
	})
}
