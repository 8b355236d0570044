package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pickup-route-service/internal/domain"
)

const defaultOSRMBaseURL = "https://router.project-osrm.org"

// osrmFetcher talks to an OSRM table endpoint. The table service takes all
// coordinates in the URL path and restricts the computed block through the
// sources/destinations index parameters, which is why requests must stay small
// enough to fit the server's URL-length ceiling.
type osrmFetcher struct {
	client  *http.Client
	baseURL string
	profile string
}

func newOSRMFetcher(baseURL, profile string) *osrmFetcher {
	if baseURL == "" {
		baseURL = defaultOSRMBaseURL
	}
	if profile == "" {
		profile = "driving"
	}
	return &osrmFetcher{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: baseURL,
		profile: profile,
	}
}

func (f *osrmFetcher) name() string { return "osrm" }

type osrmTableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Durations [][]*float64 `json:"durations"`
	Distances [][]*float64 `json:"distances"`
}

func (f *osrmFetcher) fetchSubMatrix(
	ctx context.Context,
	coords []domain.Coordinates,
	sources []int,
	destinations []int,
) ([][]int, [][]int, error) {
	segments := make([]string, 0, len(coords))
	for _, c := range coords {
		segments = append(segments, c.PathSegment())
	}
	endpoint := fmt.Sprintf("%s/table/v1/%s/%s", f.baseURL, f.profile, strings.Join(segments, ";"))

	q := url.Values{}
	q.Set("annotations", "duration,distance")
	q.Set("sources", joinIndices(sources))
	q.Set("destinations", joinIndices(destinations))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("osrm table request: %w", err)
	}

	body, err := execute(f.client, req, f.name())
	if err != nil {
		return nil, nil, err
	}

	var decoded osrmTableResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, nil, &ProviderError{Provider: f.name(), Detail: "decode table response: " + err.Error()}
	}
	if decoded.Code != "Ok" {
		return nil, nil, &ProviderError{Provider: f.name(), Detail: fmt.Sprintf("table code %s: %s", decoded.Code, decoded.Message)}
	}
	if len(decoded.Durations) != len(sources) || len(decoded.Distances) != len(sources) {
		return nil, nil, &ProviderError{
			Provider: f.name(),
			Detail: fmt.Sprintf("expected %d rows, got durations=%d distances=%d",
				len(sources), len(decoded.Durations), len(decoded.Distances)),
		}
	}

	timeMin := make([][]int, len(sources))
	distM := make([][]int, len(sources))
	for i := range decoded.Durations {
		if len(decoded.Durations[i]) != len(destinations) || len(decoded.Distances[i]) != len(destinations) {
			return nil, nil, &ProviderError{
				Provider: f.name(),
				Detail:   fmt.Sprintf("row %d does not cover %d destinations", i, len(destinations)),
			}
		}

		timeMin[i] = make([]int, len(destinations))
		distM[i] = make([]int, len(destinations))
		for j := range decoded.Durations[i] {
			// A null cell means OSRM found no path; mark it unreachable
			// rather than pretending the hop is free.
			if decoded.Durations[i][j] == nil || decoded.Distances[i][j] == nil {
				timeMin[i][j] = domain.UnreachableTimeMin
				distM[i][j] = domain.UnreachableDistM
				continue
			}
			timeMin[i][j] = int(math.Round(*decoded.Durations[i][j] / 60))
			distM[i][j] = int(math.Round(*decoded.Distances[i][j]))
		}
	}

	return timeMin, distM, nil
}

func joinIndices(idx []int) string {
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ";")
}
