package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pickup-route-service/internal/domain"
)

const defaultGoogleEndpoint = "https://routes.googleapis.com/distanceMatrix/v2:computeRouteMatrix"

// googleFetcher talks to the Google Routes computeRouteMatrix batch endpoint.
// Unlike OSRM, the service reports a per-pair status instead of null cells; any
// non-success status is translated into the unreachable sentinels, never into
// a missing cell.
type googleFetcher struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

func newGoogleFetcher(endpoint, apiKey string) *googleFetcher {
	if endpoint == "" {
		endpoint = defaultGoogleEndpoint
	}
	return &googleFetcher{
		client:   &http.Client{Timeout: 120 * time.Second},
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

func (f *googleFetcher) name() string { return "google" }

type googleWaypoint struct {
	Waypoint struct {
		Location struct {
			LatLng struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"latLng"`
		} `json:"location"`
	} `json:"waypoint"`
}

type googleMatrixRequest struct {
	Origins      []googleWaypoint `json:"origins"`
	Destinations []googleWaypoint `json:"destinations"`
	TravelMode   string           `json:"travelMode"`
}

type googleMatrixElement struct {
	OriginIndex      int    `json:"originIndex"`
	DestinationIndex int    `json:"destinationIndex"`
	Duration         string `json:"duration"`
	DistanceMeters   int    `json:"distanceMeters"`
	Status           struct {
		Code int `json:"code"`
	} `json:"status"`
}

func waypointFor(c domain.Coordinates) googleWaypoint {
	var w googleWaypoint
	w.Waypoint.Location.LatLng.Latitude = c.Lat
	w.Waypoint.Location.LatLng.Longitude = c.Lon
	return w
}

func (f *googleFetcher) fetchSubMatrix(
	ctx context.Context,
	coords []domain.Coordinates,
	sources []int,
	destinations []int,
) ([][]int, [][]int, error) {
	origins := make([]googleWaypoint, len(sources))
	for i, s := range sources {
		origins[i] = waypointFor(coords[s])
	}
	dests := make([]googleWaypoint, len(destinations))
	for i, d := range destinations {
		dests[i] = waypointFor(coords[d])
	}

	payload, err := json.Marshal(googleMatrixRequest{
		Origins:      origins,
		Destinations: dests,
		TravelMode:   "DRIVE",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal route matrix request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("route matrix request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", f.apiKey)
	req.Header.Set("X-Goog-FieldMask", "originIndex,destinationIndex,duration,distanceMeters,status")

	body, err := execute(f.client, req, f.name())
	if err != nil {
		return nil, nil, err
	}

	var elements []googleMatrixElement
	if err := json.Unmarshal(body, &elements); err != nil {
		return nil, nil, &ProviderError{Provider: f.name(), Detail: "decode route matrix response: " + err.Error()}
	}

	timeMin := make([][]int, len(sources))
	distM := make([][]int, len(sources))
	filled := make([][]bool, len(sources))
	for i := range timeMin {
		timeMin[i] = make([]int, len(destinations))
		distM[i] = make([]int, len(destinations))
		filled[i] = make([]bool, len(destinations))
	}

	for _, el := range elements {
		if el.OriginIndex < 0 || el.OriginIndex >= len(sources) ||
			el.DestinationIndex < 0 || el.DestinationIndex >= len(destinations) {
			return nil, nil, &ProviderError{
				Provider: f.name(),
				Detail:   fmt.Sprintf("element indices (%d,%d) out of range", el.OriginIndex, el.DestinationIndex),
			}
		}

		if el.Status.Code != 0 {
			timeMin[el.OriginIndex][el.DestinationIndex] = domain.UnreachableTimeMin
			distM[el.OriginIndex][el.DestinationIndex] = domain.UnreachableDistM
			filled[el.OriginIndex][el.DestinationIndex] = true
			continue
		}

		seconds, err := parseGoogleDuration(el.Duration)
		if err != nil {
			return nil, nil, &ProviderError{
				Provider: f.name(),
				Detail:   fmt.Sprintf("element (%d,%d): %v", el.OriginIndex, el.DestinationIndex, err),
			}
		}

		timeMin[el.OriginIndex][el.DestinationIndex] = int(math.Round(seconds / 60))
		distM[el.OriginIndex][el.DestinationIndex] = el.DistanceMeters
		filled[el.OriginIndex][el.DestinationIndex] = true
	}

	for i := range filled {
		for j := range filled[i] {
			if !filled[i][j] {
				return nil, nil, &ProviderError{
					Provider: f.name(),
					Detail:   fmt.Sprintf("response is missing element (%d,%d)", i, j),
				}
			}
		}
	}

	return timeMin, distM, nil
}

// parseGoogleDuration parses durations of the form "123s".
func parseGoogleDuration(d string) (float64, error) {
	if d == "" {
		return 0, nil
	}
	s := strings.TrimSuffix(d, "s")
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed duration %q", d)
	}
	return seconds, nil
}
