package distance

import (
	"io"
	"net/http"
	"strings"
)

// execute runs the request and returns the response body, translating
// transport and HTTP-status failures into ProviderError.
func execute(client *http.Client, req *http.Request, provider string) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: provider, Detail: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: provider, Detail: "read response: " + err.Error()}
	}

	if resp.StatusCode >= 400 {
		return nil, &ProviderError{
			Provider: provider,
			Status:   resp.StatusCode,
			Detail:   strings.TrimSpace(string(body)),
		}
	}

	return body, nil
}
