package dto

// GeminiProxyRequest is the body accepted by the proxy's Gemini passthrough.
type GeminiProxyRequest struct {
	Prompt       string   `json:"prompt"`
	SystemPrompt string   `json:"systemPrompt"`
	Temperature  *float32 `json:"temperature"`
}

// ProxyErrorResponse is the error body returned by the proxy endpoints.
type ProxyErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ProxyHealthResponse is returned by the proxy health probe.
type ProxyHealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
