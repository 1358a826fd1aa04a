package dto

type NodeErrorResponse struct {
	NodeID string `json:"node_id"`
	Level  string `json:"level"`
	Error  string `json:"error"`
}

type GenerateEmbeddingsResponse struct {
	Domains    int                 `json:"domains"`
	Objectives int                 `json:"objectives"`
	Bullets    int                 `json:"bullets"`
	SubBullets int                 `json:"sub_bullets"`
	Failures   []NodeErrorResponse `json:"failures,omitempty"`
}
