package tools

// ParamSpec describes one tool parameter for discovery listings.
type ParamSpec struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// Spec describes one tool. The set below is the whole tool surface; every
// transport (HTTP, MCP) exposes exactly this contract.
type Spec struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []ParamSpec `json:"parameters"`
}

func Specs() []Spec {
	return []Spec{
		{
			Name:        "load_model",
			Description: "Load a metabolic model into the registry",
			Params: []ParamSpec{
				{Name: "model_id", Type: "string", Required: true, Description: "Model identifier (e.g. 'textbook')"},
				{Name: "model_path", Type: "string", Required: false, Description: "Path to a JSON model document"},
			},
		},
		{
			Name:        "get_model_stats",
			Description: "Get basic statistics about a loaded model",
			Params: []ParamSpec{
				{Name: "model_id", Type: "string", Required: true},
			},
		},
		{
			Name:        "optimize_model",
			Description: "Run flux-balance optimization on a loaded model",
			Params: []ParamSpec{
				{Name: "model_id", Type: "string", Required: true},
			},
		},
		{
			Name:        "get_reaction_info",
			Description: "Get information about a specific reaction",
			Params: []ParamSpec{
				{Name: "model_id", Type: "string", Required: true},
				{Name: "reaction_id", Type: "string", Required: true},
			},
		},
		{
			Name:        "run_fva",
			Description: "Run flux variability analysis",
			Params: []ParamSpec{
				{Name: "model_id", Type: "string", Required: true},
				{Name: "reaction_ids", Type: "array", Required: false, Description: "Specific reactions (default: a configurable leading subset)"},
			},
		},
		{
			Name:        "gene_knockout",
			Description: "Simulate a gene knockout and report growth impact",
			Params: []ParamSpec{
				{Name: "model_id", Type: "string", Required: true},
				{Name: "gene_id", Type: "string", Required: true},
			},
		},
	}
}
