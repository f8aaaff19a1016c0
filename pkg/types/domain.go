package types

// CatalogModel describes a model the host knows how to serve.
type CatalogModel struct {
	// Unique model name used as the assignment key.
	// example: llama-7b
	Name string `json:"name" yaml:"name" toml:"name" example:"llama-7b"`
	// Repository path of the weights (Hugging Face style org/name).
	// example: meta-llama/Llama-2-7b-hf
	ModelPath string `json:"model_path" yaml:"model_path" toml:"model_path" example:"meta-llama/Llama-2-7b-hf"`
	// Maximum context length the model supports; assignments may not exceed it.
	// example: 4096
	DefaultNCtx int `json:"default_n_ctx" yaml:"default_n_ctx" toml:"default_n_ctx" example:"4096"`
	// Human-friendly description.
	Description string `json:"description,omitempty" yaml:"description" toml:"description"`
	// Optional family (e.g., llama, mistral, starcoder).
	// example: llama
	Family string `json:"family,omitempty" yaml:"family" toml:"family" example:"llama"`
	// Whether LoRA adapters can be attached to this model.
	SupportsLoRA bool `json:"supports_lora" yaml:"supports_lora" toml:"supports_lora"`
	// GPU shard counts the model is known to run with. Informational only.
	// example: [1,2,4]
	SupportedGPUsShards []int `json:"supported_gpus_shards,omitempty" yaml:"supported_gpus_shards" toml:"supported_gpus_shards"`
}

// AssignmentRecord is the committed placement of one model.
type AssignmentRecord struct {
	GPUsShard int  `json:"gpus_shard"`
	ShareGPU  bool `json:"share_gpu"`
	NCtx      int  `json:"n_ctx"`
}

// IntegrationToggles enables third-party API providers for the whole host.
type IntegrationToggles struct {
	OpenAI    bool `json:"openai_api_enable"`
	Anthropic bool `json:"anthropic_api_enable"`
	Groq      bool `json:"groq_api_enable"`
	Cerebras  bool `json:"cerebras_api_enable"`
	Gemini    bool `json:"gemini_api_enable"`
	XAI       bool `json:"xai_api_enable"`
	DeepSeek  bool `json:"deepseek_api_enable"`
}

// AssignmentDocument is the persisted assignment store.
type AssignmentDocument struct {
	ModelAssign map[string]AssignmentRecord `json:"model_assign"`
	IntegrationToggles
}

// Clone returns a deep copy of the document.
func (d AssignmentDocument) Clone() AssignmentDocument {
	out := AssignmentDocument{
		ModelAssign:        make(map[string]AssignmentRecord, len(d.ModelAssign)),
		IntegrationToggles: d.IntegrationToggles,
	}
	for k, v := range d.ModelAssign {
		out.ModelAssign[k] = v
	}
	return out
}

// AdapterRef identifies one LoRA checkpoint of a finetune run.
type AdapterRef struct {
	RunID      string `json:"run_id"`
	Checkpoint string `json:"checkpoint"`
}

// AdapterEntry lists the active adapters of one model.
type AdapterEntry struct {
	Loras []AdapterRef `json:"loras"`
}

// AdapterRegistry maps model name to its active adapters.
type AdapterRegistry map[string]AdapterEntry

// Clone returns a deep copy of the registry.
func (r AdapterRegistry) Clone() AdapterRegistry {
	out := make(AdapterRegistry, len(r))
	for k, v := range r {
		loras := make([]AdapterRef, len(v.Loras))
		copy(loras, v.Loras)
		out[k] = AdapterEntry{Loras: loras}
	}
	return out
}
