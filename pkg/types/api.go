package types

// ModelAssignRequest is the requested placement of one model.
type ModelAssignRequest struct {
	// Number of GPUs the model's workers occupy. Defaults to 1 when omitted.
	// example: 1
	GPUsShard *int `json:"gpus_shard,omitempty" example:"1"`
	// Whether the model may share its GPUs with other shared models.
	// example: false
	ShareGPU bool `json:"share_gpu" example:"false"`
	// Required context length; must not exceed the catalog default.
	// example: 4096
	NCtx *int `json:"n_ctx,omitempty" example:"4096"`
}

// AssignRequest is the body of POST /tab-host-models-assign.
type AssignRequest struct {
	// Requested placements keyed by model name. Replaces the current assignment.
	ModelAssign map[string]ModelAssignRequest `json:"model_assign"`
	IntegrationToggles
}

// ModifyLorasRequest is the body of POST /tab-host-modify-loras.
type ModifyLorasRequest struct {
	// Base model the adapter applies to.
	// example: llama-7b
	Model string `json:"model" example:"llama-7b"`
	// Either "add" or "remove".
	// example: add
	Mode string `json:"mode" example:"add"`
	// Finetune run identifier.
	// example: run1
	RunID string `json:"run_id" example:"run1"`
	// Checkpoint name within the run.
	// example: ckpt-100
	Checkpoint string `json:"checkpoint" example:"ckpt-100"`
}

// ModelView is one catalog model as shown by GET /tab-host-models-get.
type ModelView struct {
	CatalogModel
	// Whether the model currently has an assignment record.
	IsAssigned bool `json:"is_assigned"`
	// Active LoRA adapters for the model.
	Loras []AdapterRef `json:"loras"`
}

// ModelsView merges the catalog view with the assignment document.
type ModelsView struct {
	Models []ModelView `json:"models"`
	AssignmentDocument
}

// Device describes one GPU visible to the host.
type Device struct {
	// Ordinal used by CUDA_VISIBLE_DEVICES.
	// example: 0
	Index int `json:"index" example:"0"`
	// example: NVIDIA GeForce RTX 4090
	Name string `json:"name" example:"NVIDIA GeForce RTX 4090"`
	// example: nvidia
	Vendor string `json:"vendor" example:"nvidia"`
	// example: 1024
	MemUsedMB int64 `json:"mem_used_mb" example:"1024"`
	// example: 24564
	MemTotalMB int64 `json:"mem_total_mb" example:"24564"`
	// Degrees Celsius, -1 when unknown.
	// example: 41
	TempCelsius int `json:"temp_celsius" example:"41"`
}

// HostInfo summarizes host resources next to the GPU list.
type HostInfo struct {
	Hostname       string `json:"hostname"`
	CPUCount       int    `json:"cpu_count"`
	MemTotalMB     uint64 `json:"mem_total_mb"`
	MemAvailableMB uint64 `json:"mem_available_mb"`
}

// DeviceList is returned by GET /tab-host-have-devices.
type DeviceList struct {
	GPUs []Device `json:"gpus"`
	// False when GPU detection failed; an empty GPUs list is then not authoritative.
	Detected bool     `json:"gpus_detected"`
	Host     HostInfo `json:"host"`
	// Unix seconds when the list was collected.
	CollectedAt int64 `json:"collected_at_unix"`
}

// HistoryEntry is one committed mutation.
type HistoryEntry struct {
	// example: 2f1c8a3e-5b7d-4c5e-9a51-0e4b8a1f2c3d
	ID string `json:"id" example:"2f1c8a3e-5b7d-4c5e-9a51-0e4b8a1f2c3d"`
	// example: assign
	Op string `json:"op" example:"assign"`
	// Model name for adapter operations; empty for assignments.
	Model string `json:"model,omitempty"`
	// Short human-readable summary.
	Detail string `json:"detail"`
	// example: 1700000000
	AtUnix int64 `json:"at_unix" example:"1700000000"`
}

// HistoryResponse wraps GET /tab-host-history.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: n_ctx must be set for llama-7b
	Error string `json:"error" example:"n_ctx must be set for llama-7b"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
	// Validation kind when the error is a client input error.
	// example: MissingContextLength
	Kind string `json:"kind,omitempty" example:"MissingContextLength"`
}
