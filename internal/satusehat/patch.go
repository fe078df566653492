package satusehat

// PatchOp is a single JSON-Patch operation. The platform accepts partial
// updates only as "application/json-patch+json" arrays of these.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// ReplaceOp builds a "replace" operation.
func ReplaceOp(path string, value any) PatchOp {
	return PatchOp{Op: "replace", Path: path, Value: value}
}

// AddOp builds an "add" operation.
func AddOp(path string, value any) PatchOp {
	return PatchOp{Op: "add", Path: path, Value: value}
}
