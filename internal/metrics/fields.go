package metrics

// Common metric attribute keys to keep telemetry consistent/searchable.
const (
	AttrMethod  = "method"
	AttrPath    = "path"
	AttrStatus  = "status"
	AttrWidget  = "widget"
	AttrBackend = "backend"
	AttrOutcome = "outcome"
	AttrJob     = "job"
)
