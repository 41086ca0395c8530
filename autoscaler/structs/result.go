package structs

// ResultStatus categorizes the outcome of one autoscaler invocation.
type ResultStatus string

const (
	// ResultSuccess means a scaling action was taken.
	ResultSuccess ResultStatus = "success"

	// ResultNoAction means the run completed and decided nothing needed to
	// be done.
	ResultNoAction ResultStatus = "no-action"

	// ResultBlocked means the intended action was refused by the ownership
	// verification gate.
	ResultBlocked ResultStatus = "blocked"

	// ResultNotFound means no viable capacity or deletion candidate was
	// found anywhere.
	ResultNotFound ResultStatus = "not-found"

	// ResultInternalError means the run aborted on an unexpected failure.
	ResultInternalError ResultStatus = "internal-error"
)

// Result is the structured outcome of one scale-up or scale-down run. Both
// expected negative outcomes and successes travel through this type; only
// genuinely unexpected failures carry the internal-error status.
type Result struct {
	Status           ResultStatus `json:"status"`
	Message          string       `json:"message"`
	InstanceID       string       `json:"db_identifier,omitempty"`
	InstanceType     string       `json:"instance_type,omitempty"`
	AvailabilityZone string       `json:"availability_zone,omitempty"`
}

// StatusCode maps the result category onto the HTTP style status code the
// Lambda entry points report.
func (r *Result) StatusCode() int {
	switch r.Status {
	case ResultSuccess, ResultNoAction:
		return 200
	case ResultBlocked:
		return 403
	case ResultNotFound:
		return 503
	default:
		return 500
	}
}
