package command

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/cli"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
)

// lambdaResponse is the invocation response shape shared by both Lambda
// entry points, an HTTP style status code plus the JSON encoded result.
type lambdaResponse struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// newLambdaResponse wraps a run result into the Lambda response envelope.
func newLambdaResponse(result *structs.Result) (lambdaResponse, error) {
	body, err := json.Marshal(result)
	if err != nil {
		return lambdaResponse{}, err
	}

	return lambdaResponse{
		StatusCode: result.StatusCode(),
		Body:       string(body),
	}, nil
}

// writeResult renders a run result on the UI and converts it into a
// process exit code for one-shot invocations.
func writeResult(ui cli.Ui, result *structs.Result) int {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		ui.Error(fmt.Sprintf("unable to render the result: %v", err))
		return 1
	}

	ui.Output(string(out))

	if result.StatusCode() != 200 {
		return 1
	}
	return 0
}
