// Policymodels compiles and executes policy models: decision graphs that
// interview a user and accumulate a policy value from the answers.
//
// Usage:
//
//	# Check a model for errors and warnings
//	policymodels compile --model model.yaml
//
//	# Answer the first two questions and keep the snapshot
//	policymodels run --model model.yaml --answer yes --answer no --save
//
//	# Continue a stored run
//	policymodels resume --model model.yaml --run-id <id> --answer yes
//
//	# Enumerate every path that yields a value
//	policymodels query --model model.yaml --target Storage=Encrypted
//
//	# Serve metrics and health checks while watching the model file
//	policymodels serve --config config.yaml
package main

import (
	"fmt"
	"os"

	"github.com/ofirbed/DataTaggingLibrary/pkg/cli"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}
