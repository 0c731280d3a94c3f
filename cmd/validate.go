package cmd

import (
	"fmt"
	"io"

	"github.com/reactsim/reactsim/sim"
	"github.com/reactsim/reactsim/sim/model"
)

// validateModel parses the model and registers it with a scratch simulation,
// which catches every model-definition error without running anything.
func validateModel(path string, out io.Writer) error {
	spec, err := model.LoadModelSpec(path)
	if err != nil {
		return err
	}
	if _, err := model.Build(spec, sim.NewSimulation(sim.NewSimulationKey(0))); err != nil {
		return fmt.Errorf("model %s: %w", path, err)
	}
	name := spec.Name
	if name == "" {
		name = path
	}
	fmt.Fprintf(out, "model %s OK: %d species, %d propensity reactions, %d delayed reactions\n",
		name, len(spec.Species), len(spec.Reactions), len(spec.Delayed))
	return nil
}
