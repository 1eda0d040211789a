package script

import (
	"os"
	"os/exec"
	"strings"

	"github.com/marcelocantos/rulemk"
)

// runRecipe expands and runs each recipe line through "sh -c", streaming
// stdout/stderr, the same shelling-out shape as the teacher's
// Executor.executeRecipe (marcelocantos-mk/exec.go) trimmed to this
// package's scope: no @/- recipe-line prefixes and no dry-run mode.
func runRecipe(env *rulemk.Env, recipe []string, target string, depends []string, bindings map[string]string) error {
	for name, value := range bindings {
		env.Set(name, value)
	}
	env.Set("target", target)
	env.Set("inputs", strings.Join(depends, " "))
	if len(depends) > 0 {
		env.Set("input", depends[0])
	}

	for _, line := range recipe {
		expanded := expand(env, line)
		cmd := exec.Command("sh", "-c", expanded)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return err
		}
	}
	return nil
}
