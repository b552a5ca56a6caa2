package workspace

import (
	"context"

	"github.com/vortexhq/vortex/internal/entity"
	"github.com/vortexhq/vortex/internal/errdef"
	"github.com/vortexhq/vortex/internal/vars"
)

// BuildContext assembles the resolution scope chain for one execution:
// secrets of the active environment, then the environment's variables, then
// the collection's variables, then workspace globals. Everything is loaded
// fresh from disk per call - no cache, no invalidation - trading a little I/O
// for crash consistency.
//
// A missing environment or globals file simply contributes an empty scope;
// only real I/O or decode failures propagate.
func (r *Repo) BuildContext(ctx context.Context, envName string, col *entity.Collection) (*vars.Context, error) {
	scopes := make([]vars.Scope, 0, 4)

	if envName != "" {
		secretValues, err := r.SecretsFor(ctx, envName)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, vars.ValueScope("secrets", secretValues))

		env, err := r.LoadEnvironment(ctx, envName)
		switch {
		case err == nil:
			scopes = append(scopes, vars.NewScope("environment", env.Variables))
		case errdef.IsCode(err, errdef.CodeNotFound):
			scopes = append(scopes, vars.NewScope("environment", nil))
		default:
			return nil, err
		}
	}

	if col != nil {
		scopes = append(scopes, vars.NewScope("collection", col.Variables))
	}

	globals, err := r.LoadEnvironment(ctx, GlobalsName)
	switch {
	case err == nil:
		scopes = append(scopes, vars.NewScope(GlobalsName, globals.Variables))
	case errdef.IsCode(err, errdef.CodeNotFound):
		scopes = append(scopes, vars.NewScope(GlobalsName, nil))
	default:
		return nil, err
	}

	labels := make([]string, len(scopes))
	for i, scope := range scopes {
		labels[i] = scope.Label()
	}
	r.logger.Debug("assembled resolution scopes", "environment", envName, "scopes", labels)

	return vars.NewContext(scopes...), nil
}
