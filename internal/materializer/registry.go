package materializer

import (
	"errors"
	"fmt"

	"ArticleRecommender/internal/domain"
)

var errUnknownType = errors.New("no builder registered for type")

// agentBuilder turns the second-hop statements of one object into an agent record.
type agentBuilder func(stmts []statement) domain.AgentRecord

// registry keeps a mapping from @type values to agent builders.
type registry struct {
	builders map[string]agentBuilder
}

// defaultRegistry knows the Person and Organization shapes.
func defaultRegistry() *registry {
	reg := &registry{builders: map[string]agentBuilder{}}
	reg.register("Person", buildPerson)
	reg.register("Organization", buildOrganization)
	return reg
}

func (r *registry) register(typeName string, builder agentBuilder) {
	r.builders[typeName] = builder
}

func (r *registry) resolve(typeName string) (agentBuilder, error) {
	if builder, ok := r.builders[typeName]; ok {
		return builder, nil
	}
	return nil, fmt.Errorf("%w: %q", errUnknownType, typeName)
}
