package appconf

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

// EnvFlagToEnvironment maps an environment name to an Environment. Unknown
// names are treated as Development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// Set implements flag.Value.
func (e *Environment) Set(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev", "test", "production", "prod":
		*e = EnvFlagToEnvironment(s)
		return nil
	}
	return fmt.Errorf("unknown environment %q", s)
}

func (e *Environment) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return e.Set(s)
}
