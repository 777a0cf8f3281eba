package secrets

import (
	"fmt"

	"github.com/pkg/errors"
)

// Supported API key sources.
const (
	SourceEnv = "env"
	SourceSSM = "ssm"
)

// Getter returns the value of a named secret.
type Getter interface {
	GetSecret(name string) (string, error)
}

// ResolveAPIKey returns the API key for the given source. For SourceEnv the key is the value already read
// from the environment; for SourceSSM it is fetched once from the named parameter.
func ResolveAPIKey(source, envValue, parameter string, getter Getter) (string, error) {
	switch source {
	case SourceEnv, "":
		return envValue, nil
	case SourceSSM:
		if parameter == "" {
			return "", errors.New("api key source is ssm but no parameter name was given")
		}
		if getter == nil {
			return "", errors.New("api key source is ssm but no SSM client is available")
		}
		key, err := getter.GetSecret(parameter)
		if err != nil {
			return "", errors.Wrap(err, "failed to resolve api key")
		}
		return key, nil
	default:
		return "", fmt.Errorf("unsupported api key source: %s", source)
	}
}
