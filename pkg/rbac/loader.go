package rbac

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type policyFile struct {
	Roles map[string]PermissionSet `yaml:"roles"`
}

// FromFile builds a store from a YAML policy file. The file replaces the
// compiled-in table wholesale; it is read once at startup, there is no
// reload. The file must define the fallback role, since every lookup miss
// resolves to it.
func FromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	if len(pf.Roles) == 0 {
		return nil, fmt.Errorf("policy file %s defines no roles", path)
	}
	if _, ok := pf.Roles[FallbackRole]; !ok {
		return nil, fmt.Errorf("policy file %s does not define the fallback role %q", path, FallbackRole)
	}

	for role, ps := range pf.Roles {
		if ps.Schema == nil {
			continue
		}
		for key, filter := range ps.Schema.FieldFilters {
			switch filter.Mode {
			case FilterInclude, FilterExclude:
			default:
				return nil, fmt.Errorf("role %q field filter %q: unknown mode %q", role, key, filter.Mode)
			}
		}
	}

	return NewStore(pf.Roles), nil
}
