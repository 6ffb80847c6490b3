package supervisor

import "gopkg.in/yaml.v2"

// yamlMarshal is a thin indirection over yaml.Marshal so config.go reads
// the same as the teacher's MarshalConfig (qemu.go) without importing
// yaml.v2 directly there.
func yamlMarshal(v interface{}) ([]byte, error) {
	return yaml.Marshal(v)
}
