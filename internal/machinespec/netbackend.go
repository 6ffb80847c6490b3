package machinespec

import "strings"

// NetBackend is the closed set of virtio-net back-end transports.
type NetBackend string

const (
	// BackendTap is a tap(4) device.
	BackendTap NetBackend = "tap"
	// BackendNetgraph is a netgraph(4) hook.
	BackendNetgraph NetBackend = "netgraph"
	// BackendNetmap is a netmap(4) port.
	BackendNetmap NetBackend = "netmap"
	// BackendVale is a VALE switch port.
	BackendVale NetBackend = "vale"
)

// InferNetBackend guesses the backend kind from the backend-name prefix,
// used when a virtio-net declaration omits an explicit "type".
func InferNetBackend(name string) (NetBackend, bool) {
	switch {
	case strings.HasPrefix(name, "tap"):
		return BackendTap, true
	case strings.HasPrefix(name, "netgraph"):
		return BackendNetgraph, true
	case strings.HasPrefix(name, "netmap"):
		return BackendNetmap, true
	case strings.HasPrefix(name, "vale"):
		return BackendVale, true
	default:
		return "", false
	}
}

// ParseNetBackend validates an explicit "type" string against the closed
// set of backends.
func ParseNetBackend(s string) (NetBackend, bool) {
	switch NetBackend(s) {
	case BackendTap, BackendNetgraph, BackendNetmap, BackendVale:
		return NetBackend(s), true
	default:
		return "", false
	}
}
