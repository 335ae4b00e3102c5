package reconcile

import "github.com/orlv/nsrvm/internal/domain/config"

// ChildRequest is one entry of a setChildServices request list, prior
// to normalization and parent assignment.
type ChildRequest struct {
	Name   string
	Config config.ServiceConfig
}

// ApplyChildServices implements the setChildServices algorithm (§4.7)
// against desired, the Reconciler's in-progress desired-state map, and
// retained, the parent's previously-registered child name list.
//
// Params:
//   - parentName: P's service name.
//   - maxChilds: P.config.maxChilds.
//   - retained: P's current retained child name list, C.
//   - requested: the new list L from this setChildServices call.
//   - desired: the desired services map; mutated in place.
//   - allowedAPI: P's allowedAPI set; mutated in place and returned.
//
// Returns:
//   - []string: the updated retained child name list, C.
//   - []string: the updated allowedAPI set for P.
//   - bool: false if the call was rejected outright (|L| > maxChilds);
//     desired and allowedAPI are left untouched in that case.
func ApplyChildServices(
	parentName string,
	maxChilds int,
	retained []string,
	requested []ChildRequest,
	desired map[string]config.ServiceConfig,
	allowedAPI []string,
) ([]string, []string, bool) {
	if len(requested) > maxChilds {
		return retained, allowedAPI, false
	}

	requestedNames := make(map[string]bool, len(requested))
	for _, r := range requested {
		requestedNames[r.Name] = true
	}

	// Old children no longer present in the request are dropped from
	// the desired set and from P's allowedAPI.
	nextRetained := make([]string, 0, len(retained))
	for _, old := range retained {
		if requestedNames[old] {
			nextRetained = append(nextRetained, old)
			continue
		}
		delete(desired, old)
		allowedAPI = removeString(allowedAPI, old)
	}

	for _, r := range requested {
		if existing, ok := desired[r.Name]; ok && existing.Parent != "" && existing.Parent != parentName {
			// Contention: a different parent already owns this name.
			// Silent no-op for this entry; the rest of the request
			// still applies.
			continue
		}

		cfg := r.Config.Clone()
		cfg.Name = r.Name
		cfg.Parent = parentName
		if cfg.AllowedAPI == nil {
			cfg.AllowedAPI = []string{}
		}
		desired[r.Name] = cfg

		if !containsString(nextRetained, r.Name) {
			nextRetained = append(nextRetained, r.Name)
		}
		if !containsString(allowedAPI, r.Name) {
			allowedAPI = append(allowedAPI, r.Name)
		}
	}

	return nextRetained, allowedAPI, true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
