package remotes

import "sort"

// Translate resolves a decoded signal tuple against every registered remote
// and synthesizes key events for each match.
//
// The scan holds the registry lock in shared mode for its full duration, so
// it observes either the pre- or post-state of any concurrent mutation,
// never a torn entry. Remotes and keymaps are visited in sorted name order;
// every keymap whose tuple matches and whose keycode is assigned fires a
// key-down followed by a sync on its remote's endpoint. There is no early
// exit: all matches across all remotes fire. No key-up is synthesized here;
// release handling is left to the consumer of the virtual device.
//
// An unmatched tuple is a no-op. An endpoint emission failure is logged and
// the scan continues with the remaining candidates; failed emissions are not
// included in the returned slice.
func (r *Registry) Translate(protocol, device, command int32) []Emission {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var emissions []Emission

	for _, remoteName := range sortedKeys(r.remotes) {
		remote := r.remotes[remoteName]
		for _, keymapName := range sortedKeys(remote.keymaps) {
			km := remote.keymaps[keymapName]
			if !km.Matches(protocol, device, command) || !km.Assigned() {
				continue
			}

			if err := remote.endpoint.ReportKey(km.Keycode, true); err != nil {
				r.logger.Error("key event emission failed",
					"remote", remoteName,
					"keymap", keymapName,
					"keycode", km.Keycode,
					"error", err,
				)
				continue
			}
			if err := remote.endpoint.Sync(); err != nil {
				r.logger.Error("endpoint sync failed",
					"remote", remoteName, "error", err)
			}

			emissions = append(emissions, Emission{
				Remote:  remoteName,
				Keymap:  keymapName,
				Keycode: km.Keycode,
			})
		}
	}

	if len(emissions) > 0 {
		r.logger.Debug("signal translated",
			"protocol", protocol,
			"device", device,
			"command", command,
			"matches", len(emissions),
		)
	}
	return emissions
}

// sortedKeys returns map keys in sorted order for stable iteration.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
