package wireguard

import "strings"

// PeerStatus is the live state of one peer as reported by `wg show`.
type PeerStatus struct {
	Endpoint        string
	AllowedIPs      string
	LatestHandshake string
	Transfer        string
}

// ParseStatus parses the line-oriented `wg show` dump into per-peer status,
// keyed by public key. Each peer block starts with a "peer:" line; lines
// that are not recognized are ignored, so additional status fields in newer
// wg versions pass through harmlessly.
func ParseStatus(text string) map[string]PeerStatus {
	peers := make(map[string]PeerStatus)
	current := ""

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if rest, ok := strings.CutPrefix(trimmed, "peer:"); ok {
			current = strings.TrimSpace(rest)
			peers[current] = PeerStatus{}
			continue
		}
		if current == "" {
			continue
		}

		status := peers[current]
		switch {
		case strings.HasPrefix(trimmed, "endpoint:"):
			status.Endpoint = strings.TrimSpace(strings.TrimPrefix(trimmed, "endpoint:"))
		case strings.HasPrefix(trimmed, "allowed ips:"):
			status.AllowedIPs = strings.TrimSpace(strings.TrimPrefix(trimmed, "allowed ips:"))
		case strings.HasPrefix(trimmed, "latest handshake:"):
			status.LatestHandshake = strings.TrimSpace(strings.TrimPrefix(trimmed, "latest handshake:"))
		case strings.HasPrefix(trimmed, "transfer:"):
			status.Transfer = strings.TrimSpace(strings.TrimPrefix(trimmed, "transfer:"))
		}
		peers[current] = status
	}

	return peers
}
