package models

import (
	"time"

	"github.com/google/uuid"
)

// Site is one network definition. WgInterfaceIP holds the interface address
// in CIDR form (e.g. "10.88.0.1/24"); the address part is the gateway.
type Site struct {
	ID            uuid.UUID `json:"id" db:"id"`
	WgInterfaceIP string    `json:"wg_interface_ip" db:"wg_interface_ip"`
}

// Peer is the desired state of one provisioned VPN endpoint. The live
// WireGuard interface is a derived projection of these rows.
type Peer struct {
	ID                   uuid.UUID  `json:"id" db:"id"`
	SiteID               uuid.UUID  `json:"site_id" db:"site_id"`
	UserID               *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	Label                string     `json:"label" db:"label"`
	PublicKey            string     `json:"public_key" db:"public_key"`
	PresharedKey         *string    `json:"-" db:"preshared_key"`
	AddressCIDR          string     `json:"address_cidr" db:"address_cidr"`
	AllowedIPs           string     `json:"allowed_ips" db:"allowed_ips"`
	DNSServers           *string    `json:"dns_servers,omitempty" db:"dns_servers"`
	PersistentKeepaliveS *int       `json:"persistent_keepalive_s,omitempty" db:"persistent_keepalive_s"`
	Enabled              bool       `json:"enabled" db:"enabled"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
}

// PeerRow is a desired-state row joined with the owning username.
type PeerRow struct {
	Peer
	Username *string `json:"username,omitempty" db:"username"`
}

// PeerView joins a desired-state row with live interface status. Live is
// false for peers that are provisioned but not present on the interface.
type PeerView struct {
	PeerRow
	Live            bool   `json:"live"`
	Endpoint        string `json:"endpoint,omitempty"`
	LiveAllowedIPs  string `json:"live_allowed_ips,omitempty"`
	LatestHandshake string `json:"latest_handshake,omitempty"`
	Transfer        string `json:"transfer,omitempty"`
}
