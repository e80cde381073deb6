package services

import (
	"context"
	"fmt"
	"net"

	"github.com/google/uuid"

	"github.com/citsolutions/vpnportal/pkg/models"
)

type SiteStore interface {
	GetDefault(ctx context.Context) (*models.Site, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Site, error)
}

type PeerAddressStore interface {
	AddressesBySite(ctx context.Context, siteID uuid.UUID) ([]string, error)
}

// AddressPool computes the next free host address within a site's subnet.
// The scan itself holds no reservation; the unique constraint on
// (site_id, address_cidr) plus insert-retry closes the allocation race.
type AddressPool struct {
	sites SiteStore
	peers PeerAddressStore
}

func NewAddressPool(sites SiteStore, peers PeerAddressStore) *AddressPool {
	return &AddressPool{sites: sites, peers: peers}
}

// NextAddress returns the lowest unassigned host address of the site as a
// single-host CIDR. The gateway (the interface address, conventionally the
// first usable host) and every ordinal at or below it are never returned.
func (p *AddressPool) NextAddress(ctx context.Context, siteID uuid.UUID) (string, error) {
	site, err := p.sites.GetByID(ctx, siteID)
	if err != nil {
		return "", fmt.Errorf("site lookup failed: %w", err)
	}
	if site == nil {
		return "", ErrNoSite
	}

	gatewayIP, network, err := net.ParseCIDR(site.WgInterfaceIP)
	if err != nil {
		return "", fmt.Errorf("invalid site subnet %q: %w", site.WgInterfaceIP, err)
	}
	gateway := gatewayIP.To4()
	if gateway == nil {
		return "", fmt.Errorf("site subnet %q is not IPv4", site.WgInterfaceIP)
	}

	assigned, err := p.peers.AddressesBySite(ctx, siteID)
	if err != nil {
		return "", fmt.Errorf("failed to load assigned addresses: %w", err)
	}

	used := make(map[uint32]bool, len(assigned)+1)
	for _, cidr := range assigned {
		ip, _, err := net.ParseCIDR(cidr)
		if err != nil {
			// Unparseable rows are skipped rather than blocking allocation.
			continue
		}
		if v4 := ip.To4(); v4 != nil {
			used[ipToInt(v4)] = true
		}
	}

	gatewayOrd := ipToInt(gateway)
	networkOrd := ipToInt(network.IP.To4())
	ones, bits := network.Mask.Size()
	hostCount := uint32(1) << (bits - ones)
	broadcastOrd := networkOrd + hostCount - 1

	for ord := networkOrd + 1; ord < broadcastOrd; ord++ {
		if ord <= gatewayOrd {
			continue
		}
		if used[ord] {
			continue
		}
		return fmt.Sprintf("%s/32", intToIP(ord)), nil
	}

	return "", ErrPoolExhausted
}

func ipToInt(ip net.IP) uint32 {
	ip = ip.To4()
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}

func intToIP(n uint32) net.IP {
	return net.IPv4(byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}
