package graph

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"

	"github.com/user/pcapview/internal/model"
)

// GeoLookup resolves location and network owner for an address.
// An empty result means unknown.
type GeoLookup interface {
	Country(ip net.IP) (string, error)
	ISP(ip net.IP) (string, error)
}

// MaxMind reads GeoLite2/GeoIP2 City and ASN databases. Either may be absent.
type MaxMind struct {
	cityReader *geoip2.Reader
	asnReader  *geoip2.Reader
}

// OpenMaxMind opens the given .mmdb files. Empty paths are skipped.
func OpenMaxMind(cityDBPath, asnDBPath string) (*MaxMind, error) {
	m := &MaxMind{}
	if cityDBPath != "" {
		r, err := geoip2.Open(cityDBPath)
		if err != nil {
			return nil, fmt.Errorf("open city database: %w", err)
		}
		m.cityReader = r
	}
	if asnDBPath != "" {
		r, err := geoip2.Open(asnDBPath)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("open asn database: %w", err)
		}
		m.asnReader = r
	}
	if m.cityReader == nil && m.asnReader == nil {
		return nil, errors.New("no geoip database configured")
	}
	return m, nil
}

// Close closes the open databases.
func (m *MaxMind) Close() {
	if m.cityReader != nil {
		m.cityReader.Close()
	}
	if m.asnReader != nil {
		m.asnReader.Close()
	}
}

// Country returns the English country name.
func (m *MaxMind) Country(ip net.IP) (string, error) {
	if m.cityReader == nil {
		return "", nil
	}
	rec, err := m.cityReader.City(ip)
	if err != nil {
		return "", err
	}
	return rec.Country.Names["en"], nil
}

// ISP returns the autonomous system organization.
func (m *MaxMind) ISP(ip net.IP) (string, error) {
	if m.asnReader == nil {
		return "", nil
	}
	rec, err := m.asnReader.ASN(ip)
	if err != nil {
		return "", err
	}
	return rec.AutonomousSystemOrganization, nil
}

type geoInfo struct {
	country string
	isp     string
}

// GeoAnnotator fills in missing country and ISP on external nodes.
// Values sent by the service always win. Lookups are cached per address.
type GeoAnnotator struct {
	lookup GeoLookup

	mu    sync.RWMutex
	cache map[string]geoInfo
}

// NewGeoAnnotator creates an annotator over lookup.
func NewGeoAnnotator(lookup GeoLookup) *GeoAnnotator {
	return &GeoAnnotator{
		lookup: lookup,
		cache:  make(map[string]geoInfo),
	}
}

// Annotate returns a copy of nodes with gaps filled. The input is not modified.
// A nil annotator returns the input unchanged.
func (a *GeoAnnotator) Annotate(nodes []model.GraphNode) []model.GraphNode {
	if a == nil || a.lookup == nil {
		return nodes
	}
	out := make([]model.GraphNode, len(nodes))
	copy(out, nodes)

	for i := range out {
		n := &out[i]
		if !n.External() || (n.Country != "" && n.ISP != "") {
			continue
		}
		info, ok := a.resolve(n.ID)
		if !ok {
			continue
		}
		if n.Country == "" {
			n.Country = info.country
		}
		if n.ISP == "" {
			n.ISP = info.isp
		}
	}
	return out
}

func (a *GeoAnnotator) resolve(addr string) (geoInfo, bool) {
	a.mu.RLock()
	cached, ok := a.cache[addr]
	a.mu.RUnlock()
	if ok {
		return cached, true
	}

	ip := net.ParseIP(addr)
	if ip == nil {
		return geoInfo{}, false
	}

	var info geoInfo
	// Lookup misses are cached as empty so a bad address is tried once.
	if c, err := a.lookup.Country(ip); err == nil {
		info.country = c
	}
	if isp, err := a.lookup.ISP(ip); err == nil {
		info.isp = isp
	}

	a.mu.Lock()
	a.cache[addr] = info
	a.mu.Unlock()
	return info, true
}
