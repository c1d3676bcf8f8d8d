package signerid

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bitfsorg/librbf-go/router"
)

// HTTPClient is the subset of *http.Client the resolver uses.
type HTTPClient interface {
	Get(url string) (*http.Response, error)
}

// DNSResolver looks up SRV and TXT records.
type DNSResolver interface {
	LookupSRV(service, proto, name string) (string, []*net.SRV, error)
	LookupTXT(name string) ([]string, error)
}

type netResolver struct{}

func (netResolver) LookupSRV(service, proto, name string) (string, []*net.SRV, error) {
	return net.LookupSRV(service, proto, name)
}

func (netResolver) LookupTXT(name string) ([]string, error) { return net.LookupTXT(name) }

// Record names.
const (
	srvPaymail = "bsvalias"
	txtName    = "_librbf."
	txtPrefix  = "librbf-signer="
)

// PKI capability keys: the short name and the BRFC id.
var pkiCapabilities = []string{"pki", "0c4339ef99c2"}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c HTTPClient) Option { return func(r *Resolver) { r.http = c } }

// WithDNSResolver replaces the system resolver, e.g. with a DNSSECResolver.
func WithDNSResolver(d DNSResolver) Option { return func(r *Resolver) { r.dns = d } }

// WithLogger sets the resolver logger.
func WithLogger(l *zap.Logger) Option { return func(r *Resolver) { r.log = l } }

// Resolver turns signer entries into router whitelist addresses.
type Resolver struct {
	http HTTPClient
	dns  DNSResolver
	log  *zap.Logger
}

// NewResolver returns a resolver using the system DNS and http.DefaultClient
// unless overridden.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{http: http.DefaultClient, dns: netResolver{}, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveAll resolves every entry in order. Two entries naming the same
// signer are an error.
func (r *Resolver) ResolveAll(entries []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(entries))
	seen := make(map[common.Address]string, len(entries))
	for _, e := range entries {
		addr, err := r.Resolve(e)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[addr]; dup {
			return nil, fmt.Errorf("%w: %q and %q are %s", ErrDuplicateSigner, prev, e, addr.Hex())
		}
		seen[addr] = e
		out = append(out, addr)
	}
	return out, nil
}

// Resolve returns the whitelist address of one entry.
func (r *Resolver) Resolve(entry string) (common.Address, error) {
	id, err := Parse(entry)
	if err != nil {
		return common.Address{}, err
	}

	var pub *ec.PublicKey
	switch id.Kind {
	case KindAddress:
		return id.Address, nil
	case KindPubKey:
		pub, err = ec.PublicKeyFromBytes(id.PubKey)
		if err != nil {
			return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidPubKey, err)
		}
	case KindPaymail:
		pub, err = r.resolvePaymail(id.Alias, id.Domain)
	case KindDNS:
		pub, err = r.resolveTXT(id.Domain)
	}
	if err != nil {
		return common.Address{}, err
	}

	addr := router.SignerAddress(pub)
	r.log.Debug("signer resolved",
		zap.String("entry", id.Raw),
		zap.Stringer("kind", id.Kind),
		zap.String("address", addr.Hex()))
	return addr, nil
}

// paymailHost returns the host serving domain's bsvalias endpoints: the
// best SRV target, or the domain itself when no SRV record exists.
func (r *Resolver) paymailHost(domain string) string {
	_, srvs, err := r.dns.LookupSRV(srvPaymail, "tcp", domain)
	if err != nil || len(srvs) == 0 {
		return domain
	}
	sort.Slice(srvs, func(i, j int) bool {
		if srvs[i].Priority != srvs[j].Priority {
			return srvs[i].Priority < srvs[j].Priority
		}
		return srvs[i].Weight > srvs[j].Weight
	})
	return fmt.Sprintf("%s:%d", strings.TrimSuffix(srvs[0].Target, "."), srvs[0].Port)
}

func (r *Resolver) getJSON(url string, v any) error {
	resp, err := r.http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func (r *Resolver) resolvePaymail(alias, domain string) (*ec.PublicKey, error) {
	host := r.paymailHost(domain)

	var wk struct {
		Capabilities map[string]any `json:"capabilities"`
	}
	if err := r.getJSON("https://"+host+"/.well-known/bsvalias", &wk); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDiscovery, domain, err)
	}
	var tmpl string
	for _, key := range pkiCapabilities {
		if s, ok := wk.Capabilities[key].(string); ok && s != "" {
			tmpl = s
			break
		}
	}
	if tmpl == "" {
		return nil, fmt.Errorf("%w: %s has no pki capability", ErrPKIResolution, domain)
	}

	url := strings.NewReplacer("{alias}", alias, "{domain.tld}", domain).Replace(tmpl)
	var pki struct {
		Handle string `json:"handle"`
		PubKey string `json:"pubkey"`
	}
	if err := r.getJSON(url, &pki); err != nil {
		return nil, fmt.Errorf("%w: %s@%s: %v", ErrPKIResolution, alias, domain, err)
	}
	if want := alias + "@" + domain; pki.Handle != "" && !strings.EqualFold(pki.Handle, want) {
		return nil, fmt.Errorf("%w: handle %q does not match %q", ErrPKIResolution, pki.Handle, want)
	}
	return decodePubKey(pki.PubKey)
}

func (r *Resolver) resolveTXT(domain string) (*ec.PublicKey, error) {
	name := txtName + domain
	txts, err := r.dns.LookupTXT(name)
	if err != nil {
		return nil, fmt.Errorf("%w: TXT %s: %w", ErrDNSLookupFailed, name, err)
	}
	for _, txt := range txts {
		txt = strings.TrimSpace(txt)
		if strings.HasPrefix(txt, txtPrefix) {
			return decodePubKey(strings.TrimPrefix(txt, txtPrefix))
		}
	}
	return nil, fmt.Errorf("%w: no %s record at %s", ErrDNSLookupFailed, txtPrefix, name)
}
