package signerid

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/ethereum/go-ethereum/common"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/librbf-go/router"
)

func newKey(t *testing.T) (*ec.PrivateKey, string) {
	t.Helper()
	k, err := ec.NewPrivateKey()
	require.NoError(t, err)
	return k, hex.EncodeToString(k.PubKey().Compressed())
}

// mockDNS serves fixed SRV and TXT answers.
type mockDNS struct {
	srv map[string][]*net.SRV // key: _service._proto.name
	txt map[string][]string
}

func (m *mockDNS) LookupSRV(service, proto, name string) (string, []*net.SRV, error) {
	key := fmt.Sprintf("_%s._%s.%s", service, proto, name)
	if recs, ok := m.srv[key]; ok {
		return "", recs, nil
	}
	return "", nil, fmt.Errorf("no SRV records for %s", key)
}

func (m *mockDNS) LookupTXT(name string) ([]string, error) {
	if recs, ok := m.txt[name]; ok {
		return recs, nil
	}
	return nil, fmt.Errorf("no TXT records for %s", name)
}

func TestParse(t *testing.T) {
	_, pubHex := newKey(t)
	tests := []struct {
		in   string
		kind Kind
		err  error
	}{
		{"0x1212121212121212121212121212121212121212", KindAddress, nil},
		{pubHex, KindPubKey, nil},
		{"alice@example.com", KindPaymail, nil},
		{"dns:signers.example.com", KindDNS, nil},
		{"", 0, ErrInvalidIdentity},
		{"dns:", 0, ErrInvalidIdentity},
		{"@example.com", 0, ErrInvalidIdentity},
		{"alice@", 0, ErrInvalidIdentity},
		{"example.com", 0, ErrInvalidIdentity},
		{"0x1234", 0, ErrInvalidIdentity},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			id, err := Parse(tt.in)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, id.Kind)
		})
	}
}

func TestParse_PaymailParts(t *testing.T) {
	id, err := Parse(" alice@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Alias)
	assert.Equal(t, "example.com", id.Domain)
	assert.Equal(t, "paymail", id.Kind.String())
}

func TestResolve_AddressAndPubKey(t *testing.T) {
	k, pubHex := newKey(t)
	r := NewResolver(WithDNSResolver(&mockDNS{}))

	got, err := r.Resolve(pubHex)
	require.NoError(t, err)
	assert.Equal(t, router.SignerAddress(k.PubKey()), got)

	addr := "0x1212121212121212121212121212121212121212"
	got, err = r.Resolve(addr)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(addr), got)
}

// paymailServer serves bsvalias discovery and PKI for one handle.
func paymailServer(t *testing.T, handle, pubHex string) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/bsvalias", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"bsvalias": "1.0",
			"capabilities": map[string]any{
				"pki": srv.URL + "/pki/{alias}/{domain.tld}",
			},
		})
	})
	mux.HandleFunc("/pki/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/pki/alice/example.com" {
			http.NotFound(w, req)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"bsvalias": "1.0", "handle": handle, "pubkey": pubHex})
	})
	srv = httptest.NewTLSServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func srvRecordFor(t *testing.T, srv *httptest.Server) *net.SRV {
	t.Helper()
	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return &net.SRV{Target: host + ".", Port: uint16(port), Priority: 10, Weight: 10}
}

func TestResolve_Paymail(t *testing.T) {
	k, pubHex := newKey(t)
	srv := paymailServer(t, "alice@example.com", pubHex)
	dnsr := &mockDNS{srv: map[string][]*net.SRV{
		"_bsvalias._tcp.example.com": {
			{Target: "backup.invalid.", Port: 1, Priority: 20},
			srvRecordFor(t, srv),
		},
	}}
	r := NewResolver(WithHTTPClient(srv.Client()), WithDNSResolver(dnsr))

	got, err := r.Resolve("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, router.SignerAddress(k.PubKey()), got)

	_, err = r.Resolve("bob@example.com")
	assert.ErrorIs(t, err, ErrPKIResolution)
}

func TestResolve_PaymailHandleMismatch(t *testing.T) {
	_, pubHex := newKey(t)
	srv := paymailServer(t, "mallory@example.com", pubHex)
	dnsr := &mockDNS{srv: map[string][]*net.SRV{"_bsvalias._tcp.example.com": {srvRecordFor(t, srv)}}}
	r := NewResolver(WithHTTPClient(srv.Client()), WithDNSResolver(dnsr))

	_, err := r.Resolve("alice@example.com")
	assert.ErrorIs(t, err, ErrPKIResolution)
}

func TestResolve_TXT(t *testing.T) {
	k, pubHex := newKey(t)
	dnsr := &mockDNS{txt: map[string][]string{
		"_librbf.signers.example.com": {"v=spf1 -all", "librbf-signer=" + pubHex},
		"_librbf.bad.example.com":     {"librbf-signer=02zz"},
	}}
	r := NewResolver(WithDNSResolver(dnsr))

	got, err := r.Resolve("dns:signers.example.com")
	require.NoError(t, err)
	assert.Equal(t, router.SignerAddress(k.PubKey()), got)

	_, err = r.Resolve("dns:bad.example.com")
	assert.ErrorIs(t, err, ErrInvalidPubKey)

	_, err = r.Resolve("dns:missing.example.com")
	assert.ErrorIs(t, err, ErrDNSLookupFailed)
}

func TestResolveAll_Duplicate(t *testing.T) {
	k, pubHex := newKey(t)
	addr := router.SignerAddress(k.PubKey())
	r := NewResolver(WithDNSResolver(&mockDNS{}))

	_, err := r.ResolveAll([]string{pubHex, addr.Hex()})
	assert.ErrorIs(t, err, ErrDuplicateSigner)

	_, otherHex := newKey(t)
	got, err := r.ResolveAll([]string{pubHex, otherHex})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, addr, got[0])
}

// --- DNSSEC resolver against a local server ---

func startDNS(t *testing.T, authenticated bool, pubHex string) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		m.AuthenticatedData = authenticated
		q := req.Question[0]
		hdr := dns.RR_Header{Name: q.Name, Class: dns.ClassINET, Ttl: 60}
		switch q.Qtype {
		case dns.TypeTXT:
			hdr.Rrtype = dns.TypeTXT
			m.Answer = append(m.Answer, &dns.TXT{Hdr: hdr, Txt: []string{"librbf-signer=", pubHex}})
		case dns.TypeSRV:
			hdr.Rrtype = dns.TypeSRV
			m.Answer = append(m.Answer, &dns.SRV{Hdr: hdr, Priority: 1, Weight: 5, Port: 8443, Target: "pay.example.com."})
		}
		_ = w.WriteMsg(m)
	})

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func TestDNSSECResolver_Defaults(t *testing.T) {
	assert.Equal(t, "8.8.8.8:53", NewDNSSECResolver("").Upstream)
}

func TestDNSSECResolver_Authenticated(t *testing.T) {
	k, pubHex := newKey(t)
	dnsr := NewDNSSECResolver(startDNS(t, true, pubHex))

	txts, err := dnsr.LookupTXT("_librbf.signers.example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"librbf-signer=" + pubHex}, txts)

	_, srvs, err := dnsr.LookupSRV("bsvalias", "tcp", "example.com")
	require.NoError(t, err)
	require.Len(t, srvs, 1)
	assert.Equal(t, "pay.example.com", srvs[0].Target)
	assert.Equal(t, uint16(8443), srvs[0].Port)

	r := NewResolver(WithDNSResolver(dnsr))
	got, err := r.Resolve("dns:signers.example.com")
	require.NoError(t, err)
	assert.Equal(t, router.SignerAddress(k.PubKey()), got)
}

func TestDNSSECResolver_RejectsUnauthenticated(t *testing.T) {
	_, pubHex := newKey(t)
	dnsr := NewDNSSECResolver(startDNS(t, false, pubHex))

	_, err := dnsr.LookupTXT("_librbf.signers.example.com")
	assert.ErrorIs(t, err, ErrDNSSECValidationFailed)

	r := NewResolver(WithDNSResolver(dnsr))
	_, err = r.Resolve("dns:signers.example.com")
	assert.ErrorIs(t, err, ErrDNSSECValidationFailed)
}
