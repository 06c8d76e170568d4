package request

import (
	"crypto/tls"
	"net/http/httptrace"
	"time"
)

// Timing stores how long each phase of an exchange took.
type Timing struct {
	// StartTime is when the request started
	StartTime time.Time

	// DNSLookupTime is the time spent resolving the host name
	DNSLookupTime time.Duration

	// TCPConnectTime is the time spent establishing the TCP connection
	TCPConnectTime time.Duration

	// TLSHandshakeTime is the time spent in the TLS handshake (https only)
	TLSHandshakeTime time.Duration

	// TimeToFirstByte is measured from the end of the last completed phase
	TimeToFirstByte time.Duration

	// ContentTransferTime is the time spent reading the response body
	ContentTransferTime time.Duration

	// TotalTime covers the whole exchange including the body
	TotalTime time.Duration
}

// newTrace returns a ClientTrace that fills timing as the exchange runs.
// A reused connection skips DNS, connect and TLS, leaving them zero.
func newTrace(timing *Timing) *httptrace.ClientTrace {
	var dnsStart, connectStart, tlsHandshakeStart time.Time
	var dnsDone, connectDone bool
	lastPhaseEnd := timing.StartTime

	return &httptrace.ClientTrace{
		DNSStart: func(info httptrace.DNSStartInfo) {
			dnsStart = time.Now()
		},
		DNSDone: func(info httptrace.DNSDoneInfo) {
			now := time.Now()
			timing.DNSLookupTime = now.Sub(dnsStart)
			dnsDone = true
			lastPhaseEnd = now
		},
		ConnectStart: func(network, addr string) {
			connectStart = time.Now()
		},
		ConnectDone: func(network, addr string, err error) {
			if err != nil {
				return
			}
			now := time.Now()
			timing.TCPConnectTime = now.Sub(connectStart)
			connectDone = true
			lastPhaseEnd = now
		},
		TLSHandshakeStart: func() {
			if connectDone || !dnsDone {
				tlsHandshakeStart = time.Now()
			}
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			if err != nil || tlsHandshakeStart.IsZero() {
				return
			}
			now := time.Now()
			timing.TLSHandshakeTime = now.Sub(tlsHandshakeStart)
			lastPhaseEnd = now
		},
		GotFirstResponseByte: func() {
			timing.TimeToFirstByte = time.Since(lastPhaseEnd)
		},
	}
}
