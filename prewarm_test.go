package prewarm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// edgeDoer stands in for the CloudFront edge network. It records every
// request and tracks peak concurrency.
type edgeDoer struct {
	delay   time.Duration
	respond func(req *http.Request) (int, error)

	inFlight atomic.Int32
	peak     atomic.Int32

	mu       sync.Mutex
	requests []*http.Request
}

func (d *edgeDoer) Do(req *http.Request) (*http.Response, error) {
	n := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		p := d.peak.Load()
		if n <= p || d.peak.CompareAndSwap(p, n) {
			break
		}
	}

	d.mu.Lock()
	d.requests = append(d.requests, req)
	d.mu.Unlock()

	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}

	status := http.StatusOK
	if d.respond != nil {
		var err error
		status, err = d.respond(req)
		if err != nil {
			return nil, err
		}
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("cached")),
		Request:    req,
	}, nil
}

func (d *edgeDoer) requestKeys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := make([]string, 0, len(d.requests))
	for _, r := range d.requests {
		keys = append(keys, r.Method+" "+r.URL.String()+" host="+r.Host)
	}
	sort.Strings(keys)
	return keys
}

func (d *edgeDoer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.requests)
}

func newTestWarmer(t *testing.T, doer HTTPDoer, opts ...Option) *Warmer {
	t.Helper()
	all := append([]Option{
		WithHTTPClient(doer),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	w, err := New(all...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return w
}

func nodeNames(n int) []string {
	nodes := make([]string, n)
	for i := range nodes {
		nodes[i] = fmt.Sprintf("POP%d-C1", i)
	}
	return nodes
}

func TestWarm_ThreeNodeExample(t *testing.T) {
	doer := &edgeDoer{}
	w := newTestWarmer(t, doer, WithCatalog("IAD89-C1", "FRA2-C1", "NRT20-C1"))

	resp := w.Warm(context.Background(), Invocation{
		Filename:      "/test/example.jpg",
		CloudFrontURL: "example.cloudfront.net",
	})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d, want 200 (body %q)", resp.StatusCode, resp.Body)
	}
	if resp.Body != "Submitted warm requests for /test/example.jpg" {
		t.Errorf("Body = %q, want %q", resp.Body, "Submitted warm requests for /test/example.jpg")
	}
	if resp.InvocationID == "" {
		t.Error("InvocationID should be set")
	}

	want := []string{
		"GET http://example.FRA2-C1.cloudfront.net/test/example.jpg host=example.cloudfront.net",
		"GET http://example.IAD89-C1.cloudfront.net/test/example.jpg host=example.cloudfront.net",
		"GET http://example.NRT20-C1.cloudfront.net/test/example.jpg host=example.cloudfront.net",
	}
	got := doer.requestKeys()
	if len(got) != len(want) {
		t.Fatalf("requests = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("request[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if resp.Summary == nil {
		t.Fatal("Summary should be set on 200")
	}
	if resp.Summary.Total != 3 || resp.Summary.Succeeded != 3 || resp.Summary.Failed != 0 {
		t.Errorf("Summary = %+v, want 3 total, 3 succeeded", resp.Summary)
	}
}

func TestWarm_NoRequestBody(t *testing.T) {
	doer := &edgeDoer{}
	w := newTestWarmer(t, doer, WithCatalog("IAD89-C1"))

	w.Warm(context.Background(), Invocation{Filename: "/a.js", CloudFrontURL: "d1.cloudfront.net"})

	req := doer.requests[0]
	if req.Body != nil && req.Body != http.NoBody {
		t.Error("warm request should have no body")
	}
	if req.Header.Get("Authorization") != "" {
		t.Error("warm request should carry no credentials")
	}
}

func TestWarm_MissingParameters(t *testing.T) {
	tests := []struct {
		name     string
		inv      Invocation
		wantBody string
	}{
		{
			name:     "missing filename",
			inv:      Invocation{CloudFrontURL: "example.cloudfront.net"},
			wantBody: "Missing required parameters: filename",
		},
		{
			name:     "missing cloudfront_url",
			inv:      Invocation{Filename: "/test/example.jpg"},
			wantBody: "Missing required parameters: cloudfront_url",
		},
		{
			name:     "both missing",
			inv:      Invocation{},
			wantBody: "Missing required parameters: filename, cloudfront_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &edgeDoer{}
			w := newTestWarmer(t, doer, WithCatalog("IAD89-C1", "FRA2-C1"))

			resp := w.Warm(context.Background(), tt.inv)

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("StatusCode = %d, want 400", resp.StatusCode)
			}
			if resp.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", resp.Body, tt.wantBody)
			}
			if resp.Summary != nil {
				t.Errorf("Summary = %+v, want nil", resp.Summary)
			}
			if doer.count() != 0 {
				t.Errorf("requests = %d, want 0", doer.count())
			}
		})
	}
}

func TestWarm_HostnameWithoutDot(t *testing.T) {
	doer := &edgeDoer{}
	w := newTestWarmer(t, doer, WithCatalog("IAD89-C1"))

	resp := w.Warm(context.Background(), Invocation{Filename: "/x", CloudFrontURL: "nodots"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d, want 200", resp.StatusCode)
	}
	want := "GET http://nodots.IAD89-C1.cloudfront.net/x host=nodots"
	if got := doer.requestKeys(); len(got) != 1 || got[0] != want {
		t.Errorf("requests = %v, want [%s]", got, want)
	}
}

func TestWarm_RespectsMaxConcurrency(t *testing.T) {
	doer := &edgeDoer{delay: 10 * time.Millisecond}
	nodes := nodeNames(40)
	w := newTestWarmer(t, doer, WithCatalog(nodes...), WithMaxConcurrency(4))

	resp := w.Warm(context.Background(), Invocation{Filename: "/a", CloudFrontURL: "d.cloudfront.net"})

	if resp.Summary.Total != 40 {
		t.Errorf("Summary.Total = %d, want 40", resp.Summary.Total)
	}
	if doer.count() != 40 {
		t.Errorf("requests = %d, want 40", doer.count())
	}
	if peak := doer.peak.Load(); peak > 4 {
		t.Errorf("peak concurrency = %d, want <= 4", peak)
	}
	if peak := doer.peak.Load(); peak < 2 {
		t.Errorf("peak concurrency = %d, requests were not concurrent", peak)
	}
}

func TestWarm_FailureIsolation(t *testing.T) {
	doer := &edgeDoer{
		respond: func(req *http.Request) (int, error) {
			switch {
			case strings.Contains(req.URL.Host, ".FRA2-C1."):
				return http.StatusServiceUnavailable, nil
			case strings.Contains(req.URL.Host, ".NRT20-C1."):
				return 0, errors.New("dial tcp: lookup failed")
			}
			return http.StatusOK, nil
		},
	}
	var mu sync.Mutex
	outcomes := map[string]Outcome{}
	w := newTestWarmer(t, doer,
		WithCatalog("IAD89-C1", "FRA2-C1", "NRT20-C1", "SFO5-C1"),
		WithOutcomeCallback(func(o Outcome) {
			mu.Lock()
			outcomes[o.Node] = o
			mu.Unlock()
		}),
	)

	resp := w.Warm(context.Background(), Invocation{Filename: "/a", CloudFrontURL: "d.cloudfront.net"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d, want 200 despite node failures", resp.StatusCode)
	}
	s := resp.Summary
	if s.Total != 4 || s.Succeeded != 2 || s.Failed != 2 {
		t.Errorf("Summary = %+v, want 4 total, 2 succeeded, 2 failed", s)
	}
	if s.FailuresByKind[FailureHTTPStatus] != 1 || s.FailuresByKind[FailureTransport] != 1 {
		t.Errorf("FailuresByKind = %v, want 1 http_status and 1 transport", s.FailuresByKind)
	}

	fra := outcomes["FRA2-C1"]
	if fra.Succeeded || fra.Failure == nil || fra.Failure.Kind != FailureHTTPStatus || fra.Failure.StatusCode != 503 {
		t.Errorf("FRA2-C1 outcome = %+v, want http_status 503", fra)
	}
	nrt := outcomes["NRT20-C1"]
	if nrt.Succeeded || nrt.Failure == nil || nrt.Failure.Kind != FailureTransport {
		t.Errorf("NRT20-C1 outcome = %+v, want transport failure", nrt)
	}
	if !strings.Contains(nrt.Failure.Reason, "lookup failed") {
		t.Errorf("NRT20-C1 reason = %q, want to mention the transport error", nrt.Failure.Reason)
	}
	for _, node := range []string{"IAD89-C1", "SFO5-C1"} {
		if o := outcomes[node]; !o.Succeeded || o.Failure != nil {
			t.Errorf("%s outcome = %+v, want success", node, o)
		}
	}
}

func TestWarm_Idempotent(t *testing.T) {
	doer := &edgeDoer{}
	w := newTestWarmer(t, doer, WithCatalog("IAD89-C1", "FRA2-C1", "NRT20-C1"))
	inv := Invocation{Filename: "/test/example.jpg", CloudFrontURL: "example.cloudfront.net"}

	first := w.Warm(context.Background(), inv)
	firstKeys := doer.requestKeys()

	doer.mu.Lock()
	doer.requests = nil
	doer.mu.Unlock()

	second := w.Warm(context.Background(), inv)
	secondKeys := doer.requestKeys()

	if first.StatusCode != second.StatusCode || first.Body != second.Body {
		t.Errorf("responses differ: %+v vs %+v", first, second)
	}
	if first.InvocationID == second.InvocationID {
		t.Error("each invocation should get its own ID")
	}
	if strings.Join(firstKeys, "\n") != strings.Join(secondKeys, "\n") {
		t.Errorf("request sets differ:\n%v\n%v", firstKeys, secondKeys)
	}
}

func TestWarm_DuplicateCatalogEntries(t *testing.T) {
	doer := &edgeDoer{}
	w := newTestWarmer(t, doer, WithCatalog("IAD89-C1", "IAD89-C1"))

	resp := w.Warm(context.Background(), Invocation{Filename: "/a", CloudFrontURL: "d.cloudfront.net"})

	if resp.Summary.Total != 2 {
		t.Errorf("Summary.Total = %d, want 2", resp.Summary.Total)
	}
	if doer.count() != 2 {
		t.Errorf("requests = %d, want 2", doer.count())
	}
}

func TestWarm_CancelledContextYieldsEveryOutcome(t *testing.T) {
	doer := &edgeDoer{delay: time.Second}
	var count atomic.Int32
	w := newTestWarmer(t, doer,
		WithCatalog(nodeNames(10)...),
		WithMaxConcurrency(2),
		WithOutcomeCallback(func(Outcome) { count.Add(1) }),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	resp := w.Warm(ctx, Invocation{Filename: "/a", CloudFrontURL: "d.cloudfront.net"})

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Warm took %v after cancellation, want fast failure", elapsed)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.Summary.Total != 10 || resp.Summary.FailuresByKind[FailureTransport] != 10 {
		t.Errorf("Summary = %+v, want 10 transport failures", resp.Summary)
	}
	if count.Load() != 10 {
		t.Errorf("callbacks = %d, want 10", count.Load())
	}
}

func TestWarm_LogsOneRecordPerNode(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	doer := &edgeDoer{
		respond: func(req *http.Request) (int, error) {
			if strings.Contains(req.URL.Host, ".FRA2-C1.") {
				return http.StatusNotFound, nil
			}
			return http.StatusOK, nil
		},
	}
	w, err := New(
		WithHTTPClient(doer),
		WithLogger(logger),
		WithCatalog("IAD89-C1", "FRA2-C1", "NRT20-C1"),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp := w.Warm(context.Background(), Invocation{Filename: "/a", CloudFrontURL: "d.cloudfront.net"})
	logs := buf.String()

	if got := strings.Count(logs, `msg="warm succeeded"`); got != 2 {
		t.Errorf("success records = %d, want 2\n%s", got, logs)
	}
	if got := strings.Count(logs, `msg="warm failed"`); got != 1 {
		t.Errorf("failure records = %d, want 1\n%s", got, logs)
	}
	for _, want := range []string{
		"level=ERROR",
		"node=FRA2-C1",
		"url=http://d.FRA2-C1.cloudfront.net/a",
		"failure=http_status",
		"status_code=404",
		"invocation_id=" + resp.InvocationID,
		`msg="warm started"`,
		`msg="warm finished"`,
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("logs missing %q\n%s", want, logs)
		}
	}
}

func TestWarm_Outcomes(t *testing.T) {
	doer := &edgeDoer{
		respond: func(req *http.Request) (int, error) {
			if strings.Contains(req.URL.Host, ".NRT20-C1.") {
				return http.StatusForbidden, nil
			}
			return http.StatusOK, nil
		},
	}
	w := newTestWarmer(t, doer, WithCatalog("NRT20-C1", "IAD89-C1", "FRA2-C1"))

	if got := w.Outcomes(); len(got) != 0 {
		t.Fatalf("Outcomes() before warming = %d, want 0", len(got))
	}

	resp := w.Warm(context.Background(), Invocation{Filename: "/a", CloudFrontURL: "d.cloudfront.net"})

	outcomes := w.Outcomes()
	if len(outcomes) != 3 {
		t.Fatalf("len(Outcomes()) = %d, want 3", len(outcomes))
	}
	wantOrder := []string{"FRA2-C1", "IAD89-C1", "NRT20-C1"}
	for i, node := range wantOrder {
		if outcomes[i].Node != node {
			t.Errorf("Outcomes()[%d].Node = %q, want %q", i, outcomes[i].Node, node)
		}
		if outcomes[i].InvocationID != resp.InvocationID {
			t.Errorf("Outcomes()[%d].InvocationID = %q, want %q", i, outcomes[i].InvocationID, resp.InvocationID)
		}
	}
	nrt := outcomes[2]
	if nrt.Succeeded || nrt.Failure == nil || nrt.Failure.Kind != FailureHTTPStatus || nrt.Failure.Reason != "HTTPError: 403" {
		t.Errorf("NRT20-C1 outcome = %+v, want http_status 403", nrt)
	}
}

func TestInvokeJSON(t *testing.T) {
	tests := []struct {
		name         string
		payload      string
		wantStatus   int
		wantBody     string
		wantRequests int
	}{
		{
			name:         "valid event",
			payload:      `{"filename": "/test/example.jpg", "cloudfront_url": "example.cloudfront.net"}`,
			wantStatus:   http.StatusOK,
			wantBody:     "Submitted warm requests for /test/example.jpg",
			wantRequests: 2,
		},
		{
			name:         "extra fields ignored",
			payload:      `{"filename": "/a", "cloudfront_url": "d.cloudfront.net", "source": "s3"}`,
			wantStatus:   http.StatusOK,
			wantBody:     "Submitted warm requests for /a",
			wantRequests: 2,
		},
		{
			name:       "missing field",
			payload:    `{"filename": "/a"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Missing required parameters: cloudfront_url",
		},
		{
			name:       "malformed JSON",
			payload:    `{"filename": `,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid invocation payload: ",
		},
		{
			name:       "wrong field type",
			payload:    `{"filename": 5, "cloudfront_url": "d.cloudfront.net"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid invocation payload: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &edgeDoer{}
			w := newTestWarmer(t, doer, WithCatalog("IAD89-C1", "FRA2-C1"))

			resp := w.InvokeJSON(context.Background(), []byte(tt.payload))

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if !strings.HasPrefix(resp.Body, tt.wantBody) {
				t.Errorf("Body = %q, want prefix %q", resp.Body, tt.wantBody)
			}
			if doer.count() != tt.wantRequests {
				t.Errorf("requests = %d, want %d", doer.count(), tt.wantRequests)
			}
		})
	}
}

func TestWarm_PanicDuringSetupIs500(t *testing.T) {
	w := newTestWarmer(t, &edgeDoer{}, WithCatalog("IAD89-C1"))
	// a nil dispatcher panics on first use
	w.dispatcher = nil

	resp := w.Warm(context.Background(), Invocation{Filename: "/a", CloudFrontURL: "d.cloudfront.net"})

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Body, "Error during warm: ") {
		t.Errorf("Body = %q, want prefix %q", resp.Body, "Error during warm: ")
	}
}

func TestWarm_ConcurrentInvocations(t *testing.T) {
	doer := &edgeDoer{delay: 5 * time.Millisecond}
	w := newTestWarmer(t, doer, WithCatalog(nodeNames(10)...), WithMaxConcurrency(3))

	var wg sync.WaitGroup
	responses := make([]Response, 5)
	for i := range responses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i] = w.Warm(context.Background(), Invocation{Filename: "/a", CloudFrontURL: "d.cloudfront.net"})
		}(i)
	}
	wg.Wait()

	for i, resp := range responses {
		if resp.StatusCode != http.StatusOK || resp.Summary.Total != 10 {
			t.Errorf("response[%d] = %+v, want 200 with 10 outcomes", i, resp)
		}
	}
	if doer.count() != 50 {
		t.Errorf("requests = %d, want 50", doer.count())
	}
}

func TestWarm_MissingParametersLogsTranslatedMessages(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(
		WithHTTPClient(&edgeDoer{}),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithCatalog("IAD89-C1"),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	w.Warm(context.Background(), Invocation{Filename: "/a"})

	logs := buf.String()
	if !strings.Contains(logs, `msg="missing required parameters"`) {
		t.Fatalf("logs missing validation record:\n%s", logs)
	}
	if !strings.Contains(logs, "cloudfront_url is a required field") {
		t.Errorf("logs missing translated message:\n%s", logs)
	}
}

func TestWarm_ConcurrencyCapIsPerInvocation(t *testing.T) {
	doer := &edgeDoer{delay: 50 * time.Millisecond}
	w := newTestWarmer(t, doer, WithCatalog(nodeNames(6)...), WithMaxConcurrency(2))

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Warm(context.Background(), Invocation{Filename: "/a", CloudFrontURL: "d.cloudfront.net"})
		}()
	}
	wg.Wait()

	if doer.count() != 18 {
		t.Errorf("requests = %d, want 18", doer.count())
	}
	if peak := doer.peak.Load(); peak > 6 {
		t.Errorf("peak concurrency = %d, want <= 6 (2 per invocation)", peak)
	}
	if peak := doer.peak.Load(); peak <= 2 {
		t.Errorf("peak concurrency = %d, want concurrent invocations to exceed one invocation's cap", peak)
	}
}
