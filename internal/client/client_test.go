package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/pcapview/internal/metrics"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/"})
}

func TestUploadSendsMultipartFile(t *testing.T) {
	var gotName, gotBody, gotReqID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/upload", r.URL.Path)
		gotReqID = r.Header.Get(RequestIDHeader)

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotName, gotBody = hdr.Filename, string(b)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"filename":"cap1.pcap","data":{"nodes":[{"id":"10.0.0.1","label":"10.0.0.1","group":"internal"}],"edges":[],"alerts":[]}}`)
	})

	resp, err := c.Upload(context.Background(), "cap1.pcap", strings.NewReader("pcap-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "cap1.pcap", gotName)
	assert.Equal(t, "pcap-bytes", gotBody)
	assert.Len(t, gotReqID, 36)
	assert.Equal(t, "cap1.pcap", resp.Filename)
	require.Len(t, resp.Data.Nodes, 1)
	assert.Equal(t, "10.0.0.1", resp.Data.Nodes[0].ID)
}

func TestUploadServiceDetailSurfacesVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail":"Invalid file type. Only .pcap and .pcapng files are allowed."}`)
	})

	_, err := c.Upload(context.Background(), "notes.txt", strings.NewReader("x"))
	require.Error(t, err)

	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "Invalid file type. Only .pcap and .pcapng files are allowed.", UserMessage(err))
}

func TestServiceErrorWithoutDetailFallsBack(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `<html>boom</html>`)
	})

	_, err := c.History(context.Background(), 0, 10)
	require.Error(t, err)
	assert.Equal(t, "request failed with status code 500", UserMessage(err))
}

func TestStructuredDetailIsIgnored(t *testing.T) {
	assert.Equal(t, "", decodeDetail([]byte(`{"detail":[{"loc":["body","file"],"msg":"field required"}]}`)))
	assert.Equal(t, "nope", decodeDetail([]byte(`{"detail":"nope"}`)))
	assert.Equal(t, "", decodeDetail([]byte(`not json`)))
}

func TestHistoryQueryAndDecode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/history", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("skip"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		io.WriteString(w, `{"records":[{"id":3,"filename":"a.pcap","timestamp":"2024-01-01T00:00:00","status":"pending"}],"total_count":21}`)
	})

	page, err := c.History(context.Background(), 20, 10)
	require.NoError(t, err)
	assert.Equal(t, 21, page.TotalCount)
	require.Len(t, page.Records, 1)
	assert.Equal(t, int64(3), page.Records[0].ID)
}

func TestHistoryRejectsBadWindow(t *testing.T) {
	c := New(Config{BaseURL: "http://unused"})
	_, err := c.History(context.Background(), -1, 10)
	assert.Error(t, err)
	_, err = c.History(context.Background(), 0, 0)
	assert.Error(t, err)
}

func TestRecordNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/history/42", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"Analysis record not found"}`)
	})

	_, err := c.Record(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTransportErrorCountsAndUnwraps(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	before := testutil.ToFloat64(metrics.ServiceRequestsTotal.WithLabelValues(endpointRecord, "transport_error"))

	_, err := New(Config{BaseURL: url}).Record(context.Background(), 1)
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "GET /api/history/1", te.Op)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, err.Error(), UserMessage(err))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ServiceRequestsTotal.WithLabelValues(endpointRecord, "transport_error")))
}

func TestUndecodableBodyIsTransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"records":`)
	})
	_, err := c.History(context.Background(), 0, 10)
	var te *TransportError
	assert.True(t, errors.As(err, &te))
}
