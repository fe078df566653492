package bridging

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adisantoso/klinika-platform/pkg/logging"
)

func newHandlerServer(t *testing.T, gw *fakeGateway, links *fakeLinks) *httptest.Server {
	t.Helper()
	b := newTestBridger(t, gw, links)
	h := NewHandler(b, logging.NewWithWriter("error", io.Discard))
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestHandlerStartEncounter(t *testing.T) {
	gw := &fakeGateway{}
	links := &fakeLinks{links: map[string]*EncounterLink{}}
	srv := newHandlerServer(t, gw, links)

	resp, err := http.Post(srv.URL+"/encounters/2024%2F05%2F01%2F000007/start", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var res Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.EncounterID)
}

func TestHandlerBridgeEncounterFailureStatus(t *testing.T) {
	gw := &fakeGateway{}
	links := &fakeLinks{links: map[string]*EncounterLink{}}
	srv := newHandlerServer(t, gw, links)

	// Unknown visit id: the run fails and the envelope carries the reason.
	resp, err := http.Post(srv.URL+"/encounters/unknown-visit", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var res Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.False(t, res.Success)
	assert.Equal(t, "visit not found", res.Message)
}

func TestHandlerEncounterStatus(t *testing.T) {
	gw := &fakeGateway{}
	links := &fakeLinks{links: map[string]*EncounterLink{
		testVisitID: {VisitID: testVisitID, EncounterID: "enc-1", Status: StatusSent},
	}}
	srv := newHandlerServer(t, gw, links)

	resp, err := http.Get(srv.URL + "/encounters/2024%2F05%2F01%2F000007/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, StatusSent, status.Status)
	assert.Equal(t, "enc-1", status.EncounterID)

	resp2, err := http.Get(srv.URL + "/encounters/never-bridged/status")
	require.NoError(t, err)
	defer resp2.Body.Close()

	var unknown StatusResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&unknown))
	assert.Equal(t, StatusNotSent, unknown.Status)
}

func TestHandlerBridgeDispense(t *testing.T) {
	gw := &fakeGateway{}
	links := &fakeLinks{links: map[string]*EncounterLink{
		testVisitID: {VisitID: testVisitID, EncounterID: "enc-1", EpisodeID: "ep-1", Status: StatusSent},
	}}
	srv := newHandlerServer(t, gw, links)

	resp, err := http.Post(srv.URL+"/dispenses/RX-2024-0001", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, gw.count(http.MethodPost, "MedicationDispense"))
}
