package bridging

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adisantoso/klinika-platform/pkg/logging"
)

func newAdminServer(t *testing.T) (*httptest.Server, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store := NewMappingStore(mock, nil, logging.NewWithWriter("error", io.Discard))
	h := NewAdminHandler(store, logging.NewWithWriter("error", io.Discard))
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, mock
}

func TestPutPractitionerMapping(t *testing.T) {
	srv, mock := newAdminServer(t)

	mock.ExpectExec("INSERT INTO satusehat_practitioner_map").
		WithArgs("DR001", "N10000001").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/mappings/practitioners/DR001",
		strings.NewReader(`{"satusehat_id":"N10000001"}`))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPutLocationMappingRejectsEmptyID(t *testing.T) {
	srv, _ := newAdminServer(t)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/mappings/locations/POLI-THT",
		strings.NewReader(`{}`))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
