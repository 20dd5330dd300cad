package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRating(t *testing.T) {
	created := testutil.ToFloat64(RatingSubmissionsTotal.WithLabelValues("created"))
	updated := testutil.ToFloat64(RatingSubmissionsTotal.WithLabelValues("updated"))

	RecordRating(true)
	RecordRating(false)
	RecordRating(false)

	assert.Equal(t, created+1, testutil.ToFloat64(RatingSubmissionsTotal.WithLabelValues("created")))
	assert.Equal(t, updated+2, testutil.ToFloat64(RatingSubmissionsTotal.WithLabelValues("updated")))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/maps", "200"))

	RecordHTTPRequest(http.MethodGet, "/api/maps", http.StatusOK, 5*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/maps", "200")))
}
