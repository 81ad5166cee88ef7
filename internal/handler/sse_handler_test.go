package handler

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/robinhoot/robinhoot_api/internal/sse"
)

func TestParseProductIDs(t *testing.T) {
	tests := []struct {
		raw     string
		want    []int
		wantErr bool
	}{
		{raw: "", want: nil},
		{raw: "3", want: []int{3}},
		{raw: " 1, 2 ,,5", want: []int{1, 2, 5}},
		{raw: "1,abc", wantErr: true},
		{raw: "0", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseProductIDs(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q: got %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestStreamRejectsBadProductIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := sse.NewHub()
	r := gin.New()
	r.GET("/v1/prices/stream", NewSSEHandler(hub).Stream)

	req := httptest.NewRequest(http.MethodGet, "/v1/prices/stream?productIds=1,x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
	if hub.Len() != 0 {
		t.Errorf("a rejected request must not subscribe, got %d", hub.Len())
	}
}
