package api_test

import (
	"net/http"
	"testing"

	"github.com/deskforge/automation/internal/testutil"
)

const testAdminKey = "test-admin-key"

func TestHealthz(t *testing.T) {
	server, _ := testutil.NewTestServer(t, testAdminKey)

	req := testutil.HTTPRequest{Method: http.MethodGet, Path: "/healthz"}
	rr := req.Do(t, server.Router())

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("body = %q, want ok", rr.Body.String())
	}
}

func TestAuthAdmin(t *testing.T) {
	server, _ := testutil.NewTestServer(t, testAdminKey)
	router := server.Router()

	body := `{"name":"r","triggerType":"TICKET_CREATED","actions":[{"type":"SEND_EMAIL","params":{"subject":"s"}}]}`

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{name: "no credentials", headers: nil, want: http.StatusUnauthorized},
		{
			name:    "wrong bearer token",
			headers: map[string]string{"Authorization": "Bearer nope"},
			want:    http.StatusUnauthorized,
		},
		{
			name:    "valid bearer token",
			headers: map[string]string{"Authorization": "Bearer " + testAdminKey},
			want:    http.StatusCreated,
		},
		{
			name:    "valid X-API-Key header",
			headers: map[string]string{"X-API-Key": testAdminKey},
			want:    http.StatusCreated,
		},
		{
			name:    "empty key never matches",
			headers: map[string]string{"Authorization": "Bearer "},
			want:    http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.HTTPRequest{
				Method:  http.MethodPost,
				Path:    "/v1/rules",
				Body:    body,
				Headers: tt.headers,
			}
			rr := req.Do(t, router)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d (body: %s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestReadEndpointsNeedNoAuth(t *testing.T) {
	server, _ := testutil.NewTestServer(t, testAdminKey)

	req := testutil.HTTPRequest{Method: http.MethodGet, Path: "/v1/rules"}
	rr := req.Do(t, server.Router())

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
}
