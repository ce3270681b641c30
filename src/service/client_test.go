package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitesource/wss-agent/src/project"
)

func respond(t *testing.T, w http.ResponseWriter, status int, message string, data any) {
	t.Helper()
	var env envelope
	env.Envelope.Status = status
	env.Envelope.Message = message
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		env.Envelope.Data = string(raw)
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(env))
}

var testProjects = []*project.Info{
	{
		Coordinates:  project.Coordinates{GroupID: "com.acme", ArtifactID: "shop", Version: "1.0"},
		Dependencies: []project.Dependency{{ArtifactID: "guava", Version: "32", SHA1: "g"}},
	},
}

func TestClientUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "UPDATE", r.PostForm.Get("type"))
		assert.Equal(t, "go-agent", r.PostForm.Get("agent"))
		assert.Equal(t, "org", r.PostForm.Get("token"))
		assert.Equal(t, "key", r.PostForm.Get("userKey"))
		assert.Equal(t, "dev@acme.com", r.PostForm.Get("requesterEmail"))
		assert.Equal(t, "shop", r.PostForm.Get("product"))
		assert.Equal(t, "1.0", r.PostForm.Get("productVersion"))
		assert.NotEmpty(t, r.PostForm.Get("timeStamp"))

		var diff []*project.Info
		require.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("diff")), &diff))
		require.Len(t, diff, 1)
		assert.Equal(t, "shop", diff[0].Name())

		respond(t, w, statusSuccess, "ok", UpdateResult{
			Organization:    "Acme",
			CreatedProjects: []string{"shop"},
			RequestToken:    "req-1",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Minute, nil)
	res, err := c.Update(context.Background(), UpdateRequest{
		OrgToken:       "org",
		UserKey:        "key",
		RequesterEmail: "dev@acme.com",
		Product:        "shop",
		ProductVersion: "1.0",
		Projects:       testProjects,
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", res.Organization)
	assert.Equal(t, []string{"shop"}, res.CreatedProjects)
	assert.Empty(t, res.UpdatedProjects)
	assert.Equal(t, "req-1", res.RequestToken)
}

func TestClientUpdateOmitsEmptyUserKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		_, present := r.PostForm["userKey"]
		assert.False(t, present)
		respond(t, w, statusSuccess, "ok", UpdateResult{Organization: "Acme"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Minute, nil).Update(context.Background(), UpdateRequest{OrgToken: "org", Projects: testProjects})
	require.NoError(t, err)
}

func TestClientCheckPolicyCompliance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "CHECK_POLICY_COMPLIANCE", r.PostForm.Get("type"))
		assert.Equal(t, "true", r.PostForm.Get("forceCheckAllDependencies"))
		assert.Equal(t, "key", r.PostForm.Get("userKey"))

		respond(t, w, statusSuccess, "ok", CheckPolicyComplianceResult{
			Organization: "Acme",
			NewProjects: map[string]*ResourceNode{
				"shop": {
					Resource: Resource{DisplayName: "shop"},
					Children: []*ResourceNode{{
						Resource: Resource{DisplayName: "log4j-core-2.14.1.jar"},
						Policy:   &Policy{DisplayName: "No Log4Shell", ActionType: "Reject"},
					}},
				},
			},
		})
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, time.Minute, nil).CheckPolicyCompliance(context.Background(), CheckPolicyComplianceRequest{
		OrgToken:                  "org",
		UserKey:                   "key",
		Projects:                  testProjects,
		ForceCheckAllDependencies: true,
	})
	require.NoError(t, err)
	assert.True(t, res.HasRejections())
	require.Len(t, res.Rejections()["shop"], 1)
	assert.Equal(t, "log4j-core-2.14.1.jar", res.Rejections()["shop"][0].Resource.DisplayName)
}

func TestClientErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind ErrorKind
		wantMsg  string
	}{
		{
			name: "service rejects request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				respond(t, w, 2, "Invalid organization token", nil)
			},
			wantKind: KindService,
			wantMsg:  "Invalid organization token",
		},
		{
			name: "bad request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", http.StatusBadRequest)
			},
			wantKind: KindService,
			wantMsg:  "400",
		},
		{
			name: "gateway unavailable",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "down", http.StatusServiceUnavailable)
			},
			wantKind: KindConnection,
			wantMsg:  "503",
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "<html>")
			},
			wantKind: KindService,
			wantMsg:  "decoding response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Minute, nil).Update(context.Background(), UpdateRequest{OrgToken: "org"})
			var se *Error
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.wantKind, se.Kind)
			assert.Contains(t, se.Error(), tt.wantMsg)
		})
	}
}

func TestClientConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewClient(addr, time.Minute, nil).Update(context.Background(), UpdateRequest{OrgToken: "org"})
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
}

func TestIsConnectionError(t *testing.T) {
	assert.True(t, IsConnectionError(&Error{Kind: KindConnection}))
	assert.True(t, IsConnectionError(fmt.Errorf("wrapped: %w", &Error{Kind: KindConnection})))
	assert.False(t, IsConnectionError(&Error{Kind: KindService}))
	assert.False(t, IsConnectionError(errors.New("plain")))
	assert.Equal(t, "connection", KindConnection.String())
	assert.Equal(t, "service", KindService.String())
}
