package classroom

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientListSubmissionsFollowsPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		require.Equal(t, "/courses/c1/courseWork/w1/studentSubmissions", r.URL.Path)

		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{"studentSubmissions":[{"id":"s1","state":"TURNED_IN","shortAnswerSubmission":{"answer":"42"}}],"nextPageToken":"p2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"studentSubmissions":[{"id":"s2","state":"CREATED"}]}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	submissions, err := client.ListSubmissions(context.Background(), "token-1", "c1", "w1")
	require.NoError(t, err)
	require.Len(t, submissions, 2)
	require.True(t, submissions[0].TurnedIn())
	require.Equal(t, "42", submissions[0].ShortAnswerSubmission.Answer)
	require.False(t, submissions[1].TurnedIn())
}

func TestClientPatchGrade(t *testing.T) {
	var body map[string]float64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/courses/c1/courseWork/w1/studentSubmissions/s1", r.URL.Path)
		require.Equal(t, "assignedGrade,draftGrade", r.URL.Query().Get("updateMask"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	require.NoError(t, client.PatchGrade(context.Background(), "t", "c1", "w1", "s1", 88.5))
	require.Equal(t, map[string]float64{"assignedGrade": 88.5, "draftGrade": 88.5}, body)
}

func TestClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"The caller does not have permission"}}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	_, err := client.GetCourse(context.Background(), "t", "c1")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	require.Equal(t, "The caller does not have permission", apiErr.Message)

	require.Nil(t, client.ListRubrics(context.Background(), "t", "c1", "w1"))
}

func TestClientRequiresToken(t *testing.T) {
	client := New(Config{BaseURL: "http://unused"})
	_, err := client.GetCourseWork(context.Background(), "", "c1", "w1")
	require.ErrorIs(t, err, ErrNotAuthenticated)
}
