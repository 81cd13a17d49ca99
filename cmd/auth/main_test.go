package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
)

func TestCallbackHandler_StateMismatch(t *testing.T) {
	results := make(chan callbackResult, 1)
	handler := callbackHandler(spotifyauth.New(), "expected", results)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/callback?state=other&code=abc", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, results)
}

func TestSendResult_DoesNotBlock(t *testing.T) {
	results := make(chan callbackResult, 1)
	sendResult(results, callbackResult{})
	sendResult(results, callbackResult{})
	assert.Len(t, results, 1)
}
