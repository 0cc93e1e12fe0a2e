package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithError(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithError(w, http.StatusNotFound, "Task not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Task not found"}`, w.Body.String())
}

func TestRespondWithJSON_MarshalFailure(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithJSON(w, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	t.Run("valid", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Acme"}`))
		var b body
		require.NoError(t, DecodeJSON(httptest.NewRecorder(), r, &b))
		assert.Equal(t, "Acme", b.Name)
	})

	for name, payload := range map[string]string{
		"empty":      ``,
		"malformed":  `{"name":`,
		"trailing":   `{"name":"a"}{"name":"b"}`,
		"wrong type": `{"name":5}`,
	} {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
			var b body
			assert.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), r, &b), ErrInvalidBody)
		})
	}
}

func TestPathID(t *testing.T) {
	cases := map[string]bool{"1": true, "42": true, "0": false, "-3": false, "abc": false, "": false}

	for raw, ok := range cases {
		r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": raw})
		id, err := PathID(r, "id")
		if ok {
			require.NoError(t, err, raw)
			assert.Positive(t, id)
		} else {
			assert.ErrorIs(t, err, ErrInvalidID, raw)
		}
	}
}

func TestValidationMessage(t *testing.T) {
	type req struct {
		ClientID    *int64 `json:"client_id" validate:"required"`
		ProjectName string `json:"project_name" validate:"required"`
	}

	err := NewValidator().Struct(&req{})
	require.Error(t, err)
	assert.Equal(t, "client_id is required; project_name is required", ValidationMessage(err))
}
