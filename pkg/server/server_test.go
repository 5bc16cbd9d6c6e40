package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/duynguyendang/gerd/internal/manager"
	"github.com/duynguyendang/gerd/pkg/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderTemplate = `<DSTMPL szTmplName="D4200310A"><DSTMPLItem idItem="2" szDict="DOCO" szItemName="mnOrderNumber"/></DSTMPL>`

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mgr := manager.NewStoreManager(t.TempDir(), manager.MemoryProfileLow, false)
	t.Cleanup(mgr.CloseAll)

	st, err := mgr.CreateEnvironment(manager.EnvironmentMetadata{ID: "DV920", Name: "Development"})
	require.NoError(t, err)
	_, err = st.PutTemplate([]byte(orderTemplate))
	require.NoError(t, err)

	return NewServer(service.NewDecompileService(mgr))
}

func do(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	srv.router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv := setupTestServer(t)

	w := do(srv, "GET", "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
}

func TestRequestIDIsKept(t *testing.T) {
	srv := setupTestServer(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	req.Header.Set(headerRequestID, "abc-123")
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(headerRequestID))
}

func TestEnvironments(t *testing.T) {
	srv := setupTestServer(t)

	w := do(srv, "GET", "/v1/environments", "")

	require.Equal(t, http.StatusOK, w.Code)
	var envs []manager.EnvironmentMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envs))
	assert.Equal(t, []manager.EnvironmentMetadata{{ID: "DV920", Name: "Development"}}, envs)
}

func TestDecompile(t *testing.T) {
	srv := setupTestServer(t)

	body, _ := json.Marshal(map[string]any{
		"events":        []string{`<EVENT szEventSpecKey="EV-1"><GBRCRIT type="IF" lpszCritDesc="If BF mnOrderNumber is equal to 5"><CRE_NODE eCompType="EQUAL"><zSubject><DSOBJMember idItem="2"/></zSubject><zPredicate><DSOBJLiteral><LiteralNumeric>5</LiteralNumeric></DSOBJLiteral></zPredicate></CRE_NODE></GBRCRIT><GBREndIf/></EVENT>`},
		"template_name": "D4200310A",
	})
	w := do(srv, "POST", "/v1/decompile?env=DV920", string(body))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		RootEventSpecKey string `json:"root_event_spec_key"`
		ReadableText     string `json:"readable_text"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "EV-1", res.RootEventSpecKey)
	assert.Equal(t, "If BF mnOrderNumber [DOCO] is equal to 5\nEnd If\n", res.ReadableText)
}

func TestDecompile_ErrorMapping(t *testing.T) {
	srv := setupTestServer(t)

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"bad json", "/v1/decompile", `{`, http.StatusBadRequest},
		{"no events", "/v1/decompile", `{"events": []}`, http.StatusBadRequest},
		{"malformed event", "/v1/decompile", `{"events": ["<EVENT/>"]}`, http.StatusUnprocessableEntity},
		{"unknown environment", "/v1/decompile?env=PD920", `{"events": ["<EVENT szEventSpecKey=\"K\"/>"]}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(srv, "POST", tt.path, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestDecompileBatch(t *testing.T) {
	srv := setupTestServer(t)

	body := `{"environment": "DV920", "requests": [
		{"id": "a", "events": ["<EVENT szEventSpecKey=\"A\"><GBRCOMMENT comment_text=\"x\"/></EVENT>"]},
		{"id": "b", "events": ["not xml"]}
	]}`
	w := do(srv, "POST", "/v1/decompile/batch", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var batch service.BatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batch))
	assert.Equal(t, 1, batch.Failed)
	require.Len(t, batch.Items, 2)
	assert.Equal(t, "x\n", batch.Items[0].Result.ReadableText)
	assert.NotEmpty(t, batch.Items[1].Error)
}

func TestTemplates(t *testing.T) {
	srv := setupTestServer(t)

	w := do(srv, "GET", "/v1/templates?env=DV920&q=d420", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "D4200310A")

	w = do(srv, "GET", "/v1/templates", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(srv, "GET", "/v1/templates/D4200310A?env=DV920", "")
	require.Equal(t, http.StatusOK, w.Code)
	var view service.TemplateView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "mnOrderNumber", view.Items[0].Name)

	w = do(srv, "GET", "/v1/templates/NOPE?env=DV920", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
