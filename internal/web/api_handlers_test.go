package web

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/listing-desk/internal/auth"
	"github.com/evcraddock/listing-desk/internal/export"
	"github.com/evcraddock/listing-desk/internal/geo"
	"github.com/evcraddock/listing-desk/internal/property"
)

type searchEnvelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    searchResponse `json:"data"`
}

func decodeSearch(t *testing.T, body string) searchEnvelope {
	t.Helper()
	var env searchEnvelope
	require.NoError(t, json.Unmarshal([]byte(body), &env), "body: %s", body)
	return env
}

func searchForm(nonce string, extra url.Values) url.Values {
	form := url.Values{"action": {actionSearch}, "nonce": {nonce}}
	for k, v := range extra {
		form[k] = v
	}
	return form
}

func TestAjaxSearchAnonymousWithNonce(t *testing.T) {
	srv, d := testServerWithDB(t)
	insertListing(t, d, "Lakeview Cottage", property.StatusPublished, property.Attributes{Price: strPtr("250000")})

	w := do(srv, postForm("/admin-ajax", searchForm(srv.nonces.Create(auth.ActionAjax, ""), url.Values{"seq": {"7"}}), nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decodeSearch(t, w.Body.String())
	assert.True(t, env.Success)
	require.Len(t, env.Data.Rows, 1)
	assert.Equal(t, "Lakeview Cottage", env.Data.Rows[0].Title)
	assert.Equal(t, "$250,000.00", env.Data.Rows[0].Price)
	assert.Equal(t, 1, env.Data.Page)
	assert.Equal(t, 1, env.Data.TotalPages)
	assert.Equal(t, "7", env.Data.Seq)
	assert.Contains(t, env.Data.HTML, "Lakeview Cottage")
	assert.Empty(t, env.Data.Links)
}

func TestAjaxSearchBadNonce(t *testing.T) {
	srv, d := testServerWithDB(t)
	insertListing(t, d, "Lakeview Cottage", property.StatusPublished, property.Attributes{})
	cookie := sessionCookie(t, srv, editorEmail)

	tests := []struct {
		name  string
		nonce string
	}{
		{"missing", ""},
		{"garbage", "0123456789abcdef0123"},
		{"issued to someone else", srv.nonces.Create(auth.ActionAjax, adminEmail)},
		{"other action", srv.nonces.Create(auth.ActionSaveMeta, editorEmail)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(srv, postForm("/admin-ajax", searchForm(tt.nonce, nil), cookie))

			assert.Equal(t, http.StatusForbidden, w.Code)
			env := decodeSearch(t, w.Body.String())
			assert.False(t, env.Success)
			assert.Equal(t, "Security check failed", env.Message)
			assert.NotContains(t, w.Body.String(), "Lakeview")
		})
	}
}

func TestAjaxSearchPaginates(t *testing.T) {
	srv, d := testServerWithDB(t)
	for i := 0; i < 12; i++ {
		insertListing(t, d, fmt.Sprintf("Listing %02d", i), property.StatusPublished, property.Attributes{})
	}
	cookie := sessionCookie(t, srv, editorEmail)
	nonce := srv.nonces.Create(auth.ActionAjax, editorEmail)

	first := decodeSearch(t, do(srv, postForm("/admin-ajax", searchForm(nonce, nil), cookie)).Body.String())
	second := decodeSearch(t, do(srv, postForm("/admin-ajax", searchForm(nonce, url.Values{"paged": {"2"}}), cookie)).Body.String())

	assert.Len(t, first.Data.Rows, 10)
	assert.Len(t, second.Data.Rows, 2)
	assert.Equal(t, 2, first.Data.TotalPages)
	assert.Equal(t, 2, second.Data.Page)
	assert.NotEmpty(t, first.Data.Links)
	assert.Contains(t, first.Data.HTML, `class="pagination"`)
}

func TestAjaxSearchFilters(t *testing.T) {
	srv, d := testServerWithDB(t)
	insertListing(t, d, "Lakeview Cottage", property.StatusPublished, property.Attributes{Agent: strPtr("Jane"), Price: strPtr("300000")})
	insertListing(t, d, "Lakeview Lot", property.StatusPublished, property.Attributes{Agent: strPtr("Jane")})
	insertListing(t, d, "Hilltop House", property.StatusPublished, property.Attributes{Agent: strPtr("Bob"), Price: strPtr("500000")})
	nonce := srv.nonces.Create(auth.ActionAjax, "")

	tests := []struct {
		name  string
		extra url.Values
		want  []string
	}{
		{"search term", url.Values{"search": {"Lakeview"}}, []string{"Lakeview Lot", "Lakeview Cottage"}},
		{"agent", url.Values{"agent": {"Bob"}}, []string{"Hilltop House"}},
		{"price window", url.Values{"min_price": {"100000"}, "max_price": {"400000"}}, []string{"Lakeview Cottage"}},
		{"reversed price window", url.Values{"min_price": {"400000"}, "max_price": {"100000"}}, []string{"Lakeview Cottage"}},
		{"lakeview priced", url.Values{"search": {"Lakeview"}, "min_price": {"1"}}, []string{"Lakeview Cottage"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := decodeSearch(t, do(srv, postForm("/admin-ajax", searchForm(nonce, tt.extra), nil)).Body.String())
			require.True(t, env.Success, env.Message)

			var got []string
			for _, r := range env.Data.Rows {
				got = append(got, r.Title)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAjaxSearchOneSidedDate(t *testing.T) {
	srv := testServer(t)
	nonce := srv.nonces.Create(auth.ActionAjax, "")

	w := do(srv, postForm("/admin-ajax", searchForm(nonce, url.Values{"start_date": {"2024-01-01"}}), nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeSearch(t, w.Body.String())
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)
}

func TestAjaxSearchEmptyResults(t *testing.T) {
	srv := testServer(t)
	nonce := srv.nonces.Create(auth.ActionAjax, "")

	env := decodeSearch(t, do(srv, postForm("/admin-ajax", searchForm(nonce, nil), nil)).Body.String())

	assert.True(t, env.Success)
	assert.Empty(t, env.Data.Rows)
	assert.Contains(t, env.Data.HTML, "No properties found.")
	assert.Contains(t, do(srv, postForm("/admin-ajax", searchForm(nonce, nil), nil)).Body.String(), `"rows":[]`)
}

func TestAjaxUnknownAction(t *testing.T) {
	srv := testServer(t)

	w := do(srv, postForm("/admin-ajax", url.Values{"action": {"drop_tables"}}, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAjaxExport(t *testing.T) {
	srv, d := testServerWithDB(t)
	insertListing(t, d, "Lakeview, \"Cottage\"", property.StatusPublished, property.Attributes{Agent: strPtr("Jane")})
	insertListing(t, d, "Draft Barn", property.StatusDraft, property.Attributes{})
	cookie := sessionCookie(t, srv, adminEmail)

	form := url.Values{"action": {actionExport}, "nonce": {srv.nonces.Create(auth.ActionAjax, adminEmail)}}
	w := do(srv, postForm("/admin-ajax", form, cookie))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="properties-2024-03-09.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))
	assert.Equal(t, "0", w.Header().Get("Expires"))

	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, export.Header, records[0])
	assert.Equal(t, "Lakeview, \"Cottage\"", records[1][0])
}

func TestAjaxExportStoreFailure(t *testing.T) {
	srv, d := testServerWithDB(t)
	insertListing(t, d, "Lakeview Cottage", property.StatusPublished, property.Attributes{})
	cookie := sessionCookie(t, srv, adminEmail)
	_, err := d.Exec("DROP TABLE properties")
	require.NoError(t, err)

	form := url.Values{"action": {actionExport}, "nonce": {srv.nonces.Create(auth.ActionAjax, adminEmail)}}
	w := do(srv, postForm("/admin-ajax", form, cookie))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), exportFailed)
	assert.NotEqual(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}

func TestAjaxExportEmptyStillSendsHeader(t *testing.T) {
	srv := testServer(t)
	cookie := sessionCookie(t, srv, adminEmail)

	form := url.Values{"action": {actionExport}, "nonce": {srv.nonces.Create(auth.ActionAjax, adminEmail)}}
	w := do(srv, postForm("/admin-ajax", form, cookie))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, export.Header, records[0])
}

func TestAjaxExportDenied(t *testing.T) {
	srv, d := testServerWithDB(t)
	insertListing(t, d, "Lakeview Cottage", property.StatusPublished, property.Attributes{})

	editor := sessionCookie(t, srv, editorEmail)
	admin := sessionCookie(t, srv, adminEmail)

	tests := []struct {
		name     string
		cookie   *http.Cookie
		nonce    string
		wantBody string
	}{
		{"editor lacks capability", editor, srv.nonces.Create(auth.ActionAjax, editorEmail), exportForbidden},
		{"anonymous", nil, srv.nonces.Create(auth.ActionAjax, ""), exportForbidden},
		{"admin with bad nonce", admin, "bad", securityCheckFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{"action": {actionExport}, "nonce": {tt.nonce}}
			w := do(srv, postForm("/admin-ajax", form, tt.cookie))

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotContains(t, w.Body.String(), "Lakeview")
			assert.NotEqual(t, export.ContentType, w.Header().Get("Content-Type"))
		})
	}
}

func TestAjaxLookup(t *testing.T) {
	locator := &stubLocator{loc: geo.Location{Found: true, City: "Beverly Hills", State: "CA (California)", Country: "United States"}}
	srv, _ := testServerWithLocator(t, locator)
	cookie := sessionCookie(t, srv, editorEmail)

	form := url.Values{"action": {actionLookup}, "nonce": {srv.nonces.Create(auth.ActionAjax, editorEmail)}, "zip": {" 90210 "}}
	w := do(srv, postForm("/admin-ajax", form, cookie))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var env struct {
		Success bool           `json:"success"`
		Data    lookupResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "Beverly Hills", env.Data.City)
	assert.Equal(t, "CA (California)", env.Data.State)
	assert.Equal(t, "90210", env.Data.ZIP)
	assert.Equal(t, geo.Message(nil), env.Data.Message)
}

func TestAjaxLookupErrors(t *testing.T) {
	tests := []struct {
		name     string
		locator  *stubLocator
		wantCode int
		wantMsg  string
	}{
		{"invalid", &stubLocator{err: geo.ErrInvalidZIP}, http.StatusBadRequest, geo.Message(geo.ErrInvalidZIP)},
		{"not found", &stubLocator{err: geo.ErrNotFound}, http.StatusNotFound, geo.Message(geo.ErrNotFound)},
		{"timeout", &stubLocator{err: geo.ErrTimeout}, http.StatusGatewayTimeout, geo.Message(geo.ErrTimeout)},
		{"upstream", &stubLocator{err: &geo.StatusError{StatusCode: 500}}, http.StatusBadGateway, geo.Message(&geo.StatusError{StatusCode: 500})},
		{"no places", &stubLocator{}, http.StatusNotFound, geo.NotFoundMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := testServerWithLocator(t, tt.locator)
			cookie := sessionCookie(t, srv, editorEmail)

			form := url.Values{"action": {actionLookup}, "nonce": {srv.nonces.Create(auth.ActionAjax, editorEmail)}, "zip": {"90210"}}
			w := do(srv, postForm("/admin-ajax", form, cookie))

			assert.Equal(t, tt.wantCode, w.Code)
			var env ajaxResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantMsg, env.Message)
		})
	}
}

func TestAjaxLookupRequiresEditor(t *testing.T) {
	locator := &stubLocator{loc: geo.Location{Found: true}}
	srv, _ := testServerWithLocator(t, locator)

	form := url.Values{"action": {actionLookup}, "nonce": {srv.nonces.Create(auth.ActionAjax, "")}, "zip": {"90210"}}
	w := do(srv, postForm("/admin-ajax", form, nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, locator.calls)
}

func TestAjaxBearerKey(t *testing.T) {
	srv, d := testServerWithDB(t)
	insertListing(t, d, "Lakeview Cottage", property.StatusPublished, property.Attributes{})
	raw, _, err := srv.apiKeys.Create("cli", editorEmail)
	require.NoError(t, err)

	r := postForm("/admin-ajax", searchForm(srv.nonces.Create(auth.ActionAjax, editorEmail), nil), nil)
	r.Header.Set("Authorization", "Bearer "+raw)
	w := do(srv, r)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeSearch(t, w.Body.String()).Data.Rows, 1)
}
