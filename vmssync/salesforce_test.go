package vmssync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/admiralorbiter/VMS-sub007/config"
	"github.com/admiralorbiter/VMS-sub007/models"
)

func salesforceTestEnv(t *testing.T, loginURL string) {
	t.Helper()
	t.Setenv("SF_LOGIN_URL", loginURL)
	t.Setenv("SF_CLIENT_ID", "client")
	t.Setenv("SF_CLIENT_SECRET", "secret")
	t.Setenv("SF_USERNAME", "sync@example.org")
	t.Setenv("SF_PASSWORD", "pw")
	t.Setenv("SF_SECURITY_TOKEN", "sectok")
}

func TestSalesforceConnector_AuthenticateAndPageQueries(t *testing.T) {
	var sawPassword string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/services/oauth2/token":
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse token form: %v", err)
			}
			sawPassword = r.PostFormValue("password")
			fmt.Fprintf(w, `{"access_token":"tok-1","instance_url":%q}`, "http://"+r.Host)

		case r.URL.Path == "/services/data/v58.0/query":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `[{"message":"Session expired","errorCode":"INVALID_SESSION_ID"}]`)
				return
			}
			q := r.URL.Query().Get("q")
			if !strings.Contains(q, "FROM Contact WHERE Contact_Type__c = 'Volunteer'") {
				t.Errorf("unexpected SOQL: %s", q)
			}
			fmt.Fprint(w, `{"totalSize":3,"done":false,"nextRecordsUrl":"/services/data/v58.0/query/01g-2000","records":[{"Id":"v1"},{"Id":"v2"}]}`)

		case r.URL.Path == "/services/data/v58.0/query/01g-2000":
			fmt.Fprint(w, `{"totalSize":3,"done":true,"records":[{"Id":"v3"}]}`)

		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	salesforceTestEnv(t, server.URL)
	conn, err := NewSalesforceConnector(config.SyncSettings{RequestTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewSalesforceConnector: %v", err)
	}

	ctx := context.Background()
	if err := conn.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if sawPassword != "pwsectok" {
		t.Fatalf("password grant = %q, want password+security token", sawPassword)
	}

	page, err := conn.Query(ctx, models.EntityTypeVolunteers, "", "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(page.Records) != 2 || page.TotalSize != 3 {
		t.Fatalf("page = %d records, total %d", len(page.Records), page.TotalSize)
	}
	if page.NextPageToken != "/services/data/v58.0/query/01g-2000" {
		t.Fatalf("next token = %q", page.NextPageToken)
	}

	page, err = conn.Query(ctx, models.EntityTypeVolunteers, "", page.NextPageToken)
	if err != nil {
		t.Fatalf("Query page 2: %v", err)
	}
	if len(page.Records) != 1 || page.NextPageToken != "" {
		t.Fatalf("page 2 = %d records, next %q", len(page.Records), page.NextPageToken)
	}
}

func TestSalesforceConnector_AuthFailureIsFatalKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant","error_description":"authentication failure"}`)
	}))
	defer server.Close()

	salesforceTestEnv(t, server.URL)
	conn, err := NewSalesforceConnector(config.SyncSettings{RequestTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewSalesforceConnector: %v", err)
	}

	err = conn.Authenticate(context.Background())
	ce, ok := AsConnectorError(err)
	if !ok || !ce.IsAuth() {
		t.Fatalf("err = %v, want auth connector error", err)
	}
	if ce.Code != "invalid_grant" {
		t.Fatalf("code = %q", ce.Code)
	}
}

func TestSalesforceConnector_QueryErrorClassification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/services/oauth2/token" {
			fmt.Fprintf(w, `{"access_token":"tok-1","instance_url":%q}`, "http://"+r.Host)
			return
		}
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `[{"message":"TotalRequests Limit exceeded.","errorCode":"REQUEST_LIMIT_EXCEEDED"}]`)
	}))
	defer server.Close()

	salesforceTestEnv(t, server.URL)
	conn, err := NewSalesforceConnector(config.SyncSettings{RequestTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewSalesforceConnector: %v", err)
	}

	ctx := context.Background()
	if err := conn.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	_, err = conn.Query(ctx, models.EntityTypeEvents, "", "")
	ce, ok := AsConnectorError(err)
	if !ok || ce.Kind != ErrorKindRateLimit || !ce.IsTransient() {
		t.Fatalf("err = %v, want transient rate-limit", err)
	}
}

func TestSalesforceConnector_Count(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/services/oauth2/token" {
			fmt.Fprintf(w, `{"access_token":"tok-1","instance_url":%q}`, "http://"+r.Host)
			return
		}
		q := r.URL.Query().Get("q")
		if !strings.HasPrefix(q, "SELECT COUNT() FROM Session__c") {
			t.Errorf("unexpected count SOQL: %s", q)
		}
		fmt.Fprint(w, `{"totalSize":4616,"done":true,"records":[]}`)
	}))
	defer server.Close()

	salesforceTestEnv(t, server.URL)
	conn, err := NewSalesforceConnector(config.SyncSettings{RequestTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewSalesforceConnector: %v", err)
	}

	ctx := context.Background()
	if err := conn.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	total, err := conn.Count(ctx, models.EntityTypeEvents, "")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if total != 4616 {
		t.Fatalf("total = %d", total)
	}
}

func TestNewSalesforceConnector_RequiresCredentials(t *testing.T) {
	t.Setenv("SF_LOGIN_URL", "")
	t.Setenv("SF_CLIENT_ID", "")
	t.Setenv("SF_CLIENT_SECRET", "")
	t.Setenv("SF_USERNAME", "")
	t.Setenv("SF_PASSWORD", "")
	t.Setenv("SF_SECURITY_TOKEN", "")

	if _, err := NewSalesforceConnector(config.SyncSettings{}); err == nil {
		t.Fatalf("expected error with no credentials")
	}
}
