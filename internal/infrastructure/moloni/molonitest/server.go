// Package molonitest provides an in-memory fake of the Moloni API for tests.
package molonitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/erp/ledgersync/internal/domain/ledger"
)

// Well-known ids of the seeded reference data
const (
	UnitID              = 1
	ReferencePropertyID = 7
	VATTaxID            = 11
	PortugalCountryID   = 1
	EURCurrencyID       = 1
	DefaultWarehouseID  = 100
	AccessToken         = "fake-access-token"
)

// Call is one request received by the server
type Call struct {
	Path  string
	Form  url.Values
	Body  []byte
	Token string
}

// StoredDocument is a document created through an insert endpoint
type StoredDocument struct {
	ledger.Document
	Body map[string]any
}

// ATRegistration is one documentSets/ATInsertCode call
type ATRegistration struct {
	DocumentSetID  int
	DocumentTypeID int
	ATCode         string
}

// State is the mutable fake ledger
type State struct {
	Categories      []ledger.Category
	Products        []ledger.Product
	Warehouses      []ledger.Warehouse
	Customers       []ledger.Customer
	PaymentMethods  []ledger.PaymentMethod
	DocumentSets    []ledger.DocumentSet
	ATRegistrations []ATRegistration
	StockMovements  []ledger.StockMovement
	PurchaseOrders  []StoredDocument
	InvoiceReceipts []StoredDocument
	PaymentReturns  []StoredDocument
	Units           []ledger.MeasurementUnit
	Properties      []ledger.PropertyDefinition
	Taxes           []ledger.Tax
	Countries       []ledger.Country
	Currencies      []ledger.Currency
	Grants          []url.Values
}

// Server is a fake Moloni endpoint
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	state    State
	calls    []Call
	failures map[string]int
	nextID   int
}

// NewServer starts a seeded fake and closes it when the test ends
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{failures: map[string]int{}, nextID: 1000}
	s.state = State{
		Warehouses: []ledger.Warehouse{{WarehouseID: DefaultWarehouseID, IsDefault: 1, Title: "Armazém Principal", Code: "main"}},
		Units:      []ledger.MeasurementUnit{{UnitID: UnitID, Name: "Unidade", ShortName: ledger.DefaultUnitShortName}},
		Properties: []ledger.PropertyDefinition{{PropertyID: ReferencePropertyID, Title: ledger.ReferencePropertyTitle}},
		Taxes:      []ledger.Tax{{TaxID: VATTaxID, Name: "IVA 23", Value: 23}},
		Countries:  []ledger.Country{{CountryID: PortugalCountryID, Name: "Portugal", ISO3166: "PT"}},
		Currencies: []ledger.Currency{{CurrencyID: EURCurrencyID, Name: "Euro", Symbol: "€", ISO4217: "EUR"}},
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the API base URL, with a trailing slash
func (s *Server) URL() string {
	return s.srv.URL + "/"
}

// Client returns an HTTP client for the server
func (s *Server) Client() *http.Client {
	return s.srv.Client()
}

// Do runs fn with exclusive access to the fake ledger state
func (s *Server) Do(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// Fail makes path answer with status until ClearFailures is called
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// ClearFailures removes every injected failure
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]int{}
}

// Calls returns the recorded calls to path, or every call when path is empty
func (s *Server) Calls(path string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if path == "" || c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// CallCount returns how many times path was called
func (s *Server) CallCount(path string) int {
	return len(s.Calls(path))
}

// ResetCalls forgets recorded calls
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Server) id() int {
	s.nextID++
	return s.nextID
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	body, _ := io.ReadAll(r.Body)

	call := Call{Path: path, Body: body, Token: r.URL.Query().Get("access_token")}
	if r.Method == http.MethodGet {
		call.Form = r.URL.Query()
	} else if r.URL.Query().Get("json") != "true" {
		call.Form, _ = url.ParseQuery(string(body))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)

	if status, ok := s.failures[path]; ok {
		http.Error(w, `{"error":"injected"}`, status)
		return
	}
	if path != "grant/" && call.Token == "" {
		http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
		return
	}

	h, ok := routes[path]
	if !ok {
		http.Error(w, `{"error":"unknown endpoint"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, h(s, call))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func formInt(c Call, key string) int {
	n, _ := strconv.Atoi(c.Form.Get(key))
	return n
}

func bodyInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func bodyString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func validResult(ok bool) map[string]int {
	if ok {
		return map[string]int{"valid": 1}
	}
	return map[string]int{"valid": 0}
}
