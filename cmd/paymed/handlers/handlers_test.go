package handlers

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/payme/contracts/internal/platform/db"
	"github.com/payme/contracts/internal/platform/host"
	"github.com/payme/contracts/internal/platform/logger"
	"github.com/payme/contracts/internal/platform/tests"
	"github.com/payme/contracts/internal/registry"
	"github.com/payme/contracts/internal/token"
	"github.com/payme/contracts/pkg/address"
	"github.com/payme/contracts/pkg/protocol"
	"github.com/payme/contracts/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

type apiTest struct {
	app      *fiber.App
	host     *host.Host
	admin    *address.Key
	users    []*address.Key
	token    address.Address
	registry address.Address
}

func newAPITest(t *testing.T, cfg Config) *apiTest {
	t.Helper()

	test, err := tests.New(3)
	if err != nil {
		t.Fatalf("Failed to create test : %s", err)
	}

	masterDB := db.NewWithStorage(storage.NewMemoryStorage())
	promRegistry := prometheus.NewRegistry()
	metrics := NewMetrics(promRegistry)
	h := host.New(masterDB, metrics.Middleware, LogInvocations)

	ctx := logger.ContextWithNoLogger(context.Background())

	return &apiTest{
		app:      API(ctx, cfg, masterDB, h, promRegistry),
		host:     h,
		admin:    test.Admin,
		users:    test.Users,
		token:    tests.RandomAddress(),
		registry: tests.RandomAddress(),
	}
}

func (a *apiTest) do(t *testing.T, key *address.Key, method, path string, body interface{}) *http.Response {
	t.Helper()

	var b []byte
	switch v := body.(type) {
	case nil:
	case string:
		b = []byte(v)
	default:
		var err error
		b, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("Failed to marshal body : %s", err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	if key != nil {
		sig, err := key.Sign(protocol.SigningPayload(method, path, b))
		if err != nil {
			t.Fatalf("Failed to sign : %s", err)
		}
		req.Header.Set(protocol.HeaderPublicKey, hex.EncodeToString(key.PublicKey()))
		req.Header.Set(protocol.HeaderSignature, hex.EncodeToString(sig))
	}

	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed : %s", err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response : %s", err)
	}
}

func checkStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()

	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("got status %d, want %d : %s", resp.StatusCode, want, body)
	}
}

func checkRejection(t *testing.T, resp *http.Response, status int, code protocol.RejectionCode) {
	t.Helper()

	if resp.StatusCode != status {
		t.Errorf("got status %d, want %d", resp.StatusCode, status)
	}

	var body ErrorResponse
	decode(t, resp, &body)
	if body.Error != code.String() || body.Code != uint8(code) {
		t.Errorf("got %+v, want %s", body, code)
	}
}

func (a *apiTest) tokenPath(suffix string) string {
	return fmt.Sprintf("/v1/tokens/%s%s", a.token, suffix)
}

func (a *apiTest) registryPath(suffix string) string {
	return fmt.Sprintf("/v1/registries/%s%s", a.registry, suffix)
}

func (a *apiTest) initToken(t *testing.T) {
	t.Helper()

	resp := a.do(t, a.admin, http.MethodPost, a.tokenPath("/initialize"),
		initializeTokenRequest{Name: "PaymeToken", Symbol: "PAYME", Decimals: 7})
	checkStatus(t, resp, fiber.StatusCreated)
}

func TestTokenAPI(t *testing.T) {
	a := newAPITest(t, Config{})
	a.initToken(t)

	user := a.users[0].Address()

	resp := a.do(t, a.admin, http.MethodPost, a.tokenPath("/mint"),
		mintRequest{To: user, Amount: 1000})
	checkStatus(t, resp, fiber.StatusOK)

	var balance BalanceResponse
	decode(t, resp, &balance)
	if balance.Balance != 1000 || !balance.Holder.Equal(user) {
		t.Errorf("got %+v", balance)
	}

	resp = a.do(t, a.users[0], http.MethodPost, a.tokenPath("/transfer"),
		transferRequest{From: user, To: a.users[1].Address(), Amount: 400})
	checkStatus(t, resp, fiber.StatusOK)

	resp = a.do(t, nil, http.MethodGet,
		a.tokenPath(fmt.Sprintf("/balances/%s", a.users[1].Address())), nil)
	checkStatus(t, resp, fiber.StatusOK)
	decode(t, resp, &balance)
	if balance.Balance != 400 {
		t.Errorf("got %v, want %v", balance.Balance, 400)
	}

	resp = a.do(t, nil, http.MethodGet, a.tokenPath(""), nil)
	checkStatus(t, resp, fiber.StatusOK)
	var m token.Metadata
	decode(t, resp, &m)
	if m.TotalSupply != 1000 || m.Symbol != "PAYME" || !m.Admin.Equal(a.admin.Address()) {
		t.Errorf("got %+v", m)
	}
}

func TestTokenAPI_rejections(t *testing.T) {
	a := newAPITest(t, Config{})

	user := a.users[0].Address()

	// Before initialize
	resp := a.do(t, a.admin, http.MethodPost, a.tokenPath("/mint"),
		mintRequest{To: user, Amount: 10})
	checkRejection(t, resp, fiber.StatusNotFound, protocol.RejectNotInitialized)

	a.initToken(t)

	resp = a.do(t, a.admin, http.MethodPost, a.tokenPath("/initialize"),
		initializeTokenRequest{Name: "Again", Symbol: "AGN"})
	checkRejection(t, resp, fiber.StatusConflict, protocol.RejectAlreadyInitialized)

	// Signed by someone other than the admin
	resp = a.do(t, a.users[0], http.MethodPost, a.tokenPath("/mint"),
		mintRequest{To: user, Amount: 10})
	checkRejection(t, resp, fiber.StatusForbidden, protocol.RejectUnauthorized)

	// Not signed at all
	resp = a.do(t, nil, http.MethodPost, a.tokenPath("/mint"), mintRequest{To: user, Amount: 10})
	checkRejection(t, resp, fiber.StatusUnauthorized, protocol.RejectUnauthorized)

	resp = a.do(t, a.users[0], http.MethodPost, a.tokenPath("/burn"),
		burnRequest{From: user, Amount: 10})
	checkRejection(t, resp, fiber.StatusUnprocessableEntity, protocol.RejectInsufficientBalance)

	resp = a.do(t, a.admin, http.MethodPost, a.tokenPath("/mint"), mintRequest{To: user})
	checkRejection(t, resp, fiber.StatusBadRequest, protocol.RejectInvalidAmount)

	resp = a.do(t, a.admin, http.MethodPost, a.tokenPath("/mint"), `{"to": "nope"}`)
	checkStatus(t, resp, fiber.StatusBadRequest)
}

func TestTokenAPI_signatureBoundToPath(t *testing.T) {
	a := newAPITest(t, Config{})
	a.initToken(t)

	body, _ := json.Marshal(mintRequest{To: a.users[0].Address(), Amount: 10})
	sig, err := a.admin.Sign(protocol.SigningPayload(http.MethodPost, a.tokenPath("/burn"), body))
	if err != nil {
		t.Fatalf("Failed to sign : %s", err)
	}

	req := httptest.NewRequest(http.MethodPost, a.tokenPath("/mint"), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(protocol.HeaderPublicKey, hex.EncodeToString(a.admin.PublicKey()))
	req.Header.Set(protocol.HeaderSignature, hex.EncodeToString(sig))

	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed : %s", err)
	}
	checkRejection(t, resp, fiber.StatusUnauthorized, protocol.RejectUnauthorized)
}

func TestAllowanceAPI(t *testing.T) {
	a := newAPITest(t, Config{})
	a.initToken(t)

	owner, spender := a.users[0].Address(), a.users[1].Address()

	checkStatus(t, a.do(t, a.admin, http.MethodPost, a.tokenPath("/mint"),
		mintRequest{To: owner, Amount: 500}), fiber.StatusOK)

	resp := a.do(t, a.users[0], http.MethodPost, a.tokenPath("/approve"),
		approveRequest{Owner: owner, Spender: spender, Amount: 300, ExpirationLedger: 10})
	checkStatus(t, resp, fiber.StatusOK)

	resp = a.do(t, a.users[1], http.MethodPost, a.tokenPath("/transfer_from"),
		transferFromRequest{Spender: spender, From: owner, To: spender, Amount: 120})
	checkStatus(t, resp, fiber.StatusOK)

	var allowance AllowanceResponse
	decode(t, resp, &allowance)
	if allowance.Amount != 180 {
		t.Errorf("got %v, want %v", allowance.Amount, 180)
	}

	resp = a.do(t, a.users[1], http.MethodPost, a.tokenPath("/burn_from"),
		burnFromRequest{Spender: spender, From: owner, Amount: 181})
	checkRejection(t, resp, fiber.StatusUnprocessableEntity, protocol.RejectInsufficientAllowance)

	resp = a.do(t, nil, http.MethodGet,
		a.tokenPath(fmt.Sprintf("/allowances/%s/%s", owner, spender)), nil)
	checkStatus(t, resp, fiber.StatusOK)
	decode(t, resp, &allowance)
	if allowance.Amount != 180 {
		t.Errorf("got %v, want %v", allowance.Amount, 180)
	}
}

func TestRegistryAPI(t *testing.T) {
	a := newAPITest(t, Config{})
	a.initToken(t)

	resp := a.do(t, a.admin, http.MethodPost, a.registryPath("/initialize"),
		initializeRegistryRequest{Name: "Acme", TokenContract: a.token})
	checkStatus(t, resp, fiber.StatusCreated)

	employee := a.users[0].Address()
	resp = a.do(t, a.admin, http.MethodPost, a.registryPath("/employees"),
		addEmployeeRequest{Address: employee, Name: "Ada", Salary: 300, Rank: registry.RankMid})
	checkStatus(t, resp, fiber.StatusCreated)

	resp = a.do(t, a.admin, http.MethodPatch, a.registryPath("/employees/"+employee.String()),
		`{"salary": 350}`)
	checkStatus(t, resp, fiber.StatusOK)

	var e registry.Employee
	decode(t, resp, &e)
	if e.Name != "Ada" || e.Salary != 350 || e.Rank != registry.RankMid {
		t.Errorf("got %+v", e)
	}

	resp = a.do(t, a.admin, http.MethodPost,
		a.registryPath("/employees/"+employee.String()+"/promote"), `{"rank": "Mid", "salary": 400}`)
	checkRejection(t, resp, fiber.StatusUnprocessableEntity, protocol.RejectSameRank)

	resp = a.do(t, a.admin, http.MethodPost,
		a.registryPath("/employees/"+employee.String()+"/promote"), `{"rank": "Lead", "salary": 400}`)
	checkStatus(t, resp, fiber.StatusOK)

	// Fund the admin and pay.
	checkStatus(t, a.do(t, a.admin, http.MethodPost, a.tokenPath("/mint"),
		mintRequest{To: a.admin.Address(), Amount: 1000}), fiber.StatusOK)

	resp = a.do(t, a.admin, http.MethodPost, a.registryPath("/payroll"), nil)
	checkStatus(t, resp, fiber.StatusOK)
	var payroll registry.Payroll
	decode(t, resp, &payroll)
	if payroll.Employees != 1 || payroll.Total != 400 {
		t.Errorf("got %+v", payroll)
	}

	resp = a.do(t, a.admin, http.MethodDelete, a.registryPath("/employees/"+employee.String()), nil)
	checkStatus(t, resp, fiber.StatusNoContent)

	resp = a.do(t, nil, http.MethodGet, a.registryPath("/employees/"+employee.String()), nil)
	checkRejection(t, resp, fiber.StatusNotFound, protocol.RejectEmployeeNotFound)

	resp = a.do(t, nil, http.MethodGet, a.registryPath(""), nil)
	checkStatus(t, resp, fiber.StatusOK)
	var inst registry.Institution
	decode(t, resp, &inst)
	if inst.EmployeeCount != 0 || inst.Name != "Acme" {
		t.Errorf("got %+v", inst)
	}
}

func TestRegistryAPI_roster(t *testing.T) {
	a := newAPITest(t, Config{})

	checkStatus(t, a.do(t, a.admin, http.MethodPost, a.registryPath("/initialize"),
		initializeRegistryRequest{Name: "Acme", TokenContract: a.token}), fiber.StatusCreated)

	var b strings.Builder
	b.WriteString("employees:\n")
	for i, user := range a.users {
		fmt.Fprintf(&b, "  - address: %s\n    name: Employee %d\n    salary: %d\n    rank: Junior\n",
			user.Address(), i, 100*(i+1))
	}

	resp := a.do(t, a.admin, http.MethodPost, a.registryPath("/roster"), b.String())
	checkStatus(t, resp, fiber.StatusCreated)

	resp = a.do(t, nil, http.MethodGet, a.registryPath("/employees"), nil)
	checkStatus(t, resp, fiber.StatusOK)
	var employees []registry.Employee
	decode(t, resp, &employees)
	if len(employees) != len(a.users) {
		t.Errorf("got %d employees, want %d", len(employees), len(a.users))
	}

	resp = a.do(t, a.admin, http.MethodPost, a.registryPath("/roster"), "employees: [")
	checkStatus(t, resp, fiber.StatusBadRequest)
}

func TestRateLimit(t *testing.T) {
	a := newAPITest(t, Config{RateLimit: 0.001, RateBurst: 2})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp := a.do(t, a.admin, http.MethodPost, a.tokenPath("/initialize"),
			initializeTokenRequest{Name: "PaymeToken", Symbol: "PAYME"})
		statuses = append(statuses, resp.StatusCode)
	}

	want := []int{fiber.StatusCreated, fiber.StatusConflict, fiber.StatusTooManyRequests}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("request %d : got %d, want %d", i, statuses[i], want[i])
		}
	}

	// Reads are not limited.
	checkStatus(t, a.do(t, nil, http.MethodGet, a.tokenPath(""), nil), fiber.StatusOK)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPITest(t, Config{})
	a.initToken(t)

	checkStatus(t, a.do(t, nil, http.MethodGet, "/healthz", nil), fiber.StatusOK)

	resp := a.do(t, nil, http.MethodGet, "/v1/ledger", nil)
	checkStatus(t, resp, fiber.StatusOK)
	var ledger struct {
		Sequence uint32 `json:"sequence"`
	}
	decode(t, resp, &ledger)
	if ledger.Sequence != host.GenesisSequence {
		t.Errorf("got %v, want %v", ledger.Sequence, host.GenesisSequence)
	}

	resp = a.do(t, nil, http.MethodGet, "/metrics", nil)
	checkStatus(t, resp, fiber.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `payme_operations_total{operation="token.Initialize",result="ok"} 1`) {
		t.Errorf("Missing operation counter :\n%s", body)
	}
}
