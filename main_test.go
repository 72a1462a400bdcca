package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoice-ai-manager/server/internal/agent/model"
	"github.com/invoice-ai-manager/server/internal/core"
	"github.com/invoice-ai-manager/server/internal/query"
)

const testInvoices = `[
	{"id":"1","invoice_number":"INV-001","customer_name":"Acme Corp","customer_email":"billing@acme.com","amount":5420,"due_date":"2024-01-15","status":"paid","created_at":"2024-01-01T00:00:00Z"},
	{"id":"2","invoice_number":"INV-002","customer_name":"TechStart Inc","customer_email":"ap@techstart.io","amount":3200,"due_date":"2024-01-20","status":"pending","created_at":"2024-01-02T00:00:00Z"},
	{"id":"3","invoice_number":"INV-003","customer_name":"Global Solutions","customer_email":"finance@global.com","amount":7650,"due_date":"2024-01-10","status":"overdue","created_at":"2024-01-03T00:00:00Z","days_overdue":8}
]`

// testEnv points the CLI at an httptest API and keeps everything in memory.
func testEnv(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	t.Setenv("API_BASE_URL", srv.URL)
	t.Setenv("API_KEY", "secret")
	t.Setenv("REDIS_URL", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("ENVIRONMENT", "test")
	return filepath.Join(t.TempDir(), "missing.env")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoadConfig(t *testing.T) {
	envFile := testEnv(t, func(http.ResponseWriter, *http.Request) {})
	t.Setenv("AGENT_MAX_OVERDUE", "5")
	t.Setenv("QUERY_PAGE_SIZE", "25")

	cfg, err := loadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, core.Testing, cfg.Environment)
	assert.Equal(t, 5, cfg.Agent.MaxOverdue)
	assert.Equal(t, 2, cfg.Agent.MaxPending)
	assert.Equal(t, 10*time.Second, cfg.Agent.SendTimeout)
	assert.Equal(t, 25, cfg.Query.PageSize)
	assert.Equal(t, "live", cfg.Sources.FollowUps)
	assert.Equal(t, "empty", cfg.Sources.Escalations)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Draft.Enabled())
}

func TestLoadConfigRequiresAPIBaseURL(t *testing.T) {
	envFile := testEnv(t, func(http.ResponseWriter, *http.Request) {})
	t.Setenv("API_BASE_URL", "")

	// an empty value still counts as set for envconfig, so New rejects it
	cfg, err := loadConfig(envFile)
	require.NoError(t, err)
	_, err = newApp(context.Background(), cfg)
	assert.Error(t, err)
}

func TestInvoicesCommand(t *testing.T) {
	envFile := testEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoices", r.URL.Path)
		_, _ = w.Write([]byte(testInvoices))
	})

	out, err := execute(t, "--env-file", envFile, "invoices", "--search", "tech")
	require.NoError(t, err)
	assert.Contains(t, out, "INV-002")
	assert.NotContains(t, out, "INV-001")
	assert.Contains(t, out, "$3,200.00")
	assert.Contains(t, out, "Showing 1 to 1 of 1 results")
	assert.Contains(t, out, "Page 1 of 1")
}

func TestInvoicesCommandRejectsUnknownStatus(t *testing.T) {
	envFile := testEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("api should not be called")
	})
	_, err := execute(t, "--env-file", envFile, "invoices", "--status", "void")
	assert.Error(t, err)
}

func TestSummaryCommand(t *testing.T) {
	envFile := testEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testInvoices))
	})

	out, err := execute(t, "--env-file", envFile, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Invoices:    3")
	assert.Contains(t, out, "Pending / Overdue: 2 (1 pending, 1 overdue)")
	assert.Contains(t, out, "Outstanding:       $10,850.00")
}

func TestRunCommand(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []model.NotificationRequest
	)
	envFile := testEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/invoices":
			_, _ = w.Write([]byte(testInvoices))
		case "/send-email":
			var req model.NotificationRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			mu.Lock()
			sent = append(sent, req)
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	})

	out, err := execute(t, "--env-file", envFile, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "Processed 3 invoices, sent 2 of 2 reminders, escalated 0 cases")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sent, 2)
	assert.Equal(t, "INV-003", sent[0].InvoiceNumber)
	assert.Equal(t, model.ToneUrgent, sent[0].Tone)
	assert.Equal(t, "INV-002", sent[1].InvoiceNumber)
	assert.Equal(t, "3200", sent[1].Amount)
}

func TestRunCommandFetchFailure(t *testing.T) {
	envFile := testEnv(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})
	_, err := execute(t, "--env-file", envFile, "run")
	assert.ErrorContains(t, err, "API Error: 500")
}

func TestEmptyFeeds(t *testing.T) {
	envFile := testEnv(t, func(http.ResponseWriter, *http.Request) {})

	out, err := execute(t, "--env-file", envFile, "escalations")
	require.NoError(t, err)
	assert.Contains(t, out, "No escalations")

	out, err = execute(t, "--env-file", envFile, "followups")
	require.NoError(t, err)
	assert.Contains(t, out, "No follow-ups sent yet")

	out, err = execute(t, "--env-file", envFile, "activity")
	require.NoError(t, err)
	assert.Contains(t, out, "No agent activity yet")
}

func TestPrintInvoicesEmptyPage(t *testing.T) {
	var buf bytes.Buffer
	res := query.Query(nil, query.NewState().WithPage(2), 10)
	require.NoError(t, printInvoices(&buf, res))
	assert.Contains(t, buf.String(), "No invoices found")
	assert.Contains(t, buf.String(), "Showing 0 of 0 results")
	assert.Contains(t, buf.String(), "Page 2 of 1")
}

func TestPrintRunFailures(t *testing.T) {
	var buf bytes.Buffer
	printRun(&buf, &model.RunResult{
		Outcomes: []model.NotificationOutcome{
			{InvoiceNumber: "INV-003", Recipient: "finance@global.com", Tone: model.ToneUrgent, Sent: true},
			{InvoiceNumber: "INV-002", Recipient: "ap@techstart.io", Tone: model.ToneGentle, Err: "notification delivery failed"},
		},
		Summary: "Processed 2 invoices, sent 1 of 2 reminders, escalated 0 cases",
	})
	assert.Contains(t, buf.String(), "INV-003 -> finance@global.com [urgent] sent")
	assert.Contains(t, buf.String(), "INV-002 -> ap@techstart.io [gentle] failed: notification delivery failed")
}

func TestInvoicesCommandHugePage(t *testing.T) {
	envFile := testEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testInvoices))
	})

	out, err := execute(t, "--env-file", envFile, "invoices", "--page", "922337203685477582")
	require.NoError(t, err)
	assert.Contains(t, out, "No invoices found")
	assert.Contains(t, out, "Showing 0 of 3 results")
}

func TestInvoiceShowCommand(t *testing.T) {
	envFile := testEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoices/3", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"3","invoice_number":"INV-003","customer_name":"Global Solutions","customer_email":"finance@global.com","amount":7650,"due_date":"2024-01-10","status":"overdue","days_overdue":8}`))
	})

	out, err := execute(t, "--env-file", envFile, "invoices", "show", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Invoice:  INV-003 (3)")
	assert.Contains(t, out, "Amount:   $7,650.00")
	assert.Contains(t, out, "Due:      January 10th, 2024")
	assert.Contains(t, out, "Overdue:  8 days")
}

func TestInvoiceCreateCommand(t *testing.T) {
	var got model.InvoiceDraft
	envFile := testEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/invoices", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(model.Invoice{
			ID: "10", InvoiceNumber: got.InvoiceNumber, CustomerName: got.CustomerName,
			Amount: got.Amount, DueDate: got.DueDate, Status: got.Status,
		})
	})

	out, err := execute(t, "--env-file", envFile, "invoices", "create",
		"--number", "INV-010", "--customer", "DevTools LLC", "--email", "ap@devtools.dev",
		"--amount", "1250.5", "--due", "2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceDraft{
		InvoiceNumber: "INV-010",
		CustomerName:  "DevTools LLC",
		CustomerEmail: "ap@devtools.dev",
		Amount:        1250.5,
		DueDate:       "2024-02-01",
		Status:        model.StatusPending,
	}, got)
	assert.Contains(t, out, "Invoice:  INV-010 (10)")
	assert.Contains(t, out, "Amount:   $1,250.50")
}

func TestInvoiceCreateValidatesDraft(t *testing.T) {
	envFile := testEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("api should not be called")
	})

	for name, args := range map[string][]string{
		"missing number": {"--customer", "Acme", "--amount", "1", "--due", "2024-02-01"},
		"zero amount":    {"--number", "INV-1", "--customer", "Acme", "--due", "2024-02-01"},
		"bad due date":   {"--number", "INV-1", "--customer", "Acme", "--amount", "1", "--due", "02/01/2024"},
		"bad status":     {"--number", "INV-1", "--customer", "Acme", "--amount", "1", "--due", "2024-02-01", "--status", "void"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, append([]string{"--env-file", envFile, "invoices", "create"}, args...)...)
			assert.Error(t, err)
		})
	}
}
