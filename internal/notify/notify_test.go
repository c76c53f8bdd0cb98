package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alienxp03/santa/internal/core"
)

var (
	alex = core.Participant{Name: "Alex", Contact: "alex@example.com", Wishes: "books"}
	sam  = core.Participant{Name: "Sam", Contact: "sam@example.com"}
)

func TestEmailJSNotifier(t *testing.T) {
	var got sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	n, err := NewEmailJSNotifier(server.Client(), EmailJSConfig{
		Endpoint:   server.URL,
		ServiceID:  "service_1",
		TemplateID: "template_1",
		UserID:     "public_1",
	}, nil)
	if err != nil {
		t.Fatalf("failed to create notifier: %v", err)
	}

	if err := n.Notify(context.Background(), alex, sam); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if got.ServiceID != "service_1" || got.TemplateID != "template_1" || got.UserID != "public_1" {
		t.Errorf("credentials not sent: %+v", got)
	}
	wantParams := map[string]string{
		"to_name":         "Alex",
		"to_email":        "alex@example.com",
		"receiver_name":   "Sam",
		"receiver_wishes": "No gift ideas shared.",
		"message":         "Hi Alex! You are the Secret Santa for Sam. Gift ideas: No gift ideas shared.",
	}
	if diff := cmp.Diff(wantParams, got.TemplateParams); diff != "" {
		t.Errorf("template params mismatch (-want +got):\n%s", diff)
	}
}

func TestEmailJSNotifier_Failures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "The template ID is invalid", http.StatusBadRequest)
	}))
	defer server.Close()

	n, err := NewEmailJSNotifier(server.Client(), EmailJSConfig{
		Endpoint: server.URL, ServiceID: "s", TemplateID: "t", UserID: "u",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("BadStatus", func(t *testing.T) {
		err := n.Notify(context.Background(), alex, sam)
		var nerr *Error
		if !errors.As(err, &nerr) {
			t.Fatalf("expected *Error, got %v", err)
		}
		if nerr.Giver != "Alex" || !strings.Contains(err.Error(), "400") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("NoContact", func(t *testing.T) {
		err := n.Notify(context.Background(), core.Participant{Name: "Jo"}, sam)
		if err == nil || !strings.Contains(err.Error(), "no contact") {
			t.Errorf("expected missing contact error, got %v", err)
		}
	})

	t.Run("MissingCredentials", func(t *testing.T) {
		if _, err := NewEmailJSNotifier(nil, EmailJSConfig{ServiceID: "s"}, nil); err == nil {
			t.Error("expected error for missing credentials")
		}
	})
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	hidden := NewLogNotifier(logger, false)
	if err := hidden.Notify(context.Background(), alex, sam); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "receiver=Sam") {
		t.Errorf("receiver leaked into log: %s", buf.String())
	}

	buf.Reset()
	revealed := NewLogNotifier(logger, true)
	if err := revealed.Notify(context.Background(), alex, sam); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "receiver=Sam") {
		t.Errorf("expected receiver in log: %s", buf.String())
	}
}

func TestRegistryAndMulti(t *testing.T) {
	var calls atomic.Int32
	ok := Func{ID: "ok", Fn: func(context.Context, core.Participant, core.Participant) error {
		calls.Add(1)
		return nil
	}}
	bad := Func{ID: "bad", Fn: func(context.Context, core.Participant, core.Participant) error {
		calls.Add(1)
		return errors.New("boom")
	}}

	r := NewRegistry()
	r.Register(ok)
	r.Register(bad)

	if diff := cmp.Diff([]string{"bad", "ok"}, r.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if _, err := r.Get("missing"); err == nil {
		t.Error("expected error for missing notifier")
	}

	single, err := r.Select("ok")
	if err != nil || single.Name() != "ok" {
		t.Fatalf("Select(ok) = %v, %v", single, err)
	}

	both, err := r.Select("ok", "bad")
	if err != nil {
		t.Fatal(err)
	}
	if both.Name() != "ok+bad" {
		t.Errorf("unexpected multi name %q", both.Name())
	}

	err = both.Notify(context.Background(), alex, sam)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected joined failure, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected both notifiers called, got %d", calls.Load())
	}
}

func TestAll(t *testing.T) {
	roster := []core.Participant{alex, sam, {Name: "Jo", Contact: "jo@example.com"}}
	set := core.AssignmentSet{{Giver: "Alex", Receiver: "Sam"}, {Giver: "Sam", Receiver: "Jo"}, {Giver: "Jo", Receiver: "Alex"}}

	var (
		mu   sync.Mutex
		seen = map[string]string{}
	)
	n := Func{ID: "test", Fn: func(_ context.Context, g, r core.Participant) error {
		mu.Lock()
		defer mu.Unlock()
		seen[g.Name] = r.Name
		if g.Name == "Sam" {
			return errors.New("mailbox full")
		}
		return nil
	}}

	report, err := All(context.Background(), n, roster, set, 2)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if report.Sent != 2 || len(report.Failed) != 1 {
		t.Fatalf("unexpected report: sent=%d failed=%d", report.Sent, len(report.Failed))
	}
	if report.Failed[0].Giver != "Sam" {
		t.Errorf("wrong failed giver: %s", report.Failed[0].Giver)
	}
	if report.Err() == nil {
		t.Error("expected report error")
	}

	want := map[string]string{"Alex": "Sam", "Sam": "Jo", "Jo": "Alex"}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("deliveries mismatch (-want +got):\n%s", diff)
	}

	if _, err := All(context.Background(), n, roster[:1], set, 2); err == nil {
		t.Error("expected error when the set does not match the roster")
	}
}
