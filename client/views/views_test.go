package views_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/persistorai/auditdesk/client"
	"github.com/persistorai/auditdesk/client/views"
)

func newTestClient(t *testing.T, routes map[string]http.HandlerFunc) *client.Client {
	t.Helper()

	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return client.New(srv.URL, client.WithToken("tok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func TestListView_States(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		rows []client.Entity
	)

	setRows := func(r []client.Entity) {
		mu.Lock()
		rows = r
		mu.Unlock()
	}

	c := newTestClient(t, map[string]http.HandlerFunc{
		"GET /api/entities": func(w http.ResponseWriter, _ *http.Request) {
			mu.Lock()
			defer mu.Unlock()

			writeJSON(w, http.StatusOK, rows)
		},
	})

	v := views.NewListView(views.Entities(c))
	if v.Status() != views.StatusLoading {
		t.Fatalf("expected loading, got %v", v.Status())
	}

	setRows([]client.Entity{})
	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if v.Status() != views.StatusEmpty || v.Status().String() != "loaded-empty" {
		t.Fatalf("expected loaded-empty, got %v", v.Status())
	}

	risk := "high"
	setRows([]client.Entity{{ID: "e1", Name: "Finance", RiskLevel: &risk}})

	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if v.Status() != views.StatusLoaded {
		t.Fatalf("expected loaded, got %v", v.Status())
	}

	header, cells := v.Table()
	if len(header) != 4 || header[1] != "NAME" {
		t.Fatalf("unexpected header %v", header)
	}

	if cells[0][1] != "Finance" || cells[0][2] != "high" || cells[0][3] != "" {
		t.Fatalf("unexpected cells %v", cells)
	}

	if got := v.RowRoute(0); got != "/entities/e1" {
		t.Errorf("RowRoute = %q", got)
	}
}

func TestListView_ErrorMessage(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, map[string]http.HandlerFunc{
		"GET /api/plans": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
		},
		"GET /api/audits": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
	})

	plans := views.NewListView(views.Plans(c))
	if err := plans.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	if plans.Status() != views.StatusError || plans.Error() != "Invalid or expired token" {
		t.Fatalf("got %v %q", plans.Status(), plans.Error())
	}

	audits := views.NewListView(views.Audits(c))
	_ = audits.Load(context.Background())

	if audits.Error() == "" {
		t.Fatal("expected a fallback message")
	}
}

func TestAuditList_UsesJoinedNames(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, map[string]http.HandlerFunc{
		"GET /api/audits": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []client.Audit{{
				ID:       "a1",
				Title:    "Q1 Review",
				Status:   "planned",
				EntityID: "e1",
				Entity:   &client.EntityRef{ID: "e1", Name: "Finance"},
				Plan:     &client.PlanRef{ID: "p1", Title: "FY26", Year: 2026},
			}})
		},
		"GET /api/entities/{id}": func(_ http.ResponseWriter, _ *http.Request) {
			t.Error("list must not fetch entities one by one")
		},
	})

	v := views.NewListView(views.Audits(c))
	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	_, cells := v.Table()
	if cells[0][3] != "Finance" || cells[0][4] != "FY26" {
		t.Fatalf("unexpected cells %v", cells[0])
	}
}

func TestDetailView_NotFound(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, map[string]http.HandlerFunc{
		"GET /api/findings/{id}": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Finding not found"})
		},
	})

	v := views.NewDetailView(views.Findings(c, ""), "missing")
	if err := v.Load(context.Background()); !client.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	if v.Status() != views.StatusError || v.Error() != "Finding not found" || v.Row() != nil {
		t.Fatalf("unexpected state %v %q", v.Status(), v.Error())
	}
}

func TestDetailView_Delete(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, map[string]http.HandlerFunc{
		"GET /api/plans/{id}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, client.Plan{ID: r.PathValue("id"), Title: "FY26", Year: 2026})
		},
		"DELETE /api/plans/{id}": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
		"DELETE /api/audits/{id}": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Insufficient permissions"})
		},
	})

	ctx := context.Background()

	plan := views.NewDetailView(views.Plans(c), "p1")
	if err := plan.Load(ctx); err != nil || plan.Row().Title != "FY26" {
		t.Fatalf("Load: %v", err)
	}

	back, err := plan.Delete(ctx)
	if err != nil || back != "/plans" {
		t.Fatalf("Delete: %q %v", back, err)
	}

	audit := views.NewDetailView(views.Audits(c), "a1")
	if _, err := audit.Delete(ctx); !client.IsForbidden(err) {
		t.Fatalf("expected 403, got %v", err)
	}

	if audit.Error() != "Insufficient permissions" {
		t.Errorf("Error = %q", audit.Error())
	}
}

func auditRoutes(t *testing.T, created *client.AuditInput) map[string]http.HandlerFunc {
	t.Helper()

	return map[string]http.HandlerFunc{
		"GET /api/entities": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []client.Entity{{ID: "e1", Name: "Finance"}})
		},
		"GET /api/plans": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []client.Plan{{ID: "p1", Title: "FY26", Year: 2026}})
		},
		"GET /api/audits/{id}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, client.Audit{ID: r.PathValue("id"), Title: "Q1 Review", EntityID: "e1"})
		},
		"POST /api/audits": func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(created); err != nil {
				t.Errorf("decode: %v", err)
			}

			if created.EntityID == nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Title and entity_id are required"})
				return
			}

			writeJSON(w, http.StatusCreated, client.Audit{ID: "a2", Title: created.Title, Status: "planned"})
		},
	}
}

func TestAuditForm_Create(t *testing.T) {
	t.Parallel()

	var created client.AuditInput

	c := newTestClient(t, auditRoutes(t, &created))
	ctx := context.Background()

	f := views.AuditForm(c, "")
	if f.Editing() {
		t.Fatal("create form must not be in edit mode")
	}

	if err := f.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if f.Existing() != nil {
		t.Fatal("create form must not load a record")
	}

	if opts := f.Options("entity_id"); len(opts) != 1 || opts[0].Label != "Finance" {
		t.Fatalf("entity options %v", opts)
	}

	if opts := f.Options("plan_id"); len(opts) != 1 || opts[0].Label != "FY26 (2026)" {
		t.Fatalf("plan options %v", opts)
	}

	_, _, err := f.Submit(ctx, &client.AuditInput{Title: "Q1 Review"})
	if !client.IsValidation(err) || f.Error() != "Title and entity_id are required" {
		t.Fatalf("expected validation error, got %v %q", err, f.Error())
	}

	entity := "e1"

	saved, back, err := f.Submit(ctx, &client.AuditInput{Title: "Q1 Review", EntityID: &entity})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if saved.Status != "planned" || back != "/audits" || f.Error() != "" {
		t.Fatalf("unexpected result %+v %q %q", saved, back, f.Error())
	}
}

func TestAuditForm_EditLoadsRecord(t *testing.T) {
	t.Parallel()

	var created client.AuditInput

	c := newTestClient(t, auditRoutes(t, &created))

	f := views.AuditForm(c, "a1")
	if err := f.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !f.Editing() || f.Existing() == nil || f.Existing().ID != "a1" {
		t.Fatalf("expected record a1, got %+v", f.Existing())
	}
}

func TestForm_OptionFailureIsErrorState(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, map[string]http.HandlerFunc{
		"GET /api/entities": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "connection reset"})
		},
	})

	f := views.EntityForm(c, "")
	if err := f.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	if f.Status() != views.StatusError || f.Error() != "connection reset" {
		t.Fatalf("got %v %q", f.Status(), f.Error())
	}
}

func TestFindingForms_BackRoutes(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, map[string]http.HandlerFunc{
		"POST /api/audits/{id}/findings": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusCreated, client.Finding{ID: "f1", AuditID: r.PathValue("id"), Status: "draft", RiskLevel: "medium"})
		},
		"GET /api/findings/{id}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, client.Finding{ID: r.PathValue("id"), AuditID: "a9"})
		},
		"PUT /api/findings/{id}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, client.Finding{ID: r.PathValue("id"), AuditID: "a9"})
		},
		"POST /api/findings/{id}/recommendations": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusCreated, client.Recommendation{ID: "r1", FindingID: r.PathValue("id"), Status: "open"})
		},
	})

	ctx := context.Background()

	nf := views.NewFindingForm(c, "a1")

	saved, back, err := nf.Submit(ctx, &client.FindingInput{Title: "Missing control"})
	if err != nil || back != "/audits/a1" || saved.Status != "draft" {
		t.Fatalf("new finding: %+v %q %v", saved, back, err)
	}

	ef := views.EditFindingForm(c, "f1")
	if err := ef.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, back, err := ef.Submit(ctx, &client.FindingUpdate{Title: "Missing control"}); err != nil || back != "/audits/a9" {
		t.Fatalf("edit finding: %q %v", back, err)
	}

	rf := views.RecommendationForm(c, "f1", "")
	if _, back, err := rf.Submit(ctx, &client.RecommendationInput{Description: "Add a review step"}); err != nil || back != "/findings/f1" {
		t.Fatalf("recommendation: %q %v", back, err)
	}
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	want := map[views.Status]string{
		views.StatusLoading: "loading",
		views.StatusEmpty:   "loaded-empty",
		views.StatusLoaded:  "loaded-nonempty",
		views.StatusError:   "error",
	}

	for s, name := range want {
		if s.String() != name {
			t.Errorf("%d: got %q, want %q", s, s.String(), name)
		}
	}
}
