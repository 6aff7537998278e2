// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/google/uuid"

	"github.com/humaidq/biodash/dashboard"
	"github.com/humaidq/biodash/db"
	"github.com/humaidq/biodash/ranges"
)

var errTestBoom = errors.New("boom")

// fakeStore is an in-memory Store that also serves as a dashboard.Source.
type fakeStore struct {
	profiles     map[string]*db.Profile
	results      map[string]db.Result
	appointments map[string]db.Appointment
	ranges       map[string]ranges.ReferenceRange

	createResultErr error
	deleted         []string
}

var _ dashboard.Source = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:     make(map[string]*db.Profile),
		results:      make(map[string]db.Result),
		appointments: make(map[string]db.Appointment),
		ranges:       make(map[string]ranges.ReferenceRange),
	}
}

func (f *fakeStore) addProfile(name string, dob time.Time, primary bool) string {
	id := uuid.New()
	f.profiles[id.String()] = &db.Profile{
		ID:          id,
		Name:        name,
		DateOfBirth: dob,
		Sex:         ranges.SexMale,
		IsPrimary:   primary,
	}
	return id.String()
}

func (f *fakeStore) addResult(profileID, biomarker string, value float64, at time.Time) string {
	id := uuid.New()
	f.results[id.String()] = db.Result{
		ID:         id,
		ProfileID:  uuid.MustParse(profileID),
		Biomarker:  biomarker,
		Value:      value,
		Unit:       "mg/dL",
		MeasuredAt: at,
	}
	return id.String()
}

func (f *fakeStore) ListProfiles(context.Context) ([]db.Profile, error) {
	out := make([]db.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) GetProfile(_ context.Context, id string) (*db.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, db.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeStore) GetPrimaryProfile(context.Context) (*db.Profile, error) {
	for _, p := range f.profiles {
		if p.IsPrimary {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateProfile(_ context.Context, input db.ProfileInput) (string, error) {
	id := uuid.New()
	f.profiles[id.String()] = &db.Profile{
		ID:          id,
		Name:        input.Name,
		DateOfBirth: input.DateOfBirth,
		Sex:         input.Sex,
		IsPrimary:   input.IsPrimary,
	}
	return id.String(), nil
}

func (f *fakeStore) UpdateProfile(_ context.Context, id string, input db.ProfileInput) error {
	p, ok := f.profiles[id]
	if !ok {
		return db.ErrProfileNotFound
	}
	p.Name = input.Name
	p.DateOfBirth = input.DateOfBirth
	p.Sex = input.Sex
	p.IsPrimary = input.IsPrimary
	return nil
}

func (f *fakeStore) DeleteProfile(_ context.Context, id string) error {
	if _, ok := f.profiles[id]; !ok {
		return db.ErrProfileNotFound
	}
	delete(f.profiles, id)
	return nil
}

func (f *fakeStore) CreateResult(_ context.Context, input db.CreateResultInput) (string, error) {
	if f.createResultErr != nil {
		return "", f.createResultErr
	}
	if _, ok := f.profiles[input.ProfileID]; !ok {
		return "", db.ErrProfileNotFound
	}

	id := uuid.New()
	f.results[id.String()] = db.Result{
		ID:         id,
		ProfileID:  uuid.MustParse(input.ProfileID),
		Biomarker:  input.Biomarker,
		Value:      input.Value,
		Unit:       input.Unit,
		MeasuredAt: input.MeasuredAt,
	}
	return id.String(), nil
}

func (f *fakeStore) GetResult(_ context.Context, id string) (*db.Result, error) {
	r, ok := f.results[id]
	if !ok {
		return nil, db.ErrResultNotFound
	}
	return &r, nil
}

func (f *fakeStore) DeleteResult(_ context.Context, id string) error {
	if _, ok := f.results[id]; !ok {
		return db.ErrResultNotFound
	}
	delete(f.results, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) ListResults(_ context.Context, profileID string) ([]db.Result, error) {
	var out []db.Result
	for _, r := range f.results {
		if r.ProfileID.String() == profileID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) LatestResults(ctx context.Context, profileID string) ([]db.Result, error) {
	all, _ := f.ListResults(ctx, profileID)

	latest := make(map[string]db.Result)
	for _, r := range all {
		if cur, ok := latest[r.Biomarker]; !ok || r.MeasuredAt.After(cur.MeasuredAt) {
			latest[r.Biomarker] = r
		}
	}

	out := make([]db.Result, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) ListResultsByBiomarker(ctx context.Context, profileID, biomarker string) ([]db.Result, error) {
	all, _ := f.ListResults(ctx, profileID)

	var out []db.Result
	for _, r := range all {
		if r.Biomarker == biomarker {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetReferenceRange(_ context.Context, biomarker string, _ ranges.Sex, _ ranges.AgeGroup) (ranges.ReferenceRange, error) {
	ref, ok := f.ranges[biomarker]
	if !ok {
		return ranges.ReferenceRange{}, db.ErrReferenceRangeNotFound
	}
	return ref, nil
}

func (f *fakeStore) Biomarkers(context.Context) ([]string, error) {
	return []string{"Fasting Glucose"}, nil
}

func (f *fakeStore) CreateAppointment(_ context.Context, input db.AppointmentInput) (string, error) {
	if !input.EndsAt.After(input.StartsAt) {
		return "", db.ErrInvalidAppointmentTime
	}

	for _, a := range f.appointments {
		if a.ProfileID.String() == input.ProfileID && a.Overlaps(input.StartsAt, input.EndsAt) {
			return "", db.ErrAppointmentConflict
		}
	}

	id := uuid.New()
	f.appointments[id.String()] = db.Appointment{
		ID:        id,
		ProfileID: uuid.MustParse(input.ProfileID),
		Title:     input.Title,
		StartsAt:  input.StartsAt,
		EndsAt:    input.EndsAt,
	}
	return id.String(), nil
}

func (f *fakeStore) GetAppointment(_ context.Context, id string) (*db.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, db.ErrAppointmentNotFound
	}
	return &a, nil
}

func (f *fakeStore) DeleteAppointment(_ context.Context, id string) error {
	if _, ok := f.appointments[id]; !ok {
		return db.ErrAppointmentNotFound
	}
	delete(f.appointments, id)
	return nil
}

func (f *fakeStore) ListUpcomingAppointments(_ context.Context, profileID string, from time.Time) ([]db.Appointment, error) {
	var out []db.Appointment
	for _, a := range f.appointments {
		if a.ProfileID.String() == profileID && a.EndsAt.After(from) {
			out = append(out, a)
		}
	}
	return out, nil
}

func newMutatingHandlersTestApp(s session.Session, store *fakeStore) *flamego.Flame {
	f := flamego.New()
	f.Use(func(c flamego.Context) {
		c.MapTo(s, (*session.Session)(nil))
		c.MapTo(store, (*Store)(nil))
		c.Map(dashboard.New(store))
		c.Next()
	})

	f.Get("/", Index)
	f.Post("/profiles", CreateProfile)
	f.Post("/profiles/{id}/edit", UpdateProfile)
	f.Post("/profiles/{id}/delete", DeleteProfile)
	f.Post("/profiles/{id}/results", AddResult)
	f.Post("/profiles/{id}/results/{result_id}/delete", DeleteResult)
	f.Post("/profiles/{id}/appointments", AddAppointment)
	f.Post("/profiles/{id}/appointments/{appt_id}/delete", DeleteAppointment)
	f.Get("/api/profiles/{id}/biomarkers", BiomarkersJSON)

	return f
}

func performFormPOST(
	t *testing.T,
	f *flamego.Flame,
	path string,
	form url.Values,
) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	return rec
}

func performGET(t *testing.T, f *flamego.Flame, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	return rec
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, wantLocation string) {
	t.Helper()

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	if got := rec.Header().Get("Location"); got != wantLocation {
		t.Fatalf("expected redirect %q, got %q", wantLocation, got)
	}
}

func assertFlash(t *testing.T, s *testSession, wantType FlashType, wantMessage string) {
	t.Helper()

	msg, ok := s.flash.(FlashMessage)
	if !ok {
		t.Fatalf("expected flash message, got %T", s.flash)
	}

	if msg.Type != wantType || msg.Message != wantMessage {
		t.Fatalf("unexpected flash message: %#v", msg)
	}
}

func adultDOB() time.Time {
	return time.Now().AddDate(-35, 0, 0)
}

func TestIndexRedirect(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	app := newMutatingHandlersTestApp(newTestSession(), store)

	assertRedirect(t, performGET(t, app, "/"), "/profiles")

	id := store.addProfile("Primary", adultDOB(), true)
	assertRedirect(t, performGET(t, app, "/"), "/profiles/"+id)
}

func TestCreateProfile(t *testing.T) {
	t.Parallel()

	t.Run("validation error", func(t *testing.T) {
		t.Parallel()

		s := newTestSession()
		store := newFakeStore()
		rec := performFormPOST(t, newMutatingHandlersTestApp(s, store), "/profiles", url.Values{
			"name":          {"Alice"},
			"date_of_birth": {"1990-01-01"},
			"sex":           {"other"},
		})

		assertRedirect(t, rec, "/profiles")
		assertFlash(t, s, FlashError, "Sex must be male or female")

		if len(store.profiles) != 0 {
			t.Fatalf("expected no profile to be created")
		}
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		s := newTestSession()
		store := newFakeStore()
		rec := performFormPOST(t, newMutatingHandlersTestApp(s, store), "/profiles", url.Values{
			"name":          {"Alice"},
			"date_of_birth": {"1990-01-01"},
			"sex":           {"female"},
			"is_primary":    {"on"},
		})

		if len(store.profiles) != 1 {
			t.Fatalf("expected one profile, got %d", len(store.profiles))
		}

		for id, p := range store.profiles {
			assertRedirect(t, rec, "/profiles/"+id)

			if !p.IsPrimary || p.Sex != ranges.SexFemale {
				t.Fatalf("unexpected profile %+v", p)
			}
		}

		assertFlash(t, s, FlashSuccess, "Profile created successfully")
	})
}

func TestUpdateAndDeleteProfile(t *testing.T) {
	t.Parallel()

	s := newTestSession()
	store := newFakeStore()
	app := newMutatingHandlersTestApp(s, store)
	id := store.addProfile("Bob", adultDOB(), false)

	rec := performFormPOST(t, app, "/profiles/"+id+"/edit", url.Values{"name": {""}})
	assertRedirect(t, rec, "/profiles/"+id+"/edit")
	assertFlash(t, s, FlashError, "Profile name is required")

	rec = performFormPOST(t, app, "/profiles/"+id+"/edit", url.Values{
		"name":          {"Robert"},
		"date_of_birth": {"1980-02-03"},
		"sex":           {"male"},
	})
	assertRedirect(t, rec, "/profiles/"+id)

	if store.profiles[id].Name != "Robert" {
		t.Fatalf("expected name to be updated, got %q", store.profiles[id].Name)
	}

	rec = performFormPOST(t, app, "/profiles/"+id+"/delete", nil)
	assertRedirect(t, rec, "/profiles")
	assertFlash(t, s, FlashSuccess, "Profile deleted successfully")

	rec = performFormPOST(t, app, "/profiles/"+id+"/delete", nil)
	assertRedirect(t, rec, "/profiles")
	assertFlash(t, s, FlashError, "Profile not found")
}

func TestAddResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		form      url.Values
		storeErr  error
		wantType  FlashType
		wantFlash string
		wantCount int
	}{
		{
			name:      "invalid value",
			form:      url.Values{"biomarker": {"Fasting Glucose"}, "value": {"high"}, "measured_at": {"2024-01-02T08:00"}},
			wantType:  FlashError,
			wantFlash: "Value must be a number",
		},
		{
			name:      "missing date",
			form:      url.Values{"biomarker": {"Fasting Glucose"}, "value": {"90"}},
			wantType:  FlashError,
			wantFlash: "Date is required",
		},
		{
			name:      "store failure",
			form:      url.Values{"biomarker": {"Fasting Glucose"}, "value": {"90"}, "measured_at": {"2024-01-02T08:00"}},
			storeErr:  errTestBoom,
			wantType:  FlashError,
			wantFlash: "Failed to add result",
		},
		{
			name:      "success",
			form:      url.Values{"biomarker": {"Fasting Glucose"}, "value": {"90"}, "unit": {"mg/dL"}, "measured_at": {"2024-01-02T08:00"}},
			wantType:  FlashSuccess,
			wantFlash: "Result added successfully",
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestSession()
			store := newFakeStore()
			store.createResultErr = tt.storeErr
			id := store.addProfile("Alice", adultDOB(), false)

			rec := performFormPOST(t, newMutatingHandlersTestApp(s, store), "/profiles/"+id+"/results", tt.form)

			assertRedirect(t, rec, "/profiles/"+id)
			assertFlash(t, s, tt.wantType, tt.wantFlash)

			if len(store.results) != tt.wantCount {
				t.Fatalf("expected %d results, got %d", tt.wantCount, len(store.results))
			}
		})
	}
}

func TestDeleteResultChecksOwnership(t *testing.T) {
	t.Parallel()

	s := newTestSession()
	store := newFakeStore()
	app := newMutatingHandlersTestApp(s, store)

	owner := store.addProfile("Owner", adultDOB(), false)
	other := store.addProfile("Other", adultDOB(), false)
	resultID := store.addResult(owner, "Fasting Glucose", 90, time.Now().AddDate(0, -1, 0))

	rec := performFormPOST(t, app, "/profiles/"+other+"/results/"+resultID+"/delete", nil)
	assertRedirect(t, rec, "/profiles/"+other)
	assertFlash(t, s, FlashError, "Result not found")

	if len(store.deleted) != 0 {
		t.Fatalf("expected result of another profile to be kept")
	}

	rec = performFormPOST(t, app, "/profiles/"+owner+"/results/"+resultID+"/delete", nil)
	assertRedirect(t, rec, "/profiles/"+owner)
	assertFlash(t, s, FlashSuccess, "Result deleted successfully")

	if len(store.deleted) != 1 || store.deleted[0] != resultID {
		t.Fatalf("expected result to be deleted, got %v", store.deleted)
	}
}

func TestAppointmentHandlers(t *testing.T) {
	t.Parallel()

	s := newTestSession()
	store := newFakeStore()
	app := newMutatingHandlersTestApp(s, store)
	id := store.addProfile("Alice", adultDOB(), false)
	path := "/profiles/" + id + "/appointments"

	rec := performFormPOST(t, app, path, url.Values{
		"title":     {"Blood draw"},
		"starts_at": {"2030-04-01T09:00"},
		"ends_at":   {"2030-04-01T10:00"},
	})
	assertRedirect(t, rec, "/profiles/"+id)
	assertFlash(t, s, FlashSuccess, "Appointment booked")

	rec = performFormPOST(t, app, path, url.Values{
		"title":     {"Follow up"},
		"starts_at": {"2030-04-01T09:30"},
		"ends_at":   {"2030-04-01T10:30"},
	})
	assertRedirect(t, rec, "/profiles/"+id)
	assertFlash(t, s, FlashError, "Appointment overlaps an existing booking")

	// Back-to-back slots do not overlap
	rec = performFormPOST(t, app, path, url.Values{
		"title":     {"Follow up"},
		"starts_at": {"2030-04-01T10:00"},
		"ends_at":   {"2030-04-01T10:30"},
	})
	assertFlash(t, s, FlashSuccess, "Appointment booked")

	rec = performFormPOST(t, app, path, url.Values{
		"title":     {"Backwards"},
		"starts_at": {"2030-05-01T10:00"},
		"ends_at":   {"2030-05-01T09:00"},
	})
	assertFlash(t, s, FlashError, "Appointment must end after it starts")

	if len(store.appointments) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(store.appointments))
	}

	other := store.addProfile("Other", adultDOB(), false)
	for apptID := range store.appointments {
		rec = performFormPOST(t, app, "/profiles/"+other+"/appointments/"+apptID+"/delete", nil)
		assertRedirect(t, rec, "/profiles/"+other)
		assertFlash(t, s, FlashError, "Appointment not found")

		rec = performFormPOST(t, app, "/profiles/"+id+"/appointments/"+apptID+"/delete", nil)
		assertRedirect(t, rec, "/profiles/"+id)
		assertFlash(t, s, FlashSuccess, "Appointment cancelled")
	}

	if len(store.appointments) != 0 {
		t.Fatalf("expected all appointments to be cancelled")
	}
}
