package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"edufinanzas/internal/api"
	"edufinanzas/internal/logger"
	"edufinanzas/internal/models"
	"edufinanzas/internal/progress"
	"edufinanzas/internal/session"
	"edufinanzas/internal/validation"
)

// fakeBackend serves the subset of the REST API the services call
type fakeBackend struct {
	mu         sync.Mutex
	topics     []models.Topic
	challenges []models.Challenge
	records    []models.ProgressRecord
	user       models.User

	progressStatus int
	solveCorrect   bool
	registerStatus int
	registerBody   string

	created   []models.ProgressRecord
	putUsers  []models.User
	patchForm map[string]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		topics: []models.Topic{
			{ID: 1, Name: "Ahorro"},
			{ID: 2, Name: "Presupuesto"},
		},
		challenges: []models.Challenge{
			{ID: 10, TopicID: 1, Name: "Alcancía", AnswerOne: "a", AnswerTwo: "b", Cost: 0, Reward: 15},
			{ID: 11, TopicID: 1, Name: "Metas", AnswerOne: "a", AnswerTwo: "b", Cost: 30, Reward: 40},
			{ID: 20, TopicID: 2, Name: "Gastos", AnswerOne: "a", AnswerTwo: "b", Cost: 10, Reward: 20},
		},
		user:           models.User{ID: 7, Email: "ana@example.com", Password: "hash", Role: models.RoleUser},
		progressStatus: http.StatusCreated,
		registerStatus: http.StatusCreated,
	}
}

func (f *fakeBackend) handler() http.Handler {
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /temas/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, 200, f.topics)
	})
	mux.HandleFunc("GET /tips/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []models.Tip{{ID: 1, Name: "Ahorra primero"}})
	})
	mux.HandleFunc("GET /retos/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		tema := r.URL.Query().Get("id_tema")
		if tema == "" {
			writeJSON(w, 200, f.challenges)
			return
		}
		out := []models.Challenge{}
		for _, c := range f.challenges {
			if jsonID(c.TopicID) == tema {
				out = append(out, c)
			}
		}
		writeJSON(w, 200, out)
	})
	mux.HandleFunc("GET /retos/{id}/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, c := range f.challenges {
			if r.PathValue("id") == jsonID(c.ID) {
				writeJSON(w, 200, c)
				return
			}
		}
		writeJSON(w, 404, map[string]string{"detail": "No encontrado."})
	})
	mux.HandleFunc("GET /progresos/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		reto := r.URL.Query().Get("id_reto")
		if reto == "" {
			writeJSON(w, 200, f.records)
			return
		}
		var out []models.ProgressRecord
		for _, rec := range append(append([]models.ProgressRecord{}, f.records...), f.created...) {
			if jsonID(rec.ChallengeID) == reto {
				out = append(out, rec)
			}
		}
		writeJSON(w, 200, out)
	})
	mux.HandleFunc("POST /progresos/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var rec models.ProgressRecord
		_ = json.NewDecoder(r.Body).Decode(&rec)
		if f.progressStatus >= 300 {
			writeJSON(w, f.progressStatus, map[string]string{"detail": "fallo"})
			return
		}
		f.created = append(f.created, rec)
		rec.ID = int64(len(f.created))
		writeJSON(w, f.progressStatus, rec)
	})
	mux.HandleFunc("POST /solucionar_reto/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, 200, models.SolveResult{Completed: f.solveCorrect})
	})
	mux.HandleFunc("POST /usuarios/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.registerStatus >= 300 {
			w.WriteHeader(f.registerStatus)
			w.Write([]byte(f.registerBody))
			return
		}
		var req models.NewUserRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, f.registerStatus, models.User{ID: 99, Email: req.Email, Role: req.Role})
	})
	mux.HandleFunc("GET /usuarios/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, 200, []models.User{f.user})
	})
	mux.HandleFunc("GET /usuarios/{id}/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, 200, f.user)
	})
	mux.HandleFunc("PUT /usuarios/{id}/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var u models.User
		_ = json.NewDecoder(r.Body).Decode(&u)
		f.putUsers = append(f.putUsers, u)
		writeJSON(w, 200, u)
	})
	mux.HandleFunc("PATCH /perfiles/{id}/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, 400, map[string]string{"detail": err.Error()})
			return
		}
		f.patchForm = map[string]string{
			"nombre_perfil": r.FormValue("nombre_perfil"),
			"edad":          r.FormValue("edad"),
		}
		photo := ""
		if _, _, err := r.FormFile("foto_perfil"); err == nil {
			photo = "perfiles/nueva.png"
		}
		writeJSON(w, 200, models.Profile{ID: 3, Name: r.FormValue("nombre_perfil"), Photo: photo})
	})
	return mux
}

func jsonID(id int64) string {
	return strconv.FormatInt(id, 10)
}

type fakeAuth struct{ resp *models.LoginResponse }

func (f fakeAuth) Login(context.Context, string, string) (*models.LoginResponse, error) {
	return f.resp, nil
}

type fixture struct {
	backend   *fakeBackend
	client    *api.Client
	catalog   *CatalogService
	challenge *ChallengeService
	holder    *session.Holder
}

func newFixture(t *testing.T, coins int) *fixture {
	t.Helper()
	backend := newFakeBackend()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	log := logger.Nop()
	client := api.New(api.Config{BaseURL: srv.URL}, log)
	catalog := NewCatalogService(client, log)

	store := session.Scope(session.NewMemoryBackend(time.Hour), "sid")
	h := session.NewHolder(store, fakeAuth{resp: &models.LoginResponse{
		Token:   "tok",
		User:    models.User{ID: 7, Email: "ana@example.com", Role: models.RoleUser},
		Profile: &models.Profile{ID: 3, UserID: 7, Name: "Ana", Age: 20, Coins: coins},
	}}, log)
	if res := h.Login(context.Background(), "ana@example.com", "x"); !res.Success {
		t.Fatalf("login: %s", res.Error)
	}

	return &fixture{
		backend:   backend,
		client:    client,
		catalog:   catalog,
		challenge: NewChallengeService(catalog, client, log),
		holder:    h,
	}
}

func TestTopicsComputesUnlocks(t *testing.T) {
	f := newFixture(t, 100)
	f.backend.records = []models.ProgressRecord{{ProfileID: 3, ChallengeID: 10, Completed: true}}

	views, err := f.catalog.Topics(context.Background(), f.holder)
	if err != nil {
		t.Fatalf("Topics: %v", err)
	}
	if len(views) != 2 || views[0].Percentage != 50 || views[1].Unlocked {
		t.Errorf("views = %+v", views)
	}
}

func TestTopicChallengesLockedTopic(t *testing.T) {
	f := newFixture(t, 100)

	_, err := f.catalog.TopicChallenges(context.Background(), f.holder, 2)
	if !errors.Is(err, ErrTopicLocked) {
		t.Errorf("err = %v, want ErrTopicLocked", err)
	}
	_, err = f.catalog.TopicChallenges(context.Background(), f.holder, 404)
	if !errors.Is(err, ErrTopicNotFound) {
		t.Errorf("err = %v, want ErrTopicNotFound", err)
	}
}

func TestStartChargesAfterServerWrite(t *testing.T) {
	f := newFixture(t, 100)
	f.backend.records = []models.ProgressRecord{{ProfileID: 3, ChallengeID: 10, Completed: true}}

	ch, err := f.challenge.Start(context.Background(), f.holder, 1, 11)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if ch.ID != 11 {
		t.Errorf("challenge = %d", ch.ID)
	}
	if f.holder.CoinBalance() != 70 {
		t.Errorf("balance = %d, want 70", f.holder.CoinBalance())
	}
	if len(f.backend.created) != 1 || f.backend.created[0].ChallengeID != 11 || f.backend.created[0].ProfileID != 3 {
		t.Errorf("created = %+v", f.backend.created)
	}
	if f.holder.Pending() != "" {
		t.Errorf("pending left = %q", f.holder.Pending())
	}
}

func TestStartServerFailureKeepsBalance(t *testing.T) {
	f := newFixture(t, 100)
	f.backend.records = []models.ProgressRecord{{ProfileID: 3, ChallengeID: 10, Completed: true}}
	f.backend.progressStatus = http.StatusInternalServerError

	if _, err := f.challenge.Start(context.Background(), f.holder, 1, 11); err == nil {
		t.Fatal("Start succeeded on server failure")
	}
	if f.holder.CoinBalance() != 100 {
		t.Errorf("balance = %d, want 100", f.holder.CoinBalance())
	}
	if f.holder.Pending() != "" {
		t.Errorf("pending left = %q", f.holder.Pending())
	}
}

func TestStartGuards(t *testing.T) {
	tests := []struct {
		name    string
		coins   int
		records []models.ProgressRecord
		topic   int64
		id      int64
		want    error
	}{
		{"locked challenge", 100, nil, 1, 11, progress.ErrChallengeLocked},
		{"already completed", 100, []models.ProgressRecord{{ChallengeID: 10, Completed: true}}, 1, 10, progress.ErrChallengeCompleted},
		{"not enough coins", 29, []models.ProgressRecord{{ChallengeID: 10, Completed: true}}, 1, 11, progress.ErrInsufficientCoins},
		{"challenge of another topic", 100, nil, 1, 20, ErrChallengeNotFound},
		{"locked topic", 100, nil, 2, 20, ErrTopicLocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.coins)
			f.backend.records = tt.records

			_, err := f.challenge.Start(context.Background(), f.holder, tt.topic, tt.id)

			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if len(f.backend.created) != 0 || f.holder.CoinBalance() != tt.coins {
				t.Errorf("side effects: created=%d balance=%d", len(f.backend.created), f.holder.CoinBalance())
			}
		})
	}
}

func TestStartInsufficientCoinsCarriesAmounts(t *testing.T) {
	f := newFixture(t, 5)
	f.backend.records = []models.ProgressRecord{{ChallengeID: 10, Completed: true}}

	_, err := f.challenge.Start(context.Background(), f.holder, 1, 11)

	var coinsErr *InsufficientCoinsError
	if !errors.As(err, &coinsErr) || coinsErr.Needed != 30 || coinsErr.Have != 5 {
		t.Errorf("err = %#v", err)
	}
}

func TestSolve(t *testing.T) {
	tests := []struct {
		name        string
		correct     bool
		wantBalance int
	}{
		{"correct answer credits reward", true, 65},
		{"wrong answer keeps balance", false, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 50)
			f.backend.solveCorrect = tt.correct
			f.backend.records = []models.ProgressRecord{{ID: 1, ProfileID: 3, ChallengeID: 10}}

			out, err := f.challenge.Solve(context.Background(), f.holder, 10, "a")
			if err != nil {
				t.Fatalf("Solve: %v", err)
			}
			if out.Correct != tt.correct || f.holder.CoinBalance() != tt.wantBalance {
				t.Errorf("correct=%v balance=%d", out.Correct, f.holder.CoinBalance())
			}
		})
	}
}

func TestSolveErrors(t *testing.T) {
	f := newFixture(t, 50)

	if _, err := f.challenge.Solve(context.Background(), f.holder, 10, "  "); !errors.Is(err, ErrNoAnswer) {
		t.Errorf("blank answer err = %v", err)
	}
	if _, err := f.challenge.Solve(context.Background(), f.holder, 404, "a"); !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("missing challenge err = %v", err)
	}
}

func TestChallengeRequiresStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 50)

	if _, err := f.challenge.Challenge(ctx, f.holder, 10); !errors.Is(err, ErrChallengeNotStarted) {
		t.Fatalf("Challenge before start = %v, want ErrChallengeNotStarted", err)
	}
	if _, err := f.challenge.Solve(ctx, f.holder, 10, "a"); !errors.Is(err, ErrChallengeNotStarted) {
		t.Fatalf("Solve before start = %v, want ErrChallengeNotStarted", err)
	}
	if f.holder.CoinBalance() != 50 {
		t.Errorf("balance = %d, want 50", f.holder.CoinBalance())
	}

	if _, err := f.challenge.Start(ctx, f.holder, 1, 10); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ch, err := f.challenge.Challenge(ctx, f.holder, 10)
	if err != nil || ch.ID != 10 {
		t.Fatalf("Challenge after start = %+v, %v", ch, err)
	}
}

type recordingMailer struct {
	to   []string
	fail error
}

func (m *recordingMailer) SendWelcomeEmail(_ context.Context, to, _ string) error {
	m.to = append(m.to, to)
	return m.fail
}

func validRegistration() validation.RegisterForm {
	return validation.RegisterForm{
		Email:    "nuevo@example.com",
		Password: "Secreta1!",
		Confirm:  "Secreta1!",
		Name:     "Nuevo",
		Age:      "20",
	}
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"created", http.StatusCreated, "", ""},
		{"duplicate email", 400, `{"correo":["usuario con este correo ya existe."]}`, MsgEmailTaken},
		{"other field error", 400, `{"edad":["Valor inválido."]}`, MsgInvalidData},
		{"server error", 500, `boom`, MsgRegisterFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0)
			f.backend.registerStatus = tt.status
			f.backend.registerBody = tt.body
			mailer := &recordingMailer{}
			svc := NewAccountService(f.client, validation.New(), mailer, logger.Nop())

			user, err := svc.Register(context.Background(), validRegistration())

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Register: %v", err)
				}
				if user.Role != models.RoleUser || len(mailer.to) != 1 {
					t.Errorf("user=%+v mails=%v", user, mailer.to)
				}
				return
			}
			if got := FormMessage(err, ""); got != tt.wantErr {
				t.Errorf("message = %q, want %q", got, tt.wantErr)
			}
			if len(mailer.to) != 0 {
				t.Error("welcome email sent for failed registration")
			}
		})
	}
}

func TestRegisterValidationStopsBeforeBackend(t *testing.T) {
	f := newFixture(t, 0)
	f.backend.registerStatus = 500
	svc := NewAccountService(f.client, validation.New(), nil, logger.Nop())

	form := validRegistration()
	form.Age = "12"
	_, err := svc.Register(context.Background(), form)

	if got := FormMessage(err, ""); got != "Debes tener al menos 14 años para registrarte" {
		t.Errorf("message = %q", got)
	}
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	f := newFixture(t, 0)
	svc := NewAccountService(f.client, validation.New(), &recordingMailer{fail: errors.New("ses down")}, logger.Nop())

	if _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Errorf("Register: %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t, 80)
	svc := NewAccountService(f.client, validation.New(), nil, logger.Nop())

	form := validation.ProfileForm{Email: "ana.maria@example.com", Name: "Ana María", Age: "21"}
	photo := &Photo{Reader: strings.NewReader("png"), Filename: "yo.png"}
	if err := svc.UpdateProfile(context.Background(), f.holder, form, photo); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	if f.backend.patchForm["nombre_perfil"] != "Ana María" || f.backend.patchForm["edad"] != "21" {
		t.Errorf("patch form = %v", f.backend.patchForm)
	}
	if len(f.backend.putUsers) != 1 {
		t.Fatalf("user PUTs = %d, want 1", len(f.backend.putUsers))
	}
	put := f.backend.putUsers[0]
	if put.Email != form.Email || put.Password != "hash" || put.Role != models.RoleUser {
		t.Errorf("PUT user = %+v", put)
	}

	acc := f.holder.Account()
	if acc.Email != form.Email || acc.Profile.Name != "Ana María" || acc.Profile.Age != 21 {
		t.Errorf("session record = %+v / %+v", acc.User, acc.Profile)
	}
	if acc.Profile.Coins != 80 || acc.Profile.Photo != "perfiles/nueva.png" {
		t.Errorf("coins=%d photo=%q", acc.Profile.Coins, acc.Profile.Photo)
	}
}

func TestUpdateProfileSameEmailSkipsUserPut(t *testing.T) {
	f := newFixture(t, 80)
	svc := NewAccountService(f.client, validation.New(), nil, logger.Nop())

	form := validation.ProfileForm{Email: "ana@example.com", Name: "Ana", Age: "22"}
	if err := svc.UpdateProfile(context.Background(), f.holder, form, nil); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if len(f.backend.putUsers) != 0 {
		t.Errorf("unexpected user PUT: %+v", f.backend.putUsers)
	}
}

func TestAdminRejectsInvalidChallenge(t *testing.T) {
	f := newFixture(t, 0)
	svc := NewAdminService(f.client, validation.New(), logger.Nop())

	_, err := svc.SaveChallenge(context.Background(), "tok", 0, validation.ChallengeForm{
		TopicID:       1,
		Name:          "Reto",
		Description:   "d",
		Question:      "¿?",
		AnswerOne:     "a",
		AnswerTwo:     "b",
		CorrectAnswer: "c",
	})

	var invalid *InvalidFormError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidFormError", err)
	}
	if invalid.Fields["respuesta_correcta"] == "" {
		t.Errorf("fields = %v", invalid.Fields)
	}
}

func TestAdminDashboard(t *testing.T) {
	f := newFixture(t, 0)
	svc := NewAdminService(f.client, validation.New(), logger.Nop())

	d, err := svc.Dashboard(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(d.Topics) != 2 || len(d.Challenges) != 3 || len(d.Tips) != 1 || len(d.Users) != 1 {
		t.Errorf("dashboard = %d topics, %d challenges, %d tips, %d users",
			len(d.Topics), len(d.Challenges), len(d.Tips), len(d.Users))
	}
}

func TestAdminChallengesFilterByTopic(t *testing.T) {
	f := newFixture(t, 0)
	svc := NewAdminService(f.client, validation.New(), logger.Nop())

	all, err := svc.Challenges(context.Background(), "tok", 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("all challenges = %d, %v", len(all), err)
	}
	first, err := svc.Challenges(context.Background(), "tok", 1)
	if err != nil {
		t.Fatalf("Challenges(1): %v", err)
	}
	if len(first) != 2 || first[0].ID != 10 || first[1].ID != 11 {
		t.Errorf("topic 1 challenges = %+v", first)
	}
}

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sesv2.SendEmailOutput{}, nil
}

func TestWelcomeEmail(t *testing.T) {
	ses := &fakeSES{}
	svc := NewEmailServiceWithClient(ses, EmailConfig{
		FromEmail:  "hola@edufinanzas.test",
		FromName:   "EduFinanzas",
		AppBaseURL: "https://edufinanzas.test/",
	}, logger.Nop())

	if err := svc.SendWelcomeEmail(context.Background(), "ana@example.com", "Ana"); err != nil {
		t.Fatalf("SendWelcomeEmail: %v", err)
	}
	if len(ses.inputs) != 1 {
		t.Fatalf("sent %d emails", len(ses.inputs))
	}
	in := ses.inputs[0]
	if *in.FromEmailAddress != "EduFinanzas <hola@edufinanzas.test>" || in.Destination.ToAddresses[0] != "ana@example.com" {
		t.Errorf("from=%q to=%v", *in.FromEmailAddress, in.Destination.ToAddresses)
	}
	html := *in.Content.Simple.Body.Html.Data
	if !strings.Contains(html, "https://edufinanzas.test/login") || !strings.Contains(html, "Hola Ana") {
		t.Errorf("html body = %s", html)
	}
}

func TestDisabledEmailServiceIsNoop(t *testing.T) {
	svc, err := NewEmailService(context.Background(), EmailConfig{}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if svc.IsEnabled() {
		t.Error("enabled without sender")
	}
	if err := svc.SendWelcomeEmail(context.Background(), "a@b.co", "A"); err != nil {
		t.Errorf("disabled send = %v", err)
	}
}
