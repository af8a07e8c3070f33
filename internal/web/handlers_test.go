package web

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/cvasconcelos/relatorio-rural/internal/config"
	"github.com/cvasconcelos/relatorio-rural/internal/visit"
)

// fakeChatServer returns an httptest server speaking just enough of the
// chat-completions protocol for the handlers under test.
func fakeChatServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testServer(t *testing.T, endpoint string) *Server {
	t.Helper()
	srv, err := NewServer(config.Config{APIKey: "sk-test", Endpoint: endpoint})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

// completeForm returns form values that pass every validation rule.
func completeForm() url.Values {
	return url.Values{
		"data":                {"2024-05-01"},
		"hora_inicio":         {"08:00"},
		"hora_fim":            {"09:30"},
		"tipo_propriedade":    {"Fazenda"},
		"nome_propriedade":    {"São José"},
		"endereco":            {"Linha 5"},
		"municipio":           {"Ariquemes"},
		"uf":                  {"RO"},
		"lat_long_porteira":   {"-9.89,-63.01"},
		"lat_long_sede":       {"-9.90,-63.02"},
		"area":                {"10"},
		"unidade_area":        {"hectares"},
		"nome_proprietario":   {"João Silva"},
		"cpf_cnpj":            {"123.456.789-00"},
		"telefone":            {"(69) 99999-0000"},
		"atividade_principal": {"Criação de bovinos"},
		"numero_placa":        {"PSR-001"},
	}
}

func postForm(t *testing.T, srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t, "")

	r := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q, want status ok", w.Body.String())
	}
}

func TestFormRendered(t *testing.T) {
	srv := testServer(t, "")

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{
		`name="nome_propriedade"`,
		`name="lat_long_porteira"`,
		`name="marca_gado"`,
		"Fazenda",
		"alqueires",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("form missing %q", want)
		}
	}
}

func TestConfigErrorWithoutAPIKey(t *testing.T) {
	srv, err := NewServer(config.Config{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	if !strings.Contains(w.Body.String(), "API Key") {
		t.Error("expected configuration notice")
	}
	if strings.Contains(w.Body.String(), `name="nome_propriedade"`) {
		t.Error("form should not render without the API key")
	}
}

func TestGenerateMissingFields(t *testing.T) {
	srv := testServer(t, "")

	form := completeForm()
	form.Set("nome_proprietario", "  ")
	form.Del("numero_placa")

	w := postForm(t, srv, "/gerar", form)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	body := w.Body.String()
	if !strings.Contains(body, "campos obrigatórios") {
		t.Error("expected missing-fields message")
	}
	for _, label := range []string{visit.LabelOwnerName, visit.LabelPlateNumber} {
		if !strings.Contains(body, label) {
			t.Errorf("expected label %q in error list", label)
		}
	}
	// The submitted values survive the round trip.
	if !strings.Contains(body, "São José") {
		t.Error("expected submitted property name preserved")
	}
}

func TestGenerateMissingTakesPrecedenceOverBadTime(t *testing.T) {
	srv := testServer(t, "")

	form := completeForm()
	form.Set("nome_proprietario", "")
	form.Set("hora_inicio", "25:00")

	w := postForm(t, srv, "/gerar", form)
	body := w.Body.String()
	if !strings.Contains(body, "campos obrigatórios") {
		t.Error("expected missing-fields message")
	}
	if strings.Contains(body, "Horário inválido") {
		t.Error("time-format message must not show while fields are missing")
	}
}

func TestGenerateBadTime(t *testing.T) {
	srv := testServer(t, "")

	form := completeForm()
	form.Set("hora_fim", "08:60")

	w := postForm(t, srv, "/gerar", form)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Horário inválido") {
		t.Error("expected time-format message")
	}
	if !strings.Contains(body, visit.LabelEndTime) {
		t.Errorf("expected label %q", visit.LabelEndTime)
	}
	if strings.Contains(body, "campos obrigatórios") {
		t.Error("missing-fields message must not show for a complete form")
	}
}

func TestGenerateSuccess(t *testing.T) {
	chat := fakeChatServer(t, http.StatusOK,
		`{"choices":[{"message":{"content":"Texto refinado pela IA."}}]}`)
	srv := testServer(t, chat.URL)

	w := postForm(t, srv, "/gerar", completeForm())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Texto refinado pela IA.") {
		t.Error("expected refined text in result")
	}
	if strings.Contains(body, "Não foi possível refinar") {
		t.Error("unexpected refinement warning on success")
	}
	for _, want := range []string{
		`name="texto"`,
		`value="2024-05-01"`,
		`value="São José"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("result missing download field %q", want)
		}
	}
}

func TestGenerateRefinementFailureFallsBack(t *testing.T) {
	chat := fakeChatServer(t, http.StatusInternalServerError, `{}`)
	srv := testServer(t, chat.URL)

	w := postForm(t, srv, "/gerar", completeForm())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Não foi possível refinar") {
		t.Error("expected refinement warning")
	}
	// Unrefined template output is shown instead.
	for _, want := range []string{
		"Em atendimento à Ordem de Serviço",
		"PSR-001",
		"verificação in loco.",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("result missing raw template content %q", want)
		}
	}
}

func TestGenerateWithoutAPIKey(t *testing.T) {
	srv, err := NewServer(config.Config{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	w := postForm(t, srv, "/gerar", completeForm())
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestDownload(t *testing.T) {
	srv := testServer(t, "")

	form := url.Values{
		"texto":            {"Histórico final do relatório."},
		"data":             {"2024-05-01"},
		"nome_propriedade": {"São José"},
	}
	w := postForm(t, srv, "/download", form)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content-type = %q, want text/plain", ct)
	}
	// Non-ASCII filenames ride in an RFC 5987 extended parameter.
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "filename*=utf-8''historico_2024-05-01_S%C3%A3o-Jos%C3%A9.txt") {
		t.Errorf("content-disposition = %q", cd)
	}
	if w.Body.String() != "Histórico final do relatório." {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestDownloadASCIIFilename(t *testing.T) {
	srv := testServer(t, "")

	form := url.Values{
		"texto":            {"Histórico final."},
		"data":             {"2024-05-01"},
		"nome_propriedade": {"Boa Vista"},
	}
	w := postForm(t, srv, "/download", form)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, `filename=historico_2024-05-01_Boa-Vista.txt`) {
		t.Errorf("content-disposition = %q", cd)
	}
}

func TestDownloadEmptyText(t *testing.T) {
	srv := testServer(t, "")

	w := postForm(t, srv, "/download", url.Values{"texto": {"   "}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDownloadFilename(t *testing.T) {
	tests := []struct {
		name     string
		dateISO  string
		property string
		want     string
	}{
		{"simple", "2024-05-01", "São José", "historico_2024-05-01_São-José.txt"},
		{"punctuation collapsed", "2024-05-01", "Faz. 2 Irmãos!", "historico_2024-05-01_Faz-2-Irmãos.txt"},
		{"empty name", "2024-05-01", "", "historico_2024-05-01_propriedade.txt"},
		{"no date", "", "São José", "historico_São-José.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := downloadFilename(tt.dateISO, tt.property); got != tt.want {
				t.Errorf("downloadFilename(%q, %q) = %q, want %q", tt.dateISO, tt.property, got, tt.want)
			}
		})
	}
}

// captureLog swaps the default logger for a buffer-backed one.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestSubmissionCycleLogged(t *testing.T) {
	buf := captureLog(t)
	srv := testServer(t, "")

	w := postForm(t, srv, "/download", url.Values{"texto": {"Histórico final."}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	out := buf.String()
	if out == "" {
		t.Fatal("expected log output")
	}
	for _, want := range []string{"submission cycle", "POST", "/download", "status=200"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}

func TestRejectedSubmissionLoggedAtInfo(t *testing.T) {
	buf := captureLog(t)
	srv := testServer(t, "")

	form := completeForm()
	form.Set("nome_proprietario", "")
	postForm(t, srv, "/gerar", form)

	out := buf.String()
	if !strings.Contains(out, "status=422") {
		t.Errorf("expected 422 in log: %s", out)
	}
	if strings.Contains(out, "level=WARN") {
		t.Error("a rejected submission is routine, not a warning")
	}
}

func TestHealthAndStaticNotLogged(t *testing.T) {
	buf := captureLog(t)
	srv := testServer(t, "")

	for _, path := range []string{"/health", "/static/style.css"} {
		r := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, r)
	}

	if buf.Len() > 0 {
		t.Errorf("expected no log for asset/liveness paths, got: %s", buf.String())
	}
}

func TestStaticAssetsServed(t *testing.T) {
	srv := testServer(t, "")

	for _, path := range []string{"/static/style.css", "/static/geo.js", "/static/app.js"} {
		r := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want %d", path, w.Code, http.StatusOK)
		}
	}
}
