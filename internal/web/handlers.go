package web

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"unicode"

	"github.com/cvasconcelos/relatorio-rural/internal/visit"
)

// formData feeds the visit form template. Values carries the previous
// submission back so a rejected form keeps what the user typed.
type formData struct {
	Values       visit.Input
	Kinds        []visit.PropertyKind
	States       []visit.StateCode
	Units        []visit.AreaUnit
	MissingError []string
	TimeError    []string
}

// resultData feeds the result page.
type resultData struct {
	Report       string
	Warning      string
	DateISO      string
	PropertyName string
}

// handleForm renders the visit form, or a configuration notice when the
// refinement credential is absent.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.refiner == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		s.render(w, "config_error.html", nil)
		return
	}

	s.render(w, "form.html", newFormData(visit.Input{}))
}

func newFormData(values visit.Input) formData {
	return formData{
		Values: values,
		Kinds:  visit.PropertyKinds,
		States: visit.StateCodes,
		Units:  visit.AreaUnits,
	}
}

// inputFromForm collects the raw field values from a submitted form.
func inputFromForm(r *http.Request) visit.Input {
	return visit.Input{
		VisitDate:            r.FormValue("data"),
		StartTime:            r.FormValue("hora_inicio"),
		EndTime:              r.FormValue("hora_fim"),
		PropertyKind:         r.FormValue("tipo_propriedade"),
		PropertyName:         r.FormValue("nome_propriedade"),
		Address:              r.FormValue("endereco"),
		Municipality:         r.FormValue("municipio"),
		State:                r.FormValue("uf"),
		GateCoordinates:      r.FormValue("lat_long_porteira"),
		HomesteadCoordinates: r.FormValue("lat_long_sede"),
		Area:                 r.FormValue("area"),
		AreaUnit:             r.FormValue("unidade_area"),
		OwnerName:            r.FormValue("nome_proprietario"),
		TaxID:                r.FormValue("cpf_cnpj"),
		Phone:                r.FormValue("telefone"),
		MainActivity:         r.FormValue("atividade_principal"),
		Vehicles:             r.FormValue("veiculos"),
		CattleBrand:          r.FormValue("marca_gado"),
		PlateNumber:          r.FormValue("numero_placa"),
	}
}

// handleGenerate runs one submission cycle: validate, render the template,
// refine, show the result. Validation failures re-render the form with the
// submitted values intact; a missing required field always takes precedence
// over a malformed time in the message shown.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.refiner == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		s.render(w, "config_error.html", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	in := inputFromForm(r)
	data := newFormData(in)

	violations := visit.Validate(in)
	if len(violations.Missing) > 0 {
		data.MissingError = violations.Missing
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, "form.html", data)
		return
	}
	if len(violations.BadTimes) > 0 {
		data.TimeError = violations.BadTimes
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, "form.html", data)
		return
	}

	rec, err := in.Record()
	if err != nil {
		http.Error(w, fmt.Sprintf("Error building record: %v", err), http.StatusInternalServerError)
		return
	}

	report := visit.Render(rec)

	final, err := s.refiner.Refine(r.Context(), report)
	var warning string
	if err != nil {
		slog.Warn("refinement failed, using raw template output", "error", err)
		warning = "Não foi possível refinar o texto com a IA. Exibindo o histórico sem refinamento."
	}

	s.render(w, "result.html", resultData{
		Report:       final,
		Warning:      warning,
		DateISO:      rec.VisitDate.Format("2006-01-02"),
		PropertyName: rec.PropertyName,
	})
}

// handleDownload replies with the final report as a plain-text attachment.
// The text travels with the request because nothing is kept server-side.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	text := r.FormValue("texto")
	if strings.TrimSpace(text) == "" {
		http.Error(w, "Nothing to download", http.StatusBadRequest)
		return
	}

	name := downloadFilename(r.FormValue("data"), r.FormValue("nome_propriedade"))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	// FormatMediaType switches to an RFC 5987 filename*= parameter when the
	// name carries non-ASCII, e.g. accented property names.
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	fmt.Fprint(w, text)
}

// downloadFilename derives the attachment name from the visit date and the
// property name, e.g. "historico_2024-05-01_São-José.txt".
func downloadFilename(dateISO, propertyName string) string {
	slug := slugify(propertyName)
	if slug == "" {
		slug = "propriedade"
	}
	if dateISO == "" {
		return fmt.Sprintf("historico_%s.txt", slug)
	}
	return fmt.Sprintf("historico_%s_%s.txt", dateISO, slug)
}

// slugify keeps letters and digits and collapses everything else to a
// single hyphen.
func slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
