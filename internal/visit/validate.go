package visit

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Field labels as shown on the form. Violations are reported with these.
const (
	LabelVisitDate    = "Data da visita"
	LabelStartTime    = "Hora de início"
	LabelEndTime      = "Hora de término"
	LabelPropertyKind = "Tipo de propriedade"
	LabelPropertyName = "Nome da propriedade"
	LabelAddress      = "Endereço completo"
	LabelMunicipality = "Município"
	LabelState        = "UF"
	LabelGateCoords   = "Coordenadas da porteira"
	LabelHomeCoords   = "Coordenadas da sede"
	LabelArea         = "Área da propriedade (deve ser > 0)"
	LabelAreaUnit     = "Unidade de área"
	LabelOwnerName    = "Nome do proprietário"
	LabelTaxID        = "CPF/CNPJ"
	LabelPhone        = "Telefone"
	LabelMainActivity = "Atividade principal"
	LabelPlateNumber  = "Número da placa"
)

// Input holds the raw field values as collected from the form or a YAML
// visit file, before any validation.
type Input struct {
	VisitDate            string `yaml:"data"`
	StartTime            string `yaml:"hora_inicio"`
	EndTime              string `yaml:"hora_fim"`
	PropertyKind         string `yaml:"tipo_propriedade"`
	PropertyName         string `yaml:"nome_propriedade"`
	Address              string `yaml:"endereco"`
	Municipality         string `yaml:"municipio"`
	State                string `yaml:"uf"`
	GateCoordinates      string `yaml:"lat_long_porteira"`
	HomesteadCoordinates string `yaml:"lat_long_sede"`
	Area                 string `yaml:"area"`
	AreaUnit             string `yaml:"unidade_area"`
	OwnerName            string `yaml:"nome_proprietario"`
	TaxID                string `yaml:"cpf_cnpj"`
	Phone                string `yaml:"telefone"`
	MainActivity         string `yaml:"atividade_principal"`
	Vehicles             string `yaml:"veiculos"`
	CattleBrand          string `yaml:"marca_gado"`
	PlateNumber          string `yaml:"numero_placa"`
}

// Violations is the outcome of validating an Input. Missing lists required
// fields that are empty (or an area that is not > 0); BadTimes lists time
// fields that are present but not valid HH:MM clock times. The two classes
// are reported separately because a missing field takes precedence over a
// malformed time in the user-facing message.
type Violations struct {
	Missing  []string
	BadTimes []string
}

// OK reports whether the input passed every check.
func (v Violations) OK() bool {
	return len(v.Missing) == 0 && len(v.BadTimes) == 0
}

var timeShape = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// ValidTime reports whether s denotes a valid 24-hour HH:MM clock time.
// Leading/trailing whitespace is ignored; a single-digit hour is accepted.
func ValidTime(s string) bool {
	s = strings.TrimSpace(s)
	if !timeShape.MatchString(s) {
		return false
	}
	sep := strings.IndexByte(s, ':')
	hour, err := strconv.Atoi(s[:sep])
	if err != nil {
		return false
	}
	minute, err := strconv.Atoi(s[sep+1:])
	if err != nil {
		return false
	}
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}

// Validate applies every field rule independently and returns the collected
// violations, deduplicated and sorted for a stable error message. It never
// short-circuits: a submission with three empty fields reports all three.
func Validate(in Input) Violations {
	missing := make(map[string]bool)
	badTimes := make(map[string]bool)

	required := []struct {
		value string
		label string
	}{
		{in.VisitDate, LabelVisitDate},
		{in.PropertyName, LabelPropertyName},
		{in.Address, LabelAddress},
		{in.Municipality, LabelMunicipality},
		{in.GateCoordinates, LabelGateCoords},
		{in.HomesteadCoordinates, LabelHomeCoords},
		{in.OwnerName, LabelOwnerName},
		{in.TaxID, LabelTaxID},
		{in.Phone, LabelPhone},
		{in.MainActivity, LabelMainActivity},
		{in.PlateNumber, LabelPlateNumber},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing[f.label] = true
		}
	}

	// The date input submits ISO dates; a hand-written YAML file may not.
	if d := strings.TrimSpace(in.VisitDate); d != "" {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			missing[LabelVisitDate] = true
		}
	}

	// Selects on the form always carry a value; a hand-written YAML file
	// may not, or may carry an unknown one.
	if !PropertyKind(strings.TrimSpace(in.PropertyKind)).IsValid() {
		missing[LabelPropertyKind] = true
	}
	if !StateCode(strings.TrimSpace(in.State)).IsValid() {
		missing[LabelState] = true
	}
	if !AreaUnit(strings.TrimSpace(in.AreaUnit)).IsValid() {
		missing[LabelAreaUnit] = true
	}

	// Area gets its own label: absent, unparseable, non-finite and
	// non-positive all read as "must be > 0". ParseFloat accepts "NaN"
	// and "Inf", which must not reach the report.
	area, err := strconv.ParseFloat(strings.TrimSpace(in.Area), 64)
	if err != nil || math.IsNaN(area) || math.IsInf(area, 0) || area <= 0 {
		missing[LabelArea] = true
	}

	times := []struct {
		value string
		label string
	}{
		{in.StartTime, LabelStartTime},
		{in.EndTime, LabelEndTime},
	}
	for _, f := range times {
		if strings.TrimSpace(f.value) == "" {
			missing[f.label] = true
		} else if !ValidTime(f.value) {
			badTimes[f.label] = true
		}
	}

	return Violations{
		Missing:  sortedKeys(missing),
		BadTimes: sortedKeys(badTimes),
	}
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Record converts an Input that passed Validate into an immutable Record.
// Parse errors here mean the caller skipped validation.
func (in Input) Record() (Record, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(in.VisitDate))
	if err != nil {
		return Record{}, fmt.Errorf("parsing visit date: %w", err)
	}
	area, err := strconv.ParseFloat(strings.TrimSpace(in.Area), 64)
	if err != nil {
		return Record{}, fmt.Errorf("parsing area: %w", err)
	}

	return Record{
		VisitDate:            date,
		StartTime:            strings.TrimSpace(in.StartTime),
		EndTime:              strings.TrimSpace(in.EndTime),
		PropertyKind:         PropertyKind(strings.TrimSpace(in.PropertyKind)),
		PropertyName:         strings.TrimSpace(in.PropertyName),
		Address:              strings.TrimSpace(in.Address),
		Municipality:         strings.TrimSpace(in.Municipality),
		State:                StateCode(strings.TrimSpace(in.State)),
		GateCoordinates:      strings.TrimSpace(in.GateCoordinates),
		HomesteadCoordinates: strings.TrimSpace(in.HomesteadCoordinates),
		Area:                 area,
		AreaUnit:             AreaUnit(strings.TrimSpace(in.AreaUnit)),
		OwnerName:            strings.TrimSpace(in.OwnerName),
		TaxID:                strings.TrimSpace(in.TaxID),
		Phone:                strings.TrimSpace(in.Phone),
		MainActivity:         strings.TrimSpace(in.MainActivity),
		Vehicles:             strings.TrimSpace(in.Vehicles),
		CattleBrand:          strings.TrimSpace(in.CattleBrand),
		PlateNumber:          strings.TrimSpace(in.PlateNumber),
	}, nil
}
