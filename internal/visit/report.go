package visit

import (
	"fmt"
	"strconv"
	"strings"
)

// Render produces the fixed-structure visit report for a validated Record.
// Pure function: the same record always yields a byte-identical paragraph.
// Values are interpolated verbatim; the record is trusted to have passed
// Validate.
func Render(r Record) string {
	var b strings.Builder

	fmt.Fprintf(&b,
		"Em atendimento à Ordem de Serviço, vinculada ao Programa de Segurança Rural no Vale do Jamari, "+
			"foi realizada uma visita técnica em %s, com início às %s e término às %s. "+
			"A diligência ocorreu na propriedade rural denominada %s \"%s\", situada em %s, "+
			"na Zona Rural do município de %s/%s. "+
			"Procedeu-se ao levantamento das coordenadas geográficas, sendo a porteira de acesso principal "+
			"localizada em %s, e a sede/residência principal em %s. "+
			"A área total da propriedade compreende %s %s. "+
			"O proprietário, Sr. \"%s\", inscrito no CPF/CNPJ sob o nº \"%s\", com contato telefônico principal \"%s\", "+
			"esteve presente durante a visita. "+
			"A principal atividade econômica desenvolvida no local é \"%s\".",
		r.VisitDate.Format("02/01/2006"), r.StartTime, r.EndTime,
		r.PropertyKind, r.PropertyName, r.Address,
		r.Municipality, r.State,
		r.GateCoordinates, r.HomesteadCoordinates,
		formatArea(r.Area), r.AreaUnit,
		r.OwnerName, r.TaxID, r.Phone,
		r.MainActivity,
	)

	if r.Vehicles != "" {
		fmt.Fprintf(&b, " Foram identificados os seguintes veículos automotores na propriedade: %s.", r.Vehicles)
	}
	if r.CattleBrand != "" {
		fmt.Fprintf(&b, " O rebanho possui marca/sinal/ferro registrado como \"%s\".", r.CattleBrand)
	}

	fmt.Fprintf(&b,
		" A visita teve como objetivo central o cadastro e georreferenciamento da propriedade no sistema "+
			"do Programa de Segurança Rural, o que foi efetivado. "+
			"Consequentemente, foi afixada a placa de identificação do programa, de nº \"%s\", entregue via mídia digital. "+
			"Adicionalmente, foram repassadas ao proprietário orientações concernentes ao programa mencionado, "+
			"a fim de sanar as dúvidas existentes. "+
			"A presente visita cumpriu os objetivos estabelecidos pela referida Ordem de Serviço, "+
			"sendo as informações coletadas e registradas com base nas declarações do proprietário "+
			"e na verificação in loco.",
		r.PlateNumber,
	)

	return b.String()
}

// formatArea renders the area without a fixed precision, so 10 reads as
// "10" and 2.5 as "2.5".
func formatArea(a float64) string {
	return strconv.FormatFloat(a, 'f', -1, 64)
}
